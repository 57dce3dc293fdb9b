package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/repository"
	"github.com/cppla/aiblog/utils"
)

const (
	maxCategoryName        = 64
	maxCategoryDescription = 500
)

// CategoryStore is the persistence CategoryService needs.
type CategoryStore interface {
	FindByID(ctx context.Context, id uint) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) error
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id uint) error
	CountPosts(ctx context.Context, id uint) (int64, error)
	CountChildren(ctx context.Context, id uint) (int64, error)
	ListWithCounts(ctx context.Context, ownerID uint, publicOnly bool) ([]models.CategoryWithCounts, error)
	Ancestors(ctx context.Context, id uint) ([]uint, error)
}

// CategoryInput carries the editable category fields. A nil IsPublic keeps
// the current value (public on create).
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    *bool  `json:"is_public"`
	ParentID    *uint  `json:"parent_id"`
}

type CategoryService struct {
	store CategoryStore
}

func NewCategoryService(store CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

// List returns the caller's categories as a tree with counts.
func (s *CategoryService) List(ctx context.Context, caller CallerContext) ([]*CategoryNode, error) {
	if !caller.Authenticated() {
		return nil, Unauthorized("login required")
	}
	rows, err := s.store.ListWithCounts(ctx, caller.UserID, false)
	if err != nil {
		return nil, err
	}
	return BuildCategoryTree(rows), nil
}

// PublicTree returns the public categories of a blog.
func (s *CategoryService) PublicTree(ctx context.Context, ownerID uint) ([]*CategoryNode, error) {
	rows, err := s.store.ListWithCounts(ctx, ownerID, true)
	if err != nil {
		return nil, err
	}
	return BuildCategoryTree(rows), nil
}

func (s *CategoryService) Create(ctx context.Context, caller CallerContext, in CategoryInput) (*models.Category, error) {
	if !caller.Authenticated() {
		return nil, Unauthorized("login required")
	}
	name, desc, err := cleanCategoryInput(in)
	if err != nil {
		return nil, err
	}
	if in.ParentID != nil {
		if err := s.checkParent(ctx, caller.UserID, 0, *in.ParentID); err != nil {
			return nil, err
		}
	}
	c := &models.Category{
		OwnerID:     caller.UserID,
		Name:        name,
		Description: desc,
		IsPublic:    in.IsPublic == nil || *in.IsPublic,
		ParentID:    in.ParentID,
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, caller CallerContext, id uint, in CategoryInput) (*models.Category, error) {
	c, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	name, desc, err := cleanCategoryInput(in)
	if err != nil {
		return nil, err
	}
	if in.ParentID != nil {
		if *in.ParentID == c.ID {
			return nil, Validation("a category cannot be its own parent")
		}
		if err := s.checkParent(ctx, c.OwnerID, c.ID, *in.ParentID); err != nil {
			return nil, err
		}
	}
	c.Name = name
	c.Description = desc
	c.ParentID = in.ParentID
	if in.IsPublic != nil {
		c.IsPublic = *in.IsPublic
	}
	if err := s.store.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a category that has neither posts nor subcategories.
func (s *CategoryService) Delete(ctx context.Context, caller CallerContext, id uint) error {
	c, err := s.owned(ctx, caller, id)
	if err != nil {
		return err
	}
	posts, err := s.store.CountPosts(ctx, c.ID)
	if err != nil {
		return err
	}
	children, err := s.store.CountChildren(ctx, c.ID)
	if err != nil {
		return err
	}
	if posts > 0 || children > 0 {
		utils.Sugar.Infow("category delete refused", "category", c.ID, "posts", posts, "children", children)
		return Conflict("category still has posts or subcategories")
	}
	return s.store.Delete(ctx, c.ID)
}

func (s *CategoryService) owned(ctx context.Context, caller CallerContext, id uint) (*models.Category, error) {
	if !caller.Authenticated() {
		return nil, Unauthorized("login required")
	}
	c, err := s.store.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NotFound("category")
	}
	if err != nil {
		return nil, err
	}
	if !caller.CanManage(c.OwnerID) {
		return nil, Forbidden("not the owner of this category")
	}
	return c, nil
}

// checkParent verifies parentID exists, belongs to ownerID and does not have
// selfID on its ancestor chain.
func (s *CategoryService) checkParent(ctx context.Context, ownerID, selfID, parentID uint) error {
	parent, err := s.store.FindByID(ctx, parentID)
	if errors.Is(err, repository.ErrNotFound) {
		return Validation("parent category does not exist")
	}
	if err != nil {
		return err
	}
	if parent.OwnerID != ownerID {
		return Validation("parent category belongs to another user")
	}
	if selfID == 0 {
		return nil
	}
	ancestors, err := s.store.Ancestors(ctx, parentID)
	if err != nil {
		return err
	}
	if slices.Contains(ancestors, selfID) {
		return Validation("parent would create a cycle")
	}
	return nil
}

func cleanCategoryInput(in CategoryInput) (string, string, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", "", Validation("name is required")
	}
	if utf8.RuneCountInString(name) > maxCategoryName {
		return "", "", Validation("name must be at most %d characters", maxCategoryName)
	}
	desc := utils.SanitizeText(in.Description)
	if utf8.RuneCountInString(desc) > maxCategoryDescription {
		return "", "", Validation("description must be at most %d characters", maxCategoryDescription)
	}
	return name, desc, nil
}

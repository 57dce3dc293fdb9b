package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/repository"
	"github.com/cppla/aiblog/utils"
)

const (
	DefaultPostLimit = 30
	MaxPostLimit     = 100

	maxPostTitle       = 255
	maxPostDescription = 500
)

// PostStore is the persistence PostService needs.
type PostStore interface {
	List(ctx context.Context, f repository.PostFilter) ([]models.Post, int64, error)
	FindByID(ctx context.Context, id uint) (*models.Post, error)
	Create(ctx context.Context, p *models.Post) error
	Update(ctx context.Context, p *models.Post) error
	Delete(ctx context.Context, id uint) error
	IncrementView(ctx context.Context, id uint) error
	MigrateLegacyCategories(ctx context.Context, batchSize int) (int, error)
}

// CategoryOwnership resolves which of a set of categories a user owns.
type CategoryOwnership interface {
	FindOwned(ctx context.Context, ownerID uint, ids []uint) ([]models.Category, error)
}

// BlogDirectory resolves blogs by their address.
type BlogDirectory interface {
	FindByURLID(ctx context.Context, urlID string) (*models.User, error)
}

// PostQuery is a listing request. CategoryIDs matches posts sharing at least
// one category and wins over CategoryID.
type PostQuery struct {
	Search      string
	SearchField string
	CategoryID  *uint
	CategoryIDs []uint
	Offset      int
	Limit       int
}

// PostInput carries the editable post fields.
type PostInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Published   bool   `json:"published"`
	CategoryID  *uint  `json:"category_id"`
	CategoryIDs []uint `json:"category_ids"`
}

// AuthorSummary is the public face of a post author.
type AuthorSummary struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	URLID     string `json:"url_id"`
	BlogTitle string `json:"blog_title"`
}

// PostSummary is a post without its body, as shown in listings.
type PostSummary struct {
	ID          uint           `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Published   bool           `json:"published"`
	CategoryID  *uint          `json:"category_id"`
	CategoryIDs []uint         `json:"category_ids"`
	ViewCount   int64          `json:"view_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Author      *AuthorSummary `json:"author,omitempty"`
}

// PostDetail is a full post.
type PostDetail struct {
	PostSummary
	Content string `json:"content"`
}

// PostPage is one page of a listing.
type PostPage struct {
	Items      []PostSummary    `json:"items"`
	Pagination utils.Pagination `json:"pagination"`
}

func toSummary(p *models.Post) PostSummary {
	s := PostSummary{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Published:   p.Published,
		CategoryID:  p.CategoryID,
		CategoryIDs: p.CategoryIDs,
		ViewCount:   p.ViewCount,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if s.CategoryIDs == nil {
		s.CategoryIDs = []uint{}
	}
	if p.Author != nil {
		s.Author = &AuthorSummary{ID: p.Author.ID, Name: p.Author.Name, URLID: p.Author.URLID, BlogTitle: p.Author.BlogTitle}
	}
	return s
}

func toDetail(p *models.Post) PostDetail {
	return PostDetail{PostSummary: toSummary(p), Content: p.Content}
}

// ActiveBlog reports whether u is an approved account that has not been deleted.
func ActiveBlog(u *models.User) bool {
	return u != nil && u.IsActive() && u.Role != models.RolePending
}

type PostService struct {
	posts      PostStore
	categories CategoryOwnership
	blogs      BlogDirectory
}

func NewPostService(posts PostStore, categories CategoryOwnership, blogs BlogDirectory) *PostService {
	return &PostService{posts: posts, categories: categories, blogs: blogs}
}

// ListOwn lists the caller's posts, drafts included.
func (s *PostService) ListOwn(ctx context.Context, caller CallerContext, q PostQuery) (*PostPage, error) {
	if !caller.Authenticated() {
		return nil, Unauthorized("login required")
	}
	return s.list(ctx, q, repository.PostFilter{AuthorID: caller.UserID})
}

// ListBlog lists the published posts of one blog.
func (s *PostService) ListBlog(ctx context.Context, urlID string, q PostQuery) (*PostPage, error) {
	blog, err := s.Blog(ctx, urlID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, q, repository.PostFilter{AuthorID: blog.ID, PublishedOnly: true})
}

// ListPublic lists published posts across all active blogs.
func (s *PostService) ListPublic(ctx context.Context, q PostQuery) (*PostPage, error) {
	return s.list(ctx, q, repository.PostFilter{PublishedOnly: true, ActiveAuthors: true})
}

func (s *PostService) list(ctx context.Context, q PostQuery, f repository.PostFilter) (*PostPage, error) {
	f.Search = q.Search
	f.SearchField = q.SearchField
	f.CategoryID = q.CategoryID
	f.CategoryIDs = utils.UniqueUint(q.CategoryIDs)
	f.Offset, f.Limit = normalizePage(q.Offset, q.Limit)

	posts, total, err := s.posts.List(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]PostSummary, len(posts))
	for i := range posts {
		items[i] = toSummary(&posts[i])
	}
	return &PostPage{Items: items, Pagination: utils.NewPagination(f.Offset, f.Limit, total)}, nil
}

func normalizePage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultPostLimit
	}
	if limit > MaxPostLimit {
		limit = MaxPostLimit
	}
	return offset, limit
}

// Blog resolves an active blog by address.
func (s *PostService) Blog(ctx context.Context, urlID string) (*models.User, error) {
	u, err := s.blogs.FindByURLID(ctx, strings.ToLower(strings.TrimSpace(urlID)))
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !ActiveBlog(u)) {
		return nil, NotFound("blog")
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Get returns a post to its owner or an admin, drafts included.
func (s *PostService) Get(ctx context.Context, caller CallerContext, id uint) (*PostDetail, error) {
	p, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	d := toDetail(p)
	return &d, nil
}

// View returns a published post of an active blog and counts the view.
func (s *PostService) View(ctx context.Context, urlID string, id uint) (*PostDetail, error) {
	blog, err := s.Blog(ctx, urlID)
	if err != nil {
		return nil, err
	}
	p, err := s.posts.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && (p.AuthorID != blog.ID || !p.Published)) {
		return nil, NotFound("post")
	}
	if err != nil {
		return nil, err
	}
	if err := s.posts.IncrementView(ctx, p.ID); err != nil {
		return nil, err
	}
	p.ViewCount++
	d := toDetail(p)
	return &d, nil
}

func (s *PostService) Create(ctx context.Context, caller CallerContext, in PostInput) (*PostDetail, error) {
	if !caller.Authenticated() {
		return nil, Unauthorized("login required")
	}
	p := &models.Post{AuthorID: caller.UserID}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, err
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, err
	}
	d := toDetail(p)
	return &d, nil
}

func (s *PostService) Update(ctx context.Context, caller CallerContext, id uint, in PostInput) (*PostDetail, error) {
	p, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, err
	}
	if err := s.posts.Update(ctx, p); err != nil {
		return nil, err
	}
	d := toDetail(p)
	return &d, nil
}

func (s *PostService) Delete(ctx context.Context, caller CallerContext, id uint) error {
	p, err := s.owned(ctx, caller, id)
	if err != nil {
		return err
	}
	return s.posts.Delete(ctx, p.ID)
}

// MigrateLegacyCategories copies legacy single categories into the ordered list.
func (s *PostService) MigrateLegacyCategories(ctx context.Context, batchSize int) (int, error) {
	return s.posts.MigrateLegacyCategories(ctx, batchSize)
}

func (s *PostService) owned(ctx context.Context, caller CallerContext, id uint) (*models.Post, error) {
	if !caller.Authenticated() {
		return nil, Unauthorized("login required")
	}
	p, err := s.posts.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NotFound("post")
	}
	if err != nil {
		return nil, err
	}
	if !caller.CanManage(p.AuthorID) {
		return nil, Forbidden("not the author of this post")
	}
	return p, nil
}

// apply validates in and copies it onto p. Every category must belong to the
// post's author.
func (s *PostService) apply(ctx context.Context, p *models.Post, in PostInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Validation("title is required")
	}
	if utf8.RuneCountInString(title) > maxPostTitle {
		return Validation("title must be at most %d characters", maxPostTitle)
	}
	desc := utils.SanitizeText(in.Description)
	if utf8.RuneCountInString(desc) > maxPostDescription {
		return Validation("description must be at most %d characters", maxPostDescription)
	}

	ids := utils.UniqueUint(in.CategoryIDs)
	legacy := in.CategoryID
	switch {
	case len(ids) > 0:
		first := ids[0]
		legacy = &first
	case legacy != nil && *legacy != 0:
		ids = []uint{*legacy}
	default:
		legacy = nil
	}
	if len(ids) > 0 {
		owned, err := s.categories.FindOwned(ctx, p.AuthorID, ids)
		if err != nil {
			return err
		}
		if len(owned) != len(ids) {
			return Validation("unknown category")
		}
	}

	p.Title = title
	p.Description = desc
	p.Content = utils.Sanitize(in.Content)
	p.Published = in.Published
	p.CategoryID = legacy
	p.CategoryIDs = ids
	return nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/aiblog/models"
)

// MaxCategoryDepth bounds every recursive walk over parent links.
const MaxCategoryDepth = 64

// CategoryRepository persists categories and computes their tree annotations.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) FindByID(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// FindOwned returns the categories among ids that belong to ownerID.
func (r *CategoryRepository) FindOwned(ctx context.Context, ownerID uint, ids []uint) ([]models.Category, error) {
	var cs []models.Category
	if len(ids) == 0 {
		return cs, nil
	}
	err := r.db.WithContext(ctx).Where("owner_id = ? AND id IN ?", ownerID, ids).Find(&cs).Error
	return cs, err
}

func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CategoryRepository) Update(ctx context.Context, c *models.Category) error {
	c.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"name":        c.Name,
			"description": c.Description,
			"is_public":   c.IsPublic,
			"parent_id":   c.ParentID,
			"updated_at":  c.UpdatedAt,
		}).Error
}

func (r *CategoryRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountPosts counts posts referencing the category through either the legacy
// column or the join table.
func (r *CategoryRepository) CountPosts(ctx context.Context, id uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("category_id = ? OR EXISTS (SELECT 1 FROM post_categories pc WHERE pc.post_id = posts.id AND pc.category_id = ?)", id, id).
		Count(&n).Error
	return n, err
}

// CountChildren counts direct subcategories.
func (r *CategoryRepository) CountChildren(ctx context.Context, id uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).Where("parent_id = ?", id).Count(&n).Error
	return n, err
}

// ListWithCounts returns every category of ownerID with depth, post and direct
// child counts, sorted by (depth, name). Categories with no path to a root come
// last with depth -1. publicOnly restricts categories, children and posts to
// what anonymous readers may see.
func (r *CategoryRepository) ListWithCounts(ctx context.Context, ownerID uint, publicOnly bool) ([]models.CategoryWithCounts, error) {
	visible := ""
	postVisible := ""
	if publicOnly {
		visible = " AND is_public = ?"
		postVisible = " AND p.published = ?"
	}

	query := `
WITH RECURSIVE tree (id, depth) AS (
	SELECT id, 0 FROM categories WHERE owner_id = ? AND parent_id IS NULL
	UNION ALL
	SELECT c.id, t.depth + 1 FROM categories c JOIN tree t ON c.parent_id = t.id
	WHERE c.owner_id = ? AND t.depth < ?
)
SELECT c.id, c.owner_id, c.name, c.description, c.is_public, c.parent_id, c.created_at, c.updated_at,
	COALESCE(d.depth, -1) AS depth,
	(SELECT COUNT(*) FROM posts p WHERE (p.category_id = c.id OR EXISTS (
		SELECT 1 FROM post_categories pc WHERE pc.post_id = p.id AND pc.category_id = c.id))` + postVisible + `) AS post_count,
	(SELECT COUNT(*) FROM categories ch WHERE ch.parent_id = c.id` + visible + `) AS subcategory_count
FROM categories c
LEFT JOIN (SELECT id, MIN(depth) AS depth FROM tree GROUP BY id) d ON d.id = c.id
WHERE c.owner_id = ?` + visible + `
ORDER BY CASE WHEN d.depth IS NULL THEN 1 ELSE 0 END, d.depth, c.name, c.id`

	args := []interface{}{ownerID, ownerID, MaxCategoryDepth}
	if publicOnly {
		args = append(args, true, true)
	}
	args = append(args, ownerID)
	if publicOnly {
		args = append(args, true)
	}

	var rows []models.CategoryWithCounts
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list categories with counts: %w", err)
	}
	return rows, nil
}

// Ancestors returns the ids on the parent chain of id, nearest first, without id
// itself. The walk stops after MaxCategoryDepth steps.
func (r *CategoryRepository) Ancestors(ctx context.Context, id uint) ([]uint, error) {
	query := `
WITH RECURSIVE chain (id, parent_id, depth) AS (
	SELECT id, parent_id, 0 FROM categories WHERE id = ?
	UNION ALL
	SELECT c.id, c.parent_id, ch.depth + 1 FROM categories c JOIN chain ch ON c.id = ch.parent_id
	WHERE ch.depth < ?
)
SELECT id FROM chain WHERE depth > 0 ORDER BY depth`

	var ids []uint
	if err := r.db.WithContext(ctx).Raw(query, id, MaxCategoryDepth).Scan(&ids).Error; err != nil {
		return nil, fmt.Errorf("category ancestors: %w", err)
	}
	return ids, nil
}

package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/aiblog/models"
)

// Search fields accepted by PostFilter.
const (
	SearchTitle   = "title"
	SearchContent = "content"
)

// PostFilter describes a post listing query. CategoryIDs takes priority over
// CategoryID when both are set.
type PostFilter struct {
	AuthorID      uint
	PublishedOnly bool
	// ActiveAuthors limits results to approved, non-deleted blogs.
	ActiveAuthors bool
	Search        string
	SearchField   string
	CategoryID    *uint
	CategoryIDs   []uint
	Offset        int
	Limit         int
}

// PostRepository persists posts and their ordered category links.
type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) scoped(ctx context.Context, f PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if f.AuthorID != 0 {
		q = q.Where("posts.author_id = ?", f.AuthorID)
	}
	if f.PublishedOnly {
		q = q.Where("posts.published = ?", true)
	}
	if f.ActiveAuthors {
		q = q.Where("EXISTS (SELECT 1 FROM users u WHERE u.id = posts.author_id AND u.deleted_at IS NULL AND u.role <> ?)", models.RolePending)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		col := "posts.title"
		if f.SearchField == SearchContent {
			col = "posts.content"
		}
		q = q.Where(likeClause(col), containsPattern(s))
	}
	switch {
	case len(f.CategoryIDs) > 0:
		q = q.Where("EXISTS (SELECT 1 FROM post_categories pc WHERE pc.post_id = posts.id AND pc.category_id IN ?)", f.CategoryIDs)
	case f.CategoryID != nil:
		q = q.Where("(posts.category_id = ? OR EXISTS (SELECT 1 FROM post_categories pc WHERE pc.post_id = posts.id AND pc.category_id = ?))", *f.CategoryID, *f.CategoryID)
	}
	return q
}

// List returns one page of posts matching f, newest first, plus the total
// match count from a separate count query.
func (r *PostRepository) List(ctx context.Context, f PostFilter) ([]models.Post, int64, error) {
	var total int64
	if err := r.scoped(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	var posts []models.Post
	err := r.scoped(ctx, f).
		Preload("Author").
		Order("posts.created_at DESC").Order("posts.id DESC").
		Offset(f.Offset).Limit(f.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	if err := r.attachCategories(ctx, posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *PostRepository) FindByID(ctx context.Context, id uint) (*models.Post, error) {
	var p models.Post
	if err := r.db.WithContext(ctx).Preload("Author").First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	posts := []models.Post{p}
	if err := r.attachCategories(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// CategoryIDsOf returns the ordered category ids of each given post.
func (r *PostRepository) CategoryIDsOf(ctx context.Context, postIDs []uint) (map[uint][]uint, error) {
	out := make(map[uint][]uint, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var links []models.PostCategory
	err := r.db.WithContext(ctx).
		Where("post_id IN ?", postIDs).
		Order("post_id").Order("position").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("load post categories: %w", err)
	}
	for _, l := range links {
		out[l.PostID] = append(out[l.PostID], l.CategoryID)
	}
	return out, nil
}

func (r *PostRepository) attachCategories(ctx context.Context, posts []models.Post) error {
	ids := make([]uint, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	links, err := r.CategoryIDsOf(ctx, ids)
	if err != nil {
		return err
	}
	for i := range posts {
		posts[i].CategoryIDs = links[posts[i].ID]
		if posts[i].CategoryIDs == nil {
			posts[i].CategoryIDs = []uint{}
		}
	}
	return nil
}

func writeLinks(tx *gorm.DB, postID uint, categoryIDs []uint) error {
	if err := tx.Where("post_id = ?", postID).Delete(&models.PostCategory{}).Error; err != nil {
		return fmt.Errorf("clear post categories: %w", err)
	}
	if len(categoryIDs) == 0 {
		return nil
	}
	links := make([]models.PostCategory, len(categoryIDs))
	for i, id := range categoryIDs {
		links[i] = models.PostCategory{PostID: postID, CategoryID: id, Position: i}
	}
	if err := tx.Create(&links).Error; err != nil {
		return fmt.Errorf("write post categories: %w", err)
	}
	return nil
}

// Create inserts the post together with its category links.
func (r *PostRepository) Create(ctx context.Context, p *models.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Author").Create(p).Error; err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		return writeLinks(tx, p.ID, p.CategoryIDs)
	})
}

// Update rewrites the editable columns and replaces the category links.
func (r *PostRepository) Update(ctx context.Context, p *models.Post) error {
	p.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Post{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"title":       p.Title,
			"description": p.Description,
			"content":     p.Content,
			"published":   p.Published,
			"category_id": p.CategoryID,
			"updated_at":  p.UpdatedAt,
		}).Error
		if err != nil {
			return fmt.Errorf("update post: %w", err)
		}
		return writeLinks(tx, p.ID, p.CategoryIDs)
	})
}

func (r *PostRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.PostCategory{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// IncrementView bumps view_count by one in a single statement.
func (r *PostRepository) IncrementView(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MigrateLegacyCategories prepends each post's legacy category_id to its
// category links when missing. It walks posts in id order, batchSize at a time,
// and returns how many posts changed. Running it again changes nothing.
func (r *PostRepository) MigrateLegacyCategories(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	migrated := 0
	var lastID uint
	for {
		var batch []models.Post
		err := r.db.WithContext(ctx).
			Select("id", "category_id").
			Where("category_id IS NOT NULL AND id > ?", lastID).
			Order("id").Limit(batchSize).
			Find(&batch).Error
		if err != nil {
			return migrated, fmt.Errorf("load legacy batch: %w", err)
		}
		if len(batch) == 0 {
			return migrated, nil
		}
		lastID = batch[len(batch)-1].ID

		ids := make([]uint, len(batch))
		for i := range batch {
			ids[i] = batch[i].ID
		}
		links, err := r.CategoryIDsOf(ctx, ids)
		if err != nil {
			return migrated, err
		}
		for _, p := range batch {
			if slices.Contains(links[p.ID], *p.CategoryID) {
				continue
			}
			err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				if err := tx.Model(&models.PostCategory{}).Where("post_id = ?", p.ID).
					UpdateColumn("position", gorm.Expr("position + 1")).Error; err != nil {
					return err
				}
				return tx.Create(&models.PostCategory{PostID: p.ID, CategoryID: *p.CategoryID, Position: 0}).Error
			})
			if err != nil {
				return migrated, fmt.Errorf("migrate post %d: %w", p.ID, err)
			}
			migrated++
		}
	}
}

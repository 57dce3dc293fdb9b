package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/aiblog/models"
)

// Bucket is one row of a grouped top-N count.
type Bucket struct {
	Name  string `json:"name"`
	Count int64  `gorm:"column:total" json:"count"`
}

// UserCounts splits accounts by lifecycle state.
type UserCounts struct {
	Total   int64 `json:"total"`
	Pending int64 `json:"pending"`
	Active  int64 `json:"active"`
	Admins  int64 `json:"admins"`
	Deleted int64 `json:"deleted"`
}

// StatsRepository runs the aggregate queries behind the dashboards. An owner
// id of 0 means all blogs.
type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) posts(ctx context.Context, ownerID uint) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if ownerID != 0 {
		q = q.Where("author_id = ?", ownerID)
	}
	return q
}

func (r *StatsRepository) visits(ctx context.Context, ownerID uint) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.VisitorLog{})
	if ownerID != 0 {
		q = q.Where("user_id = ?", ownerID)
	}
	return q
}

func (r *StatsRepository) CountPosts(ctx context.Context, ownerID uint, publishedOnly bool) (int64, error) {
	var n int64
	q := r.posts(ctx, ownerID)
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	err := q.Count(&n).Error
	return n, err
}

// SumViews adds up view_count over the owner's posts.
func (r *StatsRepository) SumViews(ctx context.Context, ownerID uint) (int64, error) {
	var n int64
	err := r.posts(ctx, ownerID).Select("COALESCE(SUM(view_count), 0)").Scan(&n).Error
	return n, err
}

func (r *StatsRepository) CountVisits(ctx context.Context, ownerID uint) (int64, error) {
	var n int64
	err := r.visits(ctx, ownerID).Count(&n).Error
	return n, err
}

// CountPostsBetween counts posts created in [from, to).
func (r *StatsRepository) CountPostsBetween(ctx context.Context, ownerID uint, from, to time.Time) (int64, error) {
	var n int64
	err := r.posts(ctx, ownerID).Where("created_at >= ? AND created_at < ?", from, to).Count(&n).Error
	return n, err
}

// CountVisitsBetween counts visits in [from, to).
func (r *StatsRepository) CountVisitsBetween(ctx context.Context, ownerID uint, from, to time.Time) (int64, error) {
	var n int64
	err := r.visits(ctx, ownerID).Where("visited_at >= ? AND visited_at < ?", from, to).Count(&n).Error
	return n, err
}

// CountSignupsBetween counts accounts created in [from, to).
func (r *StatsRepository) CountSignupsBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", from, to).Count(&n).Error
	return n, err
}

// TopReferrers groups visits by referrer domain, largest first.
func (r *StatsRepository) TopReferrers(ctx context.Context, ownerID uint, limit int) ([]Bucket, error) {
	return r.top(ctx, ownerID, "referrer_domain", limit)
}

// TopCountries groups visits with a known country, largest first.
func (r *StatsRepository) TopCountries(ctx context.Context, ownerID uint, limit int) ([]Bucket, error) {
	return r.top(ctx, ownerID, "country", limit)
}

func (r *StatsRepository) top(ctx context.Context, ownerID uint, column string, limit int) ([]Bucket, error) {
	var out []Bucket
	err := r.visits(ctx, ownerID).
		Select(column+" AS name, COUNT(*) AS total").
		Where(column+" IS NOT NULL AND "+column+" <> ''").
		Group(column).
		Order("total DESC").Order(column).
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("top %s: %w", column, err)
	}
	return out, nil
}

func (r *StatsRepository) CountUsers(ctx context.Context) (UserCounts, error) {
	var c UserCounts
	base := func() *gorm.DB { return r.db.WithContext(ctx).Model(&models.User{}) }
	steps := []struct {
		dst *int64
		q   *gorm.DB
	}{
		{&c.Total, base()},
		{&c.Pending, base().Where("deleted_at IS NULL AND role = ?", models.RolePending)},
		{&c.Active, base().Where("deleted_at IS NULL AND role <> ?", models.RolePending)},
		{&c.Admins, base().Where("deleted_at IS NULL AND role = ?", models.RoleAdmin)},
		{&c.Deleted, base().Where("deleted_at IS NOT NULL")},
	}
	for _, s := range steps {
		if err := s.q.Count(s.dst).Error; err != nil {
			return c, fmt.Errorf("count users: %w", err)
		}
	}
	return c, nil
}

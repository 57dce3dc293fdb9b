package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/aiblog/models"
)

// UserStatus filters users by lifecycle state.
type UserStatus string

const (
	UserStatusAll     UserStatus = "all"
	UserStatusPending UserStatus = "pending"
	UserStatusActive  UserStatus = "active"
	UserStatusDeleted UserStatus = "deleted"
)

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Status UserStatus
	Search string
	Offset int
	Limit  int
}

// UserRepository persists users and their deletion audit trail.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepository) FindByURLID(ctx context.Context, urlID string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("url_id = ?", urlID).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// URLIDTaken reports whether another user than exceptID already owns urlID.
func (r *UserRepository) URLIDTaken(ctx context.Context, urlID string, exceptID uint) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&models.User{}).Where("url_id = ?", urlID)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(u.Email)
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return translate(err)
	}
	return nil
}

// UpdateFields writes the given columns of user id.
func (r *UserRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	return nil
}

// SoftDelete marks the user deleted and appends the audit row atomically.
func (r *UserRepository) SoftDelete(ctx context.Context, id uint, entry *models.UserDeleteLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
			"deleted_at": entry.DeletedAt,
			"updated_at": time.Now(),
		})
		if res.Error != nil {
			return fmt.Errorf("mark user deleted: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("write delete log: %w", err)
		}
		return nil
	})
}

// Restore clears deleted_at and sets role.
func (r *UserRepository) Restore(ctx context.Context, id uint, role models.Role) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"deleted_at": nil,
		"role":       role,
	})
}

// LatestDeleteLog returns the newest audit row of a user.
func (r *UserRepository) LatestDeleteLog(ctx context.Context, userID uint) (*models.UserDeleteLog, error) {
	var l models.UserDeleteLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("deleted_at DESC").Order("id DESC").
		First(&l).Error
	if err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

// DeleteLogs lists every audit row of a user, newest first.
func (r *UserRepository) DeleteLogs(ctx context.Context, userID uint) ([]models.UserDeleteLog, error) {
	var logs []models.UserDeleteLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("deleted_at DESC").Order("id DESC").
		Find(&logs).Error
	return logs, err
}

func (r *UserRepository) List(ctx context.Context, f UserFilter) ([]models.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	switch f.Status {
	case UserStatusPending:
		q = q.Where("deleted_at IS NULL AND role = ?", models.RolePending)
	case UserStatusActive:
		q = q.Where("deleted_at IS NULL AND role <> ?", models.RolePending)
	case UserStatusDeleted:
		q = q.Where("deleted_at IS NOT NULL")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := containsPattern(s)
		q = q.Where("("+likeClause("name")+" OR "+likeClause("email")+")", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	var users []models.User
	if err := q.Order("created_at DESC").Order("id DESC").Offset(f.Offset).Limit(f.Limit).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// PromoteAdmins grants ADMIN to existing accounts with the given emails and
// returns how many rows changed.
func (r *UserRepository) PromoteAdmins(ctx context.Context, emails []string) (int64, error) {
	if len(emails) == 0 {
		return 0, nil
	}
	lower := make([]string, 0, len(emails))
	for _, e := range emails {
		lower = append(lower, strings.ToLower(strings.TrimSpace(e)))
	}
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email IN ? AND role <> ?", lower, models.RoleAdmin).
		Updates(map[string]interface{}{
			"role":        models.RoleAdmin,
			"approved_at": gorm.Expr("COALESCE(approved_at, ?)", now),
			"updated_at":  now,
		})
	return res.RowsAffected, res.Error
}

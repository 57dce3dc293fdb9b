package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is the access level of an account.
type Role string

const (
	// RolePending marks a registered account that has not been approved yet.
	RolePending Role = "PENDING"
	// RoleUser is an approved blogger.
	RoleUser Role = "USER"
	// RoleAdmin can approve, delete and restore accounts.
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePending, RoleUser, RoleAdmin:
		return true
	}
	return false
}

// User is a blog owner. Passwords are stored as bcrypt hashes only.
// DeletedAt is a plain nullable timestamp, not gorm.DeletedAt: admin queries
// must still see soft-deleted accounts.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"size:64;not null" json:"name"`
	Email        string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         Role       `gorm:"size:16;not null;default:'PENDING';index" json:"role"`
	URLID        string     `gorm:"column:url_id;size:64;not null;uniqueIndex" json:"url_id"`
	BlogTitle    string     `gorm:"size:255" json:"blog_title"`
	RegisterIP   string     `gorm:"size:45" json:"-"`
	ApprovedAt   *time.Time `json:"approved_at"`
	DeletedAt    *time.Time `gorm:"index" json:"deleted_at"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsActive reports whether the account has not been soft-deleted.
func (u *User) IsActive() bool {
	return u.DeletedAt == nil
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = RolePending
	}
	return nil
}

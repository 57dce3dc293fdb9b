package models

import "time"

// Category groups a user's posts. Categories form a tree through ParentID;
// a parent always belongs to the same owner.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OwnerID     uint      `gorm:"index;not null" json:"owner_id"`
	Name        string    `gorm:"size:64;not null" json:"name"`
	Description string    `gorm:"size:500" json:"description"`
	IsPublic    bool      `gorm:"not null" json:"is_public"`
	ParentID    *uint     `gorm:"index" json:"parent_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryWithCounts is a category annotated with aggregate counts and its
// depth from the root (-1 when no root is reachable).
type CategoryWithCounts struct {
	Category
	Depth            int   `json:"depth"`
	PostCount        int64 `json:"post_count"`
	SubcategoryCount int64 `json:"subcategory_count"`
}

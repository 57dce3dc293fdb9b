package models

import "time"

// Post is a blog entry. CategoryIDs is the authoritative, ordered category list
// (persisted in post_categories); CategoryID is the legacy single reference kept
// for older clients.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AuthorID    uint      `gorm:"index;not null" json:"author_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"size:500" json:"description"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Published   bool      `gorm:"index;not null" json:"published"`
	CategoryID  *uint     `gorm:"index" json:"category_id"`
	CategoryIDs []uint    `gorm:"-" json:"category_ids"`
	ViewCount   int64     `gorm:"not null;default:0" json:"view_count"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Author      *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

// PostCategory links a post to one of its categories; Position keeps the
// order the author chose.
type PostCategory struct {
	PostID     uint `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	CategoryID uint `gorm:"primaryKey;autoIncrement:false;index" json:"category_id"`
	Position   int  `gorm:"not null;default:0" json:"position"`
}

// TableName specifies the table name
func (PostCategory) TableName() string {
	return "post_categories"
}

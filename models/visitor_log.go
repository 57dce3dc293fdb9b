package models

import "time"

// VisitorLog records a single page view of a blog. Rows are written once and
// never updated.
type VisitorLog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"index;not null" json:"user_id"`
	PostID         *uint     `gorm:"index" json:"post_id"`
	Referrer       string    `gorm:"size:512" json:"referrer"`
	ReferrerDomain string    `gorm:"size:255;index" json:"referrer_domain"`
	UserAgent      string    `gorm:"size:512" json:"user_agent"`
	Browser        string    `gorm:"size:64" json:"browser"`
	OS             string    `gorm:"column:os;size:64" json:"os"`
	Device         string    `gorm:"size:16" json:"device"`
	IPAddress      string    `gorm:"size:45" json:"ip_address"`
	Country        *string   `gorm:"size:64;index" json:"country"`
	City           *string   `gorm:"size:128" json:"city"`
	VisitedAt      time.Time `gorm:"index;not null" json:"visited_at"`
}

package models

import "time"

// UserDeleteLog is the append-only audit trail of soft deletions. Rows are never
// updated or removed; restore reads the newest one to recover the role.
type UserDeleteLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	Email        string    `gorm:"size:255;not null" json:"email"`
	Name         string    `gorm:"size:64" json:"name"`
	DeletedBy    string    `gorm:"size:255;not null" json:"deleted_by"`
	Reason       string    `gorm:"size:500" json:"reason"`
	RoleAtDelete Role      `gorm:"size:16;not null" json:"role_at_delete"`
	DeletedAt    time.Time `gorm:"index;not null" json:"deleted_at"`
}

// TableName specifies the table name
func (UserDeleteLog) TableName() string {
	return "user_delete_logs"
}

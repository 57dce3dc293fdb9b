package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/cppla/aiblog/models"
)

// VisitorRepository appends page-view rows.
type VisitorRepository struct {
	db *gorm.DB
}

func NewVisitorRepository(db *gorm.DB) *VisitorRepository {
	return &VisitorRepository{db: db}
}

func (r *VisitorRepository) Create(ctx context.Context, v *models.VisitorLog) error {
	return r.db.WithContext(ctx).Create(v).Error
}

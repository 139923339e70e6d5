package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/withjoono/grinalda-sub000/models"
)

// CancelLogRepository appends cancellation audit records. There is no update
// or delete: the log is append-only.
type CancelLogRepository interface {
	Create(ctx context.Context, entry *models.CancelLog) error
}

type gormCancelLogRepo struct {
	db *gorm.DB
}

func (r *gormCancelLogRepo) Create(ctx context.Context, entry *models.CancelLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

package repository

import (
	"context"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/model/entity"
	"gorm.io/gorm"
)

// AuditLogRepository 审计日志仓储，只增不改
type AuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository 创建审计日志仓储
func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create 写入审计日志
func (r *AuditLogRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// ListByEntity 获取某实体的审计日志
func (r *AuditLogRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]entity.AuditLog, error) {
	var logs []entity.AuditLog
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}

// ListRecent 获取最近的审计日志
func (r *AuditLogRepository) ListRecent(ctx context.Context, limit int) ([]entity.AuditLog, error) {
	var logs []entity.AuditLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

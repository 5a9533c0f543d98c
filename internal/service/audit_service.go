package service

import (
	"context"
	"encoding/json"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/model/entity"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/repository"
)

// AuditService 审计日志服务
type AuditService struct {
	repo *repository.AuditLogRepository
}

// NewAuditService 创建审计日志服务
func NewAuditService(repo *repository.AuditLogRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Log 写入一条审计日志，快照序列化失败时记空值不阻断主流程
func (s *AuditService) Log(ctx context.Context, userID, action, entityType, entityID string, oldValue, newValue interface{}) {
	log := &entity.AuditLog{
		ID:         repository.NewID(),
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		OldValues:  toSnapshot(oldValue),
		NewValues:  toSnapshot(newValue),
	}
	_ = s.repo.Create(ctx, log)
}

// ListByEntity 获取某实体的审计日志
func (s *AuditService) ListByEntity(ctx context.Context, entityType, entityID string) ([]entity.AuditLog, error) {
	return s.repo.ListByEntity(ctx, entityType, entityID)
}

// ListRecent 获取最近的审计日志
func (s *AuditService) ListRecent(ctx context.Context, limit int) ([]entity.AuditLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListRecent(ctx, limit)
}

func toSnapshot(v interface{}) entity.JSONB {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m entity.JSONB
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}

// NotificationService 站内通知服务
type NotificationService struct {
	repo *repository.NotificationRepository
}

// NewNotificationService 创建通知服务
func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// Notify 给用户发一条通知，失败不阻断主流程
func (s *NotificationService) Notify(ctx context.Context, userID, title, message, entityType, entityID string) {
	if userID == "" {
		return
	}
	n := &entity.Notification{
		ID:         repository.NewID(),
		UserID:     userID,
		Title:      title,
		Message:    message,
		EntityType: entityType,
		EntityID:   entityID,
	}
	_ = s.repo.Create(ctx, n)
}

// ListMine 获取用户的通知
func (s *NotificationService) ListMine(ctx context.Context, userID string, unreadOnly bool, limit int) ([]entity.Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	items, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, 0, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return items, unread, nil
}

// MarkRead 标记已读
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	return s.repo.MarkRead(ctx, id, userID)
}

// MarkAllRead 全部标记已读
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllRead(ctx, userID)
}

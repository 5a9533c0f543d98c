package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/model/entity"
	"gorm.io/gorm"
)

// ServiceRequestRepository 委托请求仓储
type ServiceRequestRepository struct {
	db *gorm.DB
}

// NewServiceRequestRepository 创建委托请求仓储
func NewServiceRequestRepository(db *gorm.DB) *ServiceRequestRepository {
	return &ServiceRequestRepository{db: db}
}

// DB 返回底层连接，供服务层开启事务
func (r *ServiceRequestRepository) DB() *gorm.DB {
	return r.db
}

// FindByID 根据ID查找委托请求，带样品与测试计划
func (r *ServiceRequestRepository) FindByID(ctx context.Context, id string) (*entity.ServiceRequest, error) {
	var req entity.ServiceRequest
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Lab").
		Preload("Samples").
		Preload("TestPlans").
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// Create 创建委托请求，编码在同一事务内生成
func (r *ServiceRequestRepository) Create(ctx context.Context, req *entity.ServiceRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		code, err := NextCode(tx, "SR")
		if err != nil {
			return err
		}
		req.RequestNumber = code
		return translateError(tx.Create(req).Error)
	})
}

// Update 更新委托请求
func (r *ServiceRequestRepository) Update(ctx context.Context, req *entity.ServiceRequest) error {
	return translateError(r.db.WithContext(ctx).Save(req).Error)
}

// UpdateStatus 更新状态，附带可选字段
func (r *ServiceRequestRepository) UpdateStatus(ctx context.Context, id, status string, extra map[string]interface{}) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	for k, v := range extra {
		updates[k] = v
	}
	return r.db.WithContext(ctx).
		Model(&entity.ServiceRequest{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete 删除委托请求
func (r *ServiceRequestRepository) Delete(ctx context.Context, id string) error {
	return translateError(r.db.WithContext(ctx).Delete(&entity.ServiceRequest{}, "id = ?", id).Error)
}

var requestSortColumns = map[string]bool{
	"created_at":           true,
	"updated_at":           true,
	"request_number":       true,
	"priority":             true,
	"status":               true,
	"requested_completion": true,
}

// List 获取委托请求列表
func (r *ServiceRequestRepository) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.ServiceRequest, int64, error) {
	var reqs []entity.ServiceRequest

	query := r.db.WithContext(ctx).Model(&entity.ServiceRequest{})

	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		query = query.Where("title ILIKE ? OR request_number ILIKE ? OR manufacturer ILIKE ?",
			"%"+keyword+"%", "%"+keyword+"%", "%"+keyword+"%")
	}
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if reqType, ok := filters["request_type"].(string); ok && reqType != "" {
		query = query.Where("request_type = ?", reqType)
	}
	if priority, ok := filters["priority"].(string); ok && priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if customerID, ok := filters["customer_id"].(string); ok && customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	if labID, ok := filters["assigned_lab_id"].(string); ok && labID != "" {
		query = query.Where("assigned_lab_id = ?", labID)
	}

	sortBy, _ := filters["sort_by"].(string)
	sortDir, _ := filters["sort_dir"].(string)
	order := allowedSort(sortBy, sortDir, requestSortColumns)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * pageSize
	err := query.
		Preload("Customer").
		Preload("Lab").
		Order(order).
		Offset(offset).
		Limit(pageSize).
		Find(&reqs).Error
	if err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

// CountByStatus 按状态统计请求数
func (r *ServiceRequestRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&entity.ServiceRequest{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

// CountCompletedBetween 统计区间内完成的请求数
func (r *ServiceRequestRepository) CountCompletedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.ServiceRequest{}).
		Where("status = ? AND actual_completion BETWEEN ? AND ?", entity.RequestStatusCompleted, from, to).
		Count(&count).Error
	return count, err
}

// ListUpcomingDeadlines 获取临近交期的未完成请求
func (r *ServiceRequestRepository) ListUpcomingDeadlines(ctx context.Context, within time.Duration, limit int) ([]entity.ServiceRequest, error) {
	var reqs []entity.ServiceRequest
	now := time.Now()
	err := r.db.WithContext(ctx).
		Where("status NOT IN ? AND requested_completion IS NOT NULL AND requested_completion <= ?",
			[]string{entity.RequestStatusCompleted, entity.RequestStatusCancelled}, now.Add(within)).
		Order("requested_completion ASC").
		Limit(limit).
		Preload("Customer").
		Find(&reqs).Error
	return reqs, err
}

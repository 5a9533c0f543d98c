package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/model/entity"
	"gorm.io/gorm"
)

// ReportRepository 报告仓储
type ReportRepository struct {
	db *gorm.DB
}

// NewReportRepository 创建报告仓储
func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// FindByID 根据ID查找报告
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*entity.Report, error) {
	var report entity.Report
	err := r.db.WithContext(ctx).
		Preload("ServiceRequest").
		Preload("TestPlan").
		Where("id = ?", id).
		First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &report, nil
}

// Create 创建报告，编码在同一事务内生成
func (r *ReportRepository) Create(ctx context.Context, report *entity.Report) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		code, err := NextCode(tx, "RPT")
		if err != nil {
			return err
		}
		report.ReportNumber = code
		return translateError(tx.Create(report).Error)
	})
}

// Update 更新报告
func (r *ReportRepository) Update(ctx context.Context, report *entity.Report) error {
	return translateError(r.db.WithContext(ctx).Save(report).Error)
}

// UpdateStatus 更新报告状态，附带可选字段
func (r *ReportRepository) UpdateStatus(ctx context.Context, id, status string, extra map[string]interface{}) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	for k, v := range extra {
		updates[k] = v
	}
	return r.db.WithContext(ctx).
		Model(&entity.Report{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete 删除报告
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	return translateError(r.db.WithContext(ctx).Delete(&entity.Report{}, "id = ?", id).Error)
}

// List 获取报告列表
func (r *ReportRepository) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.Report, int64, error) {
	var reports []entity.Report

	query := r.db.WithContext(ctx).Model(&entity.Report{})

	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		query = query.Where("title ILIKE ? OR report_number ILIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if reportType, ok := filters["report_type"].(string); ok && reportType != "" {
		query = query.Where("report_type = ?", reportType)
	}
	if requestID, ok := filters["service_request_id"].(string); ok && requestID != "" {
		query = query.Where("service_request_id = ?", requestID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * pageSize
	err := query.
		Preload("ServiceRequest").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&reports).Error
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

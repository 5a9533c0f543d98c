package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/model/entity"
	"gorm.io/gorm"
)

// SampleRepository 样品仓储
type SampleRepository struct {
	db *gorm.DB
}

// NewSampleRepository 创建样品仓储
func NewSampleRepository(db *gorm.DB) *SampleRepository {
	return &SampleRepository{db: db}
}

// DB 返回底层连接，供服务层开启事务
func (r *SampleRepository) DB() *gorm.DB {
	return r.db
}

// FindByID 根据ID查找样品，带测试结果
func (r *SampleRepository) FindByID(ctx context.Context, id string) (*entity.Sample, error) {
	var sample entity.Sample
	err := r.db.WithContext(ctx).
		Preload("ServiceRequest").
		Preload("TestResults").
		Where("id = ?", id).
		First(&sample).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sample, nil
}

// Update 更新样品
func (r *SampleRepository) Update(ctx context.Context, sample *entity.Sample) error {
	return translateError(r.db.WithContext(ctx).Save(sample).Error)
}

// Delete 删除样品
func (r *SampleRepository) Delete(ctx context.Context, id string) error {
	return translateError(r.db.WithContext(ctx).Delete(&entity.Sample{}, "id = ?", id).Error)
}

var sampleSortColumns = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"sample_number": true,
	"status":        true,
	"received_at":   true,
}

// List 获取样品列表
func (r *SampleRepository) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.Sample, int64, error) {
	var samples []entity.Sample

	query := r.db.WithContext(ctx).Model(&entity.Sample{})

	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		query = query.Where("sample_number ILIKE ? OR batch_number ILIKE ? OR model_number ILIKE ?",
			"%"+keyword+"%", "%"+keyword+"%", "%"+keyword+"%")
	}
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if sampleType, ok := filters["sample_type"].(string); ok && sampleType != "" {
		query = query.Where("sample_type = ?", sampleType)
	}
	if requestID, ok := filters["service_request_id"].(string); ok && requestID != "" {
		query = query.Where("service_request_id = ?", requestID)
	}

	sortBy, _ := filters["sort_by"].(string)
	sortDir, _ := filters["sort_dir"].(string)
	order := allowedSort(sortBy, sortDir, sampleSortColumns)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * pageSize
	err := query.
		Preload("ServiceRequest").
		Order(order).
		Offset(offset).
		Limit(pageSize).
		Find(&samples).Error
	if err != nil {
		return nil, 0, err
	}
	return samples, total, nil
}

// ListCustodyRecords 获取样品流转记录，按时间正序
func (r *SampleRepository) ListCustodyRecords(ctx context.Context, sampleID string) ([]entity.SampleCustodyRecord, error) {
	var records []entity.SampleCustodyRecord
	err := r.db.WithContext(ctx).
		Where("sample_id = ?", sampleID).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

// CreateWithCustody 创建样品并写入登记流转记录，同一事务
func (r *SampleRepository) CreateWithCustody(ctx context.Context, sample *entity.Sample, performedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		code, err := NextCode(tx, "SMP")
		if err != nil {
			return err
		}
		sample.SampleNumber = code
		sample.Status = entity.SampleStatusRegistered
		if err := tx.Create(sample).Error; err != nil {
			return translateError(err)
		}
		record := &entity.SampleCustodyRecord{
			ID:          NewID(),
			SampleID:    sample.ID,
			Action:      entity.CustodyActionRegistered,
			ToLocation:  sample.StorageLocation,
			PerformedBy: performedBy,
			Notes:       "Sample registered",
		}
		return tx.Create(record).Error
	})
}

// Receive 接收样品并写入流转记录，同一事务
func (r *SampleRepository) Receive(ctx context.Context, sample *entity.Sample, condition, location, performedBy, notes string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&entity.Sample{}).
			Where("id = ?", sample.ID).
			Updates(map[string]interface{}{
				"status":              entity.SampleStatusReceived,
				"receiving_condition": condition,
				"storage_location":    location,
				"received_at":         now,
				"received_by":         performedBy,
				"updated_at":          now,
			}).Error; err != nil {
			return err
		}
		record := &entity.SampleCustodyRecord{
			ID:           NewID(),
			SampleID:     sample.ID,
			Action:       entity.CustodyActionReceived,
			FromLocation: sample.StorageLocation,
			ToLocation:   location,
			PerformedBy:  performedBy,
			Notes:        notes,
		}
		return tx.Create(record).Error
	})
}

// Transfer 转移样品位置并写入流转记录，同一事务
func (r *SampleRepository) Transfer(ctx context.Context, sample *entity.Sample, toLocation, performedBy, notes string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Sample{}).
			Where("id = ?", sample.ID).
			Updates(map[string]interface{}{
				"storage_location": toLocation,
				"updated_at":       time.Now(),
			}).Error; err != nil {
			return err
		}
		record := &entity.SampleCustodyRecord{
			ID:           NewID(),
			SampleID:     sample.ID,
			Action:       entity.CustodyActionTransferred,
			FromLocation: sample.StorageLocation,
			ToLocation:   toLocation,
			PerformedBy:  performedBy,
			Notes:        notes,
		}
		return tx.Create(record).Error
	})
}

// CountByStatus 按状态统计样品数
func (r *SampleRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&entity.Sample{}).
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

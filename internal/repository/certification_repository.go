package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/model/entity"
	"gorm.io/gorm"
)

// CertificationRepository 证书仓储
type CertificationRepository struct {
	db *gorm.DB
}

// NewCertificationRepository 创建证书仓储
func NewCertificationRepository(db *gorm.DB) *CertificationRepository {
	return &CertificationRepository{db: db}
}

// DB 返回底层连接，供服务层开启事务
func (r *CertificationRepository) DB() *gorm.DB {
	return r.db
}

// FindByID 根据ID查找证书
func (r *CertificationRepository) FindByID(ctx context.Context, id string) (*entity.Certification, error) {
	var cert entity.Certification
	err := r.db.WithContext(ctx).
		Preload("ServiceRequest").
		Where("id = ?", id).
		First(&cert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cert, nil
}

// FindByNumber 根据证书编号查找，用于公开验证
func (r *CertificationRepository) FindByNumber(ctx context.Context, number string) (*entity.Certification, error) {
	var cert entity.Certification
	err := r.db.WithContext(ctx).
		Where("certificate_number = ?", number).
		First(&cert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cert, nil
}

// Create 创建证书，编码在同一事务内生成
func (r *CertificationRepository) Create(ctx context.Context, cert *entity.Certification) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		code, err := NextCode(tx, "CERT")
		if err != nil {
			return err
		}
		cert.CertificateNumber = code
		return translateError(tx.Create(cert).Error)
	})
}

// Update 更新证书
func (r *CertificationRepository) Update(ctx context.Context, cert *entity.Certification) error {
	return translateError(r.db.WithContext(ctx).Save(cert).Error)
}

// UpdateStatus 更新证书状态，附带可选字段
func (r *CertificationRepository) UpdateStatus(ctx context.Context, id, status string, extra map[string]interface{}) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	for k, v := range extra {
		updates[k] = v
	}
	return r.db.WithContext(ctx).
		Model(&entity.Certification{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// List 获取证书列表
func (r *CertificationRepository) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.Certification, int64, error) {
	var certs []entity.Certification

	query := r.db.WithContext(ctx).Model(&entity.Certification{})

	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		query = query.Where("certificate_number ILIKE ? OR manufacturer ILIKE ?",
			"%"+keyword+"%", "%"+keyword+"%")
	}
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if certType, ok := filters["certificate_type"].(string); ok && certType != "" {
		query = query.Where("certificate_type = ?", certType)
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
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&certs).Error
	if err != nil {
		return nil, 0, err
	}
	return certs, total, nil
}

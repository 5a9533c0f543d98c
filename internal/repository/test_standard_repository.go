package repository

import (
	"context"
	"errors"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/model/entity"
	"gorm.io/gorm"
)

// TestStandardRepository 测试标准仓储
type TestStandardRepository struct {
	db *gorm.DB
}

// NewTestStandardRepository 创建测试标准仓储
func NewTestStandardRepository(db *gorm.DB) *TestStandardRepository {
	return &TestStandardRepository{db: db}
}

// FindByID 根据ID查找标准
func (r *TestStandardRepository) FindByID(ctx context.Context, id string) (*entity.TestStandard, error) {
	var std entity.TestStandard
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&std).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &std, nil
}

// Create 创建标准
func (r *TestStandardRepository) Create(ctx context.Context, std *entity.TestStandard) error {
	return translateError(r.db.WithContext(ctx).Create(std).Error)
}

// Update 更新标准
func (r *TestStandardRepository) Update(ctx context.Context, std *entity.TestStandard) error {
	return translateError(r.db.WithContext(ctx).Save(std).Error)
}

// ListActive 获取启用的标准，按编码排序
func (r *TestStandardRepository) ListActive(ctx context.Context) ([]entity.TestStandard, error) {
	var stds []entity.TestStandard
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("standard_code ASC").
		Find(&stds).Error
	return stds, err
}

// List 获取标准列表
func (r *TestStandardRepository) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.TestStandard, int64, error) {
	var stds []entity.TestStandard

	query := r.db.WithContext(ctx).Model(&entity.TestStandard{})

	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		query = query.Where("standard_code ILIKE ? OR name ILIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}
	if category, ok := filters["category"].(string); ok && category != "" {
		query = query.Where("category = ?", category)
	}

	total, err := paginate(query, page, pageSize, "standard_code ASC", &stds)
	if err != nil {
		return nil, 0, err
	}
	return stds, total, nil
}

package repository

import (
	"context"
	"errors"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/model/entity"
	"gorm.io/gorm"
)

// CustomerRepository 客户仓储
type CustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository 创建客户仓储
func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// FindByID 根据ID查找客户
func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*entity.Customer, error) {
	var customer entity.Customer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// Create 创建客户
func (r *CustomerRepository) Create(ctx context.Context, customer *entity.Customer) error {
	return translateError(r.db.WithContext(ctx).Create(customer).Error)
}

// Update 更新客户
func (r *CustomerRepository) Update(ctx context.Context, customer *entity.Customer) error {
	return translateError(r.db.WithContext(ctx).Save(customer).Error)
}

// Delete 删除客户
func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	return translateError(r.db.WithContext(ctx).Delete(&entity.Customer{}, "id = ?", id).Error)
}

// List 获取客户列表
func (r *CustomerRepository) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.Customer, int64, error) {
	var customers []entity.Customer

	query := r.db.WithContext(ctx).Model(&entity.Customer{})

	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		query = query.Where("company_name ILIKE ? OR contact_name ILIKE ? OR email ILIKE ?",
			"%"+keyword+"%", "%"+keyword+"%", "%"+keyword+"%")
	}
	if country, ok := filters["country"].(string); ok && country != "" {
		query = query.Where("country = ?", country)
	}

	total, err := paginate(query, page, pageSize, "company_name ASC", &customers)
	if err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

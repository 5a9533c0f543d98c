package repository

import (
	"context"
	"errors"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/model/entity"
	"gorm.io/gorm"
)

// LabFacilityRepository 实验室仓储
type LabFacilityRepository struct {
	db *gorm.DB
}

// NewLabFacilityRepository 创建实验室仓储
func NewLabFacilityRepository(db *gorm.DB) *LabFacilityRepository {
	return &LabFacilityRepository{db: db}
}

// FindByID 根据ID查找实验室，带设备
func (r *LabFacilityRepository) FindByID(ctx context.Context, id string) (*entity.LabFacility, error) {
	var lab entity.LabFacility
	err := r.db.WithContext(ctx).
		Preload("Equipment").
		Where("id = ?", id).
		First(&lab).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lab, nil
}

// FindByCode 根据编码查找实验室
func (r *LabFacilityRepository) FindByCode(ctx context.Context, code string) (*entity.LabFacility, error) {
	var lab entity.LabFacility
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&lab).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lab, nil
}

// Create 创建实验室
func (r *LabFacilityRepository) Create(ctx context.Context, lab *entity.LabFacility) error {
	return translateError(r.db.WithContext(ctx).Create(lab).Error)
}

// Update 更新实验室
func (r *LabFacilityRepository) Update(ctx context.Context, lab *entity.LabFacility) error {
	return translateError(r.db.WithContext(ctx).Save(lab).Error)
}

// Delete 删除实验室
func (r *LabFacilityRepository) Delete(ctx context.Context, id string) error {
	return translateError(r.db.WithContext(ctx).Delete(&entity.LabFacility{}, "id = ?", id).Error)
}

// List 获取实验室列表
func (r *LabFacilityRepository) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.LabFacility, int64, error) {
	var labs []entity.LabFacility

	query := r.db.WithContext(ctx).Model(&entity.LabFacility{})

	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		query = query.Where("name ILIKE ? OR code ILIKE ? OR city ILIKE ?",
			"%"+keyword+"%", "%"+keyword+"%", "%"+keyword+"%")
	}
	if facilityType, ok := filters["facility_type"].(string); ok && facilityType != "" {
		query = query.Where("facility_type = ?", facilityType)
	}
	if active, ok := filters["is_active"].(bool); ok {
		query = query.Where("is_active = ?", active)
	}

	total, err := paginate(query, page, pageSize, "name ASC", &labs)
	if err != nil {
		return nil, 0, err
	}
	return labs, total, nil
}

// CountActiveRequests 统计实验室承接的进行中请求数
func (r *LabFacilityRepository) CountActiveRequests(ctx context.Context, labID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.ServiceRequest{}).
		Where("assigned_lab_id = ? AND status NOT IN ?", labID,
			[]string{entity.RequestStatusCompleted, entity.RequestStatusCancelled}).
		Count(&count).Error
	return count, err
}

// ListActiveRequests 获取实验室进行中的请求
func (r *LabFacilityRepository) ListActiveRequests(ctx context.Context, labID string) ([]entity.ServiceRequest, error) {
	var requests []entity.ServiceRequest
	err := r.db.WithContext(ctx).
		Where("assigned_lab_id = ? AND status NOT IN ?", labID,
			[]string{entity.RequestStatusCompleted, entity.RequestStatusCancelled}).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

// Workload 实验室工作负荷统计
type Workload struct {
	LabID           string `json:"lab_id"`
	ActiveRequests  int64  `json:"active_requests"`
	ActivePlans     int64  `json:"active_plans"`
	PendingPlans    int64  `json:"pending_plans"`
	CompletedPlans  int64  `json:"completed_plans"`
	EquipmentActive int64  `json:"equipment_active"`
}

// GetWorkload 统计单个实验室的工作负荷
func (r *LabFacilityRepository) GetWorkload(ctx context.Context, labID string) (*Workload, error) {
	w := &Workload{LabID: labID}
	db := r.db.WithContext(ctx)

	if err := db.Model(&entity.ServiceRequest{}).
		Where("assigned_lab_id = ? AND status NOT IN ?", labID,
			[]string{entity.RequestStatusCompleted, entity.RequestStatusCancelled}).
		Count(&w.ActiveRequests).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.TestPlan{}).
		Where("assigned_lab_id = ? AND status = ?", labID, entity.PlanStatusInProgress).
		Count(&w.ActivePlans).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.TestPlan{}).
		Where("assigned_lab_id = ? AND status IN ?", labID,
			[]string{entity.PlanStatusPending, entity.PlanStatusScheduled}).
		Count(&w.PendingPlans).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.TestPlan{}).
		Where("assigned_lab_id = ? AND status = ?", labID, entity.PlanStatusCompleted).
		Count(&w.CompletedPlans).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Equipment{}).
		Where("lab_facility_id = ? AND status = ?", labID, "active").
		Count(&w.EquipmentActive).Error; err != nil {
		return nil, err
	}
	return w, nil
}

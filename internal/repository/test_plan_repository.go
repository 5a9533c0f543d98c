package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/model/entity"
	"gorm.io/gorm"
)

// TestPlanRepository 测试计划仓储
type TestPlanRepository struct {
	db *gorm.DB
}

// NewTestPlanRepository 创建测试计划仓储
func NewTestPlanRepository(db *gorm.DB) *TestPlanRepository {
	return &TestPlanRepository{db: db}
}

// DB 返回底层连接，供服务层开启事务
func (r *TestPlanRepository) DB() *gorm.DB {
	return r.db
}

// FindByID 根据ID查找测试计划，带测试结果
func (r *TestPlanRepository) FindByID(ctx context.Context, id string) (*entity.TestPlan, error) {
	var plan entity.TestPlan
	err := r.db.WithContext(ctx).
		Preload("ServiceRequest").
		Preload("Sample").
		Preload("Standard").
		Preload("TestResults", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_number ASC")
		}).
		Where("id = ?", id).
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// Create 创建测试计划，编码在同一事务内生成
func (r *TestPlanRepository) Create(ctx context.Context, plan *entity.TestPlan) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		code, err := NextCode(tx, "TP")
		if err != nil {
			return err
		}
		plan.PlanNumber = code
		return translateError(tx.Create(plan).Error)
	})
}

// Update 更新测试计划
func (r *TestPlanRepository) Update(ctx context.Context, plan *entity.TestPlan) error {
	return translateError(r.db.WithContext(ctx).Save(plan).Error)
}

// Delete 删除测试计划
func (r *TestPlanRepository) Delete(ctx context.Context, id string) error {
	return translateError(r.db.WithContext(ctx).Delete(&entity.TestPlan{}, "id = ?", id).Error)
}

var planSortColumns = map[string]bool{
	"created_at":      true,
	"updated_at":      true,
	"plan_number":     true,
	"status":          true,
	"scheduled_start": true,
}

// List 获取测试计划列表
func (r *TestPlanRepository) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.TestPlan, int64, error) {
	var plans []entity.TestPlan

	query := r.db.WithContext(ctx).Model(&entity.TestPlan{})

	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		query = query.Where("title ILIKE ? OR plan_number ILIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if requestID, ok := filters["service_request_id"].(string); ok && requestID != "" {
		query = query.Where("service_request_id = ?", requestID)
	}
	if labID, ok := filters["assigned_lab_id"].(string); ok && labID != "" {
		query = query.Where("assigned_lab_id = ?", labID)
	}
	if standardID, ok := filters["standard_id"].(string); ok && standardID != "" {
		query = query.Where("standard_id = ?", standardID)
	}

	sortBy, _ := filters["sort_by"].(string)
	sortDir, _ := filters["sort_dir"].(string)
	order := allowedSort(sortBy, sortDir, planSortColumns)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * pageSize
	err := query.
		Preload("Standard").
		Preload("Sample").
		Order(order).
		Offset(offset).
		Limit(pageSize).
		Find(&plans).Error
	if err != nil {
		return nil, 0, err
	}
	return plans, total, nil
}

// FindResultByID 根据ID查找测试结果
func (r *TestPlanRepository) FindResultByID(ctx context.Context, id string) (*entity.TestResult, error) {
	var result entity.TestResult
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

// ListResults 获取计划的全部测试结果
func (r *TestPlanRepository) ListResults(ctx context.Context, planID string) ([]entity.TestResult, error) {
	var results []entity.TestResult
	err := r.db.WithContext(ctx).
		Where("test_plan_id = ?", planID).
		Order("sequence_number ASC").
		Find(&results).Error
	return results, err
}

// UpdateResult 更新测试结果
func (r *TestPlanRepository) UpdateResult(ctx context.Context, result *entity.TestResult) error {
	return translateError(r.db.WithContext(ctx).Save(result).Error)
}

// AddResult 新增测试结果并级联推进计划与样品状态，同一事务
// 计划由 pending/scheduled 进入 in_progress 且不覆盖已有 actual_start；
// 样品由 received 进入 in_testing
func (r *TestPlanRepository) AddResult(ctx context.Context, plan *entity.TestPlan, result *entity.TestResult) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		code, err := NextCode(tx, "TR")
		if err != nil {
			return err
		}
		result.ResultNumber = code
		if err := tx.Create(result).Error; err != nil {
			return translateError(err)
		}

		now := time.Now()
		if plan.Status == entity.PlanStatusPending || plan.Status == entity.PlanStatusScheduled {
			updates := map[string]interface{}{
				"status":     entity.PlanStatusInProgress,
				"updated_at": now,
			}
			if plan.ActualStart == nil {
				updates["actual_start"] = now
			}
			if err := tx.Model(&entity.TestPlan{}).
				Where("id = ?", plan.ID).
				Updates(updates).Error; err != nil {
				return err
			}
		}

		if result.SampleID != "" {
			if err := tx.Model(&entity.Sample{}).
				Where("id = ? AND status = ?", result.SampleID, entity.SampleStatusReceived).
				Updates(map[string]interface{}{
					"status":     entity.SampleStatusInTesting,
					"updated_at": now,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Complete 完成测试计划并级联样品状态，同一事务
// 终态由调用方根据结果集推导
func (r *TestPlanRepository) Complete(ctx context.Context, plan *entity.TestPlan, finalStatus, reviewedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&entity.TestPlan{}).
			Where("id = ?", plan.ID).
			Updates(map[string]interface{}{
				"status":      finalStatus,
				"actual_end":  now,
				"reviewed_by": reviewedBy,
				"review_date": now,
				"updated_at":  now,
			}).Error; err != nil {
			return err
		}
		if plan.SampleID != "" {
			if err := tx.Model(&entity.Sample{}).
				Where("id = ?", plan.SampleID).
				Updates(map[string]interface{}{
					"status":     entity.SampleStatusTested,
					"updated_at": now,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ResultCounts 计划下各状态的测试结果数
type ResultCounts struct {
	Total       int64 `json:"total"`
	Pending     int64 `json:"pending"`
	Pass        int64 `json:"pass"`
	Fail        int64 `json:"fail"`
	Conditional int64 `json:"conditional"`
}

// GetResultCounts 统计计划的测试结果分布
func (r *TestPlanRepository) GetResultCounts(ctx context.Context, planID string) (*ResultCounts, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&entity.TestResult{}).
		Select("status, COUNT(*) as count").
		Where("test_plan_id = ?", planID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := &ResultCounts{}
	for _, r := range rows {
		counts.Total += r.Count
		switch r.Status {
		case entity.ResultStatusPending:
			counts.Pending = r.Count
		case entity.ResultStatusPass:
			counts.Pass = r.Count
		case entity.ResultStatusFail:
			counts.Fail = r.Count
		case entity.ResultStatusConditional:
			counts.Conditional = r.Count
		}
	}
	return counts, nil
}

// CountByStatus 按状态统计计划数
func (r *TestPlanRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&entity.TestPlan{}).
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

// StandardSummary 各标准下的测试汇总
type StandardSummary struct {
	StandardID   string `json:"standard_id"`
	StandardCode string `json:"standard_code"`
	Name         string `json:"name"`
	PlanCount    int64  `json:"plan_count"`
	Completed    int64  `json:"completed"`
	Failed       int64  `json:"failed"`
}

// SummarizeByStandard 按测试标准汇总计划执行情况
func (r *TestPlanRepository) SummarizeByStandard(ctx context.Context) ([]StandardSummary, error) {
	var rows []StandardSummary
	err := r.db.WithContext(ctx).
		Model(&entity.TestPlan{}).
		Select(`test_standards.id as standard_id,
			test_standards.standard_code,
			test_standards.name,
			COUNT(test_plans.id) as plan_count,
			COUNT(test_plans.id) FILTER (WHERE test_plans.status = 'completed') as completed,
			COUNT(test_plans.id) FILTER (WHERE test_plans.status = 'failed') as failed`).
		Joins("JOIN test_standards ON test_standards.id = test_plans.standard_id").
		Group("test_standards.id, test_standards.standard_code, test_standards.name").
		Order("test_standards.standard_code ASC").
		Scan(&rows).Error
	return rows, err
}

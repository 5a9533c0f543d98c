package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/model/entity"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/repository"
	"github.com/xuri/excelize/v2"
)

// TestPlanService 测试计划服务
type TestPlanService struct {
	repo         *repository.TestPlanRepository
	sampleRepo   *repository.SampleRepository
	standardRepo *repository.TestStandardRepository
	audit        *AuditService
	notification *NotificationService
}

// NewTestPlanService 创建测试计划服务
func NewTestPlanService(
	repo *repository.TestPlanRepository,
	sampleRepo *repository.SampleRepository,
	standardRepo *repository.TestStandardRepository,
	audit *AuditService,
	notification *NotificationService,
) *TestPlanService {
	return &TestPlanService{
		repo:         repo,
		sampleRepo:   sampleRepo,
		standardRepo: standardRepo,
		audit:        audit,
		notification: notification,
	}
}

// List 获取测试计划列表，附带结果统计
func (s *TestPlanService) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.TestPlan, int64, error) {
	return s.repo.List(ctx, page, pageSize, filters)
}

// Get 获取测试计划详情
func (s *TestPlanService) Get(ctx context.Context, id string) (*entity.TestPlan, error) {
	return s.repo.FindByID(ctx, id)
}

// GetResultCounts 获取计划的结果统计
func (s *TestPlanService) GetResultCounts(ctx context.Context, id string) (*repository.ResultCounts, error) {
	return s.repo.GetResultCounts(ctx, id)
}

// ListStandards 获取启用的测试标准
func (s *TestPlanService) ListStandards(ctx context.Context) ([]entity.TestStandard, error) {
	return s.standardRepo.ListActive(ctx)
}

// CreatePlanReq 创建测试计划
type CreatePlanReq struct {
	ServiceRequestID string     `json:"service_request_id" binding:"required"`
	SampleID         string     `json:"sample_id"`
	StandardID       string     `json:"standard_id"`
	Title            string     `json:"title" binding:"required"`
	Description      string     `json:"description"`
	AssignedLabID    string     `json:"assigned_lab_id"`
	LeadTechnician   string     `json:"lead_technician"`
	ScheduledStart   *time.Time `json:"scheduled_start"`
	ScheduledEnd     *time.Time `json:"scheduled_end"`
	Notes            string     `json:"notes"`
}

// Create 创建测试计划
func (s *TestPlanService) Create(ctx context.Context, req CreatePlanReq, operatorID string) (*entity.TestPlan, error) {
	status := entity.PlanStatusPending
	if req.ScheduledStart != nil {
		status = entity.PlanStatusScheduled
	}
	plan := &entity.TestPlan{
		ID:               repository.NewID(),
		ServiceRequestID: req.ServiceRequestID,
		SampleID:         req.SampleID,
		StandardID:       req.StandardID,
		Title:            req.Title,
		Description:      req.Description,
		Status:           status,
		AssignedLabID:    req.AssignedLabID,
		LeadTechnician:   req.LeadTechnician,
		ScheduledStart:   req.ScheduledStart,
		ScheduledEnd:     req.ScheduledEnd,
		Notes:            req.Notes,
		CreatedBy:        operatorID,
	}
	if err := s.repo.Create(ctx, plan); err != nil {
		if err == repository.ErrReference {
			return nil, fmt.Errorf("%w: referenced service request, sample or standard not found", ErrValidation)
		}
		return nil, err
	}
	s.audit.Log(ctx, operatorID, "create", "test_plan", plan.ID, nil, plan)
	return plan, nil
}

// UpdatePlanReq 更新测试计划
type UpdatePlanReq struct {
	Status         *string    `json:"status"`
	Title          *string    `json:"title"`
	Description    *string    `json:"description"`
	SampleID       *string    `json:"sample_id"`
	StandardID     *string    `json:"standard_id"`
	AssignedLabID  *string    `json:"assigned_lab_id"`
	LeadTechnician *string    `json:"lead_technician"`
	ScheduledStart *time.Time `json:"scheduled_start"`
	ScheduledEnd   *time.Time `json:"scheduled_end"`
	Notes          *string    `json:"notes"`
}

// Update 更新测试计划，状态变更走流转表校验
func (s *TestPlanService) Update(ctx context.Context, id string, req UpdatePlanReq, operatorID string) (*entity.TestPlan, error) {
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *plan

	if req.Status != nil && *req.Status != plan.Status {
		if !entity.CanTransition(entity.ValidPlanTransitions, plan.Status, *req.Status) {
			return nil, fmt.Errorf("%w: cannot change status from %s to %s", ErrInvalidState, plan.Status, *req.Status)
		}
		plan.Status = *req.Status
	}
	if req.Title != nil {
		plan.Title = *req.Title
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.SampleID != nil {
		plan.SampleID = *req.SampleID
	}
	if req.StandardID != nil {
		plan.StandardID = *req.StandardID
	}
	if req.AssignedLabID != nil {
		plan.AssignedLabID = *req.AssignedLabID
	}
	if req.LeadTechnician != nil {
		plan.LeadTechnician = *req.LeadTechnician
	}
	if req.ScheduledStart != nil {
		plan.ScheduledStart = req.ScheduledStart
	}
	if req.ScheduledEnd != nil {
		plan.ScheduledEnd = req.ScheduledEnd
	}
	if req.Notes != nil {
		plan.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, plan); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, operatorID, "update", "test_plan", plan.ID, before, plan)
	return plan, nil
}

// Delete 删除测试计划，已完成的不可删除
func (s *TestPlanService) Delete(ctx context.Context, id, operatorID string) error {
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if plan.Status == entity.PlanStatusCompleted {
		return fmt.Errorf("%w: completed test plans cannot be deleted", ErrConflict)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Log(ctx, operatorID, "delete", "test_plan", id, plan, nil)
	return nil
}

// AddResultReq 新增测试结果
type AddResultReq struct {
	SampleID       string                 `json:"sample_id" binding:"required"`
	TestName       string                 `json:"test_name" binding:"required"`
	TestCode       string                 `json:"test_code"`
	SequenceNumber int                    `json:"sequence_number"`
	Status         string                 `json:"status"`
	MeasuredValues map[string]interface{} `json:"measured_values"`
	PassCriteria   map[string]interface{} `json:"pass_criteria"`
	TestConditions map[string]interface{} `json:"test_conditions"`
	Observations   string                 `json:"observations"`
	Deviations     string                 `json:"deviations"`
	EquipmentUsed  []string               `json:"equipment_used"`
	StartTime      *time.Time             `json:"start_time"`
	EndTime        *time.Time             `json:"end_time"`
}

// AddResult 新增测试结果并级联推进计划与样品状态
func (s *TestPlanService) AddResult(ctx context.Context, planID string, req AddResultReq, operatorID string) (*entity.TestResult, error) {
	plan, err := s.repo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status == entity.PlanStatusCompleted || plan.Status == entity.PlanStatusFailed || plan.Status == entity.PlanStatusCancelled {
		return nil, fmt.Errorf("%w: cannot add results to a %s test plan", ErrInvalidState, plan.Status)
	}

	status := req.Status
	if status == "" {
		status = entity.ResultStatusPending
	}
	switch status {
	case entity.ResultStatusPending, entity.ResultStatusPass, entity.ResultStatusFail, entity.ResultStatusConditional:
	default:
		return nil, fmt.Errorf("%w: unknown result status %q", ErrValidation, status)
	}

	sequence := req.SequenceNumber
	if sequence <= 0 {
		sequence = len(plan.TestResults) + 1
	}
	endTime := req.EndTime
	if status != entity.ResultStatusPending && endTime == nil {
		now := time.Now()
		endTime = &now
	}

	result := &entity.TestResult{
		ID:             repository.NewID(),
		TestPlanID:     planID,
		SampleID:       req.SampleID,
		TestName:       req.TestName,
		TestCode:       req.TestCode,
		SequenceNumber: sequence,
		Status:         status,
		MeasuredValues: req.MeasuredValues,
		PassCriteria:   req.PassCriteria,
		TestConditions: req.TestConditions,
		Observations:   req.Observations,
		Deviations:     req.Deviations,
		EquipmentUsed:  req.EquipmentUsed,
		PerformedBy:    operatorID,
		StartTime:      req.StartTime,
		EndTime:        endTime,
	}
	if err := s.repo.AddResult(ctx, plan, result); err != nil {
		if err == repository.ErrReference {
			return nil, fmt.Errorf("%w: referenced sample not found", ErrValidation)
		}
		return nil, err
	}
	s.audit.Log(ctx, operatorID, "add_result", "test_plan", planID, nil, result)
	return result, nil
}

// UpdateResultReq 更新测试结果
type UpdateResultReq struct {
	Status         *string                `json:"status"`
	MeasuredValues map[string]interface{} `json:"measured_values"`
	PassCriteria   map[string]interface{} `json:"pass_criteria"`
	TestConditions map[string]interface{} `json:"test_conditions"`
	Observations   *string                `json:"observations"`
	Deviations     *string                `json:"deviations"`
	EquipmentUsed  []string               `json:"equipment_used"`
	StartTime      *time.Time             `json:"start_time"`
	EndTime        *time.Time             `json:"end_time"`
}

// UpdateResult 更新测试结果，离开pending时补记结束时间
func (s *TestPlanService) UpdateResult(ctx context.Context, planID, resultID string, req UpdateResultReq, operatorID string) (*entity.TestResult, error) {
	result, err := s.repo.FindResultByID(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if result.TestPlanID != planID {
		return nil, repository.ErrNotFound
	}
	before := *result

	if req.Status != nil && *req.Status != result.Status {
		switch *req.Status {
		case entity.ResultStatusPending, entity.ResultStatusPass, entity.ResultStatusFail, entity.ResultStatusConditional:
		default:
			return nil, fmt.Errorf("%w: unknown result status %q", ErrValidation, *req.Status)
		}
		result.Status = *req.Status
		if result.Status != entity.ResultStatusPending && result.EndTime == nil {
			now := time.Now()
			result.EndTime = &now
		}
	}
	if req.MeasuredValues != nil {
		result.MeasuredValues = req.MeasuredValues
	}
	if req.PassCriteria != nil {
		result.PassCriteria = req.PassCriteria
	}
	if req.TestConditions != nil {
		result.TestConditions = req.TestConditions
	}
	if req.Observations != nil {
		result.Observations = *req.Observations
	}
	if req.Deviations != nil {
		result.Deviations = *req.Deviations
	}
	if req.EquipmentUsed != nil {
		result.EquipmentUsed = req.EquipmentUsed
	}
	if req.StartTime != nil {
		result.StartTime = req.StartTime
	}
	if req.EndTime != nil {
		result.EndTime = req.EndTime
	}

	if err := s.repo.UpdateResult(ctx, result); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, operatorID, "update_result", "test_result", result.ID, before, result)
	return result, nil
}

// VerifyResult 复核测试结果
func (s *TestPlanService) VerifyResult(ctx context.Context, planID, resultID, operatorID string) (*entity.TestResult, error) {
	result, err := s.repo.FindResultByID(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if result.TestPlanID != planID {
		return nil, repository.ErrNotFound
	}
	if result.Status == entity.ResultStatusPending {
		return nil, fmt.Errorf("%w: pending results cannot be verified", ErrInvalidState)
	}
	if result.VerifiedBy != "" {
		return nil, fmt.Errorf("%w: result already verified", ErrConflict)
	}
	now := time.Now()
	result.VerifiedBy = operatorID
	result.VerifiedAt = &now
	if err := s.repo.UpdateResult(ctx, result); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, operatorID, "verify_result", "test_result", result.ID, nil,
		map[string]interface{}{"verified_by": operatorID})
	return result, nil
}

// Complete 完成测试计划
// 存在pending结果时拒绝；终态由结果集推导，任一失败即失败；级联样品到已测试
func (s *TestPlanService) Complete(ctx context.Context, id, operatorID string) (*entity.TestPlan, error) {
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan.Status != entity.PlanStatusInProgress {
		return nil, fmt.Errorf("%w: only in_progress test plans can be completed, current status is %s", ErrInvalidState, plan.Status)
	}

	if pending := entity.CountPendingResults(plan.TestResults); pending > 0 {
		return nil, fmt.Errorf("%w: %d pending test results must be resolved before completion", ErrConflict, pending)
	}

	finalStatus := entity.DerivePlanOutcome(plan.TestResults)
	if err := s.repo.Complete(ctx, plan, finalStatus, operatorID); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, operatorID, "complete", "test_plan", id,
		map[string]interface{}{"status": entity.PlanStatusInProgress},
		map[string]interface{}{"status": finalStatus})
	s.notification.Notify(ctx, plan.CreatedBy, "Test plan completed",
		fmt.Sprintf("Test plan %s finished with status %s", plan.PlanNumber, finalStatus), "test_plan", id)
	return s.repo.FindByID(ctx, id)
}

// ExportResults 导出计划的测试结果为Excel工作簿
func (s *TestPlanService) ExportResults(ctx context.Context, id string) ([]byte, string, error) {
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	results, err := s.repo.ListResults(ctx, id)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Test Results"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Seq", "Result No", "Test Name", "Test Code", "Status", "Observations", "Deviations", "Performed By", "Verified By", "Start", "End"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for row, r := range results {
		values := []interface{}{
			r.SequenceNumber,
			r.ResultNumber,
			r.TestName,
			r.TestCode,
			r.Status,
			r.Observations,
			r.Deviations,
			r.PerformedBy,
			r.VerifiedBy,
			formatTime(r.StartTime),
			formatTime(r.EndTime),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("write workbook: %w", err)
	}
	filename := fmt.Sprintf("%s-results.xlsx", plan.PlanNumber)
	return buf.Bytes(), filename, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/model/entity"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/repository"
	"github.com/minio/minio-go/v7"
)

// ReportService 报告服务
type ReportService struct {
	repo         *repository.ReportRepository
	planRepo     *repository.TestPlanRepository
	audit        *AuditService
	notification *NotificationService
	minioClient  *minio.Client
	bucket       string
}

// NewReportService 创建报告服务
func NewReportService(
	repo *repository.ReportRepository,
	planRepo *repository.TestPlanRepository,
	audit *AuditService,
	notification *NotificationService,
	minioClient *minio.Client,
	bucket string,
) *ReportService {
	return &ReportService{
		repo:         repo,
		planRepo:     planRepo,
		audit:        audit,
		notification: notification,
		minioClient:  minioClient,
		bucket:       bucket,
	}
}

// List 获取报告列表
func (s *ReportService) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.Report, int64, error) {
	return s.repo.List(ctx, page, pageSize, filters)
}

// Get 获取报告详情
func (s *ReportService) Get(ctx context.Context, id string) (*entity.Report, error) {
	return s.repo.FindByID(ctx, id)
}

// CreateReportReq 创建报告
type CreateReportReq struct {
	ServiceRequestID string `json:"service_request_id" binding:"required"`
	TestPlanID       string `json:"test_plan_id"`
	ReportType       string `json:"report_type"`
	Title            string `json:"title" binding:"required"`
	ExecutiveSummary string `json:"executive_summary"`
	Conclusions      string `json:"conclusions"`
	Recommendations  string `json:"recommendations"`
}

// Create 创建报告
// 总体结论在创建时根据测试结果快照推导，后续不再重算
func (s *ReportService) Create(ctx context.Context, req CreateReportReq, operatorID string) (*entity.Report, error) {
	reportType := req.ReportType
	if reportType == "" {
		reportType = entity.ReportTypeTest
	}

	overall := entity.ResultStatusPending
	var summary entity.JSONB
	if req.TestPlanID != "" {
		results, err := s.planRepo.ListResults(ctx, req.TestPlanID)
		if err != nil {
			return nil, err
		}
		overall = entity.DeriveOverallResult(results)
		counts, err := s.planRepo.GetResultCounts(ctx, req.TestPlanID)
		if err != nil {
			return nil, err
		}
		summary = entity.JSONB{
			"total":       counts.Total,
			"pending":     counts.Pending,
			"pass":        counts.Pass,
			"fail":        counts.Fail,
			"conditional": counts.Conditional,
		}
	}

	report := &entity.Report{
		ID:                 repository.NewID(),
		ServiceRequestID:   req.ServiceRequestID,
		TestPlanID:         req.TestPlanID,
		ReportType:         reportType,
		Title:              req.Title,
		Status:             entity.ReportStatusDraft,
		Version:            1,
		OverallResult:      overall,
		ExecutiveSummary:   req.ExecutiveSummary,
		Conclusions:        req.Conclusions,
		Recommendations:    req.Recommendations,
		TestResultsSummary: summary,
		PreparedBy:         operatorID,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		if err == repository.ErrReference {
			return nil, fmt.Errorf("%w: referenced service request or test plan not found", ErrValidation)
		}
		return nil, err
	}
	s.audit.Log(ctx, operatorID, "create", "report", report.ID, nil, report)
	return report, nil
}

// UpdateReportReq 更新报告
type UpdateReportReq struct {
	Title            *string `json:"title"`
	ExecutiveSummary *string `json:"executive_summary"`
	Conclusions      *string `json:"conclusions"`
	Recommendations  *string `json:"recommendations"`
}

// Update 更新报告，正文变更时版本号加一
func (s *ReportService) Update(ctx context.Context, id string, req UpdateReportReq, operatorID string) (*entity.Report, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status == entity.ReportStatusIssued {
		return nil, fmt.Errorf("%w: issued reports cannot be edited", ErrInvalidState)
	}
	before := *report

	if report.ContentChanged(req.ExecutiveSummary, req.Conclusions, req.Recommendations) {
		report.Version++
	}
	if req.Title != nil {
		report.Title = *req.Title
	}
	if req.ExecutiveSummary != nil {
		report.ExecutiveSummary = *req.ExecutiveSummary
	}
	if req.Conclusions != nil {
		report.Conclusions = *req.Conclusions
	}
	if req.Recommendations != nil {
		report.Recommendations = *req.Recommendations
	}

	if err := s.repo.Update(ctx, report); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, operatorID, "update", "report", report.ID, before, report)
	return report, nil
}

// Submit 提交报告评审，仅限草稿
func (s *ReportService) Submit(ctx context.Context, id, operatorID string) (*entity.Report, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status != entity.ReportStatusDraft {
		return nil, fmt.Errorf("%w: only draft reports can be submitted, current status is %s", ErrInvalidState, report.Status)
	}
	if err := s.repo.UpdateStatus(ctx, id, entity.ReportStatusReview, nil); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, operatorID, "submit", "report", id,
		map[string]interface{}{"status": entity.ReportStatusDraft},
		map[string]interface{}{"status": entity.ReportStatusReview})
	report.Status = entity.ReportStatusReview
	return report, nil
}

// Review 评审报告，不通过则退回草稿
func (s *ReportService) Review(ctx context.Context, id string, approved bool, operatorID string) (*entity.Report, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status != entity.ReportStatusReview {
		return nil, fmt.Errorf("%w: only reports in review can be reviewed, current status is %s", ErrInvalidState, report.Status)
	}

	newStatus := entity.ReportStatusDraft
	extra := map[string]interface{}{"reviewed_by": operatorID}
	if approved {
		newStatus = entity.ReportStatusApproved
	}
	if err := s.repo.UpdateStatus(ctx, id, newStatus, extra); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, operatorID, "review", "report", id,
		map[string]interface{}{"status": entity.ReportStatusReview},
		map[string]interface{}{"status": newStatus, "approved": approved})
	s.notification.Notify(ctx, report.PreparedBy, "Report reviewed",
		fmt.Sprintf("Report %s review result: %s", report.ReportNumber, newStatus), "report", id)
	report.Status = newStatus
	report.ReviewedBy = operatorID
	return report, nil
}

// Issue 签发报告，仅限已批准，签发后归档快照
func (s *ReportService) Issue(ctx context.Context, id, operatorID string) (*entity.Report, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status != entity.ReportStatusApproved {
		return nil, fmt.Errorf("%w: only approved reports can be issued, current status is %s", ErrInvalidState, report.Status)
	}

	now := time.Now()
	extra := map[string]interface{}{
		"approved_by": operatorID,
		"approved_at": now,
		"issued_at":   now,
	}
	if err := s.repo.UpdateStatus(ctx, id, entity.ReportStatusIssued, extra); err != nil {
		return nil, err
	}
	report.Status = entity.ReportStatusIssued
	report.ApprovedBy = operatorID
	report.ApprovedAt = &now
	report.IssuedAt = &now

	s.archiveSnapshot(ctx, report)
	s.audit.Log(ctx, operatorID, "issue", "report", id,
		map[string]interface{}{"status": entity.ReportStatusApproved},
		map[string]interface{}{"status": entity.ReportStatusIssued})
	s.notification.Notify(ctx, report.PreparedBy, "Report issued",
		fmt.Sprintf("Report %s has been issued", report.ReportNumber), "report", id)
	return report, nil
}

// archiveSnapshot 将签发快照归档到对象存储，失败不阻断签发
func (s *ReportService) archiveSnapshot(ctx context.Context, report *entity.Report) {
	if s.minioClient == nil || s.bucket == "" {
		return
	}
	doc, err := s.BuildDocument(ctx, report.ID)
	if err != nil {
		return
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return
	}
	objectName := fmt.Sprintf("reports/%s/v%d.json", report.ReportNumber, report.Version)
	_, _ = s.minioClient.PutObject(ctx, s.bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
}

// ReportDocument 报告下载结构
type ReportDocument struct {
	Header   map[string]interface{}   `json:"header"`
	Product  map[string]interface{}   `json:"product"`
	Results  []map[string]interface{} `json:"results"`
	Approval map[string]interface{}   `json:"approval"`
}

// BuildDocument 构建结构化报告文档
func (s *ReportService) BuildDocument(ctx context.Context, id string) (*ReportDocument, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	doc := &ReportDocument{
		Header: map[string]interface{}{
			"report_number":  report.ReportNumber,
			"title":          report.Title,
			"report_type":    report.ReportType,
			"version":        report.Version,
			"status":         report.Status,
			"overall_result": report.OverallResult,
			"created_at":     report.CreatedAt,
			"issued_at":      report.IssuedAt,
		},
		Product:  map[string]interface{}{},
		Results:  []map[string]interface{}{},
		Approval: map[string]interface{}{
			"prepared_by": report.PreparedBy,
			"reviewed_by": report.ReviewedBy,
			"approved_by": report.ApprovedBy,
			"approved_at": report.ApprovedAt,
		},
	}

	if report.ServiceRequest != nil {
		doc.Product = map[string]interface{}{
			"request_number": report.ServiceRequest.RequestNumber,
			"manufacturer":   report.ServiceRequest.Manufacturer,
			"model_number":   report.ServiceRequest.ModelNumber,
			"rated_power_w":  report.ServiceRequest.RatedPowerW,
		}
	}
	if report.TestPlanID != "" {
		results, err := s.planRepo.ListResults(ctx, report.TestPlanID)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			doc.Results = append(doc.Results, map[string]interface{}{
				"sequence":        r.SequenceNumber,
				"test_name":       r.TestName,
				"test_code":       r.TestCode,
				"status":          r.Status,
				"measured_values": r.MeasuredValues,
				"observations":    r.Observations,
			})
		}
	}
	return doc, nil
}

// Delete 删除报告，已签发的不可删除
func (s *ReportService) Delete(ctx context.Context, id, operatorID string) error {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if report.Status == entity.ReportStatusIssued {
		return fmt.Errorf("%w: issued reports cannot be deleted", ErrConflict)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Log(ctx, operatorID, "delete", "report", id, report, nil)
	return nil
}

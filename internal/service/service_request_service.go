package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/model/entity"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/repository"
)

// ServiceRequestService 委托请求服务
type ServiceRequestService struct {
	repo         *repository.ServiceRequestRepository
	audit        *AuditService
	notification *NotificationService
}

// NewServiceRequestService 创建委托请求服务
func NewServiceRequestService(repo *repository.ServiceRequestRepository, audit *AuditService, notification *NotificationService) *ServiceRequestService {
	return &ServiceRequestService{repo: repo, audit: audit, notification: notification}
}

// List 获取委托请求列表
func (s *ServiceRequestService) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.ServiceRequest, int64, error) {
	return s.repo.List(ctx, page, pageSize, filters)
}

// Get 获取委托请求详情
func (s *ServiceRequestService) Get(ctx context.Context, id string) (*entity.ServiceRequest, error) {
	return s.repo.FindByID(ctx, id)
}

// CreateRequestReq 创建委托请求
type CreateRequestReq struct {
	RequestType         string     `json:"request_type"`
	Priority            string     `json:"priority"`
	CustomerID          string     `json:"customer_id"`
	Title               string     `json:"title" binding:"required"`
	Description         string     `json:"description"`
	Manufacturer        string     `json:"manufacturer"`
	ModelNumber         string     `json:"model_number"`
	RatedPowerW         *float64   `json:"rated_power_w"`
	DimensionsMM        string     `json:"dimensions_mm"`
	RequestedStandards  []string   `json:"requested_standards"`
	TargetMarkets       []string   `json:"target_markets"`
	SpecialRequirements string     `json:"special_requirements"`
	AssignedLabID       string     `json:"assigned_lab_id"`
	AssignedTo          string     `json:"assigned_to"`
	RequestedCompletion *time.Time `json:"requested_completion"`
	QuotedPrice         *float64   `json:"quoted_price"`
	Currency            string     `json:"currency"`
	PONumber            string     `json:"po_number"`
}

// Create 创建委托请求，写入审计日志
func (s *ServiceRequestService) Create(ctx context.Context, req CreateRequestReq, operatorID string) (*entity.ServiceRequest, error) {
	requestType := req.RequestType
	if requestType == "" {
		requestType = entity.RequestTypeExternal
	}
	priority := req.Priority
	if priority == "" {
		priority = entity.PriorityNormal
	}

	sr := &entity.ServiceRequest{
		ID:                  repository.NewID(),
		RequestType:         requestType,
		Status:              entity.RequestStatusDraft,
		Priority:            priority,
		CustomerID:          req.CustomerID,
		Title:               req.Title,
		Description:         req.Description,
		Manufacturer:        req.Manufacturer,
		ModelNumber:         req.ModelNumber,
		RatedPowerW:         req.RatedPowerW,
		DimensionsMM:        req.DimensionsMM,
		RequestedStandards:  req.RequestedStandards,
		TargetMarkets:       req.TargetMarkets,
		SpecialRequirements: req.SpecialRequirements,
		AssignedLabID:       req.AssignedLabID,
		AssignedTo:          req.AssignedTo,
		RequestedCompletion: req.RequestedCompletion,
		QuotedPrice:         req.QuotedPrice,
		Currency:            req.Currency,
		PONumber:            req.PONumber,
		CreatedBy:           operatorID,
	}
	if err := s.repo.Create(ctx, sr); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, operatorID, "create", "service_request", sr.ID, nil, sr)
	return sr, nil
}

// UpdateRequestReq 更新委托请求，指针字段区分缺省与清空
type UpdateRequestReq struct {
	Status              *string    `json:"status"`
	Priority            *string    `json:"priority"`
	Title               *string    `json:"title"`
	Description         *string    `json:"description"`
	Manufacturer        *string    `json:"manufacturer"`
	ModelNumber         *string    `json:"model_number"`
	RatedPowerW         *float64   `json:"rated_power_w"`
	DimensionsMM        *string    `json:"dimensions_mm"`
	RequestedStandards  []string   `json:"requested_standards"`
	TargetMarkets       []string   `json:"target_markets"`
	SpecialRequirements *string    `json:"special_requirements"`
	AssignedLabID       *string    `json:"assigned_lab_id"`
	AssignedTo          *string    `json:"assigned_to"`
	RequestedCompletion *time.Time `json:"requested_completion"`
	EstimatedCompletion *time.Time `json:"estimated_completion"`
	QuotedPrice         *float64   `json:"quoted_price"`
	Currency            *string    `json:"currency"`
	PONumber            *string    `json:"po_number"`
}

// Update 更新委托请求，状态变更走流转表校验
func (s *ServiceRequestService) Update(ctx context.Context, id string, req UpdateRequestReq, operatorID string) (*entity.ServiceRequest, error) {
	sr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *sr

	if req.Status != nil && *req.Status != sr.Status {
		if !entity.CanTransition(entity.ValidRequestTransitions, sr.Status, *req.Status) {
			return nil, fmt.Errorf("%w: cannot change status from %s to %s", ErrInvalidState, sr.Status, *req.Status)
		}
		sr.Status = *req.Status
		if sr.Status == entity.RequestStatusCompleted && sr.ActualCompletion == nil {
			now := time.Now()
			sr.ActualCompletion = &now
		}
	}
	if req.Priority != nil {
		sr.Priority = *req.Priority
	}
	if req.Title != nil {
		sr.Title = *req.Title
	}
	if req.Description != nil {
		sr.Description = *req.Description
	}
	if req.Manufacturer != nil {
		sr.Manufacturer = *req.Manufacturer
	}
	if req.ModelNumber != nil {
		sr.ModelNumber = *req.ModelNumber
	}
	if req.RatedPowerW != nil {
		sr.RatedPowerW = req.RatedPowerW
	}
	if req.DimensionsMM != nil {
		sr.DimensionsMM = *req.DimensionsMM
	}
	if req.RequestedStandards != nil {
		sr.RequestedStandards = req.RequestedStandards
	}
	if req.TargetMarkets != nil {
		sr.TargetMarkets = req.TargetMarkets
	}
	if req.SpecialRequirements != nil {
		sr.SpecialRequirements = *req.SpecialRequirements
	}
	if req.AssignedLabID != nil {
		sr.AssignedLabID = *req.AssignedLabID
	}
	if req.AssignedTo != nil {
		sr.AssignedTo = *req.AssignedTo
	}
	if req.RequestedCompletion != nil {
		sr.RequestedCompletion = req.RequestedCompletion
	}
	if req.EstimatedCompletion != nil {
		sr.EstimatedCompletion = req.EstimatedCompletion
	}
	if req.QuotedPrice != nil {
		sr.QuotedPrice = req.QuotedPrice
	}
	if req.Currency != nil {
		sr.Currency = *req.Currency
	}
	if req.PONumber != nil {
		sr.PONumber = *req.PONumber
	}

	if err := s.repo.Update(ctx, sr); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, operatorID, "update", "service_request", sr.ID, before, sr)
	return sr, nil
}

// Submit 提交委托请求，仅限草稿
func (s *ServiceRequestService) Submit(ctx context.Context, id, operatorID string) (*entity.ServiceRequest, error) {
	sr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sr.Status != entity.RequestStatusDraft {
		return nil, fmt.Errorf("%w: only draft requests can be submitted, current status is %s", ErrInvalidState, sr.Status)
	}
	if err := s.repo.UpdateStatus(ctx, id, entity.RequestStatusSubmitted, nil); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, operatorID, "submit", "service_request", id,
		map[string]interface{}{"status": entity.RequestStatusDraft},
		map[string]interface{}{"status": entity.RequestStatusSubmitted})
	sr.Status = entity.RequestStatusSubmitted
	return sr, nil
}

// Approve 审批通过，仅限已提交或评审中
func (s *ServiceRequestService) Approve(ctx context.Context, id, operatorID string) (*entity.ServiceRequest, error) {
	sr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sr.Status != entity.RequestStatusSubmitted && sr.Status != entity.RequestStatusInReview {
		return nil, fmt.Errorf("%w: only submitted or in_review requests can be approved, current status is %s", ErrInvalidState, sr.Status)
	}
	oldStatus := sr.Status
	if err := s.repo.UpdateStatus(ctx, id, entity.RequestStatusApproved, nil); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, operatorID, "approve", "service_request", id,
		map[string]interface{}{"status": oldStatus},
		map[string]interface{}{"status": entity.RequestStatusApproved})
	s.notification.Notify(ctx, sr.CreatedBy, "Service request approved",
		fmt.Sprintf("Request %s has been approved", sr.RequestNumber), "service_request", id)
	sr.Status = entity.RequestStatusApproved
	return sr, nil
}

// Delete 删除委托请求，已完成的不可删除
func (s *ServiceRequestService) Delete(ctx context.Context, id, operatorID string) error {
	sr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if sr.Status == entity.RequestStatusCompleted {
		return fmt.Errorf("%w: completed requests cannot be deleted", ErrConflict)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Log(ctx, operatorID, "delete", "service_request", id, sr, nil)
	return nil
}

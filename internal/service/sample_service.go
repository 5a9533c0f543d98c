package service

import (
	"context"
	"fmt"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/model/entity"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/repository"
)

// SampleService 样品服务
type SampleService struct {
	repo    *repository.SampleRepository
	reqRepo *repository.ServiceRequestRepository
	audit   *AuditService
}

// NewSampleService 创建样品服务
func NewSampleService(repo *repository.SampleRepository, reqRepo *repository.ServiceRequestRepository, audit *AuditService) *SampleService {
	return &SampleService{repo: repo, reqRepo: reqRepo, audit: audit}
}

// List 获取样品列表
func (s *SampleService) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.Sample, int64, error) {
	return s.repo.List(ctx, page, pageSize, filters)
}

// Get 获取样品详情
func (s *SampleService) Get(ctx context.Context, id string) (*entity.Sample, error) {
	return s.repo.FindByID(ctx, id)
}

// GetCustodyChain 获取样品流转链
func (s *SampleService) GetCustodyChain(ctx context.Context, id string) ([]entity.SampleCustodyRecord, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListCustodyRecords(ctx, id)
}

// CreateSampleReq 登记样品
type CreateSampleReq struct {
	ServiceRequestID string   `json:"service_request_id" binding:"required"`
	SampleType       string   `json:"sample_type"`
	Quantity         int      `json:"quantity"`
	SerialNumbers    []string `json:"serial_numbers"`
	BatchNumber      string   `json:"batch_number"`
	Manufacturer     string   `json:"manufacturer"`
	ModelNumber      string   `json:"model_number"`
	Description      string   `json:"description"`
	StorageLocation  string   `json:"storage_location"`
	Notes            string   `json:"notes"`
}

// Create 登记样品，同事务写入登记流转记录
func (s *SampleService) Create(ctx context.Context, req CreateSampleReq, operatorID string) (*entity.Sample, error) {
	if _, err := s.reqRepo.FindByID(ctx, req.ServiceRequestID); err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: service request not found", ErrValidation)
		}
		return nil, err
	}

	sampleType := req.SampleType
	if sampleType == "" {
		sampleType = entity.SampleTypeModule
	}
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	sample := &entity.Sample{
		ID:               repository.NewID(),
		ServiceRequestID: req.ServiceRequestID,
		SampleType:       sampleType,
		Quantity:         quantity,
		SerialNumbers:    req.SerialNumbers,
		BatchNumber:      req.BatchNumber,
		Manufacturer:     req.Manufacturer,
		ModelNumber:      req.ModelNumber,
		Description:      req.Description,
		StorageLocation:  req.StorageLocation,
		Notes:            req.Notes,
		CreatedBy:        operatorID,
	}
	if err := s.repo.CreateWithCustody(ctx, sample, operatorID); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, operatorID, "create", "sample", sample.ID, nil, sample)
	return sample, nil
}

// UpdateSampleReq 更新样品
type UpdateSampleReq struct {
	Status          *string  `json:"status"`
	SampleType      *string  `json:"sample_type"`
	Quantity        *int     `json:"quantity"`
	SerialNumbers   []string `json:"serial_numbers"`
	BatchNumber     *string  `json:"batch_number"`
	Manufacturer    *string  `json:"manufacturer"`
	ModelNumber     *string  `json:"model_number"`
	Description     *string  `json:"description"`
	Notes           *string  `json:"notes"`
}

// Update 更新样品，状态变更走流转表校验
func (s *SampleService) Update(ctx context.Context, id string, req UpdateSampleReq, operatorID string) (*entity.Sample, error) {
	sample, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *sample

	if req.Status != nil && *req.Status != sample.Status {
		if !entity.CanTransition(entity.ValidSampleTransitions, sample.Status, *req.Status) {
			return nil, fmt.Errorf("%w: cannot change status from %s to %s", ErrInvalidState, sample.Status, *req.Status)
		}
		sample.Status = *req.Status
	}
	if req.SampleType != nil {
		sample.SampleType = *req.SampleType
	}
	if req.Quantity != nil && *req.Quantity > 0 {
		sample.Quantity = *req.Quantity
	}
	if req.SerialNumbers != nil {
		sample.SerialNumbers = req.SerialNumbers
	}
	if req.BatchNumber != nil {
		sample.BatchNumber = *req.BatchNumber
	}
	if req.Manufacturer != nil {
		sample.Manufacturer = *req.Manufacturer
	}
	if req.ModelNumber != nil {
		sample.ModelNumber = *req.ModelNumber
	}
	if req.Description != nil {
		sample.Description = *req.Description
	}
	if req.Notes != nil {
		sample.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, sample); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, operatorID, "update", "sample", sample.ID, before, sample)
	return sample, nil
}

// ReceiveSampleReq 接收样品
type ReceiveSampleReq struct {
	ReceivingCondition string `json:"receiving_condition" binding:"required"`
	StorageLocation    string `json:"storage_location" binding:"required"`
	Notes              string `json:"notes"`
}

// Receive 接收样品，仅限已登记状态，同事务写入流转记录
func (s *SampleService) Receive(ctx context.Context, id string, req ReceiveSampleReq, operatorID string) (*entity.Sample, error) {
	sample, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sample.Status != entity.SampleStatusRegistered {
		return nil, fmt.Errorf("%w: sample must be in registered status to receive, current status is %s", ErrConflict, sample.Status)
	}
	if !entity.ValidReceivingCondition(req.ReceivingCondition) {
		return nil, fmt.Errorf("%w: receiving_condition must be good, damaged or partial", ErrValidation)
	}

	if err := s.repo.Receive(ctx, sample, req.ReceivingCondition, req.StorageLocation, operatorID, req.Notes); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, operatorID, "receive", "sample", id,
		map[string]interface{}{"status": entity.SampleStatusRegistered},
		map[string]interface{}{"status": entity.SampleStatusReceived, "storage_location": req.StorageLocation})
	return s.repo.FindByID(ctx, id)
}

// TransferSampleReq 转移样品
type TransferSampleReq struct {
	ToLocation string `json:"to_location" binding:"required"`
	Notes      string `json:"notes"`
}

// Transfer 转移样品位置，任意状态可转移，同事务写入流转记录
func (s *SampleService) Transfer(ctx context.Context, id string, req TransferSampleReq, operatorID string) (*entity.Sample, error) {
	sample, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Transfer(ctx, sample, req.ToLocation, operatorID, req.Notes); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, operatorID, "transfer", "sample", id,
		map[string]interface{}{"storage_location": sample.StorageLocation},
		map[string]interface{}{"storage_location": req.ToLocation})
	return s.repo.FindByID(ctx, id)
}

// Delete 删除样品，测试中的不可删除
func (s *SampleService) Delete(ctx context.Context, id, operatorID string) error {
	sample, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if sample.Status == entity.SampleStatusInTesting {
		return fmt.Errorf("%w: samples in testing cannot be deleted", ErrConflict)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Log(ctx, operatorID, "delete", "sample", id, sample, nil)
	return nil
}

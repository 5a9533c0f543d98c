package service

import (
	"context"
	"fmt"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/model/entity"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/repository"
)

// LabFacilityService 实验室服务
type LabFacilityService struct {
	repo  *repository.LabFacilityRepository
	audit *AuditService
}

// NewLabFacilityService 创建实验室服务
func NewLabFacilityService(repo *repository.LabFacilityRepository, audit *AuditService) *LabFacilityService {
	return &LabFacilityService{repo: repo, audit: audit}
}

// List 获取实验室列表
func (s *LabFacilityService) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.LabFacility, int64, error) {
	return s.repo.List(ctx, page, pageSize, filters)
}

// LabDetail 实验室详情，附带进行中的请求
type LabDetail struct {
	*entity.LabFacility
	ActiveRequests []entity.ServiceRequest `json:"active_requests"`
}

// Get 获取实验室详情
func (s *LabFacilityService) Get(ctx context.Context, id string) (*LabDetail, error) {
	lab, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	requests, err := s.repo.ListActiveRequests(ctx, id)
	if err != nil {
		return nil, err
	}
	return &LabDetail{LabFacility: lab, ActiveRequests: requests}, nil
}

// CreateLabReq 创建实验室
type CreateLabReq struct {
	Name                string                 `json:"name" binding:"required"`
	Code                string                 `json:"code" binding:"required"`
	FacilityType        string                 `json:"facility_type"`
	Address             string                 `json:"address"`
	City                string                 `json:"city"`
	State               string                 `json:"state"`
	Country             string                 `json:"country"`
	PostalCode          string                 `json:"postal_code"`
	ContactName         string                 `json:"contact_name"`
	ContactEmail        string                 `json:"contact_email"`
	ContactPhone        string                 `json:"contact_phone"`
	AccreditationNumber string                 `json:"accreditation_number"`
	AccreditationBody   string                 `json:"accreditation_body"`
	Capabilities        map[string]interface{} `json:"capabilities"`
	Notes               string                 `json:"notes"`
}

// Create 创建实验室，编码重复时返回冲突
func (s *LabFacilityService) Create(ctx context.Context, req CreateLabReq, operatorID string) (*entity.LabFacility, error) {
	facilityType := req.FacilityType
	if facilityType == "" {
		facilityType = entity.FacilityTypeInternal
	}
	lab := &entity.LabFacility{
		ID:                  repository.NewID(),
		Name:                req.Name,
		Code:                req.Code,
		FacilityType:        facilityType,
		Address:             req.Address,
		City:                req.City,
		State:               req.State,
		Country:             req.Country,
		PostalCode:          req.PostalCode,
		ContactName:         req.ContactName,
		ContactEmail:        req.ContactEmail,
		ContactPhone:        req.ContactPhone,
		AccreditationNumber: req.AccreditationNumber,
		AccreditationBody:   req.AccreditationBody,
		Capabilities:        req.Capabilities,
		IsActive:            true,
		Notes:               req.Notes,
	}
	if err := s.repo.Create(ctx, lab); err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, fmt.Errorf("%w: facility code %s already exists", ErrConflict, req.Code)
		}
		return nil, err
	}
	s.audit.Log(ctx, operatorID, "create", "lab_facility", lab.ID, nil, lab)
	return lab, nil
}

// UpdateLabReq 更新实验室
type UpdateLabReq struct {
	Name                *string                `json:"name"`
	FacilityType        *string                `json:"facility_type"`
	Address             *string                `json:"address"`
	City                *string                `json:"city"`
	State               *string                `json:"state"`
	Country             *string                `json:"country"`
	PostalCode          *string                `json:"postal_code"`
	ContactName         *string                `json:"contact_name"`
	ContactEmail        *string                `json:"contact_email"`
	ContactPhone        *string                `json:"contact_phone"`
	AccreditationNumber *string                `json:"accreditation_number"`
	AccreditationBody   *string                `json:"accreditation_body"`
	Capabilities        map[string]interface{} `json:"capabilities"`
	IsActive            *bool                  `json:"is_active"`
	Notes               *string                `json:"notes"`
}

// Update 更新实验室
func (s *LabFacilityService) Update(ctx context.Context, id string, req UpdateLabReq, operatorID string) (*entity.LabFacility, error) {
	lab, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *lab

	if req.Name != nil {
		lab.Name = *req.Name
	}
	if req.FacilityType != nil {
		lab.FacilityType = *req.FacilityType
	}
	if req.Address != nil {
		lab.Address = *req.Address
	}
	if req.City != nil {
		lab.City = *req.City
	}
	if req.State != nil {
		lab.State = *req.State
	}
	if req.Country != nil {
		lab.Country = *req.Country
	}
	if req.PostalCode != nil {
		lab.PostalCode = *req.PostalCode
	}
	if req.ContactName != nil {
		lab.ContactName = *req.ContactName
	}
	if req.ContactEmail != nil {
		lab.ContactEmail = *req.ContactEmail
	}
	if req.ContactPhone != nil {
		lab.ContactPhone = *req.ContactPhone
	}
	if req.AccreditationNumber != nil {
		lab.AccreditationNumber = *req.AccreditationNumber
	}
	if req.AccreditationBody != nil {
		lab.AccreditationBody = *req.AccreditationBody
	}
	if req.Capabilities != nil {
		lab.Capabilities = req.Capabilities
	}
	if req.IsActive != nil {
		lab.IsActive = *req.IsActive
	}
	if req.Notes != nil {
		lab.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, lab); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, operatorID, "update", "lab_facility", lab.ID, before, lab)
	return lab, nil
}

// GetWorkload 获取实验室工作负荷
func (s *LabFacilityService) GetWorkload(ctx context.Context, id string) (*repository.Workload, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetWorkload(ctx, id)
}

// Delete 删除实验室，有进行中请求的不可删除
func (s *LabFacilityService) Delete(ctx context.Context, id, operatorID string) error {
	lab, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	active, err := s.repo.CountActiveRequests(ctx, id)
	if err != nil {
		return err
	}
	if active > 0 {
		return fmt.Errorf("%w: facility has %d active service requests", ErrConflict, active)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Log(ctx, operatorID, "delete", "lab_facility", id, lab, nil)
	return nil
}

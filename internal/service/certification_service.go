package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/model/entity"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/repository"
	"github.com/minio/minio-go/v7"
)

// CertificationService 证书服务
type CertificationService struct {
	repo         *repository.CertificationRepository
	audit        *AuditService
	notification *NotificationService
	minioClient  *minio.Client
	bucket       string
}

// NewCertificationService 创建证书服务
func NewCertificationService(
	repo *repository.CertificationRepository,
	audit *AuditService,
	notification *NotificationService,
	minioClient *minio.Client,
	bucket string,
) *CertificationService {
	return &CertificationService{
		repo:         repo,
		audit:        audit,
		notification: notification,
		minioClient:  minioClient,
		bucket:       bucket,
	}
}

// List 获取证书列表
func (s *CertificationService) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.Certification, int64, error) {
	return s.repo.List(ctx, page, pageSize, filters)
}

// Get 获取证书详情
func (s *CertificationService) Get(ctx context.Context, id string) (*entity.Certification, error) {
	return s.repo.FindByID(ctx, id)
}

// CreateCertReq 创建证书
type CreateCertReq struct {
	ServiceRequestID string     `json:"service_request_id"`
	CertificateType  string     `json:"certificate_type"`
	Manufacturer     string     `json:"manufacturer" binding:"required"`
	ModelNumbers     []string   `json:"model_numbers"`
	RatedPowerRange  string     `json:"rated_power_range"`
	StandardCodes    []string   `json:"standard_codes"`
	ScopeDescription string     `json:"scope_description"`
	Conditions       string     `json:"conditions"`
	Limitations      string     `json:"limitations"`
	ExpiryDate       *time.Time `json:"expiry_date"`
}

// Create 创建证书草稿
func (s *CertificationService) Create(ctx context.Context, req CreateCertReq, operatorID string) (*entity.Certification, error) {
	certType := req.CertificateType
	if certType == "" {
		certType = entity.CertTypeProduct
	}
	cert := &entity.Certification{
		ID:               repository.NewID(),
		ServiceRequestID: req.ServiceRequestID,
		CertificateType:  certType,
		Status:           entity.CertStatusDraft,
		Manufacturer:     req.Manufacturer,
		ModelNumbers:     req.ModelNumbers,
		RatedPowerRange:  req.RatedPowerRange,
		StandardCodes:    req.StandardCodes,
		ScopeDescription: req.ScopeDescription,
		Conditions:       req.Conditions,
		Limitations:      req.Limitations,
		ExpiryDate:       req.ExpiryDate,
		CreatedBy:        operatorID,
	}
	if err := s.repo.Create(ctx, cert); err != nil {
		if err == repository.ErrReference {
			return nil, fmt.Errorf("%w: referenced service request not found", ErrValidation)
		}
		return nil, err
	}
	s.audit.Log(ctx, operatorID, "create", "certification", cert.ID, nil, cert)
	return cert, nil
}

// UpdateCertReq 更新证书
type UpdateCertReq struct {
	CertificateType  *string    `json:"certificate_type"`
	Manufacturer     *string    `json:"manufacturer"`
	ModelNumbers     []string   `json:"model_numbers"`
	RatedPowerRange  *string    `json:"rated_power_range"`
	StandardCodes    []string   `json:"standard_codes"`
	ScopeDescription *string    `json:"scope_description"`
	Conditions       *string    `json:"conditions"`
	Limitations      *string    `json:"limitations"`
	ExpiryDate       *time.Time `json:"expiry_date"`
}

// Update 更新证书，仅限草稿
func (s *CertificationService) Update(ctx context.Context, id string, req UpdateCertReq, operatorID string) (*entity.Certification, error) {
	cert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cert.Status != entity.CertStatusDraft {
		return nil, fmt.Errorf("%w: only draft certifications can be edited, current status is %s", ErrInvalidState, cert.Status)
	}
	before := *cert

	if req.CertificateType != nil {
		cert.CertificateType = *req.CertificateType
	}
	if req.Manufacturer != nil {
		cert.Manufacturer = *req.Manufacturer
	}
	if req.ModelNumbers != nil {
		cert.ModelNumbers = req.ModelNumbers
	}
	if req.RatedPowerRange != nil {
		cert.RatedPowerRange = *req.RatedPowerRange
	}
	if req.StandardCodes != nil {
		cert.StandardCodes = req.StandardCodes
	}
	if req.ScopeDescription != nil {
		cert.ScopeDescription = *req.ScopeDescription
	}
	if req.Conditions != nil {
		cert.Conditions = *req.Conditions
	}
	if req.Limitations != nil {
		cert.Limitations = *req.Limitations
	}
	if req.ExpiryDate != nil {
		cert.ExpiryDate = req.ExpiryDate
	}

	if err := s.repo.Update(ctx, cert); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, operatorID, "update", "certification", cert.ID, before, cert)
	return cert, nil
}

// Issue 签发证书，仅限草稿
// 签发时计算内容摘要并固化，签发日期缺省为当天
func (s *CertificationService) Issue(ctx context.Context, id string, issueDate *time.Time, operatorID string) (*entity.Certification, error) {
	cert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cert.Status != entity.CertStatusDraft {
		return nil, fmt.Errorf("%w: only draft certifications can be issued, current status is %s", ErrInvalidState, cert.Status)
	}

	date := time.Now()
	if issueDate != nil {
		date = *issueDate
	}
	cert.IssueDate = &date
	cert.IssuedBy = operatorID
	cert.DocumentHash = DocumentHash(cert)
	cert.Status = entity.CertStatusIssued

	if err := s.repo.Update(ctx, cert); err != nil {
		return nil, err
	}

	s.archiveSnapshot(ctx, cert)
	s.audit.Log(ctx, operatorID, "issue", "certification", id,
		map[string]interface{}{"status": entity.CertStatusDraft},
		map[string]interface{}{"status": entity.CertStatusIssued, "document_hash": cert.DocumentHash})
	s.notification.Notify(ctx, cert.CreatedBy, "Certification issued",
		fmt.Sprintf("Certificate %s has been issued", cert.CertificateNumber), "certification", id)
	return cert, nil
}

// DocumentHash 证书内容摘要，对签发时的规范化字段集求sha256
func DocumentHash(cert *entity.Certification) string {
	canonical := map[string]interface{}{
		"certificate_number": cert.CertificateNumber,
		"certificate_type":   cert.CertificateType,
		"manufacturer":       cert.Manufacturer,
		"model_numbers":      cert.ModelNumbers,
		"rated_power_range":  cert.RatedPowerRange,
		"standard_codes":     cert.StandardCodes,
		"scope_description":  cert.ScopeDescription,
		"conditions":         cert.Conditions,
		"limitations":        cert.Limitations,
		"issue_date":         formatDate(cert.IssueDate),
		"expiry_date":        formatDate(cert.ExpiryDate),
	}
	data, _ := json.Marshal(canonical)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// Revoke 吊销证书，需填写原因，不可逆
func (s *CertificationService) Revoke(ctx context.Context, id, reason, operatorID string) (*entity.Certification, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: revocation reason is required", ErrValidation)
	}
	cert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cert.Status != entity.CertStatusIssued {
		return nil, fmt.Errorf("%w: only issued certifications can be revoked, current status is %s", ErrInvalidState, cert.Status)
	}

	limitations := cert.Limitations
	if limitations != "" {
		limitations += "\n"
	}
	limitations += "REVOKED: " + reason

	if err := s.repo.UpdateStatus(ctx, id, entity.CertStatusRevoked, map[string]interface{}{
		"limitations": limitations,
	}); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, operatorID, "revoke", "certification", id,
		map[string]interface{}{"status": entity.CertStatusIssued},
		map[string]interface{}{"status": entity.CertStatusRevoked, "reason": reason})
	cert.Status = entity.CertStatusRevoked
	cert.Limitations = limitations
	return cert, nil
}

// VerifyResult 证书验证结果
type VerifyResult struct {
	Valid             bool       `json:"valid"`
	IsExpired         bool       `json:"is_expired"`
	CertificateNumber string     `json:"certificate_number"`
	Status            string     `json:"status"`
	Manufacturer      string     `json:"manufacturer"`
	ModelNumbers      []string   `json:"model_numbers"`
	StandardCodes     []string   `json:"standard_codes"`
	IssueDate         *time.Time `json:"issue_date"`
	ExpiryDate        *time.Time `json:"expiry_date"`
	DocumentHash      string     `json:"document_hash"`
}

// Verify 公开验证证书：已签发且未过期才有效
func (s *CertificationService) Verify(ctx context.Context, certificateNumber string) (*VerifyResult, error) {
	cert, err := s.repo.FindByNumber(ctx, certificateNumber)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &VerifyResult{
		Valid:             cert.IsValid(now),
		IsExpired:         cert.IsExpired(now),
		CertificateNumber: cert.CertificateNumber,
		Status:            cert.Status,
		Manufacturer:      cert.Manufacturer,
		ModelNumbers:      cert.ModelNumbers,
		StandardCodes:     cert.StandardCodes,
		IssueDate:         cert.IssueDate,
		ExpiryDate:        cert.ExpiryDate,
		DocumentHash:      cert.DocumentHash,
	}, nil
}

// BuildDocument 构建结构化证书文档
func (s *CertificationService) BuildDocument(ctx context.Context, id string) (map[string]interface{}, error) {
	cert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"header": map[string]interface{}{
			"certificate_number": cert.CertificateNumber,
			"certificate_type":   cert.CertificateType,
			"status":             cert.Status,
			"issue_date":         cert.IssueDate,
			"expiry_date":        cert.ExpiryDate,
			"document_hash":      cert.DocumentHash,
		},
		"product": map[string]interface{}{
			"manufacturer":      cert.Manufacturer,
			"model_numbers":     cert.ModelNumbers,
			"rated_power_range": cert.RatedPowerRange,
		},
		"scope": map[string]interface{}{
			"standard_codes":    cert.StandardCodes,
			"scope_description": cert.ScopeDescription,
			"conditions":        cert.Conditions,
			"limitations":       cert.Limitations,
		},
		"approval": map[string]interface{}{
			"issued_by": cert.IssuedBy,
		},
	}, nil
}

// archiveSnapshot 将签发快照归档到对象存储，失败不阻断签发
func (s *CertificationService) archiveSnapshot(ctx context.Context, cert *entity.Certification) {
	if s.minioClient == nil || s.bucket == "" {
		return
	}
	doc, err := s.BuildDocument(ctx, cert.ID)
	if err != nil {
		return
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return
	}
	objectName := fmt.Sprintf("certifications/%s.json", cert.CertificateNumber)
	_, _ = s.minioClient.PutObject(ctx, s.bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
}

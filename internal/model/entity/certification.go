package entity

import "time"

// Certification 认证证书
type Certification struct {
	ID                string     `json:"id" gorm:"primaryKey;size:32"`
	CertificateNumber string     `json:"certificate_number" gorm:"size:32;not null;uniqueIndex"`
	ServiceRequestID  string     `json:"service_request_id" gorm:"size:32;index"`
	CertificateType   string     `json:"certificate_type" gorm:"size:20;not null;default:product"`
	Status            string     `json:"status" gorm:"size:20;not null;default:draft;index"`
	Manufacturer      string     `json:"manufacturer" gorm:"size:200;not null"`
	ModelNumbers      StringList `json:"model_numbers" gorm:"type:jsonb"`
	RatedPowerRange   string     `json:"rated_power_range" gorm:"size:100"`
	StandardCodes     StringList `json:"standard_codes" gorm:"type:jsonb"`
	ScopeDescription  string     `json:"scope_description" gorm:"type:text"`
	Conditions        string     `json:"conditions" gorm:"type:text"`
	Limitations       string     `json:"limitations" gorm:"type:text"`
	IssueDate         *time.Time `json:"issue_date"`
	ExpiryDate        *time.Time `json:"expiry_date"`
	IssuedBy          string     `json:"issued_by" gorm:"size:32"`
	DocumentHash      string     `json:"document_hash" gorm:"size:64"`
	CreatedBy         string     `json:"created_by" gorm:"size:32"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// 关联
	ServiceRequest *ServiceRequest `json:"service_request,omitempty" gorm:"foreignKey:ServiceRequestID"`
}

func (Certification) TableName() string {
	return "certifications"
}

// 证书状态，expired 为派生展示值不落库
const (
	CertStatusDraft   = "draft"
	CertStatusIssued  = "issued"
	CertStatusRevoked = "revoked"
)

// 证书类型
const (
	CertTypeProduct = "product"
	CertTypeSystem  = "system"
	CertTypeSafety  = "safety"
)

// ValidCertTransitions 证书状态流转表，吊销不可逆
var ValidCertTransitions = map[string][]string{
	CertStatusDraft:   {CertStatusIssued},
	CertStatusIssued:  {CertStatusRevoked},
	CertStatusRevoked: {},
}

// IsExpired 证书是否已过期
func (c *Certification) IsExpired(now time.Time) bool {
	return c.ExpiryDate != nil && c.ExpiryDate.Before(now)
}

// IsValid 证书当前是否有效：已签发且未过期
func (c *Certification) IsValid(now time.Time) bool {
	return c.Status == CertStatusIssued && !c.IsExpired(now)
}

package entity

import "time"

// LabFacility 实验室设施
type LabFacility struct {
	ID                  string     `json:"id" gorm:"primaryKey;size:32"`
	Name                string     `json:"name" gorm:"size:200;not null"`
	Code                string     `json:"code" gorm:"size:32;not null;uniqueIndex"`
	FacilityType        string     `json:"facility_type" gorm:"size:20;not null"` // internal/external/partner
	Address             string     `json:"address" gorm:"size:500"`
	City                string     `json:"city" gorm:"size:100"`
	State               string     `json:"state" gorm:"size:100"`
	Country             string     `json:"country" gorm:"size:100"`
	PostalCode          string     `json:"postal_code" gorm:"size:32"`
	ContactName         string     `json:"contact_name" gorm:"size:100"`
	ContactEmail        string     `json:"contact_email" gorm:"size:255"`
	ContactPhone        string     `json:"contact_phone" gorm:"size:32"`
	AccreditationNumber string     `json:"accreditation_number" gorm:"size:100"`
	AccreditationBody   string     `json:"accreditation_body" gorm:"size:200"`
	AccreditationExpiry *time.Time `json:"accreditation_expiry"`
	Capabilities        JSONB      `json:"capabilities" gorm:"type:jsonb"`
	IsActive            bool       `json:"is_active" gorm:"not null;default:true"`
	Notes               string     `json:"notes" gorm:"type:text"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	// 关联
	Equipment []Equipment `json:"equipment,omitempty" gorm:"foreignKey:LabFacilityID"`
}

func (LabFacility) TableName() string {
	return "lab_facilities"
}

// 实验室类型
const (
	FacilityTypeInternal = "internal"
	FacilityTypeExternal = "external"
	FacilityTypePartner  = "partner"
)

// Equipment 实验室设备
type Equipment struct {
	ID             string     `json:"id" gorm:"primaryKey;size:32"`
	EquipmentCode  string     `json:"equipment_code" gorm:"size:32;not null;uniqueIndex"`
	Name           string     `json:"name" gorm:"size:200;not null"`
	Manufacturer   string     `json:"manufacturer" gorm:"size:200"`
	Model          string     `json:"model" gorm:"size:100"`
	Status         string     `json:"status" gorm:"size:20;not null;default:active"` // active/maintenance/retired
	CalibrationDue *time.Time `json:"calibration_due"`
	LabFacilityID  string     `json:"lab_facility_id" gorm:"size:32;not null;index"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Equipment) TableName() string {
	return "equipment"
}

// TestStandard 测试标准（如 IEC 61215）
type TestStandard struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	StandardCode string    `json:"standard_code" gorm:"size:64;not null;uniqueIndex"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	Version      string    `json:"version" gorm:"size:32"`
	Description  string    `json:"description" gorm:"type:text"`
	Category     string    `json:"category" gorm:"size:64"`
	DurationDays int       `json:"duration_days"`
	IsActive     bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (TestStandard) TableName() string {
	return "test_standards"
}

package entity

import "time"

// Sample 送检样品
type Sample struct {
	ID                 string     `json:"id" gorm:"primaryKey;size:32"`
	SampleNumber       string     `json:"sample_number" gorm:"size:32;not null;uniqueIndex"`
	ServiceRequestID   string     `json:"service_request_id" gorm:"size:32;not null;index"`
	SampleType         string     `json:"sample_type" gorm:"size:20;not null;default:module"` // module/cell/component/material
	Status             string     `json:"status" gorm:"size:20;not null;default:registered;index"`
	Quantity           int        `json:"quantity" gorm:"not null;default:1"`
	SerialNumbers      StringList `json:"serial_numbers" gorm:"type:jsonb"`
	BatchNumber        string     `json:"batch_number" gorm:"size:100"`
	Manufacturer       string     `json:"manufacturer" gorm:"size:200"`
	ModelNumber        string     `json:"model_number" gorm:"size:100"`
	Description        string     `json:"description" gorm:"type:text"`
	StorageLocation    string     `json:"storage_location" gorm:"size:200"`
	ReceivingCondition string     `json:"receiving_condition" gorm:"size:20"` // good/damaged/partial
	ReceivedAt         *time.Time `json:"received_at"`
	ReceivedBy         string     `json:"received_by" gorm:"size:32"`
	Notes              string     `json:"notes" gorm:"type:text"`
	CreatedBy          string     `json:"created_by" gorm:"size:32"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// 关联
	ServiceRequest *ServiceRequest       `json:"service_request,omitempty" gorm:"foreignKey:ServiceRequestID"`
	CustodyRecords []SampleCustodyRecord `json:"custody_records,omitempty" gorm:"foreignKey:SampleID"`
	TestResults    []TestResult          `json:"test_results,omitempty" gorm:"foreignKey:SampleID"`
}

func (Sample) TableName() string {
	return "samples"
}

// 样品状态
const (
	SampleStatusRegistered = "registered"
	SampleStatusReceived   = "received"
	SampleStatusInTesting  = "in_testing"
	SampleStatusTested     = "tested"
	SampleStatusOnHold     = "on_hold"
	SampleStatusDisposed   = "disposed"
)

// 样品类型
const (
	SampleTypeModule    = "module"
	SampleTypeCell      = "cell"
	SampleTypeComponent = "component"
	SampleTypeMaterial  = "material"
)

// 接收状态
const (
	ConditionGood    = "good"
	ConditionDamaged = "damaged"
	ConditionPartial = "partial"
)

// ValidSampleTransitions 样品状态流转表
var ValidSampleTransitions = map[string][]string{
	SampleStatusRegistered: {SampleStatusReceived, SampleStatusOnHold, SampleStatusDisposed},
	SampleStatusReceived:   {SampleStatusInTesting, SampleStatusOnHold, SampleStatusDisposed},
	SampleStatusInTesting:  {SampleStatusTested, SampleStatusOnHold},
	SampleStatusTested:     {SampleStatusDisposed},
	SampleStatusOnHold:     {SampleStatusReceived, SampleStatusInTesting, SampleStatusDisposed},
	SampleStatusDisposed:   {},
}

// ValidReceivingCondition 接收状态是否合法
func ValidReceivingCondition(c string) bool {
	switch c {
	case ConditionGood, ConditionDamaged, ConditionPartial:
		return true
	}
	return false
}

// SampleCustodyRecord 样品流转记录，只增不改
type SampleCustodyRecord struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	SampleID     string    `json:"sample_id" gorm:"size:32;not null;index"`
	Action       string    `json:"action" gorm:"size:20;not null"` // registered/received/transferred/disposed
	FromLocation string    `json:"from_location" gorm:"size:200"`
	ToLocation   string    `json:"to_location" gorm:"size:200"`
	PerformedBy  string    `json:"performed_by" gorm:"size:32"`
	Notes        string    `json:"notes" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
}

func (SampleCustodyRecord) TableName() string {
	return "sample_custody_records"
}

// 流转动作
const (
	CustodyActionRegistered  = "registered"
	CustodyActionReceived    = "received"
	CustodyActionTransferred = "transferred"
	CustodyActionDisposed    = "disposed"
)

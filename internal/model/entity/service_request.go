package entity

import "time"

// ServiceRequest 委托检测请求
type ServiceRequest struct {
	ID                  string     `json:"id" gorm:"primaryKey;size:32"`
	RequestNumber       string     `json:"request_number" gorm:"size:32;not null;uniqueIndex"`
	RequestType         string     `json:"request_type" gorm:"size:20;not null;default:external"` // internal/external
	Status              string     `json:"status" gorm:"size:20;not null;default:draft;index"`
	Priority            string     `json:"priority" gorm:"size:20;not null;default:normal"` // low/normal/high/urgent
	CustomerID          string     `json:"customer_id" gorm:"size:32;index"`
	Title               string     `json:"title" gorm:"size:255;not null"`
	Description         string     `json:"description" gorm:"type:text"`
	Manufacturer        string     `json:"manufacturer" gorm:"size:200"`
	ModelNumber         string     `json:"model_number" gorm:"size:100"`
	RatedPowerW         *float64   `json:"rated_power_w"`
	DimensionsMM        string     `json:"dimensions_mm" gorm:"size:100"`
	RequestedStandards  StringList `json:"requested_standards" gorm:"type:jsonb"`
	TargetMarkets       StringList `json:"target_markets" gorm:"type:jsonb"`
	SpecialRequirements string     `json:"special_requirements" gorm:"type:text"`
	AssignedLabID       string     `json:"assigned_lab_id" gorm:"size:32;index"`
	AssignedTo          string     `json:"assigned_to" gorm:"size:32"`
	RequestedCompletion *time.Time `json:"requested_completion"`
	EstimatedCompletion *time.Time `json:"estimated_completion"`
	ActualCompletion    *time.Time `json:"actual_completion"`
	QuotedPrice         *float64   `json:"quoted_price"`
	Currency            string     `json:"currency" gorm:"size:8;default:USD"`
	PONumber            string     `json:"po_number" gorm:"size:64"`
	CreatedBy           string     `json:"created_by" gorm:"size:32"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	// 关联
	Customer  *Customer    `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Samples   []Sample     `json:"samples,omitempty" gorm:"foreignKey:ServiceRequestID"`
	TestPlans []TestPlan   `json:"test_plans,omitempty" gorm:"foreignKey:ServiceRequestID"`
	Lab       *LabFacility `json:"lab,omitempty" gorm:"foreignKey:AssignedLabID"`
}

func (ServiceRequest) TableName() string {
	return "service_requests"
}

// 委托请求状态
const (
	RequestStatusDraft      = "draft"
	RequestStatusSubmitted  = "submitted"
	RequestStatusInReview   = "in_review"
	RequestStatusApproved   = "approved"
	RequestStatusInProgress = "in_progress"
	RequestStatusCompleted  = "completed"
	RequestStatusCancelled  = "cancelled"
)

// 请求类型
const (
	RequestTypeInternal = "internal"
	RequestTypeExternal = "external"
)

// 优先级
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ValidRequestTransitions 委托请求状态流转表
// cancelled 仅可通过通用更新路径到达，不设专用操作
var ValidRequestTransitions = map[string][]string{
	RequestStatusDraft:      {RequestStatusSubmitted, RequestStatusCancelled},
	RequestStatusSubmitted:  {RequestStatusInReview, RequestStatusApproved, RequestStatusCancelled},
	RequestStatusInReview:   {RequestStatusApproved, RequestStatusCancelled},
	RequestStatusApproved:   {RequestStatusInProgress, RequestStatusCancelled},
	RequestStatusInProgress: {RequestStatusCompleted, RequestStatusCancelled},
	RequestStatusCompleted:  {},
	RequestStatusCancelled:  {},
}

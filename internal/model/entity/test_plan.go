package entity

import "time"

// TestPlan 测试计划
type TestPlan struct {
	ID               string     `json:"id" gorm:"primaryKey;size:32"`
	PlanNumber       string     `json:"plan_number" gorm:"size:32;not null;uniqueIndex"`
	ServiceRequestID string     `json:"service_request_id" gorm:"size:32;not null;index"`
	SampleID         string     `json:"sample_id" gorm:"size:32;index"`
	StandardID       string     `json:"standard_id" gorm:"size:32;index"`
	Title            string     `json:"title" gorm:"size:255;not null"`
	Description      string     `json:"description" gorm:"type:text"`
	Status           string     `json:"status" gorm:"size:20;not null;default:pending;index"`
	AssignedLabID    string     `json:"assigned_lab_id" gorm:"size:32;index"`
	LeadTechnician   string     `json:"lead_technician" gorm:"size:32"`
	ScheduledStart   *time.Time `json:"scheduled_start"`
	ScheduledEnd     *time.Time `json:"scheduled_end"`
	ActualStart      *time.Time `json:"actual_start"`
	ActualEnd        *time.Time `json:"actual_end"`
	ReviewedBy       string     `json:"reviewed_by" gorm:"size:32"`
	ReviewDate       *time.Time `json:"review_date"`
	Notes            string     `json:"notes" gorm:"type:text"`
	CreatedBy        string     `json:"created_by" gorm:"size:32"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// 关联
	ServiceRequest *ServiceRequest `json:"service_request,omitempty" gorm:"foreignKey:ServiceRequestID"`
	Sample         *Sample         `json:"sample,omitempty" gorm:"foreignKey:SampleID"`
	Standard       *TestStandard   `json:"standard,omitempty" gorm:"foreignKey:StandardID"`
	TestResults    []TestResult    `json:"test_results,omitempty" gorm:"foreignKey:TestPlanID"`
}

func (TestPlan) TableName() string {
	return "test_plans"
}

// 测试计划状态
const (
	PlanStatusPending    = "pending"
	PlanStatusScheduled  = "scheduled"
	PlanStatusInProgress = "in_progress"
	PlanStatusCompleted  = "completed"
	PlanStatusFailed     = "failed"
	PlanStatusCancelled  = "cancelled"
)

// ValidPlanTransitions 测试计划状态流转表
var ValidPlanTransitions = map[string][]string{
	PlanStatusPending:    {PlanStatusScheduled, PlanStatusInProgress, PlanStatusCancelled},
	PlanStatusScheduled:  {PlanStatusInProgress, PlanStatusCancelled},
	PlanStatusInProgress: {PlanStatusCompleted, PlanStatusFailed, PlanStatusCancelled},
	PlanStatusCompleted:  {},
	PlanStatusFailed:     {},
	PlanStatusCancelled:  {},
}

// TestResult 测试结果
type TestResult struct {
	ID             string     `json:"id" gorm:"primaryKey;size:32"`
	ResultNumber   string     `json:"result_number" gorm:"size:32;not null;uniqueIndex"`
	TestPlanID     string     `json:"test_plan_id" gorm:"size:32;not null;index"`
	SampleID       string     `json:"sample_id" gorm:"size:32;not null;index"`
	TestName       string     `json:"test_name" gorm:"size:255;not null"`
	TestCode       string     `json:"test_code" gorm:"size:64"`
	SequenceNumber int        `json:"sequence_number" gorm:"not null;default:1"`
	Status         string     `json:"status" gorm:"size:20;not null;default:pending;index"` // pending/pass/fail/conditional
	MeasuredValues JSONB      `json:"measured_values" gorm:"type:jsonb"`
	PassCriteria   JSONB      `json:"pass_criteria" gorm:"type:jsonb"`
	TestConditions JSONB      `json:"test_conditions" gorm:"type:jsonb"`
	Observations   string     `json:"observations" gorm:"type:text"`
	Deviations     string     `json:"deviations" gorm:"type:text"`
	EquipmentUsed  StringList `json:"equipment_used" gorm:"type:jsonb"`
	PerformedBy    string     `json:"performed_by" gorm:"size:32"`
	VerifiedBy     string     `json:"verified_by" gorm:"size:32"`
	VerifiedAt     *time.Time `json:"verified_at"`
	StartTime      *time.Time `json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (TestResult) TableName() string {
	return "test_results"
}

// 测试结果状态
const (
	ResultStatusPending     = "pending"
	ResultStatusPass        = "pass"
	ResultStatusFail        = "fail"
	ResultStatusConditional = "conditional"
)

// CountPendingResults 统计未完成的测试结果数
func CountPendingResults(results []TestResult) int {
	n := 0
	for _, r := range results {
		if r.Status == ResultStatusPending {
			n++
		}
	}
	return n
}

// DerivePlanOutcome 根据测试结果推导计划终态：任一失败即失败
func DerivePlanOutcome(results []TestResult) string {
	for _, r := range results {
		if r.Status == ResultStatusFail {
			return PlanStatusFailed
		}
	}
	return PlanStatusCompleted
}

package entity

import "time"

// Report 检测报告
type Report struct {
	ID                 string     `json:"id" gorm:"primaryKey;size:32"`
	ReportNumber       string     `json:"report_number" gorm:"size:32;not null;uniqueIndex"`
	ServiceRequestID   string     `json:"service_request_id" gorm:"size:32;not null;index"`
	TestPlanID         string     `json:"test_plan_id" gorm:"size:32;index"`
	ReportType         string     `json:"report_type" gorm:"size:20;not null;default:test_report"`
	Title              string     `json:"title" gorm:"size:255;not null"`
	Status             string     `json:"status" gorm:"size:20;not null;default:draft;index"`
	Version            int        `json:"version" gorm:"not null;default:1"`
	OverallResult      string     `json:"overall_result" gorm:"size:20;not null;default:pending"`
	ExecutiveSummary   string     `json:"executive_summary" gorm:"type:text"`
	Conclusions        string     `json:"conclusions" gorm:"type:text"`
	Recommendations    string     `json:"recommendations" gorm:"type:text"`
	TestResultsSummary JSONB      `json:"test_results_summary" gorm:"type:jsonb"`
	PreparedBy         string     `json:"prepared_by" gorm:"size:32"`
	ReviewedBy         string     `json:"reviewed_by" gorm:"size:32"`
	ApprovedBy         string     `json:"approved_by" gorm:"size:32"`
	ApprovedAt         *time.Time `json:"approved_at"`
	IssuedAt           *time.Time `json:"issued_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// 关联
	ServiceRequest *ServiceRequest `json:"service_request,omitempty" gorm:"foreignKey:ServiceRequestID"`
	TestPlan       *TestPlan       `json:"test_plan,omitempty" gorm:"foreignKey:TestPlanID"`
}

func (Report) TableName() string {
	return "reports"
}

// 报告状态
const (
	ReportStatusDraft    = "draft"
	ReportStatusReview   = "review"
	ReportStatusApproved = "approved"
	ReportStatusIssued   = "issued"
)

// 报告类型
const (
	ReportTypeTest        = "test_report"
	ReportTypeSummary     = "summary"
	ReportTypeCalibration = "calibration"
	ReportTypeAudit       = "audit"
	ReportTypeOther       = "other"
)

// ValidReportTransitions 报告状态流转表，评审不通过退回草稿
var ValidReportTransitions = map[string][]string{
	ReportStatusDraft:    {ReportStatusReview},
	ReportStatusReview:   {ReportStatusApproved, ReportStatusDraft},
	ReportStatusApproved: {ReportStatusIssued},
	ReportStatusIssued:   {},
}

// DeriveOverallResult 根据测试结果推导报告总体结论
// 优先级: fail > conditional > pass > pending
func DeriveOverallResult(results []TestResult) string {
	var hasConditional, hasPass bool
	for _, r := range results {
		switch r.Status {
		case ResultStatusFail:
			return ResultStatusFail
		case ResultStatusConditional:
			hasConditional = true
		case ResultStatusPass:
			hasPass = true
		}
	}
	if hasConditional {
		return ResultStatusConditional
	}
	if hasPass {
		return ResultStatusPass
	}
	return ResultStatusPending
}

// ContentChanged 判断本次更新是否修改了报告正文，正文变更时版本号加一
func (r *Report) ContentChanged(summary, conclusions, recommendations *string) bool {
	if summary != nil && *summary != r.ExecutiveSummary {
		return true
	}
	if conclusions != nil && *conclusions != r.Conclusions {
		return true
	}
	if recommendations != nil && *recommendations != r.Recommendations {
		return true
	}
	return false
}

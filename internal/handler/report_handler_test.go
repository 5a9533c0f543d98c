package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/model/entity"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/repository"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/service"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/testutil"
)

func setupReportTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	audit := service.NewAuditService(repos.AuditLog)
	notification := service.NewNotificationService(repos.Notification)
	svc := service.NewReportService(repos.Report, repos.TestPlan, audit, notification, nil, "")
	h := NewReportHandler(svc)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	api.GET("/reports", h.List)
	api.GET("/reports/:id", h.Get)
	api.GET("/reports/:id/download", h.Download)
	api.POST("/reports", h.Create)
	api.PUT("/reports/:id", h.Update)
	api.DELETE("/reports/:id", h.Delete)
	api.POST("/reports/:id/submit", h.Submit)
	api.POST("/reports/:id/review", h.Review)
	api.POST("/reports/:id/issue", h.Issue)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func seedPlanWithResults(t *testing.T, env *testutil.TestEnv, planID, number, requestID string, statuses []string) {
	t.Helper()
	now := time.Now()
	plan := &entity.TestPlan{
		ID:               planID,
		PlanNumber:       number,
		ServiceRequestID: requestID,
		Title:            "Qualification sequence",
		Status:           entity.PlanStatusInProgress,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := env.DB.Create(plan).Error; err != nil {
		t.Fatalf("Failed to seed plan: %v", err)
	}
	for i, status := range statuses {
		result := &entity.TestResult{
			ID:             repository.NewID(),
			ResultNumber:   number + "-R" + string(rune('1'+i)),
			TestPlanID:     planID,
			SampleID:       "smp-" + planID,
			TestName:       "Test step",
			SequenceNumber: i + 1,
			Status:         status,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := env.DB.Create(result).Error; err != nil {
			t.Fatalf("Failed to seed result: %v", err)
		}
	}
}

// TestReportLifecycle walks a report through draft, review, approval and issue
func TestReportLifecycle(t *testing.T) {
	env := setupReportTest(t)
	token := testutil.EngineerToken()

	testutil.SeedServiceRequest(t, env.DB, "sr-rpt-001", "SR-2026-6001", "in_progress")
	seedPlanWithResults(t, env, "plan-rpt-001", "TP-2026-6001", "sr-rpt-001",
		[]string{"pass", "pass", "conditional"})

	// Create: overall result derived from the snapshot, conditional beats pass
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/reports", map[string]interface{}{
		"service_request_id": "sr-rpt-001",
		"test_plan_id":       "plan-rpt-001",
		"title":              "Type approval report",
		"conclusions":        "Module meets requirements with conditions.",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ResponseData(w)
	if data["overall_result"] != "conditional" {
		t.Fatalf("expected conditional overall result, got %v", data["overall_result"])
	}
	if data["version"].(float64) != 1 {
		t.Fatalf("expected version 1, got %v", data["version"])
	}
	id := data["id"].(string)

	// Title-only change does not bump the version
	w2 := testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/reports/"+id,
		map[string]interface{}{"title": "Type approval report rev A"}, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	if testutil.ResponseData(w2)["version"].(float64) != 1 {
		t.Fatalf("title change must not bump version, got %v", testutil.ResponseData(w2)["version"])
	}

	// Conclusions change bumps the version
	w3 := testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/reports/"+id,
		map[string]interface{}{"conclusions": "Module meets all requirements."}, token)
	if testutil.ResponseData(w3)["version"].(float64) != 2 {
		t.Fatalf("conclusions change should bump version, got %v", testutil.ResponseData(w3)["version"])
	}

	// Submit for review
	w4 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/reports/"+id+"/submit", nil, token)
	if testutil.ResponseData(w4)["status"] != "review" {
		t.Fatalf("expected review, got %v", testutil.ResponseData(w4)["status"])
	}

	// Rejection returns the report to draft
	w5 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/reports/"+id+"/review",
		map[string]interface{}{"approved": false}, testutil.ManagerToken())
	if w5.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w5.Code, w5.Body.String())
	}
	if testutil.ResponseData(w5)["status"] != "draft" {
		t.Fatalf("expected draft after rejection, got %v", testutil.ResponseData(w5)["status"])
	}

	// Resubmit and approve
	testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/reports/"+id+"/submit", nil, token)
	w6 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/reports/"+id+"/review",
		map[string]interface{}{"approved": true}, testutil.ManagerToken())
	if testutil.ResponseData(w6)["status"] != "approved" {
		t.Fatalf("expected approved, got %v", testutil.ResponseData(w6)["status"])
	}

	// Issue
	w7 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/reports/"+id+"/issue", nil, testutil.ManagerToken())
	if w7.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w7.Code, w7.Body.String())
	}
	issued := testutil.ResponseData(w7)
	if issued["status"] != "issued" {
		t.Fatalf("expected issued, got %v", issued["status"])
	}
	if issued["issued_at"] == nil || issued["approved_at"] == nil {
		t.Fatalf("issuing should stamp issued_at and approved_at")
	}

	// Issued reports are immutable and undeletable
	w8 := testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/reports/"+id,
		map[string]interface{}{"conclusions": "tampered"}, token)
	if w8.Code != http.StatusConflict {
		t.Fatalf("expected 409 editing issued report, got %d: %s", w8.Code, w8.Body.String())
	}
	w9 := testutil.DoRequest(env.Router, http.MethodDelete, "/api/v1/reports/"+id, nil, token)
	if w9.Code != http.StatusConflict {
		t.Fatalf("expected 409 deleting issued report, got %d: %s", w9.Code, w9.Body.String())
	}
}

// TestReportOverallResultFail verifies a failing result dominates the snapshot
func TestReportOverallResultFail(t *testing.T) {
	env := setupReportTest(t)
	token := testutil.EngineerToken()

	testutil.SeedServiceRequest(t, env.DB, "sr-rpt-002", "SR-2026-6002", "in_progress")
	seedPlanWithResults(t, env, "plan-rpt-002", "TP-2026-6002", "sr-rpt-002",
		[]string{"pass", "fail"})

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/reports", map[string]interface{}{
		"service_request_id": "sr-rpt-002",
		"test_plan_id":       "plan-rpt-002",
		"title":              "Failed qualification",
	}, token)
	data := testutil.ResponseData(w)
	if data["overall_result"] != "fail" {
		t.Fatalf("expected fail, got %v", data["overall_result"])
	}
	summary := data["test_results_summary"].(map[string]interface{})
	if summary["fail"].(float64) != 1 || summary["pass"].(float64) != 1 {
		t.Fatalf("unexpected summary counts: %v", summary)
	}
}

// TestReportIssueGuards verifies the status guards on submit and issue
func TestReportIssueGuards(t *testing.T) {
	env := setupReportTest(t)
	token := testutil.EngineerToken()

	testutil.SeedServiceRequest(t, env.DB, "sr-rpt-003", "SR-2026-6003", "in_progress")

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/reports", map[string]interface{}{
		"service_request_id": "sr-rpt-003",
		"title":              "Summary report",
		"report_type":        "summary",
	}, token)
	id := testutil.ResponseData(w)["id"].(string)

	// Draft cannot be issued directly
	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/reports/"+id+"/issue", nil, token)
	if w2.Code != http.StatusConflict {
		t.Fatalf("expected 409 issuing a draft, got %d: %s", w2.Code, w2.Body.String())
	}

	// Review without a verdict is a binding error
	testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/reports/"+id+"/submit", nil, token)
	w3 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/reports/"+id+"/review",
		map[string]interface{}{"comments": "looks fine"}, token)
	if w3.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without approved field, got %d: %s", w3.Code, w3.Body.String())
	}
}

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

func setupPlanTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	audit := service.NewAuditService(repos.AuditLog)
	notification := service.NewNotificationService(repos.Notification)
	svc := service.NewTestPlanService(repos.TestPlan, repos.Sample, repos.TestStandard, audit, notification)
	h := NewTestPlanHandler(svc)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	api.GET("/test-plans", h.List)
	api.GET("/test-plans/:id", h.Get)
	api.POST("/test-plans", h.Create)
	api.PUT("/test-plans/:id", h.Update)
	api.POST("/test-plans/:id/results", h.AddResult)
	api.PUT("/test-plans/:id/results/:resultId", h.UpdateResult)
	api.POST("/test-plans/:id/results/:resultId/verify", h.VerifyResult)
	api.POST("/test-plans/:id/complete", h.Complete)
	api.GET("/test-plans/:id/results/export", h.ExportResults)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func seedReceivedSample(t *testing.T, env *testutil.TestEnv, id, number, requestID string) *entity.Sample {
	t.Helper()
	now := time.Now()
	sample := &entity.Sample{
		ID:               id,
		SampleNumber:     number,
		ServiceRequestID: requestID,
		SampleType:       entity.SampleTypeModule,
		Status:           entity.SampleStatusReceived,
		Quantity:         1,
		StorageLocation:  "Warehouse A",
		ReceivedAt:       &now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := env.DB.Create(sample).Error; err != nil {
		t.Fatalf("Failed to seed sample: %v", err)
	}
	return sample
}

// TestPlanResultCascade covers the add-result cascades: the plan starts and
// the sample moves to in_testing on the first recorded result
func TestPlanResultCascade(t *testing.T) {
	env := setupPlanTest(t)
	token := testutil.TechnicianToken()

	testutil.SeedServiceRequest(t, env.DB, "sr-plan-001", "SR-2026-7001", "in_progress")
	seedReceivedSample(t, env, "smp-plan-001", "SMP-2026-7001", "sr-plan-001")

	// Create plan without schedule: starts pending
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/test-plans", map[string]interface{}{
		"service_request_id": "sr-plan-001",
		"sample_id":          "smp-plan-001",
		"title":              "IEC 61215 MQT sequence",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ResponseData(w)
	if data["status"] != "pending" {
		t.Fatalf("expected pending, got %v", data["status"])
	}
	planID := data["id"].(string)

	// First result: pending by default
	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/test-plans/"+planID+"/results", map[string]interface{}{
		"sample_id": "smp-plan-001",
		"test_name": "Visual inspection",
		"test_code": "MQT 01",
	}, token)
	if w2.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w2.Code, w2.Body.String())
	}
	result := testutil.ResponseData(w2)
	if result["status"] != "pending" {
		t.Fatalf("expected pending result, got %v", result["status"])
	}
	resultID := result["id"].(string)

	// Plan moved to in_progress with actual_start stamped
	var plan entity.TestPlan
	env.DB.Where("id = ?", planID).First(&plan)
	if plan.Status != entity.PlanStatusInProgress {
		t.Fatalf("expected plan in_progress after first result, got %s", plan.Status)
	}
	if plan.ActualStart == nil {
		t.Fatalf("first result should stamp actual_start")
	}

	// Sample cascaded to in_testing
	var sample entity.Sample
	env.DB.Where("id = ?", "smp-plan-001").First(&sample)
	if sample.Status != entity.SampleStatusInTesting {
		t.Fatalf("expected sample in_testing, got %s", sample.Status)
	}

	// Completion is blocked while results are pending
	w3 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/test-plans/"+planID+"/complete", nil, token)
	if w3.Code != http.StatusConflict {
		t.Fatalf("expected 409 completing with pending results, got %d: %s", w3.Code, w3.Body.String())
	}

	// Resolve the result
	w4 := testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/test-plans/"+planID+"/results/"+resultID, map[string]interface{}{
		"status":          "pass",
		"measured_values": map[string]interface{}{"pmax_w": 452.3},
	}, token)
	if w4.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w4.Code, w4.Body.String())
	}
	if testutil.ResponseData(w4)["end_time"] == nil {
		t.Fatalf("leaving pending should stamp end_time")
	}

	// Verify the result
	w5 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/test-plans/"+planID+"/results/"+resultID+"/verify", nil, testutil.EngineerToken())
	if w5.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w5.Code, w5.Body.String())
	}
	// Verifying twice is rejected
	w6 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/test-plans/"+planID+"/results/"+resultID+"/verify", nil, testutil.EngineerToken())
	if w6.Code != http.StatusConflict {
		t.Fatalf("expected 409 on double verify, got %d: %s", w6.Code, w6.Body.String())
	}

	// Complete: all pass derives completed, sample moves to tested
	w7 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/test-plans/"+planID+"/complete", nil, token)
	if w7.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w7.Code, w7.Body.String())
	}
	if testutil.ResponseData(w7)["status"] != "completed" {
		t.Fatalf("expected completed, got %v", testutil.ResponseData(w7)["status"])
	}
	env.DB.Where("id = ?", "smp-plan-001").First(&sample)
	if sample.Status != entity.SampleStatusTested {
		t.Fatalf("expected sample tested, got %s", sample.Status)
	}

	// Terminal plans reject further results
	w8 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/test-plans/"+planID+"/results", map[string]interface{}{
		"sample_id": "smp-plan-001",
		"test_name": "Hot-spot endurance",
	}, token)
	if w8.Code != http.StatusConflict {
		t.Fatalf("expected 409 adding results to a completed plan, got %d: %s", w8.Code, w8.Body.String())
	}
}

// TestPlanFailedOutcome verifies a single failing result fails the plan
func TestPlanFailedOutcome(t *testing.T) {
	env := setupPlanTest(t)
	token := testutil.TechnicianToken()

	testutil.SeedServiceRequest(t, env.DB, "sr-plan-002", "SR-2026-7002", "in_progress")
	seedReceivedSample(t, env, "smp-plan-002", "SMP-2026-7002", "sr-plan-002")

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/test-plans", map[string]interface{}{
		"service_request_id": "sr-plan-002",
		"sample_id":          "smp-plan-002",
		"title":              "Damp heat 1000h",
	}, token)
	planID := testutil.ResponseData(w)["id"].(string)

	// One pass, one fail, recorded directly with their final status
	for _, r := range []map[string]interface{}{
		{"sample_id": "smp-plan-002", "test_name": "Damp heat", "status": "pass"},
		{"sample_id": "smp-plan-002", "test_name": "Wet leakage current", "status": "fail"},
	} {
		w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/test-plans/"+planID+"/results", r, token)
		if w2.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w2.Code, w2.Body.String())
		}
	}

	w3 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/test-plans/"+planID+"/complete", nil, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w3.Code, w3.Body.String())
	}
	if testutil.ResponseData(w3)["status"] != "failed" {
		t.Fatalf("expected failed, got %v", testutil.ResponseData(w3)["status"])
	}

	// failed is terminal: completing again is rejected
	w4 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/test-plans/"+planID+"/complete", nil, token)
	if w4.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w4.Code, w4.Body.String())
	}
}

// TestPlanScheduledCreation verifies plans with a schedule start as scheduled
func TestPlanScheduledCreation(t *testing.T) {
	env := setupPlanTest(t)
	token := testutil.TechnicianToken()

	testutil.SeedServiceRequest(t, env.DB, "sr-plan-003", "SR-2026-7003", "approved")

	start := time.Now().AddDate(0, 0, 7)
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/test-plans", map[string]interface{}{
		"service_request_id": "sr-plan-003",
		"title":              "UV preconditioning",
		"scheduled_start":    start,
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if testutil.ResponseData(w)["status"] != "scheduled" {
		t.Fatalf("expected scheduled, got %v", testutil.ResponseData(w)["status"])
	}
}

// TestPlanResultsExport verifies the workbook download headers
func TestPlanResultsExport(t *testing.T) {
	env := setupPlanTest(t)
	token := testutil.TechnicianToken()

	testutil.SeedServiceRequest(t, env.DB, "sr-plan-004", "SR-2026-7004", "in_progress")
	seedReceivedSample(t, env, "smp-plan-004", "SMP-2026-7004", "sr-plan-004")

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/test-plans", map[string]interface{}{
		"service_request_id": "sr-plan-004",
		"sample_id":          "smp-plan-004",
		"title":              "Thermal cycling 200",
	}, token)
	planID := testutil.ResponseData(w)["id"].(string)

	testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/test-plans/"+planID+"/results", map[string]interface{}{
		"sample_id": "smp-plan-004",
		"test_name": "Thermal cycling",
		"status":    "pass",
	}, token)

	w2 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/test-plans/"+planID+"/results/export", nil, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	if ct := w2.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if w2.Body.Len() == 0 {
		t.Fatalf("expected a non-empty workbook")
	}
}

package handler

import (
	"net/http"
	"testing"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/model/entity"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/repository"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/service"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/testutil"
)

func setupLabTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	audit := service.NewAuditService(repos.AuditLog)
	svc := service.NewLabFacilityService(repos.LabFacility, audit)
	h := NewLabFacilityHandler(svc)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	api.GET("/lab-facilities", h.List)
	api.GET("/lab-facilities/:id", h.Get)
	api.GET("/lab-facilities/:id/workload", h.Workload)
	api.POST("/lab-facilities", h.Create)
	api.PUT("/lab-facilities/:id", h.Update)
	api.DELETE("/lab-facilities/:id", h.Delete)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

// TestLabFacilityDuplicateCode verifies facility codes are unique
func TestLabFacilityDuplicateCode(t *testing.T) {
	env := setupLabTest(t)
	token := testutil.AdminToken()

	body := map[string]interface{}{
		"name": "Cologne PV Lab",
		"code": "LAB-CGN",
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/lab-facilities", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if testutil.ResponseData(w)["facility_type"] != "internal" {
		t.Fatalf("facility type should default to internal")
	}

	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/lab-facilities", body, token)
	if w2.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate code, got %d: %s", w2.Code, w2.Body.String())
	}
}

// TestLabFacilityDeleteGuard verifies labs with active requests cannot be deleted
func TestLabFacilityDeleteGuard(t *testing.T) {
	env := setupLabTest(t)
	token := testutil.AdminToken()

	lab := testutil.SeedLab(t, env.DB, "lab-001", "LAB-001", "Shanghai PV Lab")

	sr := testutil.SeedServiceRequest(t, env.DB, "sr-lab-001", "SR-2026-5001", "in_progress")
	env.DB.Model(sr).Update("assigned_lab_id", lab.ID)

	w := testutil.DoRequest(env.Router, http.MethodDelete, "/api/v1/lab-facilities/"+lab.ID, nil, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 deleting a lab with active requests, got %d: %s", w.Code, w.Body.String())
	}

	// Completed requests no longer block deletion
	env.DB.Model(sr).Update("status", entity.RequestStatusCompleted)
	w2 := testutil.DoRequest(env.Router, http.MethodDelete, "/api/v1/lab-facilities/"+lab.ID, nil, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
}

// TestLabFacilityWorkload verifies the workload counters
func TestLabFacilityWorkload(t *testing.T) {
	env := setupLabTest(t)
	token := testutil.ManagerToken()

	lab := testutil.SeedLab(t, env.DB, "lab-002", "LAB-002", "Munich PV Lab")

	sr := testutil.SeedServiceRequest(t, env.DB, "sr-lab-002", "SR-2026-5002", "in_progress")
	env.DB.Model(sr).Update("assigned_lab_id", lab.ID)
	for i, status := range []string{entity.PlanStatusInProgress, entity.PlanStatusPending, entity.PlanStatusCompleted} {
		plan := &entity.TestPlan{
			ID:               repository.NewID(),
			PlanNumber:       "TP-2026-500" + string(rune('1'+i)),
			ServiceRequestID: sr.ID,
			Title:            "Plan",
			Status:           status,
			AssignedLabID:    lab.ID,
		}
		if err := env.DB.Create(plan).Error; err != nil {
			t.Fatalf("Failed to seed plan: %v", err)
		}
	}

	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/lab-facilities/"+lab.ID+"/workload", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ResponseData(w)
	if data["active_requests"].(float64) != 1 {
		t.Fatalf("expected 1 active request, got %v", data["active_requests"])
	}
	if data["active_plans"].(float64) != 1 {
		t.Fatalf("expected 1 active plan, got %v", data["active_plans"])
	}
	if data["pending_plans"].(float64) != 1 {
		t.Fatalf("expected 1 pending plan, got %v", data["pending_plans"])
	}
	if data["completed_plans"].(float64) != 1 {
		t.Fatalf("expected 1 completed plan, got %v", data["completed_plans"])
	}
}

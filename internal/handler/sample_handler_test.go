package handler

import (
	"net/http"
	"testing"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/repository"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/service"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/testutil"
)

func setupSampleTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	audit := service.NewAuditService(repos.AuditLog)
	svc := service.NewSampleService(repos.Sample, repos.ServiceRequest, audit)
	h := NewSampleHandler(svc)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	api.GET("/samples", h.List)
	api.GET("/samples/:id", h.Get)
	api.GET("/samples/:id/chain-of-custody", h.CustodyChain)
	api.POST("/samples", h.Create)
	api.PUT("/samples/:id", h.Update)
	api.POST("/samples/:id/receive", h.Receive)
	api.POST("/samples/:id/transfer", h.Transfer)
	api.DELETE("/samples/:id", h.Delete)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

// TestSampleCustodyChain walks registration, receiving and transfer and
// checks the custody trail written alongside each step
func TestSampleCustodyChain(t *testing.T) {
	env := setupSampleTest(t)
	token := testutil.TechnicianToken()

	testutil.SeedServiceRequest(t, env.DB, "sr-smp-001", "SR-2026-8001", "approved")

	// Register sample
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/samples", map[string]interface{}{
		"service_request_id": "sr-smp-001",
		"sample_type":        "module",
		"quantity":           2,
		"serial_numbers":     []string{"SN-001", "SN-002"},
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ResponseData(w)
	if data["status"] != "registered" {
		t.Fatalf("expected registered, got %v", data["status"])
	}
	id := data["id"].(string)

	// Registration writes the first custody record
	w2 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/samples/"+id+"/chain-of-custody", nil, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	records := testutil.ParseResponse(w2)["data"].([]interface{})
	if len(records) != 1 {
		t.Fatalf("expected 1 custody record, got %d", len(records))
	}
	if records[0].(map[string]interface{})["action"] != "registered" {
		t.Fatalf("expected registered action, got %v", records[0].(map[string]interface{})["action"])
	}

	// Receive
	w3 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/samples/"+id+"/receive", map[string]interface{}{
		"receiving_condition": "good",
		"storage_location":    "Warehouse A",
	}, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w3.Code, w3.Body.String())
	}
	data3 := testutil.ResponseData(w3)
	if data3["status"] != "received" {
		t.Fatalf("expected received, got %v", data3["status"])
	}
	if data3["received_at"] == nil {
		t.Fatalf("receiving should stamp received_at")
	}

	// Receiving twice is rejected
	w4 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/samples/"+id+"/receive", map[string]interface{}{
		"receiving_condition": "good",
		"storage_location":    "Warehouse B",
	}, token)
	if w4.Code != http.StatusConflict {
		t.Fatalf("expected 409 on double receive, got %d: %s", w4.Code, w4.Body.String())
	}

	// Transfer
	w5 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/samples/"+id+"/transfer", map[string]interface{}{
		"to_location": "Climate Chamber 3",
	}, token)
	if w5.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w5.Code, w5.Body.String())
	}
	if testutil.ResponseData(w5)["storage_location"] != "Climate Chamber 3" {
		t.Fatalf("transfer should update storage_location")
	}

	// Chain now holds registered, received, transferred in order
	w6 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/samples/"+id+"/chain-of-custody", nil, token)
	chain := testutil.ParseResponse(w6)["data"].([]interface{})
	if len(chain) != 3 {
		t.Fatalf("expected 3 custody records, got %d", len(chain))
	}
	last := chain[2].(map[string]interface{})
	if last["action"] != "transferred" {
		t.Fatalf("expected transferred action, got %v", last["action"])
	}
	if last["from_location"] != "Warehouse A" || last["to_location"] != "Climate Chamber 3" {
		t.Fatalf("unexpected transfer locations: %v -> %v", last["from_location"], last["to_location"])
	}
}

// TestSampleCreateRequiresRequest verifies samples cannot reference missing requests
func TestSampleCreateRequiresRequest(t *testing.T) {
	env := setupSampleTest(t)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/samples", map[string]interface{}{
		"service_request_id": "no-such-request",
	}, testutil.TechnicianToken())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

// TestSampleDeleteGuard verifies samples in testing cannot be deleted
func TestSampleDeleteGuard(t *testing.T) {
	env := setupSampleTest(t)
	token := testutil.ManagerToken()

	testutil.SeedServiceRequest(t, env.DB, "sr-smp-002", "SR-2026-8002", "in_progress")

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/samples", map[string]interface{}{
		"service_request_id": "sr-smp-002",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	id := testutil.ResponseData(w)["id"].(string)

	// registered -> received -> in_testing
	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/samples/"+id+"/receive", map[string]interface{}{
		"receiving_condition": "good",
		"storage_location":    "Warehouse A",
	}, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	w3 := testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/samples/"+id,
		map[string]interface{}{"status": "in_testing"}, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w3.Code, w3.Body.String())
	}

	w4 := testutil.DoRequest(env.Router, http.MethodDelete, "/api/v1/samples/"+id, nil, token)
	if w4.Code != http.StatusConflict {
		t.Fatalf("expected 409 deleting a sample in testing, got %d: %s", w4.Code, w4.Body.String())
	}

	// in_testing cannot return to registered
	w5 := testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/samples/"+id,
		map[string]interface{}{"status": "registered"}, token)
	if w5.Code != http.StatusConflict {
		t.Fatalf("expected 409 on invalid transition, got %d: %s", w5.Code, w5.Body.String())
	}
}

// TestSampleReceiveConditionValidation verifies the condition enum
func TestSampleReceiveConditionValidation(t *testing.T) {
	env := setupSampleTest(t)
	token := testutil.TechnicianToken()

	testutil.SeedServiceRequest(t, env.DB, "sr-smp-003", "SR-2026-8003", "approved")
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/samples", map[string]interface{}{
		"service_request_id": "sr-smp-003",
	}, token)
	id := testutil.ResponseData(w)["id"].(string)

	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/samples/"+id+"/receive", map[string]interface{}{
		"receiving_condition": "pristine",
		"storage_location":    "Warehouse A",
	}, token)
	if w2.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown condition, got %d: %s", w2.Code, w2.Body.String())
	}
}

package handler

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/repository"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/service"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/testutil"
)

func setupCertTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	audit := service.NewAuditService(repos.AuditLog)
	notification := service.NewNotificationService(repos.Notification)
	svc := service.NewCertificationService(repos.Certification, audit, notification, nil, "")
	h := NewCertificationHandler(svc)

	router := testutil.SetupRouter()
	// Verification is a public endpoint
	router.GET("/api/v1/certifications/verify/:certificateNumber", h.Verify)
	api := testutil.AuthGroup(router, "/api/v1")
	api.GET("/certifications", h.List)
	api.GET("/certifications/:id", h.Get)
	api.GET("/certifications/:id/download", h.Download)
	api.POST("/certifications", h.Create)
	api.PUT("/certifications/:id", h.Update)
	api.POST("/certifications/:id/issue", h.Issue)
	api.POST("/certifications/:id/revoke", h.Revoke)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

// TestCertificationIssueAndVerify walks draft, issue and public verification
func TestCertificationIssueAndVerify(t *testing.T) {
	env := setupCertTest(t)
	token := testutil.ManagerToken()

	expiry := time.Now().AddDate(5, 0, 0)
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/certifications", map[string]interface{}{
		"manufacturer":   "SunPeak Solar",
		"model_numbers":  []string{"SP-450M", "SP-455M"},
		"standard_codes": []string{"IEC 61215:2021", "IEC 61730-1:2023"},
		"expiry_date":    expiry,
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ResponseData(w)
	if data["status"] != "draft" {
		t.Fatalf("expected draft, got %v", data["status"])
	}
	if data["document_hash"] != "" {
		t.Fatalf("draft certificate must not carry a document hash")
	}
	id := data["id"].(string)
	number := data["certificate_number"].(string)
	if !strings.HasPrefix(number, "CERT-") {
		t.Fatalf("unexpected certificate number %q", number)
	}

	// Issue with no body: issue date defaults to today
	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/certifications/"+id+"/issue", nil, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	issued := testutil.ResponseData(w2)
	if issued["status"] != "issued" {
		t.Fatalf("expected issued, got %v", issued["status"])
	}
	if issued["issue_date"] == nil {
		t.Fatalf("issuing should default the issue date")
	}
	hash := issued["document_hash"].(string)
	if len(hash) != 64 {
		t.Fatalf("expected a sha256 hex digest, got %q", hash)
	}

	// Issuing twice is rejected
	w3 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/certifications/"+id+"/issue", nil, token)
	if w3.Code != http.StatusConflict {
		t.Fatalf("expected 409 on double issue, got %d: %s", w3.Code, w3.Body.String())
	}

	// Issued certificates can no longer be edited
	w4 := testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/certifications/"+id,
		map[string]interface{}{"manufacturer": "Other Corp"}, token)
	if w4.Code != http.StatusConflict {
		t.Fatalf("expected 409 editing issued certificate, got %d: %s", w4.Code, w4.Body.String())
	}

	// Public verification without a token
	w5 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/certifications/verify/"+number, nil, "")
	if w5.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w5.Code, w5.Body.String())
	}
	verify := testutil.ResponseData(w5)
	if verify["valid"] != true {
		t.Fatalf("expected valid certificate, got %v", verify["valid"])
	}
	if verify["is_expired"] != false {
		t.Fatalf("expected not expired, got %v", verify["is_expired"])
	}
	if verify["document_hash"] != hash {
		t.Fatalf("verification should return the issued hash")
	}
}

// TestCertificationRevoke verifies revocation is reasoned, recorded and final
func TestCertificationRevoke(t *testing.T) {
	env := setupCertTest(t)
	token := testutil.AdminToken()

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/certifications", map[string]interface{}{
		"manufacturer": "SunPeak Solar",
	}, token)
	id := testutil.ResponseData(w)["id"].(string)
	number := testutil.ResponseData(w)["certificate_number"].(string)

	// Drafts cannot be revoked
	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/certifications/"+id+"/revoke",
		map[string]interface{}{"reason": "test"}, token)
	if w2.Code != http.StatusConflict {
		t.Fatalf("expected 409 revoking a draft, got %d: %s", w2.Code, w2.Body.String())
	}

	w3 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/certifications/"+id+"/issue", nil, token)
	hash := testutil.ResponseData(w3)["document_hash"].(string)

	// Missing reason is a binding error
	w4 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/certifications/"+id+"/revoke",
		map[string]interface{}{}, token)
	if w4.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without reason, got %d: %s", w4.Code, w4.Body.String())
	}

	w5 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/certifications/"+id+"/revoke",
		map[string]interface{}{"reason": "manufacturing deviation found in audit"}, token)
	if w5.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w5.Code, w5.Body.String())
	}
	revoked := testutil.ResponseData(w5)
	if revoked["status"] != "revoked" {
		t.Fatalf("expected revoked, got %v", revoked["status"])
	}
	if !strings.Contains(revoked["limitations"].(string), "REVOKED: manufacturing deviation found in audit") {
		t.Fatalf("revocation reason should be appended to limitations, got %q", revoked["limitations"])
	}

	// Verification flips to invalid but the hash is untouched
	w6 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/certifications/verify/"+number, nil, "")
	verify := testutil.ResponseData(w6)
	if verify["valid"] != false {
		t.Fatalf("revoked certificate must not verify as valid")
	}
	if verify["document_hash"] != hash {
		t.Fatalf("revocation must not change the document hash")
	}

	// Revocation is final
	w7 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/certifications/"+id+"/issue", nil, token)
	if w7.Code != http.StatusConflict {
		t.Fatalf("expected 409 reissuing a revoked certificate, got %d: %s", w7.Code, w7.Body.String())
	}
}

// TestCertificationVerifyUnknown verifies unknown numbers map to 404
func TestCertificationVerifyUnknown(t *testing.T) {
	env := setupCertTest(t)

	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/certifications/verify/CERT-0000-0000", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

// TestCertificationExpiredVerification verifies expiry derivation
func TestCertificationExpiredVerification(t *testing.T) {
	env := setupCertTest(t)
	token := testutil.ManagerToken()

	past := time.Now().AddDate(0, 0, -1)
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/certifications", map[string]interface{}{
		"manufacturer": "SunPeak Solar",
		"expiry_date":  past,
	}, token)
	id := testutil.ResponseData(w)["id"].(string)
	number := testutil.ResponseData(w)["certificate_number"].(string)

	testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/certifications/"+id+"/issue", nil, token)

	w2 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/certifications/verify/"+number, nil, "")
	verify := testutil.ResponseData(w2)
	if verify["is_expired"] != true {
		t.Fatalf("expected expired certificate")
	}
	if verify["valid"] != false {
		t.Fatalf("expired certificate must not be valid")
	}
	if verify["status"] != "issued" {
		t.Fatalf("expiry is derived, stored status stays issued; got %v", verify["status"])
	}
}

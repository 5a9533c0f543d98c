package entity

import "testing"

// TestCountPendingResults verifies pending counting used by the completion guard
func TestCountPendingResults(t *testing.T) {
	results := []TestResult{
		{Status: ResultStatusPass},
		{Status: ResultStatusPending},
		{Status: ResultStatusFail},
		{Status: ResultStatusPending},
		{Status: ResultStatusConditional},
	}
	if n := CountPendingResults(results); n != 2 {
		t.Fatalf("expected 2 pending results, got %d", n)
	}
	if n := CountPendingResults(nil); n != 0 {
		t.Fatalf("expected 0 pending results for empty slice, got %d", n)
	}
}

// TestDerivePlanOutcome verifies that a single failing result fails the plan
func TestDerivePlanOutcome(t *testing.T) {
	allPass := []TestResult{{Status: ResultStatusPass}, {Status: ResultStatusConditional}}
	if got := DerivePlanOutcome(allPass); got != PlanStatusCompleted {
		t.Fatalf("expected completed, got %s", got)
	}

	withFail := []TestResult{{Status: ResultStatusPass}, {Status: ResultStatusFail}}
	if got := DerivePlanOutcome(withFail); got != PlanStatusFailed {
		t.Fatalf("expected failed, got %s", got)
	}

	if got := DerivePlanOutcome(nil); got != PlanStatusCompleted {
		t.Fatalf("expected completed for empty results, got %s", got)
	}
}

package entity

import "testing"

// TestDeriveOverallResult verifies the fail > conditional > pass > pending precedence
func TestDeriveOverallResult(t *testing.T) {
	cases := []struct {
		name     string
		statuses []string
		want     string
	}{
		{"no results", nil, ResultStatusPending},
		{"all pending", []string{ResultStatusPending, ResultStatusPending}, ResultStatusPending},
		{"all pass", []string{ResultStatusPass, ResultStatusPass}, ResultStatusPass},
		{"one fail wins", []string{ResultStatusPass, ResultStatusFail, ResultStatusPass}, ResultStatusFail},
		{"conditional over pass", []string{ResultStatusPass, ResultStatusConditional}, ResultStatusConditional},
		{"fail over conditional", []string{ResultStatusConditional, ResultStatusFail}, ResultStatusFail},
		{"pass with pending", []string{ResultStatusPass, ResultStatusPending}, ResultStatusPass},
	}
	for _, c := range cases {
		results := make([]TestResult, len(c.statuses))
		for i, s := range c.statuses {
			results[i] = TestResult{Status: s}
		}
		if got := DeriveOverallResult(results); got != c.want {
			t.Fatalf("%s: expected %s, got %s", c.name, c.want, got)
		}
	}
}

// TestContentChanged verifies that only body field changes bump the version
func TestContentChanged(t *testing.T) {
	r := &Report{
		ExecutiveSummary: "summary v1",
		Conclusions:      "conclusions v1",
		Recommendations:  "recommendations v1",
	}

	if r.ContentChanged(nil, nil, nil) {
		t.Fatalf("no fields supplied should not count as a content change")
	}

	same := "summary v1"
	if r.ContentChanged(&same, nil, nil) {
		t.Fatalf("identical summary should not count as a content change")
	}

	changed := "summary v2"
	if !r.ContentChanged(&changed, nil, nil) {
		t.Fatalf("changed summary should count as a content change")
	}

	newConclusions := "conclusions v2"
	if !r.ContentChanged(nil, &newConclusions, nil) {
		t.Fatalf("changed conclusions should count as a content change")
	}

	empty := ""
	if !r.ContentChanged(nil, nil, &empty) {
		t.Fatalf("clearing recommendations should count as a content change")
	}
}

package dicomext

import (
	"strings"
	"testing"
)

func TestDecisionBuilder_Accept(t *testing.T) {
	d := Accept("bucket", "a.dcm").Build()

	if d.Outcome != OutcomeAccepted {
		t.Errorf("Outcome = %q; want %q", d.Outcome, OutcomeAccepted)
	}
	if d.Bucket != "bucket" || d.Key != "a.dcm" {
		t.Errorf("Bucket, Key = %q, %q; want bucket, a.dcm", d.Bucket, d.Key)
	}
	if d.IsRejected() {
		t.Error("IsRejected() = true for an accepted decision")
	}
	if d.Reason != "" {
		t.Errorf("Reason = %q; want empty", d.Reason)
	}
}

func TestDecisionBuilder_Reject(t *testing.T) {
	d := Reject("bucket", "b.dcm", ReasonTruncatedRead).
		Diagnostics("cap reached at 10240 bytes").
		Build()

	if !d.IsRejected() {
		t.Error("IsRejected() = false for a rejected decision")
	}
	if d.Reason != ReasonTruncatedRead {
		t.Errorf("Reason = %q; want %q", d.Reason, ReasonTruncatedRead)
	}
	if d.Diagnostics != "cap reached at 10240 bytes" {
		t.Errorf("Diagnostics = %q; want cap message", d.Diagnostics)
	}
}

func TestRoutingDecision_String(t *testing.T) {
	tests := []struct {
		name     string
		decision RoutingDecision
		contains []string
	}{
		{
			name:     "accepted",
			decision: Accept("bucket", "a.dcm").Build(),
			contains: []string{"a.dcm", "accepted"},
		},
		{
			name:     "rejected with diagnostics",
			decision: Reject("bucket", "b.dcm", ReasonNotFound).Diagnostics("no such key").Build(),
			contains: []string{"b.dcm", "rejected", "not-found", "no such key"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.decision.String()
			for _, want := range tt.contains {
				if !strings.Contains(s, want) {
					t.Errorf("String() = %q; want it to contain %q", s, want)
				}
			}
		})
	}
}

func TestRouter_OrderAndClassification(t *testing.T) {
	r := NewRouter("bucket")
	r.RecordAccepted("a.dcm")
	r.RecordRejected("b.dcm", ErrNotFound)
	r.RecordAccepted("c.dcm")
	r.RecordRejected("d.dcm", NewInstanceError("d.dcm", ErrStudyIdentityMismatch))

	decisions := r.Decisions()
	if len(decisions) != 4 {
		t.Fatalf("len(Decisions) = %d; want 4", len(decisions))
	}

	wantKeys := []string{"a.dcm", "b.dcm", "c.dcm", "d.dcm"}
	for i, key := range wantKeys {
		if decisions[i].Key != key {
			t.Errorf("Decisions[%d].Key = %q; want %q", i, decisions[i].Key, key)
		}
	}

	if decisions[1].Reason != ReasonNotFound {
		t.Errorf("Decisions[1].Reason = %q; want %q", decisions[1].Reason, ReasonNotFound)
	}
	// The sentinel is classified through the wrapping instance error.
	if decisions[3].Reason != ReasonStudyIdentityMismatch {
		t.Errorf("Decisions[3].Reason = %q; want %q", decisions[3].Reason, ReasonStudyIdentityMismatch)
	}

	if got := r.AcceptedCount(); got != 2 {
		t.Errorf("AcceptedCount() = %d; want 2", got)
	}
	rejected := r.Rejected()
	if len(rejected) != 2 {
		t.Fatalf("len(Rejected) = %d; want 2", len(rejected))
	}
	if rejected[0].Key != "b.dcm" || rejected[1].Key != "d.dcm" {
		t.Errorf("Rejected keys = %q, %q; want b.dcm, d.dcm", rejected[0].Key, rejected[1].Key)
	}
}

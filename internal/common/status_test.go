package common

import "testing"

func TestStatus_String(t *testing.T) {
	cases := map[Status]string{
		StatusPending:   "pending",
		StatusActive:    "active",
		StatusPaused:    "paused",
		StatusCompleted: "completed",
		StatusFailed:    "failed",
		StatusCancelled: "cancelled",
		Status(99):      "unknown",
	}

	for status, want := range cases {
		if got := status.String(); got != want {
			t.Fatalf("Status(%d).String() = %q, want %q", status, got, want)
		}
	}
}

func TestProgress_ZeroValueStatusIsPending(t *testing.T) {
	var p Progress

	if p.Status != StatusPending {
		t.Fatalf("zero-value Progress.Status = %v, want StatusPending", p.Status)
	}
}

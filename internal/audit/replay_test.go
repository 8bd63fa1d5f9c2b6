package audit

import (
	"strings"
	"testing"
	"time"
)

func seedHistory(t *testing.T) string {
	t.Helper()
	l, path := newTestLog(t)
	defer l.Close()

	entries := []Entry{
		{Event: EventScan, User: "student-1", Decision: "allow", Tier: 0, Reason: "Safe"},
		{Event: EventScan, User: "student-1", Decision: "reject", Tier: 1, Reason: "Tier 1 violation detected."},
		{Event: EventScan, User: "student-2", Decision: "allow", Tier: 0, Reason: "Safe"},
		{Event: EventReport, User: "student-1", Decision: "reject", Reason: "abuse"},
		{Event: EventTelemetry, User: "student-1", Decision: "reject", Reason: "INPUT_VARIANCE_TOO_LOW"},
	}
	for _, e := range entries {
		if err := l.Record(e); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestReplayFiltersByUser(t *testing.T) {
	path := seedHistory(t)

	result, err := Replay(path, ReplayFilter{User: "student-1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(result.Entries))
	}
	for _, e := range result.Entries {
		if e.User != "student-1" {
			t.Errorf("foreign entry leaked: %+v", e)
		}
	}

	s := result.Summary
	if s.AllowCount != 1 || s.RejectCount != 3 {
		t.Errorf("counts = %d allow / %d reject, want 1/3", s.AllowCount, s.RejectCount)
	}
	if s.ReportCount != 1 {
		t.Errorf("report count = %d, want 1", s.ReportCount)
	}
	if s.AnomalyCount != 1 {
		t.Errorf("anomaly count = %d, want 1", s.AnomalyCount)
	}
	if s.MaxTier != 1 {
		t.Errorf("max tier = %d, want 1", s.MaxTier)
	}
}

func TestReplayTimeRange(t *testing.T) {
	path := seedHistory(t)

	// All seeded entries share "now"; a window in the past excludes them.
	past := time.Now().UTC().Add(-2 * time.Hour)
	result, err := Replay(path, ReplayFilter{User: "student-1", From: past.Add(-time.Hour), To: past})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 0 {
		t.Fatalf("entries = %d, want 0 outside window", len(result.Entries))
	}
}

func TestFormatTimeline(t *testing.T) {
	path := seedHistory(t)
	result, err := Replay(path, ReplayFilter{User: "student-1"})
	if err != nil {
		t.Fatal(err)
	}

	out := FormatTimeline(result)
	if !strings.Contains(out, "User: student-1") {
		t.Errorf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "REJECT") {
		t.Errorf("missing decision row:\n%s", out)
	}
	if !strings.Contains(out, "Max tier: 1 (reflex)") {
		t.Errorf("missing summary footer:\n%s", out)
	}
}

func TestFormatTimelineEmpty(t *testing.T) {
	out := FormatTimeline(&ReplayResult{User: "ghost"})
	if !strings.Contains(out, "No entries found") {
		t.Errorf("unexpected output: %s", out)
	}
}

package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/ttverify/internal/latency"
	"github.com/roach88/ttverify/internal/model"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a run with one met and one unknown instance.
func createTestRun(id string, seq int64) RunRecord {
	outcomes := []latency.Outcome{
		{Flow: "F", Instance: 0, Release: 0, NextRelease: 10, AbsoluteDeadline: 10, Deadline: 10,
			Observed: 1, Required: 1, Completion: 3, Latency: 4, Status: latency.StatusMet},
		{Flow: "G", Instance: 0, Release: 0, NextRelease: 10, AbsoluteDeadline: 10, Deadline: 10,
			Observed: 0, Required: 1, Completion: -1, Status: latency.StatusUnknown},
	}
	report := []string{outcomes[0].Line(), "----------", outcomes[1].Line(), "----------"}
	return RunRecord{
		Run: Run{
			ID:            id,
			Seq:           seq,
			WorkloadName:  "test",
			WorkloadHash:  "wl-hash",
			ScheduleHash:  "sch-hash",
			Hyperperiod:   10,
			Slots:         10,
			Summary:       latency.Summarize(outcomes),
			ToolVersion:   model.ToolVersion,
			FormatVersion: model.FormatVersion,
		},
		Report:   report,
		Outcomes: outcomes,
		Markers: []Marker{
			{Row: 0, Flow: "F", Slot: 0, Tokens: []latency.Token{latency.Release}},
			{Row: 0, Flow: "F", Slot: 3, Tokens: []latency.Token{latency.Executing, latency.Complete}},
			{Row: 1, Flow: "G", Slot: 0, Tokens: []latency.Token{latency.Release}},
		},
	}
}

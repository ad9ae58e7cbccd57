package store

import (
	"github.com/roach88/ttverify/internal/latency"
)

// Run is the header of one verification run.
type Run struct {
	ID            string          `json:"id"`
	Seq           int64           `json:"seq"`
	WorkloadName  string          `json:"workload_name"`
	WorkloadHash  string          `json:"workload_hash"`
	ScheduleHash  string          `json:"schedule_hash"`
	Hyperperiod   int             `json:"hyperperiod"`
	Slots         int             `json:"slots"`
	Summary       latency.Summary `json:"summary"`
	ToolVersion   string          `json:"tool_version"`
	FormatVersion string          `json:"format_version"`
}

// Marker is one non-empty latency table cell.
type Marker struct {
	Row    int             `json:"row"`
	Flow   string          `json:"flow"`
	Slot   int             `json:"slot"`
	Tokens []latency.Token `json:"tokens"`
}

// RunRecord is a run with everything it produced.
type RunRecord struct {
	Run
	Report   []string          `json:"report"`
	Outcomes []latency.Outcome `json:"outcomes"`
	Markers  []Marker          `json:"markers"`
}

// MarkersFromTable collects the non-empty cells of tbl, row by row.
func MarkersFromTable(tbl *latency.Table) []Marker {
	var out []Marker
	for row, flow := range tbl.Flows() {
		for slot := 0; slot < tbl.Slots(); slot++ {
			c, _ := tbl.Cell(flow, slot)
			if tokens := c.Tokens(); len(tokens) > 0 {
				out = append(out, Marker{Row: row, Flow: flow, Slot: slot, Tokens: tokens})
			}
		}
	}
	return out
}

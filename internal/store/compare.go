package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PreviousRun returns the most recent run over the same workload and
// schedule content, or ErrRunNotFound.
func (s *Store) PreviousRun(ctx context.Context, workloadHash, scheduleHash string) (*RunRecord, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM runs
		WHERE workload_hash = ? AND schedule_hash = ?
		ORDER BY seq DESC, id COLLATE BINARY DESC
		LIMIT 1
	`, workloadHash, scheduleHash).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("previous run: %w", err)
	}
	return s.ReadRun(ctx, id)
}

// LineDiff is one report line that differs between two runs.
type LineDiff struct {
	Line int    `json:"line"`
	Want string `json:"want"`
	Got  string `json:"got"`
}

// DiffReports compares two reports line by line. A missing line compares
// as the empty string.
func DiffReports(want, got []string) []LineDiff {
	n := max(len(want), len(got))
	var diffs []LineDiff
	for i := 0; i < n; i++ {
		var w, g string
		if i < len(want) {
			w = want[i]
		}
		if i < len(got) {
			g = got[i]
		}
		if w != g {
			diffs = append(diffs, LineDiff{Line: i, Want: w, Got: g})
		}
	}
	return diffs
}

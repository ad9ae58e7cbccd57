package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/ttverify/internal/latency"
)

// ErrRunNotFound is returned when no run matches an id or prefix.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `
	id, seq, workload_name, workload_hash, schedule_hash, hyperperiod, slots,
	instances, met, misses, unknown, max_latency, tool_version, format_version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	err := row.Scan(
		&r.ID, &r.Seq, &r.WorkloadName, &r.WorkloadHash, &r.ScheduleHash, &r.Hyperperiod, &r.Slots,
		&r.Summary.Instances, &r.Summary.Met, &r.Summary.Misses, &r.Summary.Unknown, &r.Summary.MaxLatency,
		&r.ToolVersion, &r.FormatVersion,
	)
	return r, err
}

// ListRuns returns all run headers with deterministic ordering
// (seq ASC, id ASC). Returns an empty slice if the store has no runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ResolveRunID expands a unique id prefix to the full run id.
func (s *Store) ResolveRunID(ctx context.Context, prefix string) (string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM runs
		WHERE substr(id, 1, length(?)) = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
		LIMIT 2
	`, prefix, prefix)
	if err != nil {
		return "", fmt.Errorf("resolve run id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("resolve run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("resolve run id: %w", err)
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("run id prefix %q is ambiguous", prefix)
	}
}

// ReadRun returns a run with its report, outcomes and markers.
// Returns ErrRunNotFound if id does not exist.
func (s *Store) ReadRun(ctx context.Context, id string) (*RunRecord, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}

	rec := &RunRecord{Run: run}
	if rec.Report, err = s.readReport(ctx, id); err != nil {
		return nil, err
	}
	if rec.Outcomes, err = s.readOutcomes(ctx, id); err != nil {
		return nil, err
	}
	if rec.Markers, err = s.readMarkers(ctx, id); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) readReport(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT text FROM report_lines WHERE run_id = ? ORDER BY line_no ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query report: %w", err)
	}
	defer rows.Close()

	lines := []string{}
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("scan report line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report: %w", err)
	}
	return lines, nil
}

func (s *Store) readOutcomes(ctx context.Context, runID string) ([]latency.Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT flow, instance, release_slot, next_release, absolute_deadline, deadline,
		       observed, required, completion, latency, status
		FROM outcomes
		WHERE run_id = ?
		ORDER BY ord ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []latency.Outcome{}
	for rows.Next() {
		var o latency.Outcome
		var status string
		if err := rows.Scan(&o.Flow, &o.Instance, &o.Release, &o.NextRelease, &o.AbsoluteDeadline,
			&o.Deadline, &o.Observed, &o.Required, &o.Completion, &o.Latency, &status); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Status = latency.Status(status)
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}

func (s *Store) readMarkers(ctx context.Context, runID string) ([]Marker, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT flow_row, flow, slot, tokens
		FROM markers
		WHERE run_id = ?
		ORDER BY flow_row ASC, slot ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query markers: %w", err)
	}
	defer rows.Close()

	markers := []Marker{}
	for rows.Next() {
		var m Marker
		var tokens string
		if err := rows.Scan(&m.Row, &m.Flow, &m.Slot, &tokens); err != nil {
			return nil, fmt.Errorf("scan marker: %w", err)
		}
		if m.Tokens, err = unmarshalTokens(tokens); err != nil {
			return nil, err
		}
		markers = append(markers, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate markers: %w", err)
	}
	return markers, nil
}

// LastSeq returns the highest run seq in the store, or 0 when empty.
// Used to resume the logical clock across invocations.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM runs`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return seq, nil
}

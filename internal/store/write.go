package store

import (
	"context"
	"fmt"
)

// WriteRun inserts a run and everything it produced in one transaction.
// Uses ON CONFLICT DO NOTHING for idempotency - writing the same run id
// twice leaves the first write in place.
func (s *Store) WriteRun(ctx context.Context, rec RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, workload_name, workload_hash, schedule_hash, hyperperiod, slots,
		 instances, met, misses, unknown, max_latency, tool_version, format_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.Seq,
		rec.WorkloadName,
		rec.WorkloadHash,
		rec.ScheduleHash,
		rec.Hyperperiod,
		rec.Slots,
		rec.Summary.Instances,
		rec.Summary.Met,
		rec.Summary.Misses,
		rec.Summary.Unknown,
		rec.Summary.MaxLatency,
		rec.ToolVersion,
		rec.FormatVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("write run: %w", err)
	} else if n == 0 {
		// Already stored
		return nil
	}

	for i, line := range rec.Report {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO report_lines (run_id, line_no, text) VALUES (?, ?, ?)
		`, rec.ID, i, line); err != nil {
			return fmt.Errorf("write report line %d: %w", i, err)
		}
	}

	for i, o := range rec.Outcomes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO outcomes
			(run_id, ord, flow, instance, release_slot, next_release, absolute_deadline,
			 deadline, observed, required, completion, latency, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			rec.ID, i, o.Flow, o.Instance, o.Release, o.NextRelease, o.AbsoluteDeadline,
			o.Deadline, o.Observed, o.Required, o.Completion, o.Latency, string(o.Status),
		); err != nil {
			return fmt.Errorf("write outcome %s:%d: %w", o.Flow, o.Instance, err)
		}
	}

	for _, m := range rec.Markers {
		tokens, err := marshalTokens(m.Tokens)
		if err != nil {
			return fmt.Errorf("write marker %s@%d: %w", m.Flow, m.Slot, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO markers (run_id, flow_row, flow, slot, tokens) VALUES (?, ?, ?, ?, ?)
		`, rec.ID, m.Row, m.Flow, m.Slot, tokens); err != nil {
			return fmt.Errorf("write marker %s@%d: %w", m.Flow, m.Slot, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}

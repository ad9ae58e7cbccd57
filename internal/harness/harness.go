package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/ttverify/internal/engine"
	"github.com/roach88/ttverify/internal/model"
	"github.com/roach88/ttverify/internal/runid"
	"github.com/roach88/ttverify/internal/schedule"
	"github.com/roach88/ttverify/internal/store"
	"github.com/roach88/ttverify/internal/workload"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with a
// fixed run id and a fresh logical clock so results are reproducible.
//
// Execution flow:
// 1. Load the workload and schedule (files or inline)
// 2. Verify through the engine, persisting to the in-memory store
// 3. Read the run back from the store
// 4. Evaluate assertions against the stored record
func Run(scenario *Scenario) (*Result, error) {
	in, err := loadInput(scenario)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	eng := engine.New(
		engine.WithStore(st),
		engine.WithGenerator(runid.NewFixedGenerator(scenario.RunID)),
		engine.WithClock(runid.NewClock()),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
	)

	ctx := context.Background()
	verified, err := eng.Verify(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to verify: %w", err)
	}

	rec, err := st.ReadRun(ctx, verified.Record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read run back: %w", err)
	}

	result := NewResult()
	result.Record = rec
	result.Table = verified.Table
	for _, msg := range EvaluateAssertions(rec, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func loadInput(s *Scenario) (engine.Input, error) {
	var in engine.Input

	if s.Workload != "" {
		w, err := workload.Load(s.Workload)
		if err != nil {
			return in, fmt.Errorf("failed to load workload: %w", err)
		}
		in.Workload = w
	} else {
		in.Workload = workload.Document{Name: s.Name, Flows: s.Flows}.Workload()
	}

	var (
		tbl *schedule.Table
		err error
	)
	if s.Schedule != "" {
		tbl, err = schedule.LoadCSV(s.Schedule)
	} else {
		tbl, err = schedule.ReadCSV(strings.NewReader(s.Grid))
	}
	if err != nil {
		return in, fmt.Errorf("failed to load schedule: %w", err)
	}
	in.Schedule = tbl

	if in.Workload.Name == "" {
		in.Workload.Name = model.NormalizeName(s.Name)
	}
	return in, nil
}

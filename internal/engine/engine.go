package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/ttverify/internal/latency"
	"github.com/roach88/ttverify/internal/metrics"
	"github.com/roach88/ttverify/internal/model"
	"github.com/roach88/ttverify/internal/runid"
	"github.com/roach88/ttverify/internal/schedule"
	"github.com/roach88/ttverify/internal/store"
	"github.com/roach88/ttverify/internal/timing"
)

// Input is one workload paired with one schedule.
type Input struct {
	Workload *model.Workload
	Schedule *schedule.Table
}

// Result is everything one verification produced.
type Result struct {
	Record store.RunRecord
	Table  *latency.Table

	// Drift lists report lines that differ from the previous stored run
	// over the same inputs. Empty when there is no previous run.
	Drift []store.LineDiff

	// Previous is the id of the run Drift was computed against.
	Previous string
}

// Verified reports whether every instance met its deadline.
func (r *Result) Verified() bool {
	return r.Record.Summary.Verified()
}

// Engine runs verifications with shared persistence and observers.
//
// An Engine is not safe for concurrent use; callers run one verification
// at a time.
type Engine struct {
	store     *store.Store
	clock     *runid.Clock
	gen       runid.Generator
	logger    *slog.Logger
	recorder  *metrics.Recorder
	observers []latency.Observer
	separator string
	cache     bool
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithStore persists every run to st.
func WithStore(st *store.Store) EngineOption {
	return func(e *Engine) { e.store = st }
}

// WithClock sets the logical clock for run seq numbers. Without one the
// engine resumes after the store's highest seq.
func WithClock(c *runid.Clock) EngineOption {
	return func(e *Engine) { e.clock = c }
}

// WithGenerator sets the run id generator. Defaults to UUIDv7.
func WithGenerator(g runid.Generator) EngineOption {
	return func(e *Engine) { e.gen = g }
}

// WithLogger sets the logger for the engine and the analyzer.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics records outcomes and workload size on rec.
func WithMetrics(rec *metrics.Recorder) EngineOption {
	return func(e *Engine) { e.recorder = rec }
}

// WithObserver adds an outcome observer.
func WithObserver(o latency.Observer) EngineOption {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

// WithSeparator overrides the per-flow report separator.
func WithSeparator(s string) EngineOption {
	return func(e *Engine) { e.separator = s }
}

// WithDecoderCache toggles memoizing decoded instructions by content.
// Enabled by default.
func WithDecoderCache(enabled bool) EngineOption {
	return func(e *Engine) { e.cache = enabled }
}

// New creates an Engine.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		gen:       runid.UUIDv7Generator{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		separator: latency.DefaultSeparator,
		cache:     true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.recorder != nil {
		e.observers = append(e.observers, e.recorder)
	}
	return e
}

// Check runs every precondition and returns all violations at once.
func Check(in Input) []model.ValidationError {
	errs := model.Validate(in.Workload)
	if in.Schedule != nil {
		errs = append(errs, model.ValidateColumns(in.Workload, func(unit string) bool {
			_, ok := in.Schedule.ColumnOf(unit)
			return ok
		})...)
	}
	return errs
}

// Verify analyzes in and, with a store attached, persists the run.
func (e *Engine) Verify(ctx context.Context, in Input) (*Result, error) {
	if in.Workload == nil || in.Schedule == nil {
		return nil, errors.New("verify: workload and schedule are required")
	}
	if errs := Check(in); len(errs) > 0 {
		return nil, &ValidationFailed{Errors: errs}
	}

	oracle, err := timing.New(in.Workload)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}

	var dec latency.Decoder = schedule.InstructionDecoder{}
	var caching *schedule.CachingDecoder
	if e.cache {
		caching = schedule.NewCachingDecoder(schedule.InstructionDecoder{})
		dec = caching
	}

	if e.recorder != nil {
		e.recorder.SetWorkload(len(oracle.Flows()), oracle.Hyperperiod())
	}

	analyzer, err := latency.New(oracle, in.Schedule, dec,
		latency.WithLogger(e.logger),
		latency.WithObserver(fanout(e.observers)),
		latency.WithSeparator(e.separator),
	)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	if err := analyzer.Run(ctx); err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	if caching != nil {
		hits, misses := caching.Stats()
		e.logger.Debug("decoder cache", "hits", hits, "misses", misses)
	}

	rec, err := e.record(ctx, in, oracle, analyzer)
	if err != nil {
		return nil, err
	}
	res := &Result{Record: rec, Table: analyzer.LatencyTable()}

	if e.store != nil {
		if err := e.persist(ctx, res); err != nil {
			return nil, err
		}
	}

	s := rec.Summary
	e.logger.Info("verification complete",
		"run_id", rec.ID,
		"workload", rec.WorkloadName,
		"instances", s.Instances,
		"misses", s.Misses,
		"unknown", s.Unknown,
		"max_latency", s.MaxLatency)
	return res, nil
}

func (e *Engine) record(ctx context.Context, in Input, oracle *timing.Oracle, a *latency.Analyzer) (store.RunRecord, error) {
	workloadHash, err := model.WorkloadHash(in.Workload)
	if err != nil {
		return store.RunRecord{}, fmt.Errorf("verify: hash workload: %w", err)
	}
	scheduleHash, err := in.Schedule.Hash()
	if err != nil {
		return store.RunRecord{}, fmt.Errorf("verify: hash schedule: %w", err)
	}

	if e.clock == nil {
		var start int64
		if e.store != nil {
			if start, err = e.store.LastSeq(ctx); err != nil {
				return store.RunRecord{}, fmt.Errorf("verify: %w", err)
			}
		}
		e.clock = runid.NewClockAt(start)
	}

	outcomes := a.Outcomes()
	return store.RunRecord{
		Run: store.Run{
			ID:            e.gen.Generate(),
			Seq:           e.clock.Next(),
			WorkloadName:  in.Workload.Name,
			WorkloadHash:  workloadHash,
			ScheduleHash:  scheduleHash,
			Hyperperiod:   oracle.Hyperperiod(),
			Slots:         in.Schedule.Rows(),
			Summary:       latency.Summarize(outcomes),
			ToolVersion:   model.ToolVersion,
			FormatVersion: model.FormatVersion,
		},
		Report:   a.LatencyReport(),
		Outcomes: outcomes,
		Markers:  store.MarkersFromTable(a.LatencyTable()),
	}, nil
}

// persist compares against the previous run over the same inputs, then
// writes the new run.
func (e *Engine) persist(ctx context.Context, res *Result) error {
	rec := res.Record
	prev, err := e.store.PreviousRun(ctx, rec.WorkloadHash, rec.ScheduleHash)
	switch {
	case errors.Is(err, store.ErrRunNotFound):
	case err != nil:
		return fmt.Errorf("verify: %w", err)
	default:
		res.Previous = prev.ID
		res.Drift = store.DiffReports(prev.Report, rec.Report)
		if len(res.Drift) > 0 {
			e.logger.Warn("report differs from previous run over the same inputs",
				"previous", prev.ID, "lines", len(res.Drift))
		}
	}

	if err := e.store.WriteRun(ctx, rec); err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	return nil
}

type fanout []latency.Observer

func (f fanout) ObserveInstance(o latency.Outcome) {
	for _, obs := range f {
		obs.ObserveInstance(o)
	}
}

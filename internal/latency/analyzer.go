package latency

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/ttverify/internal/model"
)

// DefaultSeparator ends each flow's block of report lines.
const DefaultSeparator = "----------"

// Analyzer verifies one schedule against one workload.
//
// The analyzer exclusively owns its latency table and report; the oracle,
// schedule and decoder are only read.
type Analyzer struct {
	oracle    Oracle
	sched     Schedule
	dec       Decoder
	logger    *slog.Logger
	obs       Observer
	separator string

	flows   []string
	columns map[string]int
	decoded map[cellKey][]model.Transmission

	table    *Table
	report   []string
	outcomes []Outcome
}

type cellKey struct {
	slot, column int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger for debug tracing. Defaults to discard.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithObserver registers an observer for instance outcomes.
func WithObserver(o Observer) Option {
	return func(a *Analyzer) { a.obs = o }
}

// WithSeparator overrides the per-flow separator line.
func WithSeparator(s string) Option {
	return func(a *Analyzer) { a.separator = s }
}

// New creates an analyzer after checking the workload preconditions.
// Returns a *ModelError if any flow is malformed.
func New(oracle Oracle, sched Schedule, dec Decoder, opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		oracle:    oracle,
		sched:     sched,
		dec:       dec,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		obs:       nopObserver{},
		separator: DefaultSeparator,
		flows:     oracle.Flows(),
		columns:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.checkModel(); err != nil {
		return nil, err
	}

	if rows := sched.Rows(); rows < oracle.Hyperperiod() {
		a.logger.Warn("schedule shorter than hyperperiod; missing slots count as idle",
			"rows", rows, "hyperperiod", oracle.Hyperperiod())
	}

	a.reset()
	return a, nil
}

// checkModel enforces the preconditions the scan windows depend on.
func (a *Analyzer) checkModel() error {
	if len(a.flows) == 0 {
		return newModelError(ErrCodeNoFlows, "", "workload has no flows")
	}
	seen := make(map[string]bool, len(a.flows))
	for _, flow := range a.flows {
		if seen[flow] {
			return newModelError(ErrCodeDuplicateFlow, flow, "flow %q is declared more than once", flow)
		}
		seen[flow] = true

		path := a.oracle.Path(flow)
		if len(path) < 2 {
			return newModelError(ErrCodePathTooShort, flow,
				"path needs a source and a sink, got %d node(s)", len(path))
		}
		period := a.oracle.Period(flow)
		if period <= 0 {
			return newModelError(ErrCodeInvalidPeriod, flow, "period must be positive, got %d", period)
		}
		if d := a.oracle.Deadline(flow); d <= 0 || d > period {
			return newModelError(ErrCodeInvalidDeadline, flow,
				"deadline %d must be in (0, %d]; releases would overlap", d, period)
		}
		if ph := a.oracle.Phase(flow); ph < 0 || ph >= period {
			return newModelError(ErrCodeInvalidPhase, flow, "phase %d must be in [0, %d)", ph, period)
		}
		attempts := a.oracle.AttemptsPerLink(flow)
		if len(attempts) != len(path)-1 {
			return newModelError(ErrCodeAttemptsMismatch, flow,
				"expected %d attempt count(s), got %d", len(path)-1, len(attempts))
		}
		for _, n := range attempts {
			if n < 1 {
				return newModelError(ErrCodeAttemptsMismatch, flow, "attempt count must be at least 1, got %d", n)
			}
		}
		for _, unit := range path {
			col, ok := a.sched.ColumnOf(unit)
			if !ok {
				return newModelError(ErrCodeMissingColumn, flow, "unit %q has no schedule column", unit)
			}
			a.columns[unit] = col
		}
	}
	return nil
}

// reset discards previous results and the per-run decode cache.
func (a *Analyzer) reset() {
	a.table = newTable(a.flows, a.sched.Rows())
	a.report = nil
	a.outcomes = nil
	a.decoded = make(map[cellKey][]model.Transmission)
}

// Run builds the latency table and then the report.
// Cancellation is checked between flows.
func (a *Analyzer) Run(ctx context.Context) error {
	a.reset()
	for row, flow := range a.flows {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.annotateFlow(row, flow)
	}
	for row, flow := range a.flows {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.reportFlow(row, flow)
	}
	return nil
}

// BuildLatencyTable rebuilds the latency table from scratch.
func (a *Analyzer) BuildLatencyTable() *Table {
	a.table = newTable(a.flows, a.sched.Rows())
	for row, flow := range a.flows {
		a.annotateFlow(row, flow)
	}
	return a.table
}

// BuildLatencyReport rebuilds the report from scratch. The scanner also
// records Executing tokens in the current table while it runs.
func (a *Analyzer) BuildLatencyReport() []string {
	a.report = nil
	a.outcomes = nil
	for row, flow := range a.flows {
		a.reportFlow(row, flow)
	}
	return a.LatencyReport()
}

// LatencyTable returns the current table.
func (a *Analyzer) LatencyTable() *Table {
	return a.table
}

// LatencyReport returns a copy of the current report lines.
func (a *Analyzer) LatencyReport() []string {
	out := make([]string, len(a.report))
	copy(out, a.report)
	return out
}

// Outcomes returns the per-instance outcomes behind the current report.
func (a *Analyzer) Outcomes() []Outcome {
	out := make([]Outcome, len(a.outcomes))
	copy(out, a.outcomes)
	return out
}

// releases returns the release instants of flow inside one hyperperiod.
func (a *Analyzer) releases(flow string) []int {
	var out []int
	h := a.oracle.Hyperperiod()
	for r := a.oracle.NextRelease(flow, 0); r < h; r = a.oracle.NextRelease(flow, r+1) {
		out = append(out, r)
	}
	return out
}

// decodeCell decodes a cell once per run. Absent cells decode to nothing.
func (a *Analyzer) decodeCell(slot, column int) []model.Transmission {
	key := cellKey{slot, column}
	if recs, ok := a.decoded[key]; ok {
		return recs
	}
	var recs []model.Transmission
	if content, ok := a.sched.Get(slot, column); ok {
		recs = a.dec.Decode(content)
	}
	a.decoded[key] = recs
	return recs
}

package latency

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ttverify/internal/model"
	"github.com/roach88/ttverify/internal/schedule"
	"github.com/roach88/ttverify/internal/testutil"
	"github.com/roach88/ttverify/internal/timing"
)

// newAnalyzer wires the real oracle, table and decoder around w and g.
func newAnalyzer(t *testing.T, w *model.Workload, g *testutil.Grid, opts ...Option) *Analyzer {
	t.Helper()
	oracle, err := timing.New(w)
	require.NoError(t, err)
	a, err := New(oracle, g.Table(), schedule.InstructionDecoder{}, opts...)
	require.NoError(t, err)
	return a
}

func run(t *testing.T, a *Analyzer) {
	t.Helper()
	require.NoError(t, a.Run(context.Background()))
}

func TestScenarioA_LatencyReported(t *testing.T) {
	w := testutil.Workload(testutil.Flow("F", 10, []int{1}, "N1", "N2"))
	g := testutil.NewGrid(10, "N1", "N2").Push(3, "F", "N1", "N2")

	a := newAnalyzer(t, w, g)
	run(t, a)

	assert.Equal(t, []string{"Maximum latency for F:0 is 4", DefaultSeparator}, a.LatencyReport())

	outcomes := a.Outcomes()
	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusMet, outcomes[0].Status)
	assert.Equal(t, 3, outcomes[0].Completion)
	assert.Equal(t, 10, outcomes[0].NextRelease)
}

func TestScenarioB_NoTransmissions(t *testing.T) {
	w := testutil.Workload(testutil.Flow("F", 10, []int{1}, "N1", "N2"))
	g := testutil.NewGrid(10, "N1", "N2")

	a := newAnalyzer(t, w, g)
	run(t, a)

	assert.Equal(t, []string{
		"UNKNOWN latency for F:0 with deadline 10; Not enough transmissions attempted",
		DefaultSeparator,
	}, a.LatencyReport())
	assert.Equal(t, -1, a.Outcomes()[0].Completion)
}

func TestScenarioC_NotEnoughMatchingAttempts(t *testing.T) {
	w := testutil.Workload(
		testutil.Flow("F", 10, []int{2}, "N1", "N2"),
		testutil.Flow("G", 10, []int{1}, "N2", "N1"),
	)
	g := testutil.NewGrid(10, "N1", "N2").
		Push(3, "F", "N1", "N2").
		Push(4, "G", "N2", "N1").
		Push(5, "G", "N2", "N1").
		Put(6, "N2", "push(F: N2->N1, #6)")

	a := newAnalyzer(t, w, g)
	run(t, a)

	report := a.LatencyReport()
	assert.Equal(t, "UNKNOWN latency for F:0 with deadline 10; Not enough transmissions attempted", report[0])

	o := a.Outcomes()[0]
	assert.Equal(t, 1, o.Observed)
	assert.Equal(t, 2, o.Required)
	assert.Equal(t, StatusUnknown, o.Status)

	// The reversed-link instruction still counts as activity.
	assert.True(t, a.LatencyTable().Has("F", 6, Executing))
	assert.False(t, a.LatencyTable().Has("F", 4, Executing))
}

func TestScenarioD_DeadlineMiss(t *testing.T) {
	f := testutil.Flow("F", 20, []int{1}, "N1", "N2")
	f.Deadline = 10
	w := testutil.Workload(f)
	g := testutil.NewGrid(20, "N1", "N2").Push(11, "F", "N1", "N2")

	a := newAnalyzer(t, w, g)
	run(t, a)

	assert.Equal(t, "Maximum latency for F:0 is 12 => DEADLINE MISS", a.LatencyReport()[0])
	assert.Equal(t, StatusMiss, a.Outcomes()[0].Status)
}

func TestLatencyAtDeadlineIsNotAMiss(t *testing.T) {
	f := testutil.Flow("F", 20, []int{1}, "N1", "N2")
	f.Deadline = 10
	w := testutil.Workload(f)
	g := testutil.NewGrid(20, "N1", "N2").Push(9, "F", "N1", "N2")

	a := newAnalyzer(t, w, g)
	run(t, a)

	assert.Equal(t, "Maximum latency for F:0 is 10", a.LatencyReport()[0])
	assert.True(t, a.LatencyTable().Has("F", 10, Deadline))
	assert.True(t, a.LatencyTable().Has("F", 9, Complete))
}

func TestMultiHopFlow_CountsOnlyFinalLink(t *testing.T) {
	w := testutil.Workload(testutil.Flow("F", 10, []int{1, 2}, "A", "B", "C"))
	g := testutil.NewGrid(10, "A", "B", "C").
		Push(1, "F", "A", "B").
		Push(2, "F", "B", "C").
		Push(4, "F", "B", "C")

	a := newAnalyzer(t, w, g)
	run(t, a)

	assert.Equal(t, "Maximum latency for F:0 is 5", a.LatencyReport()[0])

	tbl := a.LatencyTable()
	assert.Equal(t, []int{1, 2, 4}, tbl.SlotsWith("F", Executing))
	assert.Equal(t, []int{4}, tbl.SlotsWith("F", Complete))
}

func TestMultipleInstances(t *testing.T) {
	w := testutil.Workload(
		testutil.Flow("F", 5, []int{1}, "A", "B"),
		testutil.Flow("G", 10, []int{1}, "B", "A"),
	)
	g := testutil.NewGrid(10, "A", "B").
		Push(1, "F", "A", "B").
		Push(7, "F", "A", "B").
		Push(2, "G", "B", "A")

	a := newAnalyzer(t, w, g)
	run(t, a)

	assert.Equal(t, []string{
		"Maximum latency for F:0 is 2",
		"Maximum latency for F:1 is 3",
		DefaultSeparator,
		"Maximum latency for G:0 is 3",
		DefaultSeparator,
	}, a.LatencyReport())

	tbl := a.LatencyTable()
	assert.Equal(t, []int{0, 5}, tbl.SlotsWith("F", Release))
	assert.Equal(t, []int{5}, tbl.SlotsWith("F", Deadline), "second deadline at 10 is past the table")
	assert.Equal(t, []int{1, 7}, tbl.SlotsWith("F", Complete))
}

func TestInstanceWithoutEnoughAttemptsDoesNotBorrowFromNextWindow(t *testing.T) {
	w := testutil.Workload(
		testutil.Flow("F", 5, []int{2}, "A", "B"),
		testutil.Flow("G", 10, []int{1}, "A", "B"),
	)
	g := testutil.NewGrid(10, "A", "B").
		Push(4, "F", "A", "B").
		Push(5, "F", "A", "B").
		Push(6, "F", "A", "B").
		Push(0, "G", "A", "B")

	a := newAnalyzer(t, w, g)
	run(t, a)

	report := a.LatencyReport()
	assert.Equal(t, "UNKNOWN latency for F:0 with deadline 5; Not enough transmissions attempted", report[0])
	assert.Equal(t, "Maximum latency for F:1 is 2", report[1])
}

func TestPhasedFlow(t *testing.T) {
	f := testutil.Flow("P", 10, []int{1}, "A", "B")
	f.Phase = 3
	f.Deadline = 5
	w := testutil.Workload(f)
	g := testutil.NewGrid(10, "A", "B").Push(6, "P", "A", "B")

	a := newAnalyzer(t, w, g)
	run(t, a)

	assert.Equal(t, "Maximum latency for P:0 is 4", a.LatencyReport()[0])
	tbl := a.LatencyTable()
	assert.Equal(t, []int{3}, tbl.SlotsWith("P", Release))
	assert.Equal(t, []int{8}, tbl.SlotsWith("P", Deadline))
}

func TestPhasedFlow_LastWindowDoesNotWrapAround(t *testing.T) {
	f := testutil.Flow("P", 10, []int{1}, "A", "B")
	f.Phase = 3
	w := testutil.Workload(f)
	// Slot 1 precedes the first release; the window [3, 13) is clipped at 10.
	g := testutil.NewGrid(10, "A", "B").Push(1, "P", "A", "B")

	a := newAnalyzer(t, w, g)
	run(t, a)

	o := a.Outcomes()[0]
	assert.Equal(t, StatusUnknown, o.Status)
	assert.Zero(t, o.Observed)
	assert.Contains(t, a.LatencyReport()[0], "UNKNOWN latency for P:0")

	tbl := a.LatencyTable()
	assert.True(t, tbl.Has("P", 1, Executing))
	assert.False(t, tbl.Has("P", 1, Complete))
	assert.Empty(t, tbl.SlotsWith("P", Deadline), "deadline slot 13 is past the table")
}

func TestSinkColumnRecordsCount(t *testing.T) {
	w := testutil.Workload(testutil.Flow("F", 10, []int{2}, "A", "B"))
	g := testutil.NewGrid(10, "A", "B").
		Put(2, "B", "pull(F: A->B, #1)").
		Put(5, "A", "push(F: A->B, #1)").
		Put(5, "B", "pull(F: A->B, #1)")

	a := newAnalyzer(t, w, g)
	run(t, a)

	// The pull at the sink counts; slot 5 carries two matching records.
	o := a.Outcomes()[0]
	assert.Equal(t, 3, o.Observed)
	assert.Equal(t, 5, o.Completion)
	assert.Equal(t, "Maximum latency for F:0 is 6", a.LatencyReport()[0])
}

func TestRecordsOutsidePathColumnsAreIgnoredByScanner(t *testing.T) {
	w := testutil.Workload(testutil.Flow("F", 10, []int{1}, "A", "B"))
	g := testutil.NewGrid(10, "A", "B", "Z").Put(2, "Z", "push(F: A->B, #1)")

	a := newAnalyzer(t, w, g)
	run(t, a)

	assert.Equal(t, StatusUnknown, a.Outcomes()[0].Status)
	// markExecuting scans the full row, so the activity is still visible.
	assert.True(t, a.LatencyTable().Has("F", 2, Executing))
	assert.False(t, a.LatencyTable().Has("F", 2, Complete))
}

func TestScheduleShorterThanHyperperiod(t *testing.T) {
	w := testutil.Workload(testutil.Flow("F", 10, []int{1}, "A", "B"))
	g := testutil.NewGrid(4, "A", "B").Push(3, "F", "A", "B")

	a := newAnalyzer(t, w, g)
	run(t, a)

	assert.Equal(t, "Maximum latency for F:0 is 4", a.LatencyReport()[0])
	assert.Equal(t, 4, a.LatencyTable().Slots())
	assert.Empty(t, a.LatencyTable().SlotsWith("F", Deadline), "deadline slot 10 is past the table")
}

func TestTableMarkers_PassOrder(t *testing.T) {
	w := testutil.Workload(testutil.Flow("F", 5, []int{1}, "A", "B"))
	g := testutil.NewGrid(10, "A", "B").Push(0, "F", "A", "B").Push(4, "F", "A", "B")

	a := newAnalyzer(t, w, g)
	run(t, a)

	c, ok := a.LatencyTable().Cell("F", 0)
	require.True(t, ok)
	assert.Equal(t, []Token{Release, Executing, Complete}, c.Tokens())
	assert.Equal(t, "RXC", c.String())

	c, ok = a.LatencyTable().Cell("F", 4)
	require.True(t, ok)
	assert.Equal(t, "X", c.String(), "slot 4 executes but instance 0 already completed at 0")

	c, ok = a.LatencyTable().Cell("F", 5)
	require.True(t, ok)
	assert.Equal(t, "DR", c.String(), "deadline of instance 0 shares the slot with release of instance 1")
}

func TestBuildIsIdempotent(t *testing.T) {
	w := testutil.Workload(
		testutil.Flow("F", 5, []int{1}, "A", "B"),
		testutil.Flow("G", 10, []int{2}, "B", "A"),
	)
	g := testutil.NewGrid(10, "A", "B").
		Push(1, "F", "A", "B").
		Push(3, "G", "B", "A").
		Push(8, "F", "A", "B")

	a := newAnalyzer(t, w, g)

	table1 := a.BuildLatencyTable().Strings()
	report1 := a.BuildLatencyReport()
	table2 := a.BuildLatencyTable().Strings()
	report2 := a.BuildLatencyReport()

	assert.Equal(t, table1, table2)
	assert.Equal(t, report1, report2)
	assert.Equal(t, table1, a.LatencyTable().Strings(), "report pass adds no new tokens")
}

func TestCompleteMarkersSurviveRescan(t *testing.T) {
	w := testutil.Workload(testutil.Flow("F", 10, []int{1}, "A", "B"))
	g := testutil.NewGrid(10, "A", "B").Push(2, "F", "A", "B")

	a := newAnalyzer(t, w, g)
	a.BuildLatencyTable()
	require.True(t, a.LatencyTable().Has("F", 2, Complete))

	a.BuildLatencyReport()
	a.BuildLatencyReport()
	assert.True(t, a.LatencyTable().Has("F", 2, Complete))
}

func TestReportWithoutTableStillAnnotatesActivity(t *testing.T) {
	w := testutil.Workload(testutil.Flow("F", 10, []int{1}, "A", "B"))
	g := testutil.NewGrid(10, "A", "B").Push(2, "F", "A", "B")

	a := newAnalyzer(t, w, g)
	a.BuildLatencyReport()

	assert.Equal(t, []int{2}, a.LatencyTable().SlotsWith("F", Executing))
	assert.Empty(t, a.LatencyTable().SlotsWith("F", Complete))
}

func TestReportProperties(t *testing.T) {
	f := testutil.Flow("F", 4, []int{1}, "A", "B")
	f.Deadline = 2
	w := testutil.Workload(
		f,
		testutil.Flow("G", 8, []int{1, 1}, "A", "B", "C"),
		testutil.Flow("H", 16, []int{3}, "C", "A"),
	)
	g := testutil.NewGrid(16, "A", "B", "C")
	for slot := 0; slot < 16; slot += 3 {
		g.Push(slot, "F", "A", "B")
		g.Push(slot, "H", "C", "A")
	}
	g.Push(2, "G", "A", "B").Push(5, "G", "B", "C").Push(13, "G", "B", "C")

	a := newAnalyzer(t, w, g)
	run(t, a)

	oracle, err := timing.New(w)
	require.NoError(t, err)

	wantLines := 0
	for _, name := range oracle.Flows() {
		wantLines += oracle.Hyperperiod()/oracle.Period(name) + 1
	}
	assert.Len(t, a.LatencyReport(), wantLines)

	for _, o := range a.Outcomes() {
		switch o.Status {
		case StatusUnknown:
			assert.Equal(t, 0, o.Latency, o.Line())
			assert.Contains(t, o.Line(), "UNKNOWN")
		default:
			assert.Greater(t, o.Latency, 0, o.Line())
			assert.Less(t, o.Completion, o.NextRelease, o.Line())
			assert.Equal(t, o.Completion-o.Release+1, o.Latency)
			assert.Equal(t, o.Latency > o.Deadline, o.Status == StatusMiss, o.Line())
			assert.NotContains(t, o.Line(), "UNKNOWN")
		}
	}
}

func TestOutcomesMatchCompleteMarkers(t *testing.T) {
	w := testutil.Workload(testutil.Flow("F", 5, []int{2}, "A", "B"))
	g := testutil.NewGrid(10, "A", "B").
		Push(1, "F", "A", "B").
		Push(3, "F", "A", "B").
		Push(6, "F", "A", "B")

	a := newAnalyzer(t, w, g)
	run(t, a)

	var completions []int
	for _, o := range a.Outcomes() {
		if o.Status != StatusUnknown {
			completions = append(completions, o.Completion)
		}
	}
	assert.Equal(t, completions, a.LatencyTable().SlotsWith("F", Complete))
	assert.Equal(t, []int{3}, completions)
}

type recordingObserver struct {
	outcomes []Outcome
}

func (r *recordingObserver) ObserveInstance(o Outcome) {
	r.outcomes = append(r.outcomes, o)
}

func TestObserverSeesEveryInstance(t *testing.T) {
	obs := &recordingObserver{}
	w := testutil.Workload(
		testutil.Flow("F", 5, []int{1}, "A", "B"),
		testutil.Flow("G", 10, []int{1}, "A", "B"),
	)
	g := testutil.NewGrid(10, "A", "B").Push(1, "F", "A", "B")

	a := newAnalyzer(t, w, g, WithObserver(obs), WithSeparator("=="))
	run(t, a)

	require.Len(t, obs.outcomes, 3)
	assert.Equal(t, StatusMet, obs.outcomes[0].Status)
	assert.Equal(t, StatusUnknown, obs.outcomes[1].Status)
	assert.Equal(t, "G", obs.outcomes[2].Flow)
	assert.Equal(t, "==", a.LatencyReport()[2])
	assert.Equal(t, "==", a.LatencyReport()[4])
}

func TestRun_Cancelled(t *testing.T) {
	w := testutil.Workload(testutil.Flow("F", 10, []int{1}, "A", "B"))
	a := newAnalyzer(t, w, testutil.NewGrid(10, "A", "B"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, a.Run(ctx), context.Canceled)
}

func TestNew_RejectsMalformedModel(t *testing.T) {
	tests := []struct {
		name  string
		flow  model.Flow
		units []string
		code  ModelErrorCode
	}{
		{
			name:  "single node path",
			flow:  model.Flow{Name: "F", Path: []string{"A"}, Period: 10, Deadline: 10},
			units: []string{"A"},
			code:  ErrCodePathTooShort,
		},
		{
			name:  "deadline beyond period",
			flow:  model.Flow{Name: "F", Path: []string{"A", "B"}, Period: 10, Deadline: 11, Attempts: []int{1}},
			units: []string{"A", "B"},
			code:  ErrCodeInvalidDeadline,
		},
		{
			name:  "attempts per hop",
			flow:  model.Flow{Name: "F", Path: []string{"A", "B"}, Period: 10, Deadline: 10, Attempts: []int{1, 1}},
			units: []string{"A", "B"},
			code:  ErrCodeAttemptsMismatch,
		},
		{
			name:  "zero attempts",
			flow:  model.Flow{Name: "F", Path: []string{"A", "B"}, Period: 10, Deadline: 10, Attempts: []int{0}},
			units: []string{"A", "B"},
			code:  ErrCodeAttemptsMismatch,
		},
		{
			name:  "phase at period",
			flow:  model.Flow{Name: "F", Path: []string{"A", "B"}, Period: 10, Deadline: 10, Phase: 10, Attempts: []int{1}},
			units: []string{"A", "B"},
			code:  ErrCodeInvalidPhase,
		},
		{
			name:  "negative phase",
			flow:  model.Flow{Name: "F", Path: []string{"A", "B"}, Period: 10, Deadline: 10, Phase: -1, Attempts: []int{1}},
			units: []string{"A", "B"},
			code:  ErrCodeInvalidPhase,
		},
		{
			name:  "missing column",
			flow:  model.Flow{Name: "F", Path: []string{"A", "B"}, Period: 10, Deadline: 10, Attempts: []int{1}},
			units: []string{"A"},
			code:  ErrCodeMissingColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle, err := timing.New(testutil.Workload(tt.flow))
			require.NoError(t, err)

			_, err = New(oracle, testutil.NewGrid(10, tt.units...).Table(), schedule.InstructionDecoder{})
			require.Error(t, err)
			assert.True(t, IsModelError(err))

			var me *ModelError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, tt.code, me.Code)
			assert.Equal(t, "F", me.Flow)
		})
	}
}

func TestNew_RejectsDuplicateFlow(t *testing.T) {
	f := testutil.Flow("F", 10, []int{1}, "A", "B")
	oracle, err := timing.New(testutil.Workload(f, f))
	require.NoError(t, err)

	_, err = New(oracle, testutil.NewGrid(10, "A", "B").Table(), schedule.InstructionDecoder{})
	var me *ModelError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, ErrCodeDuplicateFlow, me.Code)
	assert.Equal(t, "F", me.Flow)
}

func TestNew_RejectsEmptyWorkload(t *testing.T) {
	oracle, err := timing.New(testutil.Workload())
	require.NoError(t, err)
	_, err = New(oracle, testutil.NewGrid(1, "A").Table(), schedule.InstructionDecoder{})
	assert.ErrorContains(t, err, string(ErrCodeNoFlows))
}

type countingDecoder struct {
	calls map[string]int
}

func (c *countingDecoder) Decode(content string) []model.Transmission {
	c.calls[content]++
	return schedule.InstructionDecoder{}.Decode(content)
}

func TestCellsDecodedOncePerRun(t *testing.T) {
	w := testutil.Workload(testutil.Flow("F", 10, []int{1}, "A", "B"))
	g := testutil.NewGrid(10, "A", "B").Push(3, "F", "A", "B")
	oracle, err := timing.New(w)
	require.NoError(t, err)

	dec := &countingDecoder{calls: map[string]int{}}
	a, err := New(oracle, g.Table(), dec)
	require.NoError(t, err)
	run(t, a)

	assert.Equal(t, 1, dec.calls["push(F: A->B, #3)"])
	assert.Equal(t, 1, dec.calls["wait(#3)"])
}

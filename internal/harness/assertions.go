package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/ttverify/internal/latency"
	"github.com/roach88/ttverify/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes the full report to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Report   []string // Full report for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull report:\n")
	for i, line := range e.Report {
		fmt.Fprintf(&buf, "  [%d] %s\n", i, line)
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages, in assertion order.
func EvaluateAssertions(rec *store.RunRecord, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(rec, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(rec *store.RunRecord, a Assertion) error {
	switch a.Type {
	case AssertReportLine:
		return assertReportLine(rec, a)
	case AssertLatency:
		return assertStatus(rec, a, func(o latency.Outcome) bool {
			return o.Status != latency.StatusUnknown && o.Latency == a.Value
		}, fmt.Sprintf("latency %d", a.Value))
	case AssertUnknown:
		return assertStatus(rec, a, func(o latency.Outcome) bool {
			return o.Status == latency.StatusUnknown
		}, "UNKNOWN latency")
	case AssertDeadlineMiss:
		return assertStatus(rec, a, func(o latency.Outcome) bool {
			return o.Status == latency.StatusMiss
		}, "deadline miss")
	case AssertMarker:
		return assertMarker(rec, a)
	case AssertLineCount:
		if len(rec.Report) != *a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d report lines", *a.Count),
				Actual:   fmt.Sprintf("%d report lines", len(rec.Report)),
				Report:   rec.Report,
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertReportLine matches Text at Line, or anywhere when Line is unset.
func assertReportLine(rec *store.RunRecord, a Assertion) error {
	if a.Line != nil {
		i := *a.Line
		if i >= 0 && i < len(rec.Report) && rec.Report[i] == a.Text {
			return nil
		}
		actual := "no such line"
		if i >= 0 && i < len(rec.Report) {
			actual = rec.Report[i]
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("line %d = %q", i, a.Text),
			Actual:   actual,
			Report:   rec.Report,
		}
	}

	if slices.Contains(rec.Report, a.Text) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("line %q", a.Text),
		Actual:   "not found in report",
		Report:   rec.Report,
	}
}

func assertStatus(rec *store.RunRecord, a Assertion, ok func(latency.Outcome) bool, want string) error {
	o, found := findOutcome(rec, a.Flow, a.Instance)
	if !found {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s:%d with %s", a.Flow, a.Instance, want),
			Actual:   "no such instance",
			Report:   rec.Report,
		}
	}
	if ok(o) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s:%d with %s", a.Flow, a.Instance, want),
		Actual:   o.Line(),
		Report:   rec.Report,
	}
}

func findOutcome(rec *store.RunRecord, flow string, instance int) (latency.Outcome, bool) {
	for _, o := range rec.Outcomes {
		if o.Flow == flow && o.Instance == instance {
			return o, true
		}
	}
	return latency.Outcome{}, false
}

// assertMarker checks that every listed token is present (subset match).
func assertMarker(rec *store.RunRecord, a Assertion) error {
	want := make([]latency.Token, 0, len(a.Tokens))
	for _, name := range a.Tokens {
		tok, err := latency.ParseToken(name)
		if err != nil {
			return fmt.Errorf("marker assertion: %w", err)
		}
		want = append(want, tok)
	}

	var have []latency.Token
	for _, m := range rec.Markers {
		if m.Flow == a.Flow && m.Slot == *a.Slot {
			have = m.Tokens
			break
		}
	}

	for _, tok := range want {
		if !slices.Contains(have, tok) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s@%d carries %s", a.Flow, *a.Slot, strings.Join(a.Tokens, ", ")),
				Actual:   fmt.Sprintf("tokens %s", tokenNames(have)),
				Report:   rec.Report,
			}
		}
	}
	return nil
}

func tokenNames(tokens []latency.Token) string {
	if len(tokens) == 0 {
		return "(none)"
	}
	names := make([]string, len(tokens))
	for i, tok := range tokens {
		names[i] = tok.String()
	}
	return strings.Join(names, ", ")
}

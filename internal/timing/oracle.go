// Package timing answers release, deadline and hyperperiod questions for a
// periodic workload.
package timing

import (
	"fmt"
	"slices"

	"github.com/roach88/ttverify/internal/model"
)

// MaxHyperperiod bounds the analysis window. Workloads with pairwise
// co-prime periods blow up the LCM quickly; anything past this is rejected
// rather than scanned.
const MaxHyperperiod = 1 << 24

// Oracle computes timing facts for the flows of one workload.
// It is immutable after construction and safe for concurrent reads.
type Oracle struct {
	flows       map[string]model.Flow
	order       []string
	hyperperiod int
}

// New builds an oracle for w. Flows are ordered by priority with
// declaration order breaking ties.
func New(w *model.Workload) (*Oracle, error) {
	o := &Oracle{
		flows:       make(map[string]model.Flow, len(w.Flows)),
		hyperperiod: 1,
	}
	for _, f := range w.Ordered() {
		if f.Period <= 0 {
			return nil, fmt.Errorf("flow %s: period must be positive, got %d", f.Name, f.Period)
		}
		o.flows[f.Name] = f
		o.order = append(o.order, f.Name)

		h, ok := lcmWithin(o.hyperperiod, f.Period, MaxHyperperiod)
		if !ok {
			return nil, fmt.Errorf("hyperperiod exceeds %d slots at flow %s", MaxHyperperiod, f.Name)
		}
		o.hyperperiod = h
	}
	return o, nil
}

// Flows returns flow names in analysis order.
func (o *Oracle) Flows() []string {
	return slices.Clone(o.order)
}

// Hyperperiod returns the least common multiple of all flow periods.
func (o *Oracle) Hyperperiod() int {
	return o.hyperperiod
}

// NextRelease returns the first release of flow at or after t.
func (o *Oracle) NextRelease(flow string, t int) int {
	f := o.flows[flow]
	if f.Period <= 0 {
		return t
	}
	if t <= f.Phase {
		return f.Phase
	}
	k := (t - f.Phase + f.Period - 1) / f.Period
	return f.Phase + k*f.Period
}

// NextAbsoluteDeadline returns the absolute deadline of the release at or
// after t. The deadline is exclusive: an instance meets it when it
// completes in a slot strictly before the returned value.
func (o *Oracle) NextAbsoluteDeadline(flow string, t int) int {
	return o.NextRelease(flow, t) + o.flows[flow].Deadline
}

// Releases returns every release instant of flow inside one hyperperiod.
func (o *Oracle) Releases(flow string) []int {
	var out []int
	for r := o.NextRelease(flow, 0); r < o.hyperperiod; r = o.NextRelease(flow, r+1) {
		out = append(out, r)
	}
	return out
}

func (o *Oracle) Path(flow string) []string {
	return slices.Clone(o.flows[flow].Path)
}

func (o *Oracle) AttemptsPerLink(flow string) []int {
	return slices.Clone(o.flows[flow].Attempts)
}

func (o *Oracle) TotalAttempts(flow string) int {
	return o.flows[flow].TotalAttempts()
}

func (o *Oracle) Period(flow string) int {
	return o.flows[flow].Period
}

func (o *Oracle) Deadline(flow string) int {
	return o.flows[flow].Deadline
}

func (o *Oracle) Phase(flow string) int {
	return o.flows[flow].Phase
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// lcmWithin returns lcm(a, b) when it does not exceed limit. The bound is
// checked before multiplying so huge periods cannot wrap around.
func lcmWithin(a, b, limit int) (int, bool) {
	q := a / gcd(a, b)
	if b > limit/q {
		return 0, false
	}
	return q * b, true
}

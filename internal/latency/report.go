package latency

import "fmt"

// Status classifies one release instance.
type Status string

const (
	StatusMet     Status = "met"
	StatusMiss    Status = "miss"
	StatusUnknown Status = "unknown"
)

// Outcome is the verdict for one release instance.
type Outcome struct {
	Flow             string `json:"flow"`
	Instance         int    `json:"instance"`
	Release          int    `json:"release"`
	NextRelease      int    `json:"next_release"`
	AbsoluteDeadline int    `json:"absolute_deadline"`
	Deadline         int    `json:"deadline"` // relative to Release
	Observed         int    `json:"observed"`
	Required         int    `json:"required"`
	Completion       int    `json:"completion"` // -1 when unknown
	Latency          int    `json:"latency"`    // 0 when unknown
	Status           Status `json:"status"`
}

// Line renders the outcome as a report line.
func (o Outcome) Line() string {
	if o.Status == StatusUnknown {
		return fmt.Sprintf("UNKNOWN latency for %s:%d with deadline %d; Not enough transmissions attempted",
			o.Flow, o.Instance, o.Deadline)
	}
	line := fmt.Sprintf("Maximum latency for %s:%d is %d", o.Flow, o.Instance, o.Latency)
	if o.Status == StatusMiss {
		line += " => DEADLINE MISS"
	}
	return line
}

// reportFlow emits one line per release instance of flow, then the
// separator.
func (a *Analyzer) reportFlow(row int, flow string) {
	for k, r := range a.releases(flow) {
		abs := a.oracle.NextAbsoluteDeadline(flow, r)
		s := a.scanInstance(row, flow, r)

		o := Outcome{
			Flow:             flow,
			Instance:         k,
			Release:          r,
			NextRelease:      s.next,
			AbsoluteDeadline: abs,
			Deadline:         abs - r,
			Observed:         s.observed,
			Required:         s.required,
			Completion:       -1,
			Status:           StatusUnknown,
		}
		if s.complete() {
			o.Completion = s.completion
			o.Latency = s.completion - r + 1
			o.Status = StatusMet
			if o.Latency > o.Deadline {
				o.Status = StatusMiss
			}
		}

		a.report = append(a.report, o.Line())
		a.outcomes = append(a.outcomes, o)
		a.obs.ObserveInstance(o)
		a.logger.Debug("instance analyzed",
			"flow", flow,
			"instance", k,
			"release", r,
			"observed", o.Observed,
			"required", o.Required,
			"status", string(o.Status))
	}
	a.report = append(a.report, a.separator)
}

// Summary aggregates outcomes.
type Summary struct {
	Instances  int `json:"instances"`
	Met        int `json:"met"`
	Misses     int `json:"misses"`
	Unknown    int `json:"unknown"`
	MaxLatency int `json:"max_latency"`
}

// Summarize counts outcomes by status.
func Summarize(outcomes []Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		s.Instances++
		switch o.Status {
		case StatusMet:
			s.Met++
		case StatusMiss:
			s.Misses++
		case StatusUnknown:
			s.Unknown++
		}
		if o.Latency > s.MaxLatency {
			s.MaxLatency = o.Latency
		}
	}
	return s
}

// Verified reports whether every instance met its deadline.
func (s Summary) Verified() bool {
	return s.Misses == 0 && s.Unknown == 0
}

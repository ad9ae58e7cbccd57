package latency

import "github.com/roach88/ttverify/internal/model"

// Oracle answers timing questions about the workload.
type Oracle interface {
	Flows() []string
	Hyperperiod() int
	NextRelease(flow string, t int) int
	NextAbsoluteDeadline(flow string, t int) int
	Path(flow string) []string
	AttemptsPerLink(flow string) []int
	TotalAttempts(flow string) int
	Period(flow string) int
	Deadline(flow string) int
	Phase(flow string) int
}

// Schedule is the read-only grid being verified.
type Schedule interface {
	Get(slot, column int) (string, bool)
	Rows() int
	Columns() int
	ColumnOf(unit string) (int, bool)
}

// Decoder turns one encoded cell into transmission records.
// Absent or undecodable content must yield no records.
type Decoder interface {
	Decode(content string) []model.Transmission
}

// Observer receives every instance outcome as the report is built.
type Observer interface {
	ObserveInstance(o Outcome)
}

type nopObserver struct{}

func (nopObserver) ObserveInstance(Outcome) {}

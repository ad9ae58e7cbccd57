package latency

import "github.com/roach88/ttverify/internal/model"

// instanceScan is what the scanner observed for one release instance.
type instanceScan struct {
	release    int
	next       int // next release; the window is [release, next)
	required   int // attempts needed on the final link
	observed   int // matching attempts seen in the window
	completion int // first slot where observed reached required, or -1
}

func (s instanceScan) complete() bool {
	return s.observed >= s.required
}

// scanInstance walks the window of one release instance. It counts
// attempts on the final link at the link's source and sink columns and
// marks every slot where either cell names the flow as Executing.
func (a *Analyzer) scanInstance(row int, flow string, release int) instanceScan {
	path := a.oracle.Path(flow)
	attempts := a.oracle.AttemptsPerLink(flow)
	final := model.Link{Src: path[len(path)-2], Sink: path[len(path)-1]}

	s := instanceScan{
		release:    release,
		next:       a.oracle.NextRelease(flow, release+1),
		required:   attempts[len(attempts)-1],
		completion: -1,
	}
	columns := [2]int{a.columns[final.Src], a.columns[final.Sink]}

	for t := s.release; t < s.next; t++ {
		named := false
		for _, col := range columns {
			for _, rec := range a.decodeCell(t, col) {
				if rec.Flow == flow {
					named = true
				}
				if rec.Matches(flow, final) {
					s.observed++
				}
			}
		}
		if named {
			a.table.mark(row, t, Executing)
		}
		if s.completion < 0 && s.complete() {
			s.completion = t
		}
	}
	return s
}

// annotateFlow runs the four table passes for one flow.
func (a *Analyzer) annotateFlow(row int, flow string) {
	slots := a.sched.Rows()
	releases := a.releases(flow)

	for _, r := range releases {
		a.markDeadline(row, flow, r)
	}
	for t := 0; t < slots; t++ {
		a.markRelease(row, flow, t)
	}
	for t := 0; t < slots; t++ {
		a.markExecuting(row, flow, t)
	}
	for _, r := range releases {
		a.markComplete(row, a.scanInstance(row, flow, r))
	}
}

// markRelease records Release at t when t is a release instant.
func (a *Analyzer) markRelease(row int, flow string, t int) {
	if a.oracle.NextRelease(flow, t) == t {
		a.table.mark(row, t, Release)
	}
}

// markDeadline records Deadline at the absolute deadline of the instance
// released at t. Only release instants qualify.
func (a *Analyzer) markDeadline(row int, flow string, t int) {
	if a.oracle.NextRelease(flow, t) != t {
		return
	}
	a.table.mark(row, a.oracle.NextAbsoluteDeadline(flow, t), Deadline)
}

// markExecuting records Executing at t if any column of row t names flow.
func (a *Analyzer) markExecuting(row int, flow string, t int) {
	for col := 0; col < a.sched.Columns(); col++ {
		for _, rec := range a.decodeCell(t, col) {
			if rec.Flow == flow {
				a.table.mark(row, t, Executing)
				return
			}
		}
	}
}

// markComplete records Complete at the instance's completion slot, provided
// the slot already shows the flow executing.
func (a *Analyzer) markComplete(row int, s instanceScan) {
	if s.completion < 0 {
		return
	}
	if row < len(a.table.cells) && s.completion < len(a.table.cells[row]) &&
		a.table.cells[row][s.completion].Has(Executing) {
		a.table.mark(row, s.completion, Complete)
	}
}

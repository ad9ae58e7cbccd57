package model

import "golang.org/x/text/unicode/norm"

// Flow is a named periodic communication path across execution units.
type Flow struct {
	Name     string   `json:"name"`
	Path     []string `json:"path"`     // source to sink
	Period   int      `json:"period"`   // slots between releases
	Deadline int      `json:"deadline"` // relative, in slots
	Phase    int      `json:"phase"`    // offset of the first release
	Priority int      `json:"priority"` // lower runs first
	Attempts []int    `json:"attempts"` // required attempts, one per hop
}

// Link is one hop of a flow's path.
type Link struct {
	Src  string `json:"src"`
	Sink string `json:"sink"`
}

// Links returns the hops of the flow's path in order.
func (f Flow) Links() []Link {
	if len(f.Path) < 2 {
		return nil
	}
	links := make([]Link, 0, len(f.Path)-1)
	for i := 0; i+1 < len(f.Path); i++ {
		links = append(links, Link{Src: f.Path[i], Sink: f.Path[i+1]})
	}
	return links
}

// FinalLink returns the last hop of the path, ending at the flow's sink.
// The boolean is false for paths shorter than two nodes.
func (f Flow) FinalLink() (Link, bool) {
	n := len(f.Path)
	if n < 2 {
		return Link{}, false
	}
	return Link{Src: f.Path[n-2], Sink: f.Path[n-1]}, true
}

// FinalAttempts returns the attempt requirement of the final link.
func (f Flow) FinalAttempts() int {
	if len(f.Attempts) == 0 {
		return 0
	}
	return f.Attempts[len(f.Attempts)-1]
}

// TotalAttempts returns the attempt requirement summed over all links.
func (f Flow) TotalAttempts() int {
	total := 0
	for _, a := range f.Attempts {
		total += a
	}
	return total
}

// Workload is an ordered set of flows analyzed together.
type Workload struct {
	Name  string `json:"name"`
	Flows []Flow `json:"flows"`
}

// Flow looks up a flow by name.
func (w *Workload) Flow(name string) (Flow, bool) {
	for _, f := range w.Flows {
		if f.Name == name {
			return f, true
		}
	}
	return Flow{}, false
}

// Normalize NFC-normalizes every flow and unit name in place.
func (w *Workload) Normalize() {
	w.Name = NormalizeName(w.Name)
	for i := range w.Flows {
		w.Flows[i].Name = NormalizeName(w.Flows[i].Name)
		for j := range w.Flows[i].Path {
			w.Flows[i].Path[j] = NormalizeName(w.Flows[i].Path[j])
		}
	}
}

// Transmission is one scheduled transmission attempt decoded from a cell.
type Transmission struct {
	Flow string `json:"flow"`
	Src  string `json:"src"`
	Sink string `json:"sink"`
}

// Matches reports whether the transmission carries flow over link.
func (t Transmission) Matches(flow string, link Link) bool {
	return t.Flow == flow && t.Src == link.Src && t.Sink == link.Sink
}

// NormalizeName returns the NFC form of a flow or unit identifier.
func NormalizeName(s string) string {
	return norm.NFC.String(s)
}

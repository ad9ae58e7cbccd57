package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/roach88/ttverify/internal/latency"
	"github.com/roach88/ttverify/internal/store"
)

// emptyCell marks a slot without tokens.
const emptyCell = "."

// renderGrid writes one row per flow and one column per slot.
func renderGrid(w io.Writer, flows []string, slots int, cell func(row, slot int) string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	header := []string{"flow"}
	for slot := 0; slot < slots; slot++ {
		header = append(header, strconv.Itoa(slot))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for row, flow := range flows {
		fields := []string{flow}
		for slot := 0; slot < slots; slot++ {
			c := cell(row, slot)
			if c == "" {
				c = emptyCell
			}
			fields = append(fields, c)
		}
		fmt.Fprintln(tw, strings.Join(fields, "\t"))
	}
	return tw.Flush()
}

// renderTable writes an analyzer's latency table.
func renderTable(w io.Writer, tbl *latency.Table) error {
	cells := tbl.Strings()
	return renderGrid(w, tbl.Flows(), tbl.Slots(), func(row, slot int) string {
		return cells[row][slot]
	})
}

// renderMarkers rebuilds the latency table of a stored run.
func renderMarkers(w io.Writer, rec *store.RunRecord) error {
	var flows []string
	seen := make(map[string]bool)
	for _, o := range rec.Outcomes {
		if !seen[o.Flow] {
			seen[o.Flow] = true
			flows = append(flows, o.Flow)
		}
	}

	type key struct {
		flow string
		slot int
	}
	cells := make(map[key]string, len(rec.Markers))
	for _, m := range rec.Markers {
		var b strings.Builder
		for _, tok := range m.Tokens {
			b.WriteString(tok.Symbol())
		}
		cells[key{m.Flow, m.Slot}] = b.String()
	}

	return renderGrid(w, flows, rec.Slots, func(row, slot int) string {
		return cells[key{flows[row], slot}]
	})
}

// renderRuns writes the run history as an aligned table.
func renderRuns(w io.Writer, runs []store.Run) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tRUN\tWORKLOAD\tINSTANCES\tMISSES\tUNKNOWN\tMAX")
	for _, r := range runs {
		s := r.Summary
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.Seq, shortID(r.ID), r.WorkloadName, s.Instances, s.Misses, s.Unknown, s.MaxLatency)
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 13 {
		return id[:13]
	}
	return id
}

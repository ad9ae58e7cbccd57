// Package testutil provides deterministic fixtures for ttverify tests.
package testutil

import (
	"fmt"
	"strings"

	"github.com/roach88/ttverify/internal/model"
	"github.com/roach88/ttverify/internal/schedule"
)

// Grid builds schedule tables cell by cell.
//
//	g := testutil.NewGrid(10, "N1", "N2")
//	g.Push(3, "F", "N1", "N2")
//	tbl := g.Table()
type Grid struct {
	units []string
	index map[string]int
	cells [][]string
}

// NewGrid creates an empty grid with slots rows and one column per unit.
func NewGrid(slots int, units ...string) *Grid {
	g := &Grid{
		units: units,
		index: make(map[string]int, len(units)),
		cells: make([][]string, slots),
	}
	for i, u := range units {
		g.index[u] = i
	}
	for i := range g.cells {
		g.cells[i] = make([]string, len(units))
	}
	return g
}

// Put appends an instruction to the cell of unit at slot.
func (g *Grid) Put(slot int, unit, instruction string) *Grid {
	col, ok := g.index[unit]
	if !ok {
		panic(fmt.Sprintf("testutil.Grid: unknown unit %q", unit))
	}
	if cur := g.cells[slot][col]; cur != "" {
		g.cells[slot][col] = cur + "; " + instruction
	} else {
		g.cells[slot][col] = instruction
	}
	return g
}

// Push schedules one transmission of flow from src to sink, written in the
// source's column with a matching wait at the sink.
func (g *Grid) Push(slot int, flow, src, sink string) *Grid {
	g.Put(slot, src, fmt.Sprintf("push(%s: %s->%s, #%d)", flow, src, sink, slot%16))
	g.Put(slot, sink, fmt.Sprintf("wait(#%d)", slot%16))
	return g
}

// Table converts the grid into a schedule table.
func (g *Grid) Table() *schedule.Table {
	tbl, err := schedule.NewTable(g.units, g.cells)
	if err != nil {
		panic(fmt.Sprintf("testutil.Grid: %v", err))
	}
	return tbl
}

// CSV renders the grid in the schedule CSV format.
func (g *Grid) CSV() string {
	var b strings.Builder
	b.WriteString("time," + strings.Join(g.units, ",") + "\n")
	for slot, row := range g.cells {
		fmt.Fprintf(&b, "%d", slot)
		for _, cell := range row {
			b.WriteString(`,"` + strings.ReplaceAll(cell, `"`, `""`) + `"`)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Flow builds a flow whose deadline equals its period.
func Flow(name string, period int, attempts []int, path ...string) model.Flow {
	return model.Flow{
		Name:     name,
		Path:     path,
		Period:   period,
		Deadline: period,
		Attempts: attempts,
	}
}

// Workload wraps flows in a named workload.
func Workload(flows ...model.Flow) *model.Workload {
	return &model.Workload{Name: "test", Flows: flows}
}

package schedule

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/roach88/ttverify/internal/model"
)

// Table is a read-only grid of time slots by execution-unit columns.
type Table struct {
	units []string
	index map[string]int
	cells [][]string
}

// NewTable builds a table from unit names and per-slot rows.
// Every row must have exactly one cell per unit.
func NewTable(units []string, cells [][]string) (*Table, error) {
	t := &Table{
		units: make([]string, len(units)),
		index: make(map[string]int, len(units)),
		cells: make([][]string, len(cells)),
	}
	for i, u := range units {
		u = model.NormalizeName(strings.TrimSpace(u))
		if u == "" {
			return nil, fmt.Errorf("column %d: unit name is required", i)
		}
		if _, dup := t.index[u]; dup {
			return nil, fmt.Errorf("column %d: duplicate unit %q", i, u)
		}
		t.units[i] = u
		t.index[u] = i
	}
	for slot, row := range cells {
		if len(row) != len(units) {
			return nil, fmt.Errorf("slot %d: expected %d cells, got %d", slot, len(units), len(row))
		}
		t.cells[slot] = slices.Clone(row)
	}
	return t, nil
}

// Get returns the encoded content of a cell. The boolean is false for
// out-of-range coordinates and blank cells.
func (t *Table) Get(slot, column int) (string, bool) {
	if slot < 0 || slot >= len(t.cells) || column < 0 || column >= len(t.units) {
		return "", false
	}
	content := strings.TrimSpace(t.cells[slot][column])
	if content == "" {
		return "", false
	}
	return content, true
}

// Rows returns the number of time slots.
func (t *Table) Rows() int {
	return len(t.cells)
}

// Columns returns the number of execution units.
func (t *Table) Columns() int {
	return len(t.units)
}

// ColumnOf returns the column index of an execution unit.
func (t *Table) ColumnOf(unit string) (int, bool) {
	i, ok := t.index[unit]
	return i, ok
}

// Units returns the unit names in column order.
func (t *Table) Units() []string {
	return slices.Clone(t.units)
}

// Hash returns the content hash of the table.
func (t *Table) Hash() (string, error) {
	return model.ScheduleHash(t.units, t.cells)
}

// LoadCSV reads a schedule table from a CSV file.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schedule: %w", err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ReadCSV parses a schedule table from CSV content.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("schedule is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	skip := 0
	if len(header) > 0 && isTimeColumn(header[0]) {
		skip = 1
	}
	units := header[skip:]

	var cells [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read slot %d: %w", len(cells), err)
		}
		cells = append(cells, record[skip:])
	}

	return NewTable(units, cells)
}

func isTimeColumn(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "time", "slot":
		return true
	}
	return false
}

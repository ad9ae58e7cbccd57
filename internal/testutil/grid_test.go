package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ttverify/internal/schedule"
)

func TestGrid_Push(t *testing.T) {
	tbl := NewGrid(4, "A", "B").Push(2, "F0", "A", "B").Table()

	content, ok := tbl.Get(2, 0)
	require.True(t, ok)
	assert.Equal(t, "push(F0: A->B, #2)", content)

	content, ok = tbl.Get(2, 1)
	require.True(t, ok)
	assert.Equal(t, "wait(#2)", content)

	_, ok = tbl.Get(1, 0)
	assert.False(t, ok)
}

func TestGrid_PutAppends(t *testing.T) {
	tbl := NewGrid(1, "A").Put(0, "A", "sleep").Put(0, "A", "push(F: A->B)").Table()
	content, _ := tbl.Get(0, 0)
	assert.Equal(t, "sleep; push(F: A->B)", content)
}

func TestGrid_UnknownUnitPanics(t *testing.T) {
	assert.Panics(t, func() { NewGrid(1, "A").Put(0, "Z", "sleep") })
}

func TestGrid_CSVRoundTrip(t *testing.T) {
	g := NewGrid(3, "A", "B").Push(1, "F0", "A", "B")
	tbl, err := schedule.ReadCSV(strings.NewReader(g.CSV()))
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.Rows())
	content, ok := tbl.Get(1, 0)
	require.True(t, ok)
	assert.Equal(t, "push(F0: A->B, #1)", content)
}

func TestFlowAndWorkload(t *testing.T) {
	w := Workload(Flow("F", 10, []int{1}, "N1", "N2"))
	require.Len(t, w.Flows, 1)
	assert.Equal(t, 10, w.Flows[0].Deadline)
	assert.Equal(t, []string{"N1", "N2"}, w.Flows[0].Path)
}

package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario_Defaults(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: minimal
description: minimal scenario
flows:
  - name: F
    path: [A, B]
    period: 4
    attempts: [1]
grid: "A,B\n,\n"
assertions:
  - type: unknown
    flow: F
`))
	require.NoError(t, err)
	assert.Equal(t, DefaultRunID, s.RunID)
	assert.Equal(t, 0, s.Assertions[0].Instance)
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: x\ndescription: y\nassertion: []\n",
			want: "field assertion not found",
		},
		{
			name: "missing name",
			yaml: "description: y\n",
			want: "name is required",
		},
		{
			name: "missing workload",
			yaml: "name: x\ndescription: y\ngrid: a\n",
			want: "one of workload or flows is required",
		},
		{
			name: "both schedules",
			yaml: "name: x\ndescription: y\nworkload: w.yaml\nschedule: s.csv\ngrid: a\n",
			want: "schedule and grid are mutually exclusive",
		},
		{
			name: "no assertions",
			yaml: "name: x\ndescription: y\nworkload: w.yaml\ngrid: a\n",
			want: "assertions list is required",
		},
		{
			name: "latency without value",
			yaml: "name: x\ndescription: y\nworkload: w.yaml\ngrid: a\nassertions:\n  - type: latency\n    flow: F\n",
			want: "value must be positive",
		},
		{
			name: "marker without slot",
			yaml: "name: x\ndescription: y\nworkload: w.yaml\ngrid: a\nassertions:\n  - type: marker\n    flow: F\n    tokens: [R]\n",
			want: "flow and slot are required",
		},
		{
			name: "unknown assertion",
			yaml: "name: x\ndescription: y\nworkload: w.yaml\ngrid: a\nassertions:\n  - type: jitter\n",
			want: `unknown assertion type "jitter"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_ResolvesPaths(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/plant.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "inputs", "plant.yaml"), s.Workload)
	assert.Equal(t, filepath.Join("testdata", "inputs", "plant.csv"), s.Schedule)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: x
description: y
workload: missing.yaml
grid: "A,B\n"
assertions:
  - type: line_count
    count: 0
`), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

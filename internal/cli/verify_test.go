package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_Text(t *testing.T) {
	_, workloadPath, schedulePath := writeInputs(t)

	stdout, _, err := execute(t, "verify", workloadPath, schedulePath)
	require.NoError(t, err)
	assert.Equal(t, plantReport, stdout)
}

func TestVerify_StrictFailsOnMiss(t *testing.T) {
	_, workloadPath, schedulePath := writeInputs(t)

	stdout, _, err := execute(t, "verify", workloadPath, schedulePath, "--strict")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 deadline miss(es), 0 unknown")
	assert.Equal(t, plantReport, stdout, "report is printed before the strict check")
}

func TestVerify_Table(t *testing.T) {
	_, workloadPath, schedulePath := writeInputs(t)

	stdout, _, err := execute(t, "verify", workloadPath, schedulePath, "--table")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 8) // report, blank, header, F, G
	assert.True(t, strings.HasPrefix(lines[5], "flow"))
	assert.Equal(t, []string{"F", "R", ".", ".", "XC", ".", ".", ".", ".", ".", "."}, strings.Fields(lines[6]))
	assert.Equal(t, []string{"G", "R", ".", ".", "D", ".", "XC", ".", ".", ".", "."}, strings.Fields(lines[7]))
}

func TestVerify_JSON(t *testing.T) {
	_, workloadPath, schedulePath := writeInputs(t)

	stdout, _, err := execute(t, "verify", workloadPath, schedulePath, "--format", "json", "--table")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   VerifyOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "plant", resp.Data.Run.WorkloadName)
	assert.Equal(t, 1, resp.Data.Run.Summary.Misses)
	assert.Len(t, resp.Data.Outcomes, 2)
	require.NotNil(t, resp.Data.Table)
	assert.Equal(t, []string{"F", "G"}, resp.Data.Table.Flows)
	assert.Equal(t, "XC", resp.Data.Table.Cells[0][3])
}

func TestVerify_MetricsFile(t *testing.T) {
	dir, workloadPath, schedulePath := writeInputs(t)
	metricsPath := filepath.Join(dir, "ttverify.prom")

	_, _, err := execute(t, "verify", workloadPath, schedulePath, "--metrics-file", metricsPath)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `ttverify_instances_total{status="miss"} 1`)
	assert.Contains(t, string(data), "ttverify_hyperperiod_slots 10")
}

func TestVerify_ConfigFile(t *testing.T) {
	dir, workloadPath, schedulePath := writeInputs(t)
	configPath := writeFile(t, dir, "ttverify.yaml", "separator: \"==\"\nstrict: true\n")

	stdout, _, err := execute(t, "verify", workloadPath, schedulePath, "--config", configPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "\n==\n")

	// Flags override the file.
	_, _, err = execute(t, "verify", workloadPath, schedulePath, "--config", configPath, "--strict=false")
	require.NoError(t, err)
}

func TestVerify_BadConfig(t *testing.T) {
	dir, workloadPath, schedulePath := writeInputs(t)
	configPath := writeFile(t, dir, "bad.yaml", "sepparator: x\n")

	_, _, err := execute(t, "verify", workloadPath, schedulePath, "--config", configPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVerify_InvalidWorkload(t *testing.T) {
	dir, _, schedulePath := writeInputs(t)
	workloadPath := writeFile(t, dir, "bad.yaml", `name: bad
flows:
  - name: F
    path: [N1, N2]
    period: 10
    deadline: 20
    attempts: [1]
`)

	stdout, _, err := execute(t, "verify", workloadPath, schedulePath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ Validation failed")
	assert.Contains(t, stdout, "E205")
}

func TestVerify_MissingColumn(t *testing.T) {
	dir, _, schedulePath := writeInputs(t)
	workloadPath := writeFile(t, dir, "far.yaml", `name: far
flows:
  - name: F
    path: [N1, N3]
    period: 10
    attempts: [1]
`)

	stdout, _, err := execute(t, "verify", workloadPath, schedulePath, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E210", resp.Error.Code)
}

func TestVerify_CommandErrors(t *testing.T) {
	dir, workloadPath, schedulePath := writeInputs(t)
	unsupported := writeFile(t, dir, "plant.json", "{}")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing workload", []string{filepath.Join(dir, "nope.yaml"), schedulePath}, "failed to load workload"},
		{"unsupported workload", []string{unsupported, schedulePath}, "failed to load workload"},
		{"missing schedule", []string{workloadPath, filepath.Join(dir, "nope.csv")}, "failed to load schedule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, append([]string{"verify"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

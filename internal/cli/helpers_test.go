package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ttverify/internal/testutil"
)

const plantWorkload = `name: plant
flows:
  - name: F
    path: [N1, N2]
    period: 10
    attempts: [1]
  - name: G
    path: [N2, N1]
    period: 10
    deadline: 3
    attempts: [1]
`

const plantReport = `Maximum latency for F:0 is 4
----------
Maximum latency for G:0 is 6 => DEADLINE MISS
----------
`

// writeFile writes content under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// plantGrid schedules F on slot 3 and G on slot 5.
func plantGrid() *testutil.Grid {
	return testutil.NewGrid(10, "N1", "N2").
		Push(3, "F", "N1", "N2").
		Push(5, "G", "N2", "N1")
}

// writeInputs writes the plant workload and schedule into a temp dir.
func writeInputs(t *testing.T) (dir, workloadPath, schedulePath string) {
	t.Helper()
	dir = t.TempDir()
	workloadPath = writeFile(t, dir, "plant.yaml", plantWorkload)
	schedulePath = writeFile(t, dir, "plant.csv", plantGrid().CSV())
	return dir, workloadPath, schedulePath
}

// execute runs the root command with args and captures its output.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

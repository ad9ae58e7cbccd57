package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ttverify/internal/workload"
)

// Scenario defines one verification test case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Workload is a path to a workload file, relative to the scenario.
	// Exactly one of Workload and Flows must be set.
	Workload string `yaml:"workload,omitempty"`

	// Flows is an inline workload.
	Flows []workload.FlowDoc `yaml:"flows,omitempty"`

	// Schedule is a path to a schedule CSV, relative to the scenario.
	// Exactly one of Schedule and Grid must be set.
	Schedule string `yaml:"schedule,omitempty"`

	// Grid is an inline schedule CSV.
	Grid string `yaml:"grid,omitempty"`

	// Assertions validate the report, outcomes and latency table.
	Assertions []Assertion `yaml:"assertions"`

	// RunID is an optional fixed run id. Defaults to "scenario-run".
	RunID string `yaml:"run_id,omitempty"`
}

// Assertion checks one property of a verification result.
type Assertion struct {
	// Type specifies the assertion type:
	// - "report_line": a line equals Text (at Line, or anywhere)
	// - "latency": Flow:Instance completed with latency Value
	// - "unknown": Flow:Instance lacked transmissions
	// - "deadline_miss": Flow:Instance missed its deadline
	// - "marker": Flow carries Tokens at Slot
	// - "line_count": the report has Count lines
	Type string `yaml:"type"`

	Text     string   `yaml:"text,omitempty"`
	Line     *int     `yaml:"line,omitempty"`
	Flow     string   `yaml:"flow,omitempty"`
	Instance int      `yaml:"instance,omitempty"`
	Value    int      `yaml:"value,omitempty"`
	Slot     *int     `yaml:"slot,omitempty"`
	Tokens   []string `yaml:"tokens,omitempty"`
	Count    *int     `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertReportLine   = "report_line"
	AssertLatency      = "latency"
	AssertUnknown      = "unknown"
	AssertDeadlineMiss = "deadline_miss"
	AssertMarker       = "marker"
	AssertLineCount    = "line_count"
)

// DefaultRunID is the run id of scenarios that do not set one.
const DefaultRunID = "scenario-run"

// LoadScenario reads and parses a scenario YAML file. Relative workload
// and schedule paths are resolved against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	if s.Workload != "" && !filepath.IsAbs(s.Workload) {
		s.Workload = filepath.Join(base, s.Workload)
	}
	if s.Schedule != "" && !filepath.IsAbs(s.Schedule) {
		s.Schedule = filepath.Join(base, s.Schedule)
	}

	if err := validateFiles(s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return s, nil
}

// ParseScenario decodes scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches typos like "assertion:" vs "assertions:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if scenario.RunID == "" {
		scenario.RunID = DefaultRunID
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Workload == "" && len(s.Flows) == 0:
		return fmt.Errorf("one of workload or flows is required")
	case s.Workload != "" && len(s.Flows) > 0:
		return fmt.Errorf("workload and flows are mutually exclusive")
	}
	switch {
	case s.Schedule == "" && s.Grid == "":
		return fmt.Errorf("one of schedule or grid is required")
	case s.Schedule != "" && s.Grid != "":
		return fmt.Errorf("schedule and grid are mutually exclusive")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateFiles(s *Scenario) error {
	for _, p := range []string{s.Workload, s.Schedule} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", p)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertReportLine:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for report_line", index)
		}
	case AssertLatency:
		if a.Flow == "" {
			return fmt.Errorf("assertions[%d]: flow is required for latency", index)
		}
		if a.Value <= 0 {
			return fmt.Errorf("assertions[%d]: value must be positive for latency", index)
		}
	case AssertUnknown, AssertDeadlineMiss:
		if a.Flow == "" {
			return fmt.Errorf("assertions[%d]: flow is required for %s", index, a.Type)
		}
	case AssertMarker:
		if a.Flow == "" || a.Slot == nil {
			return fmt.Errorf("assertions[%d]: flow and slot are required for marker", index)
		}
		if len(a.Tokens) == 0 {
			return fmt.Errorf("assertions[%d]: tokens list is required for marker", index)
		}
	case AssertLineCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for line_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

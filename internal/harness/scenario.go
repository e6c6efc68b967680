package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/trycatch/internal/ir"
	"github.com/roach88/trycatch/internal/lower"
)

// Scenario is a conformance scenario: one table and the dispatches to run
// against it, each with its expected outcome.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Tables is a CUE file or directory. Relative paths are resolved
	// against the scenario file's directory.
	Tables string `yaml:"tables"`

	// Table is the name of the table under test.
	Table string `yaml:"table"`

	// Cases run in order, one dispatch each.
	Cases []Case `yaml:"cases"`

	// DispatchID is the prefix of the deterministic dispatch IDs.
	// Default "dispatch", giving "dispatch-0001", "dispatch-0002", ...
	DispatchID string `yaml:"dispatch_id,omitempty"`
}

// Case is one dispatch. Exactly one of Payload or Complete is set.
type Case struct {
	Name string `yaml:"name,omitempty"`

	// Payload makes the protected computation panic with a typed value.
	Payload *PayloadStep `yaml:"payload,omitempty"`

	// Complete makes the protected computation return this value.
	Complete any `yaml:"complete,omitempty"`

	Expect Expect `yaml:"expect"`
}

// PayloadStep describes a panic payload by registry type name and JSON
// compatible value. Float values may be written as numbers or strings.
type PayloadStep struct {
	Type  string `yaml:"type"`
	Value any    `yaml:"value"`
}

// Expect is checked against the execution. Unset fields are not checked.
type Expect struct {
	// Outcome is completed, matched, rethrown or handler_panic.
	Outcome string `yaml:"outcome"`

	Arm   *int   `yaml:"arm,omitempty"`
	Label string `yaml:"label,omitempty"`

	// Result is the returned value, for completed and matched.
	Result any `yaml:"result,omitempty"`

	// Bindings is compared in journal form: floats as strings.
	Bindings map[string]any `yaml:"bindings,omitempty"`

	// Panic is the %v text of what escaped, for rethrown and handler_panic.
	Panic string `yaml:"panic,omitempty"`
}

// Expected outcome names.
const (
	ExpectCompleted    = string(ir.OutcomeCompleted)
	ExpectMatched      = string(ir.OutcomeMatched)
	ExpectRethrown     = string(ir.OutcomeRethrown)
	ExpectHandlerPanic = lower.HandlerPanic
)

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML, resolving Tables against baseDir.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Tables != "" && !filepath.IsAbs(scenario.Tables) && baseDir != "" {
		scenario.Tables = filepath.Join(baseDir, scenario.Tables)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Tables == "" {
		return fmt.Errorf("tables is required")
	}
	if _, err := os.Stat(s.Tables); err != nil {
		return fmt.Errorf("tables not found: %s", s.Tables)
	}
	if s.Table == "" {
		return fmt.Errorf("table is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	for i := range s.Cases {
		if err := validateCase(i, &s.Cases[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateCase(i int, c *Case) error {
	switch {
	case c.Payload == nil && c.Complete == nil:
		return fmt.Errorf("cases[%d]: one of payload or complete is required", i)
	case c.Payload != nil && c.Complete != nil:
		return fmt.Errorf("cases[%d]: payload and complete are mutually exclusive", i)
	case c.Payload != nil && c.Payload.Type == "":
		return fmt.Errorf("cases[%d].payload: type is required", i)
	}

	e := c.Expect
	switch e.Outcome {
	case ExpectCompleted:
		if c.Payload != nil {
			return fmt.Errorf("cases[%d].expect: a payload case cannot complete", i)
		}
	case ExpectMatched, ExpectRethrown, ExpectHandlerPanic:
		if c.Payload == nil {
			return fmt.Errorf("cases[%d].expect: a complete case can only expect %s", i, ExpectCompleted)
		}
	case "":
		return fmt.Errorf("cases[%d].expect: outcome is required", i)
	default:
		return fmt.Errorf("cases[%d].expect: unknown outcome %q", i, e.Outcome)
	}

	matched := e.Outcome == ExpectMatched || e.Outcome == ExpectHandlerPanic
	panicked := e.Outcome == ExpectRethrown || e.Outcome == ExpectHandlerPanic
	if !matched && (e.Arm != nil || e.Label != "" || e.Bindings != nil) {
		return fmt.Errorf("cases[%d].expect: arm, label and bindings need a matched outcome", i)
	}
	if panicked && e.Result != nil {
		return fmt.Errorf("cases[%d].expect: %s has no result", i, e.Outcome)
	}
	if !panicked && e.Panic != "" {
		return fmt.Errorf("cases[%d].expect: %s does not panic", i, e.Outcome)
	}
	return nil
}

// caseName returns the case's name, or its position.
func caseName(i int, c Case) string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("cases[%d]", i)
}

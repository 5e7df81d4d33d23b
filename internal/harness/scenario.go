package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one store-operation test case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Seed holds raw persisted values present before the App starts.
	Seed map[string]string `yaml:"seed,omitempty"`

	// IDs are handed out to new addresses in order. When exhausted or
	// empty, ids continue as addr-<n>.
	IDs []string `yaml:"ids,omitempty"`

	// BeforeLoad runs while containers are Loading.
	BeforeLoad []Step `yaml:"before_load,omitempty"`

	// Steps run after every container is Ready.
	Steps []Step `yaml:"steps"`

	Assertions []Assertion `yaml:"assertions"`
}

// Step invokes one store operation.
type Step struct {
	// Op is the operation name, e.g. "cart.add".
	Op string `yaml:"op"`

	// Args are the operation arguments.
	Args map[string]interface{} `yaml:"args,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	Type string `yaml:"type"`

	// Collection is cart, favorites or addresses (count, contains).
	Collection string `yaml:"collection,omitempty"`

	// ID is the entry id (contains).
	ID string `yaml:"id,omitempty"`

	// Count is the expected number of entries (count).
	Count int `yaml:"count,omitempty"`

	// Value is the expected cart total (cart_total).
	Value float64 `yaml:"value,omitempty"`

	// Key is the persisted key (persisted, absent).
	Key string `yaml:"key,omitempty"`

	// JSON is the expected persisted JSON (persisted).
	JSON string `yaml:"json,omitempty"`

	// Raw is the expected persisted literal (persisted).
	Raw string `yaml:"raw,omitempty"`
}

// Assertion type constants.
const (
	AssertCartTotal = "cart_total"
	AssertCount     = "count"
	AssertContains  = "contains"
	AssertPersisted = "persisted"
	AssertAbsent    = "absent"
)

// Collection names.
const (
	CollectionCart      = "cart"
	CollectionFavorites = "favorites"
	CollectionAddresses = "addresses"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
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
	if len(s.Steps) == 0 && len(s.BeforeLoad) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.BeforeLoad {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("before_load[%d]: %w", i, err)
		}
	}
	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(step Step) error {
	if step.Op == "" {
		return fmt.Errorf("op is required")
	}
	if _, ok := operations[step.Op]; !ok {
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}

func validCollection(c string) bool {
	switch c {
	case CollectionCart, CollectionFavorites, CollectionAddresses:
		return true
	}
	return false
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertCartTotal:
	case AssertCount:
		if !validCollection(a.Collection) {
			return fmt.Errorf("assertions[%d]: count requires collection cart, favorites or addresses", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be >= 0", index)
		}
	case AssertContains:
		if !validCollection(a.Collection) {
			return fmt.Errorf("assertions[%d]: contains requires collection cart, favorites or addresses", index)
		}
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: contains requires id", index)
		}
	case AssertPersisted:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: persisted requires key", index)
		}
		if (a.JSON == "") == (a.Raw == "") {
			return fmt.Errorf("assertions[%d]: persisted requires exactly one of json or raw", index)
		}
	case AssertAbsent:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: absent requires key", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

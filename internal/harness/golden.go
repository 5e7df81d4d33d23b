package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// StateSnapshot is the golden representation of a scenario's store.
type StateSnapshot struct {
	Scenario  string                 `json:"scenario"`
	Persisted map[string]interface{} `json:"persisted"`
}

// Snapshot builds the golden representation of result. JSON values are
// embedded as JSON; other values (the theme literal) as strings.
func Snapshot(name string, result *Result) ([]byte, error) {
	snap := StateSnapshot{
		Scenario:  name,
		Persisted: make(map[string]interface{}, len(result.Persisted)),
	}
	for k, v := range result.Persisted {
		if json.Valid([]byte(v)) {
			snap.Persisted[k] = json.RawMessage(v)
		} else {
			snap.Persisted[k] = v
		}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// GoldenDir holds the golden files next to the repository's scenarios,
// relative to this package. The CLI test command reads the same files.
const GoldenDir = "../../testdata/scenarios/golden"

// RunWithGolden executes a scenario and compares the persisted store
// against GoldenDir/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}

package harness

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/storefront/internal/app"
)

// AssertionError is returned when an assertion fails.
// It includes the persisted keys to help debug the failure.
type AssertionError struct {
	Type      string   // Assertion type for categorization
	Expected  string   // Human-readable expected outcome
	Actual    string   // Human-readable actual outcome
	Persisted []string // Keys present in the store
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Persisted) > 0 {
		fmt.Fprintf(&buf, "  Persisted keys: %s\n", strings.Join(e.Persisted, ", "))
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages. Each assertion is evaluated independently.
func EvaluateAssertions(a *app.App, result *Result, assertions []Assertion) []string {
	keys := make([]string, 0, len(result.Persisted))
	for k := range result.Persisted {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []string
	for i, as := range assertions {
		var err *AssertionError
		switch as.Type {
		case AssertCartTotal:
			err = assertCartTotal(a, as)
		case AssertCount:
			err = assertCount(a, as)
		case AssertContains:
			err = assertContains(a, as)
		case AssertPersisted:
			err = assertPersisted(result.Persisted, as)
		case AssertAbsent:
			err = assertAbsent(result.Persisted, as)
		default:
			err = &AssertionError{Type: as.Type, Expected: "known assertion type", Actual: as.Type}
		}
		if err != nil {
			err.Persisted = keys
			errs = append(errs, fmt.Sprintf("assertion %d: %s", i, err.Error()))
		}
	}
	return errs
}

func assertCartTotal(a *app.App, as Assertion) *AssertionError {
	got := a.Cart.Total()
	if math.Abs(got-as.Value) > 1e-9 {
		return &AssertionError{
			Type:     AssertCartTotal,
			Expected: fmt.Sprintf("total %g", as.Value),
			Actual:   fmt.Sprintf("total %g", got),
		}
	}
	return nil
}

// collectionIDs returns the ids held by the named collection.
func collectionIDs(a *app.App, collection string) []string {
	var ids []string
	switch collection {
	case CollectionCart:
		for _, it := range a.Cart.Items() {
			ids = append(ids, it.ID)
		}
	case CollectionFavorites:
		for _, p := range a.Favorites.Favorites() {
			ids = append(ids, p.ID)
		}
	case CollectionAddresses:
		for _, ad := range a.Addresses.Addresses() {
			ids = append(ids, ad.ID)
		}
	}
	return ids
}

func assertCount(a *app.App, as Assertion) *AssertionError {
	ids := collectionIDs(a, as.Collection)
	if len(ids) != as.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%s has %d entries", as.Collection, as.Count),
			Actual:   fmt.Sprintf("%d entries %v", len(ids), ids),
		}
	}
	return nil
}

func assertContains(a *app.App, as Assertion) *AssertionError {
	ids := collectionIDs(a, as.Collection)
	for _, id := range ids {
		if id == as.ID {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertContains,
		Expected: fmt.Sprintf("%s contains %q", as.Collection, as.ID),
		Actual:   fmt.Sprintf("ids %v", ids),
	}
}

func assertPersisted(persisted map[string]string, as Assertion) *AssertionError {
	got, ok := persisted[as.Key]
	if !ok {
		return &AssertionError{
			Type:     AssertPersisted,
			Expected: fmt.Sprintf("%s persisted", as.Key),
			Actual:   "key absent",
		}
	}

	if as.Raw != "" {
		if got != as.Raw {
			return &AssertionError{Type: AssertPersisted, Expected: as.Raw, Actual: got}
		}
		return nil
	}

	if !jsonEqual(got, as.JSON) {
		return &AssertionError{Type: AssertPersisted, Expected: as.JSON, Actual: got}
	}
	return nil
}

func assertAbsent(persisted map[string]string, as Assertion) *AssertionError {
	if got, ok := persisted[as.Key]; ok {
		return &AssertionError{
			Type:     AssertAbsent,
			Expected: fmt.Sprintf("%s never persisted", as.Key),
			Actual:   got,
		}
	}
	return nil
}

// jsonEqual compares two JSON documents structurally.
func jsonEqual(actual, expected string) bool {
	var a, e interface{}
	if err := json.Unmarshal([]byte(actual), &a); err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(expected), &e); err != nil {
		return false
	}
	return reflect.DeepEqual(a, e)
}

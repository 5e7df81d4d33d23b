package harness

import (
	"context"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/storefront/internal/address"
	"github.com/roach88/storefront/internal/app"
	"github.com/roach88/storefront/internal/cart"
	"github.com/roach88/storefront/internal/favorites"
	"github.com/roach88/storefront/internal/state"
	"github.com/roach88/storefront/internal/store"
)

// operation applies one step to the App.
type operation func(a *app.App, args map[string]interface{}) error

var operations = map[string]operation{
	"cart.add": func(a *app.App, args map[string]interface{}) error {
		p := cart.Product{ID: str(args, "id"), Name: str(args, "name"), Price: num(args, "price"), Size: str(args, "size")}
		if err := a.Validator.CartProduct(p); err != nil {
			return err
		}
		a.Cart.AddToCart(p)
		return nil
	},
	"cart.remove": func(a *app.App, args map[string]interface{}) error {
		a.Cart.RemoveFromCart(str(args, "id"))
		return nil
	},
	"cart.quantity": func(a *app.App, args map[string]interface{}) error {
		a.Cart.UpdateQuantity(str(args, "id"), int(num(args, "quantity")))
		return nil
	},
	"cart.clear": func(a *app.App, _ map[string]interface{}) error {
		a.Cart.ClearCart()
		return nil
	},
	"favorites.add": func(a *app.App, args map[string]interface{}) error {
		p := favorites.Product{ID: str(args, "id"), Name: str(args, "name"), Price: num(args, "price"), Category: str(args, "category")}
		if err := a.Validator.FavoriteProduct(p); err != nil {
			return err
		}
		a.Favorites.AddToFavorites(p)
		return nil
	},
	"favorites.remove": func(a *app.App, args map[string]interface{}) error {
		a.Favorites.RemoveFromFavorites(str(args, "id"))
		return nil
	},
	"favorites.toggle": func(a *app.App, args map[string]interface{}) error {
		a.Favorites.Toggle(favorites.Product{ID: str(args, "id"), Name: str(args, "name"), Price: num(args, "price")})
		return nil
	},
	"address.add": func(a *app.App, args map[string]interface{}) error {
		f := address.Fields{
			Name:   str(args, "name"),
			Street: str(args, "street"),
			City:   str(args, "city"),
			Zip:    str(args, "zip"),
			Phone:  str(args, "phone"),
			Type:   address.Type(str(args, "type")),
		}
		if err := a.Validator.Address(f); err != nil {
			return err
		}
		a.Addresses.AddAddress(f)
		return nil
	},
	"address.remove": func(a *app.App, args map[string]interface{}) error {
		a.Addresses.RemoveAddress(str(args, "id"))
		return nil
	},
	"theme.toggle": func(a *app.App, _ map[string]interface{}) error {
		a.Theme.Toggle()
		return nil
	},
	"theme.set": func(a *app.App, args map[string]interface{}) error {
		dark, _ := args["dark"].(bool)
		a.Theme.SetDark(dark)
		return nil
	},
}

// str reads a string argument. YAML scalars such as 411001 decode as
// numbers, so those are formatted back.
func str(args map[string]interface{}, key string) string {
	switch v := args[key].(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func num(args map[string]interface{}, key string) float64 {
	switch v := args[key].(type) {
	case int:
		return float64(v)
	case float64:
		return v
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

// sequentialIDs hands out the scenario ids, then addr-<n>.
type sequentialIDs struct {
	ids []string
	n   int
}

func (g *sequentialIDs) Generate() string {
	g.n++
	if g.n <= len(g.ids) {
		return g.ids[g.n-1]
	}
	return "addr-" + strconv.Itoa(g.n)
}

// Run executes a scenario against a fresh in-memory store and returns the
// result. A step whose input fails validation aborts the run.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()
	kv := store.NewMemory(scenario.Seed)

	a, err := app.New(kv, app.Options{
		Logger:   state.DiscardLogger(),
		Registry: prometheus.NewRegistry(),
		IDs:      &sequentialIDs{ids: scenario.IDs},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build app: %w", err)
	}
	defer a.Close(ctx)

	result := NewResult()

	// Steps before Start land in the Uninitialized/Loading window.
	if err := executeSteps(a, "before_load", scenario.BeforeLoad, result); err != nil {
		return nil, err
	}
	if err := a.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start app: %w", err)
	}
	if err := executeSteps(a, "ready", scenario.Steps, result); err != nil {
		return nil, err
	}
	if err := a.Flush(ctx); err != nil {
		return nil, fmt.Errorf("failed to flush: %w", err)
	}

	persisted, err := a.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read store: %w", err)
	}
	result.Persisted = persisted

	for _, msg := range EvaluateAssertions(a, result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func executeSteps(a *app.App, phase string, steps []Step, result *Result) error {
	for i, step := range steps {
		op, ok := operations[step.Op]
		if !ok {
			return fmt.Errorf("%s[%d]: unknown op %q", phase, i, step.Op)
		}
		if err := op(a, step.Args); err != nil {
			return fmt.Errorf("%s[%d] %s: %w", phase, i, step.Op, err)
		}
		result.AddStep(phase, step)
	}
	return nil
}

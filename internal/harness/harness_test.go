package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	return s
}

func TestRun_PassingScenario(t *testing.T) {
	s := mustParse(t, `
name: favorites_toggle
description: d
steps:
  - op: favorites.toggle
    args: { id: p1, name: Dosa, price: 120 }
  - op: favorites.toggle
    args: { id: p1, name: Dosa, price: 120 }
  - op: favorites.add
    args: { id: p2, name: Idli, price: 60 }
assertions:
  - type: count
    collection: favorites
    count: 1
  - type: persisted
    key: "@favorites"
    json: '[{"id":"p2","name":"Idli","price":60}]'
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 3)
	assert.Equal(t, "ready", result.Trace[0].Phase)
	assert.Equal(t, 3, result.Trace[2].Seq)
}

func TestRun_FailingAssertionsReported(t *testing.T) {
	s := mustParse(t, `
name: wrong
description: d
steps:
  - op: cart.add
    args: { id: p1, name: Dosa, price: 120 }
assertions:
  - type: cart_total
    value: 1
  - type: absent
    key: "@cart"
  - type: contains
    collection: cart
    id: p1
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "cart_total")
	assert.Contains(t, result.Errors[1], "absent")
	assert.Contains(t, result.Errors[1], "Persisted keys: @cart")
}

func TestRun_InvalidInputAbortsRun(t *testing.T) {
	s := mustParse(t, `
name: bad_address
description: d
steps:
  - op: address.add
    args: { name: "", street: x, city: y, zip: "1", phone: "1", type: Home }
assertions:
  - type: count
    collection: addresses
    count: 0
`)

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ready[0] address.add")
}

func TestRun_AddressIDsContinueAfterList(t *testing.T) {
	s := mustParse(t, `
name: ids
description: d
ids: [first]
steps:
  - op: address.add
    args: { name: A, street: s, city: c, zip: "1", phone: "1", type: Home }
  - op: address.add
    args: { name: B, street: s, city: c, zip: "1", phone: "1", type: Other }
assertions:
  - type: contains
    collection: addresses
    id: first
  - type: contains
    collection: addresses
    id: addr-2
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_BeforeLoadMutationBeatsSeed(t *testing.T) {
	s := mustParse(t, `
name: early_cart
description: d
seed:
  "@cart": '[{"id":"stale","name":"Stale","price":1,"quantity":9}]'
before_load:
  - op: cart.add
    args: { id: fresh, name: Fresh, price: 5 }
assertions:
  - type: cart_total
    value: 5
  - type: persisted
    key: "@cart"
    json: '[{"id":"fresh","name":"Fresh","price":5,"quantity":1}]'
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "before_load", result.Trace[0].Phase)
}

func TestStrAndNum(t *testing.T) {
	args := map[string]interface{}{"s": "x", "i": 411001, "f": 2.5, "n": "7.25"}
	assert.Equal(t, "x", str(args, "s"))
	assert.Equal(t, "411001", str(args, "i"))
	assert.Equal(t, "2.5", str(args, "f"))
	assert.Equal(t, "", str(args, "missing"))
	assert.Equal(t, 411001.0, num(args, "i"))
	assert.Equal(t, 7.25, num(args, "n"))
	assert.Equal(t, 0.0, num(args, "missing"))
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}

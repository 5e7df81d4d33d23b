// Package harness runs store-operation scenarios against a real App.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: add_then_remove
//	description: "What this scenario validates"
//	seed:
//	  "@cart": '[{"id":"p1","name":"Dosa","price":120,"quantity":1}]'
//	ids: [addr-1, addr-2]
//	before_load:
//	  - op: cart.add
//	    args: { id: p2, name: Idli, price: 60 }
//	steps:
//	  - op: cart.quantity
//	    args: { id: p1, quantity: 3 }
//	assertions:
//	  - type: cart_total
//	    value: 360
//	  - type: count
//	    collection: cart
//	    count: 2
//
// Seed values are written into a fresh in-memory store before the App is
// built. before_load steps run while the containers are still loading;
// steps run once every container is Ready. The store is flushed before the
// assertions are evaluated.
//
// # Assertion Types
//
//   - cart_total: the cart total equals value
//   - count: the collection (cart, favorites, addresses) has count entries
//   - contains: the collection holds an entry with id
//   - persisted: the persisted value of key equals json (JSON-compared),
//     or raw for non-JSON values such as @theme
//   - absent: key was never persisted
//
// # Golden Files
//
// RunWithGolden compares the persisted store contents against
// testdata/scenarios/golden/<name>.golden at the repository root.
// Regenerate with:
//
//	go test ./internal/harness -update
package harness

// Package state implements the persisted state container shared by the cart,
// favorites, address book and theme stores.
//
// A Container owns exactly one value and one key in the key/value store.
//
// # Lifecycle
//
//	Uninitialized --Init--> Loading --load done--> Ready --Close--> Disposed
//
// Init issues a single background read of the key. Until that read finishes
// no save is issued. If the value was mutated during the load window the
// loaded snapshot is discarded (last mutation wins) and the in-memory value
// is written once; otherwise the loaded value seeds the container without
// triggering a save.
//
// # Write-through
//
// Every effective mutation after Ready encodes the full current value and
// hands it to the container's single writer goroutine. Pending saves are
// coalesced, so the writer always persists the newest snapshot and the
// durable value converges to the in-memory value.
//
// Persistence failures are logged and counted, never returned: the
// in-memory value stays authoritative for the life of the process.
package state

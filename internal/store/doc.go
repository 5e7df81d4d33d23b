// Package store provides the device-scoped durable key/value store that the
// state containers persist their snapshots into.
//
// Two implementations share the same method set:
//   - SQLite: a single-file database (github.com/mattn/go-sqlite3)
//   - Memory: a map guarded by a mutex, used by tests and the scenario harness
//
// # Contract
//
//   - Get returns ok=false for an absent key; that is not an error.
//   - Set replaces the whole value for a key (last write wins).
//   - Remove of an absent key is a no-op.
//
// Values are opaque strings; callers own the encoding (JSON for collections,
// raw literals for flags).
//
// # Database Configuration
//
//   - WAL mode: readers never block the writer
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
package store

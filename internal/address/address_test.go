package address

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storefront/internal/state"
	"github.com/roach88/storefront/internal/store"
)

func newReadyStore(t *testing.T, kv state.KV, ids IDGenerator) *Store {
	t.Helper()
	ctx := context.Background()
	s := New(kv, ids, state.WithLogger(state.DiscardLogger()))
	s.Container().Init(ctx)
	require.NoError(t, s.Container().WaitReady(ctx))
	t.Cleanup(func() { _ = s.Container().Close(context.Background()) })
	return s
}

func home() Fields {
	return Fields{Name: "A", Street: "S", City: "C", Zip: "1", Phone: "9", Type: TypeHome}
}

func TestAddress_AddTwoRemoveFirst(t *testing.T) {
	s := newReadyStore(t, store.NewMemory(nil), nil)

	first := s.AddAddress(home())
	second := s.AddAddress(Fields{Name: "B", Street: "T", City: "D", Zip: "2", Phone: "8", Type: TypeWork})

	require.Len(t, s.Addresses(), 2)
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	s.RemoveAddress(first.ID)

	assert.Equal(t, []Address{second}, s.Addresses())
}

func TestAddress_RemoveUnknownLeavesListUnchanged(t *testing.T) {
	s := newReadyStore(t, store.NewMemory(nil), nil)
	s.AddAddress(home())
	before := s.Addresses()

	s.RemoveAddress("does-not-exist")

	assert.Equal(t, before, s.Addresses())
}

func TestAddress_SkipsCollidingIDs(t *testing.T) {
	s := newReadyStore(t, store.NewMemory(nil), NewFixedGenerator("addr-1", "addr-1", "addr-2"))

	a := s.AddAddress(home())
	b := s.AddAddress(home())

	assert.Equal(t, "addr-1", a.ID)
	assert.Equal(t, "addr-2", b.ID)
}

func TestAddress_FieldsNormalized(t *testing.T) {
	s := newReadyStore(t, store.NewMemory(nil), NewFixedGenerator("addr-1"))

	a := s.AddAddress(Fields{Name: "  Rene\u0301 ", Street: "Rue", City: "Paris", Zip: "75001", Phone: "1", Type: TypeOther})

	assert.Equal(t, "Ren\u00e9", a.Name)
	got, ok := s.Get("addr-1")
	require.True(t, ok)
	assert.Equal(t, a, got)
}

func TestAddress_Get_Missing(t *testing.T) {
	s := newReadyStore(t, store.NewMemory(nil), nil)
	_, ok := s.Get("nope")
	assert.False(t, ok)
}

func TestAddress_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory(nil)

	first := newReadyStore(t, kv, NewFixedGenerator("addr-1", "addr-2"))
	first.AddAddress(home())
	first.AddAddress(Fields{Name: "B", Street: "T", City: "D", Zip: "2", Phone: "8", Type: TypeWork})
	require.NoError(t, first.Container().Flush(ctx))

	raw, ok, err := kv.Get(ctx, Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[
		{"id":"addr-1","name":"A","street":"S","city":"C","zip":"1","phone":"9","type":"Home"},
		{"id":"addr-2","name":"B","street":"T","city":"D","zip":"2","phone":"8","type":"Work"}
	]`, raw)

	second := newReadyStore(t, kv, nil)
	assert.Equal(t, first.Addresses(), second.Addresses())
}

func TestParseType(t *testing.T) {
	for _, in := range []string{"Home", "Work", "Other"} {
		got, err := ParseType(in)
		require.NoError(t, err)
		assert.Equal(t, Type(in), got)
	}

	_, err := ParseType("home")
	assert.Error(t, err)
}

func TestUUIDv7Generator_Distinct(t *testing.T) {
	g := UUIDv7Generator{}
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := g.Generate()
		assert.Len(t, id, 36)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestFixedGenerator_PanicsWhenExhausted(t *testing.T) {
	g := NewFixedGenerator("only")
	assert.Equal(t, "only", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

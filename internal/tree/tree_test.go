package tree

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/orgtree/internal/lookup"
	"github.com/crimson-sun/orgtree/internal/model"
	"github.com/crimson-sun/orgtree/internal/resolver"
	"github.com/crimson-sun/orgtree/internal/store"
)

// resolvedStore builds and resolves a small two-branch hierarchy:
//
//	ROOT (depth 1)
//	├── G1 (2) ── P1 (3) ── C1 (4)
//	│             └─ C2 (4)
//	└── G2 (2)
func resolvedStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.FromRecords([]model.CustomerRecord{
		{ID: "C1", Name: "child one", ParentID: "P1"},
		{ID: "G2", Name: "group two", ParentID: "ROOT"},
		{ID: "C2", Name: "child two", ParentID: "P1"},
		{ID: "P1", Name: "parent one", ParentID: "G1"},
		{ID: "G1", Name: "group one", ParentID: "ROOT"},
	})
	l := lookup.Static{
		"C1": {ParentID: "P1"},
		"C2": {ParentID: "P1"},
		"P1": {ParentID: "G1"},
		"G1": {ParentID: "ROOT"},
		"G2": {ParentID: "ROOT"},
	}
	_, err := resolver.New(s, l).ResolveAll(context.Background())
	require.NoError(t, err)
	return s
}

func TestBuildNestsFromDepthTwo(t *testing.T) {
	got := Build(resolvedStore(t))

	want := []Entry{
		{ID: "G1", Name: "group one", Children: []Node{
			{CustomerID: "P1", Name: "parent one", Children: []Node{
				{CustomerID: "C1", Name: "child one", Children: []Node{}},
				{CustomerID: "C2", Name: "child two", Children: []Node{}},
			}},
		}},
		{ID: "G2", Name: "group two", Children: []Node{}},
	}
	// Keys follow store insertion order, not discovery order.
	assert.Equal(t, []string{"G2", "G1"}, got.Keys())
	g1, ok := got.Get("G1")
	require.True(t, ok)
	if diff := cmp.Diff(want[0], g1); diff != "" {
		t.Errorf("G1 mismatch (-want +got):\n%s", diff)
	}
	g2, _ := got.Get("G2")
	if diff := cmp.Diff(want[1], g2); diff != "" {
		t.Errorf("G2 mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 5, got.Count())
}

func TestBuildOmitsRootsAndUnresolved(t *testing.T) {
	s := resolvedStore(t)
	s.Upsert(model.CustomerRecord{ID: "LOOSE"}) // depth 0

	data, err := json.Marshal(Build(s))
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))

	var depthTwo []string
	for _, rec := range s.All() {
		if rec.Depth == TopDepth {
			depthTwo = append(depthTwo, rec.ID)
		}
	}
	var keys []string
	for k := range doc {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, depthTwo, keys)
	assert.NotContains(t, string(data), `"ROOT"`)
	assert.NotContains(t, string(data), `"LOOSE"`)
}

func TestBuildEmpty(t *testing.T) {
	got := Build(store.New())
	assert.Equal(t, 0, got.Len())

	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))

	data, err = json.Marshal(Tree{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestBuildIsIdempotent(t *testing.T) {
	s := resolvedStore(t)
	first, err := json.Marshal(Build(s))
	require.NoError(t, err)
	second, err := json.Marshal(Build(s))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestMarshalShape(t *testing.T) {
	s := store.FromRecords([]model.CustomerRecord{
		{ID: "Z", Depth: 1, Children: []string{"Y"}},
		{ID: "Y", Name: "SK네트웍스 <B&C>", Depth: 2, Children: []string{"X"}},
		{ID: "X", Name: "SKSM_Checkmate", Depth: 3},
	})

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	require.NoError(t, enc.Encode(Build(s)))

	assert.Equal(t,
		`{"Y":{"name":"SK네트웍스 <B&C>","children":[{"customer_id":"X","name":"SKSM_Checkmate","children":[]}]}}`+"\n",
		buf.String())
}

func TestMarshalKeepsKeyOrder(t *testing.T) {
	s := store.FromRecords([]model.CustomerRecord{
		{ID: "b", Depth: 2},
		{ID: "a", Depth: 2},
		{ID: "c", Depth: 2},
	})
	data, err := json.Marshal(Build(s))
	require.NoError(t, err)
	assert.Equal(t,
		`{"b":{"name":"","children":[]},"a":{"name":"","children":[]},"c":{"name":"","children":[]}}`,
		string(data))
}

func TestBuildSkipsBrokenLinks(t *testing.T) {
	s := store.FromRecords([]model.CustomerRecord{
		{ID: "A", Depth: 2, Children: []string{"B", "missing"}},
		{ID: "B", Depth: 3, Children: []string{"A"}},
	})
	got := Build(s)
	a, ok := got.Get("A")
	require.True(t, ok)
	require.Len(t, a.Children, 1)
	assert.Equal(t, "B", a.Children[0].CustomerID)
	assert.Empty(t, a.Children[0].Children)
}

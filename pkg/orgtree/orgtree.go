package orgtree

import (
	"context"
	"fmt"
	"io"

	"github.com/crimson-sun/orgtree/internal/lookup"
	"github.com/crimson-sun/orgtree/internal/model"
	"github.com/crimson-sun/orgtree/internal/output"
	"github.com/crimson-sun/orgtree/internal/resolver"
	"github.com/crimson-sun/orgtree/internal/store"
	"github.com/crimson-sun/orgtree/internal/tree"
)

// Tree is the resolved hierarchy. It encodes to JSON as an object keyed by
// top-level customer id, in input order.
type Tree struct {
	t tree.Tree
}

// Resolve builds the hierarchy for customers, asking l for ancestry. Each
// customer is looked up at most once. Duplicate ids keep the last record at
// the first position.
func Resolve(ctx context.Context, customers []Customer, l Lookup, opts ...Option) (*Tree, Stats, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := store.New()
	for _, c := range customers {
		s.Upsert(model.CustomerRecord{ID: c.ID, Name: c.Name, ParentID: c.ParentID, ParentName: c.ParentName})
	}

	cached := lookup.NewCached(adapt(l), nil, nil, o.logger)
	if o.prefetch > 0 {
		if err := lookup.Prefetch(ctx, cached, s.IDs(), o.prefetch); err != nil {
			return nil, Stats{}, fmt.Errorf("orgtree: %w", err)
		}
	}

	rs, err := resolver.New(s, cached, resolver.WithLogger(o.logger)).ResolveAll(ctx)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("orgtree: %w", err)
	}
	return &Tree{t: tree.Build(s)}, statsFromResolver(rs), nil
}

// Keys returns the top-level customer ids in order.
func (t *Tree) Keys() []string {
	return t.t.Keys()
}

// Len returns the number of top-level entries.
func (t *Tree) Len() int {
	return t.t.Len()
}

// Entries returns the top-level entries in order.
func (t *Tree) Entries() []Entry {
	src := t.t.Entries()
	out := make([]Entry, len(src))
	for i, e := range src {
		out[i] = Entry{ID: e.ID, Name: e.Name, Children: nodesFromTree(e.Children)}
	}
	return out
}

// MarshalJSON encodes the tree as a compact JSON object.
func (t *Tree) MarshalJSON() ([]byte, error) {
	return t.t.MarshalJSON()
}

// WriteTo writes the tree as indented JSON with a trailing newline.
func (t *Tree) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	err := output.Encode(cw, t.t)
	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func adapt(l Lookup) lookup.Lookup {
	return lookup.Func(func(ctx context.Context, id string) (model.Ancestry, error) {
		a, err := l.Lookup(ctx, id)
		if err != nil {
			return model.Ancestry{}, err
		}
		return model.Ancestry{CustomerName: a.Name, ParentID: a.ParentID, ParentName: a.ParentName}, nil
	})
}

func nodesFromTree(src []tree.Node) []Node {
	out := make([]Node, len(src))
	for i, n := range src {
		out[i] = Node{CustomerID: n.CustomerID, Name: n.Name, Children: nodesFromTree(n.Children)}
	}
	return out
}

func statsFromResolver(s resolver.Stats) Stats {
	return Stats{
		Processed:      s.Processed,
		Roots:          s.Roots,
		Placeholders:   s.Placeholders,
		CyclesBroken:   s.CyclesBroken,
		LookupFailures: s.LookupFailures,
		MaxDepth:       s.MaxDepth,
		Duration:       s.Duration,
	}
}

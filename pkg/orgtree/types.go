package orgtree

import (
	"context"
	"time"
)

// Customer is an input record. ParentID may be empty when the feed does not
// know the parent; the lookup is asked instead.
type Customer struct {
	ID         string
	Name       string
	ParentID   string
	ParentName string
}

// Ancestry is what a Lookup knows about one customer.
type Ancestry struct {
	Name       string
	ParentID   string
	ParentName string
}

// Lookup answers ancestry queries. Any error means "no data" for that
// customer.
type Lookup interface {
	Lookup(ctx context.Context, customerID string) (Ancestry, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, customerID string) (Ancestry, error)

// Lookup calls f.
func (f LookupFunc) Lookup(ctx context.Context, customerID string) (Ancestry, error) {
	return f(ctx, customerID)
}

// Node is a customer below a top-level entry.
type Node struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Children   []Node `json:"children"`
}

// Entry is a top-level customer.
type Entry struct {
	ID       string `json:"-"`
	Name     string `json:"name"`
	Children []Node `json:"children"`
}

// Stats summarises a Resolve call.
type Stats struct {
	Processed      int
	Roots          int
	Placeholders   int
	CyclesBroken   int
	LookupFailures int
	MaxDepth       int
	Duration       time.Duration
}

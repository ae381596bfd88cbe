// Package resolver reconstructs the customer ownership hierarchy by walking
// each customer's parent chain, consulting the lookup service for ancestry the
// feed did not carry.
//
// Resolution is post-order: a customer's depth is assigned only after its
// parent's depth is known. The walk uses an explicit stack, so chain length is
// bounded by memory rather than by the goroutine stack.
//
// Cycle policy: a customer is marked in progress before its parent is
// visited. If the parent turns out to be in progress already, the parent
// reference closes a cycle; the customer becomes a root (depth 1) and is not
// linked under that parent. For A→B→A resolved from A, B becomes the root and
// A sits below it.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/crimson-sun/orgtree/internal/lookup"
	"github.com/crimson-sun/orgtree/internal/metrics"
	"github.com/crimson-sun/orgtree/internal/model"
	"github.com/crimson-sun/orgtree/internal/store"
)

// RootDepth is the depth assigned to customers whose ancestry ends.
const RootDepth = 1

// Reasons a customer became a root. Never returned to callers; they are
// attached to debug logs and counted in Stats.
var (
	ErrLookupUnavailable = errors.New("lookup unavailable")
	ErrNoParent          = errors.New("no parent reference")
	ErrSelfParent        = errors.New("customer is its own parent")
	ErrCycle             = errors.New("parent reference closes a cycle")
)

// Stats summarises a resolution pass.
type Stats struct {
	Processed      int // customers that received a depth
	Roots          int
	Placeholders   int // parent records synthesised during the pass
	CyclesBroken   int
	LookupFailures int
	MaxDepth       int
	Duration       time.Duration
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithMetrics records resolution counters on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// Resolver owns one resolution pass over a Store: the store handle, the
// completed set and the in-progress set. Not safe for concurrent use.
type Resolver struct {
	store   *store.Store
	lookup  lookup.Lookup
	logger  *slog.Logger
	metrics *metrics.Metrics

	done       map[string]bool
	inProgress map[string]bool
	stats      Stats
}

// New creates a Resolver over s that asks l for missing ancestry.
func New(s *store.Store, l lookup.Lookup, opts ...Option) *Resolver {
	r := &Resolver{
		store:      s,
		lookup:     l,
		logger:     slog.Default(),
		done:       make(map[string]bool),
		inProgress: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveAll resolves every record present in the store when it is called,
// in insertion order. Placeholders created on the way are resolved as part
// of the chain that needed them. Lookup failures are not errors; the only
// error is the context ending, which leaves the pass incomplete.
func (r *Resolver) ResolveAll(ctx context.Context) (Stats, error) {
	start := time.Now()
	defer func() {
		r.stats.Duration = time.Since(start)
		r.metrics.ObserveResolve(r.stats.Duration)
		r.metrics.SetMaxDepth(r.stats.MaxDepth)
	}()

	for _, id := range r.store.IDs() {
		if err := r.Resolve(ctx, id); err != nil {
			return r.stats, err
		}
	}
	return r.stats, nil
}

// Resolve resolves a single customer and, first, its ancestors. Customers
// already resolved by this Resolver are skipped. Unknown ids are ignored.
func (r *Resolver) Resolve(ctx context.Context, id string) error {
	if r.done[id] {
		return nil
	}
	if _, ok := r.store.Get(id); !ok {
		return nil
	}

	stack := []string{id}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			r.abandon(stack)
			return err
		}

		cur := stack[len(stack)-1]
		if r.done[cur] {
			stack = stack[:len(stack)-1]
			continue
		}
		rec, _ := r.store.Get(cur)

		if r.inProgress[cur] {
			// Second visit: the parent was pushed above us and has finished.
			parent, _ := r.store.Get(rec.ParentID)
			r.link(rec, parent)
			stack = stack[:len(stack)-1]
			continue
		}

		parent, err := r.enter(ctx, rec)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				r.abandon(stack)
				return ctxErr
			}
			r.root(rec, err)
			stack = stack[:len(stack)-1]
			continue
		}
		if r.done[parent.ID] {
			r.link(rec, parent)
			stack = stack[:len(stack)-1]
			continue
		}
		stack = append(stack, parent.ID)
	}
	return nil
}

// Stats returns the counters accumulated so far.
func (r *Resolver) Stats() Stats {
	return r.stats
}

// enter marks rec in progress, consults the lookup and returns the parent
// record to resolve first. A non-nil error means rec is a root.
func (r *Resolver) enter(ctx context.Context, rec *model.CustomerRecord) (*model.CustomerRecord, error) {
	r.inProgress[rec.ID] = true

	anc, err := r.lookup.Lookup(ctx, rec.ID)
	if err != nil {
		if ctx.Err() == nil {
			r.stats.LookupFailures++
		}
		return nil, errors.Join(ErrLookupUnavailable, err)
	}

	if rec.ParentID == "" {
		rec.ParentID = anc.ParentID
		rec.ParentName = anc.ParentName
	}
	if rec.Name == "" {
		rec.Name = anc.CustomerName
	}

	switch rec.ParentID {
	case "":
		return nil, ErrNoParent
	case rec.ID:
		return nil, ErrSelfParent
	}

	parent, ok := r.store.Get(rec.ParentID)
	if !ok {
		parent = r.store.Upsert(model.CustomerRecord{
			ID:   rec.ParentID,
			Name: rec.ParentName,
		})
		r.stats.Placeholders++
		r.metrics.IncPlaceholders()
		r.logger.Debug("parent missing from store, added placeholder",
			"customer_id", rec.ID, "parent_id", rec.ParentID)
	}

	if r.inProgress[parent.ID] {
		r.stats.CyclesBroken++
		r.metrics.IncCycles()
		r.logger.Warn("cycle in parent references, treating customer as root",
			"customer_id", rec.ID, "parent_id", parent.ID)
		return nil, ErrCycle
	}
	return parent, nil
}

// root assigns root depth to rec.
func (r *Resolver) root(rec *model.CustomerRecord, reason error) {
	rec.Depth = RootDepth
	r.stats.Roots++
	r.metrics.IncRoots()
	r.logger.Debug("customer resolved as root", "customer_id", rec.ID, "reason", reason)
	r.finish(rec)
}

// link places rec under its resolved parent.
func (r *Resolver) link(rec, parent *model.CustomerRecord) {
	parent.AddChild(rec.ID)
	rec.Depth = parent.Depth + 1
	r.logger.Debug("customer resolved", "customer_id", rec.ID, "name", rec.Name, "depth", rec.Depth)
	r.finish(rec)
}

// abandon clears the in-progress marks of an interrupted walk so a later
// call starts the chain afresh.
func (r *Resolver) abandon(stack []string) {
	for _, id := range stack {
		delete(r.inProgress, id)
	}
}

func (r *Resolver) finish(rec *model.CustomerRecord) {
	delete(r.inProgress, rec.ID)
	r.done[rec.ID] = true
	r.stats.Processed++
	if rec.Depth > r.stats.MaxDepth {
		r.stats.MaxDepth = rec.Depth
	}
}

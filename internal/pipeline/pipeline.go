package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/crimson-sun/orgtree/internal/connector"
	"github.com/crimson-sun/orgtree/internal/lookup"
	"github.com/crimson-sun/orgtree/internal/metrics"
	"github.com/crimson-sun/orgtree/internal/model"
	"github.com/crimson-sun/orgtree/internal/output"
	"github.com/crimson-sun/orgtree/internal/resolver"
	"github.com/crimson-sun/orgtree/internal/store"
	"github.com/crimson-sun/orgtree/internal/tree"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithMetrics records lookup, resolution and feed metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithCache sets the lookup cache. Default: an in-memory cache per run.
func WithCache(c lookup.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithPrefetch enables warming the lookup cache with up to n concurrent
// lookups before resolution. n < 1 disables prefetch.
func WithPrefetch(n int) Option {
	return func(p *Pipeline) { p.prefetch = n }
}

// Report summarises one run.
type Report struct {
	Fed       int // records delivered by the feed
	StoreSize int // records after resolution, placeholders included
	TopLevel  int // top-level entries in the tree
	Nodes     int // entries plus all nested nodes
	Resolve   resolver.Stats
	Duration  time.Duration
}

// Pipeline connects a connector, the resolver, and an output into one
// resolution run.
type Pipeline struct {
	connector connector.Connector
	output    output.Output
	logger    *slog.Logger
	metrics   *metrics.Metrics
	cache     lookup.Cache
	prefetch  int
}

// New creates a Pipeline from the given components.
func New(conn connector.Connector, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{
		connector: conn,
		output:    out,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run fetches the feed and resolves it.
func (p *Pipeline) Run(ctx context.Context, cfg connector.ConnectorConfig) (Report, error) {
	recs, err := p.connector.Customers(ctx, cfg)
	if err != nil {
		return Report{}, fmt.Errorf("pipeline feed: %w", err)
	}
	p.metrics.AddFeedRecords(cfg.Provider, len(recs))
	p.logger.Info("feed loaded", "provider", cfg.Provider, "records", len(recs))
	return p.RunRecords(ctx, cfg, recs)
}

// RunRecords resolves recs instead of the connector's feed. The connector
// still provides the lookup.
func (p *Pipeline) RunRecords(ctx context.Context, cfg connector.ConnectorConfig, recs []model.CustomerRecord) (Report, error) {
	start := time.Now()

	inner, err := p.connector.Lookup(cfg)
	if err != nil {
		return Report{}, fmt.Errorf("pipeline lookup: %w", err)
	}
	l := lookup.NewCached(lookup.NewInstrumented(inner, p.metrics), p.cache, p.metrics, p.logger)

	s := store.FromRecords(recs)
	if p.prefetch > 0 {
		if err := lookup.Prefetch(ctx, l, s.IDs(), p.prefetch); err != nil {
			return Report{}, fmt.Errorf("pipeline prefetch: %w", err)
		}
	}

	stats, err := resolver.New(s, l, resolver.WithLogger(p.logger), resolver.WithMetrics(p.metrics)).ResolveAll(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("pipeline resolve: %w", err)
	}

	t := tree.Build(s)
	if err := p.output.Write(ctx, t); err != nil {
		return Report{}, fmt.Errorf("pipeline output: %w", err)
	}

	r := Report{
		Fed:       len(recs),
		StoreSize: s.Len(),
		TopLevel:  t.Len(),
		Nodes:     t.Count(),
		Resolve:   stats,
		Duration:  time.Since(start),
	}
	p.logger.Info("resolution complete",
		"processed", stats.Processed,
		"store_size", r.StoreSize,
		"top_level", r.TopLevel,
		"roots", stats.Roots,
		"placeholders", stats.Placeholders,
		"cycles_broken", stats.CyclesBroken,
		"lookup_failures", stats.LookupFailures,
		"max_depth", stats.MaxDepth,
		"duration", r.Duration,
	)
	return r, nil
}

// Close shuts down the output.
func (p *Pipeline) Close() error {
	return p.output.Close()
}

// ParseCustomer reads a single customer given as id[:name[:parentId[:parentName]]].
func ParseCustomer(s string) (model.CustomerRecord, error) {
	parts := strings.SplitN(s, ":", 4)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if parts[0] == "" {
		return model.CustomerRecord{}, errors.New("customer id is empty")
	}
	rec := model.CustomerRecord{ID: parts[0]}
	if len(parts) > 1 {
		rec.Name = parts[1]
	}
	if len(parts) > 2 {
		rec.ParentID = parts[2]
	}
	if len(parts) > 3 {
		rec.ParentName = parts[3]
	}
	return rec, nil
}

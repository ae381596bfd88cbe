package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/crimson-sun/orgtree/internal/config"
	"github.com/crimson-sun/orgtree/internal/connector"
	"github.com/crimson-sun/orgtree/internal/logging"
	"github.com/crimson-sun/orgtree/internal/lookup"
	"github.com/crimson-sun/orgtree/internal/metrics"
	"github.com/crimson-sun/orgtree/internal/model"
	"github.com/crimson-sun/orgtree/internal/output"
	"github.com/crimson-sun/orgtree/internal/output/file"
	"github.com/crimson-sun/orgtree/internal/output/multi"
	"github.com/crimson-sun/orgtree/internal/output/stdout"
	"github.com/crimson-sun/orgtree/internal/output/webhook"
	"github.com/crimson-sun/orgtree/internal/pipeline"

	// Register connector implementations.
	_ "github.com/crimson-sun/orgtree/internal/connector/cloudz"
	_ "github.com/crimson-sun/orgtree/internal/connector/file"
)

const metricsJob = "orgtree"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "orgtree: %v\n", err)
		return 1
	}

	fl, err := parseFlags(args, &cfg)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "orgtree: %v\n", err)
		return 2
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "orgtree: invalid configuration:\n%v\n", err)
		return 1
	}

	runID := logging.NewRunID()
	logger := logging.WithRunID(logging.Init(cfg.Output.Stdout, logging.ParseLevel(cfg.LogLevel)), runID)
	slog.SetDefault(logger)

	// Set up graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctor, err := connector.Get(cfg.Connector.Provider)
	if err != nil {
		logger.Error("failed to get connector", "error", err)
		return 1
	}

	out, err := buildOutput(cfg.Output)
	if err != nil {
		logger.Error("failed to create output", "error", err)
		return 1
	}

	m := metrics.New()
	opts := []pipeline.Option{pipeline.WithLogger(logger), pipeline.WithMetrics(m)}
	if cfg.Resolve.Prefetch {
		opts = append(opts, pipeline.WithPrefetch(cfg.Resolve.LookupConcurrency))
	}
	if cfg.Cache.RedisURL != "" {
		client, err := lookup.DialRedis(ctx, cfg.Cache.RedisURL)
		if err != nil {
			logger.Warn("redis cache unavailable, using in-memory cache", "error", err)
		} else {
			defer client.Close()
			opts = append(opts, pipeline.WithCache(lookup.NewRedisCache(client, cfg.Cache.TTL)))
		}
	}

	p := pipeline.New(ctor(), out, opts...)
	defer p.Close()

	connCfg := connectorConfig(cfg.Connector)
	logger.Info("orgtree: starting", "provider", connCfg.Provider, "supply_codes", connCfg.SupplyCodes)

	var report pipeline.Report
	if fl.customer != "" {
		var rec model.CustomerRecord
		rec, err = pipeline.ParseCustomer(fl.customer)
		if err == nil {
			report, err = p.RunRecords(ctx, connCfg, []model.CustomerRecord{rec})
		}
	} else {
		report, err = p.Run(ctx, connCfg)
	}

	if cfg.Metrics.PushgatewayURL != "" {
		if perr := m.Push(cfg.Metrics.PushgatewayURL, metricsJob); perr != nil {
			logger.Warn("failed to push metrics", "error", perr)
		}
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("run interrupted")
		} else {
			logger.Error("run failed", "error", err)
		}
		return 1
	}
	logger.Info("orgtree: done", "processed", report.Resolve.Processed, "top_level", report.TopLevel, "duration", report.Duration)
	return 0
}

// flagValues holds flags that are not part of config.Config.
type flagValues struct {
	customer string
}

// parseFlags applies command-line overrides on top of cfg.
func parseFlags(args []string, cfg *config.Config) (flagValues, error) {
	var fl flagValues
	fs := pflag.NewFlagSet("orgtree", pflag.ContinueOnError)
	fs.StringVar(&cfg.Connector.Provider, "provider", cfg.Connector.Provider, "customer source: cloudz or file")
	fs.StringSliceVar(&cfg.Connector.SupplyCodes, "supply-codes", cfg.Connector.SupplyCodes, "cloud supply codes to enumerate")
	fs.StringVar(&cfg.Connector.InputFile, "input", cfg.Connector.InputFile, "input file for the file provider")
	fs.BoolVar(&cfg.Connector.DatadogOnly, "datadog", cfg.Connector.DatadogOnly, "read the Datadog account list only")
	fs.StringVarP(&cfg.Output.File, "output", "o", cfg.Output.File, `tree file path; "-" writes to stdout instead`)
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.BoolVar(&cfg.Resolve.Prefetch, "prefetch", cfg.Resolve.Prefetch, "warm the lookup cache concurrently before resolving")
	fs.StringVar(&fl.customer, "customer", "", "resolve a single customer given as id[:name[:parentId[:parentName]]]")

	if err := fs.Parse(args); err != nil {
		return fl, err
	}
	if cfg.Output.File == "-" {
		cfg.Output.File = ""
		cfg.Output.Stdout = true
	}
	return fl, nil
}

func connectorConfig(c config.ConnectorConfig) connector.ConnectorConfig {
	return connector.ConnectorConfig{
		Provider:    c.Provider,
		Endpoint:    c.Endpoint,
		Username:    c.Username,
		Password:    c.Password,
		SupplyCodes: c.SupplyCodes,
		DatadogOnly: c.DatadogOnly,
		InputFile:   c.InputFile,
		Timeout:     c.Timeout,
	}
}

func buildOutput(c config.OutputConfig, opts ...file.Option) (output.Output, error) {
	var outs []output.Output
	if c.File != "" {
		f, err := file.New(c.File, opts...)
		if err != nil {
			return nil, err
		}
		outs = append(outs, f)
	}
	if c.Stdout {
		outs = append(outs, stdout.New())
	}
	if c.WebhookURL != "" {
		outs = append(outs, webhook.New(c.WebhookURL))
	}
	if len(outs) == 1 {
		return outs[0], nil
	}
	return multi.New(outs...), nil
}

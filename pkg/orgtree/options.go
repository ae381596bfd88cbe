package orgtree

import "log/slog"

type options struct {
	logger   *slog.Logger
	prefetch int
}

// Option configures a Resolve call.
type Option func(*options)

// WithLogger sets the logger for resolution events. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithPrefetch looks up every input customer with up to n concurrent calls
// before resolution starts. The result is the same as without prefetch.
// Default: 0 (disabled).
func WithPrefetch(n int) Option {
	return func(o *options) {
		o.prefetch = n
	}
}

func defaultOptions() options {
	return options{logger: slog.Default()}
}

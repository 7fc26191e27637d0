package store

import "log/slog"

// options holds shared store configuration.
type options struct {
	logger      *slog.Logger
	eventBuffer int
}

// Option configures a store at construction time.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		logger:      nil,
		eventBuffer: 16,
	}
}

// WithLogger sets the logger used for rollback and hydration diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventBuffer sets the per-subscriber event channel capacity.
func WithEventBuffer(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.eventBuffer = size
		}
	}
}

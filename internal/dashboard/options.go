package dashboard

import (
	"io"
	"log/slog"
	"time"
)

type options struct {
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
	idleTTL  time.Duration
}

// Option configures a Session or Registry.
type Option func(o *options)

func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIdleTTL sets how long an untouched session survives in a Registry.
func WithIdleTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.idleTTL = ttl
	}
}

func newOptions(opts []Option) options {
	o := options{
		observer: NopObserver{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
		idleTTL:  30 * time.Minute,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Package runctx tags a scrape run's context with an id and logger fields.
package runctx

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type key int

const runKey key = 0

// Run identifies one institution scrape
type Run struct {
	ID          string
	Institution string
	StartTime   time.Time
}

// WithRun returns a context carrying a new Run for institution
func WithRun(ctx context.Context, institution string) context.Context {
	return context.WithValue(ctx, runKey, &Run{
		ID:          uuid.NewString(),
		Institution: institution,
		StartTime:   time.Now(),
	})
}

// FromContext returns the Run in ctx, or a placeholder when none is set
func FromContext(ctx context.Context) *Run {
	if r, ok := ctx.Value(runKey).(*Run); ok {
		return r
	}
	return &Run{
		ID:        "unknown",
		StartTime: time.Now(),
	}
}

// Logger returns the global logger annotated with the run's fields
func Logger(ctx context.Context) zerolog.Logger {
	r := FromContext(ctx)
	return log.With().
		Str("run_id", r.ID).
		Str("institution", r.Institution).
		Logger()
}

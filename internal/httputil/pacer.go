// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across source clients.
package httputil

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a fixed courtesy delay between consecutive requests to
// one external API. The delay is not a backoff mechanism: it applies
// unconditionally between page fetches, regardless of the previous
// response, to respect the provider's informal rate expectations.
//
// The first Wait returns immediately; each subsequent Wait blocks until
// the configured interval has elapsed since the previous one.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer returns a Pacer with the given inter-request interval.
// A zero or negative interval disables pacing (used by tests).
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next request is allowed or the context is
// cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval is the minimum spacing between completion requests.
const DefaultInterval = 2 * time.Second

// Limiter spaces requests at least one interval apart. The zero value is
// not usable; construct with New.
type Limiter struct {
	mu       sync.Mutex
	lim      *rate.Limiter
	interval time.Duration
	last     time.Time

	// now and sleep are swappable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a limiter with the given minimum interval between requests.
// An interval <= 0 falls back to DefaultInterval.
func New(interval time.Duration) *Limiter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Limiter{
		lim:      rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// WithClock substitutes the time source. Tests use this to drive the
// limiter deterministically.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
	return l
}

// WithSleep substitutes the suspension primitive.
func (l *Limiter) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sleep = sleep
	return l
}

// Interval returns the configured minimum spacing.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// LastRequest returns the time of the most recently granted slot.
// Monotonically non-decreasing.
func (l *Limiter) LastRequest() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

// Wait blocks until the next request slot is available, then records it.
// The slot is reserved before the suspension starts, so the request time
// is committed even if several callers race into Wait.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := l.now()
	res := l.lim.ReserveN(now, 1)
	delay := res.DelayFrom(now)
	slot := now.Add(delay)
	if slot.After(l.last) {
		l.last = slot
	}
	sleep := l.sleep
	l.mu.Unlock()

	if delay <= 0 {
		return nil
	}
	if err := sleep(ctx, delay); err != nil {
		return err
	}
	return nil
}

// sleepCtx suspends for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

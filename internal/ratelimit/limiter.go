// Package ratelimit implements the sliding-window send limiter.
//
// The limiter is the single chokepoint every relay submission passes through.
// Its state is the set of grant timestamps inside the current window, owned by
// this object and explicitly reconstructed from the delivery log at startup so
// the rate contract holds across process restarts, not just within one
// lifetime.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Config parameterizes the limiter. MaxSends and Window always come from
// configuration; there is no default that bypasses the ceiling.
type Config struct {
	// MaxSends is the maximum number of permits granted within any
	// Window-length interval.
	MaxSends int
	// Window is the rolling interval the limit applies to.
	Window time.Duration
	// WarnThreshold is how long an Acquire may block before a starvation
	// warning is logged. Zero disables the warning.
	WarnThreshold time.Duration
}

// Validate rejects configurations under which no slot can ever be granted.
// Both values come straight from the environment, so the check belongs at
// startup, before the first Acquire.
func (c Config) Validate() error {
	if c.MaxSends < 1 {
		return fmt.Errorf("rate limit max sends must be at least 1, got %d", c.MaxSends)
	}
	if c.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive, got %s", c.Window)
	}
	return nil
}

// Limiter is a sliding-window rate limiter with blocking acquisition.
// Safe for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	grants []time.Time // ascending grant timestamps within the window

	config Config
	logger *slog.Logger

	// now is the clock source, replaceable in tests.
	now func() time.Time
}

// New creates a Limiter with the given configuration.
func New(config Config, logger *slog.Logger) *Limiter {
	return &Limiter{
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Validate reports whether the limiter's configuration can ever grant a slot.
func (l *Limiter) Validate() error {
	return l.config.Validate()
}

// Acquire blocks until a send slot is available or the context is canceled.
// Requests are never dropped, only delayed. A grant timestamp is recorded at
// the moment of acquisition, which is what keeps concurrent callers inside
// the ceiling.
func (l *Limiter) Acquire(ctx context.Context) error {
	start := l.now()
	warned := false

	var warnCh <-chan time.Time
	if l.config.WarnThreshold > 0 {
		warnTimer := time.NewTimer(l.config.WarnThreshold)
		defer warnTimer.Stop()
		warnCh = warnTimer.C
	}

	for {
		wait, ok := l.tryAcquire()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-warnCh:
			if !warned && l.logger != nil {
				l.logger.Warn("rate limiter starvation",
					slog.Duration("blocked_for", l.now().Sub(start)),
					slog.Int("max_sends", l.config.MaxSends),
					slog.Duration("window", l.config.Window),
				)
			}
			warned = true
			warnCh = nil
			timer.Stop()
		case <-timer.C:
		}
	}
}

// tryAcquire grants a slot if one is free. When the window is full it returns
// the duration until the oldest grant rolls out.
func (l *Limiter) tryAcquire() (wait time.Duration, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	if len(l.grants) < l.config.MaxSends {
		l.grants = append(l.grants, now)
		return 0, true
	}

	if len(l.grants) == 0 {
		// MaxSends < 1 slipped past Validate: there is no grant whose
		// expiry could open a slot, so block in window-length steps.
		return l.config.Window, false
	}

	return l.grants[0].Add(l.config.Window).Sub(now), false
}

// RecordSend registers that a slot was consumed at the given time. Used to
// rebuild window state after a restart; timestamps outside the current window
// are ignored.
func (l *Limiter) RecordSend(ts time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	if now.Sub(ts) >= l.config.Window {
		return
	}

	l.grants = append(l.grants, ts)
	sort.Slice(l.grants, func(i, j int) bool { return l.grants[i].Before(l.grants[j]) })
}

// Rebuild replays historical send timestamps into the window. Call once at
// startup with the delivery log's recent sent entries, before the first
// Acquire.
func (l *Limiter) Rebuild(timestamps []time.Time) {
	for _, ts := range timestamps {
		l.RecordSend(ts)
	}
}

// InWindow returns the number of grants currently inside the window.
func (l *Limiter) InWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.grants)
}

// prune drops grants that have rolled out of the window. Caller holds mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.config.Window)
	i := 0
	for i < len(l.grants) && !l.grants[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.grants = append(l.grants[:0], l.grants[i:]...)
	}
}

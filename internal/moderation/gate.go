// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package moderation

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
)

// Endpoint is the single moderation call the gate depends on.
// *openai.Client satisfies it.
type Endpoint interface {
	Moderate(ctx context.Context, text string) (flagged bool, err error)
}

// Verdict is the outcome of one moderation check.
type Verdict struct {
	// Flagged is true if the text was rejected, either by the endpoint
	// or by the fail-closed policy during an outage.
	Flagged bool

	// Degraded is true if the endpoint failed and the verdict came from
	// policy rather than the service.
	Degraded bool
}

// Gate applies moderation policy over a single-attempt endpoint call.
// Safe for concurrent use; the failure policy may be swapped at runtime
// (config hot reload).
type Gate struct {
	endpoint Endpoint

	mu         sync.RWMutex
	failClosed bool

	// degradedCalls counts checks that fell back to policy.
	degradedCalls atomic.Int64
}

// NewGate creates a gate with the fail-open default.
func NewGate(endpoint Endpoint) *Gate {
	return &Gate{endpoint: endpoint}
}

// SetFailClosed switches the outage policy. True means an unreachable
// moderation service rejects text instead of letting it through.
func (g *Gate) SetFailClosed(failClosed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failClosed = failClosed
}

// FailClosed reports the current outage policy.
func (g *Gate) FailClosed() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.failClosed
}

// DegradedCalls returns how many checks fell back to the outage policy.
func (g *Gate) DegradedCalls() int64 {
	return g.degradedCalls.Load()
}

// Check moderates the given text. Exactly one endpoint call is made; the
// returned verdict is always usable and errors never propagate.
func (g *Gate) Check(ctx context.Context, text string) Verdict {
	flagged, err := g.endpoint.Moderate(ctx, text)
	if err != nil {
		failClosed := g.FailClosed()
		g.degradedCalls.Add(1)
		log.Printf("moderation unavailable (fail-closed=%v): %v", failClosed, err)
		return Verdict{Flagged: failClosed, Degraded: true}
	}
	return Verdict{Flagged: flagged}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package moderation

import (
	"context"
	"errors"
	"testing"
)

// fakeEndpoint scripts moderation outcomes.
type fakeEndpoint struct {
	flagged bool
	err     error
	calls   int
}

func (f *fakeEndpoint) Moderate(ctx context.Context, text string) (bool, error) {
	f.calls++
	return f.flagged, f.err
}

func TestGate_Flagged(t *testing.T) {
	ep := &fakeEndpoint{flagged: true}
	gate := NewGate(ep)

	v := gate.Check(context.Background(), "some text")
	if !v.Flagged {
		t.Error("expected Flagged = true")
	}
	if v.Degraded {
		t.Error("expected Degraded = false")
	}
	if ep.calls != 1 {
		t.Errorf("endpoint calls = %d, want 1", ep.calls)
	}
}

func TestGate_FailOpenDefault(t *testing.T) {
	ep := &fakeEndpoint{err: errors.New("connection refused")}
	gate := NewGate(ep)

	v := gate.Check(context.Background(), "some text")
	if v.Flagged {
		t.Error("fail-open gate must not flag on endpoint failure")
	}
	if !v.Degraded {
		t.Error("expected Degraded = true on endpoint failure")
	}
	if gate.DegradedCalls() != 1 {
		t.Errorf("DegradedCalls = %d, want 1", gate.DegradedCalls())
	}
}

func TestGate_FailClosed(t *testing.T) {
	ep := &fakeEndpoint{err: errors.New("connection refused")}
	gate := NewGate(ep)
	gate.SetFailClosed(true)

	v := gate.Check(context.Background(), "some text")
	if !v.Flagged {
		t.Error("fail-closed gate must flag on endpoint failure")
	}
	if !v.Degraded {
		t.Error("expected Degraded = true")
	}
}

func TestGate_NoRetries(t *testing.T) {
	ep := &fakeEndpoint{err: errors.New("timeout")}
	gate := NewGate(ep)

	gate.Check(context.Background(), "text")
	if ep.calls != 1 {
		t.Errorf("endpoint calls = %d, want 1 (single attempt per check)", ep.calls)
	}
}

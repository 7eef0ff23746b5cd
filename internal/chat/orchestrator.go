// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/torohelp/deskchat/internal/classify"
	"github.com/torohelp/deskchat/internal/moderation"
	"github.com/torohelp/deskchat/internal/openai"
	"github.com/torohelp/deskchat/internal/ratelimit"
	"github.com/torohelp/deskchat/internal/transcript"
)

// Pipeline constants. Fixed at build time, not runtime-configurable.
const (
	// MinRequestInterval is the minimum spacing between completion calls.
	MinRequestInterval = 2 * time.Second

	// HistoryWindowTurns bounds the conversation context sent to the
	// completion API.
	HistoryWindowTurns = 6

	// PipelineTimeout bounds one turn end to end, including all backoff
	// sleeps. A turn that exceeds it delivers the apology.
	PipelineTimeout = 30 * time.Second
)

// ErrEmptyMessage is returned when Send is called with blank input.
// Nothing is appended to the transcript in that case.
var ErrEmptyMessage = errors.New("empty message")

// =============================================================================
// STAGES
// =============================================================================

// Stage identifies where in the pipeline the current turn is.
type Stage int32

const (
	StageIdle Stage = iota
	StageFiltering
	StageModerating
	StageRateLimited
	StageCompleting
	StageModeratingReply
)

// String returns the human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageFiltering:
		return "filtering"
	case StageModerating:
		return "moderating"
	case StageRateLimited:
		return "rate-limited"
	case StageCompleting:
		return "completing"
	case StageModeratingReply:
		return "moderating-reply"
	default:
		return "unknown"
	}
}

// =============================================================================
// OUTCOMES
// =============================================================================

// Outcome records which branch produced the assistant reply.
type Outcome int

const (
	// OutcomeReplied means the model's own (moderated) reply was delivered.
	OutcomeReplied Outcome = iota

	// OutcomeRejected means classification or moderation substituted the
	// fallback response.
	OutcomeRejected

	// OutcomeFailed means the completion call failed and the apology was
	// delivered.
	OutcomeFailed
)

// Result is the outcome of one orchestrated turn.
type Result struct {
	// Reply is the assistant message appended for this turn.
	Reply transcript.Message

	// Outcome records which branch produced the reply.
	Outcome Outcome
}

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Completer issues one completion call with bounded internal retry.
// *openai.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, history []openai.ChatMessage) (string, error)
}

// Moderator checks one piece of text. *moderation.Gate satisfies it.
type Moderator interface {
	Check(ctx context.Context, text string) moderation.Verdict
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Config holds orchestrator construction options.
type Config struct {
	// WindowTurns bounds the history window (default HistoryWindowTurns).
	WindowTurns int

	// Timeout bounds one turn end to end (default PipelineTimeout).
	Timeout time.Duration

	// SeedGreeting appends the assistant greeting to a fresh transcript.
	SeedGreeting bool
}

// Orchestrator runs the moderated response pipeline for one conversation.
type Orchestrator struct {
	// mu serializes turns: one Send runs at a time, so replies are
	// appended in submission order.
	mu sync.Mutex

	transcript *transcript.Transcript
	moderator  Moderator
	completer  Completer
	limiter    *ratelimit.Limiter

	windowTurns int
	timeout     time.Duration

	stage atomic.Int32
	busy  atomic.Bool

	// Turn counters for the session summary.
	rejected atomic.Int64
	failed   atomic.Int64
}

// New creates an orchestrator with its own transcript and rate limiter.
func New(completer Completer, moderator Moderator, cfg Config) *Orchestrator {
	if cfg.WindowTurns <= 0 {
		cfg.WindowTurns = HistoryWindowTurns
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = PipelineTimeout
	}

	o := &Orchestrator{
		transcript:  transcript.New(),
		moderator:   moderator,
		completer:   completer,
		limiter:     ratelimit.New(MinRequestInterval),
		windowTurns: cfg.WindowTurns,
		timeout:     cfg.Timeout,
	}
	if cfg.SeedGreeting {
		o.transcript.Append(transcript.NewMessage(transcript.AuthorAssistant, Greeting))
	}
	return o
}

// WithLimiter substitutes the rate limiter. Tests use this to install a
// limiter on a fake clock.
func (o *Orchestrator) WithLimiter(l *ratelimit.Limiter) *Orchestrator {
	if l != nil {
		o.limiter = l
	}
	return o
}

// Transcript returns the conversation transcript.
func (o *Orchestrator) Transcript() *transcript.Transcript {
	return o.transcript
}

// Busy reports whether a turn is currently in flight (typing indicator).
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// Stage returns the current pipeline stage.
func (o *Orchestrator) Stage() Stage {
	return Stage(o.stage.Load())
}

// RejectedTurns returns how many turns were rejected by classification
// or moderation.
func (o *Orchestrator) RejectedTurns() int64 {
	return o.rejected.Load()
}

// FailedTurns returns how many turns delivered the apology.
func (o *Orchestrator) FailedTurns() int64 {
	return o.failed.Load()
}

// =============================================================================
// THE PIPELINE
// =============================================================================

// Send runs one user turn through the pipeline and returns the assistant
// reply that was appended. Apart from ErrEmptyMessage, Send does not
// fail: every error path terminates in a fallback or apology reply so the
// transcript always gains exactly one user and one assistant message.
//
// Concurrent calls serialize; a second submission blocks until the first
// turn has delivered its reply.
func (o *Orchestrator) Send(ctx context.Context, text string) (Result, error) {
	if isBlank(text) {
		return Result{}, ErrEmptyMessage
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.busy.Store(true)
	defer o.busy.Store(false)
	defer o.stage.Store(int32(StageIdle))

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	// The user message lands in the transcript before anything else, so
	// the rendered conversation reflects what was sent even when the
	// pipeline substitutes a fallback reply.
	o.transcript.Append(transcript.NewMessage(transcript.AuthorUser, text))

	reply, outcome := o.respond(ctx, text)

	msg := transcript.NewMessage(transcript.AuthorAssistant, reply)
	o.transcript.Append(msg)

	switch outcome {
	case OutcomeRejected:
		o.rejected.Add(1)
	case OutcomeFailed:
		o.failed.Add(1)
	}
	return Result{Reply: msg, Outcome: outcome}, nil
}

// respond decides the assistant's reply text for one user turn.
func (o *Orchestrator) respond(ctx context.Context, text string) (string, Outcome) {
	// Filtering: reject before spending a single network call. Restricted
	// and off-topic input short-circuits to the fallback.
	o.stage.Store(int32(StageFiltering))
	if !classify.Classify(text).Allowed() {
		return FallbackResponse, OutcomeRejected
	}

	// Input moderation.
	o.stage.Store(int32(StageModerating))
	if o.moderator.Check(ctx, text).Flagged {
		return FallbackResponse, OutcomeRejected
	}

	// Rate limiting: wait out the minimum spacing. The slot is recorded
	// inside the limiter before the completion request goes out.
	o.stage.Store(int32(StageRateLimited))
	if err := o.limiter.Wait(ctx); err != nil {
		log.Printf("turn aborted waiting for rate-limit slot: %v", err)
		return ApologyResponse, OutcomeFailed
	}

	// Completion with the bounded history window. The window already ends
	// with the just-appended user message.
	o.stage.Store(int32(StageCompleting))
	history := o.transcript.Window(o.windowTurns)
	reply, err := o.completer.Complete(ctx, SystemPrompt, history)
	if err != nil {
		log.Printf("completion failed: %v", err)
		return ApologyResponse, OutcomeFailed
	}

	// Reply moderation: the model is not trusted to have honored the
	// system prompt.
	o.stage.Store(int32(StageModeratingReply))
	if o.moderator.Check(ctx, reply).Flagged || classify.ContainsRestricted(reply) {
		return FallbackResponse, OutcomeRejected
	}

	return reply, OutcomeReplied
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

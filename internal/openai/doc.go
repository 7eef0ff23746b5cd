// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package openai implements the HTTP client for the OpenAI API surface
// the assistant depends on: chat completions and the moderation endpoint.
//
// # Key Types
//
//   - Client: HTTP client with bounded retry on throttling responses
//   - ChatMessage: role/content pair in API wire format
//   - CompletionError: terminal completion failure carrying the last
//     underlying error
//
// # Retry Contract
//
// Complete makes at most MaxAttempts (3) requests. Only an HTTP 429 is
// retryable; the delay before attempt n+1 is BaseBackoff * 2^(n-1)
// (2s, 4s). Any other failure, or exhausting the attempts, returns a
// *CompletionError. Moderate makes exactly one request and never retries.
//
// # Usage
//
//	client := openai.NewClient(apiKey)
//	reply, err := client.Complete(ctx, systemPrompt, history)
//	flagged, err := client.Moderate(ctx, text)
package openai

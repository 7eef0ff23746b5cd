// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

// SystemPrompt constrains the model to the support domain. The reply
// moderation stage still re-checks the output; the prompt alone is not
// trusted.
const SystemPrompt = "You are a helpful IT support assistant. Only answer questions " +
	"related to networking, hardware, and ticketing. Do not answer anything else."

// FallbackResponse is the fixed assistant reply for input or output
// rejected by classification or moderation. It is a policy decision, not
// an error, so it reads like a redirect rather than a failure.
const FallbackResponse = "I’m here to help with IT support related to networking " +
	"(e.g., Wi-Fi, VPN), hardware problems (e.g., projectors, USBs, monitors), " +
	"and ticketing (e.g., submitting or tracking tickets). Please ask a question " +
	"about one of these topics."

// ApologyResponse is the assistant reply when the completion call fails
// terminally. The raw error never reaches the transcript.
const ApologyResponse = "Sorry, something went wrong. Please try again."

// Greeting seeds a new conversation with the assistant's opening message.
const Greeting = "Hello! I am your IT support assistant. I can help with networking, " +
	"hardware issues, and support ticket tracking. How can I assist you today?"

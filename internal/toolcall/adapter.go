// Package toolcall defines the contract between an agent loop and a provider
// specific tool-calling model.
package toolcall

import (
	"context"

	"github.com/florianilch/claudine-toolcall/internal/toolcall/conversation"
)

// Model defines the contract for one provider adapter.
//
// Implementations must not retain the history passed to them.
type Model interface {
	// Query sends the history to the provider and returns the assistant message with its
	// parsed actions in Extra.Actions. Malformed tool calls are reported as *FormatError,
	// whose Message should be appended to the history so the model can correct itself.
	Query(ctx context.Context, history []conversation.Message) (conversation.Message, error)

	// FormatObservationMessages renders execution outputs as tool messages, paired
	// positionally with the actions of the message that requested them.
	FormatObservationMessages(
		message conversation.Message,
		outputs []conversation.ExecutionOutput,
		templateVars map[string]any,
	) ([]conversation.Message, error)
}

// Type aliases for the conversation model, so callers of the contract need a single import.
type (
	Message         = conversation.Message
	ToolInvocation  = conversation.ToolInvocation
	ExecutionOutput = conversation.ExecutionOutput
)

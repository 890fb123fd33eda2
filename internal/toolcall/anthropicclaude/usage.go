package anthropicclaude

import (
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/florianilch/claudine-toolcall/internal/toolcall/conversation"
)

// toUsage converts Anthropic usage metadata, including prompt cache activity.
func toUsage(usage anthropic.Usage) *conversation.Usage {
	return &conversation.Usage{
		InputTokens:              usage.InputTokens,
		OutputTokens:             usage.OutputTokens,
		CacheCreationInputTokens: usage.CacheCreationInputTokens,
		CacheReadInputTokens:     usage.CacheReadInputTokens,
	}
}

// usageAttr groups token usage for logging. Cache counters show whether the
// breakpoint placed by AnnotateCache is being hit.
func usageAttr(usage *conversation.Usage) slog.Attr {
	if usage == nil {
		return slog.Attr{}
	}
	return slog.Group("usage",
		slog.Int64("input_tokens", usage.InputTokens),
		slog.Int64("output_tokens", usage.OutputTokens),
		slog.Int64("cache_creation_input_tokens", usage.CacheCreationInputTokens),
		slog.Int64("cache_read_input_tokens", usage.CacheReadInputTokens),
	)
}

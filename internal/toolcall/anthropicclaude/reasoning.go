package anthropicclaude

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
)

// ReasoningEffort selects the extended thinking budget. Empty disables thinking.
type ReasoningEffort string

const (
	ReasoningEffortNone   ReasoningEffort = ""
	ReasoningEffortLow    ReasoningEffort = "low"
	ReasoningEffortMedium ReasoningEffort = "medium"
	ReasoningEffortHigh   ReasoningEffort = "high"
)

// minOutputTokens is reserved on top of the thinking budget, since Anthropic counts
// thinking against max_tokens.
const minOutputTokens int64 = 1024

// thinkingBudget returns the thinking budget for an effort: 1024 tokens for low,
// 8192 for medium and 24576 for high.
func thinkingBudget(effort ReasoningEffort) (int64, error) {
	switch effort {
	case ReasoningEffortNone:
		return 0, nil
	case ReasoningEffortLow:
		return 1024, nil
	case ReasoningEffortMedium:
		return 8192, nil
	case ReasoningEffortHigh:
		return 24576, nil
	default:
		return 0, fmt.Errorf("unsupported reasoning effort %q (expected: low, medium, high)", effort)
	}
}

// buildThinking builds Anthropic's thinking configuration and the max_tokens value
// that leaves room for it. A zero union is returned when thinking is disabled.
func buildThinking(effort ReasoningEffort, maxTokens int64) (anthropic.ThinkingConfigParamUnion, int64, error) {
	var thinking anthropic.ThinkingConfigParamUnion

	budget, err := thinkingBudget(effort)
	if err != nil {
		return thinking, maxTokens, err
	}
	if budget == 0 {
		return thinking, maxTokens, nil
	}

	if maxTokens < budget+minOutputTokens {
		maxTokens = budget + minOutputTokens
	}

	return anthropic.ThinkingConfigParamOfEnabled(budget), maxTokens, nil
}

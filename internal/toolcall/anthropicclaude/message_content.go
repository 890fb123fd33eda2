package anthropicclaude

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/florianilch/claudine-toolcall/internal/toolcall/conversation"
)

// fromMessages converts a conversation history to Anthropic's system blocks and messages.
//
// System messages are hoisted to the System field in order. Consecutive tool messages
// are merged into a single user message of tool_result blocks, because Anthropic requires
// every tool_use of an assistant turn to be answered by the immediately following message.
func fromMessages(history []conversation.Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam, error) {
	var system []anthropic.TextBlockParam
	messages := make([]anthropic.MessageParam, 0, len(history))

	for i := 0; i < len(history); i++ {
		msg := history[i]

		switch msg.Role {
		case conversation.RoleSystem:
			if msg.Content == "" {
				continue
			}
			block := anthropic.TextBlockParam{Text: msg.Content}
			if msg.IsCacheBreakpoint() {
				block.CacheControl = anthropic.NewCacheControlEphemeralParam()
			}
			system = append(system, block)

		case conversation.RoleUser:
			if msg.Content == "" {
				continue
			}
			blocks := []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(msg.Content)}
			applyCacheControl(blocks, msg)
			messages = append(messages, anthropic.NewUserMessage(blocks...))

		case conversation.RoleAssistant:
			blocks, err := fromAssistantMessage(msg)
			if err != nil {
				return nil, nil, fmt.Errorf("transform assistant message %d: %w", i, err)
			}
			if len(blocks) == 0 {
				continue
			}
			messages = append(messages, anthropic.NewAssistantMessage(blocks...))

		case conversation.RoleTool:
			var blocks []anthropic.ContentBlockParamUnion
			j := i
			for ; j < len(history) && history[j].Role == conversation.RoleTool; j++ {
				toolMsg := history[j]
				if toolMsg.ToolCallID == "" {
					return nil, nil, fmt.Errorf("tool message %d is missing tool_call_id", j)
				}
				block := []anthropic.ContentBlockParamUnion{
					anthropic.NewToolResultBlock(toolMsg.ToolCallID, toolMsg.Content, toolMsg.Extra.ExceptionInfo != ""),
				}
				applyCacheControl(block, toolMsg)
				blocks = append(blocks, block...)
			}
			messages = append(messages, anthropic.NewUserMessage(blocks...))
			i = j - 1

		default:
			return nil, nil, fmt.Errorf("message %d has unsupported role %q", i, msg.Role)
		}
	}

	return system, messages, nil
}

// fromAssistantMessage converts an assistant message to content blocks: thinking first,
// then text, then one tool_use block per action.
func fromAssistantMessage(msg conversation.Message) ([]anthropic.ContentBlockParamUnion, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Extra.Thinking)+len(msg.Extra.Actions)+1)

	// Signed thinking blocks are required when resending a tool_use turn with thinking enabled.
	for _, thinking := range msg.Extra.Thinking {
		if thinking.Redacted {
			blocks = append(blocks, anthropic.NewRedactedThinkingBlock(thinking.Data))
			continue
		}
		blocks = append(blocks, anthropic.NewThinkingBlock(thinking.Signature, thinking.Thinking))
	}

	if msg.Content != "" {
		blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
	}

	for i, action := range msg.Extra.Actions {
		if action.ID == "" {
			return nil, fmt.Errorf("action %d is missing tool_call_id", i)
		}
		input := action.Arguments
		if input == nil {
			input = map[string]any{"command": action.Command}
		}
		name := action.Name
		if name == "" {
			name = BashToolName
		}
		blocks = append(blocks, anthropic.ContentBlockParamUnion{
			OfToolUse: &anthropic.ToolUseBlockParam{
				ID:    action.ID,
				Input: input,
				Name:  name,
			},
		})
	}

	applyCacheControl(blocks, msg)
	return blocks, nil
}

// applyCacheControl marks the last content block as an ephemeral cache breakpoint
// when the message carries a cache marker. Thinking blocks cannot carry one.
func applyCacheControl(blocks []anthropic.ContentBlockParamUnion, msg conversation.Message) {
	if !msg.IsCacheBreakpoint() || len(blocks) == 0 {
		return
	}

	block := &blocks[len(blocks)-1]
	cacheCtrl := anthropic.NewCacheControlEphemeralParam()
	switch {
	case block.OfText != nil:
		block.OfText.CacheControl = cacheCtrl
	case block.OfToolUse != nil:
		block.OfToolUse.CacheControl = cacheCtrl
	case block.OfToolResult != nil:
		block.OfToolResult.CacheControl = cacheCtrl
	}
}

package anthropicclaude

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/florianilch/claudine-toolcall/internal/toolcall"
	"github.com/florianilch/claudine-toolcall/internal/toolcall/conversation"
)

// responseParser turns Anthropic responses into assistant messages.
type responseParser struct {
	formatError *template.Template
}

// toMessage converts an Anthropic response into an assistant message with parsed actions.
// A *toolcall.FormatError is returned when any tool call is malformed; no actions are
// returned in that case.
func (p *responseParser) toMessage(resp *anthropic.Message) (conversation.Message, error) {
	if resp == nil {
		return conversation.Message{}, fmt.Errorf("anthropic response is nil")
	}

	actions, err := p.parseActions(resp.Content)
	if err != nil {
		return conversation.Message{}, err
	}

	var text []string
	var thinking []conversation.ThinkingBlock
	for _, block := range resp.Content {
		// Union fields are read directly; they reflect streamed deltas
		switch block.Type {
		case "text":
			if block.Text != "" {
				text = append(text, block.Text)
			}
		case "thinking":
			thinking = append(thinking, conversation.ThinkingBlock{
				Thinking:  block.Thinking,
				Signature: block.Signature,
			})
		case "redacted_thinking":
			thinking = append(thinking, conversation.ThinkingBlock{
				Redacted: true,
				Data:     block.Data,
			})
		}
	}

	return conversation.Message{
		Role:    conversation.RoleAssistant,
		Content: strings.Join(text, "\n\n"),
		Extra: conversation.Extra{
			Actions:    actions,
			Thinking:   thinking,
			StopReason: string(resp.StopReason),
			Usage:      toUsage(resp.Usage),
		},
	}, nil
}

// parseActions extracts bash invocations from tool_use blocks in provider order.
//
// Every tool call of the turn is checked before deciding. If any of them has undecodable
// arguments or names an unknown tool, the whole turn is rejected with a FormatError whose
// content lists every problem, so no partially understood batch is ever executed.
func (p *responseParser) parseActions(content []anthropic.ContentBlockUnion) ([]conversation.ToolInvocation, error) {
	var actions []conversation.ToolInvocation
	var problems []string

	for _, block := range content {
		toolUse, ok := block.AsAny().(anthropic.ToolUseBlock)
		if !ok {
			continue
		}

		var errorMsg string
		var args map[string]any
		var command string

		raw := toolUse.Input
		if len(bytes.TrimSpace(raw)) == 0 {
			raw = json.RawMessage("{}")
		}
		if err := json.Unmarshal(raw, &args); err != nil {
			errorMsg = fmt.Sprintf("Error parsing tool call arguments: %v.", err)
		} else if toolUse.Name == BashToolName {
			cmd, err := decodeBashArgs(args)
			if err != nil {
				errorMsg = fmt.Sprintf("Error parsing tool call arguments: %v.", err)
			}
			command = cmd
		}

		if toolUse.Name != BashToolName {
			unknown, err := p.renderUnknownTool(toolUse.Name)
			if err != nil {
				return nil, err
			}
			errorMsg += unknown
		}

		if errorMsg != "" {
			problems = append(problems, errorMsg)
			continue
		}

		actions = append(actions, conversation.ToolInvocation{
			Name:      toolUse.Name,
			Command:   command,
			Arguments: args,
			ID:        toolUse.ID,
		})
	}

	if len(problems) > 0 {
		return nil, toolcall.NewFormatError(strings.Join(problems, "\n"))
	}

	return actions, nil
}

// renderUnknownTool renders the correction for a call to an unsupported tool.
func (p *responseParser) renderUnknownTool(name string) (string, error) {
	var buf bytes.Buffer
	err := p.formatError.Execute(&buf, map[string]any{
		"tool_name":   name,
		"valid_tools": BashToolName,
	})
	if err != nil {
		return "", fmt.Errorf("%w: format error template: %w", toolcall.ErrTemplateRender, err)
	}
	return buf.String(), nil
}

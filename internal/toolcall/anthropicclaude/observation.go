package anthropicclaude

import (
	"bytes"
	"fmt"
	"maps"
	"text/template"
	"time"

	"github.com/florianilch/claudine-toolcall/internal/toolcall"
	"github.com/florianilch/claudine-toolcall/internal/toolcall/conversation"
)

// parseTemplate compiles a strict template: referencing a missing variable fails at
// render time instead of printing "<no value>".
func parseTemplate(name, text string) (*template.Template, error) {
	tpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", toolcall.ErrTemplateParse, name, err)
	}
	return tpl, nil
}

// observationFormatter renders execution outputs as tool messages.
type observationFormatter struct {
	template *template.Template
	now      func() time.Time
}

// format pairs actions[i] with outputs[i] and renders one tool message per pair,
// preserving order and copying the tool call id verbatim.
func (f *observationFormatter) format(
	message conversation.Message,
	outputs []conversation.ExecutionOutput,
	templateVars map[string]any,
) ([]conversation.Message, error) {
	actions := message.Extra.Actions
	if len(actions) != len(outputs) {
		return nil, fmt.Errorf("%w: %d actions, %d outputs", toolcall.ErrObservationMismatch, len(actions), len(outputs))
	}

	results := make([]conversation.Message, 0, len(outputs))
	for i, output := range outputs {
		content, err := f.render(output, templateVars)
		if err != nil {
			return nil, fmt.Errorf("render observation %d (tool_call_id %s): %w", i, actions[i].ID, err)
		}

		raw := output.Output
		extra := conversation.Extra{
			RawOutput:  &raw,
			ReturnCode: output.ReturnCode,
			Timestamp:  f.now(),
		}
		if output.ExceptionInfo != "" {
			extra.ExceptionInfo = output.ExceptionInfo
			extra.Metadata = maps.Clone(output.Extra)
		}

		results = append(results, conversation.Message{
			Role:       conversation.RoleTool,
			Content:    content,
			ToolCallID: actions[i].ID,
			Extra:      extra,
		})
	}

	return results, nil
}

// render executes the observation template with the caller's variables plus "output".
func (f *observationFormatter) render(output conversation.ExecutionOutput, templateVars map[string]any) (string, error) {
	data := make(map[string]any, len(templateVars)+1)
	maps.Copy(data, templateVars)
	data["output"] = outputTemplateData(output)

	var buf bytes.Buffer
	if err := f.template.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %w", toolcall.ErrTemplateRender, err)
	}
	return buf.String(), nil
}

// outputTemplateData exposes an execution output under the snake_case keys the
// templates use. A missing return code renders as an empty value.
func outputTemplateData(output conversation.ExecutionOutput) map[string]any {
	var returnCode any = ""
	if output.ReturnCode != nil {
		returnCode = *output.ReturnCode
	}
	extra := output.Extra
	if extra == nil {
		extra = map[string]any{}
	}
	return map[string]any{
		"output":         output.Output,
		"returncode":     returnCode,
		"exception_info": output.ExceptionInfo,
		"extra":          extra,
	}
}

package anthropicclaude

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/florianilch/claudine-toolcall/internal/toolcall/conversation"
)

const (
	DefaultModel     = anthropic.ModelClaudeSonnet4_5_20250929
	DefaultMaxTokens = 4096

	// DefaultObservationTemplate renders an execution output as a tool result.
	DefaultObservationTemplate = "<returncode>{{.output.returncode}}</returncode>\n" +
		"{{if .output.exception_info}}<exception>{{.output.exception_info}}</exception>\n{{end}}" +
		"<output>\n{{.output.output}}</output>"

	// DefaultFormatErrorTemplate renders the correction for a call to an unknown tool.
	DefaultFormatErrorTemplate = "Unknown tool '{{.tool_name}}'. Valid tools: {{.valid_tools}}"
)

// Config is the model configuration of the adapter.
type Config struct {
	Model           string
	MaxTokens       int64
	Temperature     *float64
	ReasoningEffort ReasoningEffort
	CacheControl    CacheMode

	// ObservationTemplate renders each execution output; it receives the caller's
	// template variables plus "output". Missing variables fail rendering.
	ObservationTemplate string

	// FormatErrorTemplate renders the correction for an unknown tool; it receives
	// "tool_name" and "valid_tools".
	FormatErrorTemplate string

	// Headers are caller supplied extra request headers. They are never mutated.
	Headers map[string]string
}

// withDefaults returns cfg with unset fields filled in.
func (cfg Config) withDefaults() Config {
	if cfg.Model == "" {
		cfg.Model = string(DefaultModel)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.ObservationTemplate == "" {
		cfg.ObservationTemplate = DefaultObservationTemplate
	}
	if cfg.FormatErrorTemplate == "" {
		cfg.FormatErrorTemplate = DefaultFormatErrorTemplate
	}
	return cfg
}

// request is a fully assembled outbound call.
type request struct {
	params  anthropic.MessageNewParams
	headers map[string]string
}

// options returns one request option per extra header.
func (r request) options() []option.RequestOption {
	opts := make([]option.RequestOption, 0, len(r.headers))
	for name, value := range r.headers {
		opts = append(opts, option.WithHeader(name, value))
	}
	return opts
}

// buildRequest assembles the Anthropic request for an already annotated history.
// The history is read only.
func buildRequest(history []conversation.Message, cfg Config) (request, error) {
	system, messages, err := fromMessages(history)
	if err != nil {
		return request{}, fmt.Errorf("transform messages: %w", err)
	}

	thinking, maxTokens, err := buildThinking(cfg.ReasoningEffort, cfg.MaxTokens)
	if err != nil {
		return request{}, fmt.Errorf("build thinking config: %w", err)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(cfg.Model),
		MaxTokens: maxTokens,
		System:    system,
		Messages:  messages,
		Tools:     []anthropic.ToolUnionParam{bashTool()},
	}

	if thinking.OfEnabled != nil {
		params.Thinking = thinking
	} else if cfg.Temperature != nil {
		// Temperature cannot be set with extended thinking enabled
		params.Temperature = anthropic.Float(*cfg.Temperature)
	}

	return request{
		params:  params,
		headers: BuildHeaders(cfg.Headers, cfg.ReasoningEffort),
	}, nil
}

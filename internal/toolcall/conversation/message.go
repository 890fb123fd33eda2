package conversation

import (
	"maps"
	"slices"
	"time"
)

// Role tags the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// CacheControlTypeEphemeral is the only cache breakpoint type Anthropic supports.
const CacheControlTypeEphemeral = "ephemeral"

// InterruptTypeFormatError marks a corrective message produced from malformed model output.
const InterruptTypeFormatError = "FormatError"

// Message is a single role-tagged entry of a conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// ToolCallID correlates a tool result with the invocation that produced it.
	// Only set on RoleTool messages.
	ToolCallID string `json:"tool_call_id,omitempty"`

	Extra Extra `json:"extra,omitzero"`
}

// Extra carries typed message metadata. All fields are optional.
type Extra struct {
	// Actions lists the tool invocations requested by an assistant message, in provider order.
	Actions []ToolInvocation `json:"actions,omitempty"`

	// Thinking preserves extended thinking blocks of an assistant message. They must be
	// sent back unchanged for thinking to continue across tool calls.
	Thinking []ThinkingBlock `json:"thinking,omitempty"`

	RawOutput     *string   `json:"raw_output,omitempty"`
	ReturnCode    *int      `json:"returncode,omitempty"`
	Timestamp     time.Time `json:"timestamp,omitzero"`
	ExceptionInfo string    `json:"exception_info,omitempty"`
	InterruptType string    `json:"interrupt_type,omitempty"`

	// CacheControl marks the message as a provider-side prompt cache breakpoint.
	CacheControl *CacheControl `json:"cache_control,omitempty"`

	StopReason string `json:"stop_reason,omitempty"`
	Usage      *Usage `json:"usage,omitempty"`

	// Metadata holds executor supplied fields without a dedicated slot.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ToolInvocation is a structured action extracted from a model response.
type ToolInvocation struct {
	Name      string         `json:"name"`
	Command   string         `json:"command"`
	Arguments map[string]any `json:"arguments,omitempty"`

	// ID is the provider's tool call identifier, reproduced verbatim in the tool result.
	ID string `json:"tool_call_id"`
}

// ExecutionOutput is the result of executing one ToolInvocation.
type ExecutionOutput struct {
	Output        string         `json:"output"`
	ReturnCode    *int           `json:"returncode,omitempty"`
	ExceptionInfo string         `json:"exception_info,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// CacheControl describes a prompt cache breakpoint.
type CacheControl struct {
	Type string `json:"type"`
}

// ThinkingBlock is an extended thinking block. Redacted blocks carry only Data.
type ThinkingBlock struct {
	Thinking  string `json:"thinking,omitempty"`
	Signature string `json:"signature,omitempty"`
	Redacted  bool   `json:"redacted,omitempty"`
	Data      string `json:"data,omitempty"`
}

// Usage reports token accounting of a model turn, including prompt cache activity.
type Usage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens,omitempty"`
}

// Clone returns a copy of m whose slices and maps do not alias m's.
func (m Message) Clone() Message {
	out := m
	out.Extra.Actions = slices.Clone(m.Extra.Actions)
	for i := range out.Extra.Actions {
		out.Extra.Actions[i].Arguments = maps.Clone(out.Extra.Actions[i].Arguments)
	}
	out.Extra.Thinking = slices.Clone(m.Extra.Thinking)
	out.Extra.Metadata = maps.Clone(m.Extra.Metadata)
	if m.Extra.CacheControl != nil {
		cc := *m.Extra.CacheControl
		out.Extra.CacheControl = &cc
	}
	if m.Extra.RawOutput != nil {
		raw := *m.Extra.RawOutput
		out.Extra.RawOutput = &raw
	}
	if m.Extra.ReturnCode != nil {
		rc := *m.Extra.ReturnCode
		out.Extra.ReturnCode = &rc
	}
	if m.Extra.Usage != nil {
		u := *m.Extra.Usage
		out.Extra.Usage = &u
	}
	return out
}

// IsCacheBreakpoint reports whether the message carries a cache marker.
func (m Message) IsCacheBreakpoint() bool {
	return m.Extra.CacheControl != nil
}

// Package anthropicclaude adapts a generic tool-calling conversation to Anthropic
// Claude's Messages API.
//
// The adapter handles:
//
//   - Prompt caching: AnnotateCache marks a single breakpoint at the end of the growing
//     conversation. Reapplying it moves the marker instead of accumulating markers.
//
//   - Request building: System messages are hoisted to Anthropic's System field while
//     preserving conversation order. Tool messages are merged when consecutive (required
//     by Anthropic's role alternation rules). A single bash tool is always attached.
//
//   - Interleaved thinking: When a reasoning effort is configured, thinking is enabled and
//     the interleaved-thinking beta token is merged into the anthropic-beta header, so
//     Claude keeps producing thinking blocks after tool results.
//
//   - Response parsing: tool_use blocks become conversation.ToolInvocation values. Any
//     malformed or unknown tool call turns the whole turn into a *toolcall.FormatError
//     carrying a corrective message instead of partial actions.
//
//   - Observations: Execution outputs are rendered through a strict text/template into
//     tool messages that keep the originating tool_use id.
package anthropicclaude

package anthropicclaude

import (
	"encoding/json"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/claudine-toolcall/internal/toolcall/conversation"
)

// toJSONMap marshals v and decodes it into generic maps for wire-level assertions.
func toJSONMap(t *testing.T, v any) map[string]any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

// countKey counts occurrences of key anywhere in a decoded JSON value.
func countKey(v any, key string) int {
	n := 0
	switch x := v.(type) {
	case map[string]any:
		for k, child := range x {
			if k == key {
				n++
			}
			n += countKey(child, key)
		}
	case []any:
		for _, child := range x {
			n += countKey(child, key)
		}
	}
	return n
}

func contentBlocks(t *testing.T, body map[string]any, messageIndex int) []any {
	t.Helper()
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Greater(t, len(messages), messageIndex)
	msg, ok := messages[messageIndex].(map[string]any)
	require.True(t, ok)
	blocks, ok := msg["content"].([]any)
	require.True(t, ok)
	return blocks
}

func TestBuildRequest_AttachesSingleBashTool(t *testing.T) {
	t.Parallel()
	req, err := buildRequest([]conversation.Message{{Role: conversation.RoleUser, Content: "hi"}}, Config{}.withDefaults())
	require.NoError(t, err)

	require.Len(t, req.params.Tools, 1)
	tool := req.params.Tools[0].OfTool
	require.NotNil(t, tool)
	assert.Equal(t, "bash", tool.Name)
	assert.Equal(t, []string{"command"}, tool.InputSchema.Required)

	body := toJSONMap(t, req.params)
	tools := body["tools"].([]any)
	schema := tools[0].(map[string]any)["input_schema"].(map[string]any)
	assert.Equal(t, "object", schema["type"])
	command := schema["properties"].(map[string]any)["command"].(map[string]any)
	assert.Equal(t, "string", command["type"])
}

func TestBuildRequest_HoistsSystemAndMergesToolResults(t *testing.T) {
	t.Parallel()
	history := []conversation.Message{
		{Role: conversation.RoleSystem, Content: "system prompt"},
		{Role: conversation.RoleUser, Content: "fix bug"},
		{
			Role:    conversation.RoleAssistant,
			Content: "Let me look.",
			Extra: conversation.Extra{
				Thinking: []conversation.ThinkingBlock{{Thinking: "hmm", Signature: "sig"}},
				Actions: []conversation.ToolInvocation{
					{Name: "bash", Command: "ls", Arguments: map[string]any{"command": "ls"}, ID: "toolu_1"},
					{Name: "bash", Command: "pwd", ID: "toolu_2"},
				},
			},
		},
		{Role: conversation.RoleTool, Content: "a.go", ToolCallID: "toolu_1"},
		{Role: conversation.RoleTool, Content: "boom", ToolCallID: "toolu_2", Extra: conversation.Extra{ExceptionInfo: "timeout"}},
	}

	req, err := buildRequest(history, Config{}.withDefaults())
	require.NoError(t, err)

	require.Len(t, req.params.System, 1)
	assert.Equal(t, "system prompt", req.params.System[0].Text)

	require.Len(t, req.params.Messages, 3)
	assert.Equal(t, anthropic.MessageParamRoleUser, req.params.Messages[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, req.params.Messages[1].Role)
	assert.Equal(t, anthropic.MessageParamRoleUser, req.params.Messages[2].Role)

	assistant := req.params.Messages[1].Content
	require.Len(t, assistant, 4)
	require.NotNil(t, assistant[0].OfThinking)
	assert.Equal(t, "sig", assistant[0].OfThinking.Signature)
	require.NotNil(t, assistant[1].OfText)
	require.NotNil(t, assistant[2].OfToolUse)
	assert.Equal(t, "toolu_1", assistant[2].OfToolUse.ID)
	require.NotNil(t, assistant[3].OfToolUse)
	assert.Equal(t, "toolu_2", assistant[3].OfToolUse.ID)

	results := req.params.Messages[2].Content
	require.Len(t, results, 2)
	require.NotNil(t, results[0].OfToolResult)
	assert.Equal(t, "toolu_1", results[0].OfToolResult.ToolUseID)
	require.NotNil(t, results[1].OfToolResult)
	assert.Equal(t, "toolu_2", results[1].OfToolResult.ToolUseID)

	body := toJSONMap(t, req.params)
	toolUse := contentBlocks(t, body, 1)[3].(map[string]any)
	assert.Equal(t, map[string]any{"command": "pwd"}, toolUse["input"])
	failed := contentBlocks(t, body, 2)[1].(map[string]any)
	assert.Equal(t, true, failed["is_error"])
}

func TestBuildRequest_CacheMarkerOnLastBlock(t *testing.T) {
	t.Parallel()
	history, err := AnnotateCache(sampleHistory(), CacheModeDefaultEnd)
	require.NoError(t, err)

	req, err := buildRequest(history, Config{}.withDefaults())
	require.NoError(t, err)

	body := toJSONMap(t, req.params)
	assert.Equal(t, 1, countKey(body, "cache_control"))

	last := contentBlocks(t, body, len(req.params.Messages)-1)
	block := last[len(last)-1].(map[string]any)
	assert.Equal(t, "tool_result", block["type"])
	assert.Equal(t, map[string]any{"type": "ephemeral"}, block["cache_control"])
}

func TestBuildRequest_CacheMarkerSurvivesTrailingEmptyMessage(t *testing.T) {
	t.Parallel()
	history := []conversation.Message{
		{Role: conversation.RoleUser, Content: "fix"},
		{
			Role:  conversation.RoleAssistant,
			Extra: conversation.Extra{Actions: []conversation.ToolInvocation{{Name: "bash", Command: "ls", ID: "t1"}}},
		},
		{Role: conversation.RoleTool, Content: "a.go", ToolCallID: "t1"},
		{Role: conversation.RoleUser, Content: ""},
	}
	annotated, err := AnnotateCache(history, CacheModeDefaultEnd)
	require.NoError(t, err)

	req, err := buildRequest(annotated, Config{}.withDefaults())
	require.NoError(t, err)

	body := toJSONMap(t, req.params)
	assert.Equal(t, 1, countKey(body, "cache_control"))
	result := contentBlocks(t, body, 2)[0].(map[string]any)
	assert.Equal(t, "tool_result", result["type"])
	assert.Contains(t, result, "cache_control")
}

func TestBuildRequest_SystemOnlyHistoryCachesSystemBlock(t *testing.T) {
	t.Parallel()
	annotated, err := AnnotateCache([]conversation.Message{{Role: conversation.RoleSystem, Content: "system"}}, CacheModeDefaultEnd)
	require.NoError(t, err)

	req, err := buildRequest(annotated, Config{}.withDefaults())
	require.NoError(t, err)

	require.Len(t, req.params.System, 1)
	assert.Equal(t, 1, countKey(toJSONMap(t, req.params), "cache_control"))
}

func TestBuildRequest_Thinking(t *testing.T) {
	t.Parallel()
	temperature := 0.2
	cfg := Config{MaxTokens: 2048, Temperature: &temperature, ReasoningEffort: ReasoningEffortMedium}.withDefaults()

	req, err := buildRequest([]conversation.Message{{Role: conversation.RoleUser, Content: "hi"}}, cfg)
	require.NoError(t, err)

	require.NotNil(t, req.params.Thinking.OfEnabled)
	assert.Equal(t, int64(8192), req.params.Thinking.OfEnabled.BudgetTokens)
	assert.Equal(t, int64(8192+1024), req.params.MaxTokens)
	assert.False(t, req.params.Temperature.Valid(), "temperature must be omitted with thinking")
	assert.Equal(t, InterleavedThinkingBeta, req.headers["Anthropic-Beta"])
}

func TestBuildRequest_NoThinking(t *testing.T) {
	t.Parallel()
	temperature := 0.2
	cfg := Config{MaxTokens: 2048, Temperature: &temperature}.withDefaults()

	req, err := buildRequest([]conversation.Message{{Role: conversation.RoleUser, Content: "hi"}}, cfg)
	require.NoError(t, err)

	assert.Nil(t, req.params.Thinking.OfEnabled)
	assert.Equal(t, int64(2048), req.params.MaxTokens)
	assert.True(t, req.params.Temperature.Valid())
	assert.NotContains(t, req.headers, "Anthropic-Beta")
}

func TestBuildRequest_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		history []conversation.Message
		cfg     Config
		wantErr string
	}{
		{
			name:    "unknown role",
			history: []conversation.Message{{Role: "narrator", Content: "x"}},
			wantErr: "unsupported role",
		},
		{
			name:    "tool message without id",
			history: []conversation.Message{{Role: conversation.RoleTool, Content: "x"}},
			wantErr: "missing tool_call_id",
		},
		{
			name: "action without id",
			history: []conversation.Message{{
				Role:  conversation.RoleAssistant,
				Extra: conversation.Extra{Actions: []conversation.ToolInvocation{{Command: "ls"}}},
			}},
			wantErr: "missing tool_call_id",
		},
		{
			name:    "unknown reasoning effort",
			history: []conversation.Message{{Role: conversation.RoleUser, Content: "x"}},
			cfg:     Config{ReasoningEffort: "extreme"},
			wantErr: "unsupported reasoning effort",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := buildRequest(tt.history, tt.cfg.withDefaults())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRequestOptions_OnePerHeader(t *testing.T) {
	t.Parallel()
	req := request{headers: map[string]string{"Anthropic-Beta": "x", "X-Custom": "y"}}
	assert.Len(t, req.options(), 2)
}

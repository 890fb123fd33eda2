package anthropicclaude

import (
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/mitchellh/mapstructure"
)

// BashToolName is the only tool the model may call.
const BashToolName = "bash"

// bashTool returns the tool definition attached to every request: one required
// string argument "command".
func bashTool() anthropic.ToolUnionParam {
	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        BashToolName,
			Description: anthropic.String("Execute a bash command"),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: map[string]any{
					"command": map[string]any{
						"type":        "string",
						"description": "The bash command to execute",
					},
				},
				Required: []string{"command"},
			},
		},
	}
}

// bashArgs is the typed form of the bash tool input.
type bashArgs struct {
	Command *string `mapstructure:"command"`
}

// decodeBashArgs decodes a tool input map into bashArgs.
// Unknown keys are tolerated; a missing or non-string command is an error.
func decodeBashArgs(input map[string]any) (string, error) {
	var args bashArgs
	if err := mapstructure.Decode(input, &args); err != nil {
		return "", fmt.Errorf("decode bash arguments: %w", err)
	}
	if args.Command == nil {
		return "", errors.New("missing required argument 'command'")
	}
	return *args.Command, nil
}

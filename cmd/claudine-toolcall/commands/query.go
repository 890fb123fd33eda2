package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/claudine-toolcall/internal/app"
	"github.com/florianilch/claudine-toolcall/internal/toolcall"
	"github.com/florianilch/claudine-toolcall/internal/toolcall/conversation"
)

// queryCommand returns the 'query' subcommand running one model turn.
func queryCommand() *cli.Command {
	return &cli.Command{
		Name:  "query",
		Usage: "Send a conversation history and print the assistant message",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "history",
				Usage:    "JSON file with the message history (- for stdin)",
				Required: true,
			},
		},
		Action: queryAction,
	}
}

// queryAction prints the assistant message, or the corrective user message when the
// model produced malformed tool calls. Both exit successfully.
func queryAction(ctx context.Context, cmd *cli.Command) error {
	var history []conversation.Message
	if err := readJSON(cmd.String("history"), &history); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	msg, err := application.Model.Query(ctx, history)
	if fe, ok := toolcall.AsFormatError(err); ok {
		slog.WarnContext(ctx, "returning format correction", "interrupt_type", fe.Message.Extra.InterruptType)
		return writeJSON(cmd.Root().Writer, fe.Message)
	}
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	return writeJSON(cmd.Root().Writer, msg)
}

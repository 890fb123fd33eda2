package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/claudine-toolcall/internal/app"
	"github.com/florianilch/claudine-toolcall/internal/toolcall/anthropicclaude"
	"github.com/florianilch/claudine-toolcall/internal/toolcall/conversation"
)

// observeCommand returns the 'observe' subcommand formatting execution outputs.
func observeCommand() *cli.Command {
	return &cli.Command{
		Name:  "observe",
		Usage: "Render execution outputs into tool messages for an assistant message",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "message",
				Usage:    "JSON file with the assistant message returned by query",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "outputs",
				Usage:    "JSON file with one execution output per action (- for stdin)",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:  "var",
				Usage: "template variable as key=value (repeatable)",
			},
		},
		Action: observeAction,
	}
}

// observeAction never contacts Anthropic, so no credential is read.
func observeAction(_ context.Context, cmd *cli.Command) error {
	var msg conversation.Message
	if err := readJSON(cmd.String("message"), &msg); err != nil {
		return err
	}
	var outputs []conversation.ExecutionOutput
	if err := readJSON(cmd.String("outputs"), &outputs); err != nil {
		return err
	}
	vars, err := parseVars(cmd.StringSlice("var"))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	return observe(cmd.Root().Writer, cfg, msg, outputs, vars)
}

func observe(
	w io.Writer,
	cfg *app.Config,
	msg conversation.Message,
	outputs []conversation.ExecutionOutput,
	vars map[string]any,
) error {
	model, err := anthropicclaude.New(cfg.Model.AdapterConfig(), http.DefaultTransport)
	if err != nil {
		return fmt.Errorf("failed to create model: %w", err)
	}

	results, err := model.FormatObservationMessages(msg, outputs, vars)
	if err != nil {
		return fmt.Errorf("format observations: %w", err)
	}
	return writeJSON(w, results)
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/florianilch/claudine-toolcall/internal/app"
	"github.com/florianilch/claudine-toolcall/internal/tokenstore"
)

// credentialsCommand returns the 'credentials' subcommand for managing the stored credential.
func credentialsCommand() *cli.Command {
	return &cli.Command{
		Name:  "credentials",
		Usage: "Manage the Anthropic credential",
		Commands: []*cli.Command{
			{
				Name:   "set",
				Usage:  "Store an API key or OAuth access token",
				Action: credentialsSetAction,
			},
			{
				Name:   "clear",
				Usage:  "Remove the stored credential",
				Action: credentialsClearAction,
			},
		},
	}
}

func credentialsSetAction(ctx context.Context, cmd *cli.Command) error {
	store, err := writableStore(cmd)
	if err != nil {
		return err
	}

	credential, err := readSecureInput(ctx, "Enter credential: ")
	if err != nil {
		return err
	}
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return errors.New("credential cannot be empty")
	}

	if err := store.Write(ctx, credential); err != nil {
		return fmt.Errorf("failed to write credential: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.Root().Writer, "Credential saved to configured storage")
	return nil
}

func credentialsClearAction(ctx context.Context, cmd *cli.Command) error {
	store, err := writableStore(cmd)
	if err != nil {
		return err
	}

	// Clear via empty write to keep the storage abstraction
	if err := store.Write(ctx, ""); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.Root().Writer, "Credential cleared from configured storage")
	return nil
}

func writableStore(cmd *cli.Command) (tokenstore.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Auth.Storage == app.TokenStorageTypeEnv {
		return nil, fmt.Errorf("cannot modify env storage (%w). Configure file or keyring storage", tokenstore.ErrReadOnly)
	}

	store, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create token store: %w", err)
	}
	return store, nil
}

// readSecureInput reads user input with hidden display and context cancellation support.
// Goroutine+select pattern required because term.ReadPassword has no native context support.
func readSecureInput(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	type result struct {
		value string
		err   error
	}
	resultCh := make(chan result, 1)

	go func() {
		inputBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		resultCh <- result{value: string(inputBytes), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-resultCh:
		if res.err != nil {
			return "", fmt.Errorf("failed to read input: %w", res.err)
		}
		return res.value, nil
	}
}

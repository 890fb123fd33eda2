package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// Keyring stores the credential in the OS keychain.
type Keyring struct {
	Service string
	User    string
}

// Compile-time check that Keyring implements Store
var _ Store = (*Keyring)(nil)

// NewKeyring creates a Keyring store for the given service and user.
func NewKeyring(service, user string) *Keyring {
	return &Keyring{Service: service, User: user}
}

// Read returns the stored credential.
func (k *Keyring) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	secret, err := keyring.Get(k.Service, k.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%w: keyring %s/%s", ErrNotFound, k.Service, k.User)
	}
	if err != nil {
		return "", fmt.Errorf("read keyring: %w", err)
	}
	return secret, nil
}

// Write stores the credential. An empty credential deletes the keyring entry.
func (k *Keyring) Write(ctx context.Context, credential string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if credential == "" {
		if err := keyring.Delete(k.Service, k.User); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("delete keyring entry: %w", err)
		}
		return nil
	}
	if err := keyring.Set(k.Service, k.User, credential); err != nil {
		return fmt.Errorf("write keyring: %w", err)
	}
	return nil
}

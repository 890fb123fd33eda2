package tokenstore

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Env reads the credential from an environment variable.
type Env struct {
	Name string

	// lookup defaults to os.LookupEnv; replaced in tests.
	lookup func(string) (string, bool)
}

// Compile-time check that Env implements Store
var _ Store = (*Env)(nil)

// NewEnv creates an Env store for the given variable name.
func NewEnv(name string) *Env {
	return &Env{Name: name, lookup: os.LookupEnv}
}

// Read returns the trimmed variable value.
func (e *Env) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	value, ok := e.lookup(e.Name)
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w: environment variable %s is not set", ErrNotFound, e.Name)
	}
	return strings.TrimSpace(value), nil
}

// Write always fails; environment variables are owned by the caller's shell.
func (e *Env) Write(context.Context, string) error {
	return ErrReadOnly
}

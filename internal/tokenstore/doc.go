// Package tokenstore reads and writes the Anthropic credential (API key or OAuth
// access token) used to authenticate model calls.
//
// Three backends are available:
//   - Env: read-only, taken from an environment variable
//   - File: a single file with 0600 permissions
//   - Keyring: the OS keychain via go-keyring
//
// Writing an empty credential clears it, keeping logout behind the same interface.
package tokenstore

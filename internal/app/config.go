package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/florianilch/claudine-toolcall/internal/observability"
	"github.com/florianilch/claudine-toolcall/internal/tokenstore"
	"github.com/florianilch/claudine-toolcall/internal/toolcall/anthropicclaude"
)

// EnvPrefix is the prefix of environment variables overriding configuration.
// Nested keys are separated by a double underscore, e.g. CLAUDINE_MODEL__MAX_TOKENS.
const EnvPrefix = "CLAUDINE_"

// AuthType selects how credentials are presented to Anthropic.
type AuthType string

const (
	AuthTypeAPIKey AuthType = "api_key"
	AuthTypeOAuth  AuthType = "oauth"
)

// TokenStorageType selects where the credential is kept.
type TokenStorageType string

const (
	TokenStorageTypeEnv     TokenStorageType = "env"
	TokenStorageTypeFile    TokenStorageType = "file"
	TokenStorageTypeKeyring TokenStorageType = "keyring"
)

// Config is the complete application configuration.
type Config struct {
	Model ModelConfig `koanf:"model"`
	Auth  AuthConfig  `koanf:"auth"`
	Log   LogConfig   `koanf:"log"`
}

// ModelConfig configures the tool-calling model.
type ModelConfig struct {
	Name                string            `koanf:"name" validate:"required"`
	MaxTokens           int64             `koanf:"max_tokens" validate:"gt=0"`
	Temperature         *float64          `koanf:"temperature" validate:"omitnil,gte=0,lte=1"`
	ReasoningEffort     string            `koanf:"reasoning_effort" validate:"omitempty,oneof=low medium high"`
	CacheControl        string            `koanf:"cache_control" validate:"omitempty,oneof=default_end"`
	ObservationTemplate string            `koanf:"observation_template"`
	FormatErrorTemplate string            `koanf:"format_error_template"`
	Headers             map[string]string `koanf:"headers"`
}

// AuthConfig configures credential type and storage.
type AuthConfig struct {
	Type    AuthType         `koanf:"type" validate:"oneof=api_key oauth"`
	Storage TokenStorageType `koanf:"storage" validate:"oneof=env file keyring"`

	EnvVar         string `koanf:"env_var" validate:"required_if=Storage env"`
	File           string `koanf:"file" validate:"required_if=Storage file"`
	KeyringService string `koanf:"keyring_service" validate:"required_if=Storage keyring"`
	KeyringUser    string `koanf:"keyring_user" validate:"required_if=Storage keyring"`
}

// LogConfig configures logging and log export.
type LogConfig struct {
	Level    string `koanf:"level" validate:"oneof=debug info warn error"`
	Format   string `koanf:"format" validate:"oneof=text json"`
	Exporter string `koanf:"exporter" validate:"oneof=none stdout otlp-http otlp-grpc"`
	Endpoint string `koanf:"endpoint" validate:"omitempty,url"`
}

// defaults returns the baseline configuration as a flat koanf map.
func defaults() map[string]any {
	credentialFile := "credential"
	if dir, err := os.UserConfigDir(); err == nil {
		credentialFile = filepath.Join(dir, "claudine-toolcall", "credential")
	}

	return map[string]any{
		"model.name":                  string(anthropicclaude.DefaultModel),
		"model.max_tokens":            anthropicclaude.DefaultMaxTokens,
		"model.reasoning_effort":      "",
		"model.cache_control":         string(anthropicclaude.CacheModeDefaultEnd),
		"model.observation_template":  anthropicclaude.DefaultObservationTemplate,
		"model.format_error_template": anthropicclaude.DefaultFormatErrorTemplate,
		"auth.type":                   string(AuthTypeAPIKey),
		"auth.storage":                string(TokenStorageTypeEnv),
		"auth.env_var":                "ANTHROPIC_API_KEY",
		"auth.file":                   credentialFile,
		"auth.keyring_service":        "claudine-toolcall",
		"auth.keyring_user":           "default",
		"log.level":                   "info",
		"log.format":                  "text",
		"log.exporter":                observability.ExporterNone,
	}
}

// Load builds the configuration from, in increasing precedence: defaults, the TOML
// file at path (skipped when empty), CLAUDINE_ environment variables from environ and
// overrides (flat dotted keys, typically CLI flags). The result is validated.
func Load(path string, overrides map[string]any, environ func() []string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if environ == nil {
		environ = os.Environ
	}
	envProvider := env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.TrimPrefix(key, EnvPrefix)
			key = strings.ReplaceAll(strings.ToLower(key), "__", ".")
			return key, value
		},
		EnvironFunc: environ,
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("load overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: false}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and reports every violation.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, fmt.Errorf("invalid config %s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.Join(errs...)
}

// NewTokenStore creates the credential store selected by Storage.
func (a AuthConfig) NewTokenStore() (tokenstore.Store, error) {
	switch a.Storage {
	case TokenStorageTypeEnv:
		return tokenstore.NewEnv(a.EnvVar), nil
	case TokenStorageTypeFile:
		return tokenstore.NewFile(a.File), nil
	case TokenStorageTypeKeyring:
		return tokenstore.NewKeyring(a.KeyringService, a.KeyringUser), nil
	default:
		return nil, fmt.Errorf("unsupported token storage %q", a.Storage)
	}
}

// AdapterConfig converts the model section into the adapter's configuration.
func (m ModelConfig) AdapterConfig() anthropicclaude.Config {
	return anthropicclaude.Config{
		Model:               m.Name,
		MaxTokens:           m.MaxTokens,
		Temperature:         m.Temperature,
		ReasoningEffort:     anthropicclaude.ReasoningEffort(m.ReasoningEffort),
		CacheControl:        anthropicclaude.CacheMode(m.CacheControl),
		ObservationTemplate: m.ObservationTemplate,
		FormatErrorTemplate: m.FormatErrorTemplate,
		Headers:             m.Headers,
	}
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/oauth2"

	"github.com/florianilch/claudine-toolcall/internal/tokenstore"
	"github.com/florianilch/claudine-toolcall/internal/toolcall/anthropicclaude"
)

// ShutdownTimeout bounds flushing of exported logs on exit.
const ShutdownTimeout = 5 * time.Second

// App wires configuration, credentials and the tool-calling model together.
type App struct {
	Model *anthropicclaude.Model
}

// appOptions holds the injectable dependencies of New.
type appOptions struct {
	baseTransport http.RoundTripper
	store         tokenstore.Store
	modelOptions  []anthropicclaude.Option
}

// Option configures New.
type Option func(*appOptions)

// WithBaseTransport replaces http.DefaultTransport as the bottom of the transport chain.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *appOptions) { o.baseTransport = rt }
}

// WithTokenStore replaces the store selected by the auth configuration.
func WithTokenStore(store tokenstore.Store) Option {
	return func(o *appOptions) { o.store = store }
}

// WithModelOptions passes options through to anthropicclaude.New.
func WithModelOptions(opts ...anthropicclaude.Option) Option {
	return func(o *appOptions) { o.modelOptions = append(o.modelOptions, opts...) }
}

// New reads the credential and creates the model. API keys are sent as x-api-key;
// OAuth tokens travel as bearer tokens with the OAuth beta token merged into the
// configured headers.
func New(ctx context.Context, cfg *Config, opts ...Option) (*App, error) {
	o := appOptions{baseTransport: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}

	if o.store == nil {
		store, err := cfg.Auth.NewTokenStore()
		if err != nil {
			return nil, fmt.Errorf("failed to create token store: %w", err)
		}
		o.store = store
	}

	credential, err := o.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}

	modelCfg := cfg.Model.AdapterConfig()
	transport := o.baseTransport
	var requestOpts []option.RequestOption

	switch cfg.Auth.Type {
	case AuthTypeAPIKey:
		requestOpts = append(requestOpts, option.WithAPIKey(credential))
	case AuthTypeOAuth:
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: credential, TokenType: "Bearer"}),
			Base:   o.baseTransport,
		}
		// Never leak an ANTHROPIC_API_KEY picked up by the SDK defaults next to the bearer token
		requestOpts = append(requestOpts, option.WithHeaderDel("X-Api-Key"))
		modelCfg.Headers = withOAuthBeta(modelCfg.Headers)
	default:
		return nil, fmt.Errorf("unsupported auth type %q", cfg.Auth.Type)
	}

	modelOpts := append([]anthropicclaude.Option{anthropicclaude.WithRequestOptions(requestOpts...)}, o.modelOptions...)
	model, err := anthropicclaude.New(modelCfg, transport, modelOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	slog.DebugContext(ctx, "model ready",
		"model", modelCfg.Model,
		"auth_type", string(cfg.Auth.Type),
		"storage", string(cfg.Auth.Storage),
		"reasoning_effort", string(modelCfg.ReasoningEffort),
		"cache_control", string(modelCfg.CacheControl),
	)

	return &App{Model: model}, nil
}

// withOAuthBeta returns a copy of headers whose beta header carries the OAuth token.
func withOAuthBeta(headers map[string]string) map[string]string {
	out := anthropicclaude.CanonicalHeaders(headers)
	betaKey := http.CanonicalHeaderKey(anthropicclaude.BetaHeader)
	out[betaKey] = anthropicclaude.MergeBetaTokens(out[betaKey], anthropicclaude.OAuthBeta)
	return out
}

package anthropicclaude

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/florianilch/claudine-toolcall/internal/toolcall"
	"github.com/florianilch/claudine-toolcall/internal/toolcall/conversation"
)

const tracerName = "github.com/florianilch/claudine-toolcall/internal/toolcall/anthropicclaude"

// requestIDHeader correlates an outbound call with local logs.
const requestIDHeader = "X-Request-ID"

// Model is a tool-calling Claude model with interleaved thinking and prompt caching.
// It keeps no conversation state between calls and is safe for sequential reuse.
type Model struct {
	cfg         Config
	client      *anthropic.Client
	parser      *responseParser
	observation *observationFormatter
	tracer      trace.Tracer
}

// Compile-time check that Model implements toolcall.Model
var _ toolcall.Model = (*Model)(nil)

// Option configures a Model.
type Option func(*modelOptions)

type modelOptions struct {
	now            func() time.Time
	requestOptions []option.RequestOption
}

// WithClock sets the clock used for observation timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *modelOptions) { o.now = now }
}

// WithRequestOptions adds Anthropic SDK options to every call (e.g. API key, base URL).
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(o *modelOptions) { o.requestOptions = append(o.requestOptions, opts...) }
}

// New creates a Model sending requests through transport. Templates are compiled here
// so configuration defects surface before the first call.
func New(cfg Config, transport http.RoundTripper, opts ...Option) (*Model, error) {
	cfg = cfg.withDefaults()

	o := modelOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	if _, err := thinkingBudget(cfg.ReasoningEffort); err != nil {
		return nil, err
	}
	if _, err := AnnotateCache(nil, cfg.CacheControl); err != nil {
		return nil, err
	}

	observationTpl, err := parseTemplate("observation", cfg.ObservationTemplate)
	if err != nil {
		return nil, err
	}
	formatErrorTpl, err := parseTemplate("format_error", cfg.FormatErrorTemplate)
	if err != nil {
		return nil, err
	}

	client, err := newClient(transport, o.requestOptions...)
	if err != nil {
		return nil, fmt.Errorf("create anthropic client: %w", err)
	}

	return &Model{
		cfg:         cfg,
		client:      client,
		parser:      &responseParser{formatError: formatErrorTpl},
		observation: &observationFormatter{template: observationTpl, now: o.now},
		tracer:      otel.Tracer(tracerName),
	}, nil
}

// Query annotates the history for prompt caching, streams it with the bash tool attached
// and parses the accumulated reply. On malformed tool calls it returns a *toolcall.FormatError.
// Transport and API errors are returned unchanged.
func (m *Model) Query(ctx context.Context, history []conversation.Message) (conversation.Message, error) {
	ctx, span := m.tracer.Start(ctx, "anthropic.messages.new", trace.WithAttributes(
		attribute.String("gen_ai.request.model", m.cfg.Model),
		attribute.Int("gen_ai.request.message_count", len(history)),
	))
	defer span.End()

	annotated, err := AnnotateCache(history, m.cfg.CacheControl)
	if err != nil {
		return conversation.Message{}, err
	}

	req, err := buildRequest(annotated, m.cfg)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return conversation.Message{}, fmt.Errorf("build request: %w", err)
	}

	requestID := uuid.New().String()
	opts := append(req.options(), option.WithHeader(requestIDHeader, requestID))

	logger := slog.With(slog.String("request_id", requestID), slog.String("model", m.cfg.Model))
	logger.DebugContext(ctx, "sending anthropic request",
		"message_count", len(req.params.Messages),
		"thinking", req.params.Thinking.OfEnabled != nil,
		"beta", req.headers[http.CanonicalHeaderKey(BetaHeader)],
	)

	// The SDK refuses non-streaming calls whose max_tokens may run past ten minutes
	resp, err := accumulate(m.client.Messages.NewStreaming(ctx, req.params, opts...))
	if err != nil {
		logger.ErrorContext(ctx, "anthropic request failed", providerErrorAttrs(err)...)
		span.RecordError(err)
		span.SetStatus(codes.Error, "anthropic request failed")
		return conversation.Message{}, err
	}

	msg, err := m.parser.toMessage(resp)
	if fe, ok := toolcall.AsFormatError(err); ok {
		logger.WarnContext(ctx, "model produced malformed tool calls", "correction", fe.Message.Content)
		span.SetAttributes(attribute.Bool("toolcall.format_error", true))
		return conversation.Message{}, err
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return conversation.Message{}, fmt.Errorf("parse response: %w", err)
	}

	logger.InfoContext(ctx, "anthropic response received",
		"stop_reason", msg.Extra.StopReason,
		"action_count", len(msg.Extra.Actions),
		usageAttr(msg.Extra.Usage),
	)
	span.SetAttributes(attribute.Int("toolcall.action_count", len(msg.Extra.Actions)))

	return msg, nil
}

// accumulate drains a message stream into the complete message. Stream errors, including
// API errors reported on connect, are returned unchanged.
func accumulate(stream *ssestream.Stream[anthropic.MessageStreamEventUnion]) (*anthropic.Message, error) {
	defer func() { _ = stream.Close() }()

	var msg anthropic.Message
	for stream.Next() {
		if err := msg.Accumulate(stream.Current()); err != nil {
			return nil, fmt.Errorf("accumulate stream event: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, errors.New("anthropic stream ended without a message")
	}
	return &msg, nil
}

// FormatObservationMessages renders execution outputs into tool messages. Rendering
// failures are configuration defects and are returned as errors wrapping
// toolcall.ErrTemplateRender.
func (m *Model) FormatObservationMessages(
	message conversation.Message,
	outputs []conversation.ExecutionOutput,
	templateVars map[string]any,
) ([]conversation.Message, error) {
	return m.observation.format(message, outputs, templateVars)
}

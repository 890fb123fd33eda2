package app

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/claudine-toolcall/internal/tokenstore"
	"github.com/florianilch/claudine-toolcall/internal/toolcall/conversation"
)

const textReply = "event: message_start\n" +
	`data: {"type":"message_start","message":{"id":"msg_01","type":"message","role":"assistant",` +
	`"model":"claude-sonnet-4-5-20250929","content":[],"stop_reason":null,"stop_sequence":null,` +
	`"usage":{"input_tokens":1,"output_tokens":1}}}` + "\n\n" +
	"event: content_block_start\n" +
	`data: {"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}` + "\n\n" +
	"event: content_block_delta\n" +
	`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"hello"}}` + "\n\n" +
	"event: content_block_stop\n" +
	`data: {"type":"content_block_stop","index":0}` + "\n\n" +
	"event: message_delta\n" +
	`data: {"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":1}}` + "\n\n" +
	"event: message_stop\n" +
	`data: {"type":"message_stop"}` + "\n\n"

type recordingTransport struct {
	last *http.Request
}

func (r *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r.last = req
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
		Body:       io.NopCloser(strings.NewReader(textReply)),
		Request:    req,
	}, nil
}

// staticStore is an in-memory tokenstore.Store.
type staticStore struct{ credential string }

func (s *staticStore) Read(context.Context) (string, error) {
	if s.credential == "" {
		return "", tokenstore.ErrNotFound
	}
	return s.credential, nil
}

func (s *staticStore) Write(_ context.Context, credential string) error {
	s.credential = credential
	return nil
}

func loadTestConfig(t *testing.T, env ...string) *Config {
	t.Helper()
	cfg, err := Load("", nil, environ(env...))
	require.NoError(t, err)
	return cfg
}

func TestNew_APIKey(t *testing.T) {
	t.Parallel()
	transport := &recordingTransport{}
	cfg := loadTestConfig(t)

	application, err := New(context.Background(), cfg,
		WithBaseTransport(transport),
		WithTokenStore(&staticStore{credential: "sk-ant-api"}),
	)
	require.NoError(t, err)

	msg, err := application.Model.Query(context.Background(), []conversation.Message{{Role: conversation.RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)

	require.NotNil(t, transport.last)
	assert.Equal(t, "sk-ant-api", transport.last.Header.Get("X-Api-Key"))
	assert.Empty(t, transport.last.Header.Get("Authorization"))
}

func TestNew_OAuth(t *testing.T) {
	t.Parallel()
	transport := &recordingTransport{}
	cfg := loadTestConfig(t, "CLAUDINE_AUTH__TYPE=oauth", "CLAUDINE_MODEL__REASONING_EFFORT=low")
	cfg.Model.Headers = map[string]string{"anthropic-beta": "a"}

	application, err := New(context.Background(), cfg,
		WithBaseTransport(transport),
		WithTokenStore(&staticStore{credential: "oauth-access"}),
	)
	require.NoError(t, err)

	_, err = application.Model.Query(context.Background(), []conversation.Message{{Role: conversation.RoleUser, Content: "hi"}})
	require.NoError(t, err)

	require.NotNil(t, transport.last)
	assert.Equal(t, "Bearer oauth-access", transport.last.Header.Get("Authorization"))
	assert.Empty(t, transport.last.Header.Get("X-Api-Key"))
	assert.Equal(t, "a,oauth-2025-04-20,interleaved-thinking-2025-05-14", transport.last.Header.Get("Anthropic-Beta"))
	assert.Equal(t, map[string]string{"anthropic-beta": "a"}, cfg.Model.Headers)
}

func TestNew_MissingCredential(t *testing.T) {
	t.Parallel()
	_, err := New(context.Background(), loadTestConfig(t), WithTokenStore(&staticStore{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, tokenstore.ErrNotFound)
}

func TestWithOAuthBeta(t *testing.T) {
	t.Parallel()
	assert.Equal(t, map[string]string{"Anthropic-Beta": "oauth-2025-04-20"}, withOAuthBeta(nil))
	assert.Equal(t,
		map[string]string{"Anthropic-Beta": "oauth-2025-04-20", "X-Trace": "1"},
		withOAuthBeta(map[string]string{"anthropic-beta": "oauth-2025-04-20", "x-trace": "1"}),
	)
	assert.Equal(t,
		map[string]string{"Anthropic-Beta": "b,a,oauth-2025-04-20"},
		withOAuthBeta(map[string]string{"anthropic-beta": "a", "Anthropic-Beta": "b"}),
	)
}

package anthropicclaude

import (
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// newClient creates a new Anthropic client with the provided transport.
// The transport chain needs to handle authentication unless an API key option is given.
func newClient(transport http.RoundTripper, opts ...option.RequestOption) (*anthropic.Client, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport cannot be nil")
	}

	httpClient := &http.Client{
		Transport: transport,
		// No client timeout: cancellation and deadlines are owned by the caller's context
	}

	clientOpts := append([]option.RequestOption{option.WithHTTPClient(httpClient)}, opts...)
	client := anthropic.NewClient(clientOpts...)

	return &client, nil
}

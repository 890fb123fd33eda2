package anthropicclaude

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
)

// providerErrorAttrs describes a failed Anthropic call for logging. The error itself is
// returned to the caller unchanged; retry decisions belong to the caller.
// Non-Anthropic errors (network, timeouts, cancellation) only carry their message.
func providerErrorAttrs(err error) []any {
	attrs := []any{slog.Any("error", err)}

	// *anthropic.Error provides the structured error body via RawJSON()
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return attrs
	}

	attrs = append(attrs, slog.Int("status_code", apiErr.StatusCode))
	if apiErr.Response != nil {
		if requestID := apiErr.Response.Header.Get("request-id"); requestID != "" {
			attrs = append(attrs, slog.String("provider_request_id", requestID))
		}
	}
	if errorResp, parseErr := parseErrorResponseJSON(apiErr.RawJSON()); parseErr == nil {
		attrs = append(attrs,
			slog.String("error_type", errorResp.Error.Type),
			slog.Bool("retryable", isRetryableErrorType(errorResp.Error.Type)),
		)
	}

	return attrs
}

// parseErrorResponseJSON parses Anthropic error JSON into structured ErrorResponse.
func parseErrorResponseJSON(jsonStr string) (*anthropic.ErrorResponse, error) {
	var errorResp anthropic.ErrorResponse
	if err := json.Unmarshal([]byte(jsonStr), &errorResp); err != nil {
		return nil, fmt.Errorf("failed to parse Anthropic error JSON: %w", err)
	}
	return &errorResp, nil
}

// isRetryableErrorType reports whether an Anthropic error type is transient.
// It is informational only and surfaces in logs for the caller's retry policy.
func isRetryableErrorType(errorType string) bool {
	switch errorType {
	case "overloaded_error", "rate_limit_error", "timeout_error", "api_error":
		return true
	default:
		return false
	}
}

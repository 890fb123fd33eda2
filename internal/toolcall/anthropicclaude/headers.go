package anthropicclaude

import (
	"maps"
	"net/http"
	"slices"
	"strings"
)

const (
	// BetaHeader is the header carrying comma separated Anthropic beta feature tokens.
	BetaHeader = "anthropic-beta"

	// InterleavedThinkingBeta lets Claude continue producing thinking blocks after tool
	// results. Without it thinking stops after the first response of a turn.
	InterleavedThinkingBeta = "interleaved-thinking-2025-05-14"

	// OAuthBeta is required when authenticating with an OAuth bearer token.
	OAuthBeta = "oauth-2025-04-20"
)

// BuildHeaders returns the extra request headers for one call. The base map is never
// mutated; a fresh map is always returned, so retried calls cannot see each other's
// additions. When thinking is enabled the interleaved-thinking token is merged into
// the beta header.
func BuildHeaders(base map[string]string, effort ReasoningEffort) map[string]string {
	headers := CanonicalHeaders(base)

	if effort != ReasoningEffortNone {
		key := http.CanonicalHeaderKey(BetaHeader)
		headers[key] = MergeBetaTokens(headers[key], InterleavedThinkingBeta)
	}

	return headers
}

// CanonicalHeaders returns a copy of headers keyed by canonical header names. Names that
// collide after canonicalization are combined in sorted order: beta tokens are merged
// without duplicates, other values are comma joined.
func CanonicalHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers)+1)
	betaKey := http.CanonicalHeaderKey(BetaHeader)

	for _, name := range slices.Sorted(maps.Keys(headers)) {
		key := http.CanonicalHeaderKey(name)
		value := headers[name]
		prev, seen := out[key]
		switch {
		case !seen:
			out[key] = value
		case key == betaKey:
			for token := range strings.SplitSeq(value, ",") {
				if token = strings.TrimSpace(token); token != "" {
					prev = MergeBetaTokens(prev, token)
				}
			}
			out[key] = prev
		default:
			out[key] = prev + "," + value
		}
	}

	return out
}

// MergeBetaTokens appends token to a comma separated header value unless it is already
// one of its tokens. Existing tokens are kept as given.
func MergeBetaTokens(existing, token string) string {
	if strings.TrimSpace(existing) == "" {
		return token
	}
	for part := range strings.SplitSeq(existing, ",") {
		if strings.TrimSpace(part) == token {
			return existing
		}
	}
	return existing + "," + token
}

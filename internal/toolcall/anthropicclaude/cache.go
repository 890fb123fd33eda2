package anthropicclaude

import (
	"fmt"

	"github.com/florianilch/claudine-toolcall/internal/toolcall"
	"github.com/florianilch/claudine-toolcall/internal/toolcall/conversation"
)

// CacheMode selects where prompt cache breakpoints are placed.
type CacheMode string

const (
	// CacheModeDisabled leaves the history untouched.
	CacheModeDisabled CacheMode = ""
	// CacheModeDefaultEnd places one breakpoint on the last non-system message sent.
	CacheModeDefaultEnd CacheMode = "default_end"
)

// AnnotateCache returns a copy of history with cache breakpoints placed according to mode.
// Message content and order are never changed, and the input slice is never mutated.
// Any breakpoint already present is moved, so repeated calls yield a single marker.
// Only messages that produce a markable content block in the request are eligible.
func AnnotateCache(history []conversation.Message, mode CacheMode) ([]conversation.Message, error) {
	switch mode {
	case CacheModeDisabled:
		return history, nil
	case CacheModeDefaultEnd:
		// handled below
	default:
		return nil, fmt.Errorf("%w: %q", toolcall.ErrUnknownCacheMode, mode)
	}

	annotated := make([]conversation.Message, len(history))
	target, fallback := -1, -1
	for i, msg := range history {
		annotated[i] = msg
		annotated[i].Extra.CacheControl = nil
		if !canCarryCacheMarker(msg) {
			continue
		}
		fallback = i
		if msg.Role != conversation.RoleSystem {
			target = i
		}
	}
	if target < 0 {
		target = fallback
	}
	if target >= 0 {
		annotated[target].Extra.CacheControl = &conversation.CacheControl{
			Type: conversation.CacheControlTypeEphemeral,
		}
	}

	return annotated, nil
}

// canCarryCacheMarker reports whether fromMessages emits a block for msg that accepts
// cache_control. Empty system and user messages are dropped, and assistant messages with
// only thinking blocks end in a block that cannot be marked.
func canCarryCacheMarker(msg conversation.Message) bool {
	switch msg.Role {
	case conversation.RoleSystem, conversation.RoleUser:
		return msg.Content != ""
	case conversation.RoleAssistant:
		return msg.Content != "" || len(msg.Extra.Actions) > 0
	case conversation.RoleTool:
		return true
	default:
		return false
	}
}

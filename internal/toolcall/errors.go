package toolcall

import (
	"errors"

	"github.com/florianilch/claudine-toolcall/internal/toolcall/conversation"
)

// Sentinel errors for adapter implementations. Callers should use errors.Is.
var (
	ErrTemplateRender      = errors.New("toolcall: template rendering failed")
	ErrTemplateParse       = errors.New("toolcall: template parsing failed")
	ErrUnknownCacheMode    = errors.New("toolcall: unknown cache control mode")
	ErrObservationMismatch = errors.New("toolcall: number of outputs does not match number of actions")
)

// FormatError reports model output that could not be turned into actions.
// It is recoverable: Message is a corrective user message for the caller to append
// to the history before the next query.
type FormatError struct {
	Message conversation.Message
}

// NewFormatError builds a FormatError whose message content is the given error text.
func NewFormatError(content string) *FormatError {
	return &FormatError{
		Message: conversation.Message{
			Role:    conversation.RoleUser,
			Content: content,
			Extra: conversation.Extra{
				InterruptType: conversation.InterruptTypeFormatError,
			},
		},
	}
}

// Error implements the error interface, returning the corrective message content.
func (e *FormatError) Error() string {
	return "toolcall: format error: " + e.Message.Content
}

// Compile-time check that FormatError implements error.
var _ error = (*FormatError)(nil)

// AsFormatError reports whether err is, or wraps, a *FormatError and returns it.
func AsFormatError(err error) (*FormatError, bool) {
	var fe *FormatError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

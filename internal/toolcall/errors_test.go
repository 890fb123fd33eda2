package toolcall

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/claudine-toolcall/internal/toolcall/conversation"
)

func TestNewFormatError(t *testing.T) {
	t.Parallel()
	fe := NewFormatError("Unknown tool 'grep'")

	assert.Equal(t, conversation.RoleUser, fe.Message.Role)
	assert.Equal(t, "Unknown tool 'grep'", fe.Message.Content)
	assert.Equal(t, conversation.InterruptTypeFormatError, fe.Message.Extra.InterruptType)
	assert.Contains(t, fe.Error(), "Unknown tool 'grep'")
}

func TestAsFormatError(t *testing.T) {
	t.Parallel()
	wrapped := fmt.Errorf("query: %w", NewFormatError("bad"))

	fe, ok := AsFormatError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "bad", fe.Message.Content)

	_, ok = AsFormatError(ErrTemplateRender)
	assert.False(t, ok)
}

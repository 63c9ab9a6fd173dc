package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTabsErrorFormatting(t *testing.T) {
	err := ErrNoTablist("ul.tabs").WithComponent("binder")

	assert.Equal(t, "[NO_TABLIST] component:binder no tablist matches ul.tabs", err.Error())
	assert.Equal(t, "ul.tabs", err.Context["selector"])
	assert.True(t, IsRecoverable(err))
}

func TestTabsErrorIs(t *testing.T) {
	err := fmt.Errorf("mount widget: %w", ErrNoTabpanel(2, "section"))

	assert.True(t, errors.Is(err, NewValidationError(ErrCodeNoTabpanel, "")))
	assert.False(t, errors.Is(err, NewValidationError(ErrCodeNoTablist, "")))
	assert.Equal(t, ErrCodeNoTabpanel, GetCode(err))
}

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, ErrorTypeIO, ErrCodeFileNotFound, "read"))
	})

	t.Run("plain error", func(t *testing.T) {
		wrapped := WrapIO(fs.ErrNotExist, ErrCodeFileNotFound, "read page.html")

		assert.Equal(t, ErrorTypeIO, wrapped.Type)
		assert.False(t, wrapped.Recoverable)
		assert.ErrorIs(t, wrapped, fs.ErrNotExist)
	})

	t.Run("nested tabs error keeps its type visible", func(t *testing.T) {
		inner := ErrInvalidSelector("ul[", errors.New("expected ]"))
		wrapped := WrapConfig(inner, ErrCodeConfigInvalid, "widget.tablist")

		assert.True(t, IsType(wrapped, ErrorTypeConfig))
		assert.True(t, IsType(wrapped, ErrorTypeValidation))
		assert.False(t, IsType(wrapped, ErrorTypeNetwork))
		assert.Equal(t, ErrCodeConfigInvalid, GetCode(wrapped))
	})
}

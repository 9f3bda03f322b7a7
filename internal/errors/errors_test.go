package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsingError(t *testing.T) {
	underlying := fmt.Errorf("unexpected token")
	err := NewParsingError("advanced_csharp", "src/App.cs", underlying)

	assert.Contains(t, err.Error(), "advanced_csharp")
	assert.Contains(t, err.Error(), "src/App.cs")
	assert.ErrorIs(t, err, underlying)

	err = err.WithPosition(12, 4)
	assert.Contains(t, err.Error(), "src/App.cs:12:4")
}

func TestRequiresFallback(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit fallback", NewFallbackError("gofast", "module syntax", nil), true},
		{"timeout", NewTimeoutError("advanced_python", "parse", "a.py", time.Second), true},
		{"oversized file", &FileTooLargeError{FilePath: "big.js", Size: 9 << 20, Limit: 5 << 20}, true},
		{"wrapped fallback", fmt.Errorf("tier: %w", NewFallbackError("x", "y", nil)), true},
		{"plain error", errors.New("disk on fire"), false},
		{"parse error", NewParsingError("p", "f", errors.New("bad")), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RequiresFallback(tc.err))
		})
	}
}

func TestMultiError(t *testing.T) {
	t.Run("drops nil entries", func(t *testing.T) {
		err := NewMultiError([]error{nil, errors.New("one"), nil, errors.New("two")})
		assert.Len(t, err.Errors, 2)
		assert.Contains(t, err.Error(), "2 errors")
	})

	t.Run("single error reads plainly", func(t *testing.T) {
		err := NewMultiError([]error{errors.New("just this")})
		assert.Equal(t, "just this", err.Error())
	})

	t.Run("unwrap exposes members to errors.Is", func(t *testing.T) {
		inner := NewFallbackError("scanner", "empty", nil)
		err := NewMultiError([]error{errors.New("noise"), inner})
		assert.True(t, RequiresFallback(err))
	})
}

func TestFallbackErrorMessages(t *testing.T) {
	bare := NewFallbackError("gofast", "no module support", nil)
	assert.Equal(t, "gofast requires fallback: no module support", bare.Error())

	wrapped := NewFallbackError("gofast", "parse failed", errors.New("eof"))
	assert.Contains(t, wrapped.Error(), "(parse failed)")
	assert.Contains(t, wrapped.Error(), "eof")
}

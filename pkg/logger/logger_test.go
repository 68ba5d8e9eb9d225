package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		isErr    bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"warn", NoticeLevel, false},
		{"notice", NoticeLevel, false},
		{"error", ErrorLevel, false},
		{"verbose", InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.isErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestFormatMessage(t *testing.T) {
	l := NewStdLogger(false, DebugLevel)

	t.Run("known chain", func(t *testing.T) {
		msg := l.formatMessage(InfoLevel, 421614, "burn found")
		assert.Equal(t, "[INFO]   [ARB-SEP]  burn found", msg)
	})

	t.Run("unknown chain uses numeric id", func(t *testing.T) {
		msg := l.formatMessage(NoticeLevel, 999, "fallback")
		assert.Equal(t, "[NOTICE] [999] fallback", msg)
	})

	t.Run("no chain", func(t *testing.T) {
		msg := l.formatMessage(ErrorLevel, 0, "boom")
		assert.Equal(t, "[ERROR]  boom", msg)
	})
}

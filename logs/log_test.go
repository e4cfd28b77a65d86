package logs

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]int{
		"trace":   LevelTrace,
		"DEBUG":   LevelDebug,
		"verbose": LevelVerbose,
		"":        LevelInfo,
		"info":    LevelInfo,
		"warning": LevelWarning,
		"warn":    LevelWarning,
		" error ": LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestWriterLogger_RespectsLevel(t *testing.T) {
	prev := GetLevel()
	defer SetLevel(prev)

	var buf bytes.Buffer
	l := NewWriterLogger("vm", &buf)

	SetLevel(LevelWarning)
	l.Info("hidden %d", 1)
	l.Warn("shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[vm] shown 2")
	assert.True(t, strings.HasPrefix(out, "[WARN]"))
}

func TestSetLevel_Clamps(t *testing.T) {
	prev := GetLevel()
	defer SetLevel(prev)

	SetLevel(-3)
	assert.Equal(t, LevelTrace, GetLevel())
	SetLevel(42)
	assert.Equal(t, LevelError, GetLevel())
}

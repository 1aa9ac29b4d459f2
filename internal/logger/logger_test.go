package logger

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithConfig(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithConfig(&buf, "test", log.InfoLevel, false, log.TextFormatter)

	l.Debug("hidden")
	l.Info("loaded", "words", 3)
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "test")
	assert.Contains(t, out, "loaded")
	assert.Contains(t, out, "words=3")
}

func TestSetLevel(t *testing.T) {
	prev := log.GetLevel()
	defer log.SetLevel(prev)

	require.NoError(t, SetLevel("debug"))
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	require.NoError(t, SetLevel(""))
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	assert.Error(t, SetLevel("loud"))
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("dropped")
	assert.Equal(t, log.FatalLevel, l.GetLevel())
}

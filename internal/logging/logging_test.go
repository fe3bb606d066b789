package logging

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	t.Run("debug hidden by default", func(t *testing.T) {
		buf := new(bytes.Buffer)
		logger := New(buf, false)

		logger.Debug("loading config", "path", ".tasklint.yml")
		logger.Info("checked file")

		assert.NotContains(t, buf.String(), "loading config")
		assert.Contains(t, buf.String(), "checked file")
		assert.Contains(t, buf.String(), Prefix)
	})

	t.Run("verbose enables debug", func(t *testing.T) {
		buf := new(bytes.Buffer)
		logger := New(buf, true)

		logger.Debug("loading config", "path", ".tasklint.yml")

		assert.Contains(t, buf.String(), "loading config")
		assert.Contains(t, buf.String(), ".tasklint.yml")
	})
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("nothing to see")
	assert.Equal(t, log.InfoLevel, logger.GetLevel())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]log.Level{
		"debug":   log.DebugLevel,
		"DEBUG":   log.DebugLevel,
		"warn":    log.WarnLevel,
		"warning": log.WarnLevel,
		"error":   log.ErrorLevel,
		"info":    log.InfoLevel,
		"":        log.InfoLevel,
		"bogus":   log.InfoLevel,
	}
	for input, want := range tests {
		assert.Equal(t, want, ParseLevel(input), "input %q", input)
	}
}

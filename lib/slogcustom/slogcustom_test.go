package slogcustom

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestCustomHandler(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	log := slog.New(NewCustomHandler(&buf, slog.LevelInfo))

	log.Debug("hidden")
	log.With("user", "u-1").WithGroup("attempt").Info("submitted", "score", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO:")
	assert.Contains(t, out, "submitted")
	assert.Contains(t, out, "user=u-1")
	assert.Contains(t, out, "attempt.score=3")
}

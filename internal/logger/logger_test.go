package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"warning": WarnLevel,
		"warn":    WarnLevel,
		"error":   ErrorLevel,
		"fatal":   FatalLevel,
		"bogus":   InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestWriterLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriterLogger(&buf, WarnLevel)

	log.Debug("hidden %d", 1)
	log.Info("hidden %d", 2)
	log.Warn("switching to %s", "offline")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "switching to offline", entry["message"])
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriterLogger(&buf, ErrorLevel)
	log.Info("before")
	assert.Empty(t, buf.String())

	log.SetLevel(DebugLevel)
	log.Debug("after")
	assert.Contains(t, buf.String(), "after")
}

func TestFatalUsesExitHook(t *testing.T) {
	var buf bytes.Buffer
	l := newZerologLogger(&buf, InfoLevel, "test")
	code := -1
	l.exit = func(c int) { code = c }

	l.Fatal("boom")
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), `"component":"test"`)
}

func TestNewLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	log, err := NewLogger(LogConfig{Output: "file", Level: "debug", FilePath: path})
	require.NoError(t, err)
	log.Info("hello")
}

func TestNewLoggerInvalidOutput(t *testing.T) {
	_, err := NewLogger(LogConfig{Output: "syslog"})
	assert.Error(t, err)
}

func TestNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	log.Error("nothing happens")
	log.SetLevel(DebugLevel)
	log.Debug("still nothing")
}

package logger

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleLogger(t *testing.T) {
	t.Run("NewConsoleLogger", func(t *testing.T) {
		l := NewConsoleLogger("info")
		consoleLogger, ok := l.(*ConsoleLogger)
		require.True(t, ok)
		assert.Equal(t, "info", consoleLogger.Level)
		assert.Empty(t, consoleLogger.File)
	})

	t.Run("NewTestLogger", func(t *testing.T) {
		consoleLogger, ok := NewTestLogger().(*ConsoleLogger)
		require.True(t, ok)
		assert.Equal(t, "debug", consoleLogger.Level)
	})
}

func TestLoggingLevels(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	t.Run("Debug", func(t *testing.T) {
		buf.Reset()
		(&ConsoleLogger{Level: "debug"}).Debug("debug message")
		assert.Contains(t, buf.String(), "[DEBUG] debug message")

		buf.Reset()
		(&ConsoleLogger{Level: "info"}).Debug("debug message")
		assert.Empty(t, buf.String())
	})

	t.Run("WarnSuppressesInfo", func(t *testing.T) {
		buf.Reset()
		l := &ConsoleLogger{Level: "warn"}
		l.Info("hidden")
		l.Warn("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "[WARN] shown")
	})

	t.Run("ErrorAlwaysLogged", func(t *testing.T) {
		buf.Reset()
		(&ConsoleLogger{Level: "error"}).Error("failed", errors.New("boom"))
		assert.Contains(t, buf.String(), "[ERROR] failed error=boom")
	})

	t.Run("UnknownLevelActsAsInfo", func(t *testing.T) {
		buf.Reset()
		l := &ConsoleLogger{Level: "chatty"}
		l.Debug("hidden")
		l.Info("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewWriterLogger("debug", &buf)

	child := base.WithFields(map[string]interface{}{"file": "export.docx"})
	child.Info("parsed", map[string]interface{}{"count": 3})

	out := buf.String()
	assert.Contains(t, out, "[INFO] parsed count=3 file=export.docx")

	buf.Reset()
	base.Info("plain")
	assert.NotContains(t, buf.String(), "file=")
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reqdocx.log")
	l, err := NewFileLogger("info", path)
	require.NoError(t, err)

	l.Info("written to file", map[string]interface{}{"k": "v"})
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] written to file k=v")
	assert.Equal(t, path, l.File)
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.Debug("x")
		l.Info("x")
		l.Warn("x")
		l.Error("x", errors.New("y"))
		l.WithFields(map[string]interface{}{"a": 1}).Info("z")
	})
}

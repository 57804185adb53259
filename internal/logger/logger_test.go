package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"DEBUG":   logrus.DebugLevel,
		"info":    logrus.InfoLevel,
		" warn ":  logrus.WarnLevel,
		"WARNING": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"":        logrus.InfoLevel,
		"verbose": logrus.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestInitializeWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	Initialize(Options{Level: "DEBUG", Dir: dir})
	t.Cleanup(func() { Initialize(Options{Level: "INFO"}) })

	WithError(errors.New("boom"), "test").Warn("Something failed")

	data, err := os.ReadFile(filepath.Join(dir, "os-assistant.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Something failed")
	assert.Contains(t, string(data), "component=test")
	assert.Contains(t, string(data), "stack_trace")
}

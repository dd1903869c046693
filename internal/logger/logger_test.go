package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetWriter(&buf)
	SetLogLevel(level)
	t.Cleanup(func() {
		SetLogLevel("info")
		SetWriter(os.Stdout)
	})
	return &buf
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLogLevel("DEBUG"))
	assert.Equal(t, WARN, ParseLogLevel(" warning "))
	assert.Equal(t, ERROR, ParseLogLevel("error"))
	assert.Equal(t, INFO, ParseLogLevel("verbose"))
}

func TestLevelFiltering(t *testing.T) {
	buf := captureOutput(t, "warn")

	Debug("hidden debug")
	Info("hidden info")
	Warn("shown warning", errors.New("upstream timeout"))
	Error("shown error", 42)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] logger_test.go:")
	assert.Contains(t, out, "shown warning upstream timeout")
	assert.Contains(t, out, "[ERROR]")
	assert.Contains(t, out, "shown error 42")
}

func TestComplexArgumentsAreLoggedAsJSON(t *testing.T) {
	buf := captureOutput(t, "debug")

	Debug("lambdas", 1.23456, map[string]int{"home": 2})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Contains(t, lines[0], "lambdas 1.23 [Object of type map[string]int]")
	assert.Contains(t, buf.String(), `"home": 2`)
}

func TestSetLogOutput(t *testing.T) {
	assert.Error(t, SetLogOutput('x', ""))

	path := filepath.Join(t.TempDir(), "podds.log")
	require.NoError(t, SetLogOutput('f', path))
	t.Cleanup(func() { SetWriter(os.Stdout) })

	Info("written to file")
	require.NoError(t, Close())
	assert.NoError(t, Close(), "closing twice is harmless")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

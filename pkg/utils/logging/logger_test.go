package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_ConsoleAtInfoFileAtDebug(t *testing.T) {
	var console bytes.Buffer
	logger, path, err := New(Options{Dir: t.TempDir(), Env: "test", Console: &console})
	require.NoError(t, err)

	logger.Debug("phase complete", zap.Int("entries", 3))
	logger.Info("run complete", zap.String("week", "2026-06-01"))
	require.NoError(t, logger.Sync())

	assert.Contains(t, console.String(), "run complete")
	assert.NotContains(t, console.String(), "phase complete")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "phase complete", first["msg"])
	assert.Equal(t, float64(3), first["entries"])
	assert.Contains(t, first, "timestamp")
}

func TestNew_VerboseConsole(t *testing.T) {
	var console bytes.Buffer
	logger, _, err := New(Options{Dir: t.TempDir(), Console: &console, Verbose: true})
	require.NoError(t, err)

	logger.Debug("phase complete")
	require.NoError(t, logger.Sync())

	assert.Contains(t, console.String(), "phase complete")
}

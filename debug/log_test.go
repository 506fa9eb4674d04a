package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogWritesCategoryLines(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EnableAt(dir))
	t.Cleanup(Disable)

	assert.True(t, Enabled())
	Log("engine", "loop %d: %s", 3, "recording")

	data, err := os.ReadFile(filepath.Join(dir, "debug.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "debug logging started")
	assert.Contains(t, lines[1], "engine")
	assert.Contains(t, lines[1], "loop 3: recording")
}

func TestLogEverySamples(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EnableAt(dir))
	t.Cleanup(Disable)

	for i := range 10 {
		LogEvery(5, "led", "flush %d", i)
	}

	data, err := os.ReadFile(filepath.Join(dir, "debug.log"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "(every 5"))
}

func TestLogDisabledIsNoop(t *testing.T) {
	Disable()
	assert.False(t, Enabled())
	assert.NotPanics(t, func() { Log("engine", "dropped") })
}

package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, workspace, content string) {
	t.Helper()
	dir := filepath.Join(workspace, ".abt")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
}

func TestInitializeRequiresWorkspace(t *testing.T) {
	assert.Error(t, Initialize("", ""))
}

func TestProductionModeIsSilent(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, Initialize(ws, ""))
	defer CloseAll()

	assert.False(t, IsDebugMode())
	Boot("should go nowhere")
	Agent("agent %d says hi", 1)

	_, err := os.Stat(filepath.Join(ws, ".abt", "logs"))
	assert.True(t, os.IsNotExist(err), "no logs directory in production mode")
}

func TestDebugModeWritesCategoryFiles(t *testing.T) {
	ws := t.TempDir()
	writeConfig(t, ws, "logging:\n  debug_mode: true\n  level: debug\n")
	require.NoError(t, Initialize(ws, ""))
	defer CloseAll()

	assert.True(t, IsDebugMode())
	Agent("agent %d started", 7)
	Protocol("message sent")
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(ws, ".abt", "logs"))
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.NotEmpty(t, names)

	found := false
	for _, n := range names {
		if filepath.Ext(n) == ".log" {
			found = true
		}
	}
	assert.True(t, found, "expected at least one .log file, got %v", names)
}

func TestInitializeHonorsConfigPath(t *testing.T) {
	// The config file may live outside the workspace when set explicitly.
	ws := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("logging:\n  debug_mode: true\n"), 0o644))

	require.NoError(t, Initialize(ws, cfgPath))
	defer CloseAll()

	assert.True(t, IsDebugMode())
}

func TestCategoryToggle(t *testing.T) {
	ws := t.TempDir()
	writeConfig(t, ws, "logging:\n  debug_mode: true\n  categories:\n    protocol: false\n")
	require.NoError(t, Initialize(ws, ""))
	defer CloseAll()

	assert.True(t, IsCategoryEnabled(CategoryAgent), "unlisted categories default to enabled")
	assert.False(t, IsCategoryEnabled(CategoryProtocol))
}

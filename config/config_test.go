package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesVMDefaults(t *testing.T) {
	cfg := Default()
	limits := cfg.Limits()
	assert.Equal(t, 2000, limits.MaxCallDepth)
	assert.Equal(t, 1<<20, limits.MaxStackSlots)
	assert.False(t, cfg.Strict)
}

func TestLoadOverridesOnlySetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "realm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strict: true\nmax_call_depth: 64\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Strict)
	assert.Equal(t, 64, cfg.MaxCallDepth)
	// untouched fields keep their Default() value
	assert.Equal(t, Default().MicrotaskBudget, cfg.MicrotaskBudget)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

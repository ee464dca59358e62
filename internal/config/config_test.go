package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, int32(10), cfg.Engine.DecimalScale)
	assert.Equal(t, 1000, cfg.Engine.MaxLoopIterations)
	assert.Equal(t, 5000, cfg.Engine.RESTCallTimeout)
	assert.Equal(t, "./data", cfg.Storage.DataDir)
	assert.Equal(t, "standard", cfg.Validator.Strictness)
	assert.False(t, cfg.Validator.FailOnWarning)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	require.NoError(t, os.Setenv("RULEENGINE_STORAGE_DATA_DIR", "/tmp/ruleengine-data"))
	defer os.Unsetenv("RULEENGINE_STORAGE_DATA_DIR")
	require.NoError(t, os.Setenv("RULEENGINE_VALIDATOR_FAIL_ON_WARNING", "true"))
	defer os.Unsetenv("RULEENGINE_VALIDATOR_FAIL_ON_WARNING")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ruleengine-data", cfg.Storage.DataDir)
	assert.True(t, cfg.Validator.FailOnWarning)
}

func TestLoad_FileOverridesDefaultsButNotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  decimal_scale: 4
storage:
  data_dir: /from/file
`), 0644))

	require.NoError(t, os.Setenv("RULEENGINE_STORAGE_DATA_DIR", "/from/env"))
	defer os.Unsetenv("RULEENGINE_STORAGE_DATA_DIR")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int32(4), cfg.Engine.DecimalScale)
	assert.Equal(t, "/from/env", cfg.Storage.DataDir)
}

func TestLoad_MissingFileIsAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{EnvConfigFile, EnvSaveEndpoint, EnvServerAddr, EnvMaskDir, EnvLogLevel, EnvDebug} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSaveEndpoint, cfg.Editor.SaveEndpoint)
	assert.Equal(t, 500, cfg.Editor.SurfaceWidth)
	assert.Equal(t, 500, cfg.Editor.SurfaceHeight)
	assert.Equal(t, time.Duration(0), cfg.Editor.SaveDebounce)
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "masker.toml")
	content := `
log_level = "warn"

[editor]
save_endpoint = "http://example.test/save-mask"
save_debounce = "250ms"

[server]
mask_dir = "/tmp/from-file"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv(EnvMaskDir, "/tmp/from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/save-mask", cfg.Editor.SaveEndpoint)
	assert.Equal(t, 250*time.Millisecond, cfg.Editor.SaveDebounce)
	assert.Equal(t, "/tmp/from-env", cfg.Server.MaskDir)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 500, cfg.Editor.SurfaceWidth, "unset keys keep defaults")
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadEnvNamedMissingFileIsIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConfigFile, filepath.Join(t.TempDir(), "nope.toml"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSaveEndpoint, cfg.Editor.SaveEndpoint)
}

func TestDebugEnvRaisesLogLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDebug, "1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)

	t.Setenv(EnvLogLevel, "error")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel, "LOG_LEVEL wins over DEBUG")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Editor.SurfaceWidth = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Editor.SaveEndpoint = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Editor.SaveDebounce = -time.Second
	assert.Error(t, cfg.Validate())
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, "supabase", cfg.Auth.Provider)
	assert.Equal(t, 7, cfg.Plans.TrialDays)
	assert.Equal(t, 3, cfg.Generation.MaxReferenceImages)
	assert.Equal(t, "v20.0", cfg.Meta.GraphVersion)

	offer, ok := cfg.Plans.Offer("monthly")
	require.True(t, ok)
	assert.Equal(t, 30, offer.DurationDays)
	assert.Equal(t, 68.0, offer.Price)

	_, ok = cfg.Plans.Offer("yearly")
	assert.False(t, ok)
}

func TestLoad_FileAndLegacyEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8080\n  mode: production\nauth:\n  provider: local\n"), 0o644))

	t.Setenv("META_APP_ID", "app-from-env")
	t.Setenv("PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "local", cfg.Auth.Provider)
	assert.Equal(t, "app-from-env", cfg.Meta.AppID)
}

func TestLoad_PrefersLocalConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: 1111\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.local.yaml"), []byte("server:\n  port: 2222\n"), 0o644))

	cfg, err := Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 2222, cfg.Server.Port)
}

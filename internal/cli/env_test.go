package cli

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvLoader_LoadsFlagPath(t *testing.T) {
	t.Setenv("BRIEFING_ENV_FILE", "")
	t.Setenv("DEDUP_RANK_BY", "combined")

	path := filepath.Join(t.TempDir(), "custom.env")
	require.NoError(t, os.WriteFile(path, []byte("DEDUP_RANK_BY=trending\n"), 0o644))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	loader := AddEnvFlag(fs, ".env", "")
	require.NoError(t, fs.Parse([]string{"--env", path}))

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, path, loaded)
	assert.Equal(t, "trending", os.Getenv("DEDUP_RANK_BY"))
}

func TestEnvLoader_OverrideVarWins(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(dir, "override.env")
	require.NoError(t, os.WriteFile(override, []byte("LOG_LEVEL=debug\n"), 0o644))
	t.Setenv("BRIEFING_ENV_FILE", override)
	t.Setenv("LOG_LEVEL", "info")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	loader := AddEnvFlag(fs, filepath.Join(dir, "missing.env"), "")
	require.NoError(t, fs.Parse(nil))

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, override, loaded)
	assert.Equal(t, "debug", os.Getenv("LOG_LEVEL"))
}

func TestEnvLoader_MissingFile(t *testing.T) {
	t.Setenv("BRIEFING_ENV_FILE", "")

	dir := t.TempDir()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	loader := AddEnvFlag(fs, filepath.Join(dir, "nope.env"), "")
	require.NoError(t, fs.Parse(nil))

	_, err := loader.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), filepath.Join(dir, "nope.env"))

	var nilLoader *EnvLoader
	_, err = nilLoader.Load()
	assert.Error(t, err)
}

func TestEnvLoader_BrokenOverrideFallsBackToFlag(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BRIEFING_ENV_FILE", filepath.Join(dir, "absent.env"))
	t.Setenv("DEDUP_CLUSTER_MODE", "seed")

	path := filepath.Join(dir, "flag.env")
	require.NoError(t, os.WriteFile(path, []byte("DEDUP_CLUSTER_MODE=union-find\n"), 0o644))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	loader := AddEnvFlag(fs, ".env", "")
	require.NoError(t, fs.Parse([]string{"--env", path}))

	var out bytes.Buffer
	loader.SetOutput(&out)

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, path, loaded)
	assert.Equal(t, "union-find", os.Getenv("DEDUP_CLUSTER_MODE"))
	assert.Contains(t, out.String(), "Warning: failed to load BRIEFING_ENV_FILE=")
	assert.Contains(t, out.String(), "Loaded environment from "+path)
}

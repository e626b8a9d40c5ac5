package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvAddr, "")
	t.Setenv(EnvLogLevel, "")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Setenv(EnvAddr, "")
	t.Setenv(EnvLogLevel, "")
	dir := t.TempDir()
	data := `{"addr":":9000","viewport_width":1280,"disabled_tools":["fs_write_file"," fs_write_file "]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(data), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 1280, cfg.ViewportWidth)
	assert.Equal(t, 1080, cfg.ViewportHeight)
	assert.Equal(t, []string{"fs_write_file"}, cfg.DisabledTools)
	assert.True(t, cfg.ToolDisabled("fs_write_file"))
	assert.False(t, cfg.ToolDisabled("fs_search"))
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvAddr, "127.0.0.1:7000")
	t.Setenv(EnvLogLevel, "DEBUG")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestDataDir(t *testing.T) {
	t.Setenv(EnvDataDir, "")
	assert.Equal(t, "/tmp/flag", DataDir("/tmp/flag"))

	t.Setenv(EnvDataDir, "/tmp/env")
	assert.Equal(t, "/tmp/env", DataDir("/tmp/flag"))
}

func TestMerge(t *testing.T) {
	base := &Config{Addr: ":1", LogLevel: "info", ImportRoots: []string{"/a"}}
	overlay := &Config{LogLevel: "warn", ImportRoots: []string{"/b", "/a"}}

	got := Merge(base, overlay)

	assert.Equal(t, ":1", got.Addr)
	assert.Equal(t, "warn", got.LogLevel)
	assert.Equal(t, []string{"/a", "/b"}, got.ImportRoots)
	assert.Nil(t, Merge(&Config{}, &Config{}).DisabledTools)
}

func TestImportAllowed(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{ImportRoots: []string{root}}

	assert.True(t, cfg.ImportAllowed(root))
	assert.True(t, cfg.ImportAllowed(filepath.Join(root, "sub", "dir")))
	assert.False(t, cfg.ImportAllowed(filepath.Dir(root)))
	assert.False(t, cfg.ImportAllowed(root+"-other"))

	open := &Config{}
	assert.True(t, open.ImportAllowed(root))
}

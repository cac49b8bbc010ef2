package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.json")
	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	want := Default()
	want.path = path
	assert.Equal(t, want, cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"mode": "PushToTalk",
		"audio": {"backend": "miniaudio", "sample_rate": 16000}
	}`), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, ModePushToTalk, cfg.Mode)
	assert.Equal(t, "miniaudio", cfg.Audio.Backend)
	assert.Equal(t, 16000, cfg.Audio.SampleRate)
	assert.Equal(t, 100, cfg.Audio.ChunkMs, "unset fields keep their defaults")
	assert.Equal(t, 1600, cfg.ChunkFrames())
}

func TestLoadFromRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"mode":`},
		{"unknown backend", `{"audio": {"backend": "jack"}}`},
		{"zero sample rate", `{"audio": {"sample_rate": 0}}`},
		{"negative chunk", `{"audio": {"chunk_ms": -5}}`},
		{"unknown mode", `{"mode": "Hold"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadFrom(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Default()
	cfg.Mode = ModePushToTalk
	cfg.MetricsAddr = "127.0.0.1:9464"
	cfg.path = path
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestConfigPathHonoursXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG paths only apply on Linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	assert.Equal(t, filepath.Join(dir, "tapedeck", "config.json"), Path())
}

func TestSaveWritesToLoadedFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "deck.json")
	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.File())

	cfg.MaxTapes = 3
	require.NoError(t, cfg.Save())

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.MaxTapes)

	_, err = os.Stat(Path())
	assert.True(t, os.IsNotExist(err), "platform config must not be written")
}

func TestSaveModeKeepsOtherValuesOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"log_level": "warn", "mode": "Toggle"}`), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	// Overrides for this run only, as the command line flags do.
	cfg.Audio.Backend = "miniaudio"
	cfg.MetricsAddr = "127.0.0.1:9464"

	require.NoError(t, cfg.SaveMode(ModePushToTalk))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, ModePushToTalk, loaded.Mode)
	assert.Equal(t, "warn", loaded.LogLevel)
	assert.Equal(t, "portaudio", loaded.Audio.Backend)
	assert.Empty(t, loaded.MetricsAddr)

	assert.Error(t, cfg.SaveMode("Hold"))
}

package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeKeepsDefaults(t *testing.T) {
	cfg := Default()
	err := Decode([]byte(`
[host]
url = "wss://example.com/plots"
reconnect_delay = "500ms"

[render]
present_mode = "mailbox"
background_color = [0.0, 0.0, 0.0, 1.0]
`), &cfg)
	require.NoError(t, err)

	assert.Equal(t, "wss://example.com/plots", cfg.Host.URL)
	assert.Equal(t, 500*time.Millisecond, cfg.Host.ReconnectDelay.Duration)
	assert.Equal(t, "mailbox", cfg.Render.PresentMode)
	assert.Equal(t, [4]float32{0, 0, 0, 1}, cfg.Render.BackgroundColor)
	assert.Equal(t, 4, cfg.Render.MSAA)
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.NoError(t, cfg.Validate())
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	cfg := Default()
	err := Decode([]byte("[window]\nfullscreen = true\n"), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fullscreen")
}

func TestEncodeRoundTrip(t *testing.T) {
	data, err := Encode(Default())
	require.NoError(t, err)

	var cfg Config
	require.NoError(t, Decode(data, &cfg))
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(c *Config) {}, ok: true},
		{name: "http url", mutate: func(c *Config) { c.Host.URL = "http://host" }},
		{name: "negative delay", mutate: func(c *Config) { c.Host.ReconnectDelay.Duration = -time.Second }},
		{name: "zero window", mutate: func(c *Config) { c.Window.Width = 0 }},
		{name: "zero window headless", mutate: func(c *Config) { c.Window.Width = 0; c.Window.Headless = true }, ok: true},
		{name: "msaa 2", mutate: func(c *Config) { c.Render.MSAA = 2 }},
		{name: "present mode", mutate: func(c *Config) { c.Render.PresentMode = "vsync" }},
		{name: "frame limit", mutate: func(c *Config) { c.Render.FrameLimit = -1 }},
		{name: "workers", mutate: func(c *Config) { c.Loader.Workers = -2 }},
		{name: "log level", mutate: func(c *Config) { c.Log.Level = "loud" }},
		{name: "debug level", mutate: func(c *Config) { c.Log.Level = "debug" }, ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}

func TestLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "warn"
	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[loader]\nworkers = 3\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Loader.Workers)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("[render]\nmsaa = 8\n"), 0o644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"info\"\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloaded := make(chan Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, nil, func(c Config) { reloaded <- c })
	}()

	// Give the watcher time to register before writing.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case cfg := <-reloaded:
			assert.Equal(t, "debug", cfg.Log.Level)
			cancel()
			assert.NoError(t, <-done)
			return
		case <-tick.C:
			require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"debug\"\n"), 0o644))
		case <-deadline:
			t.Fatal("no reload")
		}
	}
}

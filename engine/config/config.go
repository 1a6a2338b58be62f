// Package config holds the runtime configuration of the plot viewer, read from a TOML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "~/.config/oxyplot/config.toml"

// ErrInvalid is wrapped by every Validate error.
var ErrInvalid = errors.New("invalid config")

// Duration is a time.Duration read from a TOML string such as "2s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the full runtime configuration.
type Config struct {
	Host   Host   `toml:"host"`
	Window Window `toml:"window"`
	Render Render `toml:"render"`
	Loader Loader `toml:"loader"`
	Log    Log    `toml:"log"`
}

// Host configures the connection to the plotting host.
type Host struct {
	// URL is the websocket endpoint of the host.
	URL string `toml:"url"`
	// ReconnectDelay is the pause before redialing a dropped connection. Zero disables reconnecting.
	ReconnectDelay Duration `toml:"reconnect_delay"`
}

// Window configures the native window.
type Window struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	// Headless runs the synchronization engine without a window or GPU.
	Headless bool `toml:"headless"`
}

// Render configures the GPU renderer.
type Render struct {
	// MSAA is the sample count, 1 or 4.
	MSAA int `toml:"msaa"`
	// PresentMode is one of fifo, mailbox or immediate.
	PresentMode string `toml:"present_mode"`
	// FrameLimit caps frames per second. Zero means unlimited.
	FrameLimit float64 `toml:"frame_limit"`
	// BackgroundColor clears the window behind every scene.
	BackgroundColor [4]float32 `toml:"background_color"`
}

// Loader configures scene loading.
type Loader struct {
	// Workers is the number of goroutines preparing plots. Zero uses one per CPU.
	Workers int `toml:"workers"`
}

// Log configures logging.
type Log struct {
	// Level is one of debug, info, warn or error.
	Level string `toml:"level"`
}

// Default returns the configuration used for missing keys.
//
// Returns:
//   - Config: the defaults
func Default() Config {
	return Config{
		Host: Host{
			URL:            "ws://127.0.0.1:9284/oxyplot",
			ReconnectDelay: Duration{2 * time.Second},
		},
		Window: Window{
			Title:  "oxyplot",
			Width:  1280,
			Height: 720,
		},
		Render: Render{
			MSAA:            4,
			PresentMode:     "fifo",
			BackgroundColor: [4]float32{1, 1, 1, 1},
		},
		Log: Log{Level: "info"},
	}
}

// Load reads a TOML file over the defaults and validates the result. A leading ~ in path
// is expanded to the home directory. A missing file at DefaultPath is not an error.
//
// Parameters:
//   - path: the file path, empty for DefaultPath
//
// Returns:
//   - Config: the configuration
//   - error: a read, decode or validation error
func Load(path string) (Config, error) {
	cfg := Default()
	usingDefault := path == ""
	if usingDefault {
		path = DefaultPath
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return cfg, fmt.Errorf("config path %s: %w", path, err)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		if usingDefault && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", expanded, err)
	}
	return cfg, cfg.Validate()
}

// Decode reads TOML into cfg, keeping the values of keys the document does not set.
// Unknown keys are rejected.
//
// Parameters:
//   - data: the TOML document
//   - cfg: the configuration to fill
//
// Returns:
//   - error: a decode error naming the offending key
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("unknown keys:\n%s", strict.String())
		}
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// Encode writes cfg as TOML.
//
// Parameters:
//   - cfg: the configuration
//
// Returns:
//   - []byte: the TOML document
//   - error: an encode error
func Encode(cfg Config) ([]byte, error) {
	return toml.Marshal(cfg)
}

// Validate checks value ranges.
//
// Returns:
//   - error: an error wrapping ErrInvalid
func (c Config) Validate() error {
	u, err := url.Parse(c.Host.URL)
	if err != nil {
		return fmt.Errorf("%w: host.url: %v", ErrInvalid, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("%w: host.url: scheme must be ws or wss, got %q", ErrInvalid, u.Scheme)
	}
	if c.Host.ReconnectDelay.Duration < 0 {
		return fmt.Errorf("%w: host.reconnect_delay must not be negative", ErrInvalid)
	}
	if !c.Window.Headless && (c.Window.Width <= 0 || c.Window.Height <= 0) {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	if c.Render.MSAA != 1 && c.Render.MSAA != 4 {
		return fmt.Errorf("%w: render.msaa must be 1 or 4, got %d", ErrInvalid, c.Render.MSAA)
	}
	switch c.Render.PresentMode {
	case "fifo", "mailbox", "immediate":
	default:
		return fmt.Errorf("%w: render.present_mode %q", ErrInvalid, c.Render.PresentMode)
	}
	if c.Render.FrameLimit < 0 {
		return fmt.Errorf("%w: render.frame_limit must not be negative", ErrInvalid)
	}
	if c.Loader.Workers < 0 {
		return fmt.Errorf("%w: loader.workers must not be negative", ErrInvalid)
	}
	if _, err := c.LogLevel(); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	return nil
}

// LogLevel parses Log.Level.
//
// Returns:
//   - slog.Level: the level
//   - error: an error for an unknown level name
func (c Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	err := lvl.UnmarshalText([]byte(c.Log.Level))
	return lvl, err
}

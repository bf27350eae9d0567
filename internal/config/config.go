// Package config loads riptide.toml, the settings file for the CLI demos and
// for trace recording.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultPath is where commands look for settings unless told otherwise.
const DefaultPath = "riptide.toml"

// Echo configures the `riptide echo` server demo.
type Echo struct {
	Listen        string `toml:"listen"`
	IdleTimeoutMS int    `toml:"idle_timeout_ms"`
}

// IdleTimeout returns the per-connection idle timeout, zero meaning none.
func (e Echo) IdleTimeout() time.Duration {
	if e.IdleTimeoutMS <= 0 {
		return 0
	}
	return time.Duration(e.IdleTimeoutMS) * time.Millisecond
}

// Monitor configures the `riptide monitor` workload.
type Monitor struct {
	Timers int `toml:"timers"`
	TickMS int `toml:"tick_ms"`
}

// Tick returns the workload tick interval.
func (m Monitor) Tick() time.Duration {
	if m.TickMS <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(m.TickMS) * time.Millisecond
}

// Trace configures engine trace recording.
type Trace struct {
	Level  string `toml:"level"`
	Mode   string `toml:"mode"`
	Format string `toml:"format"`
	Path   string `toml:"path"`
}

// Config is the root of riptide.toml.
type Config struct {
	Echo    Echo    `toml:"echo"`
	Monitor Monitor `toml:"monitor"`
	Trace   Trace   `toml:"trace"`
}

// Default returns the settings used when no riptide.toml exists.
func Default() Config {
	return Config{
		Echo: Echo{
			Listen:        "127.0.0.1:7070",
			IdleTimeoutMS: 30000,
		},
		Monitor: Monitor{
			Timers: 8,
			TickMS: 250,
		},
		Trace: Trace{
			Level:  "off",
			Mode:   "ring",
			Format: "auto",
		},
	}
}

// Load reads settings from path. A missing file is not an error: defaults are
// returned, so commands work out of the box.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

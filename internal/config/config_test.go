package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "riptide.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Echo.Listen != "127.0.0.1:7070" {
		t.Fatalf("default listen = %q", cfg.Echo.Listen)
	}
	if cfg.Monitor.Tick() != 250*time.Millisecond {
		t.Fatalf("default tick = %v", cfg.Monitor.Tick())
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := writeFile(t, "[echo]\nlisten = \":9000\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Echo.Listen != ":9000" {
		t.Fatalf("listen = %q, want :9000", cfg.Echo.Listen)
	}
	if cfg.Echo.IdleTimeout() != 30*time.Second {
		t.Fatalf("idle timeout default lost: %v", cfg.Echo.IdleTimeout())
	}
	if cfg.Monitor.Timers != 8 {
		t.Fatalf("monitor defaults lost: %+v", cfg.Monitor)
	}
}

func TestUnknownKeyRejected(t *testing.T) {
	path := writeFile(t, "[echo]\nlisten = \":9000\"\nbogus = 1\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("unknown key accepted")
	}
}

func TestMalformedFileRejected(t *testing.T) {
	path := writeFile(t, "[echo\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("malformed TOML accepted")
	}
}

func TestZeroIdleTimeoutMeansNone(t *testing.T) {
	path := writeFile(t, "[echo]\nidle_timeout_ms = 0\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Echo.IdleTimeout() != 0 {
		t.Fatalf("idle timeout = %v, want none", cfg.Echo.IdleTimeout())
	}
}

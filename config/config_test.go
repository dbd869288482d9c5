package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("http:\n  addr: \":8080\"\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.WS.SendBuffer != 256 || cfg.WS.PingEvery != 15*time.Second || cfg.WS.ReadLimit != 1<<20 {
		t.Fatalf("ws defaults not applied: %+v", cfg.WS)
	}
	if cfg.Logging.Service != "board-service" || cfg.Logging.Backend != "std" {
		t.Fatalf("logging defaults not applied: %+v", cfg.Logging)
	}
	if cfg.Rooms.ReapAfter != 0 || cfg.Rooms.ReapEvery != 0 {
		t.Fatalf("reaper must stay disabled by default: %+v", cfg.Rooms)
	}
	if cfg.JournalEnabled() {
		t.Fatal("journal must be disabled without dsn")
	}
	if cfg.GRPC.Addr != "" {
		t.Fatal("grpc must stay disabled without addr")
	}
}

func TestParse_Durations(t *testing.T) {
	cfg, err := Parse([]byte(`
http:
  addr: ":1"
rooms:
  reapAfter: 10m
ws:
  pingEvery: 3s
postgres:
  dsn: "postgres://x"
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Rooms.ReapAfter != 10*time.Minute || cfg.Rooms.ReapEvery != time.Minute {
		t.Fatalf("rooms: %+v", cfg.Rooms)
	}
	if cfg.WS.PingEvery != 3*time.Second {
		t.Fatalf("pingEvery: %v", cfg.WS.PingEvery)
	}
	if !cfg.JournalEnabled() || cfg.Postgres.ApplicationName != "board-service" {
		t.Fatalf("postgres: %+v", cfg.Postgres)
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing addr":   "logging:\n  env: dev\n",
		"negative reap":  "http:\n  addr: \":1\"\nrooms:\n  reapAfter: -1s\n",
		"negative limit": "http:\n  addr: \":1\"\nws:\n  readLimit: -5\n",
		"bad yaml":       "http: [",
	}
	for name, data := range cases {
		if _, err := Parse([]byte(data)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadConfig_FromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("http:\n  addr: \":9999\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":9999" {
		t.Fatalf("addr = %q", cfg.HTTP.Addr)
	}
}

func TestLoadConfig_ShippedFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", "config.yaml")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("shipped config must be valid: %v", err)
	}
	if cfg.GRPC.Addr == "" {
		t.Fatalf("unexpected shipped config: %+v", cfg)
	}
	if cfg.Rooms.ReapAfter != 0 {
		t.Fatalf("shipped config must not evict rooms, reapAfter = %v", cfg.Rooms.ReapAfter)
	}
}

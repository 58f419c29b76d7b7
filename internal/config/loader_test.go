package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoadFlappyEmbeddedDefault(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadFlappy("")
	if err != nil {
		t.Fatalf("LoadFlappy() failed: %v", err)
	}

	if cfg != DefaultFlappyConfig() {
		t.Errorf("embedded defaults differ from DefaultFlappyConfig():\n%+v\n%+v", cfg, DefaultFlappyConfig())
	}
	if got := cfg.BirdX(); got != 43.1 {
		t.Errorf("BirdX() = %v, expected 43.1", got)
	}
	if got := cfg.Pitch(); got != 348 {
		t.Errorf("Pitch() = %v, expected 348", got)
	}
}

func TestLoadFlappyCustomYAMLOverridesFields(t *testing.T) {
	path := writeFile(t, "flappy.yaml", `
physics:
  gravity: 0.25
obstacles:
  pipe_gap: 200
`)

	cfg, err := LoadFlappy(path)
	if err != nil {
		t.Fatalf("LoadFlappy() failed: %v", err)
	}

	if cfg.Physics.Gravity != 0.25 {
		t.Errorf("gravity = %v, expected 0.25", cfg.Physics.Gravity)
	}
	if cfg.Obstacles.PipeGap != 200 {
		t.Errorf("pipe_gap = %v, expected 200", cfg.Obstacles.PipeGap)
	}
	// Untouched fields keep their defaults
	if cfg.Physics.JumpImpulse != -8 {
		t.Errorf("jump_impulse = %v, expected default -8", cfg.Physics.JumpImpulse)
	}
}

func TestLoadFlappyCustomTOML(t *testing.T) {
	path := writeFile(t, "flappy.toml", `
[physics]
speed = 3.5

[world]
height = 600
`)

	cfg, err := LoadFlappy(path)
	if err != nil {
		t.Fatalf("LoadFlappy() failed: %v", err)
	}
	if cfg.Physics.Speed != 3.5 || cfg.World.Height != 600 {
		t.Errorf("toml values not applied: %+v", cfg)
	}
}

func TestLoadFlappyRejectsUnplayableWorld(t *testing.T) {
	path := writeFile(t, "flappy.yaml", `
world:
  height: 300
`)

	if _, err := LoadFlappy(path); err == nil {
		t.Error("expected validation error for a world too short for the gap")
	}
}

func TestLoadFlappyMissingFile(t *testing.T) {
	if _, err := LoadFlappy(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing custom config")
	}
}

func TestLoadServerDefaults(t *testing.T) {
	t.Setenv(EnvVar, "")

	cfg, err := LoadServer("")
	if err != nil {
		t.Fatalf("LoadServer() failed: %v", err)
	}
	if cfg.Address != ":8080" {
		t.Errorf("address = %q", cfg.Address)
	}

	db, err := cfg.ActiveDatabase()
	if err != nil {
		t.Fatalf("ActiveDatabase() failed: %v", err)
	}
	if db.Driver != "sqlite" || db.DSN != "~/.flappy/scores.db" {
		t.Errorf("local database = %+v", db)
	}
}

func TestLoadServerTOMLProductionSelection(t *testing.T) {
	t.Setenv(EnvVar, "")
	path := writeFile(t, "server.toml", `
address = ":9000"
environment = "production"

[databases.production]
driver = "postgres"
dsn = "postgres://u:p@db:5432/scores"
`)

	cfg, err := LoadServer(path)
	if err != nil {
		t.Fatalf("LoadServer() failed: %v", err)
	}
	if cfg.Address != ":9000" {
		t.Errorf("address = %q", cfg.Address)
	}

	db, err := cfg.ActiveDatabase()
	if err != nil {
		t.Fatalf("ActiveDatabase() failed: %v", err)
	}
	if db.Driver != "postgres" || db.DSN != "postgres://u:p@db:5432/scores" {
		t.Errorf("production database = %+v", db)
	}
}

func TestLoadServerEnvOverride(t *testing.T) {
	t.Setenv(EnvVar, "staging")

	cfg, err := LoadServer("")
	if err != nil {
		t.Fatalf("LoadServer() failed: %v", err)
	}
	if cfg.Environment != "staging" {
		t.Errorf("environment = %q, expected staging", cfg.Environment)
	}
	if _, err := cfg.ActiveDatabase(); err == nil {
		t.Error("expected error for environment without database")
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandHome("~/.flappy/scores.db")
	if err != nil {
		t.Fatalf("ExpandHome() failed: %v", err)
	}
	if got != filepath.Join(home, ".flappy", "scores.db") {
		t.Errorf("ExpandHome() = %q", got)
	}

	if got, _ := ExpandHome("/tmp/x.db"); got != "/tmp/x.db" {
		t.Errorf("absolute path changed: %q", got)
	}
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/ladder-game/internal/game"
	"github.com/sweeney/ladder-game/internal/gpio"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ladder.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestDefaultMatchesGameDefaults(t *testing.T) {
	if got, want := Default().GameConfig(), game.DefaultConfig(); got != want {
		t.Errorf("game config:\ngot:  %+v\nwant: %+v", got, want)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
player: Ada
tick: 50ms
heartbeat: 1m
game:
  button:
    bank: B
    pin: 0
    active_low: true
  lights: A
  levels: 4
  min_delay: 80ms
gpio:
  chip: gpiochip4
  pull_up: true
  banks:
    A:
      outputs: [5, 6, 13, 19]
      inputs: []
    B:
      inputs: [26]
      outputs: []
mqtt:
  broker: tcp://broker:1883
redis:
  addr: localhost:6379
  key: arcade:scores
score_file: /var/lib/ladder/scores.jsonl
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Player != "Ada" || cfg.Tick != 50*time.Millisecond || cfg.Heartbeat != time.Minute {
		t.Errorf("unexpected top-level fields: %+v", cfg)
	}
	g := cfg.GameConfig()
	if g.ButtonBank != gpio.BankB || g.ButtonPin != 0 || !g.ButtonActiveLow {
		t.Errorf("unexpected button: %+v", g)
	}
	if g.LightBank != gpio.BankA || g.Levels != 4 || g.MinDelay != 80*time.Millisecond {
		t.Errorf("unexpected lights: %+v", g)
	}
	// Unset fields keep their defaults.
	if g.BaseDelayMin != 500*time.Millisecond || g.LevelSpeedup != 15*time.Millisecond {
		t.Errorf("defaults not kept: %+v", g)
	}
	if cfg.GPIO.Chip != "gpiochip4" || !cfg.GPIO.PullUp {
		t.Errorf("unexpected gpio: %+v", cfg.GPIO)
	}
	if cfg.MQTT.Broker != "tcp://broker:1883" || cfg.MQTT.ClientID != "ladder-game" {
		t.Errorf("unexpected mqtt: %+v", cfg.MQTT)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.Key != "arcade:scores" || cfg.Redis.Timeout != 200*time.Millisecond {
		t.Errorf("unexpected redis: %+v", cfg.Redis)
	}
	if cfg.ScoreFile != "/var/lib/ladder/scores.jsonl" {
		t.Errorf("unexpected score file: %s", cfg.ScoreFile)
	}
}

func TestLoadEmptyFileUsesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Player != Default().Player || cfg.Tick != Default().Tick {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "plaeyr: Ada\n"))
	if err == nil || !strings.Contains(err.Error(), "plaeyr") {
		t.Errorf("expected unknown field error, got %v", err)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	_, err := Load(writeConfig(t, "tick: soon\n"))
	if err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero tick", func(c *Config) { c.Tick = 0 }, "tick"},
		{"negative heartbeat", func(c *Config) { c.Heartbeat = -time.Second }, "heartbeat"},
		{"redis without timeout", func(c *Config) { c.Redis.Addr = "r:6379"; c.Redis.Timeout = 0 }, "redis timeout"},
		{"bad button bank", func(c *Config) { c.Game.Button.Bank = "C" }, "invalid bank"},
		{"pin out of range", func(c *Config) { c.Game.Button.Pin = 8 }, "invalid pin"},
		{"button not wired", func(c *Config) { c.Game.Button.Pin = 3 }, "no input line"},
		{"too few lights", func(c *Config) {
			c.GPIO.Banks[gpio.BankB] = gpio.BankLines{Outputs: []int{5, 6, 13}}
		}, "bit 3 has no output line"},
		{"bad gpio bank", func(c *Config) { c.GPIO.Banks["Z"] = gpio.BankLines{} }, "invalid bank"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateWrapsGameErrors(t *testing.T) {
	cfg := Default()
	cfg.Game.Levels = 0
	if err := cfg.Validate(); !errors.Is(err, game.ErrInvalidConfig) {
		t.Errorf("expected game.ErrInvalidConfig, got %v", err)
	}
}

// Package config loads the ladder-game configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/ladder-game/internal/game"
	"github.com/sweeney/ladder-game/internal/gpio"
)

// Config is the complete process configuration.
type Config struct {
	Player    string        `yaml:"player"`
	Tick      time.Duration `yaml:"tick"`
	Heartbeat time.Duration `yaml:"heartbeat"` // 0 disables

	Game  GameConfig  `yaml:"game"`
	GPIO  gpio.Config `yaml:"gpio"`
	MQTT  MQTTConfig  `yaml:"mqtt"`
	Redis RedisConfig `yaml:"redis"`

	// ScoreFile, if set, receives one JSON line per score.
	ScoreFile string `yaml:"score_file"`
}

// GameConfig holds the wiring and timing of the game.
type GameConfig struct {
	Button ButtonConfig `yaml:"button"`
	Lights gpio.Bank    `yaml:"lights"`
	Levels int          `yaml:"levels"`

	BaseDelayMin time.Duration `yaml:"base_delay_min"`
	BaseDelayMax time.Duration `yaml:"base_delay_max"`
	LevelSpeedup time.Duration `yaml:"level_speedup"`
	MinDelay     time.Duration `yaml:"min_delay"`
}

// ButtonConfig locates the button input.
type ButtonConfig struct {
	Bank      gpio.Bank `yaml:"bank"`
	Pin       int       `yaml:"pin"`
	ActiveLow bool      `yaml:"active_low"`
}

// MQTTConfig configures score and lifecycle publishing. An empty broker disables it.
type MQTTConfig struct {
	Broker         string        `yaml:"broker"`
	ClientID       string        `yaml:"client_id"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// RedisConfig configures the highscore store. An empty address disables it.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Key      string        `yaml:"key"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Default returns the configuration of the original cabinet: button on
// bank A pin 7, eight LEDs on bank B.
func Default() Config {
	g := game.DefaultConfig()
	return Config{
		Player:    g.Player,
		Tick:      100 * time.Millisecond,
		Heartbeat: 15 * time.Minute,
		Game: GameConfig{
			Button: ButtonConfig{
				Bank:      g.ButtonBank,
				Pin:       g.ButtonPin,
				ActiveLow: g.ButtonActiveLow,
			},
			Lights:       g.LightBank,
			Levels:       g.Levels,
			BaseDelayMin: g.BaseDelayMin,
			BaseDelayMax: g.BaseDelayMax,
			LevelSpeedup: g.LevelSpeedup,
			MinDelay:     g.MinDelay,
		},
		GPIO: gpio.Config{
			Chip: "gpiochip0",
			Banks: map[gpio.Bank]gpio.BankLines{
				gpio.BankA: {Inputs: []int{gpio.Unwired, gpio.Unwired, gpio.Unwired, gpio.Unwired, gpio.Unwired, gpio.Unwired, gpio.Unwired, 26}},
				gpio.BankB: {Outputs: []int{5, 6, 13, 19, 12, 16, 20, 21}},
			},
		},
		MQTT: MQTTConfig{
			ClientID:       "ladder-game",
			ConnectTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			Timeout: 200 * time.Millisecond,
		},
	}
}

// Load reads path over the defaults and validates the result.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GameConfig returns the game.Config described by c.
func (c Config) GameConfig() game.Config {
	return game.Config{
		Player:          c.Player,
		ButtonBank:      c.Game.Button.Bank,
		ButtonPin:       c.Game.Button.Pin,
		ButtonActiveLow: c.Game.Button.ActiveLow,
		LightBank:       c.Game.Lights,
		Levels:          c.Game.Levels,
		BaseDelayMin:    c.Game.BaseDelayMin,
		BaseDelayMax:    c.Game.BaseDelayMax,
		LevelSpeedup:    c.Game.LevelSpeedup,
		MinDelay:        c.Game.MinDelay,
	}
}

// Validate checks c and that the game's button and lights are wired.
func (c Config) Validate() error {
	if c.Tick <= 0 {
		return fmt.Errorf("config: tick %v must be positive", c.Tick)
	}
	if c.Heartbeat < 0 {
		return fmt.Errorf("config: heartbeat %v is negative", c.Heartbeat)
	}
	if c.Redis.Addr != "" && c.Redis.Timeout <= 0 {
		return fmt.Errorf("config: redis timeout %v must be positive", c.Redis.Timeout)
	}
	if err := c.GameConfig().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.GPIO.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	button := c.GPIO.Banks[c.Game.Button.Bank]
	if !wired(button.Inputs, c.Game.Button.Pin) {
		return fmt.Errorf("config: button bank %s pin %d has no input line", c.Game.Button.Bank, c.Game.Button.Pin)
	}
	lights := c.GPIO.Banks[c.Game.Lights]
	for bit := 0; bit < c.Game.Levels; bit++ {
		if !wired(lights.Outputs, bit) {
			return fmt.Errorf("config: light bank %s bit %d has no output line", c.Game.Lights, bit)
		}
	}
	return nil
}

func wired(offsets []int, bit int) bool {
	return bit < len(offsets) && offsets[bit] != gpio.Unwired
}

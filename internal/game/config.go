package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/ladder-game/internal/gpio"
)

// ErrInvalidConfig wraps every configuration error.
var ErrInvalidConfig = errors.New("game: invalid config")

// Config holds load-time game constants.
type Config struct {
	Player string

	ButtonBank      gpio.Bank
	ButtonPin       int
	ButtonActiveLow bool // raw low = pressed (pull-up wiring)

	LightBank gpio.Bank

	// Levels is the number of positions on the light row.
	Levels int

	// The blink delay for a session is drawn once from [BaseDelayMin, BaseDelayMax]
	// and shortened by LevelSpeedup per level, never below MinDelay.
	BaseDelayMin time.Duration
	BaseDelayMax time.Duration
	LevelSpeedup time.Duration
	MinDelay     time.Duration
}

// DefaultConfig returns the wiring and timing of the original cabinet.
func DefaultConfig() Config {
	return Config{
		Player:       "Falk",
		ButtonBank:   gpio.BankA,
		ButtonPin:    7,
		LightBank:    gpio.BankB,
		Levels:       8,
		BaseDelayMin: 500 * time.Millisecond,
		BaseDelayMax: 1000 * time.Millisecond,
		LevelSpeedup: 15 * time.Millisecond,
		MinDelay:     100 * time.Millisecond,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Player == "" {
		return fmt.Errorf("%w: player name is empty", ErrInvalidConfig)
	}
	if _, err := gpio.ParseBank(string(c.ButtonBank)); err != nil {
		return fmt.Errorf("%w: button: %v", ErrInvalidConfig, err)
	}
	if err := gpio.ValidatePin(c.ButtonPin); err != nil {
		return fmt.Errorf("%w: button: %v", ErrInvalidConfig, err)
	}
	if _, err := gpio.ParseBank(string(c.LightBank)); err != nil {
		return fmt.Errorf("%w: lights: %v", ErrInvalidConfig, err)
	}
	if c.Levels < 1 || c.Levels > gpio.LinesPerBank {
		return fmt.Errorf("%w: levels %d not in [1, %d]", ErrInvalidConfig, c.Levels, gpio.LinesPerBank)
	}
	if c.MinDelay <= 0 {
		return fmt.Errorf("%w: min delay %v must be positive", ErrInvalidConfig, c.MinDelay)
	}
	if c.BaseDelayMin <= 0 || c.BaseDelayMax < c.BaseDelayMin {
		return fmt.Errorf("%w: base delay range [%v, %v]", ErrInvalidConfig, c.BaseDelayMin, c.BaseDelayMax)
	}
	if c.LevelSpeedup < 0 {
		return fmt.Errorf("%w: level speedup %v is negative", ErrInvalidConfig, c.LevelSpeedup)
	}
	return nil
}

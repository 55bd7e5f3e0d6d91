// Package gpio provides banked digital I/O with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"errors"
	"fmt"
)

// Bank names a group of 8 output lines and 8 input lines addressed together.
type Bank string

const (
	BankA Bank = "A"
	BankB Bank = "B"
)

// LinesPerBank is the width of a bank in either direction.
const LinesPerBank = 8

// ErrInvalidBank is returned for bank names other than A and B.
var ErrInvalidBank = errors.New("gpio: invalid bank")

// ErrInvalidPin is returned for pin numbers outside [0, LinesPerBank).
var ErrInvalidPin = errors.New("gpio: invalid pin")

// Port reads and writes 8-bit patterns per bank. Bit i is line i.
type Port interface {
	// WriteOutputs drives the bank's output lines to pattern.
	WriteOutputs(bank Bank, pattern uint8) error

	// ReadOutputs returns the current output pattern of the bank.
	ReadOutputs(bank Bank) (uint8, error)

	// ReadInputs returns the bank's input lines. Raw levels, no inversion.
	ReadInputs(bank Bank) (uint8, error)

	// Close releases GPIO resources.
	Close() error
}

// ParseBank validates a bank name.
func ParseBank(s string) (Bank, error) {
	switch b := Bank(s); b {
	case BankA, BankB:
		return b, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidBank, s)
}

// ValidatePin checks that pin addresses a line within a bank.
func ValidatePin(pin int) error {
	if pin < 0 || pin >= LinesPerBank {
		return fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	return nil
}

// InputPin returns the raw level of a single input line.
func InputPin(p Port, bank Bank, pin int) (bool, error) {
	v, err := p.ReadInputs(bank)
	if err != nil {
		return false, err
	}
	return v&(1<<pin) != 0, nil
}

// Unwired marks a bank bit with no line behind it.
const Unwired = -1

// BankLines maps each bit of a bank to a line offset on the chip.
// Index i is bit i; Unwired or a short slice leaves the bit unconnected.
type BankLines struct {
	Outputs []int `yaml:"outputs"`
	Inputs  []int `yaml:"inputs"`
}

// Config describes how banks are wired to a gpiochip.
type Config struct {
	Chip   string             `yaml:"chip"`
	PullUp bool               `yaml:"pull_up"` // inputs use pull-down unless set
	Banks  map[Bank]BankLines `yaml:"banks"`
}

// Validate checks bank names and offset lists.
func (c Config) Validate() error {
	if c.Chip == "" {
		return errors.New("gpio: chip name is empty")
	}
	seen := make(map[int]string)
	for bank, lines := range c.Banks {
		if _, err := ParseBank(string(bank)); err != nil {
			return err
		}
		for dir, offsets := range map[string][]int{"outputs": lines.Outputs, "inputs": lines.Inputs} {
			if len(offsets) > LinesPerBank {
				return fmt.Errorf("gpio: bank %s %s: %d lines, max %d", bank, dir, len(offsets), LinesPerBank)
			}
			for bit, off := range offsets {
				if off == Unwired {
					continue
				}
				if off < 0 {
					return fmt.Errorf("gpio: bank %s %s bit %d: invalid offset %d", bank, dir, bit, off)
				}
				where := fmt.Sprintf("bank %s %s bit %d", bank, dir, bit)
				if prev, dup := seen[off]; dup {
					return fmt.Errorf("gpio: offset %d used by %s and %s", off, prev, where)
				}
				seen[off] = where
			}
		}
	}
	return nil
}

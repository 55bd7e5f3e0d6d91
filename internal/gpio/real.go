//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealPort drives banks through the Linux GPIO character device.
type RealPort struct {
	chip  *gpiocdev.Chip
	banks map[Bank]*bankLines
}

// bankLines holds the requested lines of one bank and the bit each maps to.
type bankLines struct {
	out     *gpiocdev.Lines
	outBits []int
	in      *gpiocdev.Lines
	inBits  []int
}

// NewRealPort requests every wired line in cfg. Outputs start low.
func NewRealPort(cfg Config) (*RealPort, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	chip, err := gpiocdev.NewChip(cfg.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	p := &RealPort{chip: chip, banks: make(map[Bank]*bankLines)}

	bias := gpiocdev.WithPullDown
	if cfg.PullUp {
		bias = gpiocdev.WithPullUp
	}

	for bank, lines := range cfg.Banks {
		bl := &bankLines{}
		p.banks[bank] = bl

		offsets, bits := wired(lines.Outputs)
		if len(offsets) > 0 {
			bl.out, err = chip.RequestLines(offsets, gpiocdev.AsOutput(make([]int, len(offsets))...))
			if err != nil {
				p.Close()
				return nil, fmt.Errorf("request bank %s outputs %v: %w", bank, offsets, err)
			}
			bl.outBits = bits
		}

		offsets, bits = wired(lines.Inputs)
		if len(offsets) > 0 {
			bl.in, err = chip.RequestLines(offsets, gpiocdev.AsInput, bias)
			if err != nil {
				p.Close()
				return nil, fmt.Errorf("request bank %s inputs %v: %w", bank, offsets, err)
			}
			bl.inBits = bits
		}
	}

	return p, nil
}

func wired(offsets []int) (lines, bits []int) {
	for bit, off := range offsets {
		if off == Unwired {
			continue
		}
		lines = append(lines, off)
		bits = append(bits, bit)
	}
	return lines, bits
}

func (p *RealPort) bank(bank Bank) (*bankLines, error) {
	bl, ok := p.banks[bank]
	if !ok {
		return nil, fmt.Errorf("%w: %q not configured", ErrInvalidBank, bank)
	}
	return bl, nil
}

// WriteOutputs sets each wired output line of the bank from pattern.
func (p *RealPort) WriteOutputs(bank Bank, pattern uint8) error {
	bl, err := p.bank(bank)
	if err != nil {
		return err
	}
	if bl.out == nil {
		return fmt.Errorf("gpio: bank %s has no output lines", bank)
	}

	values := make([]int, len(bl.outBits))
	for i, bit := range bl.outBits {
		values[i] = int(pattern>>bit) & 1
	}
	if err := bl.out.SetValues(values); err != nil {
		return fmt.Errorf("write bank %s: %w", bank, err)
	}
	return nil
}

// ReadOutputs returns the current level of each wired output line.
func (p *RealPort) ReadOutputs(bank Bank) (uint8, error) {
	bl, err := p.bank(bank)
	if err != nil {
		return 0, err
	}
	if bl.out == nil {
		return 0, nil
	}
	return readPattern(bl.out, bl.outBits)
}

// ReadInputs returns the raw level of each wired input line.
func (p *RealPort) ReadInputs(bank Bank) (uint8, error) {
	bl, err := p.bank(bank)
	if err != nil {
		return 0, err
	}
	if bl.in == nil {
		return 0, nil
	}
	return readPattern(bl.in, bl.inBits)
}

func readPattern(lines *gpiocdev.Lines, bits []int) (uint8, error) {
	values := make([]int, len(bits))
	if err := lines.Values(values); err != nil {
		return 0, fmt.Errorf("read lines: %w", err)
	}
	var pattern uint8
	for i, bit := range bits {
		if values[i] != 0 {
			pattern |= 1 << bit
		}
	}
	return pattern, nil
}

// Close releases GPIO resources.
// Output lines are reconfigured to input with pull-down (matching Pi boot
// defaults) before closing so the LEDs are not left driven.
func (p *RealPort) Close() error {
	var errs []error

	for bank, bl := range p.banks {
		if bl.out != nil {
			if err := bl.out.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
				errs = append(errs, fmt.Errorf("reconfigure bank %s outputs: %w", bank, err))
			}
			if err := bl.out.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close bank %s outputs: %w", bank, err))
			}
		}
		if bl.in != nil {
			if err := bl.in.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close bank %s inputs: %w", bank, err))
			}
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

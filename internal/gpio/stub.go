//go:build !linux

package gpio

import "errors"

// RealPort is not available on non-Linux platforms.
type RealPort struct{}

// NewRealPort returns an error on non-Linux platforms.
func NewRealPort(cfg Config) (*RealPort, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// WriteOutputs is not implemented on non-Linux platforms.
func (p *RealPort) WriteOutputs(bank Bank, pattern uint8) error {
	return errors.New("gpio: not supported")
}

// ReadOutputs is not implemented on non-Linux platforms.
func (p *RealPort) ReadOutputs(bank Bank) (uint8, error) {
	return 0, errors.New("gpio: not supported")
}

// ReadInputs is not implemented on non-Linux platforms.
func (p *RealPort) ReadInputs(bank Bank) (uint8, error) {
	return 0, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (p *RealPort) Close() error {
	return nil
}

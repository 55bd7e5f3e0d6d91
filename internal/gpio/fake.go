package gpio

// FakePort is a test double holding bank state in memory.
type FakePort struct {
	// Inputs holds the input pattern returned per bank.
	Inputs map[Bank]uint8

	// Outputs holds the last written output pattern per bank.
	Outputs map[Bank]uint8

	// Writes records every successful WriteOutputs call in order.
	Writes []Write

	// WriteError, if set, will be returned by WriteOutputs.
	WriteError error

	// ReadError, if set, will be returned by ReadInputs and ReadOutputs.
	ReadError error

	// Closed tracks if Close was called.
	Closed bool
}

// Write is one recorded output write.
type Write struct {
	Bank    Bank
	Pattern uint8
}

// NewFakePort creates a FakePort with all lines low.
func NewFakePort() *FakePort {
	return &FakePort{
		Inputs:  make(map[Bank]uint8),
		Outputs: make(map[Bank]uint8),
	}
}

// WriteOutputs records the pattern.
func (f *FakePort) WriteOutputs(bank Bank, pattern uint8) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Outputs[bank] = pattern
	f.Writes = append(f.Writes, Write{Bank: bank, Pattern: pattern})
	return nil
}

// ReadOutputs returns the last written pattern.
func (f *FakePort) ReadOutputs(bank Bank) (uint8, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	return f.Outputs[bank], nil
}

// ReadInputs returns the configured input pattern.
func (f *FakePort) ReadInputs(bank Bank) (uint8, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	return f.Inputs[bank], nil
}

// SetInput sets or clears a single input line.
func (f *FakePort) SetInput(bank Bank, pin int, high bool) {
	if high {
		f.Inputs[bank] |= 1 << pin
	} else {
		f.Inputs[bank] &^= 1 << pin
	}
}

// Close marks the port as closed.
func (f *FakePort) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded writes and errors.
func (f *FakePort) Reset() {
	f.Writes = nil
	f.WriteError = nil
	f.ReadError = nil
	f.Closed = false
}

package mqtt

import "github.com/sweeney/ladder-game/internal/score"

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	// Scores contains every published score.
	Scores []score.Entry

	// ScorePayloads contains the JSON payloads for scores.
	ScorePayloads [][]byte

	// SystemEvents contains every published system event.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by PublishScore.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishScore records the score.
func (f *FakePublisher) PublishScore(e score.Entry) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatScorePayload(e)
	if err != nil {
		return err
	}
	f.Scores = append(f.Scores, e)
	f.ScorePayloads = append(f.ScorePayloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// Events returns the names of published system events in order.
func (f *FakePublisher) Events() []string {
	out := make([]string, len(f.SystemEvents))
	for i, e := range f.SystemEvents {
		out[i] = e.Event
	}
	return out
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded messages and errors.
func (f *FakePublisher) Reset() {
	f.Scores = nil
	f.ScorePayloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Connected = false
}

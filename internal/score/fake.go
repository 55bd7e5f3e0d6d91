package score

// FakeSink records scores for test assertions.
type FakeSink struct {
	// Scores contains every recorded score in order.
	Scores []Score

	// RecordError, if set, will be returned by Record (the score is still recorded).
	RecordError error
}

// Score is one recorded (player, level) pair.
type Score struct {
	Player string
	Level  int
}

// NewFakeSink creates a FakeSink for testing.
func NewFakeSink() *FakeSink {
	return &FakeSink{}
}

// Record stores the score.
func (f *FakeSink) Record(player string, level int) error {
	f.Scores = append(f.Scores, Score{Player: player, Level: level})
	return f.RecordError
}

// Levels returns the recorded levels in order.
func (f *FakeSink) Levels() []int {
	out := make([]int, len(f.Scores))
	for i, s := range f.Scores {
		out[i] = s.Level
	}
	return out
}

// Reset clears recorded scores.
func (f *FakeSink) Reset() {
	f.Scores = nil
	f.RecordError = nil
}

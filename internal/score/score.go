// Package score records the level a player reached when a run ends.
package score

import (
	"encoding/json"
	"errors"
	"log"
	"time"
)

// Sink receives the final level of a run.
type Sink interface {
	// Record stores the level reached by player.
	// Returns error if storing fails (should not crash the game).
	Record(player string, level int) error
}

// Entry is one recorded score.
type Entry struct {
	Timestamp time.Time
	Session   string
	Player    string
	Level     int
}

// Writer persists or forwards entries.
type Writer interface {
	WriteScore(e Entry) error
}

// WriterFunc adapts a function to Writer.
type WriterFunc func(e Entry) error

// WriteScore calls f(e).
func (f WriterFunc) WriteScore(e Entry) error {
	return f(e)
}

// Recorder is a Sink that stamps entries and fans them out to writers.
type Recorder struct {
	session string
	now     func() time.Time
	writers []Writer
}

// NewRecorder creates a Recorder tagging every entry with session.
func NewRecorder(session string, now func() time.Time, writers ...Writer) *Recorder {
	return &Recorder{
		session: session,
		now:     now,
		writers: writers,
	}
}

// Record writes the entry to every writer, even if some fail.
func (r *Recorder) Record(player string, level int) error {
	e := Entry{
		Timestamp: r.now(),
		Session:   r.session,
		Player:    player,
		Level:     level,
	}

	var errs []error
	for _, w := range r.writers {
		if err := w.WriteScore(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogWriter logs every entry.
type LogWriter struct{}

// WriteScore logs the entry.
func (LogWriter) WriteScore(e Entry) error {
	log.Printf("score: player=%s level=%d session=%s", e.Player, e.Level, e.Session)
	return nil
}

// EntryJSON is the stored JSON form of an entry.
type EntryJSON struct {
	Timestamp string `json:"timestamp"`
	Session   string `json:"session"`
	Player    string `json:"player"`
	Level     int    `json:"level"`
}

// JSON returns the stored form of e.
func (e Entry) JSON() EntryJSON {
	return EntryJSON{
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
		Session:   e.Session,
		Player:    e.Player,
		Level:     e.Level,
	}
}

// FormatEntry creates the JSON encoding of an entry.
func FormatEntry(e Entry) ([]byte, error) {
	return json.Marshal(e.JSON())
}

// Package mqtt publishes game scores and lifecycle events, with an
// abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/ladder-game/internal/score"
)

// TopicScore is the MQTT topic for recorded scores.
const TopicScore = "games/ladder/score"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "games/ladder/system"

// Publisher publishes scores and lifecycle events to MQTT.
type Publisher interface {
	// PublishScore sends a recorded score to the broker.
	// Returns error if publishing fails (should not crash the game).
	PublishScore(e score.Entry) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent is a lifecycle event (STARTUP, SHUTDOWN, HEARTBEAT, RECONNECTED).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // e.g. "SIGTERM" (shutdown only)
	RawPayload []byte // if set, FormatSystemPayload returns it unchanged
	Retained   bool
}

// ScorePayload is the MQTT message body for a score.
type ScorePayload struct {
	Score score.EntryJSON `json:"score"`
}

// FormatScorePayload creates the JSON payload for a score.
func FormatScorePayload(e score.Entry) ([]byte, error) {
	return json.Marshal(ScorePayload{Score: e.JSON()})
}

// SystemPayload is the body of simple system events (LWT, RECONNECTED)
// that carry no status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Event:  event.Event,
		Reason: event.Reason,
	}
	if !event.Timestamp.IsZero() {
		inner.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(SystemPayload{System: inner})
}

// WillPayload is the retained last-will message the broker publishes
// when the connection drops without a clean disconnect.
func WillPayload() []byte {
	p, _ := FormatSystemPayload(SystemEvent{Event: "OFFLINE"})
	return p
}

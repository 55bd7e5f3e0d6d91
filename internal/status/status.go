// Package status tracks a point-in-time view of the running game for
// lifecycle events. A Tracker is owned by the loop goroutine and is not
// safe for concurrent use.
package status

import (
	"time"

	"github.com/sweeney/ladder-game/internal/game"
	"github.com/sweeney/ladder-game/internal/loop"
)

// Config contains process configuration for display.
type Config struct {
	TickMs      int64
	HeartbeatMs int64
	Levels      int
	Broker      string
	Redis       string
	ScoreFile   string
}

// Snapshot is a point-in-time view of process state.
type Snapshot struct {
	Session       string
	Player        string
	Game          game.Snapshot
	Loop          loop.Stats
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the process started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds the latest game and loop state.
type Tracker struct {
	now  func() time.Time
	snap Snapshot
}

// NewTracker creates a Tracker. now stamps every Snapshot.
func NewTracker(session, player string, cfg Config, now func() time.Time) *Tracker {
	return &Tracker{
		now: now,
		snap: Snapshot{
			Session:   session,
			Player:    player,
			StartTime: now(),
			Config:    cfg,
		},
	}
}

// Update sets game and loop state.
func (t *Tracker) Update(g game.Snapshot, l loop.Stats) {
	t.snap.Game = g
	t.snap.Loop = l
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.snap.MQTTConnected = connected
}

// Snapshot returns a copy of the tracked state with Now set.
func (t *Tracker) Snapshot() Snapshot {
	s := t.snap
	s.Now = t.now()
	return s
}

package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Session       string     `json:"session"`
	Player        string     `json:"player"`
	Game          GameJSON   `json:"game"`
	Loop          LoopJSON   `json:"loop"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Config        ConfigJSON `json:"config"`
}

// GameJSON is the JSON representation of game state.
type GameJSON struct {
	Phase       string `json:"phase"`
	Level       int    `json:"level"`
	LightOn     bool   `json:"light_on"`
	Pattern     uint8  `json:"pattern"`
	DelayMs     int64  `json:"delay_ms"`
	BaseDelayMs int64  `json:"base_delay_ms"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	BestLevel   int    `json:"best_level"`
	Presses     int    `json:"presses"`
}

// LoopJSON is the JSON representation of scheduler counters.
type LoopJSON struct {
	Ticks   uint64 `json:"ticks"`
	Fired   uint64 `json:"fired"`
	Pending int    `json:"pending"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of process config.
type ConfigJSON struct {
	TickMs      int64  `json:"tick_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Levels      int    `json:"levels"`
	Broker      string `json:"broker"`
	Redis       string `json:"redis,omitempty"`
	ScoreFile   string `json:"score_file,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	g := snap.Game
	return StatusInner{
		Session: snap.Session,
		Player:  snap.Player,
		Game: GameJSON{
			Phase:       string(g.Phase()),
			Level:       g.Level,
			LightOn:     g.LightOn,
			Pattern:     g.Pattern,
			DelayMs:     g.Delay.Milliseconds(),
			BaseDelayMs: g.BaseDelay.Milliseconds(),
			Wins:        g.Wins,
			Losses:      g.Losses,
			BestLevel:   g.BestLevel,
			Presses:     g.Presses,
		},
		Loop: LoopJSON{
			Ticks:   snap.Loop.Ticks,
			Fired:   snap.Loop.Fired,
			Pending: snap.Loop.Pending,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			TickMs:      snap.Config.TickMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Levels:      snap.Config.Levels,
			Broker:      snap.Config.Broker,
			Redis:       snap.Config.Redis,
			ScoreFile:   snap.Config.ScoreFile,
		},
	}
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

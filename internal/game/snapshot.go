package game

import "time"

// Phase is the state machine position derived from the game flags.
type Phase string

const (
	PhaseRoundOff Phase = "ROUND_OFF"
	PhaseRoundOn  Phase = "ROUND_ON"
	PhaseLevelUp  Phase = "LEVEL_UP"
	PhaseLost     Phase = "LOST"
)

// Snapshot is a point-in-time copy of game state.
type Snapshot struct {
	Level          int
	RoundActive    bool
	LightOn        bool
	PendingLevelUp bool
	BaseDelay      time.Duration
	Delay          time.Duration
	Pattern        uint8

	Wins      int // runs that climbed past the top level
	Losses    int
	BestLevel int
	Presses   int
}

// Phase returns the state machine position.
func (s Snapshot) Phase() Phase {
	switch {
	case s.PendingLevelUp:
		return PhaseLevelUp
	case !s.RoundActive:
		return PhaseLost
	case s.LightOn:
		return PhaseRoundOn
	default:
		return PhaseRoundOff
	}
}

// Snapshot returns the current state.
func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Level:          g.level,
		RoundActive:    g.roundActive,
		LightOn:        g.lightOn,
		PendingLevelUp: g.pendingLevelUp,
		BaseDelay:      g.baseDelay,
		Delay:          g.Delay(),
		Pattern:        Pattern(g.level, g.lightOn),
		Wins:           g.wins,
		Losses:         g.losses,
		BestLevel:      g.bestLevel,
		Presses:        g.presses,
	}
}

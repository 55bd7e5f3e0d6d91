// Package game implements the light-ladder reaction game as a set of
// callbacks on a loop.Loop. All state changes happen inside those callbacks,
// so a Game must only be driven by the loop it was created with.
package game

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/sweeney/ladder-game/internal/gpio"
	"github.com/sweeney/ladder-game/internal/loop"
	"github.com/sweeney/ladder-game/internal/score"
)

// Scheduler is the part of loop.Loop the game needs.
type Scheduler interface {
	ScheduleAfter(d time.Duration, a loop.Action) (loop.ID, error)
	ScheduleEvery(d time.Duration, a loop.Action) (loop.ID, error)
	Cancel(id loop.ID)
	IsPending(id loop.ID) bool
	SetTeardown(a loop.Action)
}

// Game is the state machine. Rounds alternate the light at the current
// level's position on and off; a press while lit climbs one level, a press
// while unlit records the score and starts over from level 0.
type Game struct {
	cfg   Config
	sched Scheduler
	port  gpio.Port
	sink  score.Sink

	level          int
	roundActive    bool
	lightOn        bool
	pendingLevelUp bool
	turnOnID       loop.ID
	turnOffID      loop.ID
	baseDelay      time.Duration

	// lastPattern is only meaningful while patternValid.
	lastPattern  uint8
	patternValid bool

	wins      int
	losses    int
	bestLevel int
	presses   int
}

// New validates cfg, clears the light row, and registers the game with sched.
// The first round starts immediately. rng draws the session's base delay.
func New(cfg Config, sched Scheduler, port gpio.Port, sink score.Sink, rng *rand.Rand) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := &Game{
		cfg:         cfg,
		sched:       sched,
		port:        port,
		sink:        sink,
		roundActive: true,
		turnOnID:    loop.NoID,
		turnOffID:   loop.NoID,
		baseDelay:   drawBaseDelay(cfg, rng),
	}

	if err := g.render(); err != nil {
		return nil, fmt.Errorf("clear lights: %w", err)
	}

	if _, err := sched.ScheduleEvery(0, g.update); err != nil {
		return nil, fmt.Errorf("schedule update: %w", err)
	}
	sched.SetTeardown(g.teardown)

	if err := g.start(); err != nil {
		return nil, err
	}

	log.Printf("game: player=%s levels=%d base_delay=%v", cfg.Player, cfg.Levels, g.baseDelay)
	return g, nil
}

func drawBaseDelay(cfg Config, rng *rand.Rand) time.Duration {
	span := int64(cfg.BaseDelayMax - cfg.BaseDelayMin)
	return cfg.BaseDelayMin + time.Duration(rng.Int63n(span+1))
}

// Delay returns the current on/off blink period.
func (g *Game) Delay() time.Duration {
	return delayFor(g.baseDelay, g.level, g.cfg.LevelSpeedup, g.cfg.MinDelay)
}

// delayFor shortens base by speedup per level, clamped to floor.
func delayFor(base time.Duration, level int, speedup, floor time.Duration) time.Duration {
	d := base - time.Duration(level)*speedup
	if d < floor {
		return floor
	}
	return d
}

// Pattern returns the light row for a level: every position below it lit,
// plus the level's own position while the light is on.
func Pattern(level int, lightOn bool) uint8 {
	p := 1<<level - 1
	if lightOn {
		p |= 1 << level
	}
	return uint8(p)
}

// update runs every tick. A latched level-up is handled before the button
// is read again.
func (g *Game) update() error {
	if g.pendingLevelUp {
		return g.levelUp()
	}

	if !g.roundActive {
		return g.start()
	}

	pressed, err := g.pressed()
	if err != nil {
		return err
	}
	if !pressed {
		return nil
	}

	g.presses++
	if g.lightOn {
		g.pendingLevelUp = true
		return nil
	}
	return g.lose()
}

func (g *Game) levelUp() error {
	g.pendingLevelUp = false
	g.cancelToggles()

	var errs []error
	g.level++
	if g.level >= g.cfg.Levels {
		log.Printf("game: reached the top (level %d)", g.level)
		errs = append(errs, g.record(g.level))
		g.wins++
		g.level = 0
	}
	log.Printf("game: level %d", g.level)

	g.lightOn = false
	errs = append(errs, g.render(), g.start())
	return errors.Join(errs...)
}

func (g *Game) lose() error {
	log.Printf("game: lost at level %d", g.level)
	g.cancelToggles()

	err := g.record(g.level)
	g.losses++
	g.level = 0
	g.lightOn = false
	g.roundActive = false
	return errors.Join(err, g.render())
}

// start begins a round with the light off.
func (g *Game) start() error {
	g.roundActive = true
	id, err := g.sched.ScheduleAfter(g.Delay(), g.turnOn)
	if err != nil {
		return fmt.Errorf("schedule turn on: %w", err)
	}
	g.turnOnID = id
	return nil
}

func (g *Game) turnOn() error {
	g.turnOnID = loop.NoID
	g.lightOn = true
	renderErr := g.render()

	id, err := g.sched.ScheduleAfter(g.Delay(), g.turnOff)
	if err != nil {
		return errors.Join(renderErr, fmt.Errorf("schedule turn off: %w", err))
	}
	g.turnOffID = id
	return renderErr
}

func (g *Game) turnOff() error {
	g.turnOffID = loop.NoID
	g.lightOn = false
	renderErr := g.render()

	id, err := g.sched.ScheduleAfter(g.Delay(), g.turnOn)
	if err != nil {
		return errors.Join(renderErr, fmt.Errorf("schedule turn on: %w", err))
	}
	g.turnOnID = id
	return renderErr
}

func (g *Game) cancelToggles() {
	if g.turnOnID != loop.NoID && g.sched.IsPending(g.turnOnID) {
		g.sched.Cancel(g.turnOnID)
	}
	if g.turnOffID != loop.NoID && g.sched.IsPending(g.turnOffID) {
		g.sched.Cancel(g.turnOffID)
	}
	g.turnOnID = loop.NoID
	g.turnOffID = loop.NoID
}

func (g *Game) pressed() (bool, error) {
	high, err := gpio.InputPin(g.port, g.cfg.ButtonBank, g.cfg.ButtonPin)
	if err != nil {
		return false, fmt.Errorf("read button: %w", err)
	}
	return high != g.cfg.ButtonActiveLow, nil
}

// render writes the light row if it changed since the last successful write.
func (g *Game) render() error {
	p := Pattern(g.level, g.lightOn)
	if g.patternValid && p == g.lastPattern {
		return nil
	}
	if err := g.port.WriteOutputs(g.cfg.LightBank, p); err != nil {
		g.patternValid = false
		return fmt.Errorf("write lights: %w", err)
	}
	g.lastPattern = p
	g.patternValid = true
	return nil
}

func (g *Game) record(level int) error {
	if level > g.bestLevel {
		g.bestLevel = level
	}
	if err := g.sink.Record(g.cfg.Player, level); err != nil {
		return fmt.Errorf("record score %d: %w", level, err)
	}
	return nil
}

// teardown turns every light off.
func (g *Game) teardown() error {
	if err := g.port.WriteOutputs(g.cfg.LightBank, 0); err != nil {
		return fmt.Errorf("clear lights: %w", err)
	}
	g.lastPattern = 0
	g.patternValid = true
	return nil
}

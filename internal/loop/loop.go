// Package loop provides a cooperative, single-goroutine callback scheduler.
// Actions are registered as one-shot, periodic, or next-tick callbacks and are
// fired from a fixed-period tick. All registry mutation happens on the goroutine
// that drives the ticks, so nothing here is safe for concurrent use.
package loop

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// ID identifies a pending action. IDs are reused only after the action
// they identified has completed or been cancelled.
type ID int

// NoID is never assigned to an action.
const NoID ID = -1

// MaxID is the largest ID the loop will hand out.
const MaxID ID = 1<<31 - 1

// ErrIDsExhausted is returned when every ID up to the loop's bound is in use.
// It means actions are being leaked and is treated as fatal by Run.
var ErrIDsExhausted = errors.New("loop: no free action id")

// Action is a unit of work fired by the loop. A returned error is logged;
// it does not stop the loop unless it wraps ErrIDsExhausted.
type Action func() error

// Stats reports loop activity since construction.
type Stats struct {
	Ticks   uint64
	Fired   uint64
	Pending int
}

// Loop is a tick-driven callback scheduler.
type Loop struct {
	period time.Duration
	now    func() time.Time

	entries []*entry
	index   map[ID]*entry
	ids     idPool

	teardown Action
	ticks    uint64
	fired    uint64
}

// New creates a Loop that ticks every period and reads time from now.
func New(period time.Duration, now func() time.Time) *Loop {
	return &Loop{
		period: period,
		now:    now,
		index:  make(map[ID]*entry),
		ids:    idPool{max: MaxID},
	}
}

// ScheduleAfter registers a one-shot action that fires once d has elapsed.
func (l *Loop) ScheduleAfter(d time.Duration, a Action) (ID, error) {
	return l.register(&entry{
		action:   a,
		timered:  true,
		dueAt:    l.now().Add(d),
		interval: d,
		limit:    1,
	})
}

// ScheduleEvery registers an action that fires every d until cancelled.
// d == 0 fires on every tick.
func (l *Loop) ScheduleEvery(d time.Duration, a Action) (ID, error) {
	return l.register(&entry{
		action:   a,
		timered:  true,
		dueAt:    l.now().Add(d),
		interval: d,
	})
}

// ScheduleInLoop registers an action that fires once, on the next tick.
func (l *Loop) ScheduleInLoop(a Action) (ID, error) {
	return l.register(&entry{
		action: a,
		limit:  1,
	})
}

func (l *Loop) register(e *entry) (ID, error) {
	id, err := l.ids.acquire()
	if err != nil {
		return NoID, err
	}
	e.id = id
	l.entries = append(l.entries, e)
	l.index[id] = e
	return id, nil
}

// Cancel removes a pending action. Cancelling an unknown or completed id
// is logged and otherwise ignored. An action may cancel itself; it will
// not fire again and is dropped at the end of the current tick.
func (l *Loop) Cancel(id ID) {
	e, ok := l.index[id]
	if !ok {
		log.Printf("loop: cancel: no action with id %d", id)
		return
	}
	e.removed = true
	delete(l.index, id)
	l.ids.release(id)
}

// IsPending reports whether id identifies a live action.
func (l *Loop) IsPending(id ID) bool {
	_, ok := l.index[id]
	return ok
}

// SetTeardown sets the action run once after the loop exits.
// A later call replaces an earlier one.
func (l *Loop) SetTeardown(a Action) {
	l.teardown = a
}

// Stats returns loop counters.
func (l *Loop) Stats() Stats {
	return Stats{
		Ticks:   l.ticks,
		Fired:   l.fired,
		Pending: len(l.index),
	}
}

// Run ticks every period until ctx is done, then runs the teardown action.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.period)
	defer ticker.Stop()
	return l.RunTicks(ctx, ticker.C)
}

// RunTicks runs one tick per value received on tick until ctx is done.
// The teardown action runs exactly once before RunTicks returns, whatever
// the exit cause. The only error returned is a fatal one raised by a tick.
func (l *Loop) RunTicks(ctx context.Context, tick <-chan time.Time) error {
	defer l.runTeardown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			if err := l.Tick(); err != nil {
				return err
			}
		}
	}
}

// Tick fires every due action once, then drops completed and cancelled ones.
// Actions registered while the tick runs are first considered on the next tick.
func (l *Loop) Tick() error {
	l.ticks++
	now := l.now()

	snapshot := make([]*entry, len(l.entries))
	copy(snapshot, l.entries)

	var fatal error
	for _, e := range snapshot {
		if e.removed || e.done() || !e.due(now) {
			continue
		}

		e.fired++
		l.fired++
		err := e.action()
		if e.timered && e.limit == 0 && e.interval > 0 {
			e.dueAt = now.Add(e.interval)
		}

		if err != nil {
			if errors.Is(err, ErrIDsExhausted) && fatal == nil {
				fatal = fmt.Errorf("action %d: %w", e.id, err)
				continue
			}
			log.Printf("loop: action %d: %v", e.id, err)
		}
	}

	l.cleanup()
	return fatal
}

func (l *Loop) cleanup() {
	live := l.entries[:0]
	for _, e := range l.entries {
		if e.removed {
			continue
		}
		if e.done() {
			delete(l.index, e.id)
			l.ids.release(e.id)
			continue
		}
		live = append(live, e)
	}
	for i := len(live); i < len(l.entries); i++ {
		l.entries[i] = nil
	}
	l.entries = live
}

func (l *Loop) runTeardown() {
	if l.teardown == nil {
		return
	}
	if err := l.teardown(); err != nil {
		log.Printf("loop: teardown: %v", err)
	}
}

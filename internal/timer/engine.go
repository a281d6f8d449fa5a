package timer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lowaak/workout-timer/internal/events"
	"github.com/lowaak/workout-timer/internal/go_func_utils"
)

// ErrInvalidSequence is returned by Start when there is nothing to play
var ErrInvalidSequence = errors.New("invalid sequence")

// TickStep is the workout time one tick advances, whatever the tick pacing
const TickStep = time.Second

// Default pacing
const (
	DefaultTickInterval      = time.Second
	DefaultPausePollInterval = 500 * time.Millisecond
)

// EngineConfig contains runtime options for the Engine.
type EngineConfig struct {
	TickInterval      time.Duration // wall time per tick
	PausePollInterval time.Duration // how often a paused loop re-checks the pause flag
}

// Engine runs a sequence of intervals on a background tick loop and
// publishes a RunState snapshot on every tick and interval transition.
//
// At most one tick loop is active per Engine. Start always stops the
// previous loop and waits for it to exit before launching a new one.
type Engine struct {
	config EngineConfig
	logger *log.Logger

	stateEvent *events.ChannelEvent[RunState]
	paused     atomic.Bool

	// controlMu serializes Start/Stop. mu guards publication and the current
	// run handle; the loop only ever takes mu.
	controlMu sync.Mutex
	mu        sync.Mutex
	cancel    context.CancelFunc
	done      <-chan struct{}
}

// NewEngine creates an idle Engine
func NewEngine(config EngineConfig, logger *log.Logger) *Engine {
	if logger == nil {
		panic("Engine: logger cannot be nil")
	}
	if config.TickInterval <= 0 {
		config.TickInterval = DefaultTickInterval
	}
	if config.PausePollInterval <= 0 {
		config.PausePollInterval = DefaultPausePollInterval
	}

	return &Engine{
		config:     config,
		logger:     logger,
		stateEvent: events.NewValueEvent(NewRunState()),
		done:       closedChan(),
	}
}

// Subscribe registers a channel that receives every published snapshot,
// starting with the current one. Sends never block the engine: a full
// channel misses snapshots, so size it for the observer's latency.
func (e *Engine) Subscribe(ch chan<- RunState) func() {
	return e.stateEvent.Listen(ch)
}

// State returns the latest published snapshot
func (e *Engine) State() RunState {
	state, _ := e.stateEvent.Latest()
	return state
}

// IsRunning reports the published running flag: true while counting down,
// false when paused, idle or completed.
func (e *Engine) IsRunning() bool {
	return e.State().Running
}

// IsPaused reports whether a pause has been requested
func (e *Engine) IsPaused() bool {
	return e.paused.Load()
}

// Done returns a channel closed when the current tick loop exits, whether
// by completion or by Stop. With no run active the channel is already closed.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

// Start plays intervals repetitions times. The slice is copied, so the
// caller may keep editing its own list while the run is in flight.
func (e *Engine) Start(intervals []Interval, repetitions int) error {
	if len(intervals) == 0 {
		return fmt.Errorf("%w: add at least one interval before starting", ErrInvalidSequence)
	}
	if repetitions < 1 {
		repetitions = 1
	}
	plan := make([]Interval, len(intervals))
	copy(plan, intervals)
	total := totalDuration(plan, repetitions)

	e.controlMu.Lock()
	defer e.controlMu.Unlock()

	e.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	e.paused.Store(false)

	initial := NewRunState()
	initial.TotalDuration = total
	initial.TotalRemaining = total
	initial.SequenceRepetitions = repetitions
	initial.Running = true
	initial.Status = StatusRunning

	e.mu.Lock()
	e.cancel = cancel
	e.stateEvent.Notify(initial)
	e.done = go_func_utils.SafeGoDone(e.logger, func() {
		e.run(ctx, plan, repetitions, initial)
	})
	e.mu.Unlock()

	e.logger.Printf("Engine: Run started (%d intervals x %d reps, total %s)", len(plan), repetitions, total)
	return nil
}

// Stop cancels the tick loop, if any, and resets the published state to a
// fresh snapshot. Safe to call at any time, any number of times.
func (e *Engine) Stop() {
	e.controlMu.Lock()
	defer e.controlMu.Unlock()
	e.stopLocked()
}

// StartOrPause toggles the pause flag and returns its new value. The loop
// observes the flag at its next wake-up.
func (e *Engine) StartOrPause() bool {
	for {
		old := e.paused.Load()
		if e.paused.CompareAndSwap(old, !old) {
			if old {
				e.logger.Printf("Engine: Resume requested")
			} else {
				e.logger.Printf("Engine: Pause requested")
			}
			return !old
		}
	}
}

// stopLocked must be called with controlMu held.
func (e *Engine) stopLocked() {
	e.mu.Lock()
	wasActive := false
	select {
	case <-e.done:
	default:
		wasActive = true
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.paused.Store(false)
	e.stateEvent.Notify(NewRunState())
	done := e.done
	e.mu.Unlock()

	// the loop may be waiting on mu to publish; it sees the cancelled
	// context once it gets it
	<-done

	if wasActive {
		e.logger.Printf("Engine: Run stopped")
	}
}

func (e *Engine) run(ctx context.Context, plan []Interval, repetitions int, state RunState) {
	totalRemaining := state.TotalRemaining
	var completed []Interval

	for rep := 1; rep <= repetitions; rep++ {
		for idx, interval := range plan {
			state.Current = interval
			state.CurrentRemaining = interval.Duration()
			state.CurrentPercent = 0
			state.SequenceNumber = rep
			state.IntervalIndex = idx
			state.TotalRemaining = totalRemaining

			// zero-length intervals are entered and finished in one snapshot
			if interval.Duration() == 0 {
				completed = appendCompleted(completed, interval)
				state.Completed = completed
				state.CurrentPercent = 100
				if !e.publish(ctx, state) {
					return
				}
				continue
			}
			if !e.publish(ctx, state) {
				return
			}

			for state.CurrentRemaining > 0 {
				if e.paused.Load() {
					if state.Running {
						state.Running = false
						state.Status = StatusPaused
						if !e.publish(ctx, state) {
							return
						}
					}
					if !sleep(ctx, e.config.PausePollInterval) {
						return
					}
					continue
				}

				if !state.Running {
					state.Running = true
					state.Status = StatusRunning
					if !e.publish(ctx, state) {
						return
					}
				}
				if !sleep(ctx, e.config.TickInterval) {
					return
				}
				// a pause requested during the wait forfeits this tick
				if e.paused.Load() {
					continue
				}

				state.CurrentRemaining -= TickStep
				state.CurrentPercent = percentComplete(state.CurrentRemaining, interval.Duration())
				totalRemaining -= TickStep
				state.TotalRemaining = totalRemaining
				if !e.publish(ctx, state) {
					return
				}
			}

			completed = appendCompleted(completed, interval)
			state.Completed = completed
			if !e.publish(ctx, state) {
				return
			}
		}
	}

	state.Running = false
	state.Status = StatusCompleted
	if e.publish(ctx, state) {
		e.logger.Printf("Engine: Run completed (%d intervals played)", len(completed))
	}
}

// publish replaces the held snapshot unless the run has been cancelled.
// Holding mu across the check and the notify keeps a stopped run from
// publishing after Stop has reset the state.
func (e *Engine) publish(ctx context.Context, state RunState) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ctx.Err() != nil {
		return false
	}
	e.stateEvent.Notify(state)
	return true
}

// sleep waits for d or until ctx is cancelled; false means cancelled.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return ctx.Err() == nil
	}
}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

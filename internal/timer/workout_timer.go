package timer

import (
	"log"
	"sync"
	"time"
)

// WorkoutTimer binds a Sequence builder to an Engine. Builder edits are
// serialized here; the engine only sees a copy taken at Start.
type WorkoutTimer struct {
	mu       sync.Mutex
	sequence *Sequence
	engine   *Engine
	logger   *log.Logger
}

// NewWorkoutTimer creates a timer with an empty sequence driving engine
func NewWorkoutTimer(engine *Engine, logger *log.Logger) *WorkoutTimer {
	if engine == nil {
		panic("WorkoutTimer: engine cannot be nil")
	}
	if logger == nil {
		panic("WorkoutTimer: logger cannot be nil")
	}

	return &WorkoutTimer{
		sequence: NewSequence(),
		engine:   engine,
		logger:   logger,
	}
}

func (t *WorkoutTimer) Add(intervals ...Interval) {
	t.edit("Add", func(s *Sequence) { s.Add(intervals...) })
}

func (t *WorkoutTimer) Remove(interval Interval) (removed bool) {
	t.edit("Remove", func(s *Sequence) { removed = s.Remove(interval) })
	return removed
}

func (t *WorkoutTimer) RemoveByKind(kind Kind) (removed bool) {
	t.edit("RemoveByKind", func(s *Sequence) { removed = s.RemoveByKind(kind) })
	return removed
}

func (t *WorkoutTimer) RemoveLast() (removed bool) {
	t.edit("RemoveLast", func(s *Sequence) { removed = s.RemoveLast() })
	return removed
}

func (t *WorkoutTimer) Replace(interval Interval) {
	t.edit("Replace", func(s *Sequence) { s.Replace(interval) })
}

func (t *WorkoutTimer) IncreaseReps() {
	t.edit("IncreaseReps", func(s *Sequence) { s.IncreaseReps() })
}

func (t *WorkoutTimer) DecreaseReps() {
	t.edit("DecreaseReps", func(s *Sequence) { s.DecreaseReps() })
}

func (t *WorkoutTimer) Intervals() []Interval {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sequence.Intervals()
}

func (t *WorkoutTimer) Repetitions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sequence.Repetitions()
}

func (t *WorkoutTimer) First(kind Kind) (Interval, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sequence.First(kind)
}

func (t *WorkoutTimer) Expanded() []Interval {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sequence.Expanded()
}

func (t *WorkoutTimer) TotalDuration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sequence.TotalDuration()
}

// Start launches a run of the current sequence. Returns an error wrapping
// ErrInvalidSequence when the sequence is empty.
func (t *WorkoutTimer) Start() error {
	t.mu.Lock()
	intervals := t.sequence.Intervals()
	reps := t.sequence.Repetitions()
	t.mu.Unlock()

	return t.engine.Start(intervals, reps)
}

func (t *WorkoutTimer) Stop() {
	t.engine.Stop()
}

// StartOrPause toggles pause and returns true when the run is now paused
func (t *WorkoutTimer) StartOrPause() bool {
	return t.engine.StartOrPause()
}

// Clear stops any run, empties the sequence and resets repetitions to 1
func (t *WorkoutTimer) Clear() {
	t.engine.Stop()

	t.mu.Lock()
	t.sequence.Reset()
	t.mu.Unlock()
}

func (t *WorkoutTimer) State() RunState {
	return t.engine.State()
}

func (t *WorkoutTimer) IsRunning() bool {
	return t.engine.IsRunning()
}

func (t *WorkoutTimer) IsPaused() bool {
	return t.engine.IsPaused()
}

func (t *WorkoutTimer) Subscribe(ch chan<- RunState) func() {
	return t.engine.Subscribe(ch)
}

func (t *WorkoutTimer) Done() <-chan struct{} {
	return t.engine.Done()
}

// edit applies fn to the builder. Edits during a run are allowed but only
// affect the next Start.
func (t *WorkoutTimer) edit(op string, fn func(s *Sequence)) {
	if t.engine.IsRunning() {
		t.logger.Printf("WorkoutTimer: %s while a run is active, change applies to the next run", op)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t.sequence)
}

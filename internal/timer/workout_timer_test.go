package timer

import (
	"bytes"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer lets the test read log output while the engine goroutine writes
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestWorkoutTimer(tick time.Duration) (*WorkoutTimer, *syncBuffer) {
	out := &syncBuffer{}
	logger := log.New(out, "", 0)
	engine := NewEngine(EngineConfig{TickInterval: tick, PausePollInterval: time.Millisecond}, logger)
	return NewWorkoutTimer(engine, logger), out
}

func TestNewWorkoutTimer_NilArgsPanic(t *testing.T) {
	logger := log.New(&bytes.Buffer{}, "", 0)
	assert.Panics(t, func() { NewWorkoutTimer(nil, logger) })
	assert.Panics(t, func() { NewWorkoutTimer(NewEngine(EngineConfig{}, logger), nil) })
}

func TestWorkoutTimer_BuilderOperations(t *testing.T) {
	wt, _ := newTestWorkoutTimer(time.Millisecond)

	wt.Add(Work(45*sec), Rest(15*sec))
	wt.Replace(Work(30 * sec))
	wt.IncreaseReps()
	assert.Equal(t, []Interval{Work(30 * sec), Rest(15 * sec)}, wt.Intervals())
	assert.Equal(t, 2, wt.Repetitions())
	assert.Equal(t, 90*sec, wt.TotalDuration())
	assert.Len(t, wt.Expanded(), 4)

	w, ok := wt.First(KindWork)
	require.True(t, ok)
	assert.Equal(t, Work(30*sec), w)

	assert.False(t, wt.Remove(Work(45*sec)))
	assert.True(t, wt.RemoveByKind(KindRest))
	assert.True(t, wt.RemoveLast())
	assert.False(t, wt.RemoveLast())

	wt.DecreaseReps()
	wt.DecreaseReps()
	assert.Equal(t, 1, wt.Repetitions())
}

func TestWorkoutTimer_StartEmpty(t *testing.T) {
	wt, _ := newTestWorkoutTimer(time.Millisecond)
	err := wt.Start()
	assert.True(t, errors.Is(err, ErrInvalidSequence))
	assert.False(t, wt.IsRunning())
}

func TestWorkoutTimer_EditsDuringRunApplyToNextRun(t *testing.T) {
	wt, out := newTestWorkoutTimer(5 * time.Millisecond)
	wt.Add(Work(100 * sec))
	require.NoError(t, wt.Start())
	defer wt.Stop()

	require.Eventually(t, wt.IsRunning, time.Second, time.Millisecond)
	wt.Add(Rest(10 * sec))
	wt.IncreaseReps()

	assert.Equal(t, 100*sec, wt.State().TotalDuration)
	assert.Equal(t, 220*sec, wt.TotalDuration())
	assert.Contains(t, out.String(), "WorkoutTimer: Add while a run is active")
}

func TestWorkoutTimer_Clear(t *testing.T) {
	wt, _ := newTestWorkoutTimer(5 * time.Millisecond)
	wt.Add(Work(100*sec), Rest(10*sec))
	wt.IncreaseReps()
	require.NoError(t, wt.Start())
	done := wt.Done()

	wt.Clear()
	waitDone(t, done)

	assert.Empty(t, wt.Intervals())
	assert.Equal(t, 1, wt.Repetitions())
	assert.Equal(t, NewRunState(), wt.State())
	assert.False(t, wt.IsRunning())
}

func TestWorkoutTimer_PauseResume(t *testing.T) {
	wt, _ := newTestWorkoutTimer(5 * time.Millisecond)
	wt.Add(Work(100 * sec))
	require.NoError(t, wt.Start())
	defer wt.Stop()

	assert.True(t, wt.StartOrPause())
	assert.True(t, wt.IsPaused())
	require.Eventually(t, func() bool { return wt.State().Status == StatusPaused }, time.Second, time.Millisecond)

	assert.False(t, wt.StartOrPause())
	require.Eventually(t, wt.IsRunning, time.Second, time.Millisecond)
}

func TestWorkoutTimer_Subscribe(t *testing.T) {
	wt, _ := newTestWorkoutTimer(time.Millisecond)
	ch := make(chan RunState, 4096)
	defer wt.Subscribe(ch)()

	wt.Add(Work(2*sec), Rest(1*sec))
	require.NoError(t, wt.Start())
	waitDone(t, wt.Done())

	states := drain(ch)
	require.NotEmpty(t, states)
	assert.Equal(t, StatusCompleted, states[len(states)-1].Status)
}

package workout

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/workout-timer/internal/presets"
	"github.com/lowaak/workout-timer/internal/timer"
)

// fakeUIView records what BaseUIView asks of it
type fakeUIView struct {
	mu            sync.Mutex
	initialized   bool
	keyboard      bool
	mode          UIMode
	logHeight     int
	logLines      []string
	presetList    []presets.Preset
	setup         SetupSummary
	runStates     []timer.RunState
	cues          []Cue
	draws         int
	stopped       bool
	stopRequested chan struct{}
}

func newFakeUIView(logHeight int) *fakeUIView {
	return &fakeUIView{logHeight: logHeight, stopRequested: make(chan struct{})}
}

func (f *fakeUIView) Initialize(*TimerController) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initialized = true
}

func (f *fakeUIView) SetupKeyboardHandlers(*TimerController) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keyboard = true
}

func (f *fakeUIView) Run() error {
	<-f.stopRequested
	return nil
}

func (f *fakeUIView) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.stopped {
		f.stopped = true
		close(f.stopRequested)
	}
}

func (f *fakeUIView) Draw() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draws++
	return nil
}

func (f *fakeUIView) SetMode(mode UIMode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = mode
}

func (f *fakeUIView) GetCurrentMode() UIMode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

func (f *fakeUIView) GetLogViewHeight() int { return f.logHeight }

func (f *fakeUIView) ClearLogView() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logLines = nil
}

func (f *fakeUIView) WriteLogLine(line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logLines = append(f.logLines, line)
	return nil
}

func (f *fakeUIView) SetPresetList(list []presets.Preset) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presetList = list
}

func (f *fakeUIView) UpdateSetup(setup SetupSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setup = setup
}

func (f *fakeUIView) UpdateRunState(state timer.RunState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runStates = append(f.runStates, state)
}

func (f *fakeUIView) ShowCue(cue Cue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cues = append(f.cues, cue)
}

func (f *fakeUIView) snapshot(read func(f *fakeUIView) bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return read(f)
}

func newTestBaseUIView(t *testing.T, impl *fakeUIView) (*BaseUIView, *controllerFixture) {
	t.Helper()
	fx := newTestController(t, time.Millisecond)
	base := NewBaseUIView(NewBaseUIViewArg{
		UIViewImpl:   impl,
		UIModel:      fx.model,
		UIController: fx.controller,
		Logger:       discardLogger(),
	})
	t.Cleanup(base.Shutdown)
	return base, fx
}

func TestNewBaseUIView_NilArgsPanic(t *testing.T) {
	fx := newTestController(t, time.Millisecond)
	logger := discardLogger()
	impl := newFakeUIView(0)

	assert.Panics(t, func() {
		NewBaseUIView(NewBaseUIViewArg{UIModel: fx.model, UIController: fx.controller, Logger: logger})
	})
	assert.Panics(t, func() {
		NewBaseUIView(NewBaseUIViewArg{UIViewImpl: impl, UIController: fx.controller, Logger: logger})
	})
	assert.Panics(t, func() {
		NewBaseUIView(NewBaseUIViewArg{UIViewImpl: impl, UIModel: fx.model, Logger: logger})
	})
	assert.Panics(t, func() {
		NewBaseUIView(NewBaseUIViewArg{UIViewImpl: impl, UIModel: fx.model, UIController: fx.controller})
	})
}

func TestBaseUIView_InitializesImpl(t *testing.T) {
	impl := newFakeUIView(0)
	newTestBaseUIView(t, impl)

	assert.True(t, impl.initialized)
	assert.True(t, impl.keyboard)
	assert.Equal(t, UIModeSetup, impl.GetCurrentMode())
	// retained events replay to the new listeners
	require.Eventually(t, func() bool {
		return impl.snapshot(func(f *fakeUIView) bool { return len(f.presetList) == len(presets.Defaults()) })
	}, 2*time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		return impl.snapshot(func(f *fakeUIView) bool { return f.setup.Rounds == 1 && len(f.setup.Sequence) == 2 })
	}, 2*time.Second, time.Millisecond)
}

func TestBaseUIView_ForwardsModelEvents(t *testing.T) {
	impl := newFakeUIView(0)
	_, fx := newTestBaseUIView(t, impl)

	require.NoError(t, fx.controller.SetStandardTimer("Tabata"))
	require.Eventually(t, func() bool {
		return impl.snapshot(func(f *fakeUIView) bool { return f.setup.Preset == "Tabata" })
	}, 2*time.Second, time.Millisecond)

	fx.controller.ReplaceWorkTime(5 * sec)
	fx.controller.ReplaceRestTime(0)
	require.NoError(t, fx.controller.StartTimer())
	waitRunDone(t, fx.controller)

	require.Eventually(t, func() bool {
		return impl.snapshot(func(f *fakeUIView) bool {
			return f.mode == UIModeTimer && len(f.cues) == 2 && f.draws > 0
		})
	}, 2*time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		return impl.snapshot(func(f *fakeUIView) bool {
			return len(f.runStates) > 0 && f.runStates[len(f.runStates)-1].Status == timer.StatusCompleted
		})
	}, 2*time.Second, time.Millisecond)
}

func TestBaseUIView_ShowsLogTail(t *testing.T) {
	impl := newFakeUIView(3)
	logChan := make(chan string, 8)
	logger := discardLogger()
	model := NewUIModel(logger, logChan)
	defer model.Shutdown()
	fx := newTestController(t, time.Millisecond)

	base := NewBaseUIView(NewBaseUIViewArg{UIViewImpl: impl, UIModel: model, UIController: fx.controller, Logger: logger})
	defer base.Shutdown()

	for _, line := range []string{"a", "b", "c", "d"} {
		logChan <- line
	}
	require.Eventually(t, func() bool {
		return impl.snapshot(func(f *fakeUIView) bool {
			return assert.ObjectsAreEqual([]string{"b\n", "c\n", "d\n"}, f.logLines)
		})
	}, 2*time.Second, time.Millisecond)
}

func TestBaseUIView_CloseRequestStopsImpl(t *testing.T) {
	impl := newFakeUIView(0)
	base, fx := newTestBaseUIView(t, impl)

	runErr := make(chan error, 1)
	go func() { runErr <- base.Run() }()

	fx.controller.OnEscapeKey()
	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for Run to return")
	}
}

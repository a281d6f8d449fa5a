package workout

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lowaak/workout-timer/internal/events"
	"github.com/lowaak/workout-timer/internal/go_func_utils"
	"github.com/lowaak/workout-timer/internal/presets"
	"github.com/lowaak/workout-timer/internal/timer"
)

// UIState holds the current state of the UI that views need to render
type UIState struct {
	Mode UIMode
}

// SetupSummary describes the configured workout as shown on the setup screen
type SetupSummary struct {
	Preset        string
	Sequence      []timer.Interval // one round, in order
	Playlist      []timer.Interval // Sequence repeated Rounds times
	Rounds        int
	TotalDuration time.Duration
	Editable      bool // false while a run is active
}

// Work returns the configured work interval, or zero when there is none
func (s SetupSummary) Work() time.Duration {
	return firstDuration(s.Sequence, timer.KindWork)
}

// Rest returns the configured rest interval, or zero when there is none
func (s SetupSummary) Rest() time.Duration {
	return firstDuration(s.Sequence, timer.KindRest)
}

func firstDuration(intervals []timer.Interval, kind timer.Kind) time.Duration {
	for _, i := range intervals {
		if i.Kind() == kind {
			return i.Duration()
		}
	}
	return 0
}

type UIModel struct {
	logEvent              *events.ChannelEvent[string]
	closeApplicationEvent *events.ChannelEvent[struct{}]
	uiStateEvent          *events.ChannelEvent[UIState]
	uiState               UIState
	runStateEvent         *events.ChannelEvent[timer.RunState]
	runState              timer.RunState
	setupEvent            *events.ChannelEvent[SetupSummary]
	setup                 SetupSummary
	presetsEvent          *events.ChannelEvent[[]presets.Preset]
	cueEvent              *events.ChannelEvent[Cue]
	logLines              []string
	logMu                 sync.RWMutex
	mu                    sync.RWMutex
	ctx                   context.Context
	cancel                context.CancelFunc
	wg                    sync.WaitGroup
	logger                *log.Logger
}

func NewUIModel(logger *log.Logger, uiLogChan <-chan string) *UIModel {
	if logger == nil {
		panic("UIModel: logger cannot be nil")
	}
	if uiLogChan == nil {
		panic("UIModel: uiLogChan cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	model := &UIModel{
		logEvent:              events.NewChannelEvent[string](false),
		closeApplicationEvent: events.NewChannelEvent[struct{}](true),
		uiStateEvent:          events.NewChannelEvent[UIState](true),
		uiState:               UIState{Mode: UIModeSetup},
		runStateEvent:         events.NewChannelEvent[timer.RunState](true),
		runState:              timer.NewRunState(),
		setupEvent:            events.NewChannelEvent[SetupSummary](true),
		setup:                 SetupSummary{Preset: presets.CustomName, Rounds: 1, Editable: true},
		presetsEvent:          events.NewChannelEvent[[]presets.Preset](true),
		cueEvent:              events.NewChannelEvent[Cue](false),
		logLines:              make([]string, 0, maxLogLines),
		ctx:                   ctx,
		cancel:                cancel,
		logger:                logger,
	}

	// Read from the UI log channel and populate logLines
	model.wg.Add(1)
	go_func_utils.SafeGo(model.logger, func() { model.readFromLogChannel(ctx, uiLogChan) })

	return model
}

// Shutdown stops all goroutines and waits for them to finish
func (m *UIModel) Shutdown() {
	m.logger.Println("UIModel: Shutting down")
	m.cancel()
	m.wg.Wait()
	m.logger.Println("UIModel: Shutdown complete")
}

// ListenToLog registers a channel to receive log messages
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToLog(ch chan<- string) func() {
	return m.logEvent.Listen(ch)
}

// ListenToCloseApplication registers a channel to receive close application signals
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToCloseApplication(ch chan<- struct{}) func() {
	return m.closeApplicationEvent.Listen(ch)
}

// RequestCloseApplication signals that the application should close
func (m *UIModel) RequestCloseApplication() {
	m.closeApplicationEvent.Notify(struct{}{})
}

// ListenToUIState registers a channel to receive UI state changes
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToUIState(ch chan<- UIState) func() {
	return m.uiStateEvent.Listen(ch)
}

// GetUIState returns the current UI state
func (m *UIModel) GetUIState() UIState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uiState
}

// SetMode updates the current UI mode and notifies listeners
func (m *UIModel) SetMode(mode UIMode) {
	m.mu.Lock()
	if m.uiState.Mode == mode {
		m.mu.Unlock()
		return
	}
	m.uiState.Mode = mode
	state := m.uiState
	m.mu.Unlock()

	m.uiStateEvent.Notify(state)
}

// ListenToRunState registers a channel to receive timer snapshots
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToRunState(ch chan<- timer.RunState) func() {
	return m.runStateEvent.Listen(ch)
}

// GetRunState returns the latest timer snapshot
func (m *UIModel) GetRunState() timer.RunState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runState
}

// SetRunState stores a timer snapshot and notifies listeners
func (m *UIModel) SetRunState(state timer.RunState) {
	m.mu.Lock()
	m.runState = state
	m.mu.Unlock()

	m.runStateEvent.Notify(state)
}

// ListenToSetup registers a channel to receive setup changes
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToSetup(ch chan<- SetupSummary) func() {
	return m.setupEvent.Listen(ch)
}

// GetSetup returns the current setup summary
func (m *UIModel) GetSetup() SetupSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.setup
}

// SetSetup replaces the setup summary and notifies listeners
func (m *UIModel) SetSetup(setup SetupSummary) {
	m.mu.Lock()
	m.setup = setup
	m.mu.Unlock()

	m.setupEvent.Notify(setup)
}

// ListenToPresets registers a channel to receive the preset list
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToPresets(ch chan<- []presets.Preset) func() {
	return m.presetsEvent.Listen(ch)
}

// SetPresets publishes the preset list
func (m *UIModel) SetPresets(list []presets.Preset) {
	m.presetsEvent.Notify(list)
}

// ListenToCues registers a channel to receive audio cues
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToCues(ch chan<- Cue) func() {
	return m.cueEvent.Listen(ch)
}

// NotifyCue forwards a cue to listeners
func (m *UIModel) NotifyCue(cue Cue) {
	m.cueEvent.Notify(cue)
}

// readFromLogChannel reads log lines from the channel and populates logLines
func (m *UIModel) readFromLogChannel(ctx context.Context, logChan <-chan string) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-logChan:
			if !ok {
				return
			}

			m.logMu.Lock()
			m.logLines = append(m.logLines, line)
			if len(m.logLines) > maxLogLines {
				m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
			}
			m.logMu.Unlock()

			m.logEvent.Notify(line)
		}
	}
}

// GetLogTail returns the last n lines of logs
func (m *UIModel) GetLogTail(n int) []string {
	m.logMu.RLock()
	defer m.logMu.RUnlock()

	if n <= 0 {
		return []string{}
	}
	if n >= len(m.logLines) {
		result := make([]string, len(m.logLines))
		copy(result, m.logLines)
		return result
	}

	result := make([]string, n)
	copy(result, m.logLines[len(m.logLines)-n:])
	return result
}

package workout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lowaak/workout-timer/internal/analytics"
	"github.com/lowaak/workout-timer/internal/cache"
	"github.com/lowaak/workout-timer/internal/go_func_utils"
	"github.com/lowaak/workout-timer/internal/presets"
	"github.com/lowaak/workout-timer/internal/timer"
)

var (
	ErrUnknownPreset = errors.New("unknown preset")
	ErrRunActive     = errors.New("a run is active")
)

// runStateBufferSize keeps the controller from missing snapshots while it
// updates the model
const runStateBufferSize = 64

// TimerController handles UI events and coordinates the workout timer with
// the UIModel
type TimerController struct {
	model   *UIModel
	timer   *timer.WorkoutTimer
	catalog *presets.Catalog
	custom  *cache.Cache[string, time.Duration]
	tracker analytics.Tracker
	cues    *CueDetector
	logger  *log.Logger

	defaultWork   time.Duration
	defaultRest   time.Duration
	defaultRounds int
	customTTL     time.Duration

	mu     sync.Mutex
	preset string
	runID  string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTimerControllerArg holds the arguments for creating a new TimerController
type NewTimerControllerArg struct {
	Model   *UIModel
	Timer   *timer.WorkoutTimer
	Presets *presets.Catalog
	Cache   *cache.Cache[string, time.Duration] // remembers custom work/rest
	Tracker analytics.Tracker
	Logger  *log.Logger

	Work      time.Duration // seeded by ResetTimer
	Rest      time.Duration
	Rounds    int
	CustomTTL time.Duration // 0 keeps custom values forever
}

func NewTimerController(args NewTimerControllerArg) *TimerController {
	if args.Model == nil {
		panic("TimerController: model cannot be nil")
	}
	if args.Timer == nil {
		panic("TimerController: timer cannot be nil")
	}
	if args.Tracker == nil {
		panic("TimerController: tracker cannot be nil")
	}
	if args.Logger == nil {
		panic("TimerController: logger cannot be nil")
	}
	if args.Presets == nil {
		args.Presets = presets.DefaultCatalog()
	}
	if args.Cache == nil {
		args.Cache = cache.New[string, time.Duration](nil)
	}
	if args.Rounds < 1 {
		args.Rounds = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &TimerController{
		model:         args.Model,
		timer:         args.Timer,
		catalog:       args.Presets,
		custom:        args.Cache,
		tracker:       args.Tracker,
		cues:          NewCueDetector(),
		logger:        args.Logger,
		defaultWork:   args.Work,
		defaultRest:   args.Rest,
		defaultRounds: args.Rounds,
		customTTL:     args.CustomTTL,
		preset:        presets.CustomName,
		ctx:           ctx,
		cancel:        cancel,
	}

	c.model.SetPresets(c.catalog.All())

	ch := make(chan timer.RunState, runStateBufferSize)
	unregister := c.timer.Subscribe(ch)
	c.wg.Add(1)
	go_func_utils.SafeGo(c.logger, func() { c.listenToRunState(ch, unregister) })

	return c
}

func (c *TimerController) listenToRunState(ch <-chan timer.RunState, unregister func()) {
	defer c.wg.Done()
	defer unregister()

	prev := timer.StatusIdle
	for {
		select {
		case <-c.ctx.Done():
			return
		case state, ok := <-ch:
			if !ok {
				return
			}
			c.model.SetRunState(state)
			for _, cue := range c.cues.Observe(state) {
				c.logger.Printf("Cue: %s", cue)
				c.model.NotifyCue(cue)
			}
			if state.Status != prev {
				if state.Status == timer.StatusCompleted {
					c.logger.Printf("Workout complete: %d intervals in %s", len(state.Completed), timer.FormatDuration(state.TotalDuration))
				}
				// editing is re-enabled or disabled with the run
				c.publishSetup()
				prev = state.Status
			}
		}
	}
}

// --- Setup ---

// ResetTimer clears the timer and seeds the default work/rest pair
func (c *TimerController) ResetTimer() {
	c.timer.Clear()
	c.timer.Add(timer.Work(c.defaultWork))
	if c.defaultRest > 0 {
		c.timer.Add(timer.Rest(c.defaultRest))
	}
	for c.timer.Repetitions() < c.defaultRounds {
		c.timer.IncreaseReps()
	}

	c.mu.Lock()
	c.preset = presets.CustomName
	c.mu.Unlock()

	c.logger.Printf("Timer reset: %s work, %s rest, %d rounds", c.defaultWork, c.defaultRest, c.defaultRounds)
	c.publishSetup()
}

// LoadPreset selects the startup preset without recording an analytics event
func (c *TimerController) LoadPreset(name string) error {
	return c.selectPreset(name)
}

// SetStandardTimer applies a preset's work/rest. Selecting Custom restores
// the last values the user edited.
func (c *TimerController) SetStandardTimer(name string) error {
	if err := c.selectPreset(name); err != nil {
		c.logger.Printf("Preset not applied: %v", err)
		return err
	}
	c.logEvent(analytics.EventTimerSelectStandard, analytics.Params{analytics.ParamItemID: c.SelectedPreset()})
	return nil
}

func (c *TimerController) selectPreset(name string) error {
	if c.runActive() {
		return ErrRunActive
	}
	p, ok := c.catalog.Find(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}

	work, rest := p.Work, p.Rest
	if p.Name == presets.CustomName {
		work = c.custom.GetOrElse(cacheKeyCustomWork, func(string) time.Duration { return c.defaultWork })
		rest = c.custom.GetOrElse(cacheKeyCustomRest, func(string) time.Duration { return c.defaultRest })
	}

	c.replace(timer.KindWork, work)
	c.replace(timer.KindRest, rest)

	c.mu.Lock()
	c.preset = p.Name
	c.mu.Unlock()

	c.logger.Printf("Preset selected: %s", p)
	c.publishSetup()
	return nil
}

func (c *TimerController) SelectedPreset() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preset
}

// ReplaceWorkTime sets the work interval; zero removes it
func (c *TimerController) ReplaceWorkTime(d time.Duration) {
	if c.refuseEdit() {
		return
	}
	c.replace(timer.KindWork, d)
	c.publishSetup()
}

// ReplaceRestTime sets the rest interval; zero removes it
func (c *TimerController) ReplaceRestTime(d time.Duration) {
	if c.refuseEdit() {
		return
	}
	c.replace(timer.KindRest, d)
	c.publishSetup()
}

func (c *TimerController) replace(kind timer.Kind, d time.Duration) {
	if d == 0 {
		c.timer.RemoveByKind(kind)
		return
	}
	c.timer.Replace(timer.NewInterval(kind, d))
}

// AdjustWorkTime steps the work interval by TimeStep within
// [MinWorkTime, MaxWorkTime] and switches to the Custom preset
func (c *TimerController) AdjustWorkTime(up bool) {
	c.adjust(timer.KindWork, up, MinWorkTime, MaxWorkTime, cacheKeyCustomWork)
}

// AdjustRestTime steps the rest interval by TimeStep within
// [MinRestTime, MaxRestTime] and switches to the Custom preset
func (c *TimerController) AdjustRestTime(up bool) {
	c.adjust(timer.KindRest, up, MinRestTime, MaxRestTime, cacheKeyCustomRest)
}

func (c *TimerController) adjust(kind timer.Kind, up bool, lo, hi time.Duration, cacheKey string) {
	if c.refuseEdit() {
		return
	}

	current := time.Duration(0)
	if i, ok := c.timer.First(kind); ok {
		current = i.Duration()
	}
	next := current - TimeStep
	if up {
		next = current + TimeStep
	}
	next = min(max(next, lo), hi)

	c.replace(kind, next)
	c.custom.InsertOrUpdateTTL(cacheKey, next, c.customTTL)

	c.mu.Lock()
	c.preset = presets.CustomName
	c.mu.Unlock()

	c.publishSetup()
}

// AddOrRemoveWorkTime appends a work interval of d, or removes the last one
// of exactly d
func (c *TimerController) AddOrRemoveWorkTime(d time.Duration, add bool) {
	c.addOrRemove(timer.Work(d), add)
}

// AddOrRemoveRestTime appends a rest interval of d, or removes the last one
// of exactly d
func (c *TimerController) AddOrRemoveRestTime(d time.Duration, add bool) {
	c.addOrRemove(timer.Rest(d), add)
}

func (c *TimerController) addOrRemove(interval timer.Interval, add bool) {
	if c.refuseEdit() {
		return
	}
	if add {
		c.timer.Add(interval)
	} else {
		c.timer.Remove(interval)
	}
	c.publishSetup()
}

// AddOrRemoveRounds changes the round count within [1, MaxRounds]
func (c *TimerController) AddOrRemoveRounds(add bool) {
	if c.refuseEdit() {
		return
	}
	if add {
		if c.timer.Repetitions() >= MaxRounds {
			return
		}
		c.timer.IncreaseReps()
	} else {
		c.timer.DecreaseReps()
	}
	c.publishSetup()
}

// SetupSummary returns the configured workout
func (c *TimerController) SetupSummary() SetupSummary {
	return SetupSummary{
		Preset:        c.SelectedPreset(),
		Sequence:      c.timer.Intervals(),
		Playlist:      c.timer.Expanded(),
		Rounds:        c.timer.Repetitions(),
		TotalDuration: c.timer.TotalDuration(),
		Editable:      !c.runActive(),
	}
}

func (c *TimerController) publishSetup() {
	c.model.SetSetup(c.SetupSummary())
}

// runActive is true from Start until the run completes or is stopped,
// including while paused
func (c *TimerController) runActive() bool {
	switch c.timer.State().Status {
	case timer.StatusRunning, timer.StatusPaused:
		return true
	default:
		return false
	}
}

func (c *TimerController) refuseEdit() bool {
	if c.runActive() {
		c.logger.Printf("Stop the timer before editing the workout")
		return true
	}
	return false
}

// --- Run control ---

// StartTimer starts a run of the configured workout and switches to the
// timer screen
func (c *TimerController) StartTimer() error {
	runID := analytics.NewRunID()
	if err := c.timer.Start(); err != nil {
		c.logger.Printf("Cannot start timer: %v", err)
		return err
	}

	c.mu.Lock()
	c.runID = runID
	preset := c.preset
	c.mu.Unlock()

	c.logEvent(analytics.EventTimerStart, analytics.Params{analytics.ParamRunID: runID, analytics.ParamItemID: preset})
	c.model.SetMode(UIModeTimer)
	return nil
}

// StopTimer cancels the run and resets the timer display
func (c *TimerController) StopTimer() {
	c.timer.Stop()
	c.logEvent(analytics.EventTimerStop, analytics.Params{analytics.ParamRunID: c.currentRunID()})
}

// StartOrPauseTimer pauses or resumes an active run, or starts a new one
// when none is active
func (c *TimerController) StartOrPauseTimer() {
	if !c.runActive() {
		_ = c.StartTimer()
		return
	}

	paused := c.timer.StartOrPause()
	pausedParam := 0
	if paused {
		pausedParam = 1
	}
	c.logEvent(analytics.EventTimerStartOrPause, analytics.Params{analytics.ParamRunID: c.currentRunID(), "paused": pausedParam})
}

// RunDone returns a channel closed when the current run ends
func (c *TimerController) RunDone() <-chan struct{} {
	return c.timer.Done()
}

// RunState returns the engine's latest snapshot
func (c *TimerController) RunState() timer.RunState {
	return c.timer.State()
}

func (c *TimerController) currentRunID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runID
}

func (c *TimerController) logEvent(name string, params analytics.Params) {
	if err := c.tracker.LogEvent(name, params); err != nil {
		c.logger.Printf("Analytics error: %v", err)
	}
}

// --- Navigation ---

// OnEscapeKey handles when the Escape key is pressed
func (c *TimerController) OnEscapeKey() {
	c.model.RequestCloseApplication()
}

// OnModeChange handles when the user requests a mode change
func (c *TimerController) OnModeChange(mode UIMode) {
	if info, ok := GetUIModeInfo(mode); ok {
		c.logger.Printf("Switching to %s mode", info.DisplayName)
	}
	c.model.SetMode(mode)
}

// Shutdown stops the run and the run state listener
func (c *TimerController) Shutdown() {
	c.timer.Stop()
	c.cancel()
	c.wg.Wait()
}

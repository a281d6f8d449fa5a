package workout

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/lowaak/workout-timer/internal/presets"
	"github.com/lowaak/workout-timer/internal/timer"
)

// HeadlessUIViewImpl implements UIViewImpl on a plain writer. Run starts the
// configured workout and returns when it ends or the view is stopped.
type HeadlessUIViewImpl struct {
	out        io.Writer
	logger     *log.Logger
	controller *TimerController

	mu          sync.Mutex
	currentMode UIMode
	setup       SetupSummary
	lastLine    string
	finished    bool // Run has printed its last line
	completed   bool

	stop     chan struct{}
	stopOnce sync.Once
}

func NewHeadlessUIView(out io.Writer, logger *log.Logger) *HeadlessUIViewImpl {
	return &HeadlessUIViewImpl{
		out:         out,
		logger:      logger,
		currentMode: UIModeSetup,
		stop:        make(chan struct{}),
	}
}

func (ui *HeadlessUIViewImpl) Initialize(controller *TimerController) {
	ui.controller = controller
}

// SetupKeyboardHandlers does nothing; a headless run takes no input
func (ui *HeadlessUIViewImpl) SetupKeyboardHandlers(*TimerController) {}

// Run starts the workout and blocks until it completes or Stop is called
func (ui *HeadlessUIViewImpl) Run() error {
	ui.mu.Lock()
	setup := ui.setup
	ui.mu.Unlock()
	ui.printf("%s: %d x %s = %s\n", setup.Preset, setup.Rounds, formatSequence(setup.Sequence), timer.FormatDuration(setup.TotalDuration))

	if err := ui.controller.StartTimer(); err != nil {
		return err
	}

	select {
	case <-ui.stop:
		ui.controller.StopTimer()
		ui.finish("Stopped", false)
		return nil
	case <-ui.controller.RunDone():
	}

	// the listener may still be behind; print the final snapshot directly
	final := ui.controller.RunState()
	ui.finish(formatRunStateLine(final), final.Status == timer.StatusCompleted)
	return nil
}

func (ui *HeadlessUIViewImpl) finish(line string, completed bool) {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	if line != ui.lastLine {
		ui.write(line + "\n")
	}
	ui.finished = true
	ui.completed = completed
}

// Stop interrupts Run
func (ui *HeadlessUIViewImpl) Stop() {
	ui.stopOnce.Do(func() { close(ui.stop) })
}

// Completed reports whether Run ended with the whole workout done
func (ui *HeadlessUIViewImpl) Completed() bool {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	return ui.completed
}

func (ui *HeadlessUIViewImpl) Draw() error { return nil }

func (ui *HeadlessUIViewImpl) SetMode(mode UIMode) {
	ui.mu.Lock()
	ui.currentMode = mode
	ui.mu.Unlock()
}

func (ui *HeadlessUIViewImpl) GetCurrentMode() UIMode {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	return ui.currentMode
}

// GetLogViewHeight returns 0 so no log lines are mirrored to the output
func (ui *HeadlessUIViewImpl) GetLogViewHeight() int { return 0 }

func (ui *HeadlessUIViewImpl) ClearLogView() {}

func (ui *HeadlessUIViewImpl) WriteLogLine(string) error { return nil }

func (ui *HeadlessUIViewImpl) SetPresetList([]presets.Preset) {}

func (ui *HeadlessUIViewImpl) UpdateSetup(setup SetupSummary) {
	ui.mu.Lock()
	ui.setup = setup
	ui.mu.Unlock()
}

// UpdateRunState prints one line per distinct snapshot of an active run
func (ui *HeadlessUIViewImpl) UpdateRunState(state timer.RunState) {
	if state.Status == timer.StatusIdle {
		return
	}
	line := formatRunStateLine(state)

	ui.mu.Lock()
	defer ui.mu.Unlock()
	if ui.finished || line == ui.lastLine {
		return
	}
	ui.lastLine = line
	ui.write(line + "\n")
}

func (ui *HeadlessUIViewImpl) ShowCue(cue Cue) {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	if !ui.finished {
		ui.write(fmt.Sprintf("  * %s\n", cue))
	}
}

func (ui *HeadlessUIViewImpl) printf(format string, args ...any) {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	ui.write(fmt.Sprintf(format, args...))
}

// write must be called with mu held
func (ui *HeadlessUIViewImpl) write(s string) {
	if _, err := io.WriteString(ui.out, s); err != nil {
		ui.logger.Printf("HeadlessUIView: Error writing output: %v", err)
	}
}

func formatRunStateLine(state timer.RunState) string {
	if state.Status == timer.StatusCompleted {
		return fmt.Sprintf("Done: %d intervals, %s", len(state.Completed), timer.FormatDuration(state.TotalDuration))
	}
	line := fmt.Sprintf("[%d/%d] %-7s %s %3d%%  total left %s",
		state.SequenceNumber, state.SequenceRepetitions,
		state.Current.Kind(), state.CurrentRemainingFormatted(), state.CurrentPercent,
		timer.FormatDuration(state.TotalRemaining))
	if state.Status == timer.StatusPaused {
		line += "  (paused)"
	}
	return line
}

func formatSequence(intervals []timer.Interval) string {
	s := "["
	for i, interval := range intervals {
		if i > 0 {
			s += ", "
		}
		s += interval.String()
	}
	return s + "]"
}

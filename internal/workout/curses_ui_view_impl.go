package workout

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lowaak/workout-timer/internal/presets"
	"github.com/lowaak/workout-timer/internal/timer"
)

// Page names for tview.Pages
const (
	pageSetup = "setup"
	pageTimer = "timer"
)

const progressBarWidth = 30

// CursesUIViewImpl implements UIViewImpl using tview (curses-based terminal UI)
type CursesUIViewImpl struct {
	logger *log.Logger
	app    *tview.Application
	model  *UIModel

	// mu guards currentMode, presets, shownPreset and lastCue. BaseUIView
	// calls in from one goroutine per model event and tview input capture
	// runs on the app goroutine.
	mu          sync.Mutex
	currentMode UIMode

	// Root container that holds all pages
	pages *tview.Pages

	// Shared components (visible in all modes)
	logView  *tview.TextView
	mainFlex *tview.Flex // Main layout: mode content on left, logs on right

	// Setup mode components
	setupFlex       *tview.Flex
	setupTabWidgets []tview.Primitive
	presetList      *tview.List
	setupPanel      *tview.TextView
	presets         []presets.Preset
	shownPreset     string

	// Timer mode components
	timerFlex       *tview.Flex
	timerTabWidgets []tview.Primitive
	timerPanel      *tview.TextView
	completedPanel  *tview.TextView
	lastCue         string
}

func NewCursesUIView(logger *log.Logger, app *tview.Application, model *UIModel) *CursesUIViewImpl {
	return &CursesUIViewImpl{
		logger:      logger,
		app:         app,
		model:       model,
		currentMode: UIModeSetup,
	}
}

// Initialize sets up the tview widgets
func (ui *CursesUIViewImpl) Initialize(controller *TimerController) {
	// Don't use SetChangedFunc with app.Draw() here: it can hang shutdown when
	// log lines are still being written after the app stopped. BaseUIView
	// draws after every update.
	ui.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	ui.logView.SetBorder(true).SetTitle(" Logs ")

	ui.pages = tview.NewPages()

	ui.initSetupMode(controller)
	ui.initTimerMode()

	ui.pages.AddPage(pageSetup, ui.setupFlex, true, true)
	ui.pages.AddPage(pageTimer, ui.timerFlex, true, false)

	ui.mainFlex = tview.NewFlex().
		AddItem(ui.pages, 0, 2, true).
		AddItem(ui.logView, 0, 1, false)

	ui.setFocus(ui.GetCurrentMode())
}

func (ui *CursesUIViewImpl) initSetupMode(controller *TimerController) {
	instructionsText := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	instructionsText.SetText("[yellow]Enter[white] Preset  |  [yellow]w[white]/[yellow]W[white] Work -/+  |  [yellow]r[white]/[yellow]R[white] Rest -/+  |  [yellow]-[white]/[yellow]+[white] Rounds\n[yellow]s[white] Start  |  [yellow]c[white] Reset  |  [yellow]1[white] Setup  |  [yellow]2[white] Timer  |  [yellow]Esc[white] Quit")

	ui.presetList = tview.NewList().
		ShowSecondaryText(true).
		SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			ui.logger.Printf("UI: Preset selected: index=%d, name=%s", index, mainText)
			if err := controller.SetStandardTimer(mainText); err != nil {
				ui.logger.Printf("UI: %v", err)
			}
		})
	ui.presetList.SetBorder(true).SetTitle(" Presets ")

	ui.setupPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.setupPanel.SetBorder(true).SetTitle(" Workout ")
	ui.UpdateSetup(ui.model.GetSetup())

	ui.setupTabWidgets = append(ui.setupTabWidgets, ui.presetList, ui.setupPanel)

	body := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(ui.presetList, 0, 1, true).
		AddItem(ui.setupPanel, 0, 2, false)

	ui.setupFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructionsText, 2, 0, false).
		AddItem(body, 0, 1, true)
}

func (ui *CursesUIViewImpl) initTimerMode() {
	ui.timerPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.timerPanel.SetBorder(true).SetTitle(" Timer ")
	ui.UpdateRunState(ui.model.GetRunState())

	ui.completedPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.completedPanel.SetBorder(true).SetTitle(" Completed ")

	ui.timerTabWidgets = append(ui.timerTabWidgets, ui.timerPanel, ui.completedPanel)

	ui.timerFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.timerPanel, 0, 2, true).
		AddItem(ui.completedPanel, 0, 1, false)
}

// SetPresetList populates the preset list
func (ui *CursesUIViewImpl) SetPresetList(list []presets.Preset) {
	ui.mu.Lock()
	defer ui.mu.Unlock()

	ui.presets = list
	ui.presetList.Clear()
	for _, p := range list {
		ui.presetList.AddItem(p.Name, fmt.Sprintf("work %s  rest %s", timer.FormatDuration(p.Work), timer.FormatDuration(p.Rest)), 0, nil)
	}
	ui.shownPreset = ""
	ui.updateSetupLocked(ui.model.GetSetup())
}

// UpdateSetup shows the configured workout
func (ui *CursesUIViewImpl) UpdateSetup(setup SetupSummary) {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	ui.updateSetupLocked(setup)
}

func (ui *CursesUIViewImpl) updateSetupLocked(setup SetupSummary) {
	if ui.setupPanel == nil {
		return
	}

	if setup.Preset != ui.shownPreset {
		for i, p := range ui.presets {
			if p.Name == setup.Preset {
				ui.presetList.SetCurrentItem(i)
				ui.shownPreset = setup.Preset
				break
			}
		}
	}

	ui.setupPanel.SetText(formatSetup(setup))
}

func formatSetup(setup SetupSummary) string {
	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, "  [yellow]%s[white]\n\n", setup.Preset)
	fmt.Fprintf(&b, "  [gray]Work:[white]   %s\n", formatSeconds(setup.Work()))
	fmt.Fprintf(&b, "  [gray]Rest:[white]   %s\n", formatSeconds(setup.Rest()))
	fmt.Fprintf(&b, "  [gray]Rounds:[white] %d\n", setup.Rounds)
	fmt.Fprintf(&b, "  [gray]Total:[white]  %s\n\n", timer.FormatDuration(setup.TotalDuration))

	if len(setup.Playlist) == 0 {
		b.WriteString("  [red]No intervals - press c to reset[white]\n")
	} else {
		b.WriteString("  [gray]Playlist:[white]\n")
		for i, interval := range setup.Playlist {
			fmt.Fprintf(&b, "    %2d. %s\n", i+1, formatInterval(interval))
		}
	}

	if !setup.Editable {
		b.WriteString("\n  [gray]Stop the timer (press 2, then x) to edit[white]\n")
	}
	return b.String()
}

// UpdateRunState shows a timer snapshot
func (ui *CursesUIViewImpl) UpdateRunState(state timer.RunState) {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	ui.updateRunStateLocked(state)
}

func (ui *CursesUIViewImpl) updateRunStateLocked(state timer.RunState) {
	if ui.timerPanel == nil {
		return
	}
	if state.Status == timer.StatusIdle {
		ui.lastCue = ""
	}
	ui.timerPanel.SetText(formatRunState(state, ui.lastCue))

	if ui.completedPanel != nil {
		var b strings.Builder
		for i, interval := range state.Completed {
			fmt.Fprintf(&b, "  [green]✓[white] %2d. %s\n", i+1, formatInterval(interval))
		}
		ui.completedPanel.SetText(b.String())
	}
}

func formatRunState(state timer.RunState, lastCue string) string {
	var b strings.Builder
	b.WriteString("\n")

	switch state.Status {
	case timer.StatusIdle:
		b.WriteString("  [gray]Timer stopped[white]\n\n")
		b.WriteString("  [gray]Press[white] [yellow]Space[white] [gray]to start the workout from Setup[white]\n")
		return b.String()
	case timer.StatusCompleted:
		b.WriteString("  [green]Workout complete![white]\n\n")
	case timer.StatusPaused:
		fmt.Fprintf(&b, "  [yellow]%s[white] [gray](PAUSED)[white]\n\n", state.Current.Kind())
	default:
		fmt.Fprintf(&b, "  [yellow]%s[white]\n\n", state.Current.Kind())
	}

	if state.SequenceNumber > 0 {
		fmt.Fprintf(&b, "  [gray]Round:[white]     %d/%d\n", state.SequenceNumber, state.SequenceRepetitions)
	}
	fmt.Fprintf(&b, "  [gray]Remaining:[white] [yellow]%s[white]\n", state.CurrentRemainingFormatted())
	fmt.Fprintf(&b, "  %s %3d%%\n\n", progressBar(state.CurrentPercent, progressBarWidth), state.CurrentPercent)
	fmt.Fprintf(&b, "  [gray]Elapsed:[white]   %s\n", timer.FormatDuration(state.Elapsed()))
	fmt.Fprintf(&b, "  [gray]Left:[white]      %s of %s\n", timer.FormatDuration(state.TotalRemaining), timer.FormatDuration(state.TotalDuration))

	if lastCue != "" {
		fmt.Fprintf(&b, "\n  [cyan]♪[white] %s\n", lastCue)
	}

	b.WriteString("\n  [gray]─────────────────────────[white]\n")
	if state.Status == timer.StatusPaused {
		b.WriteString("  [yellow]Space[white] Resume  |  [yellow]X[white] Stop\n")
	} else {
		b.WriteString("  [yellow]Space[white] Pause  |  [yellow]X[white] Stop\n")
	}
	return b.String()
}

// ShowCue signals an audio cue
func (ui *CursesUIViewImpl) ShowCue(cue Cue) {
	state := ui.model.GetRunState()
	if state.Status == timer.StatusIdle {
		return
	}

	ui.mu.Lock()
	defer ui.mu.Unlock()
	ui.lastCue = cue.String()
	ui.updateRunStateLocked(state)
}

// SetMode switches the UI to the specified mode
func (ui *CursesUIViewImpl) SetMode(mode UIMode) {
	ui.mu.Lock()
	if ui.currentMode == mode {
		ui.mu.Unlock()
		return
	}
	ui.currentMode = mode
	ui.mu.Unlock()

	switch mode {
	case UIModeSetup:
		ui.pages.SwitchToPage(pageSetup)
	case UIModeTimer:
		ui.pages.SwitchToPage(pageTimer)
	}

	ui.setFocus(mode)
}

// GetCurrentMode returns the currently active UI mode
func (ui *CursesUIViewImpl) GetCurrentMode() UIMode {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	return ui.currentMode
}

// setFocus runs without mu so tview's app lock is never taken under it
func (ui *CursesUIViewImpl) setFocus(mode UIMode) {
	widgets := ui.tabWidgets(mode)
	if len(widgets) > 0 {
		ui.app.SetFocus(widgets[0])
	}
}

func (ui *CursesUIViewImpl) tabWidgets(mode UIMode) []tview.Primitive {
	switch mode {
	case UIModeSetup:
		return ui.setupTabWidgets
	case UIModeTimer:
		return ui.timerTabWidgets
	default:
		return nil
	}
}

// SetupKeyboardHandlers sets up keyboard event handlers
func (ui *CursesUIViewImpl) SetupKeyboardHandlers(controller *TimerController) {
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// Number keys for mode switching
		if event.Key() == tcell.KeyRune {
			if mode, ok := GetUIModeByKey(event.Rune()); ok {
				controller.OnModeChange(mode)
				return nil
			}
		}

		if event.Key() == tcell.KeyTab {
			widgets := ui.tabWidgets(ui.GetCurrentMode())
			for i, w := range widgets {
				if w.HasFocus() {
					ui.app.SetFocus(widgets[(i+1)%len(widgets)])
					break
				}
			}
			return nil
		}

		if event.Key() == tcell.KeyEscape {
			controller.OnEscapeKey()
			return nil
		}

		if event.Key() != tcell.KeyRune {
			return event
		}

		switch ui.GetCurrentMode() {
		case UIModeSetup:
			switch event.Rune() {
			case 'w':
				controller.AdjustWorkTime(false)
			case 'W':
				controller.AdjustWorkTime(true)
			case 'r':
				controller.AdjustRestTime(false)
			case 'R':
				controller.AdjustRestTime(true)
			case '-':
				controller.AddOrRemoveRounds(false)
			case '+', '=':
				controller.AddOrRemoveRounds(true)
			case 's':
				_ = controller.StartTimer()
			case 'c':
				controller.ResetTimer()
			default:
				return event
			}
			return nil
		case UIModeTimer:
			switch event.Rune() {
			case ' ':
				controller.StartOrPauseTimer()
			case 'x':
				controller.StopTimer()
			default:
				return event
			}
			return nil
		}

		return event
	})
}

// GetLogViewHeight returns the visible height of the log view
func (ui *CursesUIViewImpl) GetLogViewHeight() int {
	_, _, _, height := ui.logView.GetInnerRect()
	return height
}

// ClearLogView clears the log view
func (ui *CursesUIViewImpl) ClearLogView() {
	ui.logView.Clear()
}

// WriteLogLine writes a line to the log view
func (ui *CursesUIViewImpl) WriteLogLine(line string) error {
	_, err := fmt.Fprint(ui.logView, tview.Escape(line))
	return err
}

// Draw refreshes/redraws the UI
func (ui *CursesUIViewImpl) Draw() error {
	ui.app.Draw()
	return nil
}

// Run starts the UI and blocks until it exits
func (ui *CursesUIViewImpl) Run() error {
	// SetRoot must be called before setting focus, otherwise focus may be reset
	ui.app.SetRoot(ui.mainFlex, true)
	ui.setFocus(ui.GetCurrentMode())
	return ui.app.Run()
}

// Stop stops the UI framework
func (ui *CursesUIViewImpl) Stop() {
	ui.app.Stop()
}

func formatInterval(i timer.Interval) string {
	return fmt.Sprintf("%-7s %s", i.Kind(), formatSeconds(i.Duration()))
}

// formatSeconds renders a configured duration the way it is edited, e.g. 45s or 1m30s
func formatSeconds(d time.Duration) string {
	return d.Round(time.Second).String()
}

func progressBar(percent, width int) string {
	percent = min(max(percent, 0), 100)
	filled := percent * width / 100
	return "[green]" + strings.Repeat("█", filled) + "[gray]" + strings.Repeat("░", width-filled) + "[white]"
}

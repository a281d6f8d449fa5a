package workout

import (
	"github.com/lowaak/workout-timer/internal/presets"
	"github.com/lowaak/workout-timer/internal/timer"
)

// UIViewImpl defines the interface for framework-specific UI implementations
type UIViewImpl interface {
	// Initialize is called after construction to set up framework-specific widgets
	// controller is used to handle UI events
	Initialize(controller *TimerController)

	// SetupKeyboardHandlers sets up keyboard event handlers
	// controller is used to handle keyboard events
	SetupKeyboardHandlers(controller *TimerController)

	// Run starts the UI framework and blocks until it exits
	Run() error

	// Stop stops the UI framework
	Stop()

	// Draw refreshes/redraws the UI
	Draw() error

	// --- Mode Management ---

	// SetMode switches the UI to the specified mode
	SetMode(mode UIMode)

	// GetCurrentMode returns the currently active UI mode
	GetCurrentMode() UIMode

	// --- Log View (shared across modes) ---

	// GetLogViewHeight returns the visible height of the log view
	GetLogViewHeight() int

	// ClearLogView clears the log view
	ClearLogView()

	// WriteLogLine writes a line to the log view
	WriteLogLine(line string) error

	// --- Setup Mode ---

	// SetPresetList populates the preset list
	SetPresetList(list []presets.Preset)

	// UpdateSetup shows the configured workout
	UpdateSetup(setup SetupSummary)

	// --- Timer Mode ---

	// UpdateRunState shows a timer snapshot
	UpdateRunState(state timer.RunState)

	// ShowCue signals an audio cue
	ShowCue(cue Cue)
}

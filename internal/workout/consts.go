package workout

import (
	"time"

	"github.com/lowaak/workout-timer/internal/config"
)

// UIMode represents the current UI mode/screen
type UIMode int

const (
	UIModeSetup UIMode = iota // Preset selection and work/rest/rounds editing
	UIModeTimer               // Live countdown
)

// UIModeInfo contains display information for a UI mode
type UIModeInfo struct {
	Mode        UIMode
	DisplayName string
	KeyBinding  rune // The number key to activate this mode (1-9)
}

// AllUIModes defines all available UI modes in order
var AllUIModes = []UIModeInfo{
	{Mode: UIModeSetup, DisplayName: "Setup", KeyBinding: '1'},
	{Mode: UIModeTimer, DisplayName: "Timer", KeyBinding: '2'},
}

// GetUIModeByKey returns the mode for a given key binding
func GetUIModeByKey(key rune) (UIMode, bool) {
	for _, info := range AllUIModes {
		if info.KeyBinding == key {
			return info.Mode, true
		}
	}
	return 0, false
}

// GetUIModeInfo returns the info for a given mode
func GetUIModeInfo(mode UIMode) (UIModeInfo, bool) {
	for _, info := range AllUIModes {
		if info.Mode == mode {
			return info, true
		}
	}
	return UIModeInfo{}, false
}

// TimeStep is how much one press of the work/rest keys changes the interval
const TimeStep = 5 * time.Second

// Editing limits
const (
	MinWorkTime = config.MinWork
	MaxWorkTime = config.MaxWork
	MinRestTime = config.MinRest
	MaxRestTime = config.MaxRest
	MaxRounds   = config.MaxReps
)

// Cache keys for the user's last custom work/rest values
const (
	cacheKeyCustomWork = "custom_work"
	cacheKeyCustomRest = "custom_rest"
)

const maxLogLines = 1000

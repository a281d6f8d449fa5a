package timer

import (
	"fmt"
	"time"
)

// Status is the engine lifecycle as seen by observers
type Status int

const (
	StatusIdle      Status = iota // never started, or stopped
	StatusRunning                 // counting down
	StatusPaused                  // run active, countdown suspended
	StatusCompleted               // every interval of every repetition finished
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	case StatusCompleted:
		return "completed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// RunState is a snapshot of playback progress. Snapshots are published by
// value and never modified afterwards; Completed is freshly allocated for
// every snapshot that changes it.
type RunState struct {
	Current             Interval      // interval presently executing
	CurrentRemaining    time.Duration // time left in Current
	CurrentPercent      int           // 0-100 progress through Current
	Completed           []Interval    // intervals fully finished this run, in playback order
	TotalDuration       time.Duration // sum of durations x repetitions, fixed for the run
	TotalRemaining      time.Duration // time left until the whole run completes
	SequenceRepetitions int           // repetitions configured for this run
	SequenceNumber      int           // 1-indexed repetition currently executing
	IntervalIndex       int           // 0-indexed position of Current within the sequence
	Running             bool          // true while the countdown is advancing
	Status              Status
}

// NewRunState returns the fresh state shown before any run and after stop
func NewRunState() RunState {
	return RunState{
		Current: Prepare(),
		Status:  StatusIdle,
	}
}

// Elapsed is how much of the run has been played
func (s RunState) Elapsed() time.Duration {
	return s.TotalDuration - s.TotalRemaining
}

// CurrentRemainingFormatted renders CurrentRemaining for display
func (s RunState) CurrentRemainingFormatted() string {
	return FormatDuration(s.CurrentRemaining)
}

// FormatDuration renders d as hh:mm:ss when it spans hours, mm:ss when it
// spans minutes, and bare seconds otherwise.
func FormatDuration(d time.Duration) string {
	seconds := int64(d / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	switch {
	case hours > 0:
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	case minutes > 0:
		return fmt.Sprintf("%02d:%02d", minutes, secs)
	default:
		return fmt.Sprintf("%d", seconds)
	}
}

// percentComplete is 100 - floor(remaining/duration*100), computed in
// integers so the floor is exact. A zero-length interval counts as done.
func percentComplete(remaining, duration time.Duration) int {
	if duration <= 0 {
		return 100
	}
	return 100 - int(remaining*100/duration)
}

func appendCompleted(completed []Interval, interval Interval) []Interval {
	next := make([]Interval, len(completed)+1)
	copy(next, completed)
	next[len(completed)] = interval
	return next
}

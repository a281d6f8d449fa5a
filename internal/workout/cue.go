package workout

import (
	"fmt"
	"time"

	"github.com/lowaak/workout-timer/internal/timer"
)

// CueKind is the sound a collaborator should play
type CueKind int

const (
	CueCountdown  CueKind = iota // last seconds of an interval
	CueStepChange                // interval finished
)

func (k CueKind) String() string {
	switch k {
	case CueCountdown:
		return "countdown"
	case CueStepChange:
		return "step change"
	default:
		return fmt.Sprintf("CueKind(%d)", int(k))
	}
}

// CountdownThreshold is the remaining time at which the countdown cue fires
const CountdownThreshold = 3 * time.Second

type Cue struct {
	Kind           CueKind
	Interval       timer.Interval
	SequenceNumber int
	IntervalIndex  int
}

func (c Cue) String() string {
	return fmt.Sprintf("%s for %s (round %d, step %d)", c.Kind, c.Interval, c.SequenceNumber, c.IntervalIndex+1)
}

type cueKey struct {
	kind     CueKind
	rep, idx int
}

// CueDetector turns the run state stream into audio cues. Thresholds are
// checked as ranges, so a snapshot missed by a slow observer does not lose
// the cue; each cue fires at most once per interval of a run.
//
// Not safe for concurrent use.
type CueDetector struct {
	fired map[cueKey]bool
}

func NewCueDetector() *CueDetector {
	return &CueDetector{fired: make(map[cueKey]bool)}
}

// Observe returns the cues state triggers. Prepare intervals never cue.
func (d *CueDetector) Observe(state timer.RunState) []Cue {
	if state.SequenceNumber == 0 {
		// idle, stopped, or the snapshot published before the first interval
		d.Reset()
		return nil
	}
	if state.Current.Kind() == timer.KindPrepare {
		return nil
	}

	var cues []Cue
	remaining := state.CurrentRemaining
	// countdown is ordered before step change, so an observer that first sees
	// an interval at zero still gets both
	if state.Current.Duration() >= CountdownThreshold && remaining <= CountdownThreshold {
		cues = d.fire(cues, CueCountdown, state)
	}
	if remaining < time.Second {
		cues = d.fire(cues, CueStepChange, state)
	}
	return cues
}

func (d *CueDetector) Reset() {
	clear(d.fired)
}

func (d *CueDetector) fire(cues []Cue, kind CueKind, state timer.RunState) []Cue {
	key := cueKey{kind: kind, rep: state.SequenceNumber, idx: state.IntervalIndex}
	if d.fired[key] {
		return cues
	}
	d.fired[key] = true
	return append(cues, Cue{
		Kind:           kind,
		Interval:       state.Current,
		SequenceNumber: state.SequenceNumber,
		IntervalIndex:  state.IntervalIndex,
	})
}

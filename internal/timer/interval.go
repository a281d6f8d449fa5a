package timer

import (
	"fmt"
	"time"
)

// Kind is the phase of a workout an Interval represents.
type Kind int

const (
	KindWork Kind = iota
	KindRest
	KindPrepare
)

// DefaultPrepareDuration is the countdown used before a run when no
// explicit duration is given.
const DefaultPrepareDuration = 3 * time.Second

// AllKinds lists every interval kind in display order
var AllKinds = []Kind{KindWork, KindRest, KindPrepare}

func (k Kind) String() string {
	switch k {
	case KindWork:
		return "Work"
	case KindRest:
		return "Rest"
	case KindPrepare:
		return "Prepare"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Interval is one timed phase of a workout. It is a value type: two
// intervals are equal (==) iff kind and duration match.
type Interval struct {
	kind     Kind
	duration time.Duration
}

// NewInterval builds an interval. Durations are truncated to whole seconds
// and negative durations become zero.
func NewInterval(kind Kind, duration time.Duration) Interval {
	if duration < 0 {
		duration = 0
	}
	return Interval{kind: kind, duration: duration.Truncate(time.Second)}
}

func Work(duration time.Duration) Interval {
	return NewInterval(KindWork, duration)
}

func Rest(duration time.Duration) Interval {
	return NewInterval(KindRest, duration)
}

// Prepare returns a Prepare interval of DefaultPrepareDuration.
func Prepare() Interval {
	return NewInterval(KindPrepare, DefaultPrepareDuration)
}

func PrepareFor(duration time.Duration) Interval {
	return NewInterval(KindPrepare, duration)
}

func (i Interval) Kind() Kind {
	return i.kind
}

func (i Interval) Duration() time.Duration {
	return i.duration
}

func (i Interval) String() string {
	return fmt.Sprintf("%s(%s)", i.kind, i.duration)
}

package timer

import "time"

// Sequence is the ordered list of intervals a workout plays, plus how many
// times the whole list repeats. Insertion order is playback order.
//
// A Sequence is not safe for concurrent use; WorkoutTimer serializes access.
type Sequence struct {
	intervals   []Interval
	repetitions int
}

// NewSequence returns a sequence holding intervals with one repetition
func NewSequence(intervals ...Interval) *Sequence {
	s := &Sequence{repetitions: 1}
	s.Add(intervals...)
	return s
}

// Add appends intervals to the end of the sequence
func (s *Sequence) Add(intervals ...Interval) {
	s.intervals = append(s.intervals, intervals...)
}

// Remove deletes the last interval equal to interval (same kind and duration).
// Reports whether anything was removed.
func (s *Sequence) Remove(interval Interval) bool {
	return s.removeAt(s.lastIndex(func(i Interval) bool { return i == interval }))
}

// RemoveByKind deletes the last interval of the given kind, whatever its duration
func (s *Sequence) RemoveByKind(kind Kind) bool {
	return s.removeAt(s.lastIndex(func(i Interval) bool { return i.kind == kind }))
}

// RemoveLast deletes the final interval; no-op on an empty sequence
func (s *Sequence) RemoveLast() bool {
	return s.removeAt(len(s.intervals) - 1)
}

// Replace overwrites the last interval of the same kind in place, or
// appends interval when the sequence has none of that kind.
func (s *Sequence) Replace(interval Interval) {
	idx := s.lastIndex(func(i Interval) bool { return i.kind == interval.kind })
	if idx < 0 {
		s.intervals = append(s.intervals, interval)
		return
	}
	s.intervals[idx] = interval
}

func (s *Sequence) IncreaseReps() {
	s.repetitions++
}

// DecreaseReps lowers the repetition count, never below 1
func (s *Sequence) DecreaseReps() {
	if s.repetitions > 1 {
		s.repetitions--
	}
}

// Reset empties the interval list and sets repetitions back to 1
func (s *Sequence) Reset() {
	s.intervals = nil
	s.repetitions = 1
}

// Intervals returns a copy of the interval list
func (s *Sequence) Intervals() []Interval {
	out := make([]Interval, len(s.intervals))
	copy(out, s.intervals)
	return out
}

func (s *Sequence) Repetitions() int {
	return s.repetitions
}

func (s *Sequence) Len() int {
	return len(s.intervals)
}

// First returns the first interval of the given kind
func (s *Sequence) First(kind Kind) (Interval, bool) {
	for _, i := range s.intervals {
		if i.kind == kind {
			return i, true
		}
	}
	return Interval{}, false
}

// Expanded returns the full playback order: the interval list repeated
// Repetitions times.
func (s *Sequence) Expanded() []Interval {
	out := make([]Interval, 0, len(s.intervals)*s.repetitions)
	for r := 0; r < s.repetitions; r++ {
		out = append(out, s.intervals...)
	}
	return out
}

// TotalDuration is the sum of all interval durations times the repetitions
func (s *Sequence) TotalDuration() time.Duration {
	return totalDuration(s.intervals, s.repetitions)
}

func (s *Sequence) lastIndex(match func(Interval) bool) int {
	for i := len(s.intervals) - 1; i >= 0; i-- {
		if match(s.intervals[i]) {
			return i
		}
	}
	return -1
}

func (s *Sequence) removeAt(idx int) bool {
	if idx < 0 || idx >= len(s.intervals) {
		return false
	}
	s.intervals = append(s.intervals[:idx], s.intervals[idx+1:]...)
	return true
}

func totalDuration(intervals []Interval, repetitions int) time.Duration {
	var sum time.Duration
	for _, i := range intervals {
		sum += i.duration
	}
	return sum * time.Duration(repetitions)
}

package game

// ScoreState holds the per-kind counters, the aggregate score and the god's
// mood. In offline mode it is credited directly by accepted hit detections.
// In networked mode it changes only when the server confirms totals, never
// from local detection alone; that asymmetry is what keeps the local score
// from diverging from the server's tally.
type ScoreState struct {
	counters map[ItemKind]int
	total    int
	mood     int
}

// NewScoreState returns a zeroed score with every known kind present.
func NewScoreState() *ScoreState {
	s := &ScoreState{counters: make(map[ItemKind]int, len(Kinds()))}
	for _, k := range Kinds() {
		s.counters[k] = 0
	}
	return s
}

// AddLocal credits one locally-detected hit. Offline mode only.
func (s *ScoreState) AddLocal(kind ItemKind) {
	s.counters[kind]++
	s.total++
}

// FoldConfirmed folds an authoritative totals transition into the session
// counters. Totals are absolute per order and non-decreasing within one
// order's lifetime, so only the positive per-kind delta is added; this keeps
// the counters server-confirmed across order boundaries.
func (s *ScoreState) FoldConfirmed(prev, next map[ItemKind]int) {
	for k, n := range next {
		if d := n - prev[k]; d > 0 {
			s.counters[k] += d
			s.total += d
		}
	}
}

// SetMood overwrites the mood with a server-supplied value.
func (s *ScoreState) SetMood(mood int) {
	s.mood = mood
}

// SetTotal overwrites the aggregate score with a server-supplied final value.
func (s *ScoreState) SetTotal(total int) {
	s.total = total
}

// Mood returns the current god mood.
func (s *ScoreState) Mood() int {
	return s.mood
}

// Total returns the aggregate score.
func (s *ScoreState) Total() int {
	return s.total
}

// Count returns the counter for one kind.
func (s *ScoreState) Count(kind ItemKind) int {
	return s.counters[kind]
}

// Counters returns an independent copy of the per-kind counters.
func (s *ScoreState) Counters() map[ItemKind]int {
	cp := make(map[ItemKind]int, len(s.counters))
	for k, n := range s.counters {
		cp[k] = n
	}
	return cp
}

// Reset zeroes all counters, the aggregate and the mood.
func (s *ScoreState) Reset() {
	for k := range s.counters {
		s.counters[k] = 0
	}
	s.total = 0
	s.mood = 0
}

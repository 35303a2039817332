// Package ledger provides the hit deduplication bookkeeping: it guarantees
// that one physical object produces at most one accepted detection per
// episode, no matter how many collision callbacks fire for it.
package ledger

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/ohmyhungrygod/gameclient/internal/game"
)

// Result classifies one detection.
type Result int

const (
	Accepted Result = iota
	Duplicate
)

func (r Result) String() string {
	if r == Accepted {
		return "Accepted"
	}
	return "Duplicate"
}

type entry struct {
	kind       game.ItemKind
	detectedAt time.Time
	timer      clockwork.Timer
}

// Ledger remembers detected objects from first detection until either the
// cool-down elapses or the entry is explicitly cleared. Re-detections inside
// that window are Duplicates and must produce no report and no score change.
//
// Detection callbacks and cool-down expiry run on different goroutines; the
// internal mutex is the serialization boundary for both.
type Ledger struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	cooldown time.Duration
	hits     map[string]*entry
}

// New creates a ledger with the given cool-down window.
func New(clock clockwork.Clock, cooldown time.Duration) *Ledger {
	return &Ledger{
		clock:    clock,
		cooldown: cooldown,
		hits:     make(map[string]*entry),
	}
}

// Record registers a detection of one physical object. The first call for an
// object id is Accepted and schedules removal after the cool-down; calls
// before removal return Duplicate.
func (l *Ledger) Record(objectID string, kind game.ItemKind) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.hits[objectID]; ok {
		log.Debug().Str("object_id", objectID).Msg("duplicate hit detection dropped")
		return Duplicate
	}

	e := &entry{kind: kind, detectedAt: l.clock.Now()}
	e.timer = l.clock.AfterFunc(l.cooldown, func() {
		l.expire(objectID)
	})
	l.hits[objectID] = e
	return Accepted
}

func (l *Ledger) expire(objectID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hits, objectID)
}

// Clear removes an entry ahead of its cool-down, e.g. once the server has
// confirmed the order the hit belonged to. Safe for unknown ids.
func (l *Ledger) Clear(objectID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.hits[objectID]; ok {
		e.timer.Stop()
		delete(l.hits, objectID)
	}
}

// Reset drops every entry and cancels all pending cool-downs. Used on
// session teardown so no expiry callback survives into the next session.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, e := range l.hits {
		e.timer.Stop()
		delete(l.hits, id)
	}
}

// Len returns the number of live entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hits)
}

package game

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the server-assigned lifecycle state of an order. The wire
// representation is the server's integer enum. Resolution is decided by the
// server exclusively; the client never recomputes success or failure from
// its own submitted counts, which may be stale at the resolution moment.
type OrderStatus int

const (
	OrderActive OrderStatus = iota
	OrderSuccessExact
	OrderFailOver
	OrderFailTimeout
)

// Terminal reports whether s ends an order's lifetime.
func (s OrderStatus) Terminal() bool {
	return s == OrderSuccessExact || s == OrderFailOver || s == OrderFailTimeout
}

// Valid reports whether s is one of the defined statuses.
func (s OrderStatus) Valid() bool {
	return s >= OrderActive && s <= OrderFailTimeout
}

func (s OrderStatus) String() string {
	switch s {
	case OrderActive:
		return "Active"
	case OrderSuccessExact:
		return "SuccessExact"
	case OrderFailOver:
		return "FailOver"
	case OrderFailTimeout:
		return "FailTimeout"
	}
	return "Unknown"
}

// Order is one timed objective: the counts of each item kind the room must
// collectively deliver before the deadline. Required is fixed at creation.
// Submitted mirrors the server's absolute totals and may exceed Required;
// over-submission is a valid failure condition the server detects, not a
// local invariant.
type Order struct {
	ID        uuid.UUID
	Sequence  int
	Required  map[ItemKind]int
	Submitted map[ItemKind]int
	Deadline  time.Time
	Status    OrderStatus
}

// Tracker owns the single currently-active order, if any. Superseded orders
// are discarded, not archived.
type Tracker struct {
	cur *Order
}

// Current returns the tracked order or nil. The returned pointer is owned by
// the tracker; callers wanting an independent copy use the view types.
func (t *Tracker) Current() *Order {
	return t.cur
}

// Start replaces the current order unconditionally. The server is the sole
// arbiter of order lifetime, so a new order supersedes whatever was active
// even if it had not been resolved. Submitted resets to zero for every kind
// in the required set.
func (t *Tracker) Start(id uuid.UUID, seq int, required map[ItemKind]int, deadline time.Time) {
	o := &Order{
		ID:        id,
		Sequence:  seq,
		Required:  make(map[ItemKind]int, len(required)),
		Submitted: make(map[ItemKind]int, len(required)),
		Deadline:  deadline,
		Status:    OrderActive,
	}
	for k, n := range required {
		o.Required[k] = n
		o.Submitted[k] = 0
	}
	t.cur = o
}

// Restore installs an order recovered from an authoritative snapshot,
// including its submitted progress and status.
func (t *Tracker) Restore(o Order) {
	cp := Order{
		ID:        o.ID,
		Sequence:  o.Sequence,
		Required:  make(map[ItemKind]int, len(o.Required)),
		Submitted: make(map[ItemKind]int, len(o.Required)),
		Deadline:  o.Deadline,
		Status:    o.Status,
	}
	for k, n := range o.Required {
		cp.Required[k] = n
		cp.Submitted[k] = 0
	}
	for k, n := range o.Submitted {
		cp.Submitted[k] = n
	}
	t.cur = &cp
}

// ApplyTotals overwrites the submitted map with the server's absolute
// totals. The server sends totals, not deltas, so this is a replacement,
// never an addition. Totals for anything but the current order id are
// rejected with ErrStaleOrder, which guards against out-of-order delivery
// after a newer order has already started; totals for an already-resolved
// order are rejected with ErrAlreadyResolved so late updates cannot disturb
// the final counts. The previous submitted map is returned so callers can
// fold the confirmed delta into session counters.
func (t *Tracker) ApplyTotals(id uuid.UUID, submitted map[ItemKind]int) (map[ItemKind]int, error) {
	if t.cur == nil || t.cur.ID != id {
		return nil, ErrStaleOrder
	}
	if t.cur.Status.Terminal() {
		return nil, ErrAlreadyResolved
	}
	prev := t.cur.Submitted
	next := make(map[ItemKind]int, len(prev))
	for k := range t.cur.Required {
		next[k] = 0
	}
	for k, n := range submitted {
		next[k] = n
	}
	t.cur.Submitted = next
	return prev, nil
}

// Resolve records the server's terminal verdict for the current order.
// Resolutions for non-current orders are rejected with ErrStaleOrder; a
// status can never go backward or re-enter Active.
func (t *Tracker) Resolve(id uuid.UUID, status OrderStatus) error {
	if t.cur == nil || t.cur.ID != id {
		return ErrStaleOrder
	}
	if !status.Terminal() {
		return ErrNotTerminal
	}
	if t.cur.Status.Terminal() {
		return ErrAlreadyResolved
	}
	t.cur.Status = status
	return nil
}

// Reset discards the current order.
func (t *Tracker) Reset() {
	t.cur = nil
}

package game

import "errors"

var (
	// ErrStaleOrder marks an event referencing an order that has been
	// superseded or was never current. Dropped by callers, never surfaced.
	ErrStaleOrder = errors.New("event references a superseded order")

	// ErrNotTerminal marks a resolution event carrying a non-terminal status.
	ErrNotTerminal = errors.New("order resolution status is not terminal")

	// ErrAlreadyResolved marks a resolution for an order that already
	// reached a terminal status.
	ErrAlreadyResolved = errors.New("order already resolved")
)

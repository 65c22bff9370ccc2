package engine

import (
	"sync"
	"time"
)

// JumpState is the phase of an explicit scroll-to-index operation.
type JumpState int

const (
	// JumpIdle means no jump is in progress.
	JumpIdle JumpState = iota
	// JumpComputing means the target window and fetch plan are being derived.
	JumpComputing
	// JumpFetching means window-critical reads are in flight.
	JumpFetching
	// JumpSettling means critical data merged and the scroll position is
	// being applied.
	JumpSettling
)

func (s JumpState) String() string {
	switch s {
	case JumpIdle:
		return "idle"
	case JumpComputing:
		return "computing"
	case JumpFetching:
		return "fetching"
	case JumpSettling:
		return "settling"
	default:
		return "unknown"
	}
}

// JumpOperation tracks one scroll-to-index request through its phases. At
// most one operation is in progress per engine; a second request either
// coalesces into it or is deferred until it finishes.
type JumpOperation struct {
	Target    int64
	StartedAt time.Time

	mu         sync.Mutex
	state      JumpState
	superseded bool
	err        error
}

func newJumpOperation(target int64) *JumpOperation {
	return &JumpOperation{
		Target:    target,
		StartedAt: time.Now(),
		state:     JumpComputing,
	}
}

// State returns the current phase.
func (op *JumpOperation) State() JumpState {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.state
}

func (op *JumpOperation) setState(s JumpState) {
	op.mu.Lock()
	op.state = s
	op.mu.Unlock()
}

// Supersede marks the operation stale: its fetches still merge when they
// resolve, but it must not move the scroll position.
func (op *JumpOperation) Supersede() {
	op.mu.Lock()
	op.superseded = true
	op.mu.Unlock()
}

// Superseded reports whether a newer target displaced this operation.
func (op *JumpOperation) Superseded() bool {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.superseded
}

// Err returns the failure that aborted the operation, if any.
func (op *JumpOperation) Err() error {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.err
}

func (op *JumpOperation) fail(err error) {
	op.mu.Lock()
	op.err = err
	op.state = JumpIdle
	op.mu.Unlock()
}

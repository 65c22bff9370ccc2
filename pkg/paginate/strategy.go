// Package paginate turns desired index ranges into remote fetch plans and
// folds fetch responses back into the window store. Three interchangeable
// strategies exist: page-number, offset, and cursor. A strategy is selected
// once at engine construction and never swapped at runtime.
package paginate

import (
	"errors"
	"fmt"

	"github.com/vanderheijden86/longlist/pkg/model"
	"github.com/vanderheijden86/longlist/pkg/viewport"
	"github.com/vanderheijden86/longlist/pkg/window"
)

// Kind names a pagination strategy.
type Kind string

const (
	KindPage   Kind = "page"
	KindOffset Kind = "offset"
	KindCursor Kind = "cursor"
)

// ParseKind validates a strategy name from configuration.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindPage, KindOffset, KindCursor:
		return Kind(s), nil
	case "":
		return KindOffset, nil
	default:
		return "", fmt.Errorf("unknown pagination strategy %q", s)
	}
}

// Invariant errors, returned synchronously and without touching stored state.
var (
	// ErrNegativeRange rejects plans over ranges with a negative start.
	ErrNegativeRange = errors.New("paginate: negative index range")
	// ErrCursorOutstanding rejects a second concurrent cursor fetch; cursor
	// chains must be walked one request at a time.
	ErrCursorOutstanding = errors.New("paginate: cursor fetch already outstanding")
	// ErrNotPaged rejects page-only operations on non-page strategies.
	ErrNotPaged = errors.New("paginate: strategy is not page-addressed")
)

// Response pairs one resolved fetch with the plan entry that produced it.
// Items carry the caller's transform already applied.
type Response struct {
	Req   model.FetchRequest
	Items []model.Item
	Meta  model.PageMeta
	// Authoritative marks the response that satisfies the target page of an
	// explicit jump; the page strategy replaces on it and appends otherwise.
	Authoritative bool
}

// Strategy plans remote reads for an index range and merges their results.
// Implementations never construct state of their own beyond what addressing
// requires; the window store stays the single source of truth.
type Strategy interface {
	Kind() Kind

	// PlanFetch maps a desired index range to the fetch requests required to
	// satisfy it. The returned requests are the only way fetch parameters are
	// ever constructed.
	PlanFetch(desired viewport.Range) ([]model.FetchRequest, error)

	// ApplyResponse folds a resolved fetch into the store. Existing records
	// absent from the response are never removed.
	ApplyResponse(st *window.Store, res Response) error

	// Abandon releases any per-request bookkeeping after a failed fetch.
	// Stored items are left untouched and the last known hasMore stands.
	Abandon(req model.FetchRequest)
}

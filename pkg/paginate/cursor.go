package paginate

import (
	"fmt"
	"sync"

	"github.com/vanderheijden86/longlist/pkg/debug"
	"github.com/vanderheijden86/longlist/pkg/model"
	"github.com/vanderheijden86/longlist/pkg/viewport"
	"github.com/vanderheijden86/longlist/pkg/window"
)

// CursorStrategy walks an opaque continuation token. Each fetch consumes the
// cursor returned by the previous one, so exactly one fetch may be
// outstanding at a time and random-access jumps degrade to "load the next
// batch": the viewport accepts imprecise positioning instead of walking the
// whole chain.
type CursorStrategy struct {
	batch int

	mu          sync.Mutex
	cursor      string
	outstanding bool
}

// NewCursorStrategy creates a cursor strategy fetching batch records per
// request.
func NewCursorStrategy(batch int) (*CursorStrategy, error) {
	if batch <= 0 {
		return nil, fmt.Errorf("cursor batch must be positive, got %d", batch)
	}
	return &CursorStrategy{batch: batch}, nil
}

func (s *CursorStrategy) Kind() Kind { return KindCursor }

// PlanFetch ignores the precise target range and plans the next batch from
// the current cursor. A plan while another cursor fetch is outstanding is an
// invariant violation, never queued.
func (s *CursorStrategy) PlanFetch(desired viewport.Range) ([]model.FetchRequest, error) {
	if desired.Start < 0 {
		return nil, ErrNegativeRange
	}
	if desired.Empty() {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outstanding {
		return nil, ErrCursorOutstanding
	}
	s.outstanding = true
	debug.LogIf(desired.Start > 0 && s.cursor == "",
		"cursor jump to index %d degrades to next-batch load", desired.Start)
	return []model.FetchRequest{{
		Locator: model.Locator{Cursor: s.cursor, Offset: -1},
		Size:    s.batch,
	}}, nil
}

// ApplyResponse appends the batch (dedup by id protects against a retried
// cursor returning overlap) and advances the cursor to the response's token.
func (s *CursorStrategy) ApplyResponse(st *window.Store, res Response) error {
	s.mu.Lock()
	if res.Meta.Cursor != "" {
		s.cursor = res.Meta.Cursor
	}
	s.outstanding = false
	s.mu.Unlock()

	st.MergeFetchResult(res.Items, res.Meta, window.Append)
	return nil
}

// Abandon releases the outstanding slot after a failed fetch; the cursor is
// left where it was so the caller may re-issue the same batch.
func (s *CursorStrategy) Abandon(model.FetchRequest) {
	s.mu.Lock()
	s.outstanding = false
	s.mu.Unlock()
}

// Cursor returns the current continuation token (for snapshot/debug use).
func (s *CursorStrategy) Cursor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

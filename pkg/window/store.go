// Package window owns the authoritative mutable state of one list engine:
// the sparse loaded-item collection, the visible range, the total-extent
// estimate, and the per-strategy pagination bookkeeping. Every other
// component reads and mutates through the store's entrypoints; nothing else
// writes items directly.
package window

import (
	"sync"

	"github.com/vanderheijden86/longlist/pkg/debug"
	"github.com/vanderheijden86/longlist/pkg/model"
	"github.com/vanderheijden86/longlist/pkg/viewport"
)

// MergeMode selects how a fetch response folds into the collection.
type MergeMode int

const (
	// Replace clears the collection before inserting, for true cold starts
	// and explicit jump-with-replace. An empty response never clears.
	Replace MergeMode = iota
	// Append unions by id, for incremental and boundary loads.
	Append
	// Prepend unions by id for backward pagination.
	Prepend
)

func (m MergeMode) String() string {
	switch m {
	case Replace:
		return "replace"
	case Append:
		return "append"
	case Prepend:
		return "prepend"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent read-only view of the store.
type Snapshot struct {
	VisibleRange    viewport.Range
	VisibleItems    []model.Item
	ScrollPosition  int64
	ContainerExtent int64
	LoadedSpan      viewport.Range
	LoadedCount     int
	Total           int64
	TotalAuth       bool
	TotalDirty      bool
	Loading         bool
	HasMore         bool
	Cursor          string
}

// Store holds one engine's window state. Safe for concurrent use; merges are
// applied in the order their fetches resolve.
type Store struct {
	mu sync.RWMutex

	items        map[int64]model.Item
	visibleRange viewport.Range
	visibleItems []model.Item
	scroll       int64
	container    int64

	total      int64
	totalAuth  bool
	totalDirty bool

	loading bool
	hasMore bool
	cursor  string
	dedupe  bool

	minID int64
	maxID int64
}

// NewStore creates an empty store. When dedupe is enabled, merging keeps the
// first real item seen per id; otherwise later responses overwrite.
func NewStore(dedupe bool) *Store {
	return &Store{
		items:   make(map[int64]model.Item),
		dedupe:  dedupe,
		hasMore: true,
	}
}

// MergeFetchResult folds transformed items plus transport metadata into the
// collection. Absence of an id from a response is never treated as a
// deletion; placeholder items are never stored. Returns the number of newly
// inserted or updated records.
func (s *Store) MergeFetchResult(items []model.Item, meta model.PageMeta, mode MergeMode) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Defensive non-destructive-empty-response rule: a Replace carrying no
	// items must not wipe previously loaded data.
	if mode == Replace && len(items) > 0 {
		s.items = make(map[int64]model.Item, len(items))
		s.minID, s.maxID = 0, 0
	}

	merged := 0
	for _, it := range items {
		if it.Placeholder || it.ID <= 0 {
			continue
		}
		if existing, ok := s.items[it.ID]; ok && s.dedupe && !existing.Placeholder {
			continue
		}
		s.items[it.ID] = it
		merged++
		if s.minID == 0 || it.ID < s.minID {
			s.minID = it.ID
		}
		if it.ID > s.maxID {
			s.maxID = it.ID
		}
	}

	if merged > 0 {
		s.totalDirty = true
	}
	s.foldMetaLocked(meta)
	s.rebuildVisibleLocked()

	debug.Log("merge mode=%s in=%d merged=%d count=%d total=%d auth=%v",
		mode, len(items), merged, len(s.items), s.total, s.totalAuth)
	return merged
}

// foldMetaLocked applies pagination metadata. An authoritative remote total
// is never downgraded to a locally derived estimate.
func (s *Store) foldMetaLocked(meta model.PageMeta) {
	if meta.Cursor != "" {
		s.cursor = meta.Cursor
	}
	s.hasMore = meta.HasMore
	if meta.Total != model.TotalUnknown && meta.Total >= 0 {
		s.total = meta.Total
		s.totalAuth = true
		s.totalDirty = false
		return
	}
	if !s.totalAuth && s.maxID > s.total {
		s.total = s.maxID
	}
}

// RecomputeTotal refreshes the total estimate from local extent and clears
// the dirty flag. Authoritative totals are left alone.
func (s *Store) RecomputeTotal() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.totalAuth && s.maxID > s.total {
		s.total = s.maxID
	}
	s.totalDirty = false
	return s.total
}

// MarkTotalDirty flags the total estimate for recomputation, and demotes an
// authoritative total back to an estimate (used when the backing dataset is
// known to have changed underneath us).
func (s *Store) MarkTotalDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalDirty = true
	s.totalAuth = false
}

// SetVisibleRange records the range the viewport needs and rebuilds the
// cached visible slice. The slice is derived state only; re-slicing the
// collection for the same range always reproduces it.
func (s *Store) SetVisibleRange(r viewport.Range) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visibleRange = r
	s.rebuildVisibleLocked()
}

func (s *Store) rebuildVisibleLocked() {
	s.visibleItems = s.visibleItems[:0]
	for i := s.visibleRange.Start; i < s.visibleRange.End; i++ {
		if it, ok := s.items[i+1]; ok {
			s.visibleItems = append(s.visibleItems, it)
		}
	}
}

// SetScroll records the current scroll position and container extent.
func (s *Store) SetScroll(scroll, container int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if scroll < 0 {
		scroll = 0
	}
	s.scroll = scroll
	if container > 0 {
		s.container = container
	}
}

// SetLoading flips the loading flag.
func (s *Store) SetLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}

// SetCursor overwrites the pagination cursor (cursor strategy only).
func (s *Store) SetCursor(c string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = c
}

// Get returns the real item for an id, if loaded.
func (s *Store) Get(id int64) (model.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	return it, ok
}

// Missing returns the indices inside r with no loaded record.
func (s *Store) Missing(r viewport.Range) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []int64
	for i := r.Start; i < r.End; i++ {
		if _, ok := s.items[i+1]; !ok {
			out = append(out, i)
		}
	}
	return out
}

// LoadedSpan returns the contiguous index hull of loaded records: the range
// from the smallest to the largest loaded index. Gaps inside the hull are
// the placeholder generator's problem, not the boundary detector's.
func (s *Store) LoadedSpan() viewport.Range {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.items) == 0 {
		return viewport.Range{}
	}
	return viewport.Range{Start: s.minID - 1, End: s.maxID}
}

// Snapshot returns a consistent copy of the store's observable state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	visible := make([]model.Item, len(s.visibleItems))
	copy(visible, s.visibleItems)
	span := viewport.Range{}
	if len(s.items) > 0 {
		span = viewport.Range{Start: s.minID - 1, End: s.maxID}
	}
	return Snapshot{
		VisibleRange:    s.visibleRange,
		VisibleItems:    visible,
		ScrollPosition:  s.scroll,
		ContainerExtent: s.container,
		LoadedSpan:      span,
		LoadedCount:     len(s.items),
		Total:           s.total,
		TotalAuth:       s.totalAuth,
		TotalDirty:      s.totalDirty,
		Loading:         s.loading,
		HasMore:         s.hasMore,
		Cursor:          s.cursor,
	}
}

// Count returns the number of loaded records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// HasMore reports whether the transport last claimed more data exists.
func (s *Store) HasMore() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasMore
}

// Cursor returns the current continuation token.
func (s *Store) Cursor() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor
}

// Scroll returns the current scroll position.
func (s *Store) Scroll() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scroll
}

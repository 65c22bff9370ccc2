// Package viewport maps scroll positions to the half-open index ranges that
// must be rendered. Everything here is pure: no state, no I/O, no clocks.
package viewport

// DefaultOverscan is the symmetric buffer, in item extents, added around the
// physical viewport before intersecting with loaded data.
const DefaultOverscan = 3

// Range is a half-open index interval [Start, End).
type Range struct {
	Start int64
	End   int64
}

// Empty reports whether the range contains no indices.
func (r Range) Empty() bool {
	return r.End <= r.Start
}

// Len returns the number of indices in the range.
func (r Range) Len() int64 {
	if r.Empty() {
		return 0
	}
	return r.End - r.Start
}

// Contains reports whether index i falls inside the range.
func (r Range) Contains(i int64) bool {
	return i >= r.Start && i < r.End
}

// Covers reports whether r fully contains other.
func (r Range) Covers(other Range) bool {
	if other.Empty() {
		return true
	}
	return other.Start >= r.Start && other.End <= r.End
}

// Intersect returns the overlap of two ranges, or the empty range.
func (r Range) Intersect(other Range) Range {
	out := Range{Start: max64(r.Start, other.Start), End: min64(r.End, other.End)}
	if out.Empty() {
		return Range{}
	}
	return out
}

// Position is the pixel offset of a single rendered index.
type Position struct {
	Index  int64
	Offset int64
}

// ComputeVisibleRange maps a scroll position to the index range that must be
// rendered. The physical viewport [scroll, scroll+container) is inflated by
// overscan item extents on both sides, converted to indices, and intersected
// with the span of currently loaded items. A viewport that misses the span
// entirely (or an empty span, or degenerate extents) yields the empty range:
// callers fall back to placeholder synthesis rather than forcing a
// synchronous fetch.
func ComputeVisibleRange(scroll, container, itemExtent int64, overscan int, span Range) Range {
	if itemExtent <= 0 || container <= 0 || span.Empty() {
		return Range{}
	}
	if overscan < 0 {
		overscan = 0
	}
	if scroll < 0 {
		scroll = 0
	}
	first := scroll/itemExtent - int64(overscan)
	if first < 0 {
		first = 0
	}
	last := ceilDiv(scroll+container, itemExtent) + int64(overscan)
	return span.Intersect(Range{Start: first, End: last})
}

// WindowAround returns the index range a viewport anchored at index would
// render, inflated by overscan, without any intersection against loaded
// data. Coordinators plan fetches against this range.
func WindowAround(index, container, itemExtent int64, overscan int) Range {
	if itemExtent <= 0 || container <= 0 || index < 0 {
		return Range{}
	}
	if overscan < 0 {
		overscan = 0
	}
	rows := ceilDiv(container, itemExtent)
	start := index - int64(overscan)
	if start < 0 {
		start = 0
	}
	return Range{Start: start, End: index + rows + int64(overscan)}
}

// Rows returns how many item extents fit the container, rounding up.
func Rows(container, itemExtent int64) int64 {
	if itemExtent <= 0 || container <= 0 {
		return 0
	}
	return ceilDiv(container, itemExtent)
}

// Positions returns the pixel offset of every index in r.
func Positions(r Range, itemExtent int64) []Position {
	if r.Empty() || itemExtent <= 0 {
		return nil
	}
	out := make([]Position, 0, r.Len())
	for i := r.Start; i < r.End; i++ {
		out = append(out, Position{Index: i, Offset: i * itemExtent})
	}
	return out
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

package paginate

import (
	"fmt"

	"github.com/vanderheijden86/longlist/pkg/model"
	"github.com/vanderheijden86/longlist/pkg/viewport"
	"github.com/vanderheijden86/longlist/pkg/window"
)

// DefaultViewportMultiplier controls how many screenfuls an offset fetch
// loads at once; more than one keeps request frequency down while scrolling.
const DefaultViewportMultiplier = 3

// OffsetStrategy addresses the backend with {offset, limit} pairs. It plans
// exactly one request per window: no page quantization waste, at the cost of
// arbitrary overlap (the store's id union keeps that safe).
type OffsetStrategy struct {
	itemExtent int64
	container  int64
	multiplier int
	backRows   int64
}

// NewOffsetStrategy creates an offset strategy. The back buffer defaults to
// half a viewport of rows; pass backRows < 0 to accept the default.
func NewOffsetStrategy(itemExtent, container int64, multiplier int, backRows int64) (*OffsetStrategy, error) {
	if itemExtent <= 0 || container <= 0 {
		return nil, fmt.Errorf("offset strategy needs positive extents, got item=%d container=%d", itemExtent, container)
	}
	if multiplier <= 0 {
		multiplier = DefaultViewportMultiplier
	}
	if backRows < 0 {
		backRows = viewport.Rows(container, itemExtent) / 2
	}
	return &OffsetStrategy{
		itemExtent: itemExtent,
		container:  container,
		multiplier: multiplier,
		backRows:   backRows,
	}, nil
}

func (s *OffsetStrategy) Kind() Kind { return KindOffset }

// PlanFetch emits a single {offset, limit} request covering the desired
// range plus the backward buffer, sized to multiplier screenfuls.
func (s *OffsetStrategy) PlanFetch(desired viewport.Range) ([]model.FetchRequest, error) {
	if desired.Start < 0 {
		return nil, ErrNegativeRange
	}
	if desired.Empty() {
		return nil, nil
	}
	offset := desired.Start - s.backRows
	if offset < 0 {
		offset = 0
	}
	limit := viewport.Rows(s.container, s.itemExtent) * int64(s.multiplier)
	if need := desired.End - offset; need > limit {
		limit = need
	}
	return []model.FetchRequest{{
		Locator: model.Locator{Offset: offset},
		Size:    int(limit),
	}}, nil
}

// ApplyResponse unions the fetched window into the store. A window that
// starts before everything currently loaded merges as a prepend.
func (s *OffsetStrategy) ApplyResponse(st *window.Store, res Response) error {
	if res.Req.Offset < 0 {
		return fmt.Errorf("offset response missing locator: %s", res.Req)
	}
	mode := window.Append
	if span := st.LoadedSpan(); !span.Empty() && res.Req.Offset < span.Start {
		mode = window.Prepend
	}
	st.MergeFetchResult(res.Items, res.Meta, mode)
	return nil
}

func (s *OffsetStrategy) Abandon(model.FetchRequest) {}

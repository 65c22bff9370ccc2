package paginate

import (
	"fmt"

	"github.com/vanderheijden86/longlist/pkg/model"
	"github.com/vanderheijden86/longlist/pkg/viewport"
	"github.com/vanderheijden86/longlist/pkg/window"
)

// PageStrategy addresses the backend by 1-based page number. Pages are
// disjoint, so overlapping responses cannot occur and dedup is optional.
type PageStrategy struct {
	pageSize int
}

// NewPageStrategy creates a page-number strategy.
func NewPageStrategy(pageSize int) (*PageStrategy, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	return &PageStrategy{pageSize: pageSize}, nil
}

func (s *PageStrategy) Kind() Kind { return KindPage }

// PageSize returns the configured records-per-page.
func (s *PageStrategy) PageSize() int { return s.pageSize }

// PageFor returns the 1-based page number holding a virtual index.
func (s *PageStrategy) PageFor(index int64) int {
	return int(index/int64(s.pageSize)) + 1
}

// PlanFetch maps the desired range onto the covering set of page numbers,
// one request per page.
func (s *PageStrategy) PlanFetch(desired viewport.Range) ([]model.FetchRequest, error) {
	if desired.Start < 0 {
		return nil, ErrNegativeRange
	}
	if desired.Empty() {
		return nil, nil
	}
	first := s.PageFor(desired.Start)
	last := s.PageFor(desired.End - 1)
	reqs := make([]model.FetchRequest, 0, last-first+1)
	for p := first; p <= last; p++ {
		reqs = append(reqs, model.FetchRequest{
			Locator: model.Locator{Page: p, Offset: -1},
			Size:    s.pageSize,
		})
	}
	return reqs, nil
}

// ApplyResponse merges one page of records. Only the authoritative page of a
// jump replaces the collection; every other page appends.
func (s *PageStrategy) ApplyResponse(st *window.Store, res Response) error {
	if res.Req.Page <= 0 {
		return ErrNotPaged
	}
	mode := window.Append
	if res.Authoritative {
		mode = window.Replace
	}
	st.MergeFetchResult(res.Items, res.Meta, mode)
	return nil
}

func (s *PageStrategy) Abandon(model.FetchRequest) {}

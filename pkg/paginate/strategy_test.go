package paginate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vanderheijden86/longlist/pkg/model"
	"github.com/vanderheijden86/longlist/pkg/viewport"
	"github.com/vanderheijden86/longlist/pkg/window"
)

func items(ids ...int64) []model.Item {
	out := make([]model.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Item{ID: id, Title: fmt.Sprintf("record %d", id)})
	}
	return out
}

func TestParseKind(t *testing.T) {
	for _, good := range []string{"page", "offset", "cursor"} {
		if _, err := ParseKind(good); err != nil {
			t.Errorf("ParseKind(%q): %v", good, err)
		}
	}
	if k, err := ParseKind(""); err != nil || k != KindOffset {
		t.Errorf("empty kind should default to offset, got %q / %v", k, err)
	}
	if _, err := ParseKind("scroll"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestPagePlanFetch_JumpTarget(t *testing.T) {
	// pageSize=20, itemExtent=84, container=400: a jump to index 1000 must
	// plan page 51 for the core viewport rows.
	s, err := NewPageStrategy(20)
	if err != nil {
		t.Fatal(err)
	}

	win := viewport.WindowAround(1000, 400, 84, 0)
	reqs, err := s.PlanFetch(win)
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 1 {
		t.Fatalf("expected a single page for the core window, got %d: %v", len(reqs), reqs)
	}
	if reqs[0].Page != 51 || reqs[0].Size != 20 {
		t.Errorf("expected page=51 size=20, got %s", reqs[0])
	}
}

func TestPagePlanFetch_SpansPages(t *testing.T) {
	s, _ := NewPageStrategy(20)
	reqs, err := s.PlanFetch(viewport.Range{Start: 15, End: 45})
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 2, 3}
	if len(reqs) != len(want) {
		t.Fatalf("expected %d pages, got %d", len(want), len(reqs))
	}
	for i, p := range want {
		if reqs[i].Page != p {
			t.Errorf("request %d: expected page %d, got %d", i, p, reqs[i].Page)
		}
	}
}

func TestPagePlanFetch_NegativeRange(t *testing.T) {
	s, _ := NewPageStrategy(20)
	if _, err := s.PlanFetch(viewport.Range{Start: -5, End: 5}); !errors.Is(err, ErrNegativeRange) {
		t.Errorf("expected ErrNegativeRange, got %v", err)
	}
}

func TestPageApplyResponse_AuthoritativeReplaces(t *testing.T) {
	s, _ := NewPageStrategy(3)
	st := window.NewStore(false)
	st.MergeFetchResult(items(1, 2, 3), model.PageMeta{HasMore: true, Total: model.TotalUnknown}, window.Append)

	err := s.ApplyResponse(st, Response{
		Req:           model.FetchRequest{Locator: model.Locator{Page: 51, Offset: -1}, Size: 3},
		Items:         items(151, 152, 153),
		Meta:          model.PageMeta{HasMore: true, Total: model.TotalUnknown},
		Authoritative: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := st.Get(1); ok {
		t.Error("authoritative page response should replace the collection")
	}
	if _, ok := st.Get(151); !ok {
		t.Error("authoritative page records missing after replace")
	}

	// Non-authoritative pages append alongside.
	err = s.ApplyResponse(st, Response{
		Req:   model.FetchRequest{Locator: model.Locator{Page: 52, Offset: -1}, Size: 3},
		Items: items(154, 155, 156),
		Meta:  model.PageMeta{HasMore: true, Total: model.TotalUnknown},
	})
	if err != nil {
		t.Fatal(err)
	}
	if st.Count() != 6 {
		t.Errorf("expected 6 records after margin append, got %d", st.Count())
	}
}

func TestPageApplyResponse_WrongLocator(t *testing.T) {
	s, _ := NewPageStrategy(3)
	st := window.NewStore(false)
	err := s.ApplyResponse(st, Response{Req: model.FetchRequest{Locator: model.Locator{Offset: 10}}})
	if !errors.Is(err, ErrNotPaged) {
		t.Errorf("expected ErrNotPaged, got %v", err)
	}
}

func TestOffsetPlanFetch_FirstScreen(t *testing.T) {
	// container=400, itemExtent=84: 5 rows per screen. With the default
	// multiplier the first fetch at scroll 0 is {offset:0, limit:15}.
	s, err := NewOffsetStrategy(84, 400, 0, -1)
	if err != nil {
		t.Fatal(err)
	}
	reqs, err := s.PlanFetch(viewport.Range{Start: 0, End: 8})
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 1 {
		t.Fatalf("offset strategy must plan exactly one request, got %d", len(reqs))
	}
	if reqs[0].Offset != 0 {
		t.Errorf("expected offset 0, got %d", reqs[0].Offset)
	}
	if want := 5 * DefaultViewportMultiplier; reqs[0].Size != want {
		t.Errorf("expected limit %d, got %d", want, reqs[0].Size)
	}
}

func TestOffsetPlanFetch_BackBuffer(t *testing.T) {
	s, _ := NewOffsetStrategy(84, 400, 3, 2)
	reqs, err := s.PlanFetch(viewport.Range{Start: 100, End: 108})
	if err != nil {
		t.Fatal(err)
	}
	if reqs[0].Offset != 98 {
		t.Errorf("expected back-buffered offset 98, got %d", reqs[0].Offset)
	}
}

func TestOffsetPlanFetch_WideRangeExtendsLimit(t *testing.T) {
	s, _ := NewOffsetStrategy(84, 400, 3, 0)
	reqs, err := s.PlanFetch(viewport.Range{Start: 0, End: 100})
	if err != nil {
		t.Fatal(err)
	}
	if reqs[0].Size < 100 {
		t.Errorf("limit %d does not cover the desired range", reqs[0].Size)
	}
}

func TestOffsetApplyResponse_PrependBeforeSpan(t *testing.T) {
	s, _ := NewOffsetStrategy(84, 400, 3, -1)
	st := window.NewStore(false)
	st.MergeFetchResult(items(101, 102), model.PageMeta{HasMore: true, Total: model.TotalUnknown}, window.Append)

	err := s.ApplyResponse(st, Response{
		Req:   model.FetchRequest{Locator: model.Locator{Offset: 90}, Size: 10},
		Items: items(91, 92),
		Meta:  model.PageMeta{HasMore: true, Total: model.TotalUnknown},
	})
	if err != nil {
		t.Fatal(err)
	}
	if st.Count() != 4 {
		t.Errorf("expected 4 records after backward merge, got %d", st.Count())
	}
}

func TestCursorPlanFetch_Serializes(t *testing.T) {
	s, err := NewCursorStrategy(25)
	if err != nil {
		t.Fatal(err)
	}

	reqs, err := s.PlanFetch(viewport.Range{Start: 0, End: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 1 || reqs[0].Cursor != "" || reqs[0].Size != 25 {
		t.Fatalf("unexpected initial cursor plan: %v", reqs)
	}

	// A second plan while the first is outstanding is an invariant violation.
	if _, err := s.PlanFetch(viewport.Range{Start: 10, End: 20}); !errors.Is(err, ErrCursorOutstanding) {
		t.Errorf("expected ErrCursorOutstanding, got %v", err)
	}

	// Applying the response releases the slot and advances the cursor.
	st := window.NewStore(true)
	err = s.ApplyResponse(st, Response{
		Req:   reqs[0],
		Items: items(1, 2, 3),
		Meta:  model.PageMeta{Cursor: "abc", HasMore: true, Total: model.TotalUnknown},
	})
	if err != nil {
		t.Fatal(err)
	}
	reqs, err = s.PlanFetch(viewport.Range{Start: 3, End: 13})
	if err != nil {
		t.Fatal(err)
	}
	if reqs[0].Cursor != "abc" {
		t.Errorf("expected plan to consume cursor abc, got %q", reqs[0].Cursor)
	}
}

func TestCursorAbandonReleasesSlot(t *testing.T) {
	s, _ := NewCursorStrategy(25)
	reqs, err := s.PlanFetch(viewport.Range{Start: 0, End: 10})
	if err != nil {
		t.Fatal(err)
	}
	s.Abandon(reqs[0])
	if _, err := s.PlanFetch(viewport.Range{Start: 0, End: 10}); err != nil {
		t.Errorf("plan after abandon should succeed, got %v", err)
	}
	if s.Cursor() != "" {
		t.Errorf("failed fetch must not advance the cursor, got %q", s.Cursor())
	}
}

func TestCursorDedupOnOverlap(t *testing.T) {
	s, _ := NewCursorStrategy(3)
	st := window.NewStore(true)

	reqs, _ := s.PlanFetch(viewport.Range{Start: 0, End: 3})
	_ = s.ApplyResponse(st, Response{Req: reqs[0], Items: items(1, 2, 3),
		Meta: model.PageMeta{Cursor: "c1", HasMore: true, Total: model.TotalUnknown}})

	// A retried batch overlapping the previous one must not duplicate ids.
	reqs, _ = s.PlanFetch(viewport.Range{Start: 3, End: 6})
	_ = s.ApplyResponse(st, Response{Req: reqs[0], Items: items(3, 4, 5),
		Meta: model.PageMeta{Cursor: "c2", HasMore: true, Total: model.TotalUnknown}})

	if st.Count() != 5 {
		t.Errorf("expected 5 unique records, got %d", st.Count())
	}
}

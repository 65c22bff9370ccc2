package testutil

import (
	"testing"

	"github.com/vanderheijden86/longlist/pkg/model"
	"github.com/vanderheijden86/longlist/pkg/viewport"
)

// AssertRange verifies an index range.
func AssertRange(t *testing.T, got, want viewport.Range) {
	t.Helper()
	if got != want {
		t.Errorf("expected range [%d,%d), got [%d,%d)", want.Start, want.End, got.Start, got.End)
	}
}

// AssertItemCount verifies the expected number of items.
func AssertItemCount(t *testing.T, items []model.Item, expected int) {
	t.Helper()
	if len(items) != expected {
		t.Errorf("expected %d items, got %d", expected, len(items))
	}
}

// AssertNoDuplicateIDs verifies all item ids are unique.
func AssertNoDuplicateIDs(t *testing.T, items []model.Item) {
	t.Helper()
	seen := make(map[int64]bool)
	for _, it := range items {
		if seen[it.ID] {
			t.Errorf("duplicate item ID: %d", it.ID)
		}
		seen[it.ID] = true
	}
}

// AssertContiguous verifies items carry consecutive ids starting from the
// first item's id.
func AssertContiguous(t *testing.T, items []model.Item) {
	t.Helper()
	if len(items) == 0 {
		return
	}
	base := items[0].ID
	for i, it := range items {
		if it.ID != base+int64(i) {
			t.Errorf("item %d: expected id %d, got %d", i, base+int64(i), it.ID)
			return
		}
	}
}

// AssertAllReal verifies no item in the slice is a placeholder.
func AssertAllReal(t *testing.T, items []model.Item) {
	t.Helper()
	for _, it := range items {
		if it.Placeholder {
			t.Errorf("unexpected placeholder at id %d", it.ID)
		}
	}
}

// AssertPlaceholderAt verifies the item at position i is a placeholder whose
// id matches the virtual index it stands in for.
func AssertPlaceholderAt(t *testing.T, items []model.Item, i int, index int64) {
	t.Helper()
	if i >= len(items) {
		t.Fatalf("slice has %d items, no position %d", len(items), i)
	}
	it := items[i]
	if !it.Placeholder {
		t.Errorf("expected placeholder at position %d, got real item %d", i, it.ID)
	}
	if it.ID != index+1 {
		t.Errorf("placeholder at position %d carries id %d, expected %d", i, it.ID, index+1)
	}
}

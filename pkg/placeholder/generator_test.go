package placeholder

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/longlist/pkg/model"
)

func TestGenerateCarriesRealID(t *testing.T) {
	g := NewGenerator()
	for _, index := range []int64{0, 1, 999, 123456} {
		it := g.Generate(index)
		if it.ID != index+1 {
			t.Errorf("placeholder for index %d: expected id %d, got %d", index, index+1, it.ID)
		}
		if !IsPlaceholder(it) {
			t.Errorf("generated item for index %d not marked placeholder", index)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	g := NewGenerator()
	g.Observe([]model.Item{
		{ID: 1, Title: "Quarterly report", Subtitle: "finance", Ref: "ana@example.com"},
		{ID: 2, Title: "Board minutes", Subtitle: "ops", Ref: "bob@example.com"},
	})
	a := g.Generate(7)
	b := g.Generate(7)
	if a != b {
		t.Errorf("same index, same cache: expected identical placeholders\n a=%+v\n b=%+v", a, b)
	}
}

func TestGeneratePatternMatchesSamples(t *testing.T) {
	g := NewGenerator()
	g.Observe([]model.Item{
		{ID: 1, Title: "Quarterly report", Subtitle: "finance", Ref: "ana@example.com"},
	})

	it := g.Generate(3)
	// Word shape of the sampled title survives masking.
	if len([]rune(it.Title)) != len([]rune("Quarterly report")) {
		t.Errorf("masked title length mismatch: %q", it.Title)
	}
	if !strings.Contains(it.Title, " ") {
		t.Errorf("masked title lost word boundaries: %q", it.Title)
	}
	if !strings.HasSuffix(it.Ref, "@example.com") {
		t.Errorf("placeholder ref lost identifier domain: %q", it.Ref)
	}
}

func TestObserveCapsAndSkipsSynthetic(t *testing.T) {
	g := NewGenerator()
	var batch []model.Item
	for i := int64(1); i <= 30; i++ {
		batch = append(batch, model.Item{ID: i, Title: "t"})
	}
	batch = append(batch, model.Item{ID: 99, Placeholder: true})
	g.Observe(batch)
	if got := g.SampleCount(); got != 10 {
		t.Errorf("expected pattern cache capped at 10, got %d", got)
	}
}

func TestReconcileRoundTrip(t *testing.T) {
	g := NewGenerator()
	visible := []model.Item{g.Generate(0), g.Generate(1), g.Generate(2)}

	real := model.Item{ID: 2, Title: "Board minutes"}
	visible = g.Reconcile(visible, []model.Item{real})

	if IsPlaceholder(visible[1]) {
		t.Error("placeholder with matching id not replaced")
	}
	if visible[1].Title != "Board minutes" {
		t.Errorf("unexpected replacement content: %+v", visible[1])
	}
	if !IsPlaceholder(visible[0]) || !IsPlaceholder(visible[2]) {
		t.Error("non-matching placeholders must be left alone")
	}
}

func TestReconcileIdempotent(t *testing.T) {
	g := NewGenerator()
	visible := []model.Item{g.Generate(0), g.Generate(1)}

	// No fresh items: strict no-op.
	before := make([]model.Item, len(visible))
	copy(before, visible)
	visible = g.Reconcile(visible, nil)
	for i := range visible {
		if visible[i] != before[i] {
			t.Fatalf("reconcile with empty batch changed slot %d", i)
		}
	}

	// Applying the same batch twice must not double-replace.
	real := []model.Item{{ID: 1, Title: "Real one"}}
	visible = g.Reconcile(visible, real)
	once := visible[0]
	visible = g.Reconcile(visible, real)
	if visible[0] != once {
		t.Error("second reconcile with the same batch changed the slot")
	}
}

func TestReconcileIgnoresSyntheticFresh(t *testing.T) {
	g := NewGenerator()
	visible := []model.Item{g.Generate(0)}
	visible = g.Reconcile(visible, []model.Item{{ID: 1, Placeholder: true}})
	if !IsPlaceholder(visible[0]) {
		t.Error("a placeholder must never replace a placeholder")
	}
}

func TestErrorFor(t *testing.T) {
	it := ErrorFor(41)
	if it.ID != 42 || !it.Err || !IsPlaceholder(it) {
		t.Errorf("unexpected error placeholder: %+v", it)
	}
}

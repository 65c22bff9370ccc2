// Package placeholder synthesizes deterministic stand-in records for indices
// whose real data is still in flight, so the viewport never renders empty
// space. A placeholder carries the same id its real record will eventually
// have; swapping one for the other is pure content replacement and never
// moves anything.
package placeholder

import (
	"strings"
	"sync"
	"unicode"

	"github.com/vanderheijden86/longlist/pkg/model"
)

// sampleLimit caps the pattern cache at the first real items observed.
const sampleLimit = 10

// maskRune replaces every visible rune of sampled text.
const maskRune = '░'

// Generator produces placeholders shaped like the data already seen: word
// lengths are sampled from real titles and subtitles, and the reference
// field keeps its domain part. Each engine owns its own Generator; the cache
// is instance state, never package state.
type Generator struct {
	mu      sync.RWMutex
	samples []model.Item
	domain  string
}

// NewGenerator creates a generator with an empty pattern cache. Before any
// real data arrives it falls back to a fixed neutral pattern.
func NewGenerator() *Generator {
	return &Generator{}
}

// Observe feeds real items into the pattern cache. Only the first few
// distinct real items are kept; re-observing is cheap and may run on every
// merge. Placeholders and error records are ignored.
func (g *Generator) Observe(items []model.Item) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, it := range items {
		if it.Placeholder || it.Err || it.ID <= 0 {
			continue
		}
		if len(g.samples) >= sampleLimit {
			break
		}
		g.samples = append(g.samples, it)
		if g.domain == "" {
			if at := strings.LastIndexByte(it.Ref, '@'); at >= 0 && at < len(it.Ref)-1 {
				g.domain = it.Ref[at+1:]
			}
		}
	}
}

// SampleCount returns how many real items the pattern cache holds.
func (g *Generator) SampleCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.samples)
}

// Generate synthesizes the placeholder for a virtual index. Deterministic:
// the same index against the same pattern cache yields the same record.
func (g *Generator) Generate(index int64) model.Item {
	if index < 0 {
		return model.Item{Placeholder: true}
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	it := model.Item{
		ID:          index + 1,
		Placeholder: true,
	}
	if len(g.samples) == 0 {
		it.Title = strings.Repeat(string(maskRune), 12)
		it.Subtitle = strings.Repeat(string(maskRune), 8)
		return it
	}
	sample := g.samples[int(index)%len(g.samples)]
	it.Title = maskText(sample.Title)
	it.Subtitle = maskText(sample.Subtitle)
	if g.domain != "" {
		it.Ref = strings.Repeat(string(maskRune), 4) + "@" + g.domain
	}
	return it
}

// ErrorFor synthesizes the placeholder substituted when the caller's
// transform rejects a raw record.
func ErrorFor(index int64) model.Item {
	return model.Item{
		ID:          index + 1,
		Title:       "(unreadable record)",
		Placeholder: true,
		Err:         true,
	}
}

// IsPlaceholder reports whether an item is synthetic.
func IsPlaceholder(it model.Item) bool {
	return it.Placeholder
}

// Reconcile swaps placeholders in visible for freshly merged real records
// with the same id, in place, and returns the slice. Idempotent: fresh
// batches with no matching ids change nothing, and re-applying the same
// batch is a no-op.
func (g *Generator) Reconcile(visible []model.Item, fresh []model.Item) []model.Item {
	if len(visible) == 0 || len(fresh) == 0 {
		return visible
	}
	byID := make(map[int64]model.Item, len(fresh))
	for _, it := range fresh {
		if !it.Placeholder && it.ID > 0 {
			byID[it.ID] = it
		}
	}
	if len(byID) == 0 {
		return visible
	}
	for i, it := range visible {
		if !it.Placeholder {
			continue
		}
		if real, ok := byID[it.ID]; ok {
			visible[i] = real
		}
	}
	return visible
}

// maskText replaces every non-space rune with the mask rune, preserving word
// shape so placeholder rows occupy realistic width.
func maskText(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(maskRune)
		}
	}
	return b.String()
}

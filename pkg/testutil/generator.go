// Package testutil provides deterministic record fixtures and shared
// assertions for list-engine tests. All generators produce identical output
// for a given seed so failures reproduce exactly.
package testutil

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vanderheijden86/longlist/pkg/model"
)

// GeneratorConfig controls record generation.
type GeneratorConfig struct {
	Seed    int64    // Random seed for determinism (0 = use current time)
	Domains []string // Reference domains to cycle through
	Words   []string // Title vocabulary
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:    42, // Deterministic
		Domains: []string{"example.com", "example.org", "example.net"},
		Words: []string{
			"alpha", "bravo", "charlie", "delta", "echo", "foxtrot",
			"golf", "hotel", "india", "juliet", "kilo", "lima",
		},
	}
}

// Generator creates record fixtures.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if len(cfg.Domains) == 0 {
		cfg.Domains = DefaultConfig().Domains
	}
	if len(cfg.Words) == 0 {
		cfg.Words = DefaultConfig().Words
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Records produces n raw records with dense 1-based ids, randomized titles,
// and references cycling through the configured domains.
func (g *Generator) Records(n int) []model.RawItem {
	records := make([]model.RawItem, n)
	for i := range records {
		words := 2 + g.rng.Intn(3)
		parts := make([]string, words)
		for w := range parts {
			parts[w] = g.cfg.Words[g.rng.Intn(len(g.cfg.Words))]
		}
		domain := g.cfg.Domains[i%len(g.cfg.Domains)]
		records[i] = model.RawItem{
			ID:       fmt.Sprintf("%d", i+1),
			Title:    strings.Join(parts, " "),
			Subtitle: fmt.Sprintf("entry %d", i+1),
			Ref:      fmt.Sprintf("user%d@%s", i+1, domain),
		}
	}
	return records
}

// Items produces n transformed items with dense 1-based ids.
func (g *Generator) Items(n int) []model.Item {
	raw := g.Records(n)
	items := make([]model.Item, n)
	for i, r := range raw {
		it, err := model.DefaultTransform(r)
		if err != nil {
			panic(err) // generator ids are always parseable
		}
		items[i] = it
	}
	return items
}

// WriteJSONL writes records as a JSONL file under a temp directory and
// returns its path.
func WriteJSONL(t *testing.T, records []model.RawItem) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.jsonl")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating fixture file: %v", err)
	}
	defer f.Close()
	for _, r := range records {
		line, err := r.MarshalJSONL()
		if err != nil {
			t.Fatalf("encoding fixture record: %v", err)
		}
		if _, err := f.Write(append(line, '\n')); err != nil {
			t.Fatalf("writing fixture record: %v", err)
		}
	}
	return path
}

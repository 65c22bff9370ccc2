package datasource

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name string, content []byte, mod time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}
	if !mod.IsZero() {
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestDiscover_FindsAndValidatesSources(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	writeFile(t, dir, "records.db", []byte("SQLite format 3\x00garbage"), now.Add(-time.Hour))
	writeFile(t, dir, "records.jsonl", []byte(`{"id":"1","title":"x"}`+"\n"), now)
	writeFile(t, dir, "records.backup.jsonl", []byte(`{"id":"1"}`+"\n"), now)
	writeFile(t, dir, "notes.txt", []byte("ignore me"), now)

	sources, err := Discover(DiscoveryOptions{DataDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d: %v", len(sources), sources)
	}
	// Freshest first.
	if sources[0].Type != SourceTypeJSONL {
		t.Errorf("expected freshest source first, got %s", sources[0].Type)
	}
}

func TestDiscover_RejectsInvalidSources(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "records.db", []byte("definitely not sqlite"), time.Time{})
	writeFile(t, dir, "records.jsonl", []byte("not json at all\n"), time.Time{})

	sources, err := Discover(DiscoveryOptions{DataDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 0 {
		t.Errorf("expected no valid sources, got %d", len(sources))
	}

	all, err := Discover(DiscoveryOptions{DataDir: dir, IncludeInvalid: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 invalid sources with IncludeInvalid, got %d", len(all))
	}
	for _, s := range all {
		if s.Valid {
			t.Errorf("expected %s to be invalid", s.Path)
		}
		if s.ValidationError == "" {
			t.Errorf("expected a validation error for %s", s.Path)
		}
	}
}

func TestSelectBest_PrefersSQLiteOnTie(t *testing.T) {
	dir := t.TempDir()
	mod := time.Now().Truncate(time.Second)

	writeFile(t, dir, "records.db", []byte("SQLite format 3\x00"), mod)
	writeFile(t, dir, "records.jsonl", []byte(`{"id":"1","title":"x"}`+"\n"), mod)

	sources, err := Discover(DiscoveryOptions{DataDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	best, err := SelectBest(sources)
	if err != nil {
		t.Fatal(err)
	}
	if best.Type != SourceTypeSQLite {
		t.Errorf("expected SQLite to win the freshness tie, got %s", best.Type)
	}
}

func TestSelectBest_NoValidSources(t *testing.T) {
	if _, err := SelectBest(nil); err == nil {
		t.Error("expected an error for an empty source list")
	}
}

func TestValidate_EmptyJSONLIsValid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "records.jsonl", nil, time.Time{})

	sources, err := Discover(DiscoveryOptions{DataDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 1 || !sources[0].Valid {
		t.Errorf("expected an empty JSONL file to be a valid source, got %v", sources)
	}
}

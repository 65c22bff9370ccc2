package transport

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/longlist/pkg/model"
)

func createTestDB(t *testing.T, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE records (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		subtitle TEXT,
		ref TEXT
	)`); err != nil {
		t.Fatal(err)
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatal(err)
	}
	stmt, err := tx.Prepare("INSERT INTO records (id, title, subtitle, ref) VALUES (?, ?, ?, ?)")
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= n; i++ {
		if _, err := stmt.Exec(i, fmt.Sprintf("record %d", i), nil, fmt.Sprintf("user%d@example.com", i)); err != nil {
			t.Fatal(err)
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSQLiteTransport_OffsetRead(t *testing.T) {
	path := createTestDB(t, 100)

	tr, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Close()

	page, err := tr.Read(context.Background(), model.FetchRequest{
		Locator: model.Locator{Offset: 40},
		Size:    10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 10 {
		t.Fatalf("expected 10 items, got %d", len(page.Items))
	}
	if page.Items[0].ID != "41" {
		t.Errorf("expected first item id 41, got %s", page.Items[0].ID)
	}
	if page.Meta.Total != 100 {
		t.Errorf("expected authoritative total 100, got %d", page.Meta.Total)
	}
	if !page.Meta.HasMore {
		t.Error("expected HasMore")
	}
}

func TestSQLiteTransport_PageRead(t *testing.T) {
	path := createTestDB(t, 100)

	tr, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Close()

	page, err := tr.Read(context.Background(), model.FetchRequest{
		Locator: model.Locator{Page: 5},
		Size:    20,
	})
	if err != nil {
		t.Fatal(err)
	}
	if page.Items[0].ID != "81" {
		t.Errorf("expected page 5 to start at id 81, got %s", page.Items[0].ID)
	}
	if page.Meta.HasMore {
		t.Error("expected HasMore false on last page")
	}
}

func TestSQLiteTransport_CursorRead(t *testing.T) {
	path := createTestDB(t, 50)

	tr, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Close()

	ctx := context.Background()

	first, err := tr.Read(ctx, model.FetchRequest{Size: 20})
	if err != nil {
		t.Fatal(err)
	}
	if first.Meta.Cursor != "20" {
		t.Fatalf("expected cursor 20, got %q", first.Meta.Cursor)
	}

	second, err := tr.Read(ctx, model.FetchRequest{
		Locator: model.Locator{Cursor: first.Meta.Cursor},
		Size:    20,
	})
	if err != nil {
		t.Fatal(err)
	}
	if second.Items[0].ID != "21" {
		t.Errorf("expected keyset continuation at id 21, got %s", second.Items[0].ID)
	}
}

func TestSQLiteTransport_RefreshTotal(t *testing.T) {
	path := createTestDB(t, 10)

	tr, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Close()

	// Insert more rows through a second connection.
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("INSERT INTO records (id, title) VALUES (11, 'record 11')"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	total, err := tr.RefreshTotal(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if total != 11 {
		t.Errorf("expected refreshed total 11, got %d", total)
	}
}

func TestSQLiteTransport_ReadPastEnd(t *testing.T) {
	path := createTestDB(t, 100)

	tr, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Close()

	page, err := tr.Read(context.Background(), model.FetchRequest{
		Locator: model.Locator{Offset: 100},
		Size:    10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 0 {
		t.Fatalf("expected no items past the end, got %d", len(page.Items))
	}
	if page.Meta.HasMore {
		t.Error("expected HasMore false for a read past the last record")
	}
	if page.Meta.Cursor != "" {
		t.Errorf("expected no continuation cursor, got %q", page.Meta.Cursor)
	}
}

func TestSQLiteTransport_EmptyTable(t *testing.T) {
	path := createTestDB(t, 0)

	tr, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Close()

	page, err := tr.Read(context.Background(), model.FetchRequest{Size: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 0 {
		t.Errorf("expected no items, got %d", len(page.Items))
	}
	if page.Meta.Total != 0 {
		t.Errorf("expected total 0, got %d", page.Meta.Total)
	}
	if page.Meta.HasMore {
		t.Error("expected HasMore false for empty table")
	}
}

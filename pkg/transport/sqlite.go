package transport

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/longlist/pkg/model"
)

// SQLiteTransport reads records from a SQLite database in read-only mode.
// The backing table is `records(id INTEGER PRIMARY KEY, title, subtitle,
// ref)`; ids are dense and 1-based, which keeps page and offset math exact.
type SQLiteTransport struct {
	db   *sql.DB
	path string

	mu    sync.Mutex
	total int64
}

// OpenSQLite opens a records database for reading.
func OpenSQLite(path string) (*SQLiteTransport, error) {
	// Open in read-only mode with various pragmas for read performance
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Set pragmas for read performance
	pragmas := []string{
		"PRAGMA cache_size = -64000",   // 64MB cache
		"PRAGMA mmap_size = 268435456", // 256MB mmap
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			// Non-fatal, just log
		}
	}

	t := &SQLiteTransport{db: db, path: path, total: model.TotalUnknown}
	if _, err := t.RefreshTotal(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return t, nil
}

// Read executes one planned fetch against the records table. Cursor requests
// use keyset pagination on the primary key; page and offset requests use
// LIMIT/OFFSET, which SQLite resolves off the rowid index.
func (t *SQLiteTransport) Read(ctx context.Context, req model.FetchRequest) (model.Page, error) {
	if t.db == nil {
		return model.Page{}, ErrClosed
	}

	var (
		rows *sql.Rows
		err  error
	)
	const cols = "id, title, subtitle, ref"
	switch {
	case req.Cursor != "":
		afterID, perr := strconv.ParseInt(req.Cursor, 10, 64)
		if perr != nil || afterID < 0 {
			return model.Page{}, fmt.Errorf("%w: %q", ErrBadCursor, req.Cursor)
		}
		rows, err = t.db.QueryContext(ctx,
			"SELECT "+cols+" FROM records WHERE id > ? ORDER BY id LIMIT ?",
			afterID, req.Size)
	case req.Page > 0:
		offset := int64(req.Page-1) * int64(req.Size)
		rows, err = t.db.QueryContext(ctx,
			"SELECT "+cols+" FROM records ORDER BY id LIMIT ? OFFSET ?",
			req.Size, offset)
	default:
		offset := req.Offset
		if offset < 0 {
			offset = 0
		}
		rows, err = t.db.QueryContext(ctx,
			"SELECT "+cols+" FROM records ORDER BY id LIMIT ? OFFSET ?",
			req.Size, offset)
	}
	if err != nil {
		return model.Page{}, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var (
		items  []model.RawItem
		lastID int64
	)
	for rows.Next() {
		var (
			id            int64
			title         string
			subtitle, ref sql.NullString
		)
		if err := rows.Scan(&id, &title, &subtitle, &ref); err != nil {
			continue
		}
		item := model.RawItem{
			ID:    strconv.FormatInt(id, 10),
			Title: title,
		}
		if subtitle.Valid {
			item.Subtitle = subtitle.String
		}
		if ref.Valid {
			item.Ref = ref.String
		}
		items = append(items, item)
		lastID = id
	}
	if err := rows.Err(); err != nil {
		return model.Page{}, fmt.Errorf("error iterating records: %w", err)
	}

	t.mu.Lock()
	total := t.total
	t.mu.Unlock()

	page := model.Page{
		Items: items,
		Meta:  model.PageMeta{Total: total},
	}
	switch {
	case len(items) == 0:
		// An empty read is past the end of the table; nothing follows it.
		page.Meta.HasMore = false
	case total >= 0:
		page.Meta.HasMore = lastID < total
	default:
		page.Meta.HasMore = len(items) == req.Size
	}
	if page.Meta.HasMore && lastID > 0 {
		page.Meta.Cursor = strconv.FormatInt(lastID, 10)
	}
	return page, nil
}

// RefreshTotal re-counts the records table. Called at open and whenever the
// database file changes on disk.
func (t *SQLiteTransport) RefreshTotal(ctx context.Context) (int64, error) {
	var count int64
	err := t.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	t.mu.Lock()
	t.total = count
	t.mu.Unlock()
	return count, nil
}

// Path returns the database file path.
func (t *SQLiteTransport) Path() string {
	return t.path
}

// Close closes the database connection.
func (t *SQLiteTransport) Close() error {
	if t.db != nil {
		err := t.db.Close()
		t.db = nil
		return err
	}
	return nil
}

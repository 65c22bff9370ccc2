package transport

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/longlist/pkg/debug"
	"github.com/vanderheijden86/longlist/pkg/model"
	"github.com/vanderheijden86/longlist/pkg/watcher"
)

// DefaultMaxLineBytes bounds a single JSONL line. Longer lines are skipped
// with a warning rather than failing the whole load.
const DefaultMaxLineBytes = 10 * 1024 * 1024

// JSONLTransport serves records from a newline-delimited JSON file. The file
// is parsed once into memory and re-parsed whenever it changes on disk; reads
// are then slice lookups, so every locator kind is cheap.
type JSONLTransport struct {
	path string

	mu      sync.RWMutex
	records []model.RawItem
	closed  bool

	w       *watcher.Watcher
	changed chan struct{}
	warn    func(string)
}

// OpenJSONL parses the file at path and starts watching it for changes.
func OpenJSONL(path string) (*JSONLTransport, error) {
	t := &JSONLTransport{
		path:    path,
		changed: make(chan struct{}, 1),
		warn: func(msg string) {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
		},
	}
	if err := t.reload(); err != nil {
		return nil, err
	}

	w, err := watcher.New(path, watcher.WithOnChange(t.onFileChange))
	if err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", path, err)
	}
	if err := w.Start(); err != nil {
		return nil, err
	}
	t.w = w
	return t, nil
}

// Changed signals that the backing file was rewritten and the record set may
// have grown or shrunk. Callers should treat any cached total as stale.
func (t *JSONLTransport) Changed() <-chan struct{} {
	return t.changed
}

func (t *JSONLTransport) onFileChange() {
	if err := t.reload(); err != nil {
		debug.Log("jsonl reload failed: %v", err)
		return
	}
	select {
	case t.changed <- struct{}{}:
	default:
	}
}

func (t *JSONLTransport) reload() error {
	f, err := os.Open(t.path)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", t.path, err)
	}
	defer f.Close()

	records, err := parseRecords(f, t.warn)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.records = records
	t.mu.Unlock()
	debug.Log("jsonl loaded %d records from %s", len(records), t.path)
	return nil
}

// parseRecords reads one JSON object per line. Malformed and over-long lines
// are skipped with a warning so one bad record cannot hide the rest.
func parseRecords(r io.Reader, warn func(string)) ([]model.RawItem, error) {
	reader := bufio.NewReaderSize(r, DefaultMaxLineBytes)

	var records []model.RawItem
	lineNum := 0
	for {
		lineNum++
		line, isPrefix, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading records at line %d: %w", lineNum, err)
		}

		if isPrefix {
			warn(fmt.Sprintf("skipping line %d: line too long (exceeds %d bytes)", lineNum, DefaultMaxLineBytes))
			for isPrefix {
				_, isPrefix, err = reader.ReadLine()
				if err == io.EOF {
					break
				}
				if err != nil {
					return nil, fmt.Errorf("error skipping long line at line %d: %w", lineNum, err)
				}
			}
			continue
		}

		if len(line) == 0 {
			continue
		}
		if lineNum == 1 {
			line = bytes.TrimPrefix(line, []byte{0xEF, 0xBB, 0xBF})
		}

		var record model.RawItem
		if err := json.Unmarshal(line, &record); err != nil {
			warn(fmt.Sprintf("skipping malformed JSON on line %d: %v", lineNum, err))
			continue
		}
		if record.ID == "" {
			warn(fmt.Sprintf("skipping record on line %d: missing id", lineNum))
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// Read resolves the request against the in-memory record set.
func (t *JSONLTransport) Read(ctx context.Context, req model.FetchRequest) (model.Page, error) {
	if err := ctx.Err(); err != nil {
		return model.Page{}, err
	}

	start, err := resolveStart(req)
	if err != nil {
		return model.Page{}, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return model.Page{}, ErrClosed
	}

	total := int64(len(t.records))
	if start > total {
		start = total
	}
	end := start + int64(req.Size)
	if end > total {
		end = total
	}

	page := model.Page{
		Items: append([]model.RawItem(nil), t.records[start:end]...),
		Meta: model.PageMeta{
			HasMore: end < total,
			Total:   total,
		},
	}
	if page.Meta.HasMore {
		page.Meta.Cursor = strconv.FormatInt(end, 10)
	}
	return page, nil
}

// Path returns the watched file path.
func (t *JSONLTransport) Path() string {
	return t.path
}

// Close stops the watcher and drops the record set.
func (t *JSONLTransport) Close() error {
	if t.w != nil {
		t.w.Stop()
	}
	t.mu.Lock()
	t.closed = true
	t.records = nil
	t.mu.Unlock()
	return nil
}

package transport

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/vanderheijden86/longlist/pkg/model"
)

// MemoryTransport serves records from an in-memory slice. It backs the demo
// binary's generated dataset and the engine tests, where its latency and
// failure knobs script backend behavior.
type MemoryTransport struct {
	mu      sync.Mutex
	records []model.RawItem
	closed  bool

	// Latency is added to every read before the records are consulted.
	Latency time.Duration
	// ReportTotal controls whether responses carry the authoritative count.
	ReportTotal bool
	// FailNext makes the next n reads fail with FailErr.
	FailNext int
	// FailErr is the error returned by scripted failures.
	FailErr error

	reads []model.FetchRequest
}

// NewMemoryTransport wraps the given records. The slice is not copied; tests
// that mutate it must do so before the first read.
func NewMemoryTransport(records []model.RawItem) *MemoryTransport {
	return &MemoryTransport{
		records:     records,
		ReportTotal: true,
	}
}

// Read resolves the request against the record slice. Page, cursor, and
// offset locators are all honored so one fixture serves every strategy.
func (m *MemoryTransport) Read(ctx context.Context, req model.FetchRequest) (model.Page, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return model.Page{}, ErrClosed
	}
	m.reads = append(m.reads, req)
	if m.FailNext > 0 {
		m.FailNext--
		err := m.FailErr
		m.mu.Unlock()
		if err == nil {
			err = fmt.Errorf("scripted read failure for %s", req)
		}
		return model.Page{}, err
	}
	latency := m.Latency
	m.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return model.Page{}, ctx.Err()
		}
	}

	start, err := resolveStart(req)
	if err != nil {
		return model.Page{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	total := int64(len(m.records))
	if start > total {
		start = total
	}
	end := start + int64(req.Size)
	if end > total {
		end = total
	}

	page := model.Page{
		Items: append([]model.RawItem(nil), m.records[start:end]...),
		Meta: model.PageMeta{
			HasMore: end < total,
			Total:   model.TotalUnknown,
		},
	}
	if page.Meta.HasMore {
		page.Meta.Cursor = strconv.FormatInt(end, 10)
	}
	if m.ReportTotal {
		page.Meta.Total = total
	}
	return page, nil
}

// resolveStart maps any locator kind onto an absolute record offset. Shared
// by the in-memory and JSONL transports, which both serve from a slice.
func resolveStart(req model.FetchRequest) (int64, error) {
	switch {
	case req.Page > 0:
		return int64(req.Page-1) * int64(req.Size), nil
	case req.Cursor != "":
		start, err := strconv.ParseInt(req.Cursor, 10, 64)
		if err != nil || start < 0 {
			return 0, fmt.Errorf("%w: %q", ErrBadCursor, req.Cursor)
		}
		return start, nil
	case req.Offset >= 0:
		return req.Offset, nil
	default:
		return 0, nil
	}
}

// Reads returns a copy of every request seen so far, in order.
func (m *MemoryTransport) Reads() []model.FetchRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.FetchRequest(nil), m.reads...)
}

// Len reports the number of records held.
func (m *MemoryTransport) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Close marks the transport closed.
func (m *MemoryTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

package model

import "fmt"

// TotalUnknown marks a PageMeta whose backend did not report a total.
const TotalUnknown int64 = -1

// Locator addresses a remote range in whichever coordinate system the active
// pagination strategy uses. Exactly one of Page, Cursor, or Offset is
// meaningful per request.
type Locator struct {
	// Page is a 1-based page number; 0 when the strategy does not page.
	Page int
	// Cursor is an opaque continuation token; empty when unused.
	Cursor string
	// Offset is an absolute record offset; negative when unused.
	Offset int64
}

// FetchRequest is a planned remote read. Only pagination strategies construct
// these; coordinators pass them through to the transport untouched.
type FetchRequest struct {
	Locator
	// Size is the number of records requested.
	Size int
}

func (r FetchRequest) String() string {
	switch {
	case r.Page > 0:
		return fmt.Sprintf("page=%d size=%d", r.Page, r.Size)
	case r.Cursor != "":
		return fmt.Sprintf("cursor=%s size=%d", r.Cursor, r.Size)
	case r.Offset >= 0:
		return fmt.Sprintf("offset=%d size=%d", r.Offset, r.Size)
	default:
		return fmt.Sprintf("initial size=%d", r.Size)
	}
}

// PageMeta carries the transport's pagination metadata for one response.
type PageMeta struct {
	// Cursor is the continuation token for the next fetch, if any.
	Cursor string
	// HasMore reports whether records exist past the returned ones.
	HasMore bool
	// Total is the authoritative total record count, or TotalUnknown.
	Total int64
}

// Page is one transport response: raw records plus pagination metadata.
type Page struct {
	Items []RawItem
	Meta  PageMeta
}

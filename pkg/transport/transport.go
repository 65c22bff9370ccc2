// Package transport provides the backends a window engine fetches records
// from. Every backend serves the same read contract: given a planned fetch
// request, return the matching raw records plus pagination metadata. Backends
// never interpret scroll state; that stays in the engine.
package transport

import (
	"context"
	"errors"

	"github.com/vanderheijden86/longlist/pkg/model"
)

var (
	// ErrClosed is returned by reads against a closed transport.
	ErrClosed = errors.New("transport is closed")
	// ErrBadCursor is returned when a continuation token cannot be decoded.
	ErrBadCursor = errors.New("malformed continuation cursor")
)

// Transport reads record ranges from a backend. Implementations must be safe
// for concurrent use: the engine issues parallel reads during jumps.
type Transport interface {
	// Read executes one planned fetch. The returned page may be shorter than
	// req.Size when the backend runs out of records; that is not an error.
	Read(ctx context.Context, req model.FetchRequest) (model.Page, error)

	// Close releases backend resources. Reads after Close return ErrClosed.
	Close() error
}

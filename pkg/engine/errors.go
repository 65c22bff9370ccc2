package engine

import (
	"errors"
	"fmt"

	"github.com/vanderheijden86/longlist/pkg/model"
)

var (
	// ErrNegativeIndex rejects jump targets below zero. Returned synchronously
	// before any state is touched.
	ErrNegativeIndex = errors.New("engine: negative jump target")
	// ErrClosed is returned by operations on a closed engine.
	ErrClosed = errors.New("engine: closed")
)

// TransportError wraps a failed remote read. Stored items and the last known
// hasMore flag are untouched when one is returned; the engine never retries.
type TransportError struct {
	Req model.FetchRequest
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport read failed (%s): %v", e.Req, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TransformError marks a single record the caller's transform could not
// convert. The record is dropped from the merge and rendered as an error
// placeholder; the rest of its batch is unaffected.
type TransformError struct {
	RawID string
	Err   error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform failed for record %q: %v", e.RawID, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

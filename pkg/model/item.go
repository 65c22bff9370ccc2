// Package model defines the record types shared between transports, the
// pagination strategies, and the window engine.
package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Item is a single record as held by the window store. IDs are stable and
// totally ordered: the record at virtual index i carries ID i+1, which is
// what lets a placeholder stand in for a real record without any positional
// remapping once the real one arrives.
type Item struct {
	ID          int64
	Title       string
	Subtitle    string
	Ref         string
	Placeholder bool
	Err         bool
}

// Index returns the virtual index this item occupies.
func (it Item) Index() int64 {
	return it.ID - 1
}

// RawItem is a record as produced by a transport, before the caller's
// transform has run. The wire shape is shared by the JSONL and SQLite
// transports.
type RawItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Ref      string `json:"ref,omitempty"`
}

// Transform converts a fetched raw record into an Item. Supplied by the
// caller at engine construction; must be pure. The engine wraps every
// invocation so a panic or error is isolated to the offending record.
type Transform func(RawItem) (Item, error)

// DefaultTransform parses the raw ID as a decimal integer and copies the
// remaining fields verbatim.
func DefaultTransform(raw RawItem) (Item, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw.ID), 10, 64)
	if err != nil {
		return Item{}, fmt.Errorf("parsing record id %q: %w", raw.ID, err)
	}
	if id <= 0 {
		return Item{}, fmt.Errorf("record id %q out of range", raw.ID)
	}
	return Item{
		ID:       id,
		Title:    raw.Title,
		Subtitle: raw.Subtitle,
		Ref:      raw.Ref,
	}, nil
}

// MarshalJSONL encodes a raw item as a single JSONL line.
func (r RawItem) MarshalJSONL() ([]byte, error) {
	return json.Marshal(r)
}

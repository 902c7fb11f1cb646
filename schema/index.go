// Package schema maps (block, column) positions of an EV5 record layout to
// named fields.
//
// The nested block -> field -> column definition is flattened once into an
// arena of entries with a composite-key index, so resolving a token costs a
// single map lookup.
package schema

import (
	"sort"
	"strings"

	ev "github.com/uvacab/ev5validator"
)

// Entry describes one field of a block.
type Entry struct {
	Block     string `json:"block"`
	Field     string `json:"field"`
	Column    int    `json:"column"`
	Validates bool   `json:"validates"`
}

type key struct {
	block  string
	column int
}

// Index is an immutable lookup from (block, column) to Entry.
// It is safe for concurrent use.
type Index struct {
	entries []Entry
	byKey   map[key]int
	blocks  map[string]int // block -> highest column
}

// New builds an Index from entries. Block and field names are trimmed.
// It fails with *ev.SchemaError when a name is empty, a column is negative,
// or a block repeats a column or a field name.
func New(entries []Entry) (*Index, error) {
	idx := &Index{
		entries: make([]Entry, 0, len(entries)),
		byKey:   make(map[key]int, len(entries)),
		blocks:  make(map[string]int),
	}

	fields := make(map[string]map[string]bool)
	for _, e := range entries {
		e.Block = strings.TrimSpace(e.Block)
		e.Field = strings.TrimSpace(e.Field)

		switch {
		case e.Block == "":
			return nil, &ev.SchemaError{Field: e.Field, Column: e.Column, Reason: "empty block name"}
		case e.Field == "":
			return nil, &ev.SchemaError{Block: e.Block, Column: e.Column, Reason: "empty field name"}
		case e.Column < 0:
			return nil, &ev.SchemaError{Block: e.Block, Field: e.Field, Column: e.Column, Reason: "negative column"}
		}

		k := key{block: e.Block, column: e.Column}
		if prev, ok := idx.byKey[k]; ok {
			return nil, &ev.SchemaError{
				Block:  e.Block,
				Field:  e.Field,
				Column: e.Column,
				Reason: "column already used by field " + idx.entries[prev].Field,
			}
		}
		if fields[e.Block] == nil {
			fields[e.Block] = make(map[string]bool)
		}
		if fields[e.Block][e.Field] {
			return nil, &ev.SchemaError{Block: e.Block, Field: e.Field, Column: e.Column, Reason: "duplicate field"}
		}
		fields[e.Block][e.Field] = true

		idx.byKey[k] = len(idx.entries)
		idx.entries = append(idx.entries, e)
		if maxCol, ok := idx.blocks[e.Block]; !ok || e.Column > maxCol {
			idx.blocks[e.Block] = e.Column
		}
	}

	if len(idx.entries) == 0 {
		return nil, &ev.SchemaError{Reason: "no fields defined"}
	}
	return idx, nil
}

// FieldDef is the definition of one field inside a block.
type FieldDef struct {
	Column   int
	Validate bool
}

// FromMap builds an Index from a nested block -> field -> definition mapping.
func FromMap(def map[string]map[string]FieldDef) (*Index, error) {
	blocks := make([]string, 0, len(def))
	for b := range def {
		blocks = append(blocks, b)
	}
	sort.Strings(blocks)

	var entries []Entry
	for _, b := range blocks {
		names := make([]string, 0, len(def[b]))
		for f := range def[b] {
			names = append(names, f)
		}
		sort.Strings(names)
		for _, f := range names {
			fd := def[b][f]
			entries = append(entries, Entry{Block: b, Field: f, Column: fd.Column, Validates: fd.Validate})
		}
	}
	return New(entries)
}

// Resolve returns the entry at column of block.
func (i *Index) Resolve(block string, column int) (Entry, bool) {
	pos, ok := i.byKey[key{block: block, column: column}]
	if !ok {
		return Entry{}, false
	}
	return i.entries[pos], true
}

// HasBlock reports whether block is defined.
func (i *Index) HasBlock(block string) bool {
	_, ok := i.blocks[block]
	return ok
}

// Width returns the number of columns block spans (highest column + 1),
// or 0 for an unknown block.
func (i *Index) Width(block string) int {
	maxCol, ok := i.blocks[block]
	if !ok {
		return 0
	}
	return maxCol + 1
}

// Blocks returns the block names in sorted order.
func (i *Index) Blocks() []string {
	out := make([]string, 0, len(i.blocks))
	for b := range i.blocks {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// Entries returns all entries ordered by block, then column.
func (i *Index) Entries() []Entry {
	out := make([]Entry, len(i.entries))
	copy(out, i.entries)
	sort.Slice(out, func(a, b int) bool {
		if out[a].Block != out[b].Block {
			return out[a].Block < out[b].Block
		}
		return out[a].Column < out[b].Column
	})
	return out
}

// Len returns the number of entries.
func (i *Index) Len() int {
	return len(i.entries)
}

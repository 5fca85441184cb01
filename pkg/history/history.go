// Package history keeps a linear undo/redo log of immutable snapshots.
//
// Log values are themselves immutable: every mutating method returns a new
// Log and leaves the receiver untouched, so historical Log values may be
// retained and shared freely.
package history

import (
	"slices"
)

// Entry pairs a snapshot with the kind of the action that produced it.
type Entry[T any] struct {
	Kind     string
	Snapshot T
}

// IgnoreSet lists action kinds that are never recorded.
type IgnoreSet map[string]struct{}

// NewIgnoreSet builds an IgnoreSet from kinds.
func NewIgnoreSet(kinds ...string) IgnoreSet {
	set := make(IgnoreSet, len(kinds))
	for _, kind := range kinds {
		set[kind] = struct{}{}
	}
	return set
}

// Has reports whether kind is ignored.
func (s IgnoreSet) Has(kind string) bool {
	_, ok := s[kind]
	return ok
}

// With returns a copy of the set extended with kinds.
func (s IgnoreSet) With(kinds ...string) IgnoreSet {
	out := make(IgnoreSet, len(s)+len(kinds))
	for kind := range s {
		out[kind] = struct{}{}
	}
	for _, kind := range kinds {
		out[kind] = struct{}{}
	}
	return out
}

// Log is an ordered sequence of entries plus a cursor.
type Log[T any] struct {
	entries []Entry[T]
	cursor  int
	ignore  IgnoreSet
	limit   int
}

// Option configures a Log.
type Option func(*config)

type config struct {
	ignore IgnoreSet
	limit  int
}

// WithIgnore configures the action kinds that Record skips.
func WithIgnore(set IgnoreSet) Option {
	return func(cfg *config) {
		cfg.ignore = set.With()
	}
}

// WithLimit caps the number of retained entries. The oldest entries are
// dropped first. Zero or negative means unbounded.
func WithLimit(limit int) Option {
	return func(cfg *config) {
		cfg.limit = limit
	}
}

// New starts a log whose only entry is initial.
func New[T any](kind string, initial T, opts ...Option) Log[T] {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return Log[T]{
		entries: []Entry[T]{{Kind: kind, Snapshot: initial}},
		ignore:  cfg.ignore,
		limit:   cfg.limit,
	}
}

// Ignores reports whether kind is configured as ignored.
func (l Log[T]) Ignores(kind string) bool {
	return l.ignore.Has(kind)
}

// Record appends snapshot unless kind is ignored. Entries after the cursor
// are discarded first; the log never branches.
func (l Log[T]) Record(kind string, snapshot T) Log[T] {
	if l.ignore.Has(kind) {
		return l
	}
	var kept []Entry[T]
	if len(l.entries) > 0 {
		kept = slices.Clip(l.entries[:l.cursor+1])
	}
	entries := append(kept, Entry[T]{Kind: kind, Snapshot: snapshot})
	if l.limit > 0 && len(entries) > l.limit {
		entries = slices.Clone(entries[len(entries)-l.limit:])
	}
	next := l
	next.entries = entries
	next.cursor = len(entries) - 1
	return next
}

// Undo moves the cursor back one position. It reports false and returns the
// receiver unchanged when there is nothing to undo.
func (l Log[T]) Undo() (Log[T], Entry[T], bool) {
	if !l.HasUndo() {
		var zero Entry[T]
		return l, zero, false
	}
	next := l
	next.cursor--
	return next, next.entries[next.cursor], true
}

// Redo moves the cursor forward one position. It reports false and returns
// the receiver unchanged at the tail.
func (l Log[T]) Redo() (Log[T], Entry[T], bool) {
	if !l.HasRedo() {
		var zero Entry[T]
		return l, zero, false
	}
	next := l
	next.cursor++
	return next, next.entries[next.cursor], true
}

// HasUndo reports whether Undo would move the cursor.
func (l Log[T]) HasUndo() bool {
	return l.cursor > 0
}

// HasRedo reports whether Redo would move the cursor.
func (l Log[T]) HasRedo() bool {
	return l.cursor < len(l.entries)-1
}

// Current returns the entry at the cursor.
func (l Log[T]) Current() (Entry[T], bool) {
	if len(l.entries) == 0 {
		var zero Entry[T]
		return zero, false
	}
	return l.entries[l.cursor], true
}

// Len returns the number of retained entries.
func (l Log[T]) Len() int {
	return len(l.entries)
}

// Cursor returns the cursor position.
func (l Log[T]) Cursor() int {
	return l.cursor
}

// Entries returns a copy of the retained entries.
func (l Log[T]) Entries() []Entry[T] {
	return slices.Clone(l.entries)
}

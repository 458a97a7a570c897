package core

import "slices"

// ResultList is the ordered, deduplicated list of identified items, newest
// first. It is not safe for concurrent use; Session guards it.
type ResultList struct {
	entries []ResultEntry
	seen    map[string]struct{}
}

// NewResultList returns an empty list.
func NewResultList() *ResultList {
	return &ResultList{seen: make(map[string]struct{})}
}

// Add inserts e at the front unless its barcode is already listed. It
// reports whether the list changed.
func (l *ResultList) Add(e ResultEntry) bool {
	if _, ok := l.seen[e.Barcode]; ok {
		return false
	}
	l.seen[e.Barcode] = struct{}{}
	l.entries = slices.Insert(l.entries, 0, e)
	return true
}

func (l *ResultList) Contains(barcode string) bool {
	_, ok := l.seen[barcode]
	return ok
}

// Entries returns a copy, newest first. The slice is never nil.
func (l *ResultList) Entries() []ResultEntry {
	out := make([]ResultEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *ResultList) Len() int { return len(l.entries) }

// Clear removes every entry.
func (l *ResultList) Clear() {
	l.entries = nil
	clear(l.seen)
}

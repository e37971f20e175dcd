// Package slides maps detected references onto presentation slide positions.
// Each presentation holds one book, one slide per verse, ordered by chapter
// then verse, so a reference resolves to a zero-based slide index by summing
// the verse counts of all preceding chapters.
package slides

import (
	"sync"

	"github.com/FocuswithJustin/VerseFinder/core/books"
)

// Entry binds a book to the presentation that carries its verses. The verse
// counts govern index arithmetic and normally come from the canonical table,
// not from counting slides in the deck.
type Entry struct {
	BookCode           string
	PresentationID     string
	ChapterVerseCounts []int
}

// Position is a resolved slide location.
type Position struct {
	PresentationID string
	SlideIndex     int // zero-based
}

// Map is the mutable registry of book-to-presentation bindings. Reads and
// writes may come from different goroutines: lookups happen on the detection
// path while the library indexer rebuilds entries.
type Map struct {
	mu             sync.RWMutex
	table          *books.Table
	byBook         map[string]Entry
	byPresentation map[string]Entry
}

// NewMap builds an empty map. The table is a read-only handle used to turn
// book codes back into display names for labels.
func NewMap(table *books.Table) *Map {
	return &Map{
		table:          table,
		byBook:         make(map[string]Entry),
		byPresentation: make(map[string]Entry),
	}
}

// Register inserts or replaces the entry for its book. Entries with no book
// code, no presentation ID, or no verse counts are ignored.
func (m *Map) Register(e Entry) {
	if e.BookCode == "" || e.PresentationID == "" || len(e.ChapterVerseCounts) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.byBook[e.BookCode]; ok {
		delete(m.byPresentation, old.PresentationID)
	}
	m.byBook[e.BookCode] = e
	m.byPresentation[e.PresentationID] = e
}

// ReplaceAll swaps the full entry set in one step. The library indexer uses
// this after a rebuild so lookups never observe a half-built map.
func (m *Map) ReplaceAll(entries []Entry) {
	byBook := make(map[string]Entry, len(entries))
	byPresentation := make(map[string]Entry, len(entries))
	for _, e := range entries {
		if e.BookCode == "" || e.PresentationID == "" || len(e.ChapterVerseCounts) == 0 {
			continue
		}
		byBook[e.BookCode] = e
		byPresentation[e.PresentationID] = e
	}
	m.mu.Lock()
	m.byBook = byBook
	m.byPresentation = byPresentation
	m.mu.Unlock()
}

// Len returns the number of registered books.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byBook)
}

// Lookup resolves a reference to its slide position. It fails when the book
// has no registered presentation or the chapter or verse falls outside the
// entry's verse counts.
func (m *Map) Lookup(ref books.Reference) (Position, bool) {
	m.mu.RLock()
	e, ok := m.byBook[ref.BookCode]
	m.mu.RUnlock()
	if !ok {
		return Position{}, false
	}
	if ref.Chapter < 1 || ref.Chapter > len(e.ChapterVerseCounts) {
		return Position{}, false
	}
	if ref.VerseStart < 1 || ref.VerseStart > e.ChapterVerseCounts[ref.Chapter-1] {
		return Position{}, false
	}
	index := 0
	for _, n := range e.ChapterVerseCounts[:ref.Chapter-1] {
		index += n
	}
	return Position{
		PresentationID: e.PresentationID,
		SlideIndex:     index + ref.VerseStart - 1,
	}, true
}

// LabelFor is the inverse of Lookup: given a presentation and slide index it
// returns a display label such as "John 3:16". It fails for unknown
// presentations and out-of-range indexes.
func (m *Map) LabelFor(presentationID string, slideIndex int) (string, bool) {
	m.mu.RLock()
	e, ok := m.byPresentation[presentationID]
	m.mu.RUnlock()
	if !ok || slideIndex < 0 {
		return "", false
	}
	remaining := slideIndex
	for i, n := range e.ChapterVerseCounts {
		if remaining < n {
			ref := books.Reference{
				BookCode:   e.BookCode,
				BookName:   m.displayName(e.BookCode),
				Chapter:    i + 1,
				VerseStart: remaining + 1,
			}
			return ref.String(), true
		}
		remaining -= n
	}
	return "", false
}

func (m *Map) displayName(code string) string {
	if b, ok := m.table.Lookup(code); ok {
		return b.Name
	}
	return code
}

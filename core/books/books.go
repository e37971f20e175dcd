// Package books provides the canonical Bible book table: every book's code,
// display name, aliases, and per-chapter verse counts. The table is built
// once at startup and never mutated; every other detection component takes a
// read-only handle to it.
package books

import (
	"fmt"
	"strings"
)

// Book is an immutable record for a single book.
type Book struct {
	Code               string   // short canonical identifier, unique (OSIS style)
	Name               string   // canonical display name
	Aliases            []string // alternate spellings, abbreviations, common mis-transcriptions
	ChapterVerseCounts []int    // verse count per chapter, index 0 = chapter 1
}

// ChapterCount returns the number of chapters in the book.
func (b *Book) ChapterCount() int {
	return len(b.ChapterVerseCounts)
}

// VerseCount returns the number of verses in the given 1-based chapter,
// or 0 if the chapter is out of range.
func (b *Book) VerseCount(chapter int) int {
	if chapter < 1 || chapter > len(b.ChapterVerseCounts) {
		return 0
	}
	return b.ChapterVerseCounts[chapter-1]
}

// Table is the read-only index over the book list. Every lower-cased name,
// code, and alias maps to its book; ties are broken by first registration.
type Table struct {
	books []*Book
	index map[string]*Book
}

// NewTable builds a table from the given book list. Books with no chapter
// verse counts are skipped; an empty or nil list yields an empty table whose
// lookups all fail, never a panic.
func NewTable(list []*Book) *Table {
	t := &Table{index: make(map[string]*Book)}
	for _, b := range list {
		if b == nil || len(b.ChapterVerseCounts) == 0 {
			continue
		}
		t.books = append(t.books, b)
		t.register(b.Name, b)
		t.register(b.Code, b)
		for _, a := range b.Aliases {
			t.register(a, b)
		}
	}
	return t
}

func (t *Table) register(key string, b *Book) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return
	}
	if _, exists := t.index[key]; !exists {
		t.index[key] = b
	}
}

// Lookup resolves a name, code, or alias case-insensitively.
func (t *Table) Lookup(name string) (*Book, bool) {
	b, ok := t.index[strings.ToLower(strings.TrimSpace(name))]
	return b, ok
}

// Books returns the books in canonical order. The returned slice is shared;
// callers must not modify it.
func (t *Table) Books() []*Book {
	return t.books
}

// Len returns the number of books in the table.
func (t *Table) Len() int {
	return len(t.books)
}

// Reference identifies a passage: book, chapter, and verse or verse range.
// VerseEnd of 0 means a single verse.
type Reference struct {
	BookCode   string
	BookName   string
	Chapter    int
	VerseStart int
	VerseEnd   int
}

// String returns the canonical display form, "John 3:16" or "John 3:16-18".
func (r Reference) String() string {
	if r.VerseEnd > 0 {
		return fmt.Sprintf("%s %d:%d-%d", r.BookName, r.Chapter, r.VerseStart, r.VerseEnd)
	}
	return fmt.Sprintf("%s %d:%d", r.BookName, r.Chapter, r.VerseStart)
}

// ValidIn reports whether the reference falls inside the table's bounds:
// known book, chapter within the book, and verse(s) within the chapter.
func (r Reference) ValidIn(t *Table) bool {
	b, ok := t.Lookup(r.BookCode)
	if !ok {
		return false
	}
	if r.Chapter < 1 || r.Chapter > b.ChapterCount() {
		return false
	}
	max := b.VerseCount(r.Chapter)
	if r.VerseStart < 1 || r.VerseStart > max {
		return false
	}
	if r.VerseEnd != 0 && (r.VerseEnd < r.VerseStart || r.VerseEnd > max) {
		return false
	}
	return true
}

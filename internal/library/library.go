// Package library indexes the presentation library manifest: which slide
// deck carries which book. Parsed entries feed the slide map that turns
// detected references into slide positions.
package library

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/VerseFinder/core/books"
	"github.com/FocuswithJustin/VerseFinder/core/match"
	"github.com/FocuswithJustin/VerseFinder/core/slides"
	"github.com/FocuswithJustin/VerseFinder/internal/logging"
)

// ErrEmptyManifest is returned when the manifest holds no presentations.
var ErrEmptyManifest = errors.New("library: manifest contains no presentations")

// presentationQuery selects presentation entries anywhere in the manifest.
var presentationQuery = xpath.MustCompile("//presentation")

// Presentation is one indexed deck.
type Presentation struct {
	ID          string
	DisplayName string
	BookCode    string
	Edition     string
}

// Stats summarizes one indexing pass.
type Stats struct {
	Presentations int  // entries seen in the manifest
	Matched       int  // entries resolved to a book and registered
	Skipped       bool // manifest unchanged since the last pass
}

// Indexer parses library manifests and publishes book-to-deck bindings into
// the slide map. Rebuilds swap the whole map at once, so concurrent lookups
// never see a partial index.
type Indexer struct {
	table    *books.Table
	matcher  *match.Matcher
	slideMap *slides.Map

	mu            sync.Mutex
	fingerprint   string
	presentations []Presentation
}

// NewIndexer builds an indexer over the given table and slide map.
func NewIndexer(table *books.Table, matcher *match.Matcher, slideMap *slides.Map) *Indexer {
	return &Indexer{
		table:    table,
		matcher:  matcher,
		slideMap: slideMap,
	}
}

// IndexFile reads and indexes a manifest file.
func (ix *Indexer) IndexFile(path string) (Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Stats{}, fmt.Errorf("reading manifest: %w", err)
	}
	return ix.Index(data)
}

// Index parses the manifest and replaces the slide map's entries. A manifest
// byte-identical to the previous pass is skipped. Entries whose display name
// cannot be parsed or resolved to a book are logged and dropped; the pass
// fails only when the manifest is malformed XML or names no presentations.
func (ix *Indexer) Index(manifest []byte) (Stats, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	sum := blake3.Sum256(manifest)
	fp := hex.EncodeToString(sum[:])
	if fp == ix.fingerprint {
		logging.LibraryIndex("unchanged", len(ix.presentations))
		return Stats{Presentations: len(ix.presentations), Matched: len(ix.presentations), Skipped: true}, nil
	}

	doc, err := xmlquery.Parse(bytes.NewReader(manifest))
	if err != nil {
		return Stats{}, fmt.Errorf("parsing manifest: %w", err)
	}

	nodes := xmlquery.QuerySelectorAll(doc, presentationQuery)
	if len(nodes) == 0 {
		return Stats{}, ErrEmptyManifest
	}

	stats := Stats{Presentations: len(nodes)}
	var entries []slides.Entry
	var indexed []Presentation
	for _, n := range nodes {
		id := n.SelectAttr("id")
		name := n.SelectAttr("name")
		if name == "" {
			name = n.InnerText()
		}
		if id == "" || name == "" {
			logging.Warn("presentation entry missing id or name", "id", id, "name", name)
			continue
		}

		parsed, err := ParseDisplayName(name)
		if err != nil {
			logging.Warn("unparseable presentation name", "id", id, "name", name, "error", err)
			continue
		}
		book, ok := ix.matcher.Match(parsed.BookName())
		if !ok {
			logging.Warn("presentation name matches no book", "id", id, "name", name)
			continue
		}
		if c := parsed.Coverage; c != nil && c.ToChapter != book.ChapterCount() {
			logging.Warn("presentation coverage disagrees with canon",
				"id", id, "book", book.Code,
				"coverage_chapters", c.ToChapter, "canon_chapters", book.ChapterCount())
		}

		// Slide arithmetic always uses the canonical verse counts, not
		// whatever the deck title claims.
		entries = append(entries, slides.Entry{
			BookCode:           book.Code,
			PresentationID:     id,
			ChapterVerseCounts: book.ChapterVerseCounts,
		})
		indexed = append(indexed, Presentation{
			ID:          id,
			DisplayName: name,
			BookCode:    book.Code,
			Edition:     parsed.Edition,
		})
		stats.Matched++
	}

	ix.slideMap.ReplaceAll(entries)
	ix.fingerprint = fp
	ix.presentations = indexed
	logging.LibraryIndex("indexed", stats.Matched, "seen", stats.Presentations)
	return stats, nil
}

// Presentations returns the entries registered by the last indexing pass.
func (ix *Indexer) Presentations() []Presentation {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	out := make([]Presentation, len(ix.presentations))
	copy(out, ix.presentations)
	return out
}

package library

import (
	"errors"
	"testing"

	"github.com/FocuswithJustin/VerseFinder/core/books"
	"github.com/FocuswithJustin/VerseFinder/core/match"
	"github.com/FocuswithJustin/VerseFinder/core/slides"
)

func newTestIndexer() (*Indexer, *slides.Map) {
	table := books.NewTable(books.Canonical())
	slideMap := slides.NewMap(table)
	return NewIndexer(table, match.NewMatcher(table), slideMap), slideMap
}

const manifest = `<?xml version="1.0"?>
<library>
  <presentation id="deck-gen" name="Genesis 1_1-50_26 (KJV)"/>
  <presentation id="deck-john" name="John 1_1-21_25 (KJV)"/>
  <presentation id="deck-1cor" name="1 Corinthians 13_1-13_13 (NIV)"/>
  <presentation id="deck-jude" name="Jude 1_1-1_25 (KJV)"/>
</library>`

func TestIndex(t *testing.T) {
	ix, slideMap := newTestIndexer()

	stats, err := ix.Index([]byte(manifest))
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if stats.Presentations != 4 || stats.Matched != 4 || stats.Skipped {
		t.Fatalf("stats = %+v", stats)
	}

	pos, ok := slideMap.Lookup(books.Reference{BookCode: "John", Chapter: 3, VerseStart: 16})
	if !ok {
		t.Fatal("John not registered")
	}
	if pos.PresentationID != "deck-john" {
		t.Errorf("PresentationID = %q", pos.PresentationID)
	}

	// Registered counts come from the canon, so a title covering only
	// chapter 13 still resolves the whole book.
	pos, ok = slideMap.Lookup(books.Reference{BookCode: "1Cor", Chapter: 1, VerseStart: 1})
	if !ok {
		t.Fatal("1 Corinthians not registered")
	}
	if pos.SlideIndex != 0 {
		t.Errorf("SlideIndex = %d, want 0", pos.SlideIndex)
	}
}

func TestIndexSkipsUnchanged(t *testing.T) {
	ix, _ := newTestIndexer()

	if _, err := ix.Index([]byte(manifest)); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	stats, err := ix.Index([]byte(manifest))
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if !stats.Skipped {
		t.Error("unchanged manifest was re-indexed")
	}

	// A changed manifest indexes again.
	changed := `<library><presentation id="deck-rom" name="Romans 1_1-16_27 (KJV)"/></library>`
	stats, err = ix.Index([]byte(changed))
	if err != nil {
		t.Fatalf("changed pass: %v", err)
	}
	if stats.Skipped || stats.Matched != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestIndexReplacesStaleEntries(t *testing.T) {
	ix, slideMap := newTestIndexer()

	if _, err := ix.Index([]byte(manifest)); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	changed := `<library><presentation id="deck-rom" name="Romans 1_1-16_27 (KJV)"/></library>`
	if _, err := ix.Index([]byte(changed)); err != nil {
		t.Fatalf("second pass: %v", err)
	}

	if _, ok := slideMap.Lookup(books.Reference{BookCode: "John", Chapter: 3, VerseStart: 16}); ok {
		t.Error("stale entry survived rebuild")
	}
	if _, ok := slideMap.Lookup(books.Reference{BookCode: "Rom", Chapter: 8, VerseStart: 28}); !ok {
		t.Error("new entry missing after rebuild")
	}
}

func TestIndexDropsBadEntries(t *testing.T) {
	ix, slideMap := newTestIndexer()

	mixed := `<library>
  <presentation id="deck-gen" name="Genesis 1_1-50_26 (KJV)"/>
  <presentation id="" name="Exodus 1_1-40_38 (KJV)"/>
  <presentation id="deck-bad" name="12345"/>
  <presentation id="deck-unknown" name="Zorblax 1_1-2_2 (KJV)"/>
</library>`
	stats, err := ix.Index([]byte(mixed))
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if stats.Presentations != 4 || stats.Matched != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if slideMap.Len() != 1 {
		t.Errorf("slide map has %d entries, want 1", slideMap.Len())
	}
}

func TestIndexErrors(t *testing.T) {
	ix, _ := newTestIndexer()

	if _, err := ix.Index([]byte(`<library></library>`)); !errors.Is(err, ErrEmptyManifest) {
		t.Errorf("empty manifest error = %v", err)
	}
}

func TestIndexFileMissing(t *testing.T) {
	ix, _ := newTestIndexer()
	if _, err := ix.IndexFile("/no/such/manifest.xml"); err == nil {
		t.Error("missing file did not error")
	}
}

func TestPresentations(t *testing.T) {
	ix, _ := newTestIndexer()
	if _, err := ix.Index([]byte(manifest)); err != nil {
		t.Fatalf("Index: %v", err)
	}
	got := ix.Presentations()
	if len(got) != 4 {
		t.Fatalf("got %d presentations", len(got))
	}
	if got[0].BookCode != "Gen" || got[0].Edition != "KJV" {
		t.Errorf("first presentation = %+v", got[0])
	}
	if got[2].BookCode != "1Cor" || got[2].Edition != "NIV" {
		t.Errorf("third presentation = %+v", got[2])
	}
}

func TestParseDisplayName(t *testing.T) {
	tests := []struct {
		in       string
		book     string
		edition  string
		coverage bool
	}{
		{"Genesis 1_1-50_26 (KJV)", "Genesis", "KJV", true},
		{"1 Corinthians 13_1-13_13 (NIV)", "1 Corinthians", "NIV", true},
		{"Song of Songs 1_1-8_14 (KJV)", "Song of Songs", "KJV", true},
		{"Jude", "Jude", "", false},
		{"Psalms 1_1-150_6", "Psalms", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDisplayName(tt.in)
			if err != nil {
				t.Fatalf("ParseDisplayName: %v", err)
			}
			if d.BookName() != tt.book {
				t.Errorf("BookName = %q, want %q", d.BookName(), tt.book)
			}
			if d.Edition != tt.edition {
				t.Errorf("Edition = %q, want %q", d.Edition, tt.edition)
			}
			if (d.Coverage != nil) != tt.coverage {
				t.Errorf("Coverage present = %v, want %v", d.Coverage != nil, tt.coverage)
			}
		})
	}

	if _, err := ParseDisplayName("12345"); err == nil {
		t.Error("bare number parsed as display name")
	}
	if _, err := ParseDisplayName(""); err == nil {
		t.Error("empty name parsed")
	}
}

func TestCoverageCapture(t *testing.T) {
	d, err := ParseDisplayName("Genesis 1_1-50_26 (KJV)")
	if err != nil {
		t.Fatal(err)
	}
	c := d.Coverage
	if c.FromChapter != 1 || c.FromVerse != 1 || c.ToChapter != 50 || c.ToVerse != 26 {
		t.Errorf("coverage = %+v", c)
	}
}

package slides

import (
	"testing"

	"github.com/FocuswithJustin/VerseFinder/core/books"
)

func newTestMap() *Map {
	return NewMap(books.NewTable(books.Canonical()))
}

func ref(code, name string, chapter, verse int) books.Reference {
	return books.Reference{BookCode: code, BookName: name, Chapter: chapter, VerseStart: verse}
}

func TestLookup(t *testing.T) {
	m := newTestMap()
	m.Register(Entry{
		BookCode:           "Test",
		PresentationID:     "deck-1",
		ChapterVerseCounts: []int{10, 20, 30},
	})

	tests := []struct {
		name    string
		chapter int
		verse   int
		want    int
		ok      bool
	}{
		{"first verse", 1, 1, 0, true},
		{"last of chapter one", 1, 10, 9, true},
		{"first of chapter two", 2, 1, 10, true},
		{"mid chapter three", 3, 5, 34, true},
		{"last verse", 3, 30, 59, true},
		{"chapter out of range", 4, 1, 0, false},
		{"verse out of range", 1, 11, 0, false},
		{"zero chapter", 0, 1, 0, false},
		{"zero verse", 1, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, ok := m.Lookup(ref("Test", "Test", tt.chapter, tt.verse))
			if ok != tt.ok {
				t.Fatalf("Lookup ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if pos.PresentationID != "deck-1" {
				t.Errorf("PresentationID = %q", pos.PresentationID)
			}
			if pos.SlideIndex != tt.want {
				t.Errorf("SlideIndex = %d, want %d", pos.SlideIndex, tt.want)
			}
		})
	}
}

func TestLookupUnregisteredBook(t *testing.T) {
	m := newTestMap()
	if _, ok := m.Lookup(ref("John", "John", 3, 16)); ok {
		t.Error("lookup against empty map succeeded")
	}
}

func TestLookupCanonicalCounts(t *testing.T) {
	m := newTestMap()
	table := books.NewTable(books.Canonical())
	john, _ := table.Lookup("John")
	m.Register(Entry{
		BookCode:           john.Code,
		PresentationID:     "john-deck",
		ChapterVerseCounts: john.ChapterVerseCounts,
	})

	pos, ok := m.Lookup(ref("John", "John", 3, 16))
	if !ok {
		t.Fatal("lookup failed")
	}
	want := john.VerseCount(1) + john.VerseCount(2) + 15
	if pos.SlideIndex != want {
		t.Errorf("SlideIndex = %d, want %d", pos.SlideIndex, want)
	}
}

func TestLabelForRoundTrip(t *testing.T) {
	m := newTestMap()
	table := books.NewTable(books.Canonical())
	for _, code := range []string{"Gen", "John", "Jude"} {
		b, _ := table.Lookup(code)
		m.Register(Entry{
			BookCode:           b.Code,
			PresentationID:     "deck-" + b.Code,
			ChapterVerseCounts: b.ChapterVerseCounts,
		})
	}

	refs := []books.Reference{
		ref("Gen", "Genesis", 1, 1),
		ref("Gen", "Genesis", 50, 26),
		ref("John", "John", 3, 16),
		ref("Jude", "Jude", 1, 25),
	}
	for _, r := range refs {
		pos, ok := m.Lookup(r)
		if !ok {
			t.Fatalf("Lookup(%s) failed", r)
		}
		label, ok := m.LabelFor(pos.PresentationID, pos.SlideIndex)
		if !ok {
			t.Fatalf("LabelFor(%q, %d) failed", pos.PresentationID, pos.SlideIndex)
		}
		if label != r.String() {
			t.Errorf("round trip %s -> %q", r, label)
		}
	}
}

func TestLabelForOutOfRange(t *testing.T) {
	m := newTestMap()
	m.Register(Entry{
		BookCode:           "Test",
		PresentationID:     "deck-1",
		ChapterVerseCounts: []int{10, 20},
	})

	if _, ok := m.LabelFor("deck-1", -1); ok {
		t.Error("negative index succeeded")
	}
	if _, ok := m.LabelFor("deck-1", 30); ok {
		t.Error("index past last verse succeeded")
	}
	if _, ok := m.LabelFor("no-such-deck", 0); ok {
		t.Error("unknown presentation succeeded")
	}
}

func TestRegisterReplaces(t *testing.T) {
	m := newTestMap()
	m.Register(Entry{BookCode: "Test", PresentationID: "old", ChapterVerseCounts: []int{5}})
	m.Register(Entry{BookCode: "Test", PresentationID: "new", ChapterVerseCounts: []int{5}})

	pos, ok := m.Lookup(ref("Test", "Test", 1, 1))
	if !ok || pos.PresentationID != "new" {
		t.Fatalf("lookup after replace = %+v, %v", pos, ok)
	}
	if _, ok := m.LabelFor("old", 0); ok {
		t.Error("stale presentation binding survived replacement")
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
}

func TestRegisterIgnoresIncomplete(t *testing.T) {
	m := newTestMap()
	m.Register(Entry{BookCode: "", PresentationID: "deck", ChapterVerseCounts: []int{5}})
	m.Register(Entry{BookCode: "Test", PresentationID: "", ChapterVerseCounts: []int{5}})
	m.Register(Entry{BookCode: "Test", PresentationID: "deck", ChapterVerseCounts: nil})
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}
}

func TestReplaceAll(t *testing.T) {
	m := newTestMap()
	m.Register(Entry{BookCode: "Old", PresentationID: "old-deck", ChapterVerseCounts: []int{5}})

	m.ReplaceAll([]Entry{
		{BookCode: "Gen", PresentationID: "gen-deck", ChapterVerseCounts: []int{31, 25}},
		{BookCode: "John", PresentationID: "john-deck", ChapterVerseCounts: []int{51}},
	})

	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}
	if _, ok := m.Lookup(ref("Old", "Old", 1, 1)); ok {
		t.Error("pre-swap entry survived ReplaceAll")
	}
	if _, ok := m.Lookup(ref("Gen", "Genesis", 2, 25)); !ok {
		t.Error("swapped-in entry missing")
	}
}

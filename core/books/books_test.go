package books

import "testing"

func TestCanonical(t *testing.T) {
	list := Canonical()
	if len(list) != 66 {
		t.Fatalf("Canonical() returned %d books, want 66", len(list))
	}
	for _, b := range list {
		if b.Code == "" || b.Name == "" {
			t.Errorf("book %+v missing code or name", b)
		}
		if len(b.ChapterVerseCounts) == 0 {
			t.Errorf("book %s has no chapter verse counts", b.Code)
		}
		for i, c := range b.ChapterVerseCounts {
			if c < 1 {
				t.Errorf("book %s chapter %d has verse count %d", b.Code, i+1, c)
			}
		}
	}
}

func TestTableLookup(t *testing.T) {
	table := NewTable(Canonical())

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Genesis", "Gen", true},
		{"genesis", "Gen", true},
		{"GEN", "Gen", true},
		{"  John  ", "John", true},
		{"1 Corinthians", "1Cor", true},
		{"1cor", "1Cor", true},
		{"Revelations", "Rev", true},
		{"Mathew", "Matt", true},
		{"Psalm", "Ps", true},
		{"xyzzy", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			b, ok := table.Lookup(tt.in)
			if ok != tt.ok {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && b.Code != tt.want {
				t.Errorf("Lookup(%q) = %s, want %s", tt.in, b.Code, tt.want)
			}
		})
	}
}

func TestTableEmptyDataset(t *testing.T) {
	for _, table := range []*Table{NewTable(nil), NewTable([]*Book{})} {
		if table.Len() != 0 {
			t.Errorf("empty table has %d books", table.Len())
		}
		if _, ok := table.Lookup("Genesis"); ok {
			t.Error("Lookup succeeded on empty table")
		}
	}
}

func TestTableSkipsMalformedBooks(t *testing.T) {
	table := NewTable([]*Book{
		nil,
		{Code: "Bad", Name: "No Chapters"},
		{Code: "OK", Name: "Fine", ChapterVerseCounts: []int{5}},
	})
	if table.Len() != 1 {
		t.Fatalf("table has %d books, want 1", table.Len())
	}
	if _, ok := table.Lookup("No Chapters"); ok {
		t.Error("malformed book was indexed")
	}
}

func TestTableFirstRegistrationWins(t *testing.T) {
	table := NewTable([]*Book{
		{Code: "A", Name: "Shared", ChapterVerseCounts: []int{1}},
		{Code: "B", Name: "Shared", ChapterVerseCounts: []int{2}},
	})
	b, ok := table.Lookup("shared")
	if !ok || b.Code != "A" {
		t.Errorf("Lookup(shared) = %v, want book A", b)
	}
}

func TestReferenceString(t *testing.T) {
	single := Reference{BookCode: "John", BookName: "John", Chapter: 3, VerseStart: 16}
	if got := single.String(); got != "John 3:16" {
		t.Errorf("String() = %q, want %q", got, "John 3:16")
	}
	ranged := Reference{BookCode: "Rom", BookName: "Romans", Chapter: 8, VerseStart: 28, VerseEnd: 30}
	if got := ranged.String(); got != "Romans 8:28-30" {
		t.Errorf("String() = %q, want %q", got, "Romans 8:28-30")
	}
}

func TestReferenceValidIn(t *testing.T) {
	table := NewTable(Canonical())

	tests := []struct {
		name string
		ref  Reference
		want bool
	}{
		{"valid single", Reference{BookCode: "John", Chapter: 3, VerseStart: 16}, true},
		{"valid range", Reference{BookCode: "Rom", Chapter: 8, VerseStart: 28, VerseEnd: 30}, true},
		{"last verse", Reference{BookCode: "John", Chapter: 3, VerseStart: 36}, true},
		{"chapter too high", Reference{BookCode: "John", Chapter: 22, VerseStart: 1}, false},
		{"verse too high", Reference{BookCode: "John", Chapter: 3, VerseStart: 37}, false},
		{"zero chapter", Reference{BookCode: "John", Chapter: 0, VerseStart: 1}, false},
		{"zero verse", Reference{BookCode: "John", Chapter: 3, VerseStart: 0}, false},
		{"end before start", Reference{BookCode: "John", Chapter: 3, VerseStart: 16, VerseEnd: 2}, false},
		{"end too high", Reference{BookCode: "John", Chapter: 3, VerseStart: 16, VerseEnd: 99}, false},
		{"unknown book", Reference{BookCode: "Nope", Chapter: 1, VerseStart: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ref.ValidIn(table); got != tt.want {
				t.Errorf("ValidIn = %v, want %v", got, tt.want)
			}
		})
	}
}

// Package match locates and resolves Bible book names in transcript text.
// Resolution is layered: exact name/code/alias lookup, spoken ordinal prefix
// rewriting ("first john" -> "1 john"), and bounded edit-distance fuzzy
// matching to absorb transcription errors ("Revelation" heard as
// "Revelations", doubled letters) without an exhaustive alias list.
package match

import (
	"sort"
	"strings"

	"github.com/FocuswithJustin/VerseFinder/core/books"
)

// Occurrence is a located book name or alias within scanned text.
// Start and End are byte offsets, End exclusive. Text is the literal
// matched substring from the original input.
type Occurrence struct {
	Book  *books.Book
	Start int
	End   int
	Text  string
}

// Matcher scans text for book names and resolves candidate strings.
// Safe for concurrent use; it only reads the table it was built from.
type Matcher struct {
	table   *books.Table
	entries []entry
}

type entry struct {
	name string // lower-cased name or alias
	book *books.Book
}

// NewMatcher builds a matcher over the given table. Names and aliases are
// flattened into one list sorted by length descending, so "1 Corinthians"
// is tried before any shorter alias that it contains.
func NewMatcher(table *books.Table) *Matcher {
	m := &Matcher{table: table}
	for _, b := range table.Books() {
		m.entries = append(m.entries, entry{strings.ToLower(b.Name), b})
		for _, a := range b.Aliases {
			m.entries = append(m.entries, entry{strings.ToLower(a), b})
		}
	}
	sort.SliceStable(m.entries, func(i, j int) bool {
		return len(m.entries[i].name) > len(m.entries[j].name)
	})
	return m
}

// FindAllOccurrences returns every book name occurrence in text, ordered by
// position. Matches must sit on word boundaries (a possessive apostrophe
// directly after the name still counts); a span overlapping an already
// accepted longer match is dropped. Aliases shorter than 2 characters are
// ignored as noise.
func (m *Matcher) FindAllOccurrences(text string) []Occurrence {
	lower := lowerASCII(text)
	var found []Occurrence
	for _, e := range m.entries {
		if len(e.name) < 2 {
			continue
		}
		for idx := 0; idx < len(lower); {
			j := strings.Index(lower[idx:], e.name)
			if j < 0 {
				break
			}
			start := idx + j
			end := start + len(e.name)
			if !wordBoundary(lower, start, end) || overlaps(found, start, end) {
				idx = start + 1
				continue
			}
			found = append(found, Occurrence{Book: e.book, Start: start, End: end, Text: text[start:end]})
			idx = end
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Start < found[j].Start })
	return found
}

// wordBoundary reports whether [start,end) is delimited by non-word
// characters. An apostrophe after the name is a boundary, so "John's"
// still matches "John".
func wordBoundary(s string, start, end int) bool {
	if start > 0 && isWordByte(s[start-1]) {
		return false
	}
	if end < len(s) && isWordByte(s[end]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// lowerASCII lowercases only A-Z, byte for byte, so offsets into the result
// are valid offsets into the input. strings.ToLower can change byte lengths
// for non-ASCII runes, which would desync every later match span; book names
// and aliases are ASCII, so ASCII folding is all the scan needs.
func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

func overlaps(found []Occurrence, start, end int) bool {
	for _, o := range found {
		if start < o.End && end > o.Start {
			return true
		}
	}
	return false
}

// ordinalPrefixes maps spoken ordinal book prefixes to their numeral form.
var ordinalPrefixes = []struct{ spoken, numeral string }{
	{"first ", "1 "},
	{"second ", "2 "},
	{"third ", "3 "},
	{"1st ", "1 "},
	{"2nd ", "2 "},
	{"3rd ", "3 "},
}

// Match resolves a candidate book name. Resolution order: direct
// case-insensitive table lookup, ordinal prefix rewrite and retry, then
// fuzzy edit-distance matching. Returns ok=false when nothing is close
// enough.
func (m *Matcher) Match(name string) (*books.Book, bool) {
	n := strings.TrimSpace(name)
	if n == "" {
		return nil, false
	}
	if b, ok := m.table.Lookup(n); ok {
		return b, true
	}
	lower := strings.ToLower(n)
	for _, p := range ordinalPrefixes {
		if strings.HasPrefix(lower, p.spoken) {
			if b, ok := m.table.Lookup(p.numeral + lower[len(p.spoken):]); ok {
				return b, true
			}
		}
	}
	return m.fuzzyMatch(lower)
}

// fuzzyMatch scans every name and alias of at least 3 characters and returns
// the book with the smallest edit distance at or under a length-scaled
// threshold. Ties keep the first candidate encountered. This is a linear
// scan on purpose: exact lookup resolves almost everything, and the table
// is fixed at 66 books.
func (m *Matcher) fuzzyMatch(input string) (*books.Book, bool) {
	limit := distanceThreshold(len(input))
	var best *books.Book
	bestDist := limit + 1
	for _, b := range m.table.Books() {
		for _, cand := range append([]string{b.Name}, b.Aliases...) {
			cand = strings.ToLower(cand)
			if len(cand) < 3 {
				continue
			}
			if diff := len(cand) - len(input); diff > limit || -diff > limit {
				continue
			}
			if d := editDistance(input, cand); d < bestDist {
				bestDist = d
				best = b
			}
		}
	}
	if best == nil || bestDist > limit {
		return nil, false
	}
	return best, true
}

// distanceThreshold scales the allowed edit distance with input length.
func distanceThreshold(n int) int {
	switch {
	case n <= 5:
		return 1
	case n <= 10:
		return 2
	default:
		return 3
	}
}

// editDistance computes the Levenshtein distance between a and b with unit
// cost for insertions, deletions, and substitutions.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

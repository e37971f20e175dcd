// Package detect extracts validated Bible references from transcript text.
// It normalizes the spoken form, scans for book names, applies an ordered
// cascade of chapter/verse patterns after each occurrence, and validates
// every candidate against the canonical book table. Out-of-range numbers are
// never errors: speech recognition hallucinates numbers constantly, so an
// implausible candidate is simply not detected.
package detect

import (
	"regexp"
	"strconv"
	"time"

	"github.com/FocuswithJustin/VerseFinder/core/books"
	"github.com/FocuswithJustin/VerseFinder/core/match"
	"github.com/FocuswithJustin/VerseFinder/core/normalize"
)

// Confidence classifies how syntactically unambiguous a detection's source
// pattern was. Ordering is meaningful: High > Medium > Low.
type Confidence int

const (
	Low Confidence = iota
	Medium
	High
)

func (c Confidence) String() string {
	switch c {
	case High:
		return "high"
	case Medium:
		return "medium"
	default:
		return "low"
	}
}

// DetectedVerse is a single validated detection. Immutable; owned by the
// caller once returned.
type DetectedVerse struct {
	Reference  books.Reference
	Confidence Confidence
	DetectedAt time.Time
	SourceText string // the original, un-normalized input segment
}

// Detector runs the detection pipeline over a read-only book table.
// Detect calls share no mutable state and are safe to run concurrently.
type Detector struct {
	table   *books.Table
	matcher *match.Matcher

	// recentlyDetected predates the capture layer taking over cross-call
	// duplicate handling. It is retained for interface parity with Reset
	// but no longer consulted during detection.
	recentlyDetected map[string]time.Time
}

// NewDetector builds a detector over the given table.
func NewDetector(table *books.Table) *Detector {
	return &Detector{
		table:            table,
		matcher:          match.NewMatcher(table),
		recentlyDetected: make(map[string]time.Time),
	}
}

// Matcher returns the detector's book name matcher, shared with callers
// such as the presentation indexer.
func (d *Detector) Matcher() *match.Matcher {
	return d.matcher
}

// Reset clears detector state. Cross-call duplicate suppression now lives in
// the capture layer, so this is a compatibility stub.
func (d *Detector) Reset() {
	clear(d.recentlyDetected)
}

// The extraction cascade. Priority is load-bearing: colon beats comma beats
// "and" beats bare space, so this must stay a literal ordered list.
var cascade = []patternExtractor{
	{regexp.MustCompile(`^\s*(\d{1,3}):(\d{1,3})(?:-(\d{1,3}))?`), High, chapterVerse, false},
	{regexp.MustCompile(`^\s*(\d{1,3}),\s*(\d{1,3})(?:-(\d{1,3}))?`), Medium, chapterVerse, false},
	{regexp.MustCompile(`^\s*(\d{1,3}) and (\d{1,3})\b`), Medium, chapterVerse, false},
	{regexp.MustCompile(`^\s*(\d{1,3}) (\d{1,3}) and (\d{1,3})\b`), Medium, chapterVerse, false},
	{regexp.MustCompile(`^\s*(\d{1,3}) (\d{1,3})(?:-(\d{1,3}))?\b`), Medium, chapterVerse, false},
	// The trailing class keeps "2" in "2:1" from reading as a bare verse
	// number when the chapter part was already rejected.
	{regexp.MustCompile(`^\s*(\d{1,3})(?:[^0-9:]|$)`), High, singleChapterVerse, true},
}

type patternExtractor struct {
	re                *regexp.Regexp
	confidence        Confidence
	interpret         func(groups []string) (chapter, verseStart, verseEnd int)
	singleChapterOnly bool
}

// chapterVerse reads groups as chapter, verse start, optional verse end.
func chapterVerse(g []string) (int, int, int) {
	chapter := atoi(g[1])
	start := atoi(g[2])
	end := 0
	if len(g) > 3 && g[3] != "" {
		end = atoi(g[3])
	}
	return chapter, start, end
}

// singleChapterVerse reads a lone number as a verse in chapter 1; only
// applied to books with exactly one chapter.
func singleChapterVerse(g []string) (int, int, int) {
	return 1, atoi(g[1]), 0
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// fallbackPattern recovers references whose book word was close to, but not
// exactly, a known alias: a capitalized word sequence directly followed by
// chapter:verse[-verse], resolved through the fuzzy matcher.
var fallbackPattern = regexp.MustCompile(`\b([A-Z][A-Za-z]*(?: [A-Z][A-Za-z]*)*) (\d{1,3}):(\d{1,3})(?:-(\d{1,3}))?`)

// Detect extracts every validated reference from the segment text. The same
// canonical reference produced twice within one call is returned once;
// repeated calls are independent (the capture layer handles cross-call
// duplicates). An input with no recognizable reference returns an empty
// result, never an error.
func (d *Detector) Detect(text string) []DetectedVerse {
	norm := normalize.Normalize(text)
	now := time.Now()

	var out []DetectedVerse
	seen := make(map[string]bool)
	add := func(ref books.Reference, conf Confidence) {
		key := ref.String()
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, DetectedVerse{
			Reference:  ref,
			Confidence: conf,
			DetectedAt: now,
			SourceText: text,
		})
	}

	occs := d.matcher.FindAllOccurrences(norm)
	for _, occ := range occs {
		rest := norm[occ.End:]
		for _, p := range cascade {
			if p.singleChapterOnly && occ.Book.ChapterCount() != 1 {
				continue
			}
			ref, ok := d.extract(p, rest, occ.Book)
			if !ok {
				continue
			}
			add(ref, p.confidence)
			break
		}
	}

	for _, m := range fallbackPattern.FindAllStringSubmatchIndex(norm, -1) {
		// A word sequence that overlaps a recognized book name had its
		// chance in the cascade. Fuzzy-rematching it here would resolve
		// the bare "John" inside "1 John" to the wrong book.
		wordStart, wordEnd := m[2], m[3]
		if overlapsOccurrence(occs, wordStart, wordEnd) {
			continue
		}
		book, ok := d.matcher.Match(norm[wordStart:wordEnd])
		if !ok {
			continue
		}
		ref, ok := d.validate(book,
			atoi(group(norm, m, 2)), atoi(group(norm, m, 3)), atoi(group(norm, m, 4)))
		if !ok {
			continue
		}
		add(ref, Low)
	}

	return out
}

// overlapsOccurrence reports whether [start,end) intersects any accepted
// book name occurrence.
func overlapsOccurrence(occs []match.Occurrence, start, end int) bool {
	for _, o := range occs {
		if start < o.End && end > o.Start {
			return true
		}
	}
	return false
}

// group extracts capture group i from a FindAllStringSubmatchIndex row.
func group(s string, m []int, i int) string {
	if 2*i+1 >= len(m) || m[2*i] < 0 {
		return ""
	}
	return s[m[2*i]:m[2*i+1]]
}

// extract applies one cascade pattern to the text following an occurrence.
func (d *Detector) extract(p patternExtractor, rest string, b *books.Book) (books.Reference, bool) {
	g := p.re.FindStringSubmatch(rest)
	if g == nil {
		return books.Reference{}, false
	}
	chapter, start, end := p.interpret(g)
	return d.validate(b, chapter, start, end)
}

// validate checks a candidate against the table. An invalid chapter or verse
// start rejects the candidate; an invalid range end is dropped, keeping the
// single-verse reference.
func (d *Detector) validate(b *books.Book, chapter, verseStart, verseEnd int) (books.Reference, bool) {
	if chapter < 1 || chapter > b.ChapterCount() {
		return books.Reference{}, false
	}
	max := b.VerseCount(chapter)
	if verseStart < 1 || verseStart > max {
		return books.Reference{}, false
	}
	if verseEnd != 0 && (verseEnd < verseStart || verseEnd > max) {
		verseEnd = 0
	}
	return books.Reference{
		BookCode:   b.Code,
		BookName:   b.Name,
		Chapter:    chapter,
		VerseStart: verseStart,
		VerseEnd:   verseEnd,
	}, true
}

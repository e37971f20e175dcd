// Package normalize rewrites spoken Bible reference idioms into a compact
// digit-oriented form the detector can pattern-match: "chapter three verse
// sixteen" becomes "3:16", "verses four through seven" becomes "4-7".
//
// The rewrite sequence is ordered and non-commutative; later rules operate
// on the output of earlier ones. Normalization is total: a rule that finds
// no match leaves the text unchanged.
package normalize

import (
	"regexp"
	"strings"

	"github.com/FocuswithJustin/VerseFinder/core/numword"
)

// A number term is either digits or a spoken number phrase. The keyword
// rules below must recognize both, since number-word conversion (rule 7)
// deliberately runs after them.
const (
	onesPat = `thirteen|fourteen|fifteen|sixteen|seventeen|eighteen|nineteen|` +
		`ten|eleven|twelve|zero|one|two|three|four|five|six|seven|eight|nine`
	tensPat = `twenty|thirty|forty|fifty|sixty|seventy|eighty|ninety`
	ordPat  = `thirteenth|fourteenth|fifteenth|sixteenth|seventeenth|eighteenth|nineteenth|` +
		`twentieth|thirtieth|fortieth|fiftieth|sixtieth|seventieth|eightieth|ninetieth|` +
		`first|second|third|fourth|fifth|sixth|seventh|eighth|ninth|tenth|eleventh|twelfth`
)

var numTerm = `(\d{1,3}` +
	`|(?:` + onesPat + `|a) hundred(?: and)?(?: (?:` + tensPat + `))?(?:[ -](?:` + onesPat + `|` + ordPat + `))?` +
	`|(?:` + tensPat + `)(?:[ -](?:` + onesPat + `|` + ordPat + `))?` +
	`|(?:` + onesPat + `)` +
	`|(?:` + ordPat + `))`

var (
	reChapterVerseRange = regexp.MustCompile(`(?i)\bchapter ` + numTerm + `,? verses? ` + numTerm + ` (?:through|to|thru) ` + numTerm + `\b`)
	reChapterVerse      = regexp.MustCompile(`(?i)\bchapter ` + numTerm + `,? verses? ` + numTerm + `\b`)
	reVerseRange        = regexp.MustCompile(`(?i)\bverses? ` + numTerm + ` (?:through|to|thru) ` + numTerm + `\b`)
	reVerseAnd          = regexp.MustCompile(`(?i)\bverses? ` + numTerm + ` and ` + numTerm + `\b`)
	reVerse             = regexp.MustCompile(`(?i)\bverses? ` + numTerm + `\b`)
	reBookOf            = regexp.MustCompile(`(?i)^the book of `)
	reDigitRange        = regexp.MustCompile(`(?i)\b(\d{1,3}) (?:through|to|thru) (\d{1,3})\b`)
	reChapterJoin       = regexp.MustCompile(`(?i)\bchapter (\d{1,3}),? (\d{1,3})(-\d{1,3})?\b`)
)

// Normalize applies the full rewrite sequence to text. Output is always
// defined; absence of any pattern is a no-op. Text already in canonical
// colon form passes through unchanged, so Normalize is idempotent on its
// own output.
func Normalize(text string) string {
	// 1. chapter C verse(s) V through W -> C:V-W
	text = rewrite(reChapterVerseRange, text, func(n []string) string {
		return n[0] + ":" + n[1] + "-" + n[2]
	})
	// 2. chapter C verse(s) V -> C:V
	text = rewrite(reChapterVerse, text, func(n []string) string {
		return n[0] + ":" + n[1]
	})
	// 3. verse(s) V through W -> V-W
	text = rewrite(reVerseRange, text, func(n []string) string {
		return n[0] + "-" + n[1]
	})
	// 4. verse(s) V and W -> V-W (spoken range joined by "and")
	text = rewrite(reVerseAnd, text, func(n []string) string {
		return n[0] + "-" + n[1]
	})
	// 5. verse(s) V -> V
	text = rewrite(reVerse, text, func(n []string) string {
		return n[0]
	})
	// 6. drop a leading "the book of" prefix
	text = reBookOf.ReplaceAllString(text, "")
	// 7. global number-word to digit replacement
	text = numword.ReplaceAll(text)
	// 8. D through D -> D-D
	text = reDigitRange.ReplaceAllString(text, "$1-$2")
	// 9. join a chapter number left behind by rule 3: "chapter 3 4-7" -> "3:4-7"
	text = reChapterJoin.ReplaceAllString(text, "$1:$2$3")
	return text
}

// rewrite replaces every match of re, handing the captured number terms to
// build already converted to digits. A match whose terms cannot all be
// converted is left untouched.
func rewrite(re *regexp.Regexp, text string, build func(nums []string) string) string {
	return re.ReplaceAllStringFunc(text, func(m string) string {
		groups := re.FindStringSubmatch(m)
		nums := make([]string, 0, len(groups)-1)
		for _, g := range groups[1:] {
			d, ok := toDigits(g)
			if !ok {
				return m
			}
			nums = append(nums, d)
		}
		return build(nums)
	})
}

// toDigits converts a captured number term to its digit string.
func toDigits(term string) (string, bool) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "", false
	}
	return numword.Convert(term)
}

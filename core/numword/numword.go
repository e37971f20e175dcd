// Package numword converts spoken English number words to digit strings.
// Speech recognizers emit verse numbers as words ("twenty-eight", "a hundred
// and third"); detection needs them as digits before any pattern matching.
package numword

import (
	"strconv"
	"strings"
	"unicode"
)

// maxWindow is the largest token window ReplaceAll will attempt to convert.
// "one hundred and fifty three" is five tokens; six leaves headroom for an
// ordinal tail without scanning whole sentences.
const maxWindow = 6

var ones = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
	"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
}

var tens = map[string]int{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

var ordinalOnes = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
	"eleventh": 11, "twelfth": 12, "thirteenth": 13, "fourteenth": 14,
	"fifteenth": 15, "sixteenth": 16, "seventeenth": 17, "eighteenth": 18,
	"nineteenth": 19,
}

var ordinalTens = map[string]int{
	"twentieth": 20, "thirtieth": 30, "fortieth": 40, "fiftieth": 50,
	"sixtieth": 60, "seventieth": 70, "eightieth": 80, "ninetieth": 90,
}

// Convert converts a spoken number phrase to its digit string.
// Accepted forms: an already-numeric string (returned unchanged), a single
// cardinal or ordinal word, a hyphenated or two-token compound
// ("twenty-eight", "twenty first"), or a hundred construction of the shape
// {ones|"a"} "hundred" ["and"] [tens] [ones|ordinal].
// Anything else, including unrecognized trailing words, returns ok=false;
// there is no partial success.
func Convert(phrase string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(phrase))
	if s == "" {
		return "", false
	}
	if isDigits(s) {
		return s, true
	}
	toks := strings.Fields(strings.ReplaceAll(s, "-", " "))
	n, ok := parseTokens(toks)
	if !ok {
		return "", false
	}
	return strconv.Itoa(n), true
}

func parseTokens(toks []string) (int, bool) {
	if len(toks) == 0 {
		return 0, false
	}
	if len(toks) >= 2 && toks[1] == "hundred" {
		return parseHundred(toks)
	}
	switch len(toks) {
	case 1:
		return wordValue(toks[0])
	case 2:
		t, ok := tens[toks[0]]
		if !ok {
			return 0, false
		}
		o, ok := onesOrOrdinal(toks[1], 9)
		if !ok {
			return 0, false
		}
		return t + o, true
	}
	return 0, false
}

// parseHundred parses {ones|"a"} "hundred" ["and"] [tens] [ones|ordinal].
func parseHundred(toks []string) (int, bool) {
	var h int
	switch {
	case toks[0] == "a":
		h = 1
	default:
		v, ok := ones[toks[0]]
		if !ok || v < 1 || v > 9 {
			return 0, false
		}
		h = v
	}
	n := h * 100
	rest := toks[2:]
	if len(rest) > 0 && rest[0] == "and" {
		rest = rest[1:]
		if len(rest) == 0 {
			// Trailing "and" with nothing after it is not a number.
			return 0, false
		}
	}
	if len(rest) == 0 {
		return n, true
	}
	if t, ok := tens[rest[0]]; ok {
		n += t
		rest = rest[1:]
		if len(rest) == 0 {
			return n, true
		}
		o, ok := onesOrOrdinal(rest[0], 9)
		if !ok || len(rest) > 1 {
			return 0, false
		}
		return n + o, true
	}
	if t, ok := ordinalTens[rest[0]]; ok && len(rest) == 1 {
		return n + t, true
	}
	o, ok := onesOrOrdinal(rest[0], 19)
	if !ok || len(rest) > 1 {
		return 0, false
	}
	return n + o, true
}

// wordValue resolves a single cardinal or ordinal word.
func wordValue(w string) (int, bool) {
	if v, ok := ones[w]; ok {
		return v, true
	}
	if v, ok := tens[w]; ok {
		return v, true
	}
	if v, ok := ordinalOnes[w]; ok {
		return v, true
	}
	if v, ok := ordinalTens[w]; ok {
		return v, true
	}
	return 0, false
}

// onesOrOrdinal resolves a cardinal or ordinal ones word up to max.
func onesOrOrdinal(w string, max int) (int, bool) {
	if v, ok := ones[w]; ok && v >= 1 && v <= max {
		return v, true
	}
	if v, ok := ordinalOnes[w]; ok && v >= 1 && v <= max {
		return v, true
	}
	return 0, false
}

// ReplaceAll rewrites every convertible number phrase in text to digits.
// It scans space-delimited tokens left to right, greedily trying the longest
// token window first so "one hundred and fifty three" converts as 153 rather
// than leaving "one hundred and" behind a converted "fifty three". Trailing
// punctuation attached to the last consumed token is preserved.
func ReplaceAll(text string) string {
	toks := strings.Fields(text)
	out := make([]string, 0, len(toks))
	for i := 0; i < len(toks); {
		w := maxWindow
		if i+w > len(toks) {
			w = len(toks) - i
		}
		matched := false
		for ; w >= 1; w-- {
			phrase := strings.Join(toks[i:i+w], " ")
			core, punct := splitTrailingPunct(phrase)
			if d, ok := Convert(core); ok {
				out = append(out, d+punct)
				i += w
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, toks[i])
			i++
		}
	}
	return strings.Join(out, " ")
}

func splitTrailingPunct(s string) (core, punct string) {
	end := len(s)
	for end > 0 {
		r := rune(s[end-1])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			break
		}
		end--
	}
	return s[:end], s[end:]
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

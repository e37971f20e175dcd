package library

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// DisplayName is a parsed presentation title such as
// "Genesis 1_1-50_26 (KJV)" or "1 Corinthians 13_1-13_13 (NIV)".
type DisplayName struct {
	Prefix   string    `parser:"( @Number )?"`
	Words    []string  `parser:"@Word+"`
	Coverage *Coverage `parser:"( @Coverage )?"`
	Edition  string    `parser:"( '(' @Word ')' )?"`
}

// Coverage is the chapter_verse span a presentation claims to hold.
type Coverage struct {
	FromChapter int
	FromVerse   int
	ToChapter   int
	ToVerse     int
}

// Capture parses the "1_1-50_26" coverage token.
func (c *Coverage) Capture(values []string) error {
	parts := strings.FieldsFunc(values[0], func(r rune) bool {
		return r == '_' || r == '-'
	})
	if len(parts) != 4 {
		return fmt.Errorf("malformed coverage %q", values[0])
	}
	nums := make([]int, 4)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("malformed coverage %q: %w", values[0], err)
		}
		nums[i] = n
	}
	c.FromChapter, c.FromVerse, c.ToChapter, c.ToVerse = nums[0], nums[1], nums[2], nums[3]
	return nil
}

// BookName returns the book portion of the title, numeric prefix included,
// as it appears: "1 Corinthians", "Song of Songs".
func (d *DisplayName) BookName() string {
	name := strings.Join(d.Words, " ")
	if d.Prefix != "" {
		return d.Prefix + " " + name
	}
	return name
}

// nameLexer tokenizes presentation display names. Coverage must come before
// Number so "1_1-50_26" is not split into bare numbers.
var nameLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Coverage", Pattern: `\d+_\d+-\d+_\d+`},
	{Name: "Number", Pattern: `\d+`},
	{Name: "Word", Pattern: `[A-Za-z]+`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var nameParser = participle.MustBuild[DisplayName](
	participle.Lexer(nameLexer),
	participle.Elide("Whitespace"),
)

// ParseDisplayName parses a presentation title into its parts.
func ParseDisplayName(input string) (*DisplayName, error) {
	d, err := nameParser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("parsing display name %q: %w", input, err)
	}
	return d, nil
}

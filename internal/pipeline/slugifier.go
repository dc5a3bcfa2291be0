package pipeline

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// slugPunctuation is the set of characters removed from slugs.
// ASCII punctuation (except '-') plus common CJK and full-width marks.
const slugPunctuation = "][!'#$%&()*+,./:;<=>?@\\^_{|}~`\"" +
	"。，、；：？！…—·ˉ¨‘’“”々～‖∶＂＇｀｜〃〔〕〈〉《》「」『』．〖〗【】（）［］｛｝"

// Slugify converts text to a URL-safe anchor name.
// Every whitespace rune becomes one hyphen; runs are not collapsed.
func Slugify(text string) string {
	return slugify(cases.Lower(language.Und), text)
}

func slugify(lower cases.Caser, text string) string {
	text = lower.String(strings.TrimSpace(text))

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte('-')
		case strings.ContainsRune(slugPunctuation, r):
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-")
}

// Slugifier issues unique slugs within one rendering pass.
// It is not safe for concurrent use; create one per render.
type Slugifier struct {
	lower    cases.Caser
	counters map[string]int
	issued   map[string]struct{}
}

// NewSlugifier creates an empty Slugifier.
func NewSlugifier() *Slugifier {
	s := &Slugifier{lower: cases.Lower(language.Und)}
	s.Reset()
	return s
}

// CreateSlug returns a slug for text that has not been issued before by this
// Slugifier. Repeated headings get numeric suffixes: "test", "test1", "test2".
func (s *Slugifier) CreateSlug(text string) string {
	base := slugify(s.lower, text)

	n, seen := s.counters[base]
	if !seen {
		s.counters[base] = 0
		if _, taken := s.issued[base]; !taken {
			s.issued[base] = struct{}{}
			return base
		}
	}

	for {
		n++
		candidate := slugify(s.lower, base+strconv.Itoa(n))
		if _, taken := s.issued[candidate]; taken {
			continue
		}
		s.counters[base] = n
		s.issued[candidate] = struct{}{}
		return candidate
	}
}

// Register marks slug as issued without counting it as a use of its base.
// Explicit heading IDs go through here so generated slugs avoid them.
func (s *Slugifier) Register(slug string) {
	s.issued[slug] = struct{}{}
}

// Reset forgets every slug issued so far.
func (s *Slugifier) Reset() {
	s.counters = make(map[string]int)
	s.issued = make(map[string]struct{})
}

// headingPlaceholder replaces headings whose text has no slug-able runes.
const headingPlaceholder = "section"

// slugIDs adapts a Slugifier to goldmark's parser.IDs.
type slugIDs struct {
	slugs *Slugifier
}

func (i slugIDs) Generate(value []byte, _ ast.NodeKind) []byte {
	text := string(value)
	if Slugify(text) == "" {
		text = headingPlaceholder
	}
	return []byte(i.slugs.CreateSlug(text))
}

func (i slugIDs) Put(value []byte) {
	i.slugs.Register(string(value))
}

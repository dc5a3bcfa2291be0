package pipeline

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
)

// anchorExtension turns on heading IDs. The IDs themselves come from the
// Slugifier bound to each parse context (see newParseContext), so the
// extension holds no state of its own.
type anchorExtension struct{}

// Anchor attaches a slug id to every heading.
var Anchor goldmark.Extender = &anchorExtension{}

func (e *anchorExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithAutoHeadingID(),
		parser.WithHeadingAttribute(),
	)
}

// newParseContext creates a goldmark parser context whose heading IDs are
// issued by slugs. Every Convert call needs its own context.
func newParseContext(slugs *Slugifier) parser.Context {
	return parser.NewContext(parser.WithIDs(slugIDs{slugs: slugs}))
}

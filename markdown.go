package mdconv

import "github.com/alnah/go-mdconv/internal/pipeline"

// Markdown parsing types. The implementation lives in internal/pipeline.
type (
	// MarkdownParser converts Markdown to HTML. One parser may be shared by
	// many documents; option changes apply to renders started afterwards.
	MarkdownParser = pipeline.MarkdownParser
	// ParserOptions toggles Markdown features.
	ParserOptions = pipeline.ParserOptions
	// RenderEnv carries per-render values such as the link root directory.
	RenderEnv = pipeline.RenderEnv
	// TOCOptions configures the [[toc]] plugin.
	TOCOptions = pipeline.TOCOptions
	// Levels is an inclusive heading level range.
	Levels = pipeline.Levels
	// ListType selects bullet or numbered TOC lists.
	ListType = pipeline.ListType
	// Slugifier issues unique heading ids within one render pass.
	Slugifier = pipeline.Slugifier
)

// TOC list types.
const (
	UnorderedList = pipeline.UnorderedList
	OrderedList   = pipeline.OrderedList
)

// DefaultTOCContainerClass is the class of the generated TOC container.
const DefaultTOCContainerClass = pipeline.DefaultTOCContainerClass

var (
	// NewMarkdownParser creates a parser with the given options.
	NewMarkdownParser = pipeline.NewMarkdownParser
	// DefaultParserOptions returns the options new documents use.
	DefaultParserOptions = pipeline.DefaultParserOptions
	// NewSlugifier returns an empty Slugifier.
	NewSlugifier = pipeline.NewSlugifier
	// Slugify normalizes text without deduplication.
	Slugify = pipeline.Slugify
	// DefaultTOCIndicator matches a [[toc]] paragraph.
	DefaultTOCIndicator = pipeline.DefaultTOCIndicator
)

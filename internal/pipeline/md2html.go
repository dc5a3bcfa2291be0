package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// DefaultHighlightStyle is the chroma style used for fenced code blocks.
const DefaultHighlightStyle = "github"

// ParserOptions toggles Markdown features. Callers may change them between
// renders through MarkdownParser.SetOptions.
type ParserOptions struct {
	HTML           bool        // pass raw HTML through
	HardWraps      bool        // render newlines as <br>
	XHTML          bool        // self-closing void tags
	Highlight      bool        // syntax highlighting of fenced code
	HighlightStyle string      // chroma style name
	Marks          bool        // ==text== becomes <mark>text</mark>
	Anchors        bool        // heading ids
	TOC            *TOCOptions // nil disables the TOC plugin
}

// DefaultParserOptions returns the options used for new documents.
func DefaultParserOptions() ParserOptions {
	return ParserOptions{
		HTML:           true,
		XHTML:          true,
		Highlight:      true,
		HighlightStyle: DefaultHighlightStyle,
		Marks:          true,
		Anchors:        true,
		TOC:            &TOCOptions{ContainerClass: DefaultTOCContainerClass},
	}
}

// RenderEnv carries per-call values for one Markdown render.
type RenderEnv struct {
	// RootDir resolves relative links and images. Empty leaves them as-is.
	RootDir string
}

// MarkdownParser converts Markdown to HTML fragments with goldmark.
// One parser is shared by all fragments of a document. Options may change
// between renders; a render always uses the options it started with.
type MarkdownParser struct {
	mu     sync.Mutex
	opts   ParserOptions
	engine goldmark.Markdown // nil until built for the current options
}

// NewMarkdownParser creates a parser with the given options.
func NewMarkdownParser(opts ParserOptions) *MarkdownParser {
	return &MarkdownParser{opts: opts}
}

// Options returns a copy of the current options.
func (p *MarkdownParser) Options() ParserOptions {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opts
}

// SetOptions replaces the options. In-flight renders are not affected.
func (p *MarkdownParser) SetOptions(opts ParserOptions) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opts = opts
	p.engine = nil
}

// snapshot returns the engine for the current options, building it if needed.
func (p *MarkdownParser) snapshot() (goldmark.Markdown, ParserOptions) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.engine == nil {
		p.engine = newEngine(p.opts)
	}
	return p.engine, p.opts
}

// Render converts Markdown to an HTML fragment.
// Each call gets its own Slugifier, so concurrent renders never share anchor
// numbering. Supports context cancellation via goroutine + select since
// goldmark has no native context support.
func (p *MarkdownParser) Render(ctx context.Context, source string, env RenderEnv) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	engine, opts := p.snapshot()
	source = Preprocess(source, opts.Marks)

	type result struct {
		html string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		pc := newParseContext(NewSlugifier())
		if err := engine.Convert([]byte(source), &buf, parser.WithContext(pc)); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	var r result
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r = <-done:
	}
	if r.err != nil {
		return "", r.err
	}

	out := r.html
	if opts.Marks {
		out = ConvertMarkPlaceholders(out)
	}
	if env.RootDir != "" {
		rewritten, err := ResolveRelativeLinks(out, env.RootDir)
		if err != nil {
			return "", fmt.Errorf("%w: resolving links: %v", ErrHTMLConversion, err)
		}
		out = rewritten
	}
	return out, nil
}

func newEngine(opts ParserOptions) goldmark.Markdown {
	exts := []goldmark.Extender{
		extension.GFM,      // tables, strikethrough, autolinks, task lists
		extension.Footnote, // [^1] footnotes
	}
	if opts.Highlight {
		style := opts.HighlightStyle
		if style == "" {
			style = DefaultHighlightStyle
		}
		exts = append(exts, highlighting.NewHighlighting(
			highlighting.WithStyle(style),
			highlighting.WithFormatOptions(chromahtml.WithLineNumbers(false)),
		))
	}
	if opts.Anchors {
		exts = append(exts, Anchor)
	}
	if opts.TOC != nil {
		exts = append(exts, NewTOC(*opts.TOC))
	}

	var rendererOpts []renderer.Option
	if opts.HTML {
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	}
	if opts.HardWraps {
		rendererOpts = append(rendererOpts, html.WithHardWraps())
	}
	if opts.XHTML {
		rendererOpts = append(rendererOpts, html.WithXHTML())
	}

	return goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithRendererOptions(rendererOpts...),
	)
}

package pipeline

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// DefaultTOCIndicator matches "[[toc]]", "[[ TOC ]]" and similar markers.
var DefaultTOCIndicator = regexp.MustCompile(`(?i)^\[\[\s*toc\s*\]\]$`)

// DefaultTOCContainerClass is the class of the element wrapping the TOC list.
const DefaultTOCContainerClass = "table-of-contents"

// ListType selects the list element used for TOC entries.
type ListType int

const (
	UnorderedList ListType = iota
	OrderedList
)

// Levels is an inclusive heading level range. The zero value means 1-6.
type Levels struct {
	Min int
	Max int
}

func (l Levels) contains(level int) bool {
	lo, hi := l.Min, l.Max
	if lo <= 0 {
		lo = 1
	}
	if hi <= 0 {
		hi = 6
	}
	return level >= lo && level <= hi
}

// TOCOptions configures the table of contents plugin.
type TOCOptions struct {
	ContainerClass string
	Levels         Levels
	Indicator      *regexp.Regexp // nil = DefaultTOCIndicator
	ListType       ListType
}

// KindTOCBlock is the node kind of a generated table of contents.
var KindTOCBlock = ast.NewNodeKind("TOCBlock")

// TOCBlock is the block that replaces a TOC marker paragraph.
type TOCBlock struct {
	ast.BaseBlock
	ContainerClass string
}

// Kind implements ast.Node.
func (n *TOCBlock) Kind() ast.NodeKind {
	return KindTOCBlock
}

// Dump implements ast.Node.
func (n *TOCBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"ContainerClass": n.ContainerClass}, nil)
}

type tocExtension struct {
	opts TOCOptions
}

// NewTOC returns an extension that replaces marker paragraphs with a nested
// list linking to the document headings.
func NewTOC(opts TOCOptions) goldmark.Extender {
	if opts.ContainerClass == "" {
		opts.ContainerClass = DefaultTOCContainerClass
	}
	if opts.Indicator == nil {
		opts.Indicator = DefaultTOCIndicator
	}
	return &tocExtension{opts: opts}
}

func (e *tocExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&tocTransformer{opts: e.opts}, 100),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&tocRenderer{}, 500),
	))
}

type tocEntry struct {
	level int
	id    string
	text  string
}

type tocTransformer struct {
	opts TOCOptions
}

func (t *tocTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var markers []*ast.Paragraph
	var headings []*ast.Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			headings = append(headings, node)
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			if t.isMarker(node, source) {
				markers = append(markers, node)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if len(markers) == 0 {
		return
	}

	entries := t.collect(headings, source, pc)
	for _, marker := range markers {
		parent := marker.Parent()
		parent.ReplaceChild(parent, marker, t.build(entries))
	}
}

func (t *tocTransformer) isMarker(p *ast.Paragraph, source []byte) bool {
	lines := p.Lines()
	if lines.Len() != 1 {
		return false
	}
	line := lines.At(0)
	return t.opts.Indicator.MatchString(strings.TrimSpace(string(line.Value(source))))
}

// collect gathers the headings within range. Headings without an id (anchors
// disabled) get one from the context's ID generator.
func (t *tocTransformer) collect(headings []*ast.Heading, source []byte, pc parser.Context) []tocEntry {
	entries := make([]tocEntry, 0, len(headings))
	for _, h := range headings {
		if !t.opts.Levels.contains(h.Level) {
			continue
		}
		label := plainText(h, source)
		id := headingID(h)
		if id == "" {
			id = string(pc.IDs().Generate([]byte(label), ast.KindHeading))
			h.SetAttributeString("id", []byte(id))
		}
		entries = append(entries, tocEntry{level: h.Level, id: id, text: label})
	}
	return entries
}

func (t *tocTransformer) build(entries []tocEntry) ast.Node {
	block := &TOCBlock{ContainerClass: t.opts.ContainerClass}
	if len(entries) == 0 {
		return block
	}

	root := t.newList()
	block.AppendChild(block, root)
	stack := []*ast.List{root}
	depths := newDepthTracker()

	var last *ast.ListItem
	for _, e := range entries {
		depth := depths.next(e.level)
		for depth > len(stack) && last != nil {
			sub := t.newList()
			last.AppendChild(last, sub)
			stack = append(stack, sub)
		}
		for depth < len(stack) {
			stack = stack[:len(stack)-1]
		}
		last = newTOCItem(e)
		current := stack[len(stack)-1]
		current.AppendChild(current, last)
	}
	return block
}

func (t *tocTransformer) newList() *ast.List {
	marker := byte('-')
	if t.opts.ListType == OrderedList {
		marker = '.'
	}
	list := ast.NewList(marker)
	list.IsTight = true
	list.Start = 1
	return list
}

func newTOCItem(e tocEntry) *ast.ListItem {
	item := ast.NewListItem(0)
	tb := ast.NewTextBlock()
	link := ast.NewLink()
	link.Destination = []byte("#" + e.id)
	link.AppendChild(link, ast.NewString([]byte(e.text)))
	tb.AppendChild(tb, link)
	item.AppendChild(item, tb)
	return item
}

// depthTracker maps heading levels to nesting depths. The first heading sets
// depth 1 and a jump of several levels nests only one step deeper.
type depthTracker struct {
	minLevel  int
	lastDepth int
}

func newDepthTracker() *depthTracker {
	return &depthTracker{}
}

func (d *depthTracker) next(level int) int {
	if d.minLevel == 0 {
		d.minLevel = level
	}
	depth := level - d.minLevel + 1
	if depth < 1 {
		depth = 1
	}
	if d.lastDepth > 0 && depth > d.lastDepth+1 {
		depth = d.lastDepth + 1
	}
	d.lastDepth = depth
	return depth
}

func headingID(h *ast.Heading) string {
	v, ok := h.AttributeString("id")
	if !ok {
		return ""
	}
	switch id := v.(type) {
	case []byte:
		return string(id)
	case string:
		return id
	}
	return ""
}

// plainText returns the text content of n without markup.
func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := c.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(node.Value)
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

type tocRenderer struct{}

func (r *tocRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindTOCBlock, r.renderTOCBlock)
}

func (r *tocRenderer) renderTOCBlock(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("</div>\n")
		return ast.WalkContinue, nil
	}
	n := node.(*TOCBlock)
	_, _ = w.WriteString(`<div class="`)
	_, _ = w.Write(util.EscapeHTML([]byte(n.ContainerClass)))
	_, _ = w.WriteString("\">\n")
	return ast.WalkContinue, nil
}

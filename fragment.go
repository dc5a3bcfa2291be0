package mdconv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aymerick/raymond"

	"github.com/alnah/go-mdconv/internal/pipeline"
	"github.com/alnah/go-mdconv/internal/yamlutil"
)

// Well-known view keys that always have a value.
const (
	KeyTitle        = "Title"
	KeyAuthor       = "Author"
	KeyCreationDate = "CreationDate"
	KeyChangeDate   = "ChangeDate"
	KeyCurrentDate  = "CurrentDate"
)

// Running block section keys. They shadow document attributes of the same name.
const (
	KeyLeft   = "Left"
	KeyCenter = "Center"
	KeyRight  = "Right"
)

// formatDateHelper is the template helper formatting arbitrary date values.
const formatDateHelper = "FormatDate"

// reservedHelpers are never replaced by per-key date helpers.
var reservedHelpers = map[string]bool{
	"if": true, "unless": true, "each": true, "with": true,
	"log": true, "lookup": true, "equal": true,
	formatDateHelper: true,
}

// Renderable is a unit of content that renders to HTML.
type Renderable interface {
	Content() string
	SetContent(string)
	Render(ctx context.Context) (string, error)
}

// Compile-time interface checks.
var (
	_ Renderable = (*DocumentFragment)(nil)
	_ Renderable = (*MarkdownFragment)(nil)
	_ Renderable = (*RunningBlock)(nil)
)

// DocumentFragment is a Handlebars template rendered against its document's
// attributes. Every render parses a fresh template and registers helpers on
// it alone, so concurrent renders of one fragment do not interfere.
type DocumentFragment struct {
	doc     *Document
	content string
}

// NewDocumentFragment creates a fragment bound to doc.
func NewDocumentFragment(doc *Document, content string) *DocumentFragment {
	return &DocumentFragment{doc: doc, content: content}
}

// Content returns the template source.
func (f *DocumentFragment) Content() string { return f.content }

// SetContent replaces the template source.
func (f *DocumentFragment) SetContent(content string) { f.content = content }

// Document returns the owning document.
func (f *DocumentFragment) Document() *Document { return f.doc }

// Render substitutes the document view into the template.
func (f *DocumentFragment) Render(ctx context.Context) (string, error) {
	return f.render(ctx, nil)
}

// render builds the view (attributes, then missing defaults, then overrides)
// and executes a template private to this call.
func (f *DocumentFragment) render(ctx context.Context, overrides map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.doc == nil {
		return "", fmt.Errorf("%w: fragment has no document", ErrTemplateRender)
	}

	view := f.doc.view()
	for k, v := range overrides {
		view[k] = v
	}

	tpl, err := raymond.Parse(f.content)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	tpl.RegisterHelper(formatDateHelper, f.doc.formatDateHelper)
	for key, value := range view {
		if t, ok := value.(time.Time); ok && !reservedHelpers[key] {
			tpl.RegisterHelper(key, f.doc.dateHelper(t))
		}
	}

	out, err := tpl.Exec(view)
	if err != nil {
		var de *dateError
		if errors.As(err, &de) {
			return "", de.err
		}
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	return out, nil
}

// dateError carries a formatting failure out of a helper. raymond turns
// panics with error values into Exec errors.
type dateError struct{ err error }

func (e *dateError) Error() string { return e.err.Error() }
func (e *dateError) Unwrap() error { return e.err }

// dateHelper renders {{Key}} and {{Key format="..."}} for a date-valued key.
func (d *Document) dateHelper(t time.Time) func(*raymond.Options) string {
	return func(options *raymond.Options) string {
		s, err := d.FormatDate(t, options.HashStr("format"))
		if err != nil {
			panic(&dateError{err})
		}
		return s
	}
}

// formatDateHelper renders {{FormatDate value "format"}}. Strings holding a
// YAML timestamp are parsed; other values print unchanged.
func (d *Document) formatDateHelper(value any, format string) string {
	var t time.Time
	switch v := value.(type) {
	case time.Time:
		t = v
	case string:
		parsed, ok := yamlutil.ParseTimestamp(v)
		if !ok {
			return v
		}
		t = parsed
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}

	s, err := d.FormatDate(t, format)
	if err != nil {
		panic(&dateError{err})
	}
	return s
}

// MarkdownFragment renders its template, then converts the result from
// Markdown to HTML with the document's parser.
type MarkdownFragment struct {
	DocumentFragment
}

// NewMarkdownFragment creates a Markdown fragment bound to doc.
func NewMarkdownFragment(doc *Document, content string) *MarkdownFragment {
	return &MarkdownFragment{DocumentFragment{doc: doc, content: content}}
}

// Render substitutes template values first, so they may appear inside the
// Markdown source, and resolves relative links against the document root.
func (f *MarkdownFragment) Render(ctx context.Context) (string, error) {
	md, err := f.render(ctx, nil)
	if err != nil {
		return "", err
	}
	parser := f.doc.Parser
	if parser == nil {
		parser = pipeline.NewMarkdownParser(pipeline.DefaultParserOptions())
	}
	return parser.Render(ctx, md, pipeline.RenderEnv{RootDir: f.doc.DocRoot()})
}

// RunningBlock is a page header or footer with three sections. Its template
// receives the rendered sections as Left, Center and Right.
type RunningBlock struct {
	DocumentFragment
	Left   *DocumentFragment
	Center *DocumentFragment
	Right  *DocumentFragment
}

// NewRunningBlock creates a running block with empty sections.
func NewRunningBlock(doc *Document, content string) *RunningBlock {
	return &RunningBlock{
		DocumentFragment: DocumentFragment{doc: doc, content: content},
		Left:             NewDocumentFragment(doc, ""),
		Center:           NewDocumentFragment(doc, ""),
		Right:            NewDocumentFragment(doc, ""),
	}
}

// SetSections replaces the three section templates.
func (b *RunningBlock) SetSections(left, center, right string) {
	b.Left.SetContent(left)
	b.Center.SetContent(center)
	b.Right.SetContent(right)
}

// Render renders the sections left to right, then the block template. The
// first failing section is reported. Section values always win over
// document attributes named Left, Center or Right.
func (b *RunningBlock) Render(ctx context.Context) (string, error) {
	sections := []struct {
		key      string
		fragment *DocumentFragment
	}{
		{KeyLeft, b.Left},
		{KeyCenter, b.Center},
		{KeyRight, b.Right},
	}
	overrides := make(map[string]any, len(sections))
	for _, s := range sections {
		if s.fragment == nil {
			overrides[s.key] = ""
			continue
		}
		out, err := s.fragment.Render(ctx)
		if err != nil {
			return "", fmt.Errorf("rendering %s section: %w", s.key, err)
		}
		overrides[s.key] = raymond.SafeString(out)
	}
	return b.render(ctx, overrides)
}

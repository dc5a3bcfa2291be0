package mdconv

import (
	"context"
	"fmt"
	"maps"
	"os/user"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aymerick/raymond"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mdconv/internal/assets"
	"github.com/alnah/go-mdconv/internal/dateutil"
	"github.com/alnah/go-mdconv/internal/fileutil"
	"github.com/alnah/go-mdconv/internal/pipeline"
)

// DefaultQuality is the JPEG quality used for image output.
const DefaultQuality = 90

// Document template placeholders.
const (
	placeholderMeta    = "meta"
	placeholderStyles  = "styles"
	placeholderContent = "content"
	placeholderScripts = "scripts"
)

// defaultTemplates holds the embedded document, meta, header and footer templates.
var defaultTemplates = sync.OnceValue(func() *assets.TemplateSet {
	ts, err := assets.LoadTemplateSet()
	if err != nil {
		panic(fmt.Sprintf("mdconv: loading embedded templates: %v", err))
	}
	return ts
})

// Document is one Markdown source with its metadata, page setup and assets.
// Build it with NewDocument or LoadDocument, adjust the exported fields, then
// call Render. A Document must not be mutated while it renders.
type Document struct {
	// FileName is the absolute source path, empty for untitled documents.
	FileName string
	// Quality is the JPEG quality for image output.
	Quality int
	// Attributes come from the front matter.
	Attributes map[string]any

	// DefaultDateFormat is used when a template gives no format. It may name
	// an entry of DateFormats, a preset or be a literal pattern.
	DefaultDateFormat string
	DateFormats       map[string]string
	Locale            string
	Resources         Resources

	// Author is used when the front matter has none.
	Author       string
	CreationDate time.Time
	ChangeDate   time.Time

	Paper               Paper
	Body                *MarkdownFragment
	Meta                *DocumentFragment
	Header              *RunningBlock
	Footer              *RunningBlock
	HeaderFooterEnabled bool
	Template            string

	StyleSheets []Asset
	Scripts     []Asset

	// Parser is shared by all Markdown fragments of the document.
	Parser *pipeline.MarkdownParser

	title  string
	now    func() time.Time
	reader FileReader
}

// DocumentOption configures a Document.
type DocumentOption func(*Document)

// WithTitle sets the title used when the front matter has none.
func WithTitle(title string) DocumentOption {
	return func(d *Document) { d.title = title }
}

// WithLocale sets the locale for dates and messages. Empty keeps "en".
func WithLocale(locale string) DocumentOption {
	return func(d *Document) {
		if locale != "" {
			d.Locale = locale
		}
	}
}

// WithResources replaces the localized resource lookup.
func WithResources(r Resources) DocumentOption {
	return func(d *Document) {
		if r != nil {
			d.Resources = r
		}
	}
}

// WithParser shares an existing Markdown parser.
func WithParser(p *pipeline.MarkdownParser) DocumentOption {
	return func(d *Document) {
		if p != nil {
			d.Parser = p
		}
	}
}

// WithClock replaces time.Now for CurrentDate and missing file dates.
func WithClock(now func() time.Time) DocumentOption {
	return func(d *Document) {
		if now != nil {
			d.now = now
		}
	}
}

// WithDocumentReader replaces the reader LoadDocument uses for the source.
func WithDocumentReader(r FileReader) DocumentOption {
	return func(d *Document) {
		if r != nil {
			d.reader = r
		}
	}
}

// NewDocument returns an empty document with the embedded templates.
func NewDocument(opts ...DocumentOption) *Document {
	ts := defaultTemplates()
	d := &Document{
		Quality:             DefaultQuality,
		Attributes:          map[string]any{},
		DefaultDateFormat:   dateutil.DefaultDateFormat,
		DateFormats:         map[string]string{},
		Locale:              "en",
		Resources:           DefaultResources(),
		Author:              currentUserName(),
		Paper:               NewPaper(),
		HeaderFooterEnabled: true,
		Template:            ts.Document,
		now:                 time.Now,
		reader:              OSFileReader{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.Parser == nil {
		d.Parser = pipeline.NewMarkdownParser(pipeline.DefaultParserOptions())
	}

	d.Body = NewMarkdownFragment(d, "")
	d.Meta = NewDocumentFragment(d, ts.Meta)
	d.Header = NewRunningBlock(d, ts.Header)
	d.Footer = NewRunningBlock(d, ts.Footer)

	if d.CreationDate.IsZero() {
		d.CreationDate = d.now()
	}
	if d.ChangeDate.IsZero() {
		d.ChangeDate = d.CreationDate
	}
	return d
}

// LoadDocument reads a Markdown file through the document reader. The file
// stem becomes the fallback title. When the reader is a FileStater, the
// modification time becomes the creation and change dates.
func LoadDocument(ctx context.Context, path string, opts ...DocumentOption) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	opts = append([]DocumentOption{WithTitle(fileutil.Stem(abs))}, opts...)
	d := NewDocument(opts...)
	d.FileName = abs

	if st, ok := d.reader.(FileStater); ok {
		if info, err := st.Stat(ctx, abs); err == nil {
			d.CreationDate = info.ModTime()
			d.ChangeDate = info.ModTime()
		}
	}

	data, err := d.reader.ReadFile(ctx, abs)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := d.SetRawContent(string(data)); err != nil {
		return nil, err
	}
	return d, nil
}

// currentUserName is the default author.
func currentUserName() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// DocRoot returns the directory relative links resolve against.
func (d *Document) DocRoot() string {
	if d.FileName == "" {
		return ""
	}
	return filepath.Dir(d.FileName)
}

// Title returns the Title attribute, else the constructor title, else the
// localized "Untitled".
func (d *Document) Title() string {
	if v, ok := d.Attributes[KeyTitle]; ok && v != nil {
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
			return s
		}
	}
	if d.title != "" {
		return d.title
	}
	return d.resources().GetResource("untitled", d.Locale)
}

func (d *Document) resources() Resources {
	if d.Resources == nil {
		return DefaultResources()
	}
	return d.Resources
}

// FormatDate renders t with format, or DefaultDateFormat when format is
// empty. Names from DateFormats take precedence over presets; anything else
// is a literal pattern.
func (d *Document) FormatDate(t time.Time, format string) (string, error) {
	if format == "" {
		format = d.DefaultDateFormat
	}
	pattern, ok := d.DateFormats[format]
	if !ok {
		pattern = dateutil.ResolvePattern(format)
	}
	if pattern == "" {
		pattern = dateutil.DefaultDateFormat
	}
	return dateutil.Format(t, pattern, dateNames(d.resources(), d.Locale))
}

// view returns a fresh map for one template execution.
func (d *Document) view() map[string]any {
	v := make(map[string]any, len(d.Attributes)+5)
	maps.Copy(v, d.Attributes)

	now := time.Now
	if d.now != nil {
		now = d.now
	}
	defaults := map[string]any{
		KeyTitle:        d.Title(),
		KeyAuthor:       d.Author,
		KeyCreationDate: d.CreationDate,
		KeyChangeDate:   d.ChangeDate,
		KeyCurrentDate:  now(),
	}
	for k, val := range defaults {
		if _, ok := v[k]; !ok {
			v[k] = val
		}
	}
	return v
}

// Render produces the complete HTML page. Meta, assets and body render
// concurrently; the output keeps meta, stylesheets, scripts and body in
// declared order. The first error aborts the render.
func (d *Document) Render(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var meta, body string
	styles := make([]string, len(d.StyleSheets))
	scripts := make([]string, len(d.Scripts))

	g, gctx := errgroup.WithContext(ctx)
	if d.Meta != nil {
		g.Go(func() error {
			var err error
			meta, err = d.Meta.Render(gctx)
			return err
		})
	}
	renderAll(gctx, g, d.StyleSheets, styles)
	renderAll(gctx, g, d.Scripts, scripts)
	if d.Body != nil {
		g.Go(func() error {
			var err error
			body, err = d.Body.Render(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	page := NewDocumentFragment(d, d.Template)
	return page.render(ctx, map[string]any{
		placeholderMeta:    raymond.SafeString(meta),
		placeholderStyles:  raymond.SafeString(strings.Join(styles, "\n")),
		placeholderContent: raymond.SafeString(body),
		placeholderScripts: raymond.SafeString(strings.Join(scripts, "\n")),
	})
}

// renderAll renders each asset into the matching slot of out.
func renderAll(ctx context.Context, g *errgroup.Group, list []Asset, out []string) {
	for i, a := range list {
		g.Go(func() error {
			s, err := a.Render(ctx)
			if err != nil {
				return err
			}
			out[i] = s
			return nil
		})
	}
}

// RenderHeader renders the page header, or "" when disabled.
func (d *Document) RenderHeader(ctx context.Context) (string, error) {
	if !d.HeaderFooterEnabled || d.Header == nil {
		return "", nil
	}
	return d.Header.Render(ctx)
}

// RenderFooter renders the page footer, or "" when disabled.
func (d *Document) RenderFooter(ctx context.Context) (string, error) {
	if !d.HeaderFooterEnabled || d.Footer == nil {
		return "", nil
	}
	return d.Footer.Render(ctx)
}

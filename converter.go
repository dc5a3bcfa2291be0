package mdconv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-mdconv/internal/assets"
	"github.com/alnah/go-mdconv/internal/dateutil"
	"github.com/alnah/go-mdconv/internal/fileutil"
)

// ErrInvalidAssetPath indicates a custom asset directory that cannot be used.
var ErrInvalidAssetPath = errors.New("invalid asset path")

// OutputType is a file format written by Convert.
type OutputType string

// Supported output types.
const (
	OutputHTML OutputType = "html"
	OutputPDF  OutputType = "pdf"
	OutputPNG  OutputType = "png"
	OutputJPEG OutputType = "jpeg"
)

// ParseOutputType accepts html, pdf, png, jpeg and jpg in any case.
func ParseOutputType(s string) (OutputType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "html":
		return OutputHTML, nil
	case "pdf":
		return OutputPDF, nil
	case "png":
		return OutputPNG, nil
	case "jpeg", "jpg":
		return OutputJPEG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedOutput, s)
}

// Extension returns the file extension without the dot.
func (t OutputType) Extension() string {
	if t == OutputJPEG {
		return "jpg"
	}
	return string(t)
}

// Sections holds the three section templates of a running block.
type Sections struct {
	Left   string
	Center string
	Right  string
}

// AssetSpec names an asset and how to insert it.
type AssetSpec struct {
	URL       string
	Insertion InsertionType
}

// Settings are applied to every document a Converter loads.
type Settings struct {
	Paper               Paper
	HeaderFooterEnabled bool
	Header              Sections
	Footer              Sections

	Locale            string
	DefaultDateFormat string
	DateFormats       map[string]string

	// Style names a built-in or custom stylesheet; "" or "none" adds none.
	Style       string
	StyleSheets []AssetSpec
	Scripts     []AssetSpec
	// Pictures become attributes holding an image src value.
	Pictures map[string]AssetSpec

	Parser ParserOptions
	// Attributes fill in values the front matter does not set.
	Attributes map[string]any
	Quality    int
}

// DefaultSettings mirrors the defaults of a new Document.
func DefaultSettings() Settings {
	return Settings{
		Paper:               NewPaper(),
		HeaderFooterEnabled: true,
		Header:              Sections{Left: "{{Author}}", Center: "{{Title}}", Right: "{{CurrentDate}}"},
		Footer:              Sections{Left: "{{CreationDate}}", Right: `<span class="pageNumber"></span>/<span class="totalPages"></span>`},
		Locale:              "en",
		DefaultDateFormat:   "long",
		Style:               assets.DefaultStyleName,
		Parser:              DefaultParserOptions(),
		Quality:             DefaultQuality,
	}
}

// Job is one source file to convert.
type Job struct {
	Input     string
	OutputDir string // empty writes next to the input
	Types     []OutputType
	Settings  Settings
}

// Result lists what a job produced.
type Result struct {
	Document *Document
	HTML     string
	Files    map[OutputType]string
}

// Option configures a Converter.
type Option func(*Converter)

// WithTimeout sets the browser page load timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Converter) { c.timeout = d }
}

// WithAssetPath adds a directory of custom styles and templates that take
// precedence over the embedded ones.
func WithAssetPath(dir string) Option {
	return func(c *Converter) { c.assetPath = dir }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRenderer replaces the Chrome renderer.
func WithRenderer(r Renderer) Option {
	return func(c *Converter) { c.renderer = r }
}

// WithSourceReader replaces the reader for documents and local assets.
func WithSourceReader(r FileReader) Option {
	return func(c *Converter) {
		if r != nil {
			c.reader = r
		}
	}
}

// WithAssetFetcher replaces the downloader for link assets.
func WithAssetFetcher(f Fetcher) Option {
	return func(c *Converter) {
		if f != nil {
			c.fetcher = f
		}
	}
}

// WithLocalization replaces the localized resources.
func WithLocalization(r Resources) Option {
	return func(c *Converter) {
		if r != nil {
			c.resources = r
		}
	}
}

// Converter loads Markdown files into Documents and writes HTML, PDF or
// image output. Create with NewConverter and Close when done. A Converter
// handles one job at a time; use a ConverterPool for parallel batches.
type Converter struct {
	timeout   time.Duration
	assetPath string
	logger    *zap.Logger
	reader    FileReader
	fetcher   Fetcher
	resources Resources

	resolver  *assets.AssetResolver
	templates *assets.TemplateSet

	rendererOnce sync.Once
	renderer     Renderer
}

// EmbeddedStyles lists the built-in style names accepted by Settings.Style.
func EmbeddedStyles() []string {
	return assets.NewEmbeddedLoader().StyleNames()
}

// NewConverter creates a Converter. It fails when the asset path is invalid
// or its templates cannot be read.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		timeout:   DefaultTimeout,
		logger:    zap.NewNop(),
		reader:    OSFileReader{},
		fetcher:   defaultFetcher,
		resources: DefaultResources(),
	}
	for _, opt := range opts {
		opt(c)
	}

	resolver, err := assets.NewAssetResolver(c.assetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}
	templates, err := resolver.LoadTemplateSet()
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	c.resolver = resolver
	c.templates = templates
	return c, nil
}

// Close releases the browser, if one was started.
func (c *Converter) Close() error {
	if c.renderer != nil {
		return c.renderer.Close()
	}
	return nil
}

// Load reads a Markdown file and applies settings without rendering.
func (c *Converter) Load(ctx context.Context, path string, s Settings) (*Document, error) {
	doc, err := LoadDocument(ctx, path,
		WithLocale(s.Locale),
		WithResources(c.resources),
		WithParser(NewMarkdownParser(s.Parser)),
		WithDocumentReader(c.reader),
	)
	if err != nil {
		return nil, err
	}
	if err := c.apply(ctx, doc, s); err != nil {
		return nil, err
	}
	return doc, nil
}

// Convert renders job.Input and writes one file per requested type.
// Every type is produced before anything is written, and files written
// before a failed write are removed, so a failed job leaves no outputs.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, job Job) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if job.Input == "" {
		return nil, fmt.Errorf("%w: no input file", fs.ErrInvalid)
	}
	types := job.Types
	if len(types) == 0 {
		types = []OutputType{OutputPDF}
	}

	start := time.Now()
	log := c.logger.With(zap.String("input", job.Input))

	doc, err := c.Load(ctx, job.Input, job.Settings)
	if err != nil {
		return nil, err
	}
	html, err := doc.Render(ctx)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", job.Input, err)
	}
	log.Debug("document rendered", zap.Int("bytes", len(html)), zap.Duration("elapsed", time.Since(start)))

	type output struct {
		t    OutputType
		path string
		data []byte
	}
	outputs := make([]output, 0, len(types))
	for _, t := range types {
		data, err := c.produce(ctx, doc, html, t)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, output{t: t, path: outputPath(job, doc, t), data: data})
	}

	result = &Result{Document: doc, HTML: html, Files: make(map[OutputType]string, len(types))}
	for i, o := range outputs {
		// #nosec G306 -- output files are intended to be readable
		if err := fileutil.WriteFileAtomic(o.path, o.data, 0o644); err != nil {
			for _, written := range outputs[:i] {
				_ = os.Remove(written.path)
			}
			return nil, fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
		result.Files[o.t] = o.path
		log.Info("written", zap.String("type", string(o.t)), zap.String("output", o.path))
	}
	return result, nil
}

// produce builds the bytes of one output type.
func (c *Converter) produce(ctx context.Context, doc *Document, html string, t OutputType) ([]byte, error) {
	switch t {
	case OutputHTML:
		return []byte(html), nil
	case OutputPDF:
		header, err := doc.RenderHeader(ctx)
		if err != nil {
			return nil, fmt.Errorf("rendering header: %w", err)
		}
		footer, err := doc.RenderFooter(ctx)
		if err != nil {
			return nil, fmt.Errorf("rendering footer: %w", err)
		}
		return c.chrome().PDF(ctx, html, PrintOptions{Paper: doc.Paper, Header: header, Footer: footer})
	case OutputPNG, OutputJPEG:
		format := PNG
		if t == OutputJPEG {
			format = JPEG
		}
		return c.chrome().Screenshot(ctx, html, ImageOptions{
			Format:  format,
			Quality: doc.Quality,
			Width:   PageWidthPixels(doc.Paper),
		})
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedOutput, t)
}

// chrome returns the renderer, starting Chrome only when first needed.
func (c *Converter) chrome() Renderer {
	c.rendererOnce.Do(func() {
		if c.renderer == nil {
			c.renderer = NewChromeRenderer(c.timeout)
		}
	})
	return c.renderer
}

// outputPath places the output next to the input unless OutputDir is set.
func outputPath(job Job, doc *Document, t OutputType) string {
	dir := job.OutputDir
	if dir == "" {
		dir = doc.DocRoot()
	}
	return filepath.Join(dir, fileutil.Stem(doc.FileName)+"."+t.Extension())
}

// apply copies settings onto a freshly loaded document.
func (c *Converter) apply(ctx context.Context, doc *Document, s Settings) error {
	if s.Paper.Format != nil {
		doc.Paper = s.Paper
	}
	if s.Quality > 0 {
		doc.Quality = s.Quality
	}
	if s.DefaultDateFormat != "" {
		doc.DefaultDateFormat = s.DefaultDateFormat
	}
	for name, pattern := range s.DateFormats {
		doc.DateFormats[name] = pattern
	}

	doc.Template = c.templates.Document
	doc.Meta.SetContent(c.templates.Meta)
	doc.HeaderFooterEnabled = s.HeaderFooterEnabled
	doc.Header.SetContent(c.templates.Header)
	doc.Header.SetSections(s.Header.Left, s.Header.Center, s.Header.Right)
	doc.Footer.SetContent(c.templates.Footer)
	doc.Footer.SetSections(s.Footer.Left, s.Footer.Center, s.Footer.Right)

	for k, v := range s.Attributes {
		if _, ok := doc.Attributes[k]; !ok {
			doc.Attributes[k] = v
		}
	}
	if err := resolveAutoDates(doc); err != nil {
		return err
	}

	assetOpts := []AssetOption{WithDocRoot(doc.DocRoot()), WithFileReader(c.reader), WithFetcher(c.fetcher)}

	if s.Style != "" && s.Style != "none" {
		css, err := c.resolver.LoadStyle(s.Style)
		if err != nil {
			return fmt.Errorf("loading style %q: %w", s.Style, err)
		}
		name := s.Style + ".css"
		doc.StyleSheets = append(doc.StyleSheets,
			NewStyleSheet(name, InsertionInclude, WithFileReader(MemoryFileReader{name: []byte(css)})))
	}
	for _, spec := range s.StyleSheets {
		doc.StyleSheets = append(doc.StyleSheets, NewStyleSheet(spec.URL, spec.Insertion, assetOpts...))
	}
	for _, spec := range s.Scripts {
		doc.Scripts = append(doc.Scripts, NewWebScript(spec.URL, spec.Insertion, assetOpts...))
	}

	for name, spec := range s.Pictures {
		if _, ok := doc.Attributes[name]; ok {
			continue
		}
		src, err := NewPictureSource(spec.URL, spec.Insertion, assetOpts...).Render(ctx)
		if err != nil {
			return fmt.Errorf("picture %q: %w", name, err)
		}
		doc.Attributes[name] = src
	}
	return nil
}

// resolveAutoDates replaces "auto" attribute values with the current time
// and "auto:FORMAT" values with the current time formatted.
func resolveAutoDates(doc *Document) error {
	now := doc.now()
	names := dateNames(doc.resources(), doc.Locale)
	for k, v := range doc.Attributes {
		s, ok := v.(string)
		if !ok {
			continue
		}
		lower := strings.ToLower(s)
		switch {
		case lower == "auto":
			doc.Attributes[k] = now
		case strings.HasPrefix(lower, "auto:"):
			formatted, err := dateutil.ResolveDate(s, now, names)
			if err != nil {
				return fmt.Errorf("attribute %s: %w", k, err)
			}
			doc.Attributes[k] = formatted
		}
	}
	return nil
}

// MemoryFileReader serves files from memory, keyed by path.
type MemoryFileReader map[string][]byte

var _ FileReader = MemoryFileReader(nil)

// ReadFile implements FileReader.
func (m MemoryFileReader) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, ok := m[path]
	if !ok {
		data, ok = m[filepath.ToSlash(path)]
	}
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	return data, nil
}

package mdconv

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/alnah/go-mdconv/internal/pipeline"
)

// MaxAssetSize caps downloaded asset bodies (default 50MB).
var MaxAssetSize int64 = 50 << 20

// InsertionType selects how an asset appears in the document.
type InsertionType int

const (
	// InsertionDefault lets the asset kind decide.
	InsertionDefault InsertionType = iota
	// InsertionLink references the asset by URL.
	InsertionLink
	// InsertionInclude embeds the asset content.
	InsertionInclude
)

// ParseInsertionType accepts "", "default", "link" and "include".
func ParseInsertionType(s string) (InsertionType, error) {
	switch strings.ToLower(s) {
	case "", "default":
		return InsertionDefault, nil
	case "link":
		return InsertionLink, nil
	case "include":
		return InsertionInclude, nil
	}
	return InsertionDefault, fmt.Errorf("unknown insertion type %q", s)
}

func (t InsertionType) String() string {
	switch t {
	case InsertionLink:
		return "link"
	case InsertionInclude:
		return "include"
	}
	return "default"
}

// URLType classifies an asset URL.
type URLType int

const (
	// URLLink has a scheme, e.g. https:// or data:.
	URLLink URLType = iota
	// URLAbsolutePath is an absolute filesystem path.
	URLAbsolutePath
	// URLRelativePath is resolved against the document root.
	URLRelativePath
)

func (t URLType) String() string {
	switch t {
	case URLAbsolutePath:
		return "absolute"
	case URLRelativePath:
		return "relative"
	}
	return "link"
}

// schemePattern requires two letters so Windows drive letters stay paths.
var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]+:`)

func isDataURL(u string) bool {
	return len(u) >= 5 && strings.EqualFold(u[:5], "data:")
}

// decodeDataURL returns the payload of a data: URL.
func decodeDataURL(u string) ([]byte, error) {
	header, payload, ok := strings.Cut(u[len("data:"):], ",")
	if !ok {
		return nil, errors.New("data URL without payload")
	}
	if strings.HasSuffix(strings.ToLower(header), ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	s, err := url.PathUnescape(payload)
	return []byte(s), err
}

func classifyURL(u string) URLType {
	switch {
	case schemePattern.MatchString(u):
		return URLLink
	case filepath.IsAbs(u):
		return URLAbsolutePath
	}
	return URLRelativePath
}

// FileReader reads local asset files.
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// FileStater is implemented by FileReaders that report file metadata.
// LoadDocument uses it for the source modification time.
type FileStater interface {
	Stat(ctx context.Context, path string) (fs.FileInfo, error)
}

// Fetcher downloads link assets.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Compile-time interface checks.
var (
	_ FileReader = OSFileReader{}
	_ FileStater = OSFileReader{}
	_ Fetcher    = (*HTTPFetcher)(nil)
)

// OSFileReader reads from the local filesystem.
type OSFileReader struct{}

// ReadFile implements FileReader.
func (OSFileReader) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(path) // #nosec G304 -- asset paths come from the document or config
}

// Stat implements FileStater.
func (OSFileReader) Stat(ctx context.Context, path string) (fs.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Stat(path)
}

// HTTPFetcher downloads assets over HTTP(S).
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher returns a fetcher backed by a pooled client that does not
// share state with http.DefaultClient.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{Client: cleanhttp.DefaultPooledClient()}
}

// Fetch implements Fetcher. Responses outside 2xx are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = cleanhttp.DefaultClient()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxAssetSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxAssetSize {
		return nil, fmt.Errorf("response exceeds %d bytes", MaxAssetSize)
	}
	return data, nil
}

// Asset is a stylesheet, script or picture placed into a document.
type Asset interface {
	URL() string
	URLType() URLType
	// InsertionType returns the effective insertion, never InsertionDefault.
	InsertionType() InsertionType
	Render(ctx context.Context) (string, error)
}

// SourceRenderer produces the two forms of an asset: embedded content and
// a reference to it.
type SourceRenderer interface {
	GetSource(ctx context.Context) (string, error)
	GetReferenceSource() string
}

// Compile-time interface checks.
var (
	_ Asset          = (*StyleSheet)(nil)
	_ Asset          = (*WebScript)(nil)
	_ Asset          = (*PictureSource)(nil)
	_ SourceRenderer = (*StyleSheet)(nil)
	_ SourceRenderer = (*WebScript)(nil)
	_ SourceRenderer = (*PictureSource)(nil)
)

// AssetOption configures an asset.
type AssetOption func(*baseAsset)

// WithDocRoot sets the directory relative URLs resolve against.
func WithDocRoot(dir string) AssetOption {
	return func(a *baseAsset) { a.docRoot = dir }
}

// WithFileReader replaces the local file reader.
func WithFileReader(r FileReader) AssetOption {
	return func(a *baseAsset) {
		if r != nil {
			a.reader = r
		}
	}
}

// WithFetcher replaces the downloader used for link URLs.
func WithFetcher(f Fetcher) AssetOption {
	return func(a *baseAsset) {
		if f != nil {
			a.fetcher = f
		}
	}
}

// baseAsset holds what every asset kind shares.
type baseAsset struct {
	url       string
	insertion InsertionType
	docRoot   string
	reader    FileReader
	fetcher   Fetcher
}

func newBaseAsset(u string, insertion InsertionType, opts []AssetOption) baseAsset {
	a := baseAsset{url: u, insertion: insertion, reader: OSFileReader{}}
	for _, opt := range opts {
		opt(&a)
	}
	if a.fetcher == nil {
		a.fetcher = defaultFetcher
	}
	return a
}

var defaultFetcher Fetcher = NewHTTPFetcher()

// URL returns the asset location as given.
func (a *baseAsset) URL() string { return a.url }

// URLType classifies the URL on every call.
func (a *baseAsset) URLType() URLType { return classifyURL(a.url) }

// DocRoot returns the directory relative URLs resolve against.
func (a *baseAsset) DocRoot() string { return a.docRoot }

// includeUnlessLinked is the default for stylesheets and scripts.
func (a *baseAsset) includeUnlessLinked() InsertionType {
	if a.insertion != InsertionDefault {
		return a.insertion
	}
	if a.URLType() == URLLink {
		return InsertionLink
	}
	return InsertionInclude
}

// localPath returns the filesystem path for non-link URLs.
func (a *baseAsset) localPath() string {
	p := filepath.FromSlash(a.url)
	if a.URLType() == URLRelativePath && a.docRoot != "" {
		return filepath.Join(a.docRoot, p)
	}
	return p
}

// ReadFile loads the asset content, downloading link URLs.
func (a *baseAsset) ReadFile(ctx context.Context) ([]byte, error) {
	if isDataURL(a.url) {
		data, err := decodeDataURL(a.url)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid data URL: %v", ErrAssetFetch, err)
		}
		return data, nil
	}
	if a.URLType() == URLLink {
		data, err := a.fetcher.Fetch(ctx, a.url)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrAssetFetch, a.url, err)
		}
		return data, nil
	}

	p := a.localPath()
	data, err := a.reader.ReadFile(ctx, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, p)
		}
		return nil, fmt.Errorf("reading asset %s: %w", p, err)
	}
	return data, nil
}

// referenceURL turns local paths into file:// URLs. A relative path with no
// document root is returned unchanged.
func (a *baseAsset) referenceURL() string {
	switch a.URLType() {
	case URLLink:
		return a.url
	case URLAbsolutePath:
		return pipeline.FileURL(a.localPath())
	}
	if a.docRoot == "" {
		return filepath.ToSlash(a.url)
	}
	abs, err := filepath.Abs(a.localPath())
	if err != nil {
		return filepath.ToSlash(a.url)
	}
	return pipeline.FileURL(abs)
}

var closingTagPattern = regexp.MustCompile(`(?i)</(style|script)`)

// escapeClosingTags keeps embedded content from ending its element early.
func escapeClosingTags(s string) string {
	return closingTagPattern.ReplaceAllString(s, `<\/$1`)
}

// renderAsset dispatches on the effective insertion type.
func renderAsset(ctx context.Context, insertion InsertionType, r SourceRenderer) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if insertion == InsertionInclude {
		return r.GetSource(ctx)
	}
	return r.GetReferenceSource(), nil
}

// StyleSheet is a CSS asset.
type StyleSheet struct {
	baseAsset
}

// NewStyleSheet creates a stylesheet asset.
func NewStyleSheet(u string, insertion InsertionType, opts ...AssetOption) *StyleSheet {
	return &StyleSheet{baseAsset: newBaseAsset(u, insertion, opts)}
}

// InsertionType links network URLs and includes files unless set explicitly.
func (s *StyleSheet) InsertionType() InsertionType { return s.includeUnlessLinked() }

// GetSource wraps the file content in a style element.
func (s *StyleSheet) GetSource(ctx context.Context) (string, error) {
	data, err := s.ReadFile(ctx)
	if err != nil {
		return "", err
	}
	return "<style>\n" + escapeClosingTags(string(data)) + "\n</style>", nil
}

// GetReferenceSource returns a stylesheet link element.
func (s *StyleSheet) GetReferenceSource() string {
	return `<link rel="stylesheet" type="text/css" href="` + html.EscapeString(s.referenceURL()) + `" />`
}

// Render implements Asset.
func (s *StyleSheet) Render(ctx context.Context) (string, error) {
	return renderAsset(ctx, s.InsertionType(), s)
}

// WebScript is a JavaScript asset.
type WebScript struct {
	baseAsset
}

// NewWebScript creates a script asset.
func NewWebScript(u string, insertion InsertionType, opts ...AssetOption) *WebScript {
	return &WebScript{baseAsset: newBaseAsset(u, insertion, opts)}
}

// InsertionType links network URLs and includes files unless set explicitly.
func (s *WebScript) InsertionType() InsertionType { return s.includeUnlessLinked() }

// GetSource wraps the file content in a script element.
func (s *WebScript) GetSource(ctx context.Context) (string, error) {
	data, err := s.ReadFile(ctx)
	if err != nil {
		return "", err
	}
	return "<script>\n" + escapeClosingTags(string(data)) + "\n</script>", nil
}

// GetReferenceSource returns an async script element.
func (s *WebScript) GetReferenceSource() string {
	return `<script async src="` + html.EscapeString(s.referenceURL()) + `" charset="UTF-8"></script>`
}

// Render implements Asset.
func (s *WebScript) Render(ctx context.Context) (string, error) {
	return renderAsset(ctx, s.InsertionType(), s)
}

// PictureSource is an image exposed to templates as a src value: a data URI
// when included, a URL when linked.
type PictureSource struct {
	baseAsset
}

// NewPictureSource creates a picture asset.
func NewPictureSource(u string, insertion InsertionType, opts ...AssetOption) *PictureSource {
	return &PictureSource{baseAsset: newBaseAsset(u, insertion, opts)}
}

// InsertionType defaults to InsertionLink.
func (p *PictureSource) InsertionType() InsertionType {
	if p.insertion == InsertionDefault {
		return InsertionLink
	}
	return p.insertion
}

// GetSource returns a base64 data URI. A data: URL is returned as given; a
// relative URL without a document root cannot be located and yields the
// reference form instead.
func (p *PictureSource) GetSource(ctx context.Context) (string, error) {
	if isDataURL(p.url) {
		return p.url, nil
	}
	if p.URLType() == URLRelativePath && p.docRoot == "" {
		return p.GetReferenceSource(), nil
	}
	data, err := p.ReadFile(ctx)
	if err != nil {
		return "", err
	}
	return "data:" + p.mimeType(data) + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// GetReferenceSource returns the URL, with local paths as file:// URLs.
func (p *PictureSource) GetReferenceSource() string {
	return p.referenceURL()
}

// Render implements Asset.
func (p *PictureSource) Render(ctx context.Context) (string, error) {
	return renderAsset(ctx, p.InsertionType(), p)
}

// mimeType derives the media type from the extension, sniffing the content
// when there is none.
func (p *PictureSource) mimeType(data []byte) string {
	name := p.url
	if p.URLType() == URLLink {
		if u, err := url.Parse(p.url); err == nil {
			name = u.Path
		}
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filepath.ToSlash(name)), "."))
	switch ext {
	case "":
		mt := mimetype.Detect(data).String()
		if i := strings.IndexByte(mt, ';'); i >= 0 {
			mt = mt[:i]
		}
		return mt
	case "jpg":
		ext = "jpeg"
	case "svg":
		ext = "svg+xml"
	}
	return "image/" + ext
}

package mdconv

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-mdconv/internal/fileutil"
	"github.com/alnah/go-mdconv/internal/pipeline"
	"github.com/alnah/go-mdconv/internal/process"
)

// DefaultTimeout bounds page loading when the context has no deadline.
const DefaultTimeout = 30 * time.Second

// PrintOptions describes one PDF print.
type PrintOptions struct {
	Paper  Paper
	Header string // rendered header HTML; empty hides it
	Footer string // rendered footer HTML; empty hides it
}

// ImageFormat is a raster output format.
type ImageFormat string

// Supported image formats.
const (
	PNG  ImageFormat = "png"
	JPEG ImageFormat = "jpeg"
)

// ImageOptions describes one screenshot.
type ImageOptions struct {
	Format  ImageFormat
	Quality int // JPEG only, 1-100
	Width   int // viewport width in CSS pixels; 0 keeps the browser default
}

// Renderer turns a complete HTML page into PDF or image bytes.
type Renderer interface {
	PDF(ctx context.Context, html string, opts PrintOptions) ([]byte, error)
	Screenshot(ctx context.Context, html string, opts ImageOptions) ([]byte, error)
	Close() error
}

var _ Renderer = (*ChromeRenderer)(nil)

// Paper sizes in inches, portrait.
var paperSizes = map[PaperFormat][2]float64{
	A3:      {11.69, 16.54},
	A4:      {8.27, 11.69},
	A5:      {5.83, 8.27},
	Legal:   {8.5, 14},
	Letter:  {8.5, 11},
	Tabloid: {11, 17},
}

// cssPixelsPerInch converts px lengths.
const cssPixelsPerInch = 96

var lengthPattern = regexp.MustCompile(`^\s*(\d*\.?\d+)\s*(cm|mm|in|px)?\s*$`)

// ParseLength converts a CSS length to inches. Unitless values are pixels.
func ParseLength(s string) (float64, error) {
	m := lengthPattern.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return 0, fmt.Errorf("%w: %q (use cm, mm, in or px)", ErrInvalidLength, s)
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidLength, s, err)
	}
	switch m[2] {
	case "cm":
		return v / 2.54, nil
	case "mm":
		return v / 25.4, nil
	case "in":
		return v, nil
	}
	return v / cssPixelsPerInch, nil
}

// pageSize returns the page width and height in inches.
func pageSize(p Paper) (width, height float64, err error) {
	opts := p.PDFOptions()
	if opts.Width != "" || opts.Height != "" {
		if width, err = ParseLength(opts.Width); err != nil {
			return 0, 0, err
		}
		if height, err = ParseLength(opts.Height); err != nil {
			return 0, 0, err
		}
		return width, height, nil
	}

	format, err := ParsePaperFormat(opts.Format)
	if err != nil {
		return 0, 0, err
	}
	size := paperSizes[format]
	if opts.Landscape {
		return size[1], size[0], nil
	}
	return size[0], size[1], nil
}

// buildPDFOptions translates Paper and running blocks into Chrome print options.
func buildPDFOptions(opts PrintOptions) (*proto.PagePrintToPDF, error) {
	width, height, err := pageSize(opts.Paper)
	if err != nil {
		return nil, err
	}

	margins := make([]float64, 4)
	for i, m := range []string{opts.Paper.Margin.Top, opts.Paper.Margin.Right, opts.Paper.Margin.Bottom, opts.Paper.Margin.Left} {
		if m == "" {
			m = DefaultMargin
		}
		if margins[i], err = ParseLength(m); err != nil {
			return nil, fmt.Errorf("margin: %w", err)
		}
	}

	pdfOpts := &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(width),
		PaperHeight:     floatPtr(height),
		MarginTop:       floatPtr(margins[0]),
		MarginRight:     floatPtr(margins[1]),
		MarginBottom:    floatPtr(margins[2]),
		MarginLeft:      floatPtr(margins[3]),
		PrintBackground: true,
	}

	if opts.Header != "" || opts.Footer != "" {
		pdfOpts.DisplayHeaderFooter = true
		pdfOpts.HeaderTemplate = orEmptySpan(opts.Header)
		pdfOpts.FooterTemplate = orEmptySpan(opts.Footer)
	}
	return pdfOpts, nil
}

// orEmptySpan keeps Chrome from printing its default title and URL.
func orEmptySpan(s string) string {
	if s == "" {
		return "<span></span>"
	}
	return s
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}

// PageWidthPixels returns the printable page width in CSS pixels, used as
// the screenshot viewport width.
func PageWidthPixels(p Paper) int {
	width, _, err := pageSize(p)
	if err != nil {
		return 0
	}
	left, errL := ParseLength(p.Margin.Left)
	right, errR := ParseLength(p.Margin.Right)
	if errL == nil && errR == nil {
		width -= left + right
	}
	if width <= 0 {
		return 0
	}
	return int(math.Round(width * cssPixelsPerInch))
}

// ChromeRenderer renders pages with headless Chrome via go-rod.
// Rod downloads Chromium on first use if none is found. The browser starts
// lazily and is reused until Close.
type ChromeRenderer struct {
	timeout  time.Duration
	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewChromeRenderer creates a renderer. A zero timeout uses DefaultTimeout.
func NewChromeRenderer(timeout time.Duration) *ChromeRenderer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ChromeRenderer{timeout: timeout}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *ChromeRenderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New()
	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	// NoSandbox required for CI and containerized environments
	if os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("CI") == "true" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.launcher = l
	r.browser = browser
	return browser, nil
}

// Close shuts the browser down and kills leftover Chrome processes.
func (r *ChromeRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		process.KillProcessGroup(r.launcher.PID())
		r.launcher.Kill()
		r.launcher = nil
	}
	return err
}

// openPage writes html to a temp file and loads it, so file:// links in the
// page resolve. The returned cleanup closes the page and removes the file.
func (r *ChromeRenderer) openPage(ctx context.Context, html string) (*rod.Page, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	browser, err := r.ensureBrowser()
	if err != nil {
		return nil, nil, err
	}

	tmpPath, removeTemp, err := fileutil.WriteTempFile(html, "html")
	if err != nil {
		return nil, nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: pipeline.FileURL(tmpPath)})
	if err != nil {
		removeTemp()
		return nil, nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	cleanup := func() {
		_ = page.Close()
		removeTemp()
	}

	// Wait for page to load with timeout from context or default
	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			cleanup()
			return nil, nil, context.DeadlineExceeded
		}
	}
	if err := page.Context(ctx).Timeout(timeout).WaitLoad(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	return page.Context(ctx), cleanup, nil
}

// PDF prints html with the given page setup.
func (r *ChromeRenderer) PDF(ctx context.Context, html string, opts PrintOptions) ([]byte, error) {
	pdfOpts, err := buildPDFOptions(opts)
	if err != nil {
		return nil, err
	}

	page, cleanup, err := r.openPage(ctx, html)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	reader, err := page.PDF(pdfOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return data, nil
}

// buildScreenshotOptions maps ImageOptions to a full-page capture request.
func buildScreenshotOptions(opts ImageOptions) (*proto.PageCaptureScreenshot, error) {
	switch opts.Format {
	case PNG:
		return &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng}, nil
	case JPEG:
		quality := opts.Quality
		if quality <= 0 || quality > 100 {
			quality = DefaultQuality
		}
		return &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatJpeg, Quality: &quality}, nil
	}
	return nil, fmt.Errorf("%w: image format %q", ErrUnsupportedOutput, opts.Format)
}

// Screenshot captures the full page as PNG or JPEG.
func (r *ChromeRenderer) Screenshot(ctx context.Context, html string, opts ImageOptions) ([]byte, error) {
	req, err := buildScreenshotOptions(opts)
	if err != nil {
		return nil, err
	}

	page, cleanup, err := r.openPage(ctx, html)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if opts.Width > 0 {
		if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             opts.Width,
			Height:            opts.Width,
			DeviceScaleFactor: 1,
		}); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrScreenshot, err)
		}
	}

	data, err := page.Screenshot(true, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScreenshot, err)
	}
	return data, nil
}

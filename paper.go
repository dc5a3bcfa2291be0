package mdconv

import (
	"fmt"
	"strings"
)

// DefaultMargin is applied to every side unless overridden.
const DefaultMargin = "1cm"

// Margin holds the four page offsets as CSS length strings ("1cm", "0.5in").
// Values are opaque here; ChromeRenderer parses them when printing.
type Margin struct {
	Top    string
	Right  string
	Bottom string
	Left   string
}

// NewMargin fans positional values out like the CSS margin shorthand:
// one value sets all sides, two set vertical then horizontal, three set
// top, horizontal, bottom, and four set top, right, bottom, left.
// No values yield DefaultMargin; values past the fourth are ignored.
func NewMargin(values ...string) Margin {
	switch len(values) {
	case 0:
		return Margin{DefaultMargin, DefaultMargin, DefaultMargin, DefaultMargin}
	case 1:
		return Margin{values[0], values[0], values[0], values[0]}
	case 2:
		return Margin{values[0], values[1], values[0], values[1]}
	case 3:
		return Margin{values[0], values[1], values[2], values[1]}
	default:
		return Margin{values[0], values[1], values[2], values[3]}
	}
}

// PDFOptions is the page geometry handed to a renderer. Either Format
// (with Landscape) or Width and Height are set.
type PDFOptions struct {
	Format    string
	Landscape bool
	Width     string
	Height    string
}

// PageFormat describes page geometry. PDFOptions must be pure.
type PageFormat interface {
	PDFOptions() PDFOptions
}

// Compile-time interface checks.
var (
	_ PageFormat = StandardizedPageFormat{}
	_ PageFormat = CustomPageFormat{}
)

// PaperFormat names a standard paper size.
type PaperFormat string

// Supported paper formats.
const (
	A3      PaperFormat = "A3"
	A4      PaperFormat = "A4"
	A5      PaperFormat = "A5"
	Legal   PaperFormat = "Legal"
	Letter  PaperFormat = "Letter"
	Tabloid PaperFormat = "Tabloid"
)

var paperFormats = []PaperFormat{A3, A4, A5, Legal, Letter, Tabloid}

// ParsePaperFormat matches s case-insensitively against the supported formats.
func ParsePaperFormat(s string) (PaperFormat, error) {
	for _, f := range paperFormats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q (must be A3, A4, A5, Legal, Letter or Tabloid)", ErrInvalidPageFormat, s)
}

// Orientation is portrait or landscape.
type Orientation string

// Supported orientations.
const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// ParseOrientation matches s case-insensitively.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(s) {
	case string(Portrait):
		return Portrait, nil
	case string(Landscape):
		return Landscape, nil
	}
	return "", fmt.Errorf("%w: %q (must be portrait or landscape)", ErrInvalidOrientation, s)
}

// StandardizedPageFormat is a named paper size with an orientation.
// The zero value is A4 portrait.
type StandardizedPageFormat struct {
	Format      PaperFormat
	Orientation Orientation
}

// NewStandardizedPageFormat validates both values. Empty strings select
// A4 and portrait.
func NewStandardizedPageFormat(format, orientation string) (StandardizedPageFormat, error) {
	pf := StandardizedPageFormat{Format: A4, Orientation: Portrait}
	if format != "" {
		f, err := ParsePaperFormat(format)
		if err != nil {
			return StandardizedPageFormat{}, err
		}
		pf.Format = f
	}
	if orientation != "" {
		o, err := ParseOrientation(orientation)
		if err != nil {
			return StandardizedPageFormat{}, err
		}
		pf.Orientation = o
	}
	return pf, nil
}

// PDFOptions implements PageFormat.
func (f StandardizedPageFormat) PDFOptions() PDFOptions {
	format := f.Format
	if format == "" {
		format = A4
	}
	return PDFOptions{Format: string(format), Landscape: f.Orientation == Landscape}
}

// CustomPageFormat is an explicit page size.
type CustomPageFormat struct {
	Width  string
	Height string
}

// NewCustomPageFormat rejects empty dimensions.
func NewCustomPageFormat(width, height string) (CustomPageFormat, error) {
	if strings.TrimSpace(width) == "" || strings.TrimSpace(height) == "" {
		return CustomPageFormat{}, fmt.Errorf("%w: custom format needs width and height", ErrInvalidPageFormat)
	}
	return CustomPageFormat{Width: width, Height: height}, nil
}

// PDFOptions implements PageFormat.
func (f CustomPageFormat) PDFOptions() PDFOptions {
	return PDFOptions{Width: f.Width, Height: f.Height}
}

// Paper combines margins and page format. Both fields may be replaced after
// construction.
type Paper struct {
	Margin Margin
	Format PageFormat
}

// PaperOption configures a Paper.
type PaperOption func(*Paper)

// WithMargin sets the margins.
func WithMargin(m Margin) PaperOption {
	return func(p *Paper) { p.Margin = m }
}

// WithPageFormat sets the page format. Nil is ignored.
func WithPageFormat(f PageFormat) PaperOption {
	return func(p *Paper) {
		if f != nil {
			p.Format = f
		}
	}
}

// NewPaper returns A4 portrait with DefaultMargin on every side, adjusted by opts.
func NewPaper(opts ...PaperOption) Paper {
	p := Paper{
		Margin: NewMargin(),
		Format: StandardizedPageFormat{Format: A4, Orientation: Portrait},
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// PDFOptions projects the page format. A nil Format projects A4 portrait.
func (p Paper) PDFOptions() PDFOptions {
	if p.Format == nil {
		return StandardizedPageFormat{}.PDFOptions()
	}
	return p.Format.PDFOptions()
}

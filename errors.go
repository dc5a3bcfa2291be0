package mdconv

import (
	"errors"
	"fmt"

	"github.com/alnah/go-mdconv/internal/assets"
	"github.com/alnah/go-mdconv/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	// Document errors.
	ErrFrontMatter    = errors.New("malformed front matter")
	ErrTemplateRender = errors.New("template rendering failed")
	ErrHTMLConversion = pipeline.ErrHTMLConversion

	// Asset errors.
	ErrAssetNotFound = errors.New("asset not found")
	ErrAssetFetch    = errors.New("asset download failed")
	ErrStyleNotFound = assets.ErrStyleNotFound

	// Page settings validation errors.
	ErrInvalidPageFormat  = errors.New("invalid page format")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidLength      = errors.New("invalid length")

	// Output errors.
	ErrBrowserConnect    = errors.New("failed to connect to browser")
	ErrPageCreate        = errors.New("failed to create browser page")
	ErrPageLoad          = errors.New("failed to load page")
	ErrPDFGeneration     = errors.New("PDF generation failed")
	ErrScreenshot        = errors.New("screenshot failed")
	ErrUnsupportedOutput = errors.New("unsupported output type")
	ErrWriteOutput       = errors.New("failed to write output file")
)

// ParseError reports malformed front matter. Line and Column locate the
// problem inside the YAML block (1-based, 0 when unknown). Message is the
// localized text shown to users; the parser diagnostic stays in Err.
type ParseError struct {
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d, column %d): %v", e.Message, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes both ErrFrontMatter and the parser error.
func (e *ParseError) Unwrap() []error {
	return []error{ErrFrontMatter, e.Err}
}

// errorResourceKeys maps sentinels to their localized message key.
var errorResourceKeys = []struct {
	err error
	key string
}{
	{ErrFrontMatter, "errFrontMatter"},
	{ErrAssetNotFound, "errAssetNotFound"},
	{ErrAssetFetch, "errAssetFetch"},
	{ErrInvalidPageFormat, "errInvalidPageFormat"},
	{ErrInvalidOrientation, "errInvalidOrientation"},
}

// LocalizeError returns the user-facing message for err in the given locale.
// Errors without a translation return err.Error().
func LocalizeError(err error, res Resources, locale string) string {
	if err == nil {
		return ""
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Message
	}
	if res == nil {
		res = DefaultResources()
	}
	for _, m := range errorResourceKeys {
		if errors.Is(err, m.err) {
			return res.GetResource(m.key, locale)
		}
	}
	return err.Error()
}

package main

import (
	"context"
	"errors"
	"os"

	"github.com/alnah/go-mdconv"
	"github.com/alnah/go-mdconv/internal/config"
	"github.com/alnah/go-mdconv/internal/hints"
	"github.com/alnah/go-mdconv/internal/logging"
)

// Exit codes for the mdconv CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
	ExitContent = 5 // Malformed front matter, templates or assets
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, mdconv.ErrBrowserConnect) ||
		errors.Is(err, mdconv.ErrPageCreate) ||
		errors.Is(err, mdconv.ErrPageLoad) ||
		errors.Is(err, mdconv.ErrPDFGeneration) ||
		errors.Is(err, mdconv.ErrScreenshot) {
		return ExitBrowser
	}

	// Content errors (exit 5)
	if errors.Is(err, mdconv.ErrFrontMatter) ||
		errors.Is(err, mdconv.ErrTemplateRender) ||
		errors.Is(err, mdconv.ErrHTMLConversion) ||
		errors.Is(err, mdconv.ErrAssetNotFound) ||
		errors.Is(err, mdconv.ErrAssetFetch) {
		return ExitContent
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, mdconv.ErrWriteOutput) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, logging.ErrInvalidLevel) ||
		errors.Is(err, mdconv.ErrInvalidPageFormat) ||
		errors.Is(err, mdconv.ErrInvalidOrientation) ||
		errors.Is(err, mdconv.ErrInvalidLength) ||
		errors.Is(err, mdconv.ErrUnsupportedOutput) ||
		errors.Is(err, mdconv.ErrInvalidAssetPath) ||
		errors.Is(err, mdconv.ErrStyleNotFound) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrOutputCollision) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	var pe *mdconv.ParseError
	switch {
	case errors.As(err, &pe):
		return hints.ForFrontMatter(pe.Line, pe.Column)
	case errors.Is(err, mdconv.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, mdconv.ErrPageLoad):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(config.SearchPaths("config"))
	case errors.Is(err, mdconv.ErrStyleNotFound):
		return hints.ForStyleNotFound(mdconv.EmbeddedStyles())
	case errors.Is(err, mdconv.ErrAssetNotFound):
		return hints.ForAssetNotFound()
	case errors.Is(err, mdconv.ErrWriteOutput):
		return hints.ForOutputDirectory()
	}
	return ""
}

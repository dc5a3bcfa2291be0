package main

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/alnah/go-mdconv"
)

// localeError records the locale that err is reported in.
type localeError struct {
	err    error
	locale string
}

func (e *localeError) Error() string { return e.err.Error() }
func (e *localeError) Unwrap() error { return e.err }

// fileError is one failed input of a batch.
type fileError struct {
	path string
	err  error
}

// batchError reports the failed files of a batch. It matches
// ErrConversionFailed and every per-file error.
type batchError struct {
	total int
	files []fileError
}

func (e *batchError) Error() string {
	var errs error
	for _, f := range e.files {
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", f.path, f.err))
	}
	return fmt.Sprintf("%v: %d of %d files: %v", ErrConversionFailed, len(e.files), e.total, errs)
}

func (e *batchError) Unwrap() []error {
	errs := []error{ErrConversionFailed}
	for _, f := range e.files {
		errs = append(errs, f.err)
	}
	return errs
}

// userMessage renders err for the terminal, translated into the locale
// carried by a localeError ("en" otherwise). Batch failures list one line
// per file.
func userMessage(err error) string {
	locale := ""
	var le *localeError
	if errors.As(err, &le) {
		locale = le.locale
	}
	res := mdconv.DefaultResources()

	var be *batchError
	if errors.As(err, &be) {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%v: %d of %d files", ErrConversionFailed, len(be.files), be.total)
		for _, f := range be.files {
			fmt.Fprintf(&sb, "\n  %s: %s", f.path, describeError(f.err, res, locale))
		}
		return sb.String()
	}
	return describeError(err, res, locale)
}

// describeError puts the translated message first and keeps the original
// text as detail when they differ.
func describeError(err error, res mdconv.Resources, locale string) string {
	msg := mdconv.LocalizeError(err, res, locale)
	var pe *mdconv.ParseError
	if errors.As(err, &pe) {
		if pe.Err == nil {
			return msg
		}
		return fmt.Sprintf("%s (%v)", msg, pe.Err)
	}
	if detail := err.Error(); msg != detail {
		return fmt.Sprintf("%s (%s)", msg, detail)
	}
	return msg
}

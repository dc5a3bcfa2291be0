package mdconv

// Notes:
// - ChromeRenderer.PDF and Screenshot need a browser; these tests cover the
//   option building only

import (
	"errors"
	"math"
	"testing"

	"github.com/go-rod/rod/lib/proto"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestParseLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"1in", 1, false},
		{"2.54cm", 1, false},
		{"25.4mm", 1, false},
		{"96px", 1, false},
		{"48", 0.5, false},
		{" 1.5 IN ", 1.5, false},
		{".5in", 0.5, false},
		{"", 0, true},
		{"1em", 0, true},
		{"-1cm", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseLength(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLength) {
					t.Errorf("ParseLength(%q) error = %v, want ErrInvalidLength", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLength(%q) error = %v", tt.in, err)
			}
			if !approx(got, tt.want) {
				t.Errorf("ParseLength(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildPDFOptions(t *testing.T) {
	t.Parallel()

	t.Run("landscape swaps dimensions", func(t *testing.T) {
		t.Parallel()

		opts, err := buildPDFOptions(PrintOptions{Paper: NewPaper(
			WithPageFormat(StandardizedPageFormat{Format: Letter, Orientation: Landscape}),
			WithMargin(NewMargin("1in", "2.54cm")),
		)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !approx(*opts.PaperWidth, 11) || !approx(*opts.PaperHeight, 8.5) {
			t.Errorf("size = %vx%v, want 11x8.5", *opts.PaperWidth, *opts.PaperHeight)
		}
		if !approx(*opts.MarginTop, 1) || !approx(*opts.MarginLeft, 1) {
			t.Errorf("margins = %v/%v, want 1/1", *opts.MarginTop, *opts.MarginLeft)
		}
		if opts.DisplayHeaderFooter {
			t.Error("DisplayHeaderFooter = true without header or footer")
		}
		if !opts.PrintBackground {
			t.Error("PrintBackground = false")
		}
	})

	t.Run("custom format and footer only", func(t *testing.T) {
		t.Parallel()

		opts, err := buildPDFOptions(PrintOptions{
			Paper:  NewPaper(WithPageFormat(CustomPageFormat{Width: "96px", Height: "2in"})),
			Footer: "<b>f</b>",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !approx(*opts.PaperWidth, 1) || !approx(*opts.PaperHeight, 2) {
			t.Errorf("size = %vx%v, want 1x2", *opts.PaperWidth, *opts.PaperHeight)
		}
		if !opts.DisplayHeaderFooter {
			t.Error("DisplayHeaderFooter = false")
		}
		if opts.HeaderTemplate != "<span></span>" {
			t.Errorf("HeaderTemplate = %q, want empty span", opts.HeaderTemplate)
		}
		if opts.FooterTemplate != "<b>f</b>" {
			t.Errorf("FooterTemplate = %q", opts.FooterTemplate)
		}
	})

	t.Run("invalid margin", func(t *testing.T) {
		t.Parallel()

		_, err := buildPDFOptions(PrintOptions{Paper: NewPaper(WithMargin(NewMargin("wide")))})
		if !errors.Is(err, ErrInvalidLength) {
			t.Errorf("error = %v, want ErrInvalidLength", err)
		}
	})

	t.Run("invalid custom width", func(t *testing.T) {
		t.Parallel()

		_, err := buildPDFOptions(PrintOptions{Paper: NewPaper(WithPageFormat(CustomPageFormat{Width: "x", Height: "1in"}))})
		if !errors.Is(err, ErrInvalidLength) {
			t.Errorf("error = %v, want ErrInvalidLength", err)
		}
	})
}

func TestBuildScreenshotOptions(t *testing.T) {
	t.Parallel()

	png, err := buildScreenshotOptions(ImageOptions{Format: PNG, Quality: 50})
	if err != nil {
		t.Fatalf("png: %v", err)
	}
	if png.Format != proto.PageCaptureScreenshotFormatPng || png.Quality != nil {
		t.Errorf("png options = %+v, want png without quality", png)
	}

	jpeg, err := buildScreenshotOptions(ImageOptions{Format: JPEG})
	if err != nil {
		t.Fatalf("jpeg: %v", err)
	}
	if jpeg.Format != proto.PageCaptureScreenshotFormatJpeg || jpeg.Quality == nil || *jpeg.Quality != DefaultQuality {
		t.Errorf("jpeg options = %+v, want quality %d", jpeg, DefaultQuality)
	}

	if _, err := buildScreenshotOptions(ImageOptions{Format: "gif"}); !errors.Is(err, ErrUnsupportedOutput) {
		t.Errorf("gif error = %v, want ErrUnsupportedOutput", err)
	}
}

func TestPageWidthPixels(t *testing.T) {
	t.Parallel()

	p := NewPaper(
		WithPageFormat(StandardizedPageFormat{Format: Letter}),
		WithMargin(NewMargin("0.5in")),
	)
	if got := PageWidthPixels(p); got != 720 {
		t.Errorf("PageWidthPixels() = %d, want 720", got)
	}

	p.Format = CustomPageFormat{Width: "bad", Height: "1in"}
	if got := PageWidthPixels(p); got != 0 {
		t.Errorf("PageWidthPixels(invalid) = %d, want 0", got)
	}
}

func TestChromeRenderer_CloseWithoutBrowser(t *testing.T) {
	t.Parallel()

	r := NewChromeRenderer(0)
	if r.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", r.timeout, DefaultTimeout)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

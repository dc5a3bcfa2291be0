package main

import (
	"errors"
	"io"
	"slices"
	"testing"

	"github.com/alnah/go-mdconv"
	"github.com/alnah/go-mdconv/internal/config"
)

func mustParseFlags(t *testing.T, args ...string) (*cliFlags, []string) {
	t.Helper()
	f, inputs, err := parseFlags(args, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags(%v) error: %v", args, err)
	}
	return f, inputs
}

// ---------------------------------------------------------------------------
// TestParseFlags - flag parsing and change tracking
// ---------------------------------------------------------------------------

func TestParseFlags(t *testing.T) {
	t.Parallel()

	f, inputs := mustParseFlags(t,
		"-o", "out", "-t", "html,png", "-w", "2", "--timeout", "1m",
		"-p", "letter", "--margin", "1cm,2cm", "--css", "a.css", "--css", "https://x/b.css",
		"--toc=false", "--no-header-footer", "a.md", "docs")

	if !slices.Equal(inputs, []string{"a.md", "docs"}) {
		t.Errorf("inputs = %v", inputs)
	}
	if f.outputDir != "out" || f.workers != 2 || f.page.format != "letter" {
		t.Errorf("unexpected flags: %+v", f)
	}
	if !slices.Equal(f.types, []string{"html", "png"}) {
		t.Errorf("types = %v", f.types)
	}
	if !slices.Equal(f.page.margin, []string{"1cm", "2cm"}) {
		t.Errorf("margin = %v", f.page.margin)
	}
	if !slices.Equal(f.assets.styleSheets, []string{"a.css", "https://x/b.css"}) {
		t.Errorf("css = %v", f.assets.styleSheets)
	}
	for _, name := range []string{"output-dir", "type", "toc", "no-header-footer", "css"} {
		if !f.changed[name] {
			t.Errorf("changed[%q] = false, want true", name)
		}
	}
	if f.changed["locale"] {
		t.Error("unset flag reported as changed")
	}
}

// ---------------------------------------------------------------------------
// TestMergeFlags - only explicit flags override the config
// ---------------------------------------------------------------------------

func TestMergeFlags(t *testing.T) {
	t.Parallel()

	t.Run("unset flags keep config", func(t *testing.T) {
		t.Parallel()

		f, _ := mustParseFlags(t)
		cfg := config.DefaultConfig()
		cfg.Output.Dir = "/from-file"
		mergeFlags(f, cfg)

		if cfg.Output.Dir != "/from-file" {
			t.Errorf("Output.Dir = %q, want /from-file", cfg.Output.Dir)
		}
		if !cfg.TOC.Enabled || !cfg.HeaderFooter.Enabled {
			t.Error("toggles should keep config values")
		}
	})

	t.Run("zero values still override", func(t *testing.T) {
		t.Parallel()

		f, _ := mustParseFlags(t, "--toc=false", "--no-header-footer", "--style", "none")
		cfg := config.DefaultConfig()
		mergeFlags(f, cfg)

		if cfg.TOC.Enabled {
			t.Error("TOC should be disabled")
		}
		if cfg.HeaderFooter.Enabled {
			t.Error("header/footer should be disabled")
		}
		if cfg.Assets.Style != "none" {
			t.Errorf("Style = %q, want none", cfg.Assets.Style)
		}
	})

	t.Run("paper clears custom size", func(t *testing.T) {
		t.Parallel()

		f, _ := mustParseFlags(t, "-p", "A5", "--orientation", "landscape")
		cfg := config.DefaultConfig()
		cfg.Paper.Width, cfg.Paper.Height = "10cm", "20cm"
		mergeFlags(f, cfg)

		if cfg.Paper.Width != "" || cfg.Paper.Height != "" {
			t.Errorf("custom size kept: %q x %q", cfg.Paper.Width, cfg.Paper.Height)
		}
		if cfg.Paper.Format != "A5" || cfg.Paper.Orientation != "landscape" {
			t.Errorf("Paper = %+v", cfg.Paper)
		}
	})

	t.Run("assets append", func(t *testing.T) {
		t.Parallel()

		f, _ := mustParseFlags(t, "--css", "extra.css", "--script", "app.js")
		cfg := config.DefaultConfig()
		cfg.Assets.StyleSheets = []config.AssetConfig{{URL: "base.css"}}
		mergeFlags(f, cfg)

		if len(cfg.Assets.StyleSheets) != 2 || cfg.Assets.StyleSheets[1].URL != "extra.css" {
			t.Errorf("StyleSheets = %+v", cfg.Assets.StyleSheets)
		}
		if len(cfg.Assets.Scripts) != 1 || cfg.Assets.Scripts[0].URL != "app.js" {
			t.Errorf("Scripts = %+v", cfg.Assets.Scripts)
		}
	})
}

// ---------------------------------------------------------------------------
// TestBuildSettings - config to converter settings
// ---------------------------------------------------------------------------

func TestBuildSettings(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		s, err := buildSettings(config.DefaultConfig())
		if err != nil {
			t.Fatalf("buildSettings() error: %v", err)
		}
		if got := s.Paper.PDFOptions(); got.Format != "A4" || got.Landscape {
			t.Errorf("PDFOptions = %+v, want A4 portrait", got)
		}
		// The config default matches a Paper built without options.
		if want := mdconv.NewPaper().Margin; s.Paper.Margin != want {
			t.Errorf("Margin = %+v, want %+v", s.Paper.Margin, want)
		}
		if s.Paper.Margin.Left != mdconv.DefaultMargin {
			t.Errorf("Margin.Left = %q, want %q", s.Paper.Margin.Left, mdconv.DefaultMargin)
		}
		if s.Header.Center != "{{Title}}" || !s.HeaderFooterEnabled {
			t.Errorf("header = %+v enabled=%v", s.Header, s.HeaderFooterEnabled)
		}
		if s.Parser.TOC == nil || s.Parser.TOC.ContainerClass != "table-of-contents" {
			t.Errorf("TOC = %+v", s.Parser.TOC)
		}
		if s.Quality != 90 {
			t.Errorf("Quality = %d, want 90", s.Quality)
		}
	})

	t.Run("custom values", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Paper.Width, cfg.Paper.Height = "8in", "10in"
		cfg.TOC = config.TOCConfig{Enabled: true, MinLevel: 2, MaxLevel: 3, Ordered: true, Indicator: `^\[\[contents\]\]$`}
		cfg.Dates = config.DatesConfig{Locale: "de", Default: "DD.MM.YYYY", Formats: map[string]string{"short": "D.M."}}
		cfg.Assets.Pictures = map[string]config.AssetConfig{"Logo": {URL: "logo.png", Insertion: "include"}}
		cfg.Assets.Scripts = []config.AssetConfig{{URL: "app.js", Insertion: "link"}}

		s, err := buildSettings(cfg)
		if err != nil {
			t.Fatalf("buildSettings() error: %v", err)
		}
		if got := s.Paper.PDFOptions(); got.Width != "8in" || got.Height != "10in" {
			t.Errorf("PDFOptions = %+v", got)
		}
		toc := s.Parser.TOC
		if toc == nil || toc.ListType != mdconv.OrderedList || toc.Levels.Min != 2 || toc.Levels.Max != 3 {
			t.Fatalf("TOC = %+v", toc)
		}
		if toc.ContainerClass != mdconv.DefaultTOCContainerClass {
			t.Errorf("ContainerClass = %q", toc.ContainerClass)
		}
		if !toc.Indicator.MatchString("[[contents]]") {
			t.Error("indicator not compiled from config")
		}
		if s.Locale != "de" || s.DefaultDateFormat != "DD.MM.YYYY" || s.DateFormats["short"] != "D.M." {
			t.Errorf("dates = %q %q %v", s.Locale, s.DefaultDateFormat, s.DateFormats)
		}
		if s.Pictures["Logo"].Insertion != mdconv.InsertionInclude {
			t.Errorf("Pictures = %+v", s.Pictures)
		}
		if len(s.Scripts) != 1 || s.Scripts[0].Insertion != mdconv.InsertionLink {
			t.Errorf("Scripts = %+v", s.Scripts)
		}
	})

	t.Run("toc disabled", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.TOC.Enabled = false
		s, err := buildSettings(cfg)
		if err != nil {
			t.Fatalf("buildSettings() error: %v", err)
		}
		if s.Parser.TOC != nil {
			t.Error("TOC should be nil when disabled")
		}
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name    string
			mutate  func(*config.Config)
			wantErr error
		}{
			{"paper format", func(c *config.Config) { c.Paper.Format = "B5" }, mdconv.ErrInvalidPageFormat},
			{"orientation", func(c *config.Config) { c.Paper.Orientation = "diagonal" }, mdconv.ErrInvalidOrientation},
			{"custom without height", func(c *config.Config) { c.Paper.Width = "1in" }, mdconv.ErrInvalidPageFormat},
			{"insertion", func(c *config.Config) {
				c.Assets.StyleSheets = []config.AssetConfig{{URL: "a.css", Insertion: "inline"}}
			}, config.ErrInvalidValue},
			{"indicator", func(c *config.Config) { c.TOC.Indicator = "[" }, config.ErrInvalidValue},
		}
		for _, tt := range tests {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			if _, err := buildSettings(cfg); !errors.Is(err, tt.wantErr) {
				t.Errorf("%s: error = %v, want %v", tt.name, err, tt.wantErr)
			}
		}
	})
}

// ---------------------------------------------------------------------------
// TestOutputTypes - parsing with PDF default and deduplication
// ---------------------------------------------------------------------------

func TestOutputTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      []string
		want    []mdconv.OutputType
		wantErr error
	}{
		{"default", nil, []mdconv.OutputType{mdconv.OutputPDF}, nil},
		{"dedupe", []string{"jpg", "PDF", "jpeg"}, []mdconv.OutputType{mdconv.OutputJPEG, mdconv.OutputPDF}, nil},
		{"unsupported", []string{"html", "docx"}, nil, mdconv.ErrUnsupportedOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := outputTypes(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("outputTypes(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

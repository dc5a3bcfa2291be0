package main

import (
	"fmt"
	"regexp"

	"github.com/alnah/go-mdconv"
	"github.com/alnah/go-mdconv/internal/config"
)

// mergeFlags copies explicitly set CLI flags into cfg (CLI wins).
func mergeFlags(f *cliFlags, cfg *config.Config) {
	if f.changed["output-dir"] {
		cfg.Output.Dir = f.outputDir
	}
	if f.changed["type"] {
		cfg.Output.Types = f.types
	}
	if f.changed["quality"] {
		cfg.Output.Quality = f.quality
	}
	if f.changed["log-level"] {
		cfg.Logging.Level = f.logLevel
	}

	if f.changed["paper"] {
		cfg.Paper.Format = f.page.format
		cfg.Paper.Width, cfg.Paper.Height = "", ""
	}
	if f.changed["orientation"] {
		cfg.Paper.Orientation = f.page.orientation
	}
	if f.changed["width"] {
		cfg.Paper.Width = f.page.width
	}
	if f.changed["height"] {
		cfg.Paper.Height = f.page.height
	}
	if f.changed["margin"] {
		cfg.Paper.Margin = f.page.margin
	}
	if f.changed["no-header-footer"] {
		cfg.HeaderFooter.Enabled = !f.noHeaderFooter
	}

	if f.changed["toc"] {
		cfg.TOC.Enabled = f.toc
	}
	if f.changed["locale"] {
		cfg.Dates.Locale = f.locale
	}
	if f.changed["date-format"] {
		cfg.Dates.Default = f.dateFormat
	}

	if f.changed["style"] {
		cfg.Assets.Style = f.assets.style
	}
	for _, u := range f.assets.styleSheets {
		cfg.Assets.StyleSheets = append(cfg.Assets.StyleSheets, config.AssetConfig{URL: u})
	}
	for _, u := range f.assets.scripts {
		cfg.Assets.Scripts = append(cfg.Assets.Scripts, config.AssetConfig{URL: u})
	}
	if f.changed["asset-path"] {
		cfg.Assets.BasePath = f.assets.assetPath
	}
}

// buildSettings converts a validated config into converter settings.
func buildSettings(cfg *config.Config) (mdconv.Settings, error) {
	s := mdconv.DefaultSettings()

	paper, err := buildPaper(cfg.Paper)
	if err != nil {
		return s, err
	}
	s.Paper = paper

	s.HeaderFooterEnabled = cfg.HeaderFooter.Enabled
	s.Header = mdconv.Sections(cfg.HeaderFooter.Header)
	s.Footer = mdconv.Sections(cfg.HeaderFooter.Footer)

	if cfg.Dates.Locale != "" {
		s.Locale = cfg.Dates.Locale
	}
	if cfg.Dates.Default != "" {
		s.DefaultDateFormat = cfg.Dates.Default
	}
	s.DateFormats = cfg.Dates.Formats

	s.Style = cfg.Assets.Style
	if s.StyleSheets, err = assetSpecs(cfg.Assets.StyleSheets); err != nil {
		return s, err
	}
	if s.Scripts, err = assetSpecs(cfg.Assets.Scripts); err != nil {
		return s, err
	}
	if len(cfg.Assets.Pictures) > 0 {
		s.Pictures = make(map[string]mdconv.AssetSpec, len(cfg.Assets.Pictures))
		for name, p := range cfg.Assets.Pictures {
			spec, err := assetSpec(p)
			if err != nil {
				return s, fmt.Errorf("picture %s: %w", name, err)
			}
			s.Pictures[name] = spec
		}
	}

	if s.Parser, err = buildParserOptions(cfg.Parser, cfg.TOC); err != nil {
		return s, err
	}
	s.Attributes = cfg.Attributes
	if cfg.Output.Quality > 0 {
		s.Quality = cfg.Output.Quality
	}
	return s, nil
}

// buildPaper selects a custom format when width and height are set.
func buildPaper(pc config.PaperConfig) (mdconv.Paper, error) {
	var format mdconv.PageFormat
	if pc.Width != "" || pc.Height != "" {
		custom, err := mdconv.NewCustomPageFormat(pc.Width, pc.Height)
		if err != nil {
			return mdconv.Paper{}, err
		}
		format = custom
	} else {
		std, err := mdconv.NewStandardizedPageFormat(pc.Format, pc.Orientation)
		if err != nil {
			return mdconv.Paper{}, err
		}
		format = std
	}
	return mdconv.NewPaper(
		mdconv.WithPageFormat(format),
		mdconv.WithMargin(mdconv.NewMargin(pc.Margin...)),
	), nil
}

// buildParserOptions keeps the library defaults for options the config
// file does not cover.
func buildParserOptions(pc config.ParserConfig, tc config.TOCConfig) (mdconv.ParserOptions, error) {
	opts := mdconv.DefaultParserOptions()
	opts.HTML = pc.HTML
	opts.HardWraps = pc.HardWraps
	opts.Highlight = pc.Highlight
	if pc.HighlightStyle != "" {
		opts.HighlightStyle = pc.HighlightStyle
	}
	opts.Marks = pc.Marks
	opts.Anchors = pc.Anchors

	if !tc.Enabled {
		opts.TOC = nil
		return opts, nil
	}
	toc := &mdconv.TOCOptions{
		ContainerClass: tc.ContainerClass,
		Levels:         mdconv.Levels{Min: tc.MinLevel, Max: tc.MaxLevel},
	}
	if toc.ContainerClass == "" {
		toc.ContainerClass = mdconv.DefaultTOCContainerClass
	}
	if tc.Ordered {
		toc.ListType = mdconv.OrderedList
	}
	if tc.Indicator != "" {
		re, err := regexp.Compile(tc.Indicator)
		if err != nil {
			return opts, fmt.Errorf("%w: toc.indicator: %v", config.ErrInvalidValue, err)
		}
		toc.Indicator = re
	}
	opts.TOC = toc
	return opts, nil
}

func assetSpecs(list []config.AssetConfig) ([]mdconv.AssetSpec, error) {
	specs := make([]mdconv.AssetSpec, 0, len(list))
	for _, ac := range list {
		spec, err := assetSpec(ac)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func assetSpec(ac config.AssetConfig) (mdconv.AssetSpec, error) {
	insertion, err := mdconv.ParseInsertionType(ac.Insertion)
	if err != nil {
		return mdconv.AssetSpec{}, fmt.Errorf("%w: %s: %v", config.ErrInvalidValue, ac.URL, err)
	}
	return mdconv.AssetSpec{URL: ac.URL, Insertion: insertion}, nil
}

// outputTypes parses the configured output types, defaulting to PDF.
func outputTypes(names []string) ([]mdconv.OutputType, error) {
	if len(names) == 0 {
		return []mdconv.OutputType{mdconv.OutputPDF}, nil
	}
	seen := map[mdconv.OutputType]bool{}
	var types []mdconv.OutputType
	for _, name := range names {
		t, err := mdconv.ParseOutputType(name)
		if err != nil {
			return nil, err
		}
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	return types, nil
}

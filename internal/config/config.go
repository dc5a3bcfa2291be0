package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/alnah/go-mdconv/internal/fileutil"
	"github.com/alnah/go-mdconv/internal/logging"
	"github.com/alnah/go-mdconv/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// AppDir is the directory name under os.UserConfigDir searched for configs.
const AppDir = "go-mdconv"

// Field length limits.
const (
	MaxURLLength         = 2048 // Browser limit
	MaxLengthUnitLength  = 20   // "21cm", "8.5in"
	MaxPageFormatLength  = 10   // "letter", "a4", "tabloid"
	MaxOrientationLength = 10   // "portrait", "landscape"
	MaxSectionLength     = 1000 // header/footer section template
	MaxDateFormatLength  = 100
	MaxLocaleLength      = 35 // BCP 47 practical maximum
	MaxClassLength       = 100
	MaxPatternLength     = 200
)

// Config holds all settings for a conversion run.
type Config struct {
	Paper        PaperConfig        `yaml:"paper"`
	HeaderFooter HeaderFooterConfig `yaml:"headerFooter"`
	Dates        DatesConfig        `yaml:"dates"`
	Assets       AssetsConfig       `yaml:"assets"`
	Parser       ParserConfig       `yaml:"parser"`
	TOC          TOCConfig          `yaml:"toc"`
	Output       OutputConfig       `yaml:"output"`
	Logging      logging.Config     `yaml:"logging"`
	Attributes   map[string]any     `yaml:"attributes"` // defaults; front matter wins
}

// PaperConfig defines page geometry. Width and Height select a custom
// format and take precedence over Format.
type PaperConfig struct {
	Format      string   `yaml:"format"`      // A3, A4, A5, Legal, Letter, Tabloid
	Orientation string   `yaml:"orientation"` // portrait, landscape
	Width       string   `yaml:"width"`
	Height      string   `yaml:"height"`
	Margin      []string `yaml:"margin"` // 1, 2, 3 or 4 CSS lengths
}

// HeaderFooterConfig defines the running header and footer.
type HeaderFooterConfig struct {
	Enabled bool           `yaml:"enabled"`
	Header  SectionsConfig `yaml:"header"`
	Footer  SectionsConfig `yaml:"footer"`
}

// SectionsConfig holds the three templated cells of a running block.
type SectionsConfig struct {
	Left   string `yaml:"left"`
	Center string `yaml:"center"`
	Right  string `yaml:"right"`
}

// DatesConfig defines date rendering.
type DatesConfig struct {
	Locale  string            `yaml:"locale"`  // BCP 47 tag, e.g. "en", "de-CH"
	Default string            `yaml:"default"` // format name or pattern
	Formats map[string]string `yaml:"formats"` // custom named formats
}

// AssetConfig describes one stylesheet, script or picture.
type AssetConfig struct {
	URL       string `yaml:"url"`
	Insertion string `yaml:"insertion"` // default, link, include
}

// AssetsConfig defines template and asset sources.
type AssetsConfig struct {
	BasePath    string                 `yaml:"basePath"` // Empty = embedded assets only
	Style       string                 `yaml:"style"`    // built-in style name; "none" disables it
	StyleSheets []AssetConfig          `yaml:"styleSheets"`
	Scripts     []AssetConfig          `yaml:"scripts"`
	Pictures    map[string]AssetConfig `yaml:"pictures"` // exposed as document attributes
}

// ParserConfig toggles Markdown features.
type ParserConfig struct {
	HTML           bool   `yaml:"html"`
	HardWraps      bool   `yaml:"hardWraps"`
	Highlight      bool   `yaml:"highlight"`
	HighlightStyle string `yaml:"highlightStyle"`
	Marks          bool   `yaml:"marks"`
	Anchors        bool   `yaml:"anchors"`
}

// TOCConfig defines the table of contents plugin.
type TOCConfig struct {
	Enabled        bool   `yaml:"enabled"`
	ContainerClass string `yaml:"containerClass"`
	MinLevel       int    `yaml:"minLevel"` // 1-6
	MaxLevel       int    `yaml:"maxLevel"` // 1-6
	Ordered        bool   `yaml:"ordered"`
	Indicator      string `yaml:"indicator"` // regular expression
}

// OutputConfig defines what gets written.
type OutputConfig struct {
	Types   []string `yaml:"types"`   // html, pdf, png, jpeg
	Dir     string   `yaml:"dir"`     // Empty = next to the source
	Quality int      `yaml:"quality"` // JPEG quality 1-100
}

// Validate checks field values and lengths.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("paper.format", c.Paper.Format, MaxPageFormatLength); err != nil {
		return err
	}
	if err := validateFieldLength("paper.orientation", c.Paper.Orientation, MaxOrientationLength); err != nil {
		return err
	}
	if err := validateFieldLength("paper.width", c.Paper.Width, MaxLengthUnitLength); err != nil {
		return err
	}
	if err := validateFieldLength("paper.height", c.Paper.Height, MaxLengthUnitLength); err != nil {
		return err
	}
	if (c.Paper.Width == "") != (c.Paper.Height == "") {
		return fmt.Errorf("%w: paper.width and paper.height must be set together", ErrInvalidValue)
	}
	if len(c.Paper.Margin) > 4 {
		return fmt.Errorf("%w: paper.margin: at most 4 values, got %d", ErrInvalidValue, len(c.Paper.Margin))
	}
	for i, m := range c.Paper.Margin {
		if err := validateFieldLength(fmt.Sprintf("paper.margin[%d]", i), m, MaxLengthUnitLength); err != nil {
			return err
		}
	}

	for prefix, s := range map[string]SectionsConfig{
		"headerFooter.header": c.HeaderFooter.Header,
		"headerFooter.footer": c.HeaderFooter.Footer,
	} {
		for name, v := range map[string]string{"left": s.Left, "center": s.Center, "right": s.Right} {
			if err := validateFieldLength(prefix+"."+name, v, MaxSectionLength); err != nil {
				return err
			}
		}
	}

	if err := validateFieldLength("dates.locale", c.Dates.Locale, MaxLocaleLength); err != nil {
		return err
	}
	if err := validateFieldLength("dates.default", c.Dates.Default, MaxDateFormatLength); err != nil {
		return err
	}
	for name, pattern := range c.Dates.Formats {
		if err := validateFieldLength("dates.formats."+name, pattern, MaxDateFormatLength); err != nil {
			return err
		}
	}

	if err := c.Assets.validate(); err != nil {
		return err
	}
	if err := c.TOC.validate(); err != nil {
		return err
	}
	if err := c.Output.validate(); err != nil {
		return err
	}
	return c.Logging.Validate()
}

func (a AssetsConfig) validate() error {
	check := func(field string, ac AssetConfig) error {
		if ac.URL == "" {
			return fmt.Errorf("%w: %s.url is required", ErrInvalidValue, field)
		}
		if err := validateFieldLength(field+".url", ac.URL, MaxURLLength); err != nil {
			return err
		}
		switch strings.ToLower(ac.Insertion) {
		case "", "default", "link", "include":
			return nil
		}
		return fmt.Errorf("%w: %s.insertion %q (must be default, link or include)", ErrInvalidValue, field, ac.Insertion)
	}

	for i, s := range a.StyleSheets {
		if err := check(fmt.Sprintf("assets.styleSheets[%d]", i), s); err != nil {
			return err
		}
	}
	for i, s := range a.Scripts {
		if err := check(fmt.Sprintf("assets.scripts[%d]", i), s); err != nil {
			return err
		}
	}
	for name, p := range a.Pictures {
		if err := check("assets.pictures."+name, p); err != nil {
			return err
		}
	}
	return nil
}

func (t TOCConfig) validate() error {
	if err := validateFieldLength("toc.containerClass", t.ContainerClass, MaxClassLength); err != nil {
		return err
	}
	for name, level := range map[string]int{"toc.minLevel": t.MinLevel, "toc.maxLevel": t.MaxLevel} {
		if level < 0 || level > 6 {
			return fmt.Errorf("%w: %s: must be between 1 and 6, got %d", ErrInvalidValue, name, level)
		}
	}
	if t.MinLevel != 0 && t.MaxLevel != 0 && t.MinLevel > t.MaxLevel {
		return fmt.Errorf("%w: toc.minLevel %d exceeds toc.maxLevel %d", ErrInvalidValue, t.MinLevel, t.MaxLevel)
	}
	if t.Indicator != "" {
		if err := validateFieldLength("toc.indicator", t.Indicator, MaxPatternLength); err != nil {
			return err
		}
		if _, err := regexp.Compile(t.Indicator); err != nil {
			return fmt.Errorf("%w: toc.indicator: %v", ErrInvalidValue, err)
		}
	}
	return nil
}

func (o OutputConfig) validate() error {
	for _, typ := range o.Types {
		switch strings.ToLower(typ) {
		case "html", "pdf", "png", "jpeg", "jpg":
		default:
			return fmt.Errorf("%w: output.types: unsupported type %q", ErrInvalidValue, typ)
		}
	}
	if o.Quality < 0 || o.Quality > 100 {
		return fmt.Errorf("%w: output.quality: must be between 1 and 100, got %d", ErrInvalidValue, o.Quality)
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() *Config {
	return &Config{
		Paper: PaperConfig{
			Format:      "A4",
			Orientation: "portrait",
			Margin:      []string{"1cm"}, // same as the library's DefaultMargin
		},
		HeaderFooter: HeaderFooterConfig{
			Enabled: true,
			Header: SectionsConfig{
				Left:   "{{Author}}",
				Center: "{{Title}}",
				Right:  "{{CurrentDate}}",
			},
			Footer: SectionsConfig{
				Left:  "{{CreationDate}}",
				Right: `<span class="pageNumber"></span>/<span class="totalPages"></span>`,
			},
		},
		Dates: DatesConfig{
			Locale:  "en",
			Default: "long",
		},
		Assets: AssetsConfig{Style: "default"},
		Parser: ParserConfig{
			HTML:      true,
			Highlight: true,
			Marks:     true,
			Anchors:   true,
		},
		TOC: TOCConfig{
			Enabled:        true,
			ContainerClass: "table-of-contents",
		},
		Output: OutputConfig{
			Types:   []string{"pdf"},
			Quality: 90,
		},
		Logging: logging.Config{Level: logging.LevelNormal},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's searched for in SearchPaths. Values missing from the file
// keep their DefaultConfig value.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !isFilePath(nameOrPath) {
		var err error
		if configPath, err = resolveConfigPath(nameOrPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// SearchPaths lists where a config name is looked up, in order: the
// current directory, then the user config directory, .yaml before .yml.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, AppDir, name+ext))
		}
	}
	return paths
}

func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}

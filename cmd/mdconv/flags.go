package main

import (
	"io"
	"time"

	flag "github.com/spf13/pflag"
)

// pageFlags holds page layout flags.
type pageFlags struct {
	format      string
	orientation string
	width       string
	height      string
	margin      []string
}

// assetFlags holds stylesheet, script and template source flags.
type assetFlags struct {
	style       string
	styleSheets []string
	scripts     []string
	assetPath   string
}

// cliFlags holds all flags of the convert command.
type cliFlags struct {
	config    string
	outputDir string
	types     []string
	workers   int
	timeout   time.Duration
	quality   int
	logLevel  string
	version   bool

	page   pageFlags
	assets assetFlags

	noHeaderFooter bool
	toc            bool
	locale         string
	dateFormat     string

	// changed records flags set on the command line, so zero values can
	// still override the config file.
	changed map[string]bool
}

// addPageFlags adds page layout flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVarP(&f.format, "paper", "p", "", "paper format: A3, A4, A5, Legal, Letter, Tabloid")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.StringVar(&f.width, "width", "", "custom paper width, e.g. 21cm (needs --height)")
	fs.StringVar(&f.height, "height", "", "custom paper height, e.g. 29.7cm (needs --width)")
	fs.StringSliceVar(&f.margin, "margin", nil, "page margins, 1 to 4 CSS lengths: 1cm or 1cm,2cm")
}

// addAssetFlags adds asset-related flags to a FlagSet.
func addAssetFlags(fs *flag.FlagSet, f *assetFlags) {
	fs.StringVar(&f.style, "style", "", "built-in or custom style name (\"none\" disables it)")
	fs.StringArrayVar(&f.styleSheets, "css", nil, "additional stylesheet path or URL (repeatable)")
	fs.StringArrayVar(&f.scripts, "script", nil, "script path or URL (repeatable)")
	fs.StringVar(&f.assetPath, "asset-path", "", "directory with custom styles/ and templates/")
}

// parseFlags parses the convert command flags and returns the input paths.
func parseFlags(args []string, stderr io.Writer) (*cliFlags, []string, error) {
	fs := flag.NewFlagSet("mdconv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &cliFlags{}

	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVarP(&f.outputDir, "output-dir", "o", "", "output directory (default: next to each input)")
	fs.StringSliceVarP(&f.types, "type", "t", nil, "output types: html, pdf, png, jpeg")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.DurationVar(&f.timeout, "timeout", 0, "page load timeout (e.g. 30s, 2m)")
	fs.IntVar(&f.quality, "quality", 0, "JPEG quality (1-100)")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: none, normal, debug")
	fs.BoolVar(&f.version, "version", false, "show version information")

	addPageFlags(fs, &f.page)
	addAssetFlags(fs, &f.assets)

	fs.BoolVar(&f.noHeaderFooter, "no-header-footer", false, "disable the PDF header and footer")
	fs.BoolVar(&f.toc, "toc", false, "enable the [[toc]] table of contents (--toc=false disables it)")
	fs.StringVar(&f.locale, "locale", "", "locale for dates and messages, e.g. en, de-CH")
	fs.StringVar(&f.dateFormat, "date-format", "", "default date format name or pattern")

	fs.Usage = func() { printUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	f.changed = map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { f.changed[fl.Name] = true })
	return f, fs.Args(), nil
}

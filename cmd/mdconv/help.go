package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdconv [flags] <file.md|dir>...")
	fmt.Fprintln(w, "       mdconv doctor [--json]")
	fmt.Fprintln(w, "       mdconv version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert Markdown files with YAML front matter to HTML, PDF or images.")
	fmt.Fprintln(w, "Directories are searched recursively for .md and .markdown files.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output-dir <dir>    Output directory (default: next to each input)")
	fmt.Fprintln(w, "  -t, --type <list>         Output types: html, pdf, png, jpeg (default: pdf)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "      --timeout <d>         Page load timeout (e.g. 30s, 2m)")
	fmt.Fprintln(w, "      --quality <n>         JPEG quality (1-100)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "  -p, --paper <s>           A3, A4, A5, Legal, Letter, Tabloid")
	fmt.Fprintln(w, "      --orientation <s>     portrait, landscape")
	fmt.Fprintln(w, "      --width <len>         Custom paper width (with --height)")
	fmt.Fprintln(w, "      --height <len>        Custom paper height (with --width)")
	fmt.Fprintln(w, "      --margin <list>       1 to 4 lengths in CSS order: 1cm,2cm")
	fmt.Fprintln(w, "      --no-header-footer    Disable the PDF header and footer")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Content:")
	fmt.Fprintln(w, "      --toc                 Replace [[toc]] with a table of contents")
	fmt.Fprintln(w, "      --locale <tag>        Locale for dates and messages (en, de)")
	fmt.Fprintln(w, "      --date-format <s>     Default date format: iso, european, us, long,")
	fmt.Fprintln(w, "                            full, datetime or a pattern like DD.MM.YYYY")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Styling:")
	fmt.Fprintln(w, "      --style <name>        Built-in or custom style (\"none\" disables it)")
	fmt.Fprintln(w, "      --css <path|url>      Additional stylesheet (repeatable)")
	fmt.Fprintln(w, "      --script <path|url>   Script (repeatable)")
	fmt.Fprintln(w, "      --asset-path <dir>    Directory with custom styles/ and templates/")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "      --log-level <s>       none, normal, debug")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  MDCONV_CONFIG, MDCONV_TIMEOUT, MDCONV_WORKERS, MDCONV_OUTPUT_DIR,")
	fmt.Fprintln(w, "  MDCONV_TYPES, MDCONV_LOCALE, MDCONV_LOG_LEVEL, MDCONV_ASSET_PATH")
	fmt.Fprintln(w, "  ROD_BROWSER_BIN, ROD_NO_SANDBOX")
}

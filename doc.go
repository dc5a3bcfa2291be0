// Package mdconv renders Markdown documents with YAML front matter into
// HTML, PDF and images.
//
// # Quick Start
//
// Load a file into a Document and render it to one HTML page:
//
//	doc, err := mdconv.LoadDocument(ctx, "report.md")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	page, err := doc.Render(ctx)
//
// Or let a Converter apply settings and write the output files:
//
//	conv, err := mdconv.NewConverter(mdconv.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	result, err := conv.Convert(ctx, mdconv.Job{
//	    Input:    "report.md",
//	    Types:    []mdconv.OutputType{mdconv.OutputPDF, mdconv.OutputHTML},
//	    Settings: mdconv.DefaultSettings(),
//	})
//
// # Documents and Fragments
//
// A Document holds the front matter attributes and a set of fragments: the
// Markdown body, the meta block, and the header and footer running blocks.
// Every fragment is a Handlebars template rendered against the document
// attributes, with defaults for Title, Author, CreationDate, ChangeDate and
// CurrentDate. Date values format through helpers:
//
//	{{CreationDate}}                     default format
//	{{CreationDate format="long"}}       named or literal format
//	{{FormatDate Deadline "DD.MM.YYYY"}} any date attribute
//
// The body is substituted first, then converted from Markdown. Headings get
// unique anchors and a [[toc]] paragraph becomes a table of contents.
//
// # Assets
//
// StyleSheet, WebScript and PictureSource either embed their content
// (InsertionInclude) or reference it (InsertionLink). InsertionDefault links
// network URLs and embeds files, except for pictures which always link.
//
// # Page Setup
//
// Paper combines a Margin with a PageFormat, either a StandardizedPageFormat
// (A3 to Tabloid, portrait or landscape) or a CustomPageFormat. The PDF
// options projection is what ChromeRenderer prints with.
package mdconv

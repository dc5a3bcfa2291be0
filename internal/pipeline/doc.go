// Package pipeline implements the Markdown-to-HTML stage of a document render.
//
// The stage is built on goldmark and adds:
//   - line ending normalization and ==highlight== marks
//   - heading anchors issued by a per-render Slugifier
//   - a table of contents plugin replacing a [[toc]] marker
//   - relative link resolution against the document directory
//
// Template substitution, assets and page layout live in the root mdconv
// package; this package knows nothing about documents.
package pipeline

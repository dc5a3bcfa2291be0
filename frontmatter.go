package mdconv

import (
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/alnah/go-mdconv/internal/pipeline"
	"github.com/alnah/go-mdconv/internal/yamlutil"
)

// frontMatterDelimiter frames the YAML block at the top of a document.
const frontMatterDelimiter = "---"

// yamlFormat decodes "---" framed YAML into a map, keeping timestamps as
// time.Time values.
var yamlFormat = frontmatter.NewFormat(frontMatterDelimiter, frontMatterDelimiter, unmarshalAttributes)

func unmarshalAttributes(data []byte, v any) error {
	out, ok := v.(*map[string]any)
	if !ok {
		return fmt.Errorf("unsupported front matter target %T", v)
	}
	if strings.TrimSpace(string(data)) == "" {
		*out = map[string]any{}
		return nil
	}
	m, err := yamlutil.UnmarshalMap(data)
	if err != nil {
		return err
	}
	*out = m
	return nil
}

// RawContent serializes the attributes as front matter followed by the
// body. Documents without attributes serialize to the body alone, unless
// the body itself starts with a delimiter: an empty block is written first
// so the body is not read back as front matter.
func (d *Document) RawContent() (string, error) {
	body := ""
	if d.Body != nil {
		body = d.Body.Content()
	}
	if len(d.Attributes) == 0 {
		if strings.HasPrefix(body, frontMatterDelimiter) {
			return frontMatterDelimiter + "\n" + frontMatterDelimiter + "\n" + body, nil
		}
		return body, nil
	}

	data, err := yamlutil.MarshalMap(d.Attributes)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFrontMatter, err)
	}

	var sb strings.Builder
	sb.WriteString(frontMatterDelimiter + "\n")
	sb.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		sb.WriteByte('\n')
	}
	sb.WriteString(frontMatterDelimiter + "\n")
	sb.WriteString(body)
	return sb.String(), nil
}

// SetRawContent splits raw into attributes and body. Malformed YAML returns
// a *ParseError and leaves the document unchanged.
func (d *Document) SetRawContent(raw string) error {
	attrs, body, err := splitFrontMatter(pipeline.NormalizeLineEndings(raw))
	if err != nil {
		return d.newParseError(err)
	}
	d.Attributes = attrs
	if d.Body == nil {
		d.Body = NewMarkdownFragment(d, body)
	} else {
		d.Body.SetContent(body)
	}
	return nil
}

// splitFrontMatter returns the attributes and the remaining body. Input
// without front matter yields no attributes and the whole input as body.
func splitFrontMatter(raw string) (map[string]any, string, error) {
	attrs := map[string]any{}
	if !strings.HasPrefix(raw, frontMatterDelimiter) {
		return attrs, raw, nil
	}
	body, err := frontmatter.Parse(strings.NewReader(raw), &attrs, yamlFormat)
	if err != nil {
		return nil, "", err
	}
	if attrs == nil {
		attrs = map[string]any{}
	}
	return attrs, string(body), nil
}

// newParseError localizes the message and keeps the YAML position as data.
func (d *Document) newParseError(err error) *ParseError {
	pe := &ParseError{
		Message: d.resources().GetResource("errFrontMatter", d.Locale),
		Err:     err,
	}
	if pos, ok := yamlutil.ErrorPosition(err); ok {
		pe.Line = pos.Line
		pe.Column = pos.Column
	}
	return pe
}

package assets

import "fmt"

// Template names inside templates/.
const (
	DocumentTemplateName = "document"
	MetaTemplateName     = "meta"
	HeaderTemplateName   = "header"
	FooterTemplateName   = "footer"
)

// DefaultStyleName is the name of the built-in CSS style.
const DefaultStyleName = "default"

// TemplateSet holds the templates a document is assembled from.
type TemplateSet struct {
	Document string // skeleton with meta, styles, content and scripts slots
	Meta     string
	Header   string // running header table
	Footer   string // running footer table
}

func loadTemplateSet(loader AssetLoader) (*TemplateSet, error) {
	var ts TemplateSet
	for _, t := range []struct {
		name string
		dst  *string
	}{
		{DocumentTemplateName, &ts.Document},
		{MetaTemplateName, &ts.Meta},
		{HeaderTemplateName, &ts.Header},
		{FooterTemplateName, &ts.Footer},
	} {
		content, err := loader.LoadTemplate(t.name)
		if err != nil {
			return nil, fmt.Errorf("loading %s template: %w", t.name, err)
		}
		*t.dst = content
	}
	return &ts, nil
}

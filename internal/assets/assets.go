package assets

// defaultLoader serves the embedded assets.
var defaultLoader = NewEmbeddedLoader()

// LoadTemplateSet loads the embedded document, meta, header and footer templates.
func LoadTemplateSet() (*TemplateSet, error) {
	return loadTemplateSet(defaultLoader)
}

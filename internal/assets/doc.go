// Package assets provides the default stylesheet and HTML templates used to
// build documents.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (defaults)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// AssetResolver is what the converter uses: a custom directory may override
// any single asset while the rest keep their embedded defaults.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css
//	└── templates/
//	    ├── document.html   # page skeleton: meta, styles, content, scripts
//	    ├── meta.html       # <head> metadata fragment
//	    ├── header.html     # running header (Left, Center, Right)
//	    └── footer.html     # running footer (Left, Center, Right)
//
// Templates use Handlebars syntax.
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets

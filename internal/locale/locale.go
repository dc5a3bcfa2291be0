// Package locale provides localized strings for dates and user-facing
// messages. Bundles are YAML files named after their BCP 47 tag.
package locale

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"

	"github.com/alnah/go-mdconv/internal/yamlutil"
)

//go:embed resources/*.yaml
var resources embed.FS

// Fallback is the language used when no bundle matches.
var Fallback = language.English

var (
	ErrNoBundles     = errors.New("locale: no resource bundles found")
	ErrInvalidBundle = errors.New("locale: invalid resource bundle")
)

// Bundle resolves resource keys for a requested locale.
// It is immutable after loading and safe for concurrent use.
type Bundle struct {
	tags    []language.Tag
	tables  []map[string]any
	matcher language.Matcher
}

var (
	defaultOnce   sync.Once
	defaultBundle *Bundle
	defaultErr    error
)

// Default returns the bundle built from the embedded resources.
func Default() *Bundle {
	defaultOnce.Do(func() {
		defaultBundle, defaultErr = Load(resources, "resources")
	})
	if defaultErr != nil {
		// unreachable unless the embedded files are broken
		panic(defaultErr)
	}
	return defaultBundle
}

// Load reads every <tag>.yaml file in dir. The Fallback language, when
// present, is preferred on ambiguous matches.
func Load(fsys fs.FS, dir string) (*Bundle, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoBundles, err)
	}

	type loaded struct {
		tag   language.Tag
		table map[string]any
	}
	var all []loaded
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".yaml")
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBundle, e.Name(), err)
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBundle, e.Name(), err)
		}
		table := map[string]any{}
		if err := yamlutil.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBundle, e.Name(), err)
		}
		all = append(all, loaded{tag: tag, table: table})
	}
	if len(all) == 0 {
		return nil, ErrNoBundles
	}

	// The matcher falls back to its first tag.
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].tag == Fallback && all[j].tag != Fallback
	})

	b := &Bundle{}
	for _, l := range all {
		b.tags = append(b.tags, l.tag)
		b.tables = append(b.tables, l.table)
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

// Languages returns the tags of all loaded bundles.
func (b *Bundle) Languages() []language.Tag {
	return append([]language.Tag(nil), b.tags...)
}

// Match returns the bundle tag chosen for locale.
func (b *Bundle) Match(locale string) language.Tag {
	return b.tags[b.index(locale)]
}

func (b *Bundle) index(locale string) int {
	tag, err := language.Parse(locale)
	if err != nil {
		return 0
	}
	_, i, _ := b.matcher.Match(tag)
	return i
}

// lookup finds key in the matched table, then in the fallback table.
func (b *Bundle) lookup(key, locale string) (any, bool) {
	if v, ok := b.tables[b.index(locale)][key]; ok {
		return v, true
	}
	v, ok := b.tables[0][key]
	return v, ok
}

// GetResource returns the string stored under key. Unknown keys return the
// key itself so missing translations stay visible.
func (b *Bundle) GetResource(key, locale string) string {
	v, ok := b.lookup(key, locale)
	if !ok {
		return key
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// GetResources returns the list stored under key, or nil.
func (b *Bundle) GetResources(key, locale string) []string {
	v, ok := b.lookup(key, locale)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...)
	case []any:
		out := make([]string, len(list))
		for i, item := range list {
			out[i] = fmt.Sprint(item)
		}
		return out
	case string:
		return []string{list}
	}
	return nil
}

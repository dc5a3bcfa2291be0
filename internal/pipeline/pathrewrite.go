package pipeline

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// schemePattern matches URLs carrying a scheme ("https://", "file://", "data:").
var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)

// linkAttrs lists the attributes rewritten per element.
var linkAttrs = map[atom.Atom]string{
	atom.Img:    "src",
	atom.A:      "href",
	atom.Source: "src",
}

// ResolveRelativeLinks rewrites relative img/a/source targets in an HTML
// fragment into file:// URLs under rootDir. Targets escaping rootDir, URLs,
// anchors and absolute paths are left untouched.
func ResolveRelativeLinks(fragment, rootDir string) (string, error) {
	if rootDir == "" {
		return fragment, nil
	}
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return "", err
	}

	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for _, n := range nodes {
		resolveNode(n, absRoot)
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func resolveNode(n *html.Node, root string) {
	if n.Type == html.ElementNode {
		if key, ok := linkAttrs[n.DataAtom]; ok {
			for i, attr := range n.Attr {
				if attr.Key != key || !isRelativeTarget(attr.Val) {
					continue
				}
				ref, fragment := attr.Val, ""
				if n.DataAtom == atom.A {
					if i := strings.IndexByte(ref, '#'); i >= 0 {
						ref, fragment = ref[:i], ref[i:]
					}
				}
				target := filepath.Join(root, filepath.FromSlash(ref))
				if !isUnder(target, root) {
					continue
				}
				n.Attr[i].Val = FileURL(target) + fragment
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		resolveNode(c, root)
	}
}

func isRelativeTarget(target string) bool {
	switch {
	case target == "",
		strings.HasPrefix(target, "#"),
		strings.HasPrefix(target, "//"),
		schemePattern.MatchString(target),
		filepath.IsAbs(target):
		return false
	}
	return true
}

func isUnder(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// FileURL converts an absolute path to a file:// URL.
func FileURL(absPath string) string {
	p := filepath.ToSlash(absPath)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // Windows drive letters
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}

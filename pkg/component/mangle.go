package component

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// separators are split on in order when mangling a name.
var separators = []string{"/", "-", ".", "_"}

// Mangle derives a PascalCase identifier from a component path.
//
// Local components use their path relative to root, so
// "<root>/paper-tabs/paper-tab.html" becomes "PaperTabsPaperTabHtml".
// External components use their file stem plus the kind name, so
// "//cdn.example.com/lib/jquery.min.js" becomes "JqueryMinJs".
//
// Mangle does not check for collisions; the emitter does.
func Mangle(c Component, root string) string {
	if c.External() {
		return MangleName(Stem(c.Path) + c.Kind.String())
	}
	rel := c.Path
	if root != "" {
		if r, err := filepath.Rel(root, c.Path); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	return MangleName(filepath.ToSlash(rel))
}

// MangleName splits name on each separator in turn and capitalizes every
// segment: "lib.min.js" becomes "LibMinJs".
func MangleName(name string) string {
	for _, sep := range separators {
		parts := strings.Split(name, sep)
		for i, p := range parts {
			parts[i] = capitalize(p)
		}
		name = strings.Join(parts, "")
	}
	return capitalize(name)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

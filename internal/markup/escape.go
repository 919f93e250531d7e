package markup

import (
	"regexp"
	"strings"
)

// Attribute names ending in "?" followed by "=" (hidden?="{{x}}") are a
// template-binding idiom the HTML parser does not round-trip. The question
// mark is swapped for a sentinel before parsing and swapped back after
// serialization.
//
// The sentinel is qmarkPrefix followed by qmarkMark. Any qmarkPrefix already
// present in the text is stuffed with qmarkStuff first, so Restore(Escape(x))
// is exactly x for every input.
const (
	qmarkPrefix = "_and_questionmark"
	qmarkMark   = '0'
	qmarkStuff  = '_'
)

var qmarkAttr = regexp.MustCompile(`\S+[?]=`)

// Escape replaces every question mark inside an attribute-name run with the
// sentinel.
func Escape(src string) string {
	stuffed := strings.ReplaceAll(src, qmarkPrefix, qmarkPrefix+string(qmarkStuff))
	return qmarkAttr.ReplaceAllStringFunc(stuffed, func(m string) string {
		return strings.ReplaceAll(m, "?", qmarkPrefix+string(qmarkMark))
	})
}

// Restore reverses Escape. Text that contains no sentinel is returned
// unchanged.
func Restore(src string) string {
	if !strings.Contains(src, qmarkPrefix) {
		return src
	}
	var b strings.Builder
	b.Grow(len(src))
	for {
		i := strings.Index(src, qmarkPrefix)
		if i < 0 {
			b.WriteString(src)
			return b.String()
		}
		b.WriteString(src[:i])
		rest := src[i+len(qmarkPrefix):]
		switch {
		case len(rest) > 0 && rest[0] == qmarkMark:
			b.WriteByte('?')
			src = rest[1:]
		case len(rest) > 0 && rest[0] == qmarkStuff:
			b.WriteString(qmarkPrefix)
			src = rest[1:]
		default:
			b.WriteString(qmarkPrefix)
			src = rest
		}
	}
}

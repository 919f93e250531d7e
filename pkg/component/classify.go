package component

import (
	"strings"

	"github.com/Zer0-/polymer-bricks/internal/errors"
)

// DefaultExtensions lists the extensions classified as dependencies when no
// other set is configured.
var DefaultExtensions = []string{"css", "js", "html"}

// Classifier maps paths to components. Only extensions in its set are
// recognized; an empty set means DefaultExtensions.
type Classifier struct {
	exts map[string]Kind
}

// NewClassifier creates a classifier recognizing the given extensions. Each
// extension must be one KindForExt knows.
func NewClassifier(exts []string) (*Classifier, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	c := &Classifier{exts: make(map[string]Kind, len(exts))}
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		kind, ok := KindForExt(ext)
		if !ok {
			return nil, errors.New(errors.CodeUnknownKind).
				WithPath("." + ext).
				WithSuggestion("Use one of: css, js, mjs, html, htm")
		}
		c.exts[ext] = kind
	}
	return c, nil
}

// Recognized reports whether ref has an extension the classifier accepts.
func (c *Classifier) Recognized(ref string) bool {
	_, ok := c.exts[Extension(ref)]
	return ok
}

// Classify returns the component for path. The kind comes from the
// extension; inlined records whether the reference stays in its parent.
func (c *Classifier) Classify(path string, inlined bool) (Component, error) {
	kind, ok := c.exts[Extension(path)]
	if !ok {
		return Component{}, errors.New(errors.CodeUnknownKind).WithPath(path)
	}
	return Component{Kind: kind, Path: path, Inlined: inlined}, nil
}

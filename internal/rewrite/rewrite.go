// Package rewrite produces the output form of HTML components.
//
// Hoisted references are removed from the document, since the manifest
// loads them ahead of the component. References that stay embedded inside a
// template are pointed at the materialized copy of their target.
package rewrite

import (
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Zer0-/polymer-bricks/internal/errors"
	"github.com/Zer0-/polymer-bricks/internal/markup"
	"github.com/Zer0-/polymer-bricks/pkg/component"
)

// DefaultComponentsDir is the first segment of rewritten runtime paths.
const DefaultComponentsDir = "components"

// Options configures a Rewriter.
type Options struct {
	// SourceDir is the absolute source root.
	SourceDir string

	// ComponentsDir is the runtime path segment materialized files live
	// under (default "components").
	ComponentsDir string

	// TemplateTag is the templating container tag name.
	TemplateTag string

	// Classifier decides which references are considered. Nil means the
	// default extension set.
	Classifier *component.Classifier

	// Logger receives diagnostics.
	Logger *slog.Logger
}

// Rewriter rewrites HTML components.
type Rewriter struct {
	opts   Options
	logger *slog.Logger
}

// New creates a rewriter.
func New(opts Options) (*Rewriter, error) {
	if opts.ComponentsDir == "" {
		opts.ComponentsDir = DefaultComponentsDir
	}
	if opts.TemplateTag == "" {
		opts.TemplateTag = markup.DefaultTemplateTag
	}
	if opts.Classifier == nil {
		c, err := component.NewClassifier(nil)
		if err != nil {
			return nil, err
		}
		opts.Classifier = c
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "rewrite")
	}
	return &Rewriter{opts: opts, logger: logger}, nil
}

// Rewrite reads c and returns its rewritten markup. A document that is
// empty, holds only comments, or cannot be parsed yields empty output.
func (r *Rewriter) Rewrite(c component.Component) ([]byte, error) {
	src, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, errors.New(errors.CodeBuildFailed).WithPath(c.Path).Wrap(err)
	}
	return r.RewriteSource(c, src)
}

// RewriteSource rewrites src as the document of c.
func (r *Rewriter) RewriteSource(c component.Component, src []byte) ([]byte, error) {
	doc, err := markup.Parse(src, markup.Options{
		TemplateTag: r.opts.TemplateTag,
		Accept:      r.opts.Classifier.Recognized,
	})
	if err != nil {
		if errors.IsCode(err, errors.CodeParse) {
			r.logger.Debug("writing empty output for unparsable document", "path", c.Path)
			return []byte{}, nil
		}
		return nil, err
	}

	for _, ref := range doc.References() {
		if ref.Hoisted() {
			doc.Remove(ref)
			continue
		}
		if component.IsExternal(ref.URL) {
			continue
		}
		doc.SetURL(ref, r.RuntimePath(component.ResolveReference(c.Path, ref.URL)))
	}

	out, err := doc.Render()
	if err != nil {
		r.logger.Debug("writing empty output for unrenderable document", "path", c.Path, "error", err)
		return []byte{}, nil
	}
	return out, nil
}

// RuntimePath returns the URL a materialized file is served at:
// "/" + componentsDir + the path relative to the source root.
func (r *Rewriter) RuntimePath(resolved string) string {
	rel, err := filepath.Rel(r.opts.SourceDir, resolved)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = strings.TrimPrefix(filepath.ToSlash(resolved), "/")
	}
	return "/" + path.Join(r.opts.ComponentsDir, filepath.ToSlash(rel))
}

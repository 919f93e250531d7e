// Package emit turns a dependency map into manifest entries.
package emit

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/Zer0-/polymer-bricks/internal/errors"
	"github.com/Zer0-/polymer-bricks/internal/resolve"
	"github.com/Zer0-/polymer-bricks/pkg/component"
	"github.com/Zer0-/polymer-bricks/pkg/manifest"
)

// Emitter converts dependency maps rooted at a source directory.
type Emitter struct {
	sourceDir string
}

// New creates an emitter for components under sourceDir.
func New(sourceDir string) *Emitter {
	return &Emitter{sourceDir: sourceDir}
}

// Emit walks m depth-first in insertion order and returns one entry per
// component, dependencies before dependents. Two distinct components that
// mangle to the same identifier fail with E220.
func (e *Emitter) Emit(m *resolve.DependencyMap) ([]manifest.Entry, error) {
	w := &walk{
		e:       e,
		m:       m,
		visited: make(map[component.Key]bool),
		ids:     make(map[string]component.Key),
	}
	for _, key := range m.Keys() {
		if err := w.visit(key); err != nil {
			return nil, err
		}
	}
	return w.out, nil
}

// Manifest emits m and wraps the entries in a manifest.
func (e *Emitter) Manifest(m *resolve.DependencyMap, assetRoot string) (*manifest.Manifest, error) {
	entries, err := e.Emit(m)
	if err != nil {
		return nil, err
	}
	out := manifest.New(assetRoot)
	for _, entry := range entries {
		if err := out.Add(entry); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Render returns the textual module form of entries.
func Render(entries []manifest.Entry, assetRoot string) (string, error) {
	m := manifest.New(assetRoot)
	for _, entry := range entries {
		if err := m.Add(entry); err != nil {
			return "", err
		}
	}
	var buf bytes.Buffer
	if err := m.Encode(&buf, manifest.FormatText); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type walk struct {
	e       *Emitter
	m       *resolve.DependencyMap
	visited map[component.Key]bool
	ids     map[string]component.Key
	out     []manifest.Entry
}

// visit emits key's dependencies, then key. The map is acyclic and its
// depth is bounded by the resolver, so recursion terminates.
func (w *walk) visit(key component.Key) error {
	if w.visited[key] {
		return nil
	}
	w.visited[key] = true

	c, ok := w.m.Get(key)
	if !ok {
		return nil
	}

	var deps []string
	seen := make(map[string]bool)
	for _, d := range w.m.Deps(key) {
		if err := w.visit(d.Key()); err != nil {
			return err
		}
		id := w.e.ID(d)
		if !seen[id] {
			seen[id] = true
			deps = append(deps, id)
		}
	}

	id := w.e.ID(c)
	if prev, ok := w.ids[id]; ok && prev != key {
		return errors.New(errors.CodeDuplicateID).
			WithPath(c.Path).
			WithSource(prev.Path).
			WithDetail("Both components mangle to " + id + ".").
			WithSuggestion("Rename one of the files or add it to the ignore list")
	}
	w.ids[id] = key

	w.out = append(w.out, manifest.Entry{
		ID:       id,
		Name:     strings.ToLower(id),
		Kind:     c.Kind,
		Handle:   manifest.HandleFor(c),
		Path:     w.e.AssetPath(c),
		External: c.External(),
		Inlined:  c.Inlined,
		Deps:     deps,
	})
	return nil
}

// ID returns the identifier of c.
func (e *Emitter) ID(c component.Component) string {
	return component.Mangle(c, e.sourceDir)
}

// AssetPath returns c's path under the asset root with a leading slash, or
// the literal address of an external component.
func (e *Emitter) AssetPath(c component.Component) string {
	if c.External() {
		return c.Path
	}
	rel, err := filepath.Rel(e.sourceDir, c.Path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(c.Path)
	}
	return "/" + filepath.ToSlash(rel)
}

// Package component defines the unit of the dependency graph: a markup,
// style, or script source identified by kind and path.
//
// Components are plain values. Two components are the same node when their
// Key (kind and path) match; the Inlined flag only records how a particular
// reference was written in its parent document.
package component

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Zer0-/polymer-bricks/internal/errors"
)

// Kind is the type of a component, derived from its file extension.
type Kind int

const (
	Css Kind = iota + 1
	Js
	Html
)

// String returns the capitalized kind name used in generated identifiers.
func (k Kind) String() string {
	switch k {
	case Css:
		return "Css"
	case Js:
		return "Js"
	case Html:
		return "Html"
	default:
		return "Unknown"
	}
}

// Ext returns the canonical lowercase extension for the kind.
func (k Kind) Ext() string {
	return strings.ToLower(k.String())
}

// MarshalText encodes the kind as its canonical extension.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.Ext()), nil
}

// UnmarshalText decodes a kind from its canonical extension.
func (k *Kind) UnmarshalText(text []byte) error {
	kind, ok := builtinKinds[strings.ToLower(string(text))]
	if !ok {
		return errors.New(errors.CodeUnknownKind).WithPath(string(text))
	}
	*k = kind
	return nil
}

// builtinKinds maps every extension bricks knows how to classify.
var builtinKinds = map[string]Kind{
	"css":  Css,
	"js":   Js,
	"mjs":  Js,
	"html": Html,
	"htm":  Html,
}

// KindForExt returns the kind registered for ext (without the leading dot).
func KindForExt(ext string) (Kind, bool) {
	k, ok := builtinKinds[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return k, ok
}

// Key is the identity of a component.
type Key struct {
	Kind Kind
	Path string
}

// Component is a node in the dependency graph. It is never mutated after
// creation.
type Component struct {
	Kind    Kind
	Path    string
	Inlined bool
}

// Key returns the component's identity.
func (c Component) Key() Key {
	return Key{Kind: c.Kind, Path: c.Path}
}

// External reports whether the component is a network resource.
func (c Component) External() bool {
	return IsExternal(c.Path)
}

// String returns the component path.
func (c Component) String() string {
	return c.Path
}

// IsExternal reports whether a reference is a network URI rather than a
// file path.
func IsExternal(ref string) bool {
	if strings.HasPrefix(ref, "//") {
		return true
	}
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Extension returns the lowercase extension of a path or URI without the
// leading dot. Query strings and fragments are ignored.
func Extension(ref string) string {
	p := stripQuery(ref)
	if IsExternal(ref) {
		if u, err := url.Parse(ref); err == nil {
			p = u.Path
		}
		return strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	}
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(p), "."))
}

// Stem returns the file name of a path or URI without its extension.
func Stem(ref string) string {
	p := stripQuery(ref)
	if IsExternal(ref) {
		if u, err := url.Parse(ref); err == nil {
			p = u.Path
		}
		base := path.Base(p)
		return strings.TrimSuffix(base, path.Ext(base))
	}
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ResolveReference turns a reference found in the document at parentPath
// into a component path. External references are returned unchanged. Local
// references are joined with the parent's directory, cleaned, and have their
// symlinks realized when the target exists.
func ResolveReference(parentPath, ref string) string {
	if IsExternal(ref) {
		return ref
	}
	ref = stripQuery(ref)
	var p string
	if path.IsAbs(ref) {
		p = filepath.FromSlash(ref)
	} else {
		p = filepath.Join(filepath.Dir(parentPath), filepath.FromSlash(ref))
	}
	if real, err := filepath.EvalSymlinks(p); err == nil {
		return real
	}
	return filepath.Clean(p)
}

// Exists reports whether a local component path is a regular file.
func Exists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

func stripQuery(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i]
	}
	return ref
}

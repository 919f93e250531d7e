// Package manifest describes the output of a bricks build.
//
// A manifest lists every component of a build in dependency-then-self
// order. Leaf entries have no dependencies and name the handle the host
// uses to load them. Composite entries list the identifiers of their
// dependencies; the component's own handle comes last when loading.
//
//	{
//	  "version": 1,
//	  "assetRoot": "polymer_bricks:polymer_components/components",
//	  "generator": "bricks v1.0.0",
//	  "entries": [
//	    {"id": "PolymerPolymerHtml", "name": "polymerpolymerhtml", "kind": "html",
//	     "handle": "WebComponent", "path": "/polymer/polymer.html"},
//	    {"id": "PaperTabsPaperTabHtml", "name": "paperstabspapertabhtml", "kind": "html",
//	     "handle": "WebComponent", "path": "/paper-tabs/paper-tab.html",
//	     "deps": ["PolymerPolymerHtml"]}
//	  ]
//	}
//
// The same data can be written as YAML or as the textual module form read
// by hosts that declare components in code:
//
//	m, _ := manifest.Load("dist/manifest.json")
//	resolver := manifest.NewResolver(m, "/components")
//	resolver.Asset("PaperTabsPaperTabHtml") // "/components/paper-tabs/paper-tab.html"
package manifest

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Zer0-/polymer-bricks/internal/errors"
	"github.com/Zer0-/polymer-bricks/pkg/component"
)

// Version is the manifest schema version.
const Version = 1

// Formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

// Handle names the host type that loads a leaf component.
type Handle string

// Handles provided by the host.
const (
	StaticCss    Handle = "StaticCss"
	StaticJs     Handle = "StaticJs"
	WebComponent Handle = "WebComponent"
	StaticFile   Handle = "StaticFile"
)

// Handles lists every handle in declaration order.
var Handles = []Handle{StaticCss, StaticJs, WebComponent, StaticFile}

// HandleFor returns the handle of a component: StaticFile when it is
// inlined into its parent, otherwise the handle for its kind.
func HandleFor(c component.Component) Handle {
	if c.Inlined {
		return StaticFile
	}
	switch c.Kind {
	case component.Css:
		return StaticCss
	case component.Js:
		return StaticJs
	default:
		return WebComponent
	}
}

// Entry is one component of the manifest.
type Entry struct {
	// ID is the mangled identifier, unique within the manifest.
	ID string `json:"id" yaml:"id"`

	// Name is the lowercase type name passed to the handle.
	Name string `json:"name" yaml:"name"`

	// Kind is the component kind.
	Kind component.Kind `json:"kind" yaml:"kind"`

	// Handle is the host type that loads the component itself.
	Handle Handle `json:"handle" yaml:"handle"`

	// Path is the slash-separated path under the asset root, with a leading
	// slash, or the literal address of an external component.
	Path string `json:"path" yaml:"path"`

	External bool `json:"external,omitempty" yaml:"external,omitempty"`
	Inlined  bool `json:"inlined,omitempty" yaml:"inlined,omitempty"`

	// Deps are the identifiers of the direct dependencies in order.
	Deps []string `json:"deps,omitempty" yaml:"deps,omitempty"`
}

// Leaf reports whether the entry has no dependencies.
func (e Entry) Leaf() bool {
	return len(e.Deps) == 0
}

// Manifest is an ordered set of entries. It is safe for concurrent use.
type Manifest struct {
	Version   int     `json:"version" yaml:"version"`
	AssetRoot string  `json:"assetRoot" yaml:"assetRoot"`
	Generator string  `json:"generator,omitempty" yaml:"generator,omitempty"`
	Entries   []Entry `json:"entries" yaml:"entries"`

	mu    sync.RWMutex
	index map[string]int
}

// New creates an empty manifest.
func New(assetRoot string) *Manifest {
	return &Manifest{
		Version:   Version,
		AssetRoot: assetRoot,
		Entries:   []Entry{},
		index:     make(map[string]int),
	}
}

// Add appends an entry. Adding a second entry with an existing ID fails
// with E220.
func (m *Manifest) Add(e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.index == nil {
		m.reindex()
	}
	if i, ok := m.index[e.ID]; ok {
		return errors.New(errors.CodeDuplicateID).
			WithPath(e.Path).
			WithSource(m.Entries[i].Path).
			WithDetail("Both components mangle to " + e.ID + ".")
	}
	m.index[e.ID] = len(m.Entries)
	m.Entries = append(m.Entries, e)
	return nil
}

// Lookup returns the entry with the given ID.
func (m *Manifest) Lookup(id string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.index[id]
	if !ok {
		return Entry{}, false
	}
	return m.Entries[i], true
}

// Has reports whether the manifest contains id.
func (m *Manifest) Has(id string) bool {
	_, ok := m.Lookup(id)
	return ok
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.Entries)
}

// All returns a copy of the entries in order.
func (m *Manifest) All() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, len(m.Entries))
	copy(out, m.Entries)
	return out
}

// LoadOrder returns the entries needed to load id, dependencies first, each
// exactly once, ending with id itself.
func (m *Manifest) LoadOrder(id string) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Entry
	seen := make(map[string]bool)
	var visit func(id string)
	visit = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		i, ok := m.index[id]
		if !ok {
			return
		}
		e := m.Entries[i]
		for _, d := range e.Deps {
			visit(d)
		}
		out = append(out, e)
	}
	visit(id)
	return out
}

func (m *Manifest) reindex() {
	m.index = make(map[string]int, len(m.Entries))
	for i, e := range m.Entries {
		m.index[e.ID] = i
	}
}

// Encode writes the manifest to w in the given format.
func (m *Manifest) Encode(w io.Writer, format string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch format {
	case FormatJSON, "":
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return errors.New(errors.CodeManifest).Wrap(err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return errors.New(errors.CodeManifest).Wrap(err)
		}
		return enc.Close()
	case FormatText:
		return m.writeText(w)
	default:
		return errors.New(errors.CodeManifest).
			WithDetail("Unknown manifest format " + format + ".")
	}
}

// WriteFile writes the manifest to path in the given format.
func (m *Manifest) WriteFile(path, format string) error {
	var buf bytes.Buffer
	if err := m.Encode(&buf, format); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.New(errors.CodeManifest).WithPath(path).Wrap(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.New(errors.CodeManifest).WithPath(path).Wrap(err)
	}
	return nil
}

// FormatForPath returns the format implied by a file name.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatText
	}
}

// Load reads a JSON or YAML manifest. The format follows the extension.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Decode(f, FormatForPath(path))
	if err != nil {
		return nil, errors.FromError(err, errors.CodeManifest).WithPath(path)
	}
	return m, nil
}

// Decode reads a JSON or YAML manifest from r.
func Decode(r io.Reader, format string) (*Manifest, error) {
	m := &Manifest{}
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(m); err != nil {
			return nil, errors.New(errors.CodeManifest).Wrap(err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(m); err != nil {
			return nil, errors.New(errors.CodeManifest).Wrap(err)
		}
	default:
		return nil, errors.New(errors.CodeManifest).
			WithDetail("Only json and yaml manifests can be loaded.")
	}

	if m.Version != Version {
		return nil, errors.New(errors.CodeManifest).
			WithDetail("Unsupported manifest version.")
	}
	if m.Entries == nil {
		m.Entries = []Entry{}
	}
	m.reindex()
	if len(m.index) != len(m.Entries) {
		return nil, errors.New(errors.CodeDuplicateID)
	}
	for _, e := range m.Entries {
		for _, d := range e.Deps {
			if _, ok := m.index[d]; !ok {
				return nil, errors.New(errors.CodeManifest).
					WithDetail(e.ID + " depends on unknown entry " + d + ".")
			}
		}
	}
	return m, nil
}

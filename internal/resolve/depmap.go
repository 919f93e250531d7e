package resolve

import "github.com/Zer0-/polymer-bricks/pkg/component"

// DependencyMap is an insertion-ordered mapping from component identity to
// the component and its direct dependencies. A key is inserted only after
// all of its dependencies, so iteration order is dependency-first.
type DependencyMap struct {
	order   []component.Key
	entries map[component.Key]*mapEntry
}

type mapEntry struct {
	comp component.Component
	deps []component.Component
}

// NewDependencyMap creates an empty map.
func NewDependencyMap() *DependencyMap {
	return &DependencyMap{entries: make(map[component.Key]*mapEntry)}
}

// Len returns the number of components.
func (m *DependencyMap) Len() int {
	return len(m.order)
}

// Keys returns the keys in insertion order.
func (m *DependencyMap) Keys() []component.Key {
	out := make([]component.Key, len(m.order))
	copy(out, m.order)
	return out
}

// Has reports whether key is present.
func (m *DependencyMap) Has(key component.Key) bool {
	_, ok := m.entries[key]
	return ok
}

// Get returns the component recorded for key.
func (m *DependencyMap) Get(key component.Key) (component.Component, bool) {
	e, ok := m.entries[key]
	if !ok {
		return component.Component{}, false
	}
	return e.comp, true
}

// Deps returns the direct dependencies of key in reference order.
func (m *DependencyMap) Deps(key component.Key) []component.Component {
	e, ok := m.entries[key]
	if !ok {
		return nil
	}
	return e.deps
}

// Components returns every component in insertion order.
func (m *DependencyMap) Components() []component.Component {
	out := make([]component.Component, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.entries[k].comp)
	}
	return out
}

// Add records c with its dependencies. The first record for a key wins.
func (m *DependencyMap) Add(c component.Component, deps []component.Component) {
	key := c.Key()
	if _, ok := m.entries[key]; ok {
		return
	}
	if deps == nil {
		deps = []component.Component{}
	}
	m.entries[key] = &mapEntry{comp: c, deps: deps}
	m.order = append(m.order, key)
}

// merge appends every entry of other not already present.
func (m *DependencyMap) merge(other *DependencyMap) {
	for _, k := range other.order {
		e := other.entries[k]
		m.Add(e.comp, e.deps)
	}
}

package manifest

import "strings"

// Resolver maps manifest identifiers to the URLs their files are served at.
type Resolver interface {
	// Asset returns the URL of the entry with the given ID. Unknown IDs
	// are returned unchanged.
	Asset(id string) string

	// Assets returns the URLs needed to load id, dependencies first.
	Assets(id string) []string
}

type manifestResolver struct {
	manifest *Manifest
	prefix   string
}

// NewResolver creates a Resolver serving local entries under prefix.
// External entries resolve to their literal address.
//
//	resolver := manifest.NewResolver(m, "/components")
//	resolver.Asset("PaperTabsPaperTabHtml") // "/components/paper-tabs/paper-tab.html"
func NewResolver(m *Manifest, prefix string) Resolver {
	return &manifestResolver{manifest: m, prefix: strings.TrimSuffix(prefix, "/")}
}

func (r *manifestResolver) Asset(id string) string {
	e, ok := r.manifest.Lookup(id)
	if !ok {
		return id
	}
	return r.url(e)
}

func (r *manifestResolver) Assets(id string) []string {
	entries := r.manifest.LoadOrder(id)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, r.url(e))
	}
	return out
}

func (r *manifestResolver) url(e Entry) string {
	if e.External {
		return e.Path
	}
	return r.prefix + e.Path
}

// passthrough treats IDs as paths.
type passthrough struct {
	prefix string
}

// NewPassthroughResolver creates a resolver that joins prefix and the
// given path without consulting a manifest.
func NewPassthroughResolver(prefix string) Resolver {
	return &passthrough{prefix: strings.TrimSuffix(prefix, "/")}
}

func (p *passthrough) Asset(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return p.prefix + path
}

func (p *passthrough) Assets(path string) []string {
	return []string{p.Asset(path)}
}

package resolve

import (
	"os"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Zer0-/polymer-bricks/internal/markup"
)

// DefaultCacheSize is the number of documents a ParseCache keeps.
const DefaultCacheSize = 4096

// rawRef is a reference as extracted from a document, before resolution.
type rawRef struct {
	url     string
	inlined bool
}

type cachedDoc struct {
	modTime time.Time
	size    int64
	refs    []rawRef
	err     error
}

// ParseCache keeps the references extracted from documents across builds.
// Entries are keyed by path and invalidated when the file's modification
// time or size changes. It is safe for concurrent use.
type ParseCache struct {
	docs *lru.Cache[string, cachedDoc]
	hits atomic.Int64
}

// NewParseCache creates a cache holding up to size documents.
func NewParseCache(size int) (*ParseCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	docs, err := lru.New[string, cachedDoc](size)
	if err != nil {
		return nil, err
	}
	return &ParseCache{docs: docs}, nil
}

// Hits returns the number of lookups served from the cache.
func (c *ParseCache) Hits() int64 {
	return c.hits.Load()
}

// Len returns the number of cached documents.
func (c *ParseCache) Len() int {
	return c.docs.Len()
}

func (c *ParseCache) get(path string, info os.FileInfo) (cachedDoc, bool) {
	d, ok := c.docs.Get(path)
	if !ok || !d.modTime.Equal(info.ModTime()) || d.size != info.Size() {
		return cachedDoc{}, false
	}
	c.hits.Add(1)
	return d, true
}

func (c *ParseCache) put(path string, info os.FileInfo, refs []rawRef, err error) {
	c.docs.Add(path, cachedDoc{modTime: info.ModTime(), size: info.Size(), refs: refs, err: err})
}

// extract parses src and returns its non-empty references.
func extract(src []byte, templateTag string) ([]rawRef, error) {
	doc, err := markup.Parse(src, markup.Options{TemplateTag: templateTag})
	if err != nil {
		return nil, err
	}
	refs := doc.References()
	out := make([]rawRef, 0, len(refs))
	for _, r := range refs {
		out = append(out, rawRef{url: r.URL, inlined: !r.Hoisted()})
	}
	return out, nil
}

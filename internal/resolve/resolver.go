// Package resolve builds the dependency map of a component source tree.
//
// Resolution starts from the root components the scanner finds and follows
// every recognized reference of each HTML document. Dependencies are recorded
// before their dependents. A root whose subtree has a missing file, a cycle,
// or an over-long chain is excluded as a whole and reported as a Warning;
// the other roots still resolve.
package resolve

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Zer0-/polymer-bricks/internal/errors"
	"github.com/Zer0-/polymer-bricks/internal/markup"
	"github.com/Zer0-/polymer-bricks/internal/scan"
	"github.com/Zer0-/polymer-bricks/pkg/component"
)

// DefaultMaxDepth bounds the length of a dependency chain.
const DefaultMaxDepth = 256

// Warning reports a root excluded from the map.
type Warning struct {
	Root component.Component
	Err  error
}

// Options configures a Resolver.
type Options struct {
	// Extensions are the dependency extensions (default: css, js, html).
	Extensions []string

	// Discover are the root discovery extensions (default: html).
	Discover []string

	// Ignore holds root ignore entries, see scan.Options.
	Ignore []string

	// TemplateTag is the templating container tag name.
	TemplateTag string

	// MaxDepth bounds the dependency chain length (default 256).
	MaxDepth int

	// Cache, when set, is consulted before parsing a document.
	Cache *ParseCache

	// Logger receives exclusion warnings and parse diagnostics.
	Logger *slog.Logger
}

// Resolver builds dependency maps.
type Resolver struct {
	classifier *component.Classifier
	scanner    *scan.Scanner
	opts       Options
	logger     *slog.Logger
}

// New creates a resolver.
func New(opts Options) (*Resolver, error) {
	classifier, err := component.NewClassifier(opts.Extensions)
	if err != nil {
		return nil, err
	}
	scanner, err := scan.New(scan.Options{Extensions: opts.Discover, Ignore: opts.Ignore})
	if err != nil {
		return nil, err
	}
	if opts.TemplateTag == "" {
		opts.TemplateTag = markup.DefaultTemplateTag
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "resolve")
	}
	return &Resolver{
		classifier: classifier,
		scanner:    scanner,
		opts:       opts,
		logger:     logger,
	}, nil
}

// Classifier returns the classifier used for dependencies.
func (r *Resolver) Classifier() *component.Classifier {
	return r.classifier
}

// BuildDependencyMap scans sourceDir for roots and resolves them.
func (r *Resolver) BuildDependencyMap(ctx context.Context, sourceDir string) (*DependencyMap, []Warning, error) {
	roots, err := r.scanner.FindComponents(sourceDir)
	if err != nil {
		return nil, nil, err
	}
	return r.resolve(ctx, roots, sourceDir)
}

// frame is one component on the resolution stack.
type frame struct {
	comp component.Component
	deps []component.Component
	next int
}

// build is the state of a single Resolve call.
type build struct {
	r      *Resolver
	final  *DependencyMap
	memo   map[string][]component.Component
	failed map[string]error

	// sourceDir, when set, confines local dependencies to that tree.
	sourceDir string
}

// Resolve builds the dependency map for roots in order.
func (r *Resolver) Resolve(ctx context.Context, roots []component.Component) (*DependencyMap, []Warning, error) {
	return r.resolve(ctx, roots, "")
}

func (r *Resolver) resolve(ctx context.Context, roots []component.Component, sourceDir string) (*DependencyMap, []Warning, error) {
	b := &build{
		r:         r,
		final:     NewDependencyMap(),
		memo:      make(map[string][]component.Component),
		failed:    make(map[string]error),
		sourceDir: sourceDir,
	}

	var warnings []Warning
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if b.final.Has(root.Key()) {
			continue
		}

		staged, err := b.resolveRoot(ctx, root)
		if err != nil {
			if !errors.Recoverable(err) {
				return nil, nil, err
			}
			r.logger.Warn("excluding component",
				"root", root.Path,
				"error", errors.FromError(err, errors.CodeBuildFailed).FormatCompact())
			warnings = append(warnings, Warning{Root: root, Err: err})
			continue
		}
		b.final.merge(staged)
	}

	return b.final, warnings, nil
}

// resolveRoot walks root's subtree with an explicit stack and returns the
// newly discovered entries.
func (b *build) resolveRoot(ctx context.Context, root component.Component) (*DependencyMap, error) {
	stage := NewDependencyMap()
	resolved := func(k component.Key) bool {
		return b.final.Has(k) || stage.Has(k)
	}
	inProgress := make(map[component.Key]bool)

	deps, err := b.dependencies(root)
	if err != nil {
		return nil, err
	}
	stack := []*frame{{comp: root, deps: deps}}
	inProgress[root.Key()] = true

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		top := stack[len(stack)-1]

		if top.next == len(top.deps) {
			stage.Add(top.comp, top.deps)
			delete(inProgress, top.comp.Key())
			stack = stack[:len(stack)-1]
			continue
		}

		dep := top.deps[top.next]
		top.next++
		key := dep.Key()
		if resolved(key) {
			continue
		}
		if inProgress[key] {
			return nil, errors.New(errors.CodeCycle).
				WithPath(dep.Path).
				WithSource(top.comp.Path).
				WithChain(cycleChain(stack, key))
		}
		if len(stack) >= b.r.opts.MaxDepth {
			return nil, errors.New(errors.CodeTooDeep).
				WithPath(dep.Path).
				WithSource(top.comp.Path).
				WithChain(stackChain(stack))
		}

		deps, err := b.dependencies(dep)
		if err != nil {
			return nil, err
		}
		stack = append(stack, &frame{comp: dep, deps: deps})
		inProgress[key] = true
	}

	return stage, nil
}

// dependencies returns c's direct dependencies. Only local HTML documents
// have any. Results are memoized for the duration of the build.
func (b *build) dependencies(c component.Component) ([]component.Component, error) {
	if c.Kind != component.Html || c.External() {
		return nil, nil
	}
	if deps, ok := b.memo[c.Path]; ok {
		return deps, nil
	}
	if err, ok := b.failed[c.Path]; ok {
		return nil, err
	}

	deps, err := b.r.references(c)
	if err == nil {
		err = b.confine(c, deps)
	}
	if err != nil {
		b.failed[c.Path] = err
		return nil, err
	}
	b.memo[c.Path] = deps
	return deps, nil
}

// confine rejects local dependencies of parent that lie outside sourceDir.
// Such files have no place under the asset root.
func (b *build) confine(parent component.Component, deps []component.Component) error {
	if b.sourceDir == "" {
		return nil
	}
	for _, d := range deps {
		if d.External() {
			continue
		}
		rel, err := filepath.Rel(b.sourceDir, d.Path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return errors.New(errors.CodeOutsideSource).
				WithPath(d.Path).
				WithSource(parent.Path).
				WithSuggestion("Move the file into the source directory or reference it by URL")
		}
	}
	return nil
}

// references extracts and classifies the references of an HTML document.
func (r *Resolver) references(c component.Component) ([]component.Component, error) {
	refs, err := r.rawReferences(c.Path)
	if err != nil {
		if errors.IsCode(err, errors.CodeParse) {
			r.logger.Debug("treating unparsable document as having no references",
				"path", c.Path, "error", err)
			return nil, nil
		}
		return nil, err
	}

	var deps []component.Component
	for _, ref := range refs {
		if !r.classifier.Recognized(ref.url) {
			continue
		}
		resolved := component.ResolveReference(c.Path, ref.url)
		if !component.IsExternal(resolved) && !component.Exists(resolved) {
			return nil, errors.New(errors.CodeMissingDependency).
				WithPath(resolved).
				WithSource(c.Path)
		}
		dep, err := r.classifier.Classify(resolved, ref.inlined)
		if err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

// rawReferences reads and parses path, consulting the parse cache.
func (r *Resolver) rawReferences(path string) ([]rawRef, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.New(errors.CodeBuildFailed).WithPath(path).Wrap(err)
	}
	if r.opts.Cache != nil {
		if d, ok := r.opts.Cache.get(path, info); ok {
			return d.refs, d.err
		}
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeBuildFailed).WithPath(path).Wrap(err)
	}
	refs, err := extract(src, r.opts.TemplateTag)
	if err != nil && !errors.IsCode(err, errors.CodeParse) {
		return nil, err
	}
	if r.opts.Cache != nil {
		r.opts.Cache.put(path, info, refs, err)
	}
	return refs, err
}

func stackChain(stack []*frame) []string {
	chain := make([]string, len(stack))
	for i, f := range stack {
		chain[i] = f.comp.Path
	}
	return chain
}

// cycleChain returns the paths from the first frame holding key to the top
// of the stack, closed with key's path again.
func cycleChain(stack []*frame, key component.Key) []string {
	start := 0
	for i, f := range stack {
		if f.comp.Key() == key {
			start = i
			break
		}
	}
	chain := stackChain(stack[start:])
	return append(chain, key.Path)
}

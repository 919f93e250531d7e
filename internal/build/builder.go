package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zer0-/polymer-bricks/internal/config"
	"github.com/Zer0-/polymer-bricks/internal/emit"
	"github.com/Zer0-/polymer-bricks/internal/errors"
	"github.com/Zer0-/polymer-bricks/internal/resolve"
	"github.com/Zer0-/polymer-bricks/internal/rewrite"
	"github.com/Zer0-/polymer-bricks/internal/scan"
	"github.com/Zer0-/polymer-bricks/pkg/component"
	"github.com/Zer0-/polymer-bricks/pkg/manifest"
)

// TracerName is the instrumentation name of build spans.
const TracerName = "github.com/Zer0-/polymer-bricks/internal/build"

// Result contains the build output.
type Result struct {
	// Duration is how long the build took.
	Duration time.Duration

	// Components is the number of components in the dependency map.
	Components int

	// Excluded lists the roots left out of the build and why.
	Excluded []resolve.Warning

	// ManifestPath is the path of the written manifest.
	ManifestPath string

	// Manifest is the emitted manifest.
	Manifest *manifest.Manifest

	// Written and Unchanged count materialized files by outcome.
	Written   int
	Unchanged int
}

// Entries returns the manifest entries in emission order.
func (r *Result) Entries() []manifest.Entry {
	if r.Manifest == nil {
		return nil
	}
	return r.Manifest.All()
}

// Options configures the builder.
type Options struct {
	// Clean removes the output directory before building.
	Clean bool

	// Generator is recorded in the manifest (for example "bricks v1.2.0").
	Generator string

	// Cache is the parse cache shared across builds. When nil the builder
	// creates its own.
	Cache *resolve.ParseCache

	// Registry receives the build metrics. When nil a private registry is
	// used.
	Registry *prometheus.Registry

	// Logger receives build logs.
	Logger *slog.Logger

	// OnProgress is called with progress updates.
	OnProgress func(step string)
}

// Builder builds component directories. Builds on one Builder are
// serialized.
type Builder struct {
	config  *config.Config
	options Options

	resolver *resolve.Resolver
	metrics  *Metrics
	tracer   trace.Tracer
	logger   *slog.Logger

	mu sync.Mutex
}

// New creates a new builder.
func New(cfg *config.Config, options Options) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default().With("component", "build")
	}

	if options.Cache == nil {
		cache, err := resolve.NewParseCache(resolve.DefaultCacheSize)
		if err != nil {
			return nil, err
		}
		options.Cache = cache
	}

	resolver, err := resolve.New(resolve.Options{
		Extensions:  cfg.Extensions.Dependency,
		Discover:    cfg.Extensions.Discover,
		Ignore:      cfg.Ignore,
		TemplateTag: cfg.TemplateTag,
		MaxDepth:    cfg.MaxDepth,
		Cache:       options.Cache,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	return &Builder{
		config:   cfg,
		options:  options,
		resolver: resolver,
		metrics:  NewMetrics(options.Registry, options.Cache),
		tracer:   otel.Tracer(TracerName),
		logger:   logger,
	}, nil
}

// Config returns the builder's configuration.
func (b *Builder) Config() *config.Config {
	return b.config
}

// Metrics returns the builder's metrics.
func (b *Builder) Metrics() *Metrics {
	return b.metrics
}

// Resolver returns the builder's resolver.
func (b *Builder) Resolver() *resolve.Resolver {
	return b.resolver
}

// Build resolves, materializes and writes the manifest.
func (b *Builder) Build(ctx context.Context) (result *Result, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	ctx, span := b.tracer.Start(ctx, "bricks.build", trace.WithAttributes(
		attribute.String("bricks.source", b.config.SourcePath()),
		attribute.String("bricks.output", b.config.OutputPath()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	sourceDir, err := scan.Root(b.config.SourcePath())
	if err != nil {
		return nil, err
	}
	outputDir := b.config.OutputPath()

	if b.options.Clean {
		b.progress("Cleaning output directory...")
		if err := os.RemoveAll(outputDir); err != nil {
			return nil, errors.New(errors.CodeBuildFailed).WithPath(outputDir).Wrap(err)
		}
	}

	// Resolve
	b.progress("Resolving components...")
	depmap, warnings, err := b.resolve(ctx, sourceDir)
	if err != nil {
		return nil, err
	}

	// Materialize
	b.progress("Materializing components...")
	counts, err := b.materialize(ctx, sourceDir, depmap.Components())
	if err != nil {
		return nil, err
	}

	// Emit
	b.progress("Writing manifest...")
	m, err := b.emit(ctx, sourceDir, depmap)
	if err != nil {
		return nil, err
	}

	result = &Result{
		Duration:     time.Since(start),
		Components:   depmap.Len(),
		Excluded:     warnings,
		ManifestPath: b.config.ManifestPath(),
		Manifest:     m,
		Written:      counts[ActionWritten],
		Unchanged:    counts[ActionUnchanged],
	}

	b.metrics.buildDuration.Observe(result.Duration.Seconds())
	span.SetAttributes(
		attribute.Int("bricks.components", result.Components),
		attribute.Int("bricks.excluded", len(warnings)),
	)
	b.logger.Info(fmt.Sprintf("Done (%d components)", result.Components),
		"written", result.Written,
		"unchanged", result.Unchanged,
		"excluded", len(warnings),
		"duration", result.Duration)

	return result, nil
}

func (b *Builder) resolve(ctx context.Context, sourceDir string) (*resolve.DependencyMap, []resolve.Warning, error) {
	ctx, span := b.tracer.Start(ctx, "bricks.resolve")
	defer span.End()

	depmap, warnings, err := b.resolver.BuildDependencyMap(ctx, sourceDir)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	for _, c := range depmap.Components() {
		b.metrics.componentsTotal.WithLabelValues(c.Kind.Ext()).Inc()
	}
	b.metrics.excludedTotal.Add(float64(len(warnings)))
	span.SetAttributes(
		attribute.Int("bricks.components", depmap.Len()),
		attribute.Int("bricks.excluded", len(warnings)),
	)
	return depmap, warnings, nil
}

func (b *Builder) materialize(ctx context.Context, sourceDir string, comps []component.Component) (map[Action]int, error) {
	ctx, span := b.tracer.Start(ctx, "bricks.materialize")
	defer span.End()

	rw, err := rewrite.New(rewrite.Options{
		SourceDir:     sourceDir,
		ComponentsDir: config.ComponentsDir,
		TemplateTag:   b.config.TemplateTag,
		Classifier:    b.resolver.Classifier(),
		Logger:        b.logger,
	})
	if err != nil {
		return nil, err
	}

	mat := NewMaterializer(sourceDir, b.config.ComponentsPath(), rw, b.config.Workers, b.logger)
	mat.onFile = func(_ component.Component, action Action) {
		b.metrics.fileWritten(action)
	}

	if err := os.MkdirAll(b.config.ComponentsPath(), 0755); err != nil {
		return nil, errors.New(errors.CodeBuildFailed).WithPath(b.config.ComponentsPath()).Wrap(err)
	}
	counts, err := mat.MaterializeAll(ctx, comps)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("bricks.written", counts[ActionWritten]),
		attribute.Int("bricks.unchanged", counts[ActionUnchanged]),
	)
	return counts, nil
}

func (b *Builder) emit(ctx context.Context, sourceDir string, depmap *resolve.DependencyMap) (*manifest.Manifest, error) {
	_, span := b.tracer.Start(ctx, "bricks.emit", trace.WithAttributes(
		attribute.String("bricks.format", b.config.Manifest.Format),
	))
	defer span.End()

	m, err := emit.New(sourceDir).Manifest(depmap, b.config.AssetRoot)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	m.Generator = b.options.Generator

	if err := m.WriteFile(b.config.ManifestPath(), b.config.Manifest.Format); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return m, nil
}

// progress reports build progress.
func (b *Builder) progress(step string) {
	if b.options.OnProgress != nil {
		b.options.OnProgress(step)
	}
}

// Clean removes the build output directory.
func (b *Builder) Clean() error {
	return os.RemoveAll(b.config.OutputPath())
}

// BuildComponentDirectory builds sourceDir into outDir with default
// settings.
func BuildComponentDirectory(ctx context.Context, sourceDir, outDir string) (*Result, error) {
	cfg := config.New()
	cfg.Source = sourceDir
	cfg.Output = outDir

	b, err := New(cfg, Options{})
	if err != nil {
		return nil, err
	}
	return b.Build(ctx)
}

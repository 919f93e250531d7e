package dev

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Zer0-/polymer-bricks/internal/build"
	"github.com/Zer0-/polymer-bricks/internal/config"
	"github.com/Zer0-/polymer-bricks/internal/errors"
	"github.com/Zer0-/polymer-bricks/pkg/manifest"
)

// ManifestPath serves the manifest of the last successful build.
const ManifestPath = "/_bricks/manifest"

// MetricsPath serves the builder's metrics.
const MetricsPath = "/metrics"

// ServerOptions configures the development server.
type ServerOptions struct {
	// Config is the project configuration.
	Config *config.Config

	// Builder builds the project. When nil one is created from Config.
	Builder *build.Builder

	// Logger receives server logs.
	Logger *slog.Logger

	// OnBuildComplete is called after every build, successful or not.
	OnBuildComplete func(result *build.Result, err error)

	// OnReload is called when browsers are reloaded.
	OnReload func(clients int)
}

// Server is the development server.
type Server struct {
	config       *config.Config
	options      ServerOptions
	builder      *build.Builder
	watcher      *Watcher
	reloadServer *ReloadServer
	handler      http.Handler
	logger       *slog.Logger

	mu         sync.Mutex
	running    bool
	httpServer *http.Server
	listener   net.Listener

	resultMu sync.RWMutex
	last     *build.Result
}

// NewServer creates a new development server.
func NewServer(options ServerOptions) (*Server, error) {
	cfg := options.Config
	if cfg == nil {
		return nil, errors.New(errors.CodeDevServer).WithDetail("no configuration")
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default().With("component", "dev")
	}

	builder := options.Builder
	if builder == nil {
		b, err := build.New(cfg, build.Options{Logger: logger})
		if err != nil {
			return nil, err
		}
		builder = b
	}

	s := &Server{
		config:       cfg,
		options:      options,
		builder:      builder,
		reloadServer: NewReloadServer(),
		logger:       logger,
	}
	s.watcher = NewWatcher(WatcherConfig{
		Paths:    []string{cfg.SourcePath()},
		Ignore:   s.watchIgnore(),
		Interval: time.Duration(cfg.Dev.Interval),
	})
	s.handler = s.routes()
	return s, nil
}

// watchIgnore returns the watcher ignore list: the defaults, the configured
// root ignores, and the output directory when it lives inside the source.
func (s *Server) watchIgnore() []string {
	ignore := append([]string{}, DefaultIgnore...)
	ignore = append(ignore, s.config.Ignore...)
	if rel, ok := relativeWithin(s.config.SourcePath(), s.config.OutputPath()); ok {
		ignore = append(ignore, rel)
	}
	return ignore
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get(ManifestPath, s.handleManifest)
	r.Get(ReloadPath, s.reloadServer.HandleWebSocket)
	r.Get(ReloadScriptPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Write([]byte(ReloadScript))
	})
	r.Handle(MetricsPath, promhttp.HandlerFor(s.builder.Metrics().Registry(), promhttp.HandlerOpts{}))
	r.Handle("/*", http.FileServer(http.Dir(s.config.OutputPath())))
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Watcher returns the source watcher.
func (s *Server) Watcher() *Watcher {
	return s.watcher
}

// Reloader returns the reload server.
func (s *Server) Reloader() *ReloadServer {
	return s.reloadServer
}

// LastResult returns the result of the last successful build.
func (s *Server) LastResult() *build.Result {
	s.resultMu.RLock()
	defer s.resultMu.RUnlock()
	return s.last
}

// Start builds the project, then serves it and rebuilds on change until
// ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	// Initial build
	s.Rebuild(ctx, nil)

	s.watcher.OnChange(func(changes []Change) {
		s.Rebuild(ctx, changes)
	})
	go s.watcher.Start(ctx)

	ln, err := net.Listen("tcp", s.config.DevAddress())
	if err != nil {
		s.Stop()
		return errors.New(errors.CodeDevServer).WithDetail(s.config.DevAddress()).Wrap(err)
	}

	s.mu.Lock()
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("Server running", "url", "http://"+ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		s.Stop()
		if err != nil {
			return errors.New(errors.CodeDevServer).Wrap(err)
		}
		return nil
	}
}

// Addr returns the address the server listens on, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop stops the development server.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.running = false
	s.watcher.Stop()
	s.reloadServer.Close()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
}

// Rebuild runs a build and tells connected browsers about the outcome.
// changes is the batch that triggered it, nil for the initial build.
func (s *Server) Rebuild(ctx context.Context, changes []Change) (*build.Result, error) {
	for _, c := range changes {
		s.logger.Info("Changed", "path", c.Path, "type", c.Type.String(), "removed", c.Removed)
	}

	result, err := s.builder.Build(ctx)
	if s.options.OnBuildComplete != nil {
		s.options.OnBuildComplete(result, err)
	}
	if err != nil {
		msg := errors.FromError(err, errors.CodeBuildFailed).FormatCompact()
		s.logger.Error("Build failed", "error", msg)
		s.reloadServer.NotifyError(msg)
		return nil, err
	}

	s.resultMu.Lock()
	s.last = result
	s.resultMu.Unlock()

	for _, w := range result.Excluded {
		s.logger.Warn("Excluded", "root", w.Root.Path,
			"error", errors.FromError(w.Err, errors.CodeBuildFailed).FormatCompact())
	}

	if changes == nil {
		s.reloadServer.ClearError()
		return result, nil
	}

	if StyleOnly(changes) {
		s.reloadServer.NotifyCSS(s.runtimePaths(changes), result.Components)
	} else {
		s.reloadServer.NotifyReload(result.Components)
	}
	clients := s.reloadServer.ClientCount()
	if s.options.OnReload != nil {
		s.options.OnReload(clients)
	}
	s.logger.Info("Reloaded browsers", "clients", clients)
	return result, nil
}

// runtimePaths maps changed source files to the paths their materialized
// copies are served at.
func (s *Server) runtimePaths(changes []Change) []string {
	var paths []string
	for _, c := range changes {
		rel, ok := relativeWithin(s.config.SourcePath(), c.Path)
		if !ok {
			continue
		}
		paths = append(paths, "/"+path.Join(config.ComponentsDir, rel))
	}
	return paths
}

func (s *Server) handleManifest(w http.ResponseWriter, _ *http.Request) {
	result := s.LastResult()
	if result == nil || result.Manifest == nil {
		http.Error(w, "no successful build yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := result.Manifest.Encode(w, manifest.FormatJSON); err != nil {
		s.logger.Error("encoding manifest", "error", err)
	}
}

// relativeWithin returns path relative to dir when path lies inside dir.
func relativeWithin(dir, path string) (string, bool) {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

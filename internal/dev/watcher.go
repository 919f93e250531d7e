package dev

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/Zer0-/polymer-bricks/pkg/component"
)

// ChangeType represents the type of file change.
type ChangeType int

const (
	ChangeMarkup ChangeType = iota
	ChangeStyle
	ChangeScript
	ChangeOther
)

// String returns the change type name.
func (t ChangeType) String() string {
	switch t {
	case ChangeMarkup:
		return "markup"
	case ChangeStyle:
		return "style"
	case ChangeScript:
		return "script"
	default:
		return "other"
	}
}

// Change represents a detected file change.
type Change struct {
	Path    string
	Type    ChangeType
	Removed bool
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Paths are the directories to watch.
	Paths []string

	// Ignore holds names, path segments, or doublestar globs to skip.
	Ignore []string

	// Interval is how often the paths are polled when no filesystem event
	// arrives.
	Interval time.Duration
}

// DefaultIgnore contains default patterns to ignore.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	"*.tmp",
	"*.swp",
	"*~",
	".DS_Store",
}

type fileState struct {
	modTime time.Time
	size    int64
}

// Watcher reports changes under a set of directories.
type Watcher struct {
	config   WatcherConfig
	onChange func([]Change)
	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	files    map[string]fileState
	logger   *slog.Logger
}

// NewWatcher creates a new file watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Interval == 0 {
		config.Interval = 300 * time.Millisecond
	}
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}

	return &Watcher{
		config: config,
		files:  make(map[string]fileState),
		logger: slog.Default().With("component", "watcher"),
	}
}

// OnChange sets the callback receiving the changes found by one poll.
func (w *Watcher) OnChange(fn func([]Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start watches until ctx is done or Stop is called. Filesystem events
// trigger an early poll; the interval poll catches anything they miss.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	files := w.snapshot()
	w.mu.Lock()
	w.files = files
	w.mu.Unlock()

	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Debug("filesystem events unavailable, polling only", "error", err)
	} else {
		defer fsw.Close()
		for _, dir := range w.directories() {
			if err := fsw.Add(dir); err != nil {
				w.logger.Debug("not watching directory", "dir", dir, "error", err)
			}
		}
		events, errs = fsw.Events, fsw.Errors
	}

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	settle := time.NewTimer(time.Hour)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			w.Poll()
		case <-settle.C:
			w.Poll()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					fsw.Add(ev.Name)
				}
			}
			settle.Reset(settleDelay)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Debug("watch error", "error", err)
		}
	}
}

// settleDelay coalesces bursts of filesystem events into one poll.
const settleDelay = 50 * time.Millisecond

// directories lists the watched directories that are not ignored.
func (w *Watcher) directories() []string {
	var dirs []string
	for _, root := range w.config.Paths {
		filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil || !d.IsDir() {
				return nil
			}
			if w.shouldIgnore(root, p) {
				return filepath.SkipDir
			}
			dirs = append(dirs, p)
			return nil
		})
	}
	return dirs
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Poll compares the watched paths against the last snapshot and reports
// the differences.
func (w *Watcher) Poll() []Change {
	current := w.snapshot()

	w.mu.Lock()
	var changes []Change
	for p, st := range current {
		old, ok := w.files[p]
		if !ok || !old.modTime.Equal(st.modTime) || old.size != st.size {
			changes = append(changes, Change{Path: p, Type: classifyChange(p)})
		}
	}
	for p := range w.files {
		if _, ok := current[p]; !ok {
			changes = append(changes, Change{Path: p, Type: classifyChange(p), Removed: true})
		}
	}
	w.files = current
	callback := w.onChange
	w.mu.Unlock()

	if len(changes) > 0 && callback != nil {
		callback(changes)
	}
	return changes
}

// snapshot walks every watched path.
func (w *Watcher) snapshot() map[string]fileState {
	files := make(map[string]fileState)
	for _, root := range w.config.Paths {
		filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if w.shouldIgnore(root, p) {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if info.Mode().IsRegular() {
				files[p] = fileState{modTime: info.ModTime(), size: info.Size()}
			}
			return nil
		})
	}
	return files
}

// shouldIgnore checks if a path under root should be ignored.
func (w *Watcher) shouldIgnore(root, fullPath string) bool {
	if fullPath == root {
		return false
	}
	rel, err := filepath.Rel(root, fullPath)
	if err != nil {
		rel = fullPath
	}
	rel = filepath.ToSlash(rel)
	name := filepath.Base(fullPath)

	for _, pattern := range w.config.Ignore {
		pattern = strings.TrimSpace(filepath.ToSlash(pattern))
		if pattern == "" {
			continue
		}
		if name == pattern {
			return true
		}

		hasGlob := strings.ContainsAny(pattern, "*?[{")
		hasPathSep := strings.Contains(pattern, "/")

		if hasGlob {
			target := name
			if hasPathSep {
				target = rel
			}
			if matched, _ := doublestar.Match(pattern, target); matched {
				return true
			}
			continue
		}

		if pathMatchesSegments(rel, pattern) {
			return true
		}
	}
	return false
}

// pathMatchesSegments reports whether the segments of pattern appear
// consecutively in path.
func pathMatchesSegments(path, pattern string) bool {
	pathParts := splitPathSegments(path)
	patternParts := splitPathSegments(pattern)
	if len(patternParts) == 0 || len(patternParts) > len(pathParts) {
		return false
	}

	for i := 0; i <= len(pathParts)-len(patternParts); i++ {
		match := true
		for j := range patternParts {
			if pathParts[i+j] != patternParts[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func splitPathSegments(path string) []string {
	parts := strings.Split(path, "/")
	result := parts[:0]
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}

// classifyChange determines the type of change from the file's kind.
func classifyChange(path string) ChangeType {
	kind, ok := component.KindForExt(filepath.Ext(path))
	if !ok {
		return ChangeOther
	}
	switch kind {
	case component.Css:
		return ChangeStyle
	case component.Js:
		return ChangeScript
	default:
		return ChangeMarkup
	}
}

// StyleOnly reports whether every change is to a stylesheet.
func StyleOnly(changes []Change) bool {
	if len(changes) == 0 {
		return false
	}
	for _, c := range changes {
		if c.Type != ChangeStyle || c.Removed {
			return false
		}
	}
	return true
}

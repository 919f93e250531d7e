// Package scan discovers root components in a source directory.
package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Zer0-/polymer-bricks/internal/errors"
	"github.com/Zer0-/polymer-bricks/pkg/component"
)

// Options configures discovery.
type Options struct {
	// Extensions are the discovery extensions (default: html).
	Extensions []string

	// Ignore holds path substrings and doublestar globs. Entries with glob
	// metacharacters are matched as patterns, the rest as substrings.
	Ignore []string
}

// Scanner lists root components one directory level below a source root.
type Scanner struct {
	classifier *component.Classifier
	substrings []string
	globs      []string
}

// New creates a scanner.
func New(opts Options) (*Scanner, error) {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = []string{"html"}
	}
	c, err := component.NewClassifier(exts)
	if err != nil {
		return nil, err
	}

	s := &Scanner{classifier: c}
	for _, pattern := range opts.Ignore {
		if pattern == "" {
			continue
		}
		if IsGlob(pattern) {
			if !doublestar.ValidatePattern(pattern) {
				return nil, errors.New(errors.CodeConfigValue).
					WithDetail("invalid ignore pattern " + pattern)
			}
			s.globs = append(s.globs, pattern)
			continue
		}
		s.substrings = append(s.substrings, pattern)
	}
	return s, nil
}

// IsGlob reports whether pattern contains glob metacharacters.
func IsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// Root returns the absolute, symlink-resolved form of dir.
func Root(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", errors.New(errors.CodeSourceNotFound).WithPath(abs)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	}
	return abs, nil
}

// FindComponents returns the root components of dir: files with a discovery
// extension inside each immediate subdirectory, in lexical order. Files
// directly in dir and deeper levels are not considered.
func (s *Scanner) FindComponents(dir string) ([]component.Component, error) {
	root, err := Root(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.New(errors.CodeSourceNotFound).WithPath(root).Wrap(err)
	}

	var found []component.Component
	for _, entry := range entries {
		sub := filepath.Join(root, entry.Name())
		if !isDir(sub) {
			continue
		}
		files, err := os.ReadDir(sub)
		if err != nil {
			return nil, errors.New(errors.CodeBuildFailed).WithPath(sub).Wrap(err)
		}
		for _, f := range files {
			path := filepath.Join(sub, f.Name())
			if !component.Exists(path) || !s.classifier.Recognized(path) {
				continue
			}
			if s.Ignored(root, path) {
				continue
			}
			c, err := s.classifier.Classify(path, false)
			if err != nil {
				return nil, err
			}
			found = append(found, c)
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].Path < found[j].Path })
	return found, nil
}

// Ignored reports whether path (under root) matches an ignore entry. Both
// substrings and globs are matched against the slash-separated path relative
// to root, so the location of the source tree never causes exclusions.
func (s *Scanner) Ignored(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	for _, sub := range s.substrings {
		if strings.Contains(rel, sub) {
			return true
		}
	}
	for _, g := range s.globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

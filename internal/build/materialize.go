package build

import (
	"bytes"
	"context"
	"crypto/sha256"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Zer0-/polymer-bricks/internal/errors"
	"github.com/Zer0-/polymer-bricks/internal/rewrite"
	"github.com/Zer0-/polymer-bricks/pkg/component"
)

// Action describes what materializing a component did.
type Action string

const (
	// ActionWritten means the destination was created or replaced.
	ActionWritten Action = "written"

	// ActionUnchanged means the destination already held the content.
	ActionUnchanged Action = "unchanged"

	// ActionSkipped means the component has no local output.
	ActionSkipped Action = "skipped"
)

// Materializer writes components into the output tree.
type Materializer struct {
	sourceDir string
	outDir    string
	rewriter  *rewrite.Rewriter
	workers   int
	logger    *slog.Logger

	// onFile is called once per component with the action taken.
	onFile func(component.Component, Action)
}

// NewMaterializer creates a materializer copying from sourceDir to outDir.
func NewMaterializer(sourceDir, outDir string, rw *rewrite.Rewriter, workers int, logger *slog.Logger) *Materializer {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default().With("component", "materialize")
	}
	return &Materializer{
		sourceDir: sourceDir,
		outDir:    outDir,
		rewriter:  rw,
		workers:   workers,
		logger:    logger,
	}
}

// Destination returns the output path of c, or "" when c has none.
func (m *Materializer) Destination(c component.Component) string {
	if c.External() {
		return ""
	}
	rel, err := filepath.Rel(m.sourceDir, c.Path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return filepath.Join(m.outDir, rel)
}

// CopyOrWrite materializes one component. HTML components are rewritten;
// other kinds are copied byte for byte. External components and files
// outside the source tree are skipped.
func (m *Materializer) CopyOrWrite(ctx context.Context, c component.Component) (Action, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst := m.Destination(c)
	if dst == "" {
		if !c.External() {
			m.logger.Warn("skipping component outside the source directory", "path", c.Path)
		}
		return ActionSkipped, nil
	}

	var content []byte
	var err error
	if c.Kind == component.Html {
		content, err = m.rewriter.Rewrite(c)
	} else {
		content, err = os.ReadFile(c.Path)
		if err != nil {
			err = errors.New(errors.CodeBuildFailed).WithPath(c.Path).Wrap(err)
		}
	}
	if err != nil {
		return "", err
	}

	if same, _ := sameContent(dst, content); same {
		return ActionUnchanged, nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", errors.New(errors.CodeBuildFailed).WithPath(dst).Wrap(err)
	}
	if err := os.WriteFile(dst, content, 0644); err != nil {
		return "", errors.New(errors.CodeBuildFailed).WithPath(dst).Wrap(err)
	}

	rel, _ := filepath.Rel(m.outDir, dst)
	if c.Kind == component.Html {
		m.logger.Debug("wrote (modified)", "path", filepath.ToSlash(rel))
	} else {
		m.logger.Debug("copied", "path", filepath.ToSlash(rel))
	}
	return ActionWritten, nil
}

// MaterializeAll materializes comps concurrently and returns how many
// components ended in each action.
func (m *Materializer) MaterializeAll(ctx context.Context, comps []component.Component) (map[Action]int, error) {
	actions := make([]Action, len(comps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i, c := range comps {
		i, c := i, c
		g.Go(func() error {
			action, err := m.CopyOrWrite(gctx, c)
			if err != nil {
				return err
			}
			actions[i] = action
			if m.onFile != nil {
				m.onFile(c, action)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	counts := make(map[Action]int)
	for _, a := range actions {
		counts[a]++
	}
	return counts, nil
}

// sameContent reports whether path exists and holds exactly content.
func sameContent(path string, content []byte) (bool, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() != int64(len(content)) {
		return false, err
	}
	existing, err := hashFile(path)
	if err != nil {
		return false, err
	}
	want := sha256.Sum256(content)
	return bytes.Equal(existing, want[:]), nil
}

// hashFile returns the SHA-256 digest of a file.
func hashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

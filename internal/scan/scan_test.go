package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Zer0-/polymer-bricks/internal/errors"
	"github.com/Zer0-/polymer-bricks/internal/fixture"
	"github.com/Zer0-/polymer-bricks/pkg/component"
)

var defaultIgnore = []string{"demo", "index", "core-popup-menu/metadata", "smoke", "jquery", "highlightjs"}

func relPaths(t *testing.T, root string, comps []component.Component) []string {
	t.Helper()
	var out []string
	for _, c := range comps {
		rel, err := filepath.Rel(root, c.Path)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestFindComponents(t *testing.T) {
	dir := fixture.Dir(t, fixture.PaperTabs)

	s, err := New(Options{Ignore: defaultIgnore})
	if err != nil {
		t.Fatal(err)
	}
	comps, err := s.FindComponents(dir)
	if err != nil {
		t.Fatalf("FindComponents error: %v", err)
	}

	want := []string{
		"core-selector/core-selector.html",
		"paper-tabs/paper-tab.html",
		"paper-tabs/paper-tabs.html",
		"polymer/polymer.html",
	}
	got := relPaths(t, dir, comps)
	if len(got) != len(want) {
		t.Fatalf("FindComponents() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FindComponents()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	for _, c := range comps {
		if c.Kind != component.Html {
			t.Errorf("%s kind = %v, want Html", c.Path, c.Kind)
		}
		if c.Inlined {
			t.Errorf("%s should not be inlined", c.Path)
		}
	}
}

func TestFindComponents_OneLevelOnly(t *testing.T) {
	dir := fixture.Dir(t, fixture.Tree{
		"top.html":               "<p>top</p>",
		"a/a.html":               "<p>a</p>",
		"a/nested/deep.html":     "<p>deep</p>",
		"a/style.css":            "p {}",
		"b/script.js":            "x()",
		"c/UPPER.HTML":           "<p>upper</p>",
		"c/notes.txt":            "hello",
		"c/subdir.html/file.css": "p {}",
	})

	s, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	comps, err := s.FindComponents(dir)
	if err != nil {
		t.Fatal(err)
	}

	got := relPaths(t, dir, comps)
	want := []string{"a/a.html", "c/UPPER.HTML"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("FindComponents() = %v, want %v", got, want)
	}
}

func TestFindComponents_DiscoverExtensions(t *testing.T) {
	dir := fixture.Dir(t, fixture.Tree{
		"a/a.html":    "<p>a</p>",
		"a/style.css": "p {}",
		"a/app.js":    "x()",
	})

	s, err := New(Options{Extensions: []string{"html", "js"}})
	if err != nil {
		t.Fatal(err)
	}
	comps, err := s.FindComponents(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(comps) != 2 {
		t.Fatalf("FindComponents() = %v, want 2 components", comps)
	}
	if comps[0].Kind != component.Html || comps[1].Kind != component.Js {
		t.Errorf("kinds = %v, %v", comps[0].Kind, comps[1].Kind)
	}
}

func TestIgnored(t *testing.T) {
	s, err := New(Options{Ignore: []string{"demo", "core-popup-menu/metadata", "**/test/**", "*/*.min.html"}})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		rel  string
		want bool
	}{
		{"paper-tabs/demo.html", true},
		{"demo-widget/widget.html", true},
		{"core-popup-menu/metadata.html", true},
		{"core-popup-menu/core-popup-menu.html", false},
		{"x/test/x.html", true},
		{"x/x.min.html", true},
		{"x/x.html", false},
	}
	for _, tt := range tests {
		if got := s.Ignored("/src", "/src/"+tt.rel); got != tt.want {
			t.Errorf("Ignored(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}
}

func TestIgnored_RootLocationDoesNotMatter(t *testing.T) {
	s, err := New(Options{Ignore: []string{"demo"}})
	if err != nil {
		t.Fatal(err)
	}
	if s.Ignored("/home/demo/src", "/home/demo/src/a/a.html") {
		t.Error("ignore entries should match relative to the root")
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := New(Options{Ignore: []string{"[unterminated"}})
	if !errors.IsCode(err, errors.CodeConfigValue) {
		t.Errorf("New() error = %v, want E122", err)
	}
}

func TestFindComponents_MissingDir(t *testing.T) {
	s, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.FindComponents(filepath.Join(t.TempDir(), "nope"))
	if !errors.IsCode(err, errors.CodeSourceNotFound) {
		t.Errorf("FindComponents() error = %v, want E143", err)
	}
}

func TestRoot_ResolvesSymlinks(t *testing.T) {
	dir := fixture.Dir(t, fixture.Tree{"real/a/a.html": "<p>a</p>"})
	link := filepath.Join(dir, "link")
	if err := os.Symlink(filepath.Join(dir, "real"), link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	root, err := Root(link)
	if err != nil {
		t.Fatal(err)
	}
	if root != filepath.Join(dir, "real") {
		t.Errorf("Root() = %q, want %q", root, filepath.Join(dir, "real"))
	}
}

package rewrite

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/Zer0-/polymer-bricks/internal/fixture"
	"github.com/Zer0-/polymer-bricks/pkg/component"
)

func newRewriter(t *testing.T, dir string) *Rewriter {
	t.Helper()
	r, err := New(Options{SourceDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func htmlComponent(dir, rel string) component.Component {
	return component.Component{Kind: component.Html, Path: filepath.Join(dir, filepath.FromSlash(rel))}
}

func TestRewrite_PaperTabs(t *testing.T) {
	dir := fixture.Dir(t, fixture.PaperTabs)
	r := newRewriter(t, dir)

	out, err := r.Rewrite(htmlComponent(dir, "paper-tabs/paper-tabs.html"))
	if err != nil {
		t.Fatalf("Rewrite error = %v", err)
	}
	s := string(out)

	for _, gone := range []string{"polymer.html", "core-selector.html", `href="paper-tabs.css"`} {
		if strings.Contains(s, gone) {
			t.Errorf("hoisted reference %q still present:\n%s", gone, s)
		}
	}
	if !strings.Contains(s, `href="/components/paper-tabs/paper-tabs-inner.css"`) {
		t.Errorf("inlined reference not rewritten:\n%s", s)
	}
	if !strings.Contains(s, "Polymer('paper-tabs'") {
		t.Errorf("inline script lost:\n%s", s)
	}
	if strings.Contains(s, "<html>") || strings.Contains(s, "<body>") {
		t.Errorf("output carries wrapper elements:\n%s", s)
	}
}

func TestRewrite_QuestionMarkAttributes(t *testing.T) {
	dir := fixture.Dir(t, fixture.PaperTabs)
	r := newRewriter(t, dir)

	out, err := r.Rewrite(htmlComponent(dir, "paper-tabs/paper-tab.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `hidden?="{{!label}}"`) {
		t.Errorf("hidden?= attribute not preserved:\n%s", out)
	}
}

func TestRewrite_ExternalInlinedKeepsAddress(t *testing.T) {
	dir := fixture.Dir(t, fixture.Tree{
		"a/a.html": `<template><script src="//cdn.example.com/x.js"></script><link rel="stylesheet" href="../b/b.css"></template>`,
		"b/b.css":  "p {}",
	})
	r := newRewriter(t, dir)

	out, err := r.Rewrite(htmlComponent(dir, "a/a.html"))
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if !strings.Contains(s, `src="//cdn.example.com/x.js"`) {
		t.Errorf("external address changed:\n%s", s)
	}
	if !strings.Contains(s, `href="/components/b/b.css"`) {
		t.Errorf("relative parent reference not rewritten:\n%s", s)
	}
}

func TestRewrite_UnrecognizedUntouched(t *testing.T) {
	dir := fixture.Dir(t, fixture.Tree{
		"a/a.html": `<link rel="icon" href="favicon.ico"><p>a</p>`,
	})
	r := newRewriter(t, dir)

	out, err := r.Rewrite(htmlComponent(dir, "a/a.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `href="favicon.ico"`) {
		t.Errorf("unrecognized reference changed:\n%s", out)
	}
}

func TestRewrite_EmptyDocuments(t *testing.T) {
	dir := fixture.Dir(t, fixture.Tree{
		"a/empty.html":   "",
		"a/comment.html": "<!-- just a comment -->",
	})
	r := newRewriter(t, dir)

	for _, name := range []string{"a/empty.html", "a/comment.html"} {
		out, err := r.Rewrite(htmlComponent(dir, name))
		if err != nil {
			t.Errorf("Rewrite(%s) error = %v", name, err)
		}
		if len(out) != 0 {
			t.Errorf("Rewrite(%s) = %q, want empty", name, out)
		}
	}
}

func TestRewrite_MissingFile(t *testing.T) {
	dir := t.TempDir()
	r := newRewriter(t, dir)
	if _, err := r.Rewrite(htmlComponent(dir, "nope/nope.html")); err == nil {
		t.Error("Rewrite of a missing file should fail")
	}
}

func TestRuntimePath(t *testing.T) {
	r, err := New(Options{SourceDir: "/src", ComponentsDir: "static"})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		in   string
		want string
	}{
		{"/src/a/a.css", "/static/a/a.css"},
		{"/src/a/b/../c.js", "/static/a/c.js"},
		{"/elsewhere/x.css", "/static/elsewhere/x.css"},
	}
	for _, tt := range tests {
		if got := r.RuntimePath(tt.in); got != tt.want {
			t.Errorf("RuntimePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

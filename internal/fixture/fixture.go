// Package fixture writes component trees for tests.
package fixture

import (
	"os"
	"path/filepath"
	"testing"
)

// Tree maps slash-separated relative paths to file contents.
type Tree map[string]string

// Write creates every file of tree under dir.
func Write(t testing.TB, dir string, tree Tree) {
	t.Helper()
	for rel, content := range tree {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

// Dir creates a temporary source directory holding tree and returns its
// symlink-resolved path.
func Dir(t testing.TB, tree Tree) string {
	t.Helper()
	dir := t.TempDir()
	if real, err := filepath.EvalSymlinks(dir); err == nil {
		dir = real
	}
	Write(t, dir, tree)
	return dir
}

// PaperTabs is a small Polymer-style component library.
//
// paper-tabs/paper-tabs.html hoists polymer, core-selector and its own
// stylesheet, and keeps paper-tabs-inner.css inside its template.
// paper-tabs/paper-tab.html hoists polymer and paper-tab.css.
var PaperTabs = Tree{
	"polymer/polymer.html": `<script src="polymer.js"></script>
`,
	"polymer/polymer.js": "window.Polymer = function() {};\n",
	"core-selector/core-selector.html": `<link rel="import" href="../polymer/polymer.html">
<polymer-element name="core-selector">
  <template><content></content></template>
  <script>Polymer('core-selector', {});</script>
</polymer-element>
`,
	"paper-tabs/paper-tabs.css": ":host { display: block; }\n",
	"paper-tabs/paper-tabs-inner.css": "#selectionBar { height: 2px; }\n",
	"paper-tabs/paper-tabs.html": `<link rel="import" href="../polymer/polymer.html">
<link rel="import" href="../core-selector/core-selector.html">
<link rel="stylesheet" href="paper-tabs.css">
<polymer-element name="paper-tabs" extends="core-selector">
  <template>
    <link rel="stylesheet" href="paper-tabs-inner.css">
    <div id="tabsContainer"><content select="*"></content></div>
  </template>
  <script>Polymer('paper-tabs', {});</script>
</polymer-element>
`,
	"paper-tabs/paper-tab.css": ":host { padding: 0 12px; }\n",
	"paper-tabs/paper-tab.html": `<link rel="import" href="../polymer/polymer.html">
<link rel="stylesheet" href="paper-tab.css">
<polymer-element name="paper-tab">
  <template>
    <div id="tabContainer" hidden?="{{!label}}"><content></content></div>
  </template>
  <script>Polymer('paper-tab', {});</script>
</polymer-element>
`,
	"paper-tabs/demo.html": `<link rel="import" href="paper-tabs.html">
<paper-tabs></paper-tabs>
`,
}

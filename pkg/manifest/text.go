package manifest

import (
	"bufio"
	"io"
	"strconv"
)

const textIndent = "    "

// writeText renders the textual module form: a preamble declaring the
// handles and asset_root, then one declaration per entry.
//
//	PolymerPolymerJs = StaticJs("polymerpolymerjs", asset_root + "/polymer/polymer.js")
//
//	component PolymerPolymerHtml {
//	    PolymerPolymerJs,
//	    WebComponent("polymerpolymerhtml", asset_root + "/polymer/polymer.html")
//	}
func (m *Manifest) writeText(w io.Writer) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("# Code generated by bricks. DO NOT EDIT.\n\n")
	for _, h := range Handles {
		bw.WriteString("handle " + string(h) + "\n")
	}
	bw.WriteString("\nasset_root = " + strconv.Quote(m.AssetRoot) + "\n")

	for _, e := range m.Entries {
		bw.WriteString("\n")
		if e.Leaf() {
			bw.WriteString(e.ID + " = " + handleCall(e) + "\n")
			continue
		}
		bw.WriteString("component " + e.ID + " {\n")
		for _, d := range e.Deps {
			bw.WriteString(textIndent + d + ",\n")
		}
		bw.WriteString(textIndent + handleCall(e) + "\n}\n")
	}

	return bw.Flush()
}

func handleCall(e Entry) string {
	asset := "asset_root + " + strconv.Quote(e.Path)
	if e.External {
		asset = strconv.Quote(e.Path)
	}
	return string(e.Handle) + "(" + strconv.Quote(e.Name) + ", " + asset + ")"
}

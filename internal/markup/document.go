package markup

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Zer0-/polymer-bricks/internal/errors"
)

// DefaultTemplateTag is the container whose nested references stay embedded.
const DefaultTemplateTag = "template"

// refAttrs maps reference-bearing tags to the attribute holding the URL.
var refAttrs = map[string]string{
	"link":   "href",
	"script": "src",
}

// fullDocument detects sources that carry their own document structure and
// must not be parsed as a fragment.
var fullDocument = regexp.MustCompile(`(?i)<!doctype|<html[\s>]`)

// Options configures parsing.
type Options struct {
	// TemplateTag is the templating container tag name (default "template").
	TemplateTag string

	// Accept filters references by URL. Nil accepts every non-empty URL.
	Accept func(url string) bool
}

// Reference is a reference-bearing element found in a document.
type Reference struct {
	// Tag is "link" or "script".
	Tag string

	// URL is the raw attribute value.
	URL string

	// Import is true for link elements with rel="import".
	Import bool

	// InTemplate is true when an ancestor is the templating container.
	InTemplate bool

	node *html.Node
}

// Hoisted reports whether the reference is removed from its document and
// satisfied by load order instead.
func (r *Reference) Hoisted() bool {
	return r.Import || !r.InTemplate
}

// Document is a parsed component document.
type Document struct {
	// root holds the parsed nodes. For fragments it is a synthetic body
	// whose children are the fragment nodes.
	root     *html.Node
	fragment bool
	refs     []*Reference
}

// Parse parses component markup. The source is escaped before parsing (see
// Escape). Sources with a doctype or html tag are parsed as full documents;
// everything else is parsed as a body fragment so the parser's synthesized
// html/head/body wrappers never reach the output.
func Parse(src []byte, opts Options) (*Document, error) {
	if opts.TemplateTag == "" {
		opts.TemplateTag = DefaultTemplateTag
	}
	text := Escape(string(src))

	doc := &Document{}
	if fullDocument.MatchString(text) {
		root, err := html.Parse(strings.NewReader(text))
		if err != nil {
			return nil, errors.New(errors.CodeParse).Wrap(err)
		}
		doc.root = root
	} else {
		body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
		nodes, err := html.ParseFragment(strings.NewReader(text), body)
		if err != nil {
			return nil, errors.New(errors.CodeParse).Wrap(err)
		}
		for _, n := range nodes {
			body.AppendChild(n)
		}
		doc.root = body
		doc.fragment = true
	}

	if !hasElement(doc.root) {
		return nil, errors.New(errors.CodeParse).
			WithDetail("The document is empty or contains only comments.")
	}

	doc.collect(doc.root, false, opts)
	return doc, nil
}

// collect walks the tree top-down, carrying whether an ancestor is the
// templating container, and records every accepted reference.
func (d *Document) collect(n *html.Node, inTemplate bool, opts Options) {
	if n.Type == html.ElementNode {
		if attr, ok := refAttrs[n.Data]; ok {
			if url := getAttr(n, attr); url != "" && (opts.Accept == nil || opts.Accept(url)) {
				d.refs = append(d.refs, &Reference{
					Tag:        n.Data,
					URL:        url,
					Import:     n.Data == "link" && strings.EqualFold(getAttr(n, "rel"), "import"),
					InTemplate: inTemplate,
					node:       n,
				})
			}
		}
		if n.Data == opts.TemplateTag {
			inTemplate = true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.collect(c, inTemplate, opts)
	}
}

// References returns the references in document order.
func (d *Document) References() []*Reference {
	return d.refs
}

// Remove detaches a reference's element from the document.
func (d *Document) Remove(ref *Reference) {
	if p := ref.node.Parent; p != nil {
		p.RemoveChild(ref.node)
	}
}

// SetURL rewrites a reference's URL attribute.
func (d *Document) SetURL(ref *Reference, url string) {
	attr := refAttrs[ref.Tag]
	for i := range ref.node.Attr {
		if ref.node.Attr[i].Namespace == "" && ref.node.Attr[i].Key == attr {
			ref.node.Attr[i].Val = url
		}
	}
	ref.URL = url
}

// Render serializes the document and restores escaped attribute names.
func (d *Document) Render() ([]byte, error) {
	var buf bytes.Buffer
	if d.fragment {
		for c := d.root.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return nil, errors.New(errors.CodeParse).Wrap(err)
			}
		}
	} else if err := html.Render(&buf, d.root); err != nil {
		return nil, errors.New(errors.CodeParse).Wrap(err)
	}
	return []byte(Restore(buf.String())), nil
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasElement(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode || c.Type == html.DoctypeNode {
			return true
		}
		if hasElement(c) {
			return true
		}
	}
	return false
}

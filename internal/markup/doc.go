// Package markup parses component documents, finds their resource
// references, and serializes them back after rewriting.
//
// A reference is a link element with a non-empty href or a script element
// with a non-empty src. Each reference records whether it sits inside the
// templating container (by default <template>) and whether it is an import
// marker (rel="import"). References that are import markers, or that sit
// outside any template, are hoisted: the caller removes them and loads them
// through the generated manifest instead. The rest stay embedded.
//
// Parsing uses golang.org/x/net/html. Attribute names like hidden?= are
// protected by Escape/Restore around the parse.
package markup

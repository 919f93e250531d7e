// Package errors provides structured, actionable error messages for bricks.
//
// Every error carries a unique code (e.g., "E201") that maps to a category,
// a short message and a longer explanation. Errors can be enriched with the
// path that failed, the document that referenced it, a suggestion, and a
// wrapped cause:
//
//	err := errors.New(errors.CodeMissingDependency).
//	    WithPath("/src/paper-tabs/missing.css").
//	    WithSource("/src/paper-tabs/paper-tab.html").
//	    WithSuggestion("Fix the href or add the file")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E201: Missing dependency
//	//
//	//   /src/paper-tabs/missing.css
//	//   referenced from /src/paper-tabs/paper-tab.html
//	//
//	//   A referenced local resource does not exist on disk.
//	//
//	//   Hint: Fix the href or add the file
//
// # Error Categories
//
//   - resolve: dependency graph construction (missing files, cycles)
//   - markup: document parsing and rewriting
//   - emit: manifest generation (identifier collisions)
//   - config: bricks.json problems
//   - cli: command line and I/O failures
//
// Codes in the resolve category are recoverable at a root-component
// boundary: the resolver excludes the root and keeps building. Everything
// else aborts the build.
package errors

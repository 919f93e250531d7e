// Package build turns a component source tree into a deployable output
// directory.
//
// A build resolves the dependency map, materializes every local component
// under <output>/components (HTML rewritten, everything else copied), and
// writes the manifest at the output root.
//
// # Usage
//
//	builder, err := build.New(cfg, build.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := builder.Build(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Built %d components in %s\n", result.Components, result.Duration)
//
// # Output Structure
//
//	dist/
//	├── components/
//	│   ├── polymer/polymer.html
//	│   ├── polymer/polymer.js
//	│   └── paper-tabs/...
//	└── manifest.json
//
// Files whose content has not changed since the last build are left alone,
// so repeated builds are byte-identical and keep modification times.
package build

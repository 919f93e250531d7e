package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid bricks.json",
		Detail:   "The configuration file could not be read or parsed.",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Unknown configuration option",
		Detail:   "The configuration contains an option bricks does not recognize.",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range or has the wrong form.",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	"E141": {
		Category: CategoryCLI,
		Message:  "Configuration not found",
		Detail:   "No bricks.json was found and no source directory was given.",
	},
	"E142": {
		Category: CategoryCLI,
		Message:  "Build failed",
		Detail:   "Writing the output tree or the manifest failed.",
	},
	"E143": {
		Category: CategoryCLI,
		Message:  "Source directory not found",
		Detail:   "The component source directory does not exist or is not a directory.",
	},
	"E145": {
		Category: CategoryCLI,
		Message:  "Publish failed",
		Detail:   "Uploading the output tree to object storage failed.",
	},
	"E146": {
		Category: CategoryCLI,
		Message:  "Development server failed",
		Detail:   "The development server could not start or stopped unexpectedly.",
	},

	// ============================================
	// Resolve Errors (E200-E219)
	// ============================================

	"E201": {
		Category: CategoryResolve,
		Message:  "Missing dependency",
		Detail:   "A referenced local resource does not exist on disk.",
	},
	"E202": {
		Category: CategoryResolve,
		Message:  "Dependency cycle",
		Detail:   "A component depends on itself through the chain of references shown.",
	},
	"E203": {
		Category: CategoryResolve,
		Message:  "Dependency chain too deep",
		Detail:   "The chain of nested references exceeds the configured maximum depth.",
	},
	"E204": {
		Category: CategoryResolve,
		Message:  "Unrecognized component kind",
		Detail:   "The file extension does not map to a stylesheet, script, or markup component.",
	},
	"E205": {
		Category: CategoryMarkup,
		Message:  "Document could not be parsed",
		Detail:   "The markup is empty or malformed. It is treated as having no references.",
	},
	"E206": {
		Category: CategoryResolve,
		Message:  "Dependency outside source directory",
		Detail:   "A reference points above the component source directory, where nothing is deployed under the asset root.",
	},

	// ============================================
	// Emit Errors (E220-E239)
	// ============================================

	"E220": {
		Category: CategoryEmit,
		Message:  "Duplicate identifier",
		Detail:   "Two distinct components mangle to the same generated name.",
	},
	"E221": {
		Category: CategoryEmit,
		Message:  "Invalid manifest",
		Detail:   "The manifest could not be encoded or decoded.",
	},
}

// GetAllCodes returns all registered error codes in ascending order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

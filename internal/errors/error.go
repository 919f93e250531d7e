package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryResolve Category = "resolve"
	CategoryMarkup  Category = "markup"
	CategoryEmit    Category = "emit"
	CategoryConfig  Category = "config"
	CategoryCLI     Category = "cli"
)

// Registered codes referenced from code. The full table lives in registry.go.
const (
	CodeMissingDependency = "E201"
	CodeCycle             = "E202"
	CodeTooDeep           = "E203"
	CodeUnknownKind       = "E204"
	CodeParse             = "E205"
	CodeOutsideSource     = "E206"
	CodeDuplicateID       = "E220"
	CodeManifest          = "E221"
	CodeConfigInvalid     = "E120"
	CodeConfigUnknownKey  = "E121"
	CodeConfigValue       = "E122"
	CodeConfigNotFound    = "E141"
	CodeBuildFailed       = "E142"
	CodeSourceNotFound    = "E143"
	CodePublishFailed     = "E145"
	CodeDevServer         = "E146"
)

// BricksError is a structured error with the failing path, suggestions, and
// an optional wrapped cause.
type BricksError struct {
	// Code is a unique error identifier (e.g., "E201").
	Code string

	// Category is the error type (resolve, markup, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Path is the file or URI the error is about.
	Path string

	// Source is the document that referenced Path, if any.
	Source string

	// Chain lists the component paths leading to the error, root first.
	Chain []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *BricksError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *BricksError) Unwrap() error {
	return e.Wrapped
}

// WithPath records the path the error is about.
func (e *BricksError) WithPath(path string) *BricksError {
	e.Path = path
	return e
}

// WithSource records the document that referenced the failing path.
func (e *BricksError) WithSource(source string) *BricksError {
	e.Source = source
	return e
}

// WithChain records the component chain leading to the failure.
func (e *BricksError) WithChain(chain []string) *BricksError {
	e.Chain = append([]string(nil), chain...)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *BricksError) WithSuggestion(s string) *BricksError {
	e.Suggestion = s
	return e
}

// WithDetail replaces the detailed explanation.
func (e *BricksError) WithDetail(d string) *BricksError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *BricksError) Wrap(err error) *BricksError {
	e.Wrapped = err
	return e
}

// New creates a BricksError from a registered error code.
func New(code string) *BricksError {
	template, ok := registry[code]
	if !ok {
		return &BricksError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &BricksError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// FromError wraps a standard error in a BricksError.
func FromError(err error, code string) *BricksError {
	if err == nil {
		return nil
	}
	var be *BricksError
	if stderrors.As(err, &be) {
		return be
	}
	return New(code).Wrap(err)
}

// IsCode reports whether any error in err's chain is a BricksError with the
// given code.
func IsCode(err error, code string) bool {
	for err != nil {
		var be *BricksError
		if !stderrors.As(err, &be) {
			return false
		}
		if be.Code == code {
			return true
		}
		err = be.Wrapped
	}
	return false
}

// Recoverable reports whether err may be handled at a root-component
// boundary instead of aborting the build.
func Recoverable(err error) bool {
	var be *BricksError
	if !stderrors.As(err, &be) {
		return false
	}
	return be.Category == CategoryResolve && be.Code != CodeUnknownKind
}

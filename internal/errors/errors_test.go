package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "missing dependency",
			code:    CodeMissingDependency,
			wantMsg: "Missing dependency",
			wantCat: CategoryResolve,
		},
		{
			name:    "parse failure",
			code:    CodeParse,
			wantMsg: "Document could not be parsed",
			wantCat: CategoryMarkup,
		},
		{
			name:    "duplicate identifier",
			code:    CodeDuplicateID,
			wantMsg: "Duplicate identifier",
			wantCat: CategoryEmit,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestBricksError_Error(t *testing.T) {
	err := New(CodeMissingDependency).WithPath("/src/a/b.css")
	want := "E201: Missing dependency: /src/a/b.css"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err2 := &BricksError{Message: "test error"}
	if err2.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", err2.Error(), "test error")
	}

	err3 := New(CodeBuildFailed).Wrap(fmt.Errorf("disk full"))
	if got := err3.Error(); got != "E142: Build failed: disk full" {
		t.Errorf("Error() = %q", got)
	}
}

func TestBricksError_Builders(t *testing.T) {
	chain := []string{"/src/a/a.html", "/src/b/b.html"}
	err := New(CodeCycle).
		WithPath("/src/a/a.html").
		WithSource("/src/b/b.html").
		WithChain(chain).
		WithSuggestion("Remove one of the imports").
		WithDetail("custom")

	if err.Path != "/src/a/a.html" {
		t.Errorf("Path = %q", err.Path)
	}
	if err.Source != "/src/b/b.html" {
		t.Errorf("Source = %q", err.Source)
	}
	if err.Suggestion != "Remove one of the imports" {
		t.Errorf("Suggestion = %q", err.Suggestion)
	}
	if err.Detail != "custom" {
		t.Errorf("Detail = %q", err.Detail)
	}

	chain[0] = "mutated"
	if err.Chain[0] != "/src/a/a.html" {
		t.Error("WithChain should copy the slice")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, CodeBuildFailed) != nil {
		t.Error("FromError(nil, ...) should return nil")
	}

	be := New(CodeCycle)
	if FromError(be, CodeBuildFailed) != be {
		t.Error("FromError should return BricksError as-is")
	}

	wrapped := fmt.Errorf("context: %w", be)
	if FromError(wrapped, CodeBuildFailed) != be {
		t.Error("FromError should find a BricksError inside a chain")
	}

	stdErr := stderrors.New("boom")
	result := FromError(stdErr, CodeBuildFailed)
	if result.Wrapped != stdErr {
		t.Error("Standard error should be wrapped")
	}
	if result.Code != CodeBuildFailed {
		t.Errorf("Code = %q, want %q", result.Code, CodeBuildFailed)
	}
}

func TestIsCode(t *testing.T) {
	inner := New(CodeMissingDependency)
	outer := New(CodeBuildFailed).Wrap(inner)

	if !IsCode(outer, CodeBuildFailed) {
		t.Error("IsCode should match the outer code")
	}
	if !IsCode(outer, CodeMissingDependency) {
		t.Error("IsCode should match a wrapped code")
	}
	if IsCode(outer, CodeCycle) {
		t.Error("IsCode should not match an absent code")
	}
	if IsCode(stderrors.New("plain"), CodeCycle) {
		t.Error("IsCode should be false for plain errors")
	}
	if !stderrors.Is(outer, inner) {
		t.Error("errors.Is should see the wrapped BricksError")
	}
}

func TestRecoverable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{New(CodeMissingDependency), true},
		{New(CodeCycle), true},
		{New(CodeTooDeep), true},
		{New(CodeUnknownKind), false},
		{New(CodeBuildFailed), false},
		{stderrors.New("io"), false},
		{fmt.Errorf("wrapped: %w", New(CodeMissingDependency)), true},
	}
	for _, tt := range tests {
		if got := Recoverable(tt.err); got != tt.want {
			t.Errorf("Recoverable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New(CodeMissingDependency).
		WithPath("/src/paper-tabs/missing.css").
		WithSource("/src/paper-tabs/paper-tab.html").
		WithChain([]string{"/src/paper-tabs/paper-tab.html"}).
		WithSuggestion("Fix the href")

	formatted := err.Format()

	for _, want := range []string{
		"ERROR E201: Missing dependency",
		"/src/paper-tabs/missing.css",
		"referenced from /src/paper-tabs/paper-tab.html",
		"Hint: Fix the href",
	} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Format() missing %q in:\n%s", want, formatted)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	err := New(CodeMissingDependency).WithPath("b.css").WithSource("a.html")
	want := "a.html: E201: Missing dependency (b.css)"
	if got := err.FormatCompact(); got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New(CodeMissingDependency).WithPath("b.css").Wrap(stderrors.New("stat failed"))
	json := err.FormatJSON()

	for _, want := range []string{
		`"code":"E201"`,
		`"category":"resolve"`,
		`"message":"Missing dependency"`,
		`"path":"b.css"`,
		`"cause":"stat failed"`,
	} {
		if !strings.Contains(json, want) {
			t.Errorf("FormatJSON() missing %s in %s", want, json)
		}
	}
}

func TestGetAllCodes(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) == 0 {
		t.Fatal("GetAllCodes() should return codes")
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] > codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
}

func TestGetAllCodes_MatchesConstants(t *testing.T) {
	want := []string{
		CodeConfigInvalid, CodeConfigUnknownKey, CodeConfigValue,
		CodeConfigNotFound, CodeBuildFailed, CodeSourceNotFound, CodePublishFailed, CodeDevServer,
		CodeMissingDependency, CodeCycle, CodeTooDeep, CodeUnknownKind, CodeParse, CodeOutsideSource,
		CodeDuplicateID, CodeManifest,
	}
	got := GetAllCodes()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("GetAllCodes() = %v, want %v", got, want)
	}

	// The config range ends at E122.
	if _, ok := GetTemplate("E123"); ok {
		t.Error("E123 should not be registered")
	}
	if tmpl, _ := GetTemplate(CodeOutsideSource); tmpl.Category != CategoryResolve {
		t.Errorf("E206 category = %q, want resolve", tmpl.Category)
	}
}

func TestGetTemplate(t *testing.T) {
	template, ok := GetTemplate(CodeCycle)
	if !ok {
		t.Fatal("E202 should exist")
	}
	if template.Message != "Dependency cycle" {
		t.Errorf("Message = %q", template.Message)
	}

	if _, ok := GetTemplate("E999"); ok {
		t.Error("E999 should not exist")
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("short text", 100)
	if len(got) != 1 || got[0] != "short text" {
		t.Errorf("wrapText short text: got %v", got)
	}

	got = wrapText("this is a longer text that should be wrapped", 20)
	if len(got) != 3 {
		t.Errorf("wrapText long text: expected 3 lines, got %d: %v", len(got), got)
	}

	if got := wrapText("", 10); len(got) != 0 {
		t.Errorf("wrapText empty: expected empty, got %v", got)
	}
}

func TestColorFunctions(t *testing.T) {
	EnableColors()
	if !strings.Contains(red("test"), "\033[31m") {
		t.Error("red should contain ANSI code when colors enabled")
	}

	DisableColors()
	if strings.Contains(red("test"), "\033[") {
		t.Error("red should not contain ANSI code when colors disabled")
	}
	EnableColors()
}

package main

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/Zer0-/polymer-bricks/internal/build"
	"github.com/Zer0-/polymer-bricks/internal/errors"
	"github.com/Zer0-/polymer-bricks/internal/resolve"
	"github.com/Zer0-/polymer-bricks/pkg/component"
)

type reportJSON struct {
	OK         bool   `json:"ok"`
	Components int    `json:"components"`
	Written    int    `json:"written"`
	Unchanged  int    `json:"unchanged"`
	Manifest   string `json:"manifest"`
	DurationMS int64  `json:"duration_ms"`
	Excluded   []struct {
		Code     string `json:"code"`
		Category string `json:"category"`
		Path     string `json:"path"`
	} `json:"excluded"`
	Error *struct {
		Code  string `json:"code"`
		Cause string `json:"cause"`
	} `json:"error"`
}

func decodeReport(t *testing.T, data []byte) reportJSON {
	t.Helper()
	var r reportJSON
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, data)
	}
	return r
}

func TestWriteBuildReport_Success(t *testing.T) {
	result := &build.Result{
		Duration:     1500 * time.Millisecond,
		Components:   8,
		Written:      6,
		Unchanged:    2,
		ManifestPath: "/out/manifest.json",
		Excluded: []resolve.Warning{{
			Root: component.Component{Kind: component.Html, Path: "/src/b/b.html"},
			Err:  errors.New(errors.CodeMissingDependency).WithPath("/src/b/missing.js"),
		}},
	}

	var buf bytes.Buffer
	if err := writeBuildReport(&buf, result, nil); err != nil {
		t.Fatalf("writeBuildReport error = %v", err)
	}

	r := decodeReport(t, buf.Bytes())
	if !r.OK || r.Error != nil {
		t.Errorf("ok = %v, error = %v; want success", r.OK, r.Error)
	}
	if r.Components != 8 || r.Written != 6 || r.Unchanged != 2 {
		t.Errorf("counts = %d/%d/%d, want 8/6/2", r.Components, r.Written, r.Unchanged)
	}
	if r.Manifest != "/out/manifest.json" || r.DurationMS != 1500 {
		t.Errorf("manifest = %q, duration_ms = %d", r.Manifest, r.DurationMS)
	}
	if len(r.Excluded) != 1 {
		t.Fatalf("excluded = %d, want 1", len(r.Excluded))
	}
	if x := r.Excluded[0]; x.Code != "E201" || x.Category != "resolve" || x.Path != "/src/b/missing.js" {
		t.Errorf("excluded[0] = %+v", x)
	}
}

func TestWriteBuildReport_NoExclusionsIsEmptyList(t *testing.T) {
	var buf bytes.Buffer
	if err := writeBuildReport(&buf, &build.Result{}, nil); err != nil {
		t.Fatalf("writeBuildReport error = %v", err)
	}
	if !strings.Contains(buf.String(), `"excluded": []`) {
		t.Errorf("want an empty excluded list, got:\n%s", buf.String())
	}
}

func TestWriteBuildReport_Failure(t *testing.T) {
	var buf bytes.Buffer
	err := writeBuildReport(&buf, nil, stderrors.New("disk full"))
	if err != errReported {
		t.Fatalf("writeBuildReport error = %v, want errReported", err)
	}

	r := decodeReport(t, buf.Bytes())
	if r.OK {
		t.Error("ok = true for a failed build")
	}
	if r.Error == nil || r.Error.Code != errors.CodeBuildFailed || r.Error.Cause != "disk full" {
		t.Errorf("error = %+v, want E142 caused by disk full", r.Error)
	}
}

func TestWriteBuildReport_KeepsCodedError(t *testing.T) {
	var buf bytes.Buffer
	cause := errors.New(errors.CodeSourceNotFound).WithPath("/nope")
	if err := writeBuildReport(&buf, nil, cause); err != errReported {
		t.Fatalf("writeBuildReport error = %v", err)
	}
	if r := decodeReport(t, buf.Bytes()); r.Error == nil || r.Error.Code != errors.CodeSourceNotFound {
		t.Errorf("error = %+v, want E143", r.Error)
	}
}

func TestExplain(t *testing.T) {
	var buf bytes.Buffer
	listCodes(&buf)
	out := buf.String()
	for _, want := range []string{"E120", "E201", "E202  resolve  Dependency cycle", "E221"} {
		if !strings.Contains(out, want) {
			t.Errorf("list missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "E120") > strings.Index(out, "E201") {
		t.Error("codes should be listed in ascending order")
	}

	buf.Reset()
	if err := explainCode(&buf, "e202"); err != nil {
		t.Fatalf("explainCode error = %v", err)
	}
	if !strings.Contains(buf.String(), "E202: Dependency cycle") || !strings.Contains(buf.String(), "Category: resolve") {
		t.Errorf("explain E202:\n%s", buf.String())
	}

	if err := explainCode(&buf, "E999"); err == nil {
		t.Error("unknown code should fail")
	}
}

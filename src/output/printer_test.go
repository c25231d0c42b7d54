package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sofmeright/loq/src/check"
	"github.com/sofmeright/loq/src/config"
	"github.com/sofmeright/loq/src/ratchet"
)

func testPrinter(buf *bytes.Buffer) *Printer {
	return &Printer{Writer: buf, Color: false}
}

func sampleReport() *check.Report {
	outcomes := []check.Outcome{
		{Path: "big.go", Kind: check.OutcomeViolation, Lines: 620, Limit: 500, Severity: config.SeverityError},
		{Path: "blob.bin", Kind: check.OutcomeSkip, Skip: check.SkipBinary},
		{Path: "docs/guide.md", Kind: check.OutcomeViolation, Lines: 2100, Limit: 2000, Severity: config.SeverityWarning},
		{Path: "ok.go", Kind: check.OutcomePass, Lines: 100, Limit: 500},
	}
	return check.BuildReport(outcomes, []string{"Split large files."}, 42*time.Millisecond)
}

func TestPrintViolationLines(t *testing.T) {
	var buf bytes.Buffer
	testPrinter(&buf).Print(sampleReport())
	out := buf.String()

	for _, want := range []string{
		"error[max-lines]: big.go: 620 lines (limit: 500, +120 over)",
		"warning[max-lines]: docs/guide.md: 2100 lines (limit: 2000, +100 over)",
		"warning[skip-binary]: blob.bin: binary file skipped",
		"3 files checked, 1 skipped, 1 passed, 1 errors, 2 warnings (42ms)",
		"Split large files.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if strings.Contains(out, "ok.go") {
		t.Error("passing files must stay quiet without verbose")
	}
}

func TestPrintAllPassed(t *testing.T) {
	report := check.BuildReport([]check.Outcome{
		{Path: "a.go", Kind: check.OutcomePass, Lines: 10, Limit: 500},
		{Path: "b.go", Kind: check.OutcomePass, Lines: 20, Limit: 500},
	}, nil, 7*time.Millisecond)

	var buf bytes.Buffer
	testPrinter(&buf).Print(report)

	want := "All checks passed! (2 files in 7ms)"
	if !strings.Contains(buf.String(), want) {
		t.Errorf("output missing %q:\n%s", want, buf.String())
	}
}

func TestPrintVerboseShowsPasses(t *testing.T) {
	var buf bytes.Buffer
	p := testPrinter(&buf)
	p.Verbose = true
	p.Print(sampleReport())

	if !strings.Contains(buf.String(), "ok: ok.go: 100 lines (limit: 500)") {
		t.Errorf("verbose output missing pass line:\n%s", buf.String())
	}
}

func TestWriteJSONShape(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleReport()); err != nil {
		t.Fatalf("write json: %v", err)
	}

	var decoded struct {
		Files []struct {
			Path     string `json:"path"`
			Status   string `json:"status"`
			Lines    int    `json:"lines"`
			Limit    int    `json:"limit"`
			Severity string `json:"severity"`
			Reason   string `json:"reason"`
		} `json:"files"`
		Summary struct {
			Checked  int `json:"checked"`
			Errors   int `json:"errors"`
			Warnings int `json:"warnings"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(decoded.Files) != 4 {
		t.Fatalf("files = %d, want 4", len(decoded.Files))
	}
	if decoded.Files[0].Path != "big.go" || decoded.Files[0].Status != "violation" || decoded.Files[0].Severity != "error" {
		t.Errorf("big.go entry = %+v", decoded.Files[0])
	}
	if decoded.Files[1].Reason != "skip-binary" {
		t.Errorf("blob.bin reason = %q", decoded.Files[1].Reason)
	}
	if decoded.Summary.Checked != 3 || decoded.Summary.Errors != 1 || decoded.Summary.Warnings != 2 {
		t.Errorf("summary = %+v", decoded.Summary)
	}
}

func TestPrintPlan(t *testing.T) {
	plan := ratchet.Plan{Changes: []ratchet.Change{
		{Kind: ratchet.ChangeAdd, Path: "new.go", NewLimit: 700, Lines: 700},
		{Kind: ratchet.ChangeUpdate, Path: "shrunk.go", OldLimit: 900, NewLimit: 640, Lines: 640},
		{Kind: ratchet.ChangeRemove, Path: "fixed.go", OldLimit: 450},
	}}

	var buf bytes.Buffer
	testPrinter(&buf).PrintPlan(plan, "baseline")
	out := buf.String()

	for _, want := range []string{
		"+ new.go: limit 700 (700 lines)",
		"~ shrunk.go: limit 900 -> 640 (640 lines)",
		"- fixed.go: limit 450 removed (now compliant)",
		"✔ baseline: 1 added, 1 updated, 1 removed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintPlanEmpty(t *testing.T) {
	var buf bytes.Buffer
	testPrinter(&buf).PrintPlan(ratchet.Plan{}, "tighten")

	if !strings.Contains(buf.String(), "Nothing to tighten") {
		t.Errorf("output = %q", buf.String())
	}
}

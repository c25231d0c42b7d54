package output

import (
	"encoding/json"
	"io"

	"github.com/sofmeright/loq/src/check"
)

// jsonReport is the machine-readable shape of a run.
type jsonReport struct {
	Files   []jsonFile  `json:"files"`
	Summary jsonSummary `json:"summary"`
}

type jsonFile struct {
	Path     string `json:"path"`
	Status   string `json:"status"`
	Lines    int    `json:"lines,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Severity string `json:"severity,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

type jsonSummary struct {
	Checked   int   `json:"checked"`
	Skipped   int   `json:"skipped"`
	Passed    int   `json:"passed"`
	Errors    int   `json:"errors"`
	Warnings  int   `json:"warnings"`
	ElapsedMs int64 `json:"elapsed_ms"`
}

// WriteJSON renders the full report as a single JSON object.
func WriteJSON(w io.Writer, report *check.Report) error {
	out := jsonReport{
		Files: make([]jsonFile, 0, len(report.Outcomes)),
		Summary: jsonSummary{
			Checked:   report.Checked,
			Skipped:   report.Skipped,
			Passed:    report.Passed,
			Errors:    report.Errors,
			Warnings:  report.Warnings,
			ElapsedMs: report.Elapsed.Milliseconds(),
		},
	}

	for _, o := range report.Outcomes {
		file := jsonFile{Path: o.Path}
		switch o.Kind {
		case check.OutcomePass:
			file.Status = "pass"
			file.Lines = o.Lines
			file.Limit = o.Limit
		case check.OutcomeViolation:
			file.Status = "violation"
			file.Lines = o.Lines
			file.Limit = o.Limit
			file.Severity = o.Severity.String()
		case check.OutcomeSkip:
			file.Status = "skipped"
			file.Reason = o.Skip.Tag()
			file.Detail = o.Detail
		}
		out.Files = append(out.Files, file)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

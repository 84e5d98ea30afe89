package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/medallia/speech-api-reference-implementation/internal/executor"
	"github.com/medallia/speech-api-reference-implementation/internal/util"
)

func sampleReport() executor.Report {
	return executor.Report{
		Accepted: 2,
		Rejected: 1,
		Errors:   []string{"b.wav: invalid locale"},
		Batches:  1,
		Items:    3,
		Duration: 1500 * time.Millisecond,
	}
}

func failedReport() executor.Report {
	r := sampleReport()
	r.TaskErrors = []error{
		util.WrapBatchError(2, "c.wav", "d.wav", 2, fmt.Errorf("%w: HTTP 502", util.ErrOperationFailed)),
		util.WrapBatchError(3, "e.wav", "f.wav", 2, fmt.Errorf("%w: HTTP 503", util.ErrOperationFailed)),
	}
	r.Failure = r.TaskErrors[0]
	return r
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		want   string
	}{
		{name: "table", format: FormatTable, want: "*output.TableFormatter"},
		{name: "json", format: FormatJSON, want: "*output.JSONFormatter"},
		{name: "yaml", format: FormatYAML, want: "*output.YAMLFormatter"},
		{name: "unknown falls back to table", format: Format("xml"), want: "*output.TableFormatter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFormatter(tt.format)
			if got := fmt.Sprintf("%T", f); got != tt.want {
				t.Errorf("NewFormatter(%q) = %s, want %s", tt.format, got, tt.want)
			}
		})
	}
}

func TestOptions(t *testing.T) {
	options := &Options{}
	for _, opt := range []Option{WithNoColor(true), WithNoHeaders(true), WithWide(true)} {
		opt(options)
	}

	if !options.NoColor || !options.NoHeaders || !options.Wide {
		t.Errorf("options not applied: %+v", options)
	}
}

func TestTableFormatter_FormatReport(t *testing.T) {
	tests := []struct {
		name        string
		report      executor.Report
		opts        *Options
		contains    []string
		notContains []string
	}{
		{
			name:   "successful run with rejections",
			report: sampleReport(),
			opts:   &Options{NoColor: true},
			contains: []string{
				"STATUS", "ACCEPTED", "REJECTED",
				"Succeeded", "1.5s",
				"Rejected items (1):",
				"b.wav: invalid locale",
			},
			notContains: []string{"Error:"},
		},
		{
			name:   "failed run",
			report: failedReport(),
			opts:   &Options{NoColor: true},
			contains: []string{
				"Failed",
				"Error: batch 2 (2 items, c.wav..d.wav): operation failed: HTTP 502",
			},
			notContains: []string{"Failed batches"},
		},
		{
			name:     "wide lists every failed batch",
			report:   failedReport(),
			opts:     &Options{NoColor: true, Wide: true},
			contains: []string{"Failed batches (2):", "HTTP 503"},
		},
		{
			name:        "no headers",
			report:      sampleReport(),
			opts:        &Options{NoColor: true, NoHeaders: true},
			contains:    []string{"Succeeded"},
			notContains: []string{"STATUS"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewTableFormatter(tt.opts).FormatReport(&buf, tt.report); err != nil {
				t.Fatalf("FormatReport failed: %v", err)
			}

			out := buf.String()
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.notContains {
				if strings.Contains(out, s) {
					t.Errorf("output should not contain %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestTableFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(&Options{NoColor: true})

	if err := f.Format(&buf, map[string]string{"version": "1.0.0", "commit": "abc123"}); err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	out := buf.String()
	// Keys are sorted
	if strings.Index(out, "commit") > strings.Index(out, "version") {
		t.Errorf("expected sorted keys:\n%s", out)
	}
	if !strings.Contains(out, "abc123") {
		t.Errorf("expected value in output:\n%s", out)
	}

	buf.Reset()
	if err := f.Format(&buf, "plain text"); err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if buf.String() != "plain text\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestJSONFormatter_FormatReport(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONFormatter(nil).FormatReport(&buf, failedReport()); err != nil {
		t.Fatalf("FormatReport failed: %v", err)
	}

	var got reportView
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}

	if got.Status != "failed" {
		t.Errorf("status = %q, want failed", got.Status)
	}
	if got.Accepted != 2 || got.Rejected != 1 || got.Items != 3 {
		t.Errorf("unexpected counters: %+v", got)
	}
	if got.Duration != "1.5s" {
		t.Errorf("duration = %q, want 1.5s", got.Duration)
	}
	if len(got.TaskErrors) != 2 || !strings.Contains(got.Failure, "HTTP 502") {
		t.Errorf("unexpected failures: %q %v", got.Failure, got.TaskErrors)
	}
	if len(got.Errors) != 1 {
		t.Errorf("expected 1 error line, got %v", got.Errors)
	}
}

func TestJSONFormatter_Indentation(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONFormatter(nil).Format(&buf, map[string]int{"a": 1}); err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if buf.String() != "{\n  \"a\": 1\n}\n" {
		t.Errorf("unexpected JSON %q", buf.String())
	}
}

func TestYAMLFormatter_FormatReport(t *testing.T) {
	var buf bytes.Buffer
	if err := NewYAMLFormatter(nil).FormatReport(&buf, sampleReport()); err != nil {
		t.Fatalf("FormatReport failed: %v", err)
	}

	var got reportView
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, buf.String())
	}

	if got.Status != "succeeded" {
		t.Errorf("status = %q, want succeeded", got.Status)
	}
	if got.Failure != "" || len(got.TaskErrors) != 0 {
		t.Errorf("successful report should have no failures: %+v", got)
	}
	if len(got.Errors) != 1 || got.Errors[0] != "b.wav: invalid locale" {
		t.Errorf("unexpected error lines: %v", got.Errors)
	}
}

func TestYAMLFormatter_CompareWithJSON(t *testing.T) {
	report := failedReport()

	var jsonBuf, yamlBuf bytes.Buffer
	if err := NewJSONFormatter(nil).FormatReport(&jsonBuf, report); err != nil {
		t.Fatal(err)
	}
	if err := NewYAMLFormatter(nil).FormatReport(&yamlBuf, report); err != nil {
		t.Fatal(err)
	}

	var fromJSON, fromYAML reportView
	if err := json.Unmarshal(jsonBuf.Bytes(), &fromJSON); err != nil {
		t.Fatal(err)
	}
	if err := yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML); err != nil {
		t.Fatal(err)
	}

	if fromJSON.Failure != fromYAML.Failure || fromJSON.Accepted != fromYAML.Accepted ||
		len(fromJSON.TaskErrors) != len(fromYAML.TaskErrors) {
		t.Errorf("JSON and YAML disagree:\n%+v\n%+v", fromJSON, fromYAML)
	}
}

func TestNewReportView_NoFailure(t *testing.T) {
	v := newReportView(executor.Report{Failure: nil})
	if v.Status != "succeeded" || v.Failure != "" {
		t.Errorf("unexpected view %+v", v)
	}

	v = newReportView(executor.Report{Failure: errors.New("boom")})
	if v.Status != "failed" || v.Failure != "boom" {
		t.Errorf("unexpected view %+v", v)
	}
}

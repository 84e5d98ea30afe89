package output

import (
	"io"
	"time"

	"github.com/medallia/speech-api-reference-implementation/internal/executor"
)

// Format represents the output format type
type Format string

const (
	// FormatTable outputs data in a table format
	FormatTable Format = "table"
	// FormatJSON outputs data in JSON format
	FormatJSON Format = "json"
	// FormatYAML outputs data in YAML format
	FormatYAML Format = "yaml"
)

// Formatter defines the interface for output formatting
type Formatter interface {
	// Format outputs a single data item to the writer
	Format(w io.Writer, data interface{}) error

	// FormatReport outputs the result of a run to the writer
	FormatReport(w io.Writer, report executor.Report) error
}

// Option is a functional option for configuring formatters
type Option func(*Options)

// Options holds configuration for formatters
type Options struct {
	// NoColor disables color output
	NoColor bool

	// NoHeaders disables table headers
	NoHeaders bool

	// Wide adds every task failure to the table output
	Wide bool
}

// WithNoColor disables color output
func WithNoColor(noColor bool) Option {
	return func(o *Options) {
		o.NoColor = noColor
	}
}

// WithNoHeaders disables table headers
func WithNoHeaders(noHeaders bool) Option {
	return func(o *Options) {
		o.NoHeaders = noHeaders
	}
}

// WithWide enables wide output
func WithWide(wide bool) Option {
	return func(o *Options) {
		o.Wide = wide
	}
}

// NewFormatter creates a new formatter based on the specified format
func NewFormatter(format Format, opts ...Option) Formatter {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	switch format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatTable:
		fallthrough
	default:
		return NewTableFormatter(options)
	}
}

// reportView is the serialized shape of a report
type reportView struct {
	Status     string   `json:"status" yaml:"status"`
	Batches    int      `json:"batches" yaml:"batches"`
	Items      int      `json:"items" yaml:"items"`
	Accepted   int64    `json:"accepted" yaml:"accepted"`
	Rejected   int64    `json:"rejected" yaml:"rejected"`
	Duration   string   `json:"duration" yaml:"duration"`
	Failure    string   `json:"failure,omitempty" yaml:"failure,omitempty"`
	TaskErrors []string `json:"taskErrors,omitempty" yaml:"taskErrors,omitempty"`
	Errors     []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func newReportView(r executor.Report) reportView {
	v := reportView{
		Status:   statusText(r),
		Batches:  r.Batches,
		Items:    r.Items,
		Accepted: r.Accepted,
		Rejected: r.Rejected,
		Duration: r.Duration.Round(time.Millisecond).String(),
		Errors:   r.Errors,
	}
	if r.Failure != nil {
		v.Failure = r.Failure.Error()
	}
	for _, err := range r.TaskErrors {
		v.TaskErrors = append(v.TaskErrors, err.Error())
	}
	return v
}

func statusText(r executor.Report) string {
	if r.Succeeded() {
		return "succeeded"
	}
	return "failed"
}

package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/medallia/speech-api-reference-implementation/internal/executor"
)

// TableFormatter formats output as a table
type TableFormatter struct {
	options *Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(opts *Options) *TableFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &TableFormatter{
		options: opts,
	}
}

// Format outputs a single data item as a table
func (f *TableFormatter) Format(w io.Writer, data interface{}) error {
	table := f.createTable(w)

	switch v := data.(type) {
	case map[string]interface{}:
		return f.formatMap(table, v)
	case map[string]string:
		m := make(map[string]interface{}, len(v))
		for k, val := range v {
			m[k] = val
		}
		return f.formatMap(table, m)
	default:
		fmt.Fprintln(w, v)
		return nil
	}
}

// FormatReport outputs a run report as a one-row table followed by the
// failure and every rejected item. Rejection lines are always printed.
func (f *TableFormatter) FormatReport(w io.Writer, report executor.Report) error {
	colors := NewColorScheme(w, f.options.NoColor)
	table := f.createTable(w)

	headers := []string{"STATUS", "BATCHES", "ITEMS", "ACCEPTED", "REJECTED", "DURATION"}
	if !f.options.NoHeaders {
		if colors.Disabled {
			table.SetHeader(headers)
		} else {
			colored := make([]string, len(headers))
			for i, h := range headers {
				colored[i] = colors.Header(h)
			}
			table.SetHeader(colored)
		}
	}

	table.Append(f.formatReportRow(report, colors))
	table.Render()

	if report.Failure != nil {
		fmt.Fprintln(w, "")
		fmt.Fprintf(w, "%s %v\n", colors.Error("Error:"), report.Failure)
	}

	if f.options.Wide && len(report.TaskErrors) > 1 {
		fmt.Fprintln(w, "")
		fmt.Fprintf(w, "Failed batches (%d):\n", len(report.TaskErrors))
		for _, err := range report.TaskErrors {
			fmt.Fprintf(w, "  %v\n", err)
		}
	}

	if len(report.Errors) > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintf(w, "Rejected items (%d):\n", len(report.Errors))
		for _, line := range report.Errors {
			fmt.Fprintf(w, "  %s\n", f.formatErrorLine(line, colors))
		}
	}

	return nil
}

// formatReportRow formats the report counters as a table row
func (f *TableFormatter) formatReportRow(report executor.Report, colors *ColorScheme) []string {
	status := "Succeeded"
	if !report.Succeeded() {
		status = "Failed"
	}

	accepted := fmt.Sprintf("%d", report.Accepted)
	rejected := fmt.Sprintf("%d", report.Rejected)
	duration := report.Duration.Round(time.Millisecond).String()

	if !colors.Disabled {
		status = colors.StatusColor(!report.Succeeded())(status)
		accepted = colors.Success(accepted)
		if report.Rejected > 0 {
			rejected = colors.Warning(rejected)
		}
		duration = colors.Duration(duration)
	}

	return []string{
		status,
		fmt.Sprintf("%d", report.Batches),
		fmt.Sprintf("%d", report.Items),
		accepted,
		rejected,
		duration,
	}
}

// formatErrorLine colors the item id of an "id: message" line
func (f *TableFormatter) formatErrorLine(line string, colors *ColorScheme) string {
	if colors.Disabled {
		return line
	}
	id, msg, ok := strings.Cut(line, ": ")
	if !ok {
		return line
	}
	return colors.Label("%s", id) + ": " + msg
}

// formatMap formats a map as a two-column table sorted by key
func (f *TableFormatter) formatMap(table *tablewriter.Table, data map[string]interface{}) error {
	if !f.options.NoHeaders {
		table.SetHeader([]string{"KEY", "VALUE"})
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		table.Append([]string{k, fmt.Sprintf("%v", data[k])})
	}

	table.Render()
	return nil
}

// createTable creates a new borderless, tab-padded table
func (f *TableFormatter) createTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	return table
}

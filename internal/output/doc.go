// Package output renders run reports and tracks progress for the Speech CLI.
//
// Reports can be printed as a table, JSON, or YAML. The table output always
// lists every rejected item; JSON and YAML carry the same data in fields.
//
// # Basic Usage
//
//	formatter := output.NewFormatter(output.FormatTable, output.WithNoColor(noColor))
//	formatter.FormatReport(os.Stdout, report)
//
// # Progress
//
// ProgressBar implements executor.ProgressSink with a pterm progress bar. It
// is sized when the executor reports the estimated item count and draws
// nothing when disabled.
//
// # Colors
//
// Colors are disabled automatically when the output is not a terminal.
package output

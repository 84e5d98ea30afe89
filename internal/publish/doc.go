// Package publish sends speech file metadata to the Speech API.
//
// Records are read from a CSV or JSON data file, grouped into batches by the
// executor and posted as JSON arrays with an OAuth2 client credentials token.
// Each job result is mapped onto an executor.Outcome.
package publish

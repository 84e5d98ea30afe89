package publish

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/medallia/speech-api-reference-implementation/internal/executor"
	"github.com/medallia/speech-api-reference-implementation/internal/util"
)

// Format is the detected type of a data file
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// DetectFormat sniffs the content of path. Only CSV and JSON are supported.
func DetectFormat(path string) (Format, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to inspect data file %s: %w", path, err)
	}

	for m := mt; m != nil; m = m.Parent() {
		switch {
		case m.Is("text/csv"):
			return FormatCSV, nil
		case m.Is("application/json"):
			return FormatJSON, nil
		}
	}

	// Small files may not carry enough rows to be sniffed as CSV
	if mt.Is("text/plain") {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv":
			return FormatCSV, nil
		case ".json":
			return FormatJSON, nil
		}
	}

	return "", fmt.Errorf("%w: %s is %s", util.ErrUnsupportedFormat, path, mt.String())
}

// Source is a record stream read from a data file
type Source interface {
	executor.WorkSource[Record]
}

// OpenSource detects the format of path and opens the matching source
func OpenSource(path string) (Source, Format, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, "", err
	}

	switch format {
	case FormatCSV:
		src, err := NewCSVSource(path)
		if err != nil {
			return nil, format, err
		}
		return src, format, nil
	default:
		src, err := NewJSONSource(path)
		if err != nil {
			return nil, format, err
		}
		return src, format, nil
	}
}

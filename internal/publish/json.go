package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// JSONSource streams records from a JSON file holding either a single
// object or an array of objects. Arrays are decoded one element at a time.
type JSONSource struct {
	path  string
	file  *os.File
	dec   *json.Decoder
	total int64
	array bool
	done  bool
}

// NewJSONSource counts the records of path and opens it for streaming
func NewJSONSource(path string) (*JSONSource, error) {
	total, array, err := countJSONRecords(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}

	s := &JSONSource{
		path:  path,
		file:  f,
		dec:   json.NewDecoder(f),
		total: total,
		array: array,
		done:  total == 0,
	}

	if array && !s.done {
		// Step past the opening bracket
		if _, err := s.dec.Token(); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	return s, nil
}

// countJSONRecords walks the file once without decoding the records
func countJSONRecords(path string) (total int64, array bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch tok {
	case json.Delim('{'):
		return 1, false, nil
	case json.Delim('['):
		for dec.More() {
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return 0, false, fmt.Errorf("failed to count records in %s: %w", path, err)
			}
			if len(raw) == 0 || raw[0] != '{' {
				return 0, false, fmt.Errorf("%s: element %d of the array is not an object", path, total+1)
			}
			total++
		}
		return total, true, nil
	default:
		return 0, false, fmt.Errorf("%s does not contain the expected object or array", path)
	}
}

// EstimatedTotal returns the number of objects in the file
func (s *JSONSource) EstimatedTotal() int64 {
	return s.total
}

// NextBatch decodes up to max records in file order
func (s *JSONSource) NextBatch(ctx context.Context, max int) ([]Record, error) {
	if s.done || max <= 0 {
		return nil, nil
	}

	if !s.array {
		s.done = true
		rec, err := s.decodeOne(1)
		if err != nil {
			return nil, err
		}
		return []Record{rec}, nil
	}

	batch := make([]Record, 0, max)
	for len(batch) < max {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.dec.More() {
			s.done = true
			break
		}
		rec, err := s.decodeOne(s.dec.InputOffset())
		if err != nil {
			return nil, err
		}
		batch = append(batch, rec)
	}

	return batch, nil
}

func (s *JSONSource) decodeOne(pos int64) (Record, error) {
	var rec Record
	if err := s.dec.Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("%s: failed to decode record at offset %d: %w", s.path, pos, err)
	}
	if err := rec.Validate(); err != nil {
		return Record{}, fmt.Errorf("%s: record at offset %d: %w", s.path, pos, err)
	}
	return rec, nil
}

// Close closes the data file
func (s *JSONSource) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

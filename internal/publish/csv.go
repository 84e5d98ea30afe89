package publish

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// columnSetter assigns one raw cell value to a record
type columnSetter func(r *Record, v string) error

func setString(dst func(*Record) *string) columnSetter {
	return func(r *Record, v string) error {
		*dst(r) = strings.TrimSpace(v)
		return nil
	}
}

// columns maps every known header name to its converter
var columns = map[string]columnSetter{
	"call_identifier":    setString(func(r *Record) *string { return &r.CallIdentifier }),
	"speech_file_name":   setString(func(r *Record) *string { return &r.SpeechFileName }),
	"unit_identifier":    setString(func(r *Record) *string { return &r.UnitIdentifier }),
	"call_date_and_time": setString(func(r *Record) *string { return &r.CallDateAndTime }),
	"call_recording_url": setString(func(r *Record) *string { return &r.CallRecordingURL }),
	"locale":             setString(func(r *Record) *string { return &r.Locale }),
	"agent_locale":       setString(func(r *Record) *string { return &r.AgentLocale }),
	"apply_diarization":  setString(func(r *Record) *string { return &r.ApplyDiarization }),
	"first_name":         setString(func(r *Record) *string { return &r.FirstName }),
	"last_name":          setString(func(r *Record) *string { return &r.LastName }),
	"email":              setString(func(r *Record) *string { return &r.Email }),
	"phone_number":       setString(func(r *Record) *string { return &r.PhoneNumber }),
	"connection_id":      setString(func(r *Record) *string { return &r.ConnectionID }),
	"profile_uuid":       setString(func(r *Record) *string { return &r.ProfileUUID }),
	"connector_id":       setString(func(r *Record) *string { return &r.ConnectorID }),
	"vertical_model": func(r *Record, v string) (err error) {
		r.VerticalModel, err = ParseVerticalModel(v)
		return err
	},
	"agent_channel": func(r *Record, v string) (err error) {
		r.AgentChannel, err = ParseAgentChannel(v)
		return err
	},
	"apply_redaction": func(r *Record, v string) (err error) {
		r.ApplyRedaction, err = ParseYesNo(v)
		return err
	},
	"engine": func(r *Record, v string) (err error) {
		r.Engine, err = ParseEngine(v)
		return err
	},
	"substitutions": func(r *Record, v string) (err error) {
		r.Substitutions, err = ParseStringMap(v)
		return err
	},
	"speech_additional_info": func(r *Record, v string) (err error) {
		r.SpeechAdditionalInfo, err = ParseStringMap(v)
		return err
	},
}

var requiredColumns = []string{"call_identifier", "speech_file_name", "unit_identifier", "call_date_and_time"}

// CSVSource streams records from a CSV file with a header row.
// Columns are bound by header name; unknown columns are ignored.
type CSVSource struct {
	path   string
	file   *os.File
	reader *csv.Reader
	header []string
	total  int64
	done   bool
}

// NewCSVSource counts the data rows of path and opens it for streaming
func NewCSVSource(path string) (*CSVSource, error) {
	total, err := countCSVRows(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}

	r := newCSVReader(f)
	header, err := r.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		f.Close()
		return nil, fmt.Errorf("failed to read CSV header of %s: %w", path, err)
	}

	s := &CSVSource{
		path:   path,
		file:   f,
		reader: r,
		total:  total,
		done:   len(header) == 0,
	}
	if s.done {
		return s, nil
	}

	s.header = make([]string, len(header))
	for i, name := range header {
		s.header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
	}
	if err := s.checkHeader(); err != nil {
		f.Close()
		return nil, err
	}

	return s, nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return cr
}

// countCSVRows returns the number of records after the header row.
// Blank lines are not counted.
func countCSVRows(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	r := newCSVReader(f)
	var n int64 = -1
	for {
		_, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to count records in %s: %w", path, err)
		}
		n++
	}
	if n < 0 {
		return 0, nil
	}
	return n, nil
}

func (s *CSVSource) checkHeader() error {
	present := make(map[string]bool, len(s.header))
	for _, name := range s.header {
		present[name] = true
	}

	var missing []string
	for _, name := range requiredColumns {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("CSV file %s is missing required column(s): %s", s.path, strings.Join(missing, ", "))
	}
	return nil
}

// EstimatedTotal returns the number of data rows
func (s *CSVSource) EstimatedTotal() int64 {
	return s.total
}

// NextBatch reads up to max records in file order
func (s *CSVSource) NextBatch(ctx context.Context, max int) ([]Record, error) {
	if s.done || max <= 0 {
		return nil, nil
	}

	batch := make([]Record, 0, max)
	for len(batch) < max {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := s.reader.Read()
		if errors.Is(err, io.EOF) {
			s.done = true
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
		}

		line, _ := s.reader.FieldPos(0)
		rec, err := s.decode(row, line)
		if err != nil {
			return nil, err
		}
		batch = append(batch, rec)
	}

	return batch, nil
}

func (s *CSVSource) decode(row []string, line int) (Record, error) {
	var rec Record
	for i, name := range s.header {
		set, ok := columns[name]
		if !ok || i >= len(row) {
			continue
		}
		if err := set(&rec, row[i]); err != nil {
			return Record{}, fmt.Errorf("%s line %d, column %s: %w", s.path, line, name, err)
		}
	}
	if err := rec.Validate(); err != nil {
		return Record{}, fmt.Errorf("%s line %d: %w", s.path, line, err)
	}
	return rec, nil
}

// Close closes the data file
func (s *CSVSource) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

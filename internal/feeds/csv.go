package feeds

import (
	"encoding/csv"
	"io"

	"github.com/scholarsync/scholarsync/pkg/errors"
)

// CSVSource reads rows from a comma-separated feed. The first record is
// treated as the header; every subsequent record is exposed as a
// map[string]string keyed by header name.
type CSVSource struct {
	name    string
	reader  *csv.Reader
	header  []string
	started bool
}

// NewCSVSource wraps r as a row source named name.
func NewCSVSource(name string, r io.Reader) *CSVSource {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &CSVSource{name: name, reader: cr}
}

// Name returns the source name used in reports and logs.
func (s *CSVSource) Name() string { return s.name }

// Empty reports whether the underlying file had no content at all,
// distinguishing a zero-byte file from one that carried only a header.
func (s *CSVSource) Empty() bool { return s.started && s.header == nil }

// Next returns the next data row, or io.EOF when the feed is exhausted.
func (s *CSVSource) Next() (any, error) {
	if !s.started {
		s.started = true
		header, err := s.reader.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, errors.WrapParse(err, "reading csv header")
		}
		s.header = header
	}
	record, err := s.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, errors.WrapParse(err, "reading csv record")
	}
	row := make(map[string]string, len(s.header))
	for i, col := range s.header {
		if i < len(record) {
			row[col] = record[i]
		}
	}
	return row, nil
}

package feeds

import (
	"io"

	"github.com/goccy/go-yaml"

	"github.com/scholarsync/scholarsync/pkg/errors"
)

// YAMLSource reads rows from a YAML feed: a single document holding a
// top-level sequence of mappings, one mapping per row.
type YAMLSource struct {
	name    string
	reader  io.Reader
	rows    []map[string]any
	pos     int
	started bool
	empty   bool
}

// NewYAMLSource wraps r as a row source named name.
func NewYAMLSource(name string, r io.Reader) *YAMLSource {
	return &YAMLSource{name: name, reader: r}
}

// Name returns the source name used in reports and logs.
func (s *YAMLSource) Name() string { return s.name }

// Empty reports whether the underlying file had no content at all.
func (s *YAMLSource) Empty() bool { return s.empty }

// Next returns the next row, or io.EOF when the feed is exhausted.
func (s *YAMLSource) Next() (any, error) {
	if !s.started {
		s.started = true
		data, err := io.ReadAll(s.reader)
		if err != nil {
			return nil, errors.WrapParse(err, "reading yaml feed")
		}
		if len(data) == 0 {
			s.empty = true
			return nil, io.EOF
		}
		if err := yaml.Unmarshal(data, &s.rows); err != nil {
			return nil, errors.WrapParse(err, "decoding yaml feed")
		}
	}
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

package feeds

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/scholarsync/scholarsync/pkg/errors"
)

// JSONLSource reads rows from a JSON-lines feed, one object per line.
// Blank lines are skipped.
type JSONLSource struct {
	name    string
	scanner *bufio.Scanner
	started bool
	sawLine bool
}

// NewJSONLSource wraps r as a row source named name.
func NewJSONLSource(name string, r io.Reader) *JSONLSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &JSONLSource{name: name, scanner: sc}
}

// Name returns the source name used in reports and logs.
func (s *JSONLSource) Name() string { return s.name }

// Empty reports whether the underlying file had no content at all.
func (s *JSONLSource) Empty() bool { return s.started && !s.sawLine }

// Next returns the next row, or io.EOF when the feed is exhausted.
func (s *JSONLSource) Next() (any, error) {
	s.started = true
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		s.sawLine = true
		var row map[string]any
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, errors.WrapParse(err, "decoding json line")
		}
		return row, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, errors.WrapParse(err, "reading jsonl feed")
	}
	return nil, io.EOF
}

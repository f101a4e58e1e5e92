// Package feeds provides the reference row sources and candidate parsers
// the CLI uses to drive files through the batch importer. Everything
// feed-format specific — column names, date layouts, contributor list
// encodings — stays at this boundary; the engine only ever sees typed
// candidates.
package feeds

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/utc"

	"github.com/scholarsync/scholarsync/pkg/errors"
)

// Format identifies a supported feed file format.
type Format string

// Supported formats.
const (
	FormatCSV   Format = "csv"
	FormatYAML  Format = "yaml"
	FormatJSONL Format = "jsonl"
)

// ParseFormat converts a format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(name)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatYAML:
		return FormatYAML, nil
	case FormatJSONL:
		return FormatJSONL, nil
	default:
		return "", errors.NewValidationError("format", name, "unsupported feed format")
	}
}

// field extracts a named value from a row produced by any of the sources.
// CSV rows are map[string]string; YAML and JSON rows are map[string]any.
func field(row any, name string) (string, bool) {
	switch r := row.(type) {
	case map[string]string:
		v, ok := r[name]
		return v, ok
	case map[string]any:
		v, ok := r[name]
		if !ok {
			return "", false
		}
		if s, ok := v.(string); ok {
			return s, true
		}
		return fmt.Sprint(v), true
	default:
		return "", false
	}
}

// requireField extracts a named value, failing the row when it is absent
// or blank.
func requireField(row any, name string) (string, error) {
	v, ok := field(row, name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", errors.NewValidationError(name, v, "required field is missing")
	}
	return strings.TrimSpace(v), nil
}

// dateLayouts accepted for feed date columns.
var dateLayouts = []string{time.RFC3339, "2006-01-02", "2006-01"}

// parseDate parses an optional date column. YAML decoders may hand back
// a native timestamp, which is accepted as-is.
func parseDate(row any, name string) (*utc.Time, error) {
	if m, ok := row.(map[string]any); ok {
		if t, ok := m[name].(time.Time); ok {
			u := utc.Time{Time: t.UTC()}
			return &u, nil
		}
	}
	v, ok := field(row, name)
	if !ok || strings.TrimSpace(v) == "" {
		return nil, nil
	}
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			u := utc.Time{Time: t.UTC()}
			return &u, nil
		}
	}
	return nil, errors.NewValidationError(name, v, "unrecognized date format")
}

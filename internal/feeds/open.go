package feeds

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/scholarsync/scholarsync/pkg/entities"
	"github.com/scholarsync/scholarsync/pkg/errors"
	"github.com/scholarsync/scholarsync/pkg/importer"
)

// NewSource constructs the row source for a format. name identifies the
// feed in reports and logs.
func NewSource(format Format, name string, r io.Reader) (importer.Source, error) {
	switch format {
	case FormatCSV:
		return NewCSVSource(name, r), nil
	case FormatYAML:
		return NewYAMLSource(name, r), nil
	case FormatJSONL:
		return NewJSONLSource(name, r), nil
	default:
		return nil, errors.NewValidationError("format", string(format), "unsupported feed format")
	}
}

// NewParser constructs the candidate parser for an entity kind.
func NewParser(kind entities.Kind, source entities.Source) (importer.Parser, error) {
	switch kind {
	case entities.KindPerson:
		return &PersonParser{Source: source}, nil
	case entities.KindOrganization:
		return &OrganizationParser{Source: source}, nil
	case entities.KindPublication:
		return &PublicationParser{Source: source}, nil
	case entities.KindMembership:
		return &MembershipParser{Source: source}, nil
	default:
		return nil, errors.NewValidationError("kind", string(kind), "unsupported entity kind")
	}
}

// DetectFormat guesses the feed format from a file name's extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".jsonl", ".ndjson", ".json":
		return FormatJSONL, nil
	default:
		return "", errors.NewValidationError("file", path, "cannot infer feed format from extension")
	}
}

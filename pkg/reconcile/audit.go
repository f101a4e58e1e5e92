package reconcile

import (
	"github.com/goccy/go-yaml"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/scholarsync/scholarsync/pkg/entities"
	"github.com/scholarsync/scholarsync/pkg/logging"
)

// logUpdateDiff emits a debug-level unified diff of an entity's YAML
// rendering before and after an UPDATE, for operator audit of what an
// import changed. Serialization failures only degrade the log line.
func logUpdateDiff(resource string, id entities.ID, before, after any) {
	event := logging.Debug()
	if !event.Enabled() {
		return
	}

	b, err := yaml.Marshal(before)
	if err != nil {
		event.Str("resource", resource).Str("id", string(id)).Err(err).Msg("audit diff unavailable")
		return
	}
	a, err := yaml.Marshal(after)
	if err != nil {
		event.Str("resource", resource).Str("id", string(id)).Err(err).Msg("audit diff unavailable")
		return
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(b)),
		B:        difflib.SplitLines(string(a)),
		FromFile: "current",
		ToFile:   "incoming",
		Context:  2,
	})
	if err != nil {
		event.Str("resource", resource).Str("id", string(id)).Err(err).Msg("audit diff unavailable")
		return
	}

	event.
		Str("resource", resource).
		Str("id", string(id)).
		Str("diff", diff).
		Msg("applying update")
}

package importer_test

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarsync/scholarsync/pkg/errors"
	"github.com/scholarsync/scholarsync/pkg/importer"
	"github.com/scholarsync/scholarsync/pkg/reconcile"
)

// fakeSource plays back a fixed row sequence.
type fakeSource struct {
	name  string
	rows  []any
	pos   int
	empty bool

	// failAt, when non-zero, makes Next fail with failErr after that many
	// successful reads.
	failAt  int
	failErr error
}

func (s *fakeSource) Name() string { return s.name }
func (s *fakeSource) Empty() bool  { return s.empty }

func (s *fakeSource) Next() (any, error) {
	if s.failAt > 0 && s.pos == s.failAt {
		return nil, s.failErr
	}
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

// fakeParser fails rows equal to "bad" and panics on rows equal to
// "panic"; everything else becomes a person candidate.
type fakeParser struct{}

func (fakeParser) Parse(row any) (reconcile.Candidate, error) {
	switch row {
	case "bad":
		return nil, errors.New("unparseable row")
	case "panic":
		panic("parser exploded")
	}
	return &reconcile.PersonCandidate{LastName: fmt.Sprint(row)}, nil
}

// fakeApplier scripts one outcome or error per call, in order.
type fakeApplier struct {
	outcomes []reconcile.Outcome
	errs     []error
	calls    int
}

func (a *fakeApplier) Apply(_ context.Context, _ reconcile.Candidate) (reconcile.Outcome, error) {
	i := a.calls
	a.calls++
	var err error
	if i < len(a.errs) {
		err = a.errs[i]
	}
	var out reconcile.Outcome
	if i < len(a.outcomes) {
		out = a.outcomes[i]
	}
	return out, err
}

func created() reconcile.Outcome { return reconcile.Outcome{Action: reconcile.ActionCreated} }
func updated() reconcile.Outcome { return reconcile.Outcome{Action: reconcile.ActionUpdated} }
func skipped() reconcile.Outcome { return reconcile.Outcome{Action: reconcile.ActionSkipped} }

func TestRunCountsOutcomes(t *testing.T) {
	applier := &fakeApplier{outcomes: []reconcile.Outcome{
		created(), updated(), skipped(),
		{Action: reconcile.ActionCreated, Unresolved: 2},
	}}
	b := importer.New(fakeParser{}, applier)

	report, err := b.Run(context.Background(), &fakeSource{
		name: "people.csv",
		rows: []any{"r1", "r2", "r3", "r4"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 2, report.Unresolved)
	assert.Empty(t, report.FatalErrors)
	assert.Empty(t, report.RuntimeErrors)
}

func TestRunIsolatesBadRows(t *testing.T) {
	applier := &fakeApplier{outcomes: []reconcile.Outcome{
		created(), created(), created(), created(),
		created(), created(), created(), created(),
	}}
	b := importer.New(fakeParser{}, applier)

	rows := []any{"r1", "r2", "bad", "r4", "r5", "r6", "bad", "r8", "r9", "r10"}
	report, err := b.Run(context.Background(), &fakeSource{name: "people.csv", rows: rows})

	require.Error(t, err)
	assert.True(t, errors.IsParseFailed(err))

	var agg *errors.AggregateError
	require.True(t, errors.As(err, &agg))
	require.Len(t, agg.Rows, 2)
	assert.Equal(t, "Line 3: unparseable row", agg.Rows[0].Error())
	assert.Equal(t, "Line 7: unparseable row", agg.Rows[1].Error())

	// The eight good rows were still applied.
	assert.Equal(t, 8, report.Created)
	assert.Equal(t, 8, applier.calls)
	assert.Equal(t, []string{
		"Line 3: unparseable row",
		"Line 7: unparseable row",
	}, report.FatalErrors)
}

func TestRunEmptySource(t *testing.T) {
	b := importer.New(fakeParser{}, &fakeApplier{})

	report, err := b.Run(context.Background(), &fakeSource{name: "people.csv", empty: true})
	require.Error(t, err)
	assert.True(t, errors.IsSourceEmpty(err))
	assert.Equal(t, []string{
		"source is empty",
		"source has no records",
	}, report.FatalErrors)
}

func TestRunHeaderOnlySource(t *testing.T) {
	b := importer.New(fakeParser{}, &fakeApplier{})

	report, err := b.Run(context.Background(), &fakeSource{name: "people.csv"})
	require.Error(t, err)
	assert.True(t, errors.IsNoRecords(err))
	assert.False(t, errors.IsSourceEmpty(err))
	assert.Equal(t, []string{"source has no records"}, report.FatalErrors)
}

func TestRunSeparatesRuntimeErrors(t *testing.T) {
	applier := &fakeApplier{
		outcomes: []reconcile.Outcome{created(), {}, created()},
		errs:     []error{nil, errors.New("database is locked"), nil},
	}
	b := importer.New(fakeParser{}, applier)

	report, err := b.Run(context.Background(), &fakeSource{
		name: "people.csv",
		rows: []any{"r1", "r2", "r3"},
	})

	// Runtime errors never fail the batch.
	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)
	require.Len(t, report.RuntimeErrors, 1)
	assert.EqualError(t, report.RuntimeErrors[0], "database is locked")
	assert.Empty(t, report.FatalErrors)
}

func TestRunRecoversParserPanic(t *testing.T) {
	applier := &fakeApplier{outcomes: []reconcile.Outcome{created()}}
	b := importer.New(fakeParser{}, applier)

	report, err := b.Run(context.Background(), &fakeSource{
		name: "people.csv",
		rows: []any{"panic", "r2"},
	})

	require.Error(t, err)
	var agg *errors.AggregateError
	require.True(t, errors.As(err, &agg))
	require.Len(t, agg.Rows, 1)
	assert.Contains(t, agg.Rows[0].Error(), "Line 1: panic: parser exploded")
	assert.Equal(t, 1, report.Created)
}

func TestRunSourceFailureMidIteration(t *testing.T) {
	applier := &fakeApplier{outcomes: []reconcile.Outcome{created(), created()}}
	b := importer.New(fakeParser{}, applier)

	report, err := b.Run(context.Background(), &fakeSource{
		name:    "people.csv",
		rows:    []any{"r1", "r2", "r3"},
		failAt:  2,
		failErr: errors.New("truncated file"),
	})

	require.Error(t, err)
	var agg *errors.AggregateError
	require.True(t, errors.As(err, &agg))
	require.Len(t, agg.Rows, 1)
	assert.Equal(t, "Line 3: truncated file", agg.Rows[0].Error())
	assert.Equal(t, 2, report.Created)
}

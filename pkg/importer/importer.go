// Package importer drives one feed through row-level parsing and
// reconciliation with per-row error isolation. One bad row never aborts a
// batch: parse failures are collected with their 1-based line numbers and
// surfaced once at the end as an aggregate error, while persistence
// failures of individual units land in a separate runtime channel so an
// operator can tell "could not understand the input" apart from
// "understood the input but could not save it".
package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/scholarsync/scholarsync/pkg/errors"
	"github.com/scholarsync/scholarsync/pkg/logging"
	"github.com/scholarsync/scholarsync/pkg/reconcile"
)

// Source yields the raw rows of one feed lazily, in order. A source is
// finite and restartable only by constructing it again.
type Source interface {
	// Name identifies the feed for error reporting.
	Name() string

	// Next returns the next data row, or io.EOF after the last one. The
	// row's concrete type is format-specific; the matching Parser knows
	// how to read it.
	Next() (any, error)

	// Empty reports whether the feed contained nothing at all, not even
	// a header. Distinguishes "source is empty" from "source has no
	// records".
	Empty() bool
}

// Parser converts one raw row into a candidate record. Parsers are
// format- and feed-specific; the importer treats them opaquely.
type Parser interface {
	Parse(row any) (reconcile.Candidate, error)
}

// Applier reconciles one candidate. *reconcile.Engine is the production
// implementation.
type Applier interface {
	Apply(ctx context.Context, c reconcile.Candidate) (reconcile.Outcome, error)
}

// Report summarizes one batch run. FatalErrors are row-level parse
// failures; RuntimeErrors are per-unit persistence failures recorded after
// a successful parse.
type Report struct {
	Created int
	Updated int
	Skipped int

	// Unresolved counts ambiguous contributor matches recorded for
	// human review.
	Unresolved int

	FatalErrors   []string
	RuntimeErrors []error
}

// Batch runs feeds through a parser and an applier.
type Batch struct {
	parser  Parser
	applier Applier
}

// New creates a batch importer.
func New(parser Parser, applier Applier) *Batch {
	return &Batch{parser: parser, applier: applier}
}

// Run consumes the source to completion and returns the report. Rows are
// processed strictly in source order, each candidate handed to the applier
// individually so partial success stays visible under later failures.
//
// Run fails immediately on structurally empty feeds. After all rows are
// attempted, it returns an AggregateError if any row failed to parse; the
// report still carries the counts of what did succeed.
func (b *Batch) Run(ctx context.Context, src Source) (*Report, error) {
	report := &Report{}

	row, err := src.Next()
	if err == io.EOF {
		if src.Empty() {
			report.FatalErrors = []string{
				errors.ErrSourceEmpty.Error(),
				errors.ErrNoRecords.Error(),
			}
			return report, errors.NewSourceError(src.Name(), errors.ErrSourceEmpty)
		}
		report.FatalErrors = []string{errors.ErrNoRecords.Error()}
		return report, errors.NewSourceError(src.Name(), errors.ErrNoRecords)
	}

	log := logging.Ctx(ctx).With().Str("source", src.Name()).Logger()

	line := 0
	var rowErrs []*errors.RowError
	for {
		if err != nil {
			// The source itself failed mid-iteration; record it against
			// the next line and stop, the sequence is not resumable.
			rowErrs = append(rowErrs, errors.NewRowError(line+1, err.Error()))
			break
		}

		line++
		candidate, perr := b.parse(row)
		if perr != nil {
			rowErrs = append(rowErrs, errors.NewRowError(line, perr.Error()))
			log.Debug().Int("line", line).Str("error", perr.Error()).Msg("row failed to parse")
		} else {
			outcome, aerr := b.apply(ctx, candidate)
			if aerr != nil {
				report.RuntimeErrors = append(report.RuntimeErrors, aerr)
				log.Warn().Int("line", line).Err(aerr).Msg("unit failed to persist")
			} else {
				report.count(outcome)
			}
		}

		row, err = src.Next()
		if err == io.EOF {
			break
		}
	}

	if len(rowErrs) > 0 {
		for _, re := range rowErrs {
			report.FatalErrors = append(report.FatalErrors, re.Error())
		}
		return report, errors.NewAggregateError(src.Name(), rowErrs)
	}

	log.Info().
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("skipped", report.Skipped).
		Int("runtime_errors", len(report.RuntimeErrors)).
		Msg("batch complete")
	return report, nil
}

// parse converts one row, recovering panics from format adapters into
// ordinary row errors.
func (b *Batch) parse(row any) (candidate reconcile.Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return b.parser.Parse(row)
}

// apply reconciles one candidate, recovering panics into unit errors.
func (b *Batch) apply(ctx context.Context, c reconcile.Candidate) (outcome reconcile.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return b.applier.Apply(ctx, c)
}

func (r *Report) count(outcome reconcile.Outcome) {
	switch outcome.Action {
	case reconcile.ActionCreated:
		r.Created++
	case reconcile.ActionUpdated:
		r.Updated++
	case reconcile.ActionSkipped:
		r.Skipped++
	}
	r.Unresolved += outcome.Unresolved
}

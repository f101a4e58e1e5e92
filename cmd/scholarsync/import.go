package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scholarsync/scholarsync"
	"github.com/scholarsync/scholarsync/internal/config"
	"github.com/scholarsync/scholarsync/internal/feeds"
	"github.com/scholarsync/scholarsync/pkg/entities"
	"github.com/scholarsync/scholarsync/pkg/errors"
	"github.com/scholarsync/scholarsync/pkg/importer"
)

func newImportCmd(cfg func() *config.Config) *cobra.Command {
	var (
		formatName string
		kindName   string
		sourceName string
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Run one feed file through the reconciliation engine",
		Long: `Import parses every row of a feed file, reconciles each resulting
candidate against the repository, and prints a batch report. A bad row
never aborts the run: parse failures are listed with their line numbers
at the end, and rows that parsed but failed to persist are reported
separately.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			conf := cfg()

			format, err := resolveFormat(formatName, path)
			if err != nil {
				return err
			}
			source := entities.Source(sourceName)
			if source == "" {
				source = entities.Source(conf.DefaultSource)
			}
			if source == "" {
				return errors.NewValidationError("source", "", "a feed source name is required")
			}

			opts := []scholarsync.Option{scholarsync.WithAuditDiffs(conf.AuditDiffs)}
			if conf.DatabasePath != "" {
				opts = append(opts, scholarsync.WithDatabasePath(conf.DatabasePath))
			}
			client, err := scholarsync.New(opts...)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			src, err := feeds.NewSource(format, path, f)
			if err != nil {
				return err
			}

			report, runErr := client.Import(cmd.Context(), src, entities.Kind(kindName), source)
			renderReport(cmd, report)
			return runErr
		},
	}

	cmd.Flags().StringVar(&formatName, "format", "", "feed format: csv, yaml, or jsonl (default: inferred from extension)")
	cmd.Flags().StringVar(&kindName, "kind", "", "entity kind: person, organization, publication, or membership")
	cmd.Flags().StringVar(&sourceName, "source", "", "name of the feed family, used for external key linkage")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}

func resolveFormat(name, path string) (feeds.Format, error) {
	if name != "" {
		return feeds.ParseFormat(name)
	}
	return feeds.DetectFormat(path)
}

func renderReport(cmd *cobra.Command, report *importer.Report) {
	if report == nil {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "created:    %d\n", report.Created)
	fmt.Fprintf(out, "updated:    %d\n", report.Updated)
	fmt.Fprintf(out, "skipped:    %d\n", report.Skipped)
	fmt.Fprintf(out, "unresolved: %d\n", report.Unresolved)
	if len(report.FatalErrors) > 0 {
		fmt.Fprintf(out, "fatal errors (%d):\n", len(report.FatalErrors))
		for _, msg := range report.FatalErrors {
			fmt.Fprintf(out, "  %s\n", msg)
		}
	}
	if len(report.RuntimeErrors) > 0 {
		fmt.Fprintf(out, "runtime errors (%d):\n", len(report.RuntimeErrors))
		for _, err := range report.RuntimeErrors {
			fmt.Fprintf(out, "  %v\n", err)
		}
	}
}

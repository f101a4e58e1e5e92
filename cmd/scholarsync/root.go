package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scholarsync/scholarsync/internal/config"
	"github.com/scholarsync/scholarsync/pkg/logging"
)

// rootFlags carries the persistent flags shared by every subcommand.
type rootFlags struct {
	configPath string
	dbPath     string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	var cfg *config.Config

	cmd := &cobra.Command{
		Use:   "scholarsync",
		Short: "Reconcile scholarly records from external feeds",
		Long: `scholarsync ingests person, organization, publication, and membership
feeds from institutional systems and reconciles them into a single
repository, preserving human edits and flagging ambiguity for review.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			cfg = loaded
			if flags.dbPath != "" {
				cfg.DatabasePath = flags.dbPath
			}
			if flags.logLevel != "" {
				cfg.LogLevel = flags.logLevel
			}
			logging.SetLevel(cfg.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to scholarsync.yaml")
	cmd.PersistentFlags().StringVar(&flags.dbPath, "db", "", "path to the SQLite database (empty for in-memory)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(newImportCmd(func() *config.Config { return cfg }))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "scholarsync %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

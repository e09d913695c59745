package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:           "mcarchive",
		Short:         "Archive Mailchimp campaigns and report on them",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "config.yaml", "Configuration file path (optional)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flags.archiveDir, "archive-dir", "", "Directory holding archived campaign documents")
	pf.BoolVar(&flags.prefetchLists, "prefetch-lists", false, "Fetch every list name once before processing campaigns")
	pf.StringVar(&flags.metricsPath, "metrics-file", "", "Write run metrics to this node_exporter textfile")

	rootCmd.AddCommand(newArchiveCommand(ctx))
	rootCmd.AddCommand(newReportCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

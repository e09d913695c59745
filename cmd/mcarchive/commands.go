package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ignite/mailchimp-archive/internal/pipeline"
)

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Save every sent campaign as a markdown document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPass(cmd, ctx, (*pipeline.Pipeline).Archive)
		},
	}
}

func newReportCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write a CSV of campaign metrics linked to archived documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("output") {
				cfg, err := ctx.ensureConfig(cmd)
				if err != nil {
					return err
				}
				cfg.Report.OutputPath = output
			}
			return runPass(cmd, ctx, (*pipeline.Pipeline).Report)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "CSV report path")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mcarchive %s\n", version)
		},
	}
}

type passFunc func(*pipeline.Pipeline, context.Context) (pipeline.Summary, error)

func runPass(cmd *cobra.Command, cc *commandContext, pass passFunc) error {
	cfg, err := cc.ensureConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	p, err := cc.newPipeline(cmd.Context(), cfg, out)
	if err != nil {
		return err
	}

	summary, runErr := pass(p, cmd.Context())
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderSummary(summary))
	return runErr
}

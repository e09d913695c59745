package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ignite/mailchimp-archive/internal/config"
	"github.com/ignite/mailchimp-archive/internal/mailchimp"
	"github.com/ignite/mailchimp-archive/internal/metrics"
	"github.com/ignite/mailchimp-archive/internal/pipeline"
	"github.com/ignite/mailchimp-archive/internal/pkg/logger"
	"github.com/ignite/mailchimp-archive/internal/storage"
)

type globalFlags struct {
	config        string
	logLevel      string
	archiveDir    string
	prefetchLists bool
	metricsPath   string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads the config file and environment once, then applies
// command-line overrides on top.
func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.LoadFromEnv(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = fmt.Errorf("loading config: %w", err)
			return
		}

		pf := cmd.Flags()
		if pf.Changed("log-level") {
			cfg.Logging.Level = c.flags.logLevel
		}
		if pf.Changed("archive-dir") {
			cfg.Archive.Dir = c.flags.archiveDir
		}
		if pf.Changed("prefetch-lists") {
			cfg.Mailchimp.PrefetchLists = c.flags.prefetchLists
		}
		if pf.Changed("metrics-file") {
			cfg.Metrics.TextfilePath = c.flags.metricsPath
		}

		logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
		logger.SetRedact(cfg.Logging.RedactEnabled())
		c.config = cfg
	})
	return c.config, c.configErr
}

// newPipeline wires the API client, mirror and metrics for one command.
func (c *commandContext) newPipeline(ctx context.Context, cfg *config.Config, out io.Writer) (*pipeline.Pipeline, error) {
	if cfg.Mailchimp.APIKey == "" {
		return nil, fmt.Errorf("no API key: set MAILCHIMP_API_KEY or mailchimp.api_key")
	}

	client, err := mailchimp.NewClient(cfg.Mailchimp)
	if err != nil {
		return nil, err
	}
	logger.Info("mailchimp client ready", "data_center", client.DataCenter(), "page_size", client.PageSize())

	mirror, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	return pipeline.New(client, pipeline.Options{
		ArchiveDir:    cfg.Archive.Dir,
		ReportPath:    cfg.Report.OutputPath,
		FlushEvery:    cfg.Report.FlushInterval,
		PrefetchLists: cfg.Mailchimp.PrefetchLists,
		PauseEvery:    cfg.Mailchimp.PauseEvery,
		Pause:         cfg.Mailchimp.Pause(),
		MetricsPath:   cfg.Metrics.TextfilePath,
		Out:           out,
	}, mirror, metrics.New()), nil
}

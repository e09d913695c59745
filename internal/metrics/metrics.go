// Package metrics records per-run counters for the archive and report
// passes and writes them in the Prometheus text format for node_exporter's
// textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pass names used as the "pass" label.
const (
	PassArchive = "archive"
	PassReport  = "report"
)

// Campaign outcomes used as the "outcome" label.
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeMatched   = "matched"
	OutcomeUnmatched = "unmatched"
	OutcomeArchived  = "archived"
	OutcomeExisting  = "existing"
)

// Metrics holds the collectors for one process. Each instance owns its
// registry so tests and repeated runs never share state.
type Metrics struct {
	CampaignsTotal     *prometheus.CounterVec
	ListFetchesTotal   *prometheus.CounterVec
	PagesFetchedTotal  *prometheus.CounterVec
	RunDurationSeconds *prometheus.GaugeVec
	LastRunTimestamp   *prometheus.GaugeVec
	LastRunSuccess     *prometheus.GaugeVec

	registry *prometheus.Registry
}

// New creates a Metrics instance with every collector registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		CampaignsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcarchive_campaigns_total",
				Help: "Campaigns handled, by pass and outcome",
			},
			[]string{"pass", "outcome"},
		),
		ListFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcarchive_list_fetches_total",
				Help: "Network calls made to resolve list names",
			},
			[]string{"pass"},
		),
		PagesFetchedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcarchive_campaign_pages_total",
				Help: "Campaign listing pages fetched",
			},
			[]string{"pass"},
		),
		RunDurationSeconds: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mcarchive_run_duration_seconds",
				Help: "Wall time of the last run",
			},
			[]string{"pass"},
		),
		LastRunTimestamp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mcarchive_last_run_timestamp_seconds",
				Help: "Unix time the last run finished",
			},
			[]string{"pass"},
		),
		LastRunSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mcarchive_last_run_success",
				Help: "1 if the last run completed without a fatal error",
			},
			[]string{"pass"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.CampaignsTotal,
		m.ListFetchesTotal,
		m.PagesFetchedTotal,
		m.RunDurationSeconds,
		m.LastRunTimestamp,
		m.LastRunSuccess,
	)

	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Campaign counts one outcome for a pass.
func (m *Metrics) Campaign(pass, outcome string) {
	m.CampaignsTotal.WithLabelValues(pass, outcome).Inc()
}

// Finish records the end of a run.
func (m *Metrics) Finish(pass string, started time.Time, pages, listFetches int, err error) {
	now := time.Now()
	m.RunDurationSeconds.WithLabelValues(pass).Set(now.Sub(started).Seconds())
	m.LastRunTimestamp.WithLabelValues(pass).Set(float64(now.Unix()))
	m.PagesFetchedTotal.WithLabelValues(pass).Add(float64(pages))
	m.ListFetchesTotal.WithLabelValues(pass).Add(float64(listFetches))
	success := 1.0
	if err != nil {
		success = 0
	}
	m.LastRunSuccess.WithLabelValues(pass).Set(success)
}

// WriteTextfile writes every collector to path atomically. An empty path is
// a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

package main

import (
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ignite/mailchimp-archive/internal/metrics"
	"github.com/ignite/mailchimp-archive/internal/pipeline"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// renderSummary lays out the counts for one pass. Archive and report passes
// show their own outcome rows.
func renderSummary(s pipeline.Summary) string {
	rows := [][]string{
		{"Processed", strconv.Itoa(s.Processed)},
		{"Skipped", strconv.Itoa(s.Skipped)},
	}
	switch s.Pass {
	case metrics.PassArchive:
		rows = append(rows,
			[]string{"Archived", strconv.Itoa(s.Archived)},
			[]string{"Already archived", strconv.Itoa(s.Existing)},
		)
	case metrics.PassReport:
		rows = append(rows,
			[]string{"Matched", strconv.Itoa(s.Matched)},
			[]string{"Unmatched", strconv.Itoa(s.Unmatched)},
		)
	}
	rows = append(rows,
		[]string{"Pages fetched", strconv.Itoa(s.Pages)},
		[]string{"List lookups", strconv.Itoa(s.ListFetches)},
		[]string{"Duration", s.Duration.Round(time.Millisecond).String()},
	)
	if s.Output != "" {
		rows = append(rows, []string{"Output", s.Output})
	}

	return renderTable([]string{s.Pass, "Count"}, rows, []columnAlignment{alignLeft, alignRight})
}

package report

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Writer streams rows to CSV, flushing every flushEvery rows so an
// interrupted run leaves a readable partial report.
type Writer struct {
	csv        *csv.Writer
	flushEvery int
	rows       int
	started    bool
}

// NewWriter wraps w. flushEvery <= 0 flushes only on Close.
func NewWriter(w io.Writer, flushEvery int) *Writer {
	return &Writer{csv: csv.NewWriter(w), flushEvery: flushEvery}
}

// WriteHeader writes the column names. Write calls it on first use.
func (w *Writer) WriteHeader() error {
	if w.started {
		return nil
	}
	w.started = true
	if err := w.csv.Write(columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Write appends one row.
func (w *Writer) Write(r Row) error {
	if err := w.WriteHeader(); err != nil {
		return err
	}
	if err := w.csv.Write(r.Record()); err != nil {
		return fmt.Errorf("writing row %s: %w", r.CampaignID, err)
	}
	w.rows++
	if w.flushEvery > 0 && w.rows%w.flushEvery == 0 {
		w.csv.Flush()
		if err := w.csv.Error(); err != nil {
			return fmt.Errorf("flushing report: %w", err)
		}
	}
	return nil
}

// Rows returns the number of rows written.
func (w *Writer) Rows() int {
	return w.rows
}

// Close writes the header if nothing was written and flushes buffered rows.
// It does not close the underlying writer.
func (w *Writer) Close() error {
	if err := w.WriteHeader(); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

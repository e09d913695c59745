package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ignite/mailchimp-archive/internal/archive"
	"github.com/ignite/mailchimp-archive/internal/domain"
	"github.com/ignite/mailchimp-archive/internal/mailchimp"
	"github.com/ignite/mailchimp-archive/internal/metrics"
	"github.com/ignite/mailchimp-archive/internal/pkg/runlock"
	"github.com/ignite/mailchimp-archive/internal/report"
)

// Report writes one CSV row per sent campaign, pointing each at its archived
// document when one can be found.
func (p *Pipeline) Report(ctx context.Context) (Summary, error) {
	r := p.newRun(metrics.PassReport)
	err := r.report(ctx)
	return r.finish(err), err
}

func (r *run) report(ctx context.Context) error {
	out, err := filepath.Abs(r.p.opts.ReportPath)
	if err != nil {
		return componentErr(ComponentWriter, err)
	}
	r.summary.Output = out

	unlock, err := r.lock(ctx, runlock.ForFile(out))
	if err != nil {
		return err
	}
	defer unlock()

	// One listing per run; documents written later are not seen.
	idx, err := archive.LoadIndex(r.p.opts.ArchiveDir)
	if err != nil {
		return componentErr(ComponentMatcher, err)
	}
	if idx.Missing() {
		r.log.Warn("archive directory not found, file paths will be marked", "dir", idx.Dir())
	}

	f, err := os.Create(out)
	if err != nil {
		return componentErr(ComponentWriter, err)
	}
	w := report.NewWriter(f, r.p.opts.FlushEvery)

	r.log.Info("report run started", "output", out, "archive_dir", idx.Dir(), "archived_files", idx.Len())
	if err := r.warm(ctx); err != nil {
		f.Close()
		return err
	}

	runErr := r.each(ctx, func(ctx context.Context, c domain.Campaign, _ *mailchimp.Report) error {
		return r.reportOne(ctx, idx, w, c)
	})

	// Keep whatever rows were written, even on an aborted run.
	if err := w.Close(); err != nil && runErr == nil {
		runErr = componentErr(ComponentWriter, err)
	}
	if err := f.Close(); err != nil && runErr == nil {
		runErr = componentErr(ComponentWriter, err)
	}
	if runErr != nil {
		return runErr
	}

	if err := r.p.mirror.UploadFile(ctx, out, filepath.Base(out)); err != nil {
		r.log.Warn("mirror upload failed", "file", out, "error", err)
	}
	return nil
}

func (r *run) reportOne(ctx context.Context, idx *archive.Index, w *report.Writer, c domain.Campaign) error {
	listName, err := r.resolveList(ctx, c)
	if err != nil {
		return err
	}

	match := idx.Find(c)
	row := report.Assemble(c, listName, report.Searched(match))
	if err := w.Write(row); err != nil {
		return componentErr(ComponentWriter, err)
	}

	if match.Found() {
		r.summary.Matched++
		r.p.metrics.Campaign(r.pass, metrics.OutcomeMatched)
	} else {
		r.summary.Unmatched++
		r.p.metrics.Campaign(r.pass, metrics.OutcomeUnmatched)
		fmt.Fprintf(r.p.opts.Out, "  ? %s: %s\n", match.Display(), archive.CanonicalFilename(c.SendDate, c.Subject))
	}
	return nil
}

package pipeline

import (
	"context"
	"fmt"

	"github.com/ignite/mailchimp-archive/internal/archive"
	"github.com/ignite/mailchimp-archive/internal/domain"
	"github.com/ignite/mailchimp-archive/internal/mailchimp"
	"github.com/ignite/mailchimp-archive/internal/metrics"
	"github.com/ignite/mailchimp-archive/internal/pkg/runlock"
)

// Archive downloads every sent campaign body into the archive directory.
// Campaigns already archived are left untouched.
func (p *Pipeline) Archive(ctx context.Context) (Summary, error) {
	r := p.newRun(metrics.PassArchive)
	err := r.archive(ctx)
	return r.finish(err), err
}

func (r *run) archive(ctx context.Context) error {
	archiver, err := archive.NewArchiver(r.p.opts.ArchiveDir, archive.WithClock(r.p.opts.Now))
	if err != nil {
		return componentErr(ComponentArchiver, err)
	}
	r.summary.Output = archiver.Dir()

	unlock, err := r.lock(ctx, runlock.ForDir(archiver.Dir()))
	if err != nil {
		return err
	}
	defer unlock()

	r.log.Info("archive run started", "dir", archiver.Dir())
	if err := r.warm(ctx); err != nil {
		return err
	}

	return r.each(ctx, func(ctx context.Context, c domain.Campaign, _ *mailchimp.Report) error {
		return r.archiveOne(ctx, archiver, c)
	})
}

func (r *run) archiveOne(ctx context.Context, archiver *archive.Archiver, c domain.Campaign) error {
	res, found, err := archiver.Lookup(c)
	if err != nil {
		return componentErr(ComponentArchiver, err)
	}
	if found {
		r.existing(res)
		return nil
	}

	listName, err := r.resolveList(ctx, c)
	if err != nil {
		return err
	}

	content, err := r.p.api.GetContent(ctx, c.ID)
	if err != nil {
		return componentErr(ComponentClient, err)
	}

	res, err = archiver.Archive(c, listName, content.HTML)
	if err != nil {
		return componentErr(ComponentArchiver, err)
	}

	if res.Existing {
		r.existing(res)
		return nil
	}

	r.summary.Archived++
	r.p.metrics.Campaign(r.pass, metrics.OutcomeArchived)
	fmt.Fprintf(r.p.opts.Out, "  ✓ Saved: %s\n", res.Name)

	if err := r.p.mirror.UploadFile(ctx, res.Path, res.Name); err != nil {
		r.log.Warn("mirror upload failed", "campaign_id", c.ID, "file", res.Name, "error", err)
	}
	return nil
}

func (r *run) existing(res archive.Result) {
	r.summary.Existing++
	r.p.metrics.Campaign(r.pass, metrics.OutcomeExisting)
	fmt.Fprintf(r.p.opts.Out, "  = already archived: %s\n", res.Name)
}

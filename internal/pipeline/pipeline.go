// Package pipeline runs the archive and report passes: enumerate sent
// campaigns, resolve each one's audience, then write its document or its
// report row. Campaigns are handled one at a time, in listing order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/mailchimp-archive/internal/domain"
	"github.com/ignite/mailchimp-archive/internal/mailchimp"
	"github.com/ignite/mailchimp-archive/internal/metrics"
	"github.com/ignite/mailchimp-archive/internal/pkg/httpretry"
	"github.com/ignite/mailchimp-archive/internal/pkg/logger"
	"github.com/ignite/mailchimp-archive/internal/pkg/runlock"
	"github.com/ignite/mailchimp-archive/internal/storage"
)

// Component names used in fatal errors and skip notices.
const (
	ComponentFetcher  = "campaign fetcher"
	ComponentClient   = "api client"
	ComponentCache    = "list cache"
	ComponentArchiver = "content archiver"
	ComponentMatcher  = "filename matcher"
	ComponentWriter   = "report writer"
	ComponentLock     = "run lock"
)

// ErrLocked is returned when another run holds the output lock.
var ErrLocked = errors.New("another run is using this output")

// API is the remote surface both passes consume.
type API interface {
	mailchimp.ListFetcher
	Campaigns(filter mailchimp.CampaignFilter) *mailchimp.Pager
	Lists() *mailchimp.Pager
	GetReport(ctx context.Context, campaignID string) (*mailchimp.Report, error)
	GetContent(ctx context.Context, campaignID string) (*mailchimp.Content, error)
}

// ComponentError names the part of the pipeline that failed.
type ComponentError struct {
	Component string
	Err       error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Component, e.Err)
}

func (e *ComponentError) Unwrap() error { return e.Err }

func componentErr(component string, err error) error {
	var ce *ComponentError
	if errors.As(err, &ce) {
		return err
	}
	return &ComponentError{Component: component, Err: err}
}

// Options configure a Pipeline.
type Options struct {
	ArchiveDir    string
	ReportPath    string
	FlushEvery    int
	PrefetchLists bool
	PauseEvery    int
	Pause         time.Duration
	MetricsPath   string

	// Out receives progress lines and skip notices. Nil discards them.
	Out io.Writer
	// Sleep implements the polite pause. Nil uses a real timer.
	Sleep httpretry.SleepFunc
	// Now stamps archived documents. Nil uses time.Now.
	Now func() time.Time
}

// Pipeline runs one pass at a time against an API.
type Pipeline struct {
	api     API
	opts    Options
	mirror  storage.Mirror
	metrics *metrics.Metrics
}

// New creates a pipeline. A nil mirror disables uploads and nil metrics
// allocates a private set.
func New(api API, opts Options, mirror storage.Mirror, m *metrics.Metrics) *Pipeline {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Sleep == nil {
		opts.Sleep = httpretry.SleepContext
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if mirror == nil {
		mirror = storage.Noop{}
	}
	if m == nil {
		m = metrics.New()
	}
	return &Pipeline{api: api, opts: opts, mirror: mirror, metrics: m}
}

// Metrics returns the collectors the pipeline records into.
func (p *Pipeline) Metrics() *metrics.Metrics {
	return p.metrics
}

// Summary counts what one pass did.
type Summary struct {
	Pass        string
	RunID       string
	Processed   int
	Skipped     int
	Matched     int
	Unmatched   int
	Archived    int
	Existing    int
	Pages       int
	ListFetches int
	Output      string
	Duration    time.Duration
}

// run carries the per-pass state shared by both passes.
type run struct {
	p       *Pipeline
	pass    string
	log     *logger.Logger
	cache   *mailchimp.ListNameCache
	summary Summary
	started time.Time
	seen    int
}

func (p *Pipeline) newRun(pass string) *run {
	id := uuid.NewString()
	return &run{
		p:       p,
		pass:    pass,
		log:     logger.With("run_id", id, "pass", pass),
		cache:   mailchimp.NewListNameCache(p.api),
		summary: Summary{Pass: pass, RunID: id},
		started: time.Now(),
	}
}

// lock takes l for the duration of the run.
func (r *run) lock(ctx context.Context, l runlock.Lock) (func(), error) {
	ok, err := l.Acquire(ctx)
	if err != nil {
		return nil, componentErr(ComponentLock, err)
	}
	if !ok {
		return nil, componentErr(ComponentLock, ErrLocked)
	}
	return func() {
		if err := l.Release(context.Background()); err != nil {
			r.log.Warn("releasing run lock", "error", err)
		}
	}, nil
}

// warm optionally prefetches every list name.
func (r *run) warm(ctx context.Context) error {
	if !r.p.opts.PrefetchLists {
		return nil
	}
	n, err := r.cache.Warm(ctx, r.p.api.Lists())
	if err != nil {
		if mailchimp.IsAuthentication(err) || ctx.Err() != nil {
			return componentErr(ComponentCache, err)
		}
		r.log.Warn("list prefetch failed, resolving lazily", "error", err)
		return nil
	}
	r.log.Info("prefetched lists", "lists", n)
	return nil
}

// each walks every sent campaign and hands it to fn. A fatal error from fn or
// the listing stops the walk; any other error is a skipped campaign.
func (r *run) each(ctx context.Context, fn func(ctx context.Context, c domain.Campaign, report *mailchimp.Report) error) error {
	pager := r.p.api.Campaigns(mailchimp.SentCampaigns)
	defer func() { r.summary.Pages = pager.Pages() }()

	for pager.Next(ctx) {
		raw := pager.Item()
		r.seen++

		err := r.handle(ctx, raw, fn)
		if err != nil {
			if fatal(ctx, err) {
				return err
			}
			r.skip(mailchimp.CampaignID(raw), err)
		}

		if err := r.pause(ctx); err != nil {
			return err
		}
	}

	if err := pager.Err(); err != nil {
		return componentErr(ComponentFetcher, err)
	}
	return nil
}

func (r *run) handle(ctx context.Context, raw []byte, fn func(ctx context.Context, c domain.Campaign, report *mailchimp.Report) error) error {
	id := mailchimp.CampaignID(raw)
	if id == "" {
		return componentErr(ComponentFetcher, &mailchimp.FormatError{Field: "campaign.id", Err: errors.New("missing id")})
	}

	c, err := mailchimp.DecodeCampaign(raw, nil)
	if err != nil {
		return componentErr(ComponentFetcher, err)
	}
	if c.Status != "" && !c.IsSent() {
		r.log.Debug("ignoring unsent campaign", "campaign_id", c.ID, "status", c.Status)
		return nil
	}

	// Without a report the listing's summary metrics stand in.
	report, err := r.p.api.GetReport(ctx, id)
	switch {
	case err == nil:
		if report != nil {
			c.Metrics = report.Metrics()
		}
	case ctx.Err() != nil || mailchimp.IsAuthentication(err):
		return componentErr(ComponentClient, err)
	default:
		r.log.Warn("report unavailable, using listing metrics", "campaign_id", id, "error", err)
		report = nil
	}

	fmt.Fprintf(r.p.opts.Out, "[%d] %s\n", r.seen, displaySubject(c.Subject))
	if err := fn(ctx, c, report); err != nil {
		return err
	}

	r.summary.Processed++
	r.p.metrics.Campaign(r.pass, metrics.OutcomeProcessed)
	return nil
}

func (r *run) skip(id string, err error) {
	if id == "" {
		id = "(unknown)"
	}
	r.summary.Skipped++
	r.p.metrics.Campaign(r.pass, metrics.OutcomeSkipped)
	fmt.Fprintf(r.p.opts.Out, "  SKIP %s: %v\n", id, err)
	r.log.Warn("campaign skipped", "campaign_id", id, "error", err)
}

func (r *run) pause(ctx context.Context) error {
	every := r.p.opts.PauseEvery
	if every <= 0 || r.p.opts.Pause <= 0 || r.seen%every != 0 {
		return nil
	}
	if err := r.p.opts.Sleep(ctx, r.p.opts.Pause); err != nil {
		return componentErr(ComponentFetcher, err)
	}
	return nil
}

func (r *run) resolveList(ctx context.Context, c domain.Campaign) (string, error) {
	name, err := r.cache.Resolve(ctx, c.ListID)
	if err != nil {
		return "", componentErr(ComponentCache, err)
	}
	return name, nil
}

// finish records metrics and the summary for a completed or aborted run.
func (r *run) finish(err error) Summary {
	r.summary.ListFetches = r.cache.Fetches()
	r.summary.Duration = time.Since(r.started)

	r.p.metrics.Finish(r.pass, r.started, r.summary.Pages, r.summary.ListFetches, err)
	if werr := r.p.metrics.WriteTextfile(r.p.opts.MetricsPath); werr != nil {
		r.log.Warn("metrics not written", "error", werr)
	}

	fields := []interface{}{
		"processed", r.summary.Processed,
		"skipped", r.summary.Skipped,
		"pages", r.summary.Pages,
		"list_fetches", r.summary.ListFetches,
		"duration", r.summary.Duration.Round(time.Millisecond),
	}
	if err != nil {
		r.log.Error("run aborted", append(fields, "error", err)...)
	} else {
		r.log.Info("run complete", fields...)
	}
	return r.summary
}

// fatal reports whether err must stop the run rather than skip a campaign.
func fatal(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	if mailchimp.IsAuthentication(err) {
		return true
	}
	var ce *ComponentError
	if errors.As(err, &ce) {
		switch ce.Component {
		case ComponentWriter, ComponentLock:
			return true
		}
	}
	return false
}

func displaySubject(s string) string {
	if s == "" {
		return "No Subject"
	}
	return s
}

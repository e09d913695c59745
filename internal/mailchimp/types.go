package mailchimp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/mailchimp-archive/internal/domain"
)

// ========== Campaign Types ==========

// Campaign is the campaign payload as returned by /campaigns.
type Campaign struct {
	ID            string         `json:"id"`
	WebID         int64          `json:"web_id,omitempty"`
	Type          string         `json:"type,omitempty"`
	Status        string         `json:"status"`
	EmailsSent    int            `json:"emails_sent"`
	SendTime      string         `json:"send_time"`
	Settings      Settings       `json:"settings"`
	Recipients    Recipients     `json:"recipients"`
	ReportSummary *ReportSummary `json:"report_summary,omitempty"`
}

// Settings holds the subject line and preview text.
type Settings struct {
	SubjectLine string `json:"subject_line"`
	PreviewText string `json:"preview_text"`
	Title       string `json:"title"`
	FromName    string `json:"from_name,omitempty"`
}

// Recipients names the audience a campaign was sent to.
type Recipients struct {
	ListID      string       `json:"list_id"`
	ListName    string       `json:"list_name,omitempty"`
	SegmentText string       `json:"segment_text,omitempty"`
	SegmentOpts *SegmentOpts `json:"segment_opts,omitempty"`
}

// SegmentOpts is present when the campaign targeted a saved or dynamic segment.
type SegmentOpts struct {
	SavedSegmentID int64             `json:"saved_segment_id,omitempty"`
	Match          string            `json:"match,omitempty"`
	Conditions     []json.RawMessage `json:"conditions,omitempty"`
}

// Segmented reports whether the recipient selection names a segment rather
// than the whole list.
func (r Recipients) Segmented() bool {
	if r.SegmentOpts == nil {
		return false
	}
	return r.SegmentOpts.SavedSegmentID != 0 || len(r.SegmentOpts.Conditions) > 0
}

// ReportSummary is the abbreviated report embedded in campaign listings.
type ReportSummary struct {
	Opens            int     `json:"opens"`
	UniqueOpens      int     `json:"unique_opens"`
	OpenRate         float64 `json:"open_rate"`
	Clicks           int     `json:"clicks"`
	SubscriberClicks int     `json:"subscriber_clicks"`
	ClickRate        float64 `json:"click_rate"`
}

// ========== Report Types ==========

// Report is the full performance report from /reports/{id}.
type Report struct {
	ID           string       `json:"id"`
	EmailsSent   int          `json:"emails_sent"`
	Unsubscribed int          `json:"unsubscribed"`
	Bounces      ReportBounce `json:"bounces"`
	Opens        ReportOpens  `json:"opens"`
	Clicks       ReportClicks `json:"clicks"`
}

// ReportBounce holds bounce counts.
type ReportBounce struct {
	HardBounces  int `json:"hard_bounces"`
	SoftBounces  int `json:"soft_bounces"`
	SyntaxErrors int `json:"syntax_errors"`
}

// ReportOpens holds open counts.
type ReportOpens struct {
	OpensTotal  int     `json:"opens_total"`
	UniqueOpens int     `json:"unique_opens"`
	OpenRate    float64 `json:"open_rate"`
}

// ReportClicks holds click counts.
type ReportClicks struct {
	ClicksTotal            int     `json:"clicks_total"`
	UniqueClicks           int     `json:"unique_clicks"`
	UniqueSubscriberClicks int     `json:"unique_subscriber_clicks"`
	ClickRate              float64 `json:"click_rate"`
}

// Metrics converts the report into the domain snapshot.
func (r *Report) Metrics() domain.Metrics {
	if r == nil {
		return domain.Metrics{}
	}
	return domain.Metrics{
		EmailsSent:   nonNegative(r.EmailsSent),
		UniqueOpens:  nonNegative(r.Opens.UniqueOpens),
		OpenRate:     r.Opens.OpenRate,
		UniqueClicks: nonNegative(r.Clicks.UniqueClicks),
		ClickRate:    r.Clicks.ClickRate,
		HardBounces:  nonNegative(r.Bounces.HardBounces),
		SoftBounces:  nonNegative(r.Bounces.SoftBounces),
		Unsubscribes: nonNegative(r.Unsubscribed),
	}
}

// ========== List & Content Types ==========

// List is an audience from /lists.
type List struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Content is the rendered campaign body from /campaigns/{id}/content.
type Content struct {
	HTML      string `json:"html"`
	PlainText string `json:"plain_text"`
}

// ========== Decoding ==========

// sendTimeLayouts covers the RFC 3339 form and the "+0000" offset form seen
// in older payloads.
var sendTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05Z0700",
}

// ParseSendTime parses a send_time value, keeping the remote offset. An empty
// value yields the zero time.
func ParseSendTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	var lastErr error
	for _, layout := range sendTimeLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// DecodeCampaign turns one listing item into a domain campaign. The report,
// when present, supplies the metrics; otherwise the embedded summary is used.
func DecodeCampaign(raw json.RawMessage, report *Report) (domain.Campaign, error) {
	var c Campaign
	if err := json.Unmarshal(raw, &c); err != nil {
		return domain.Campaign{}, &FormatError{Field: "campaign", Err: err}
	}
	if c.ID == "" {
		return domain.Campaign{}, &FormatError{Field: "campaign.id", Err: errors.New("missing id")}
	}
	sendDate, err := ParseSendTime(c.SendTime)
	if err != nil {
		return domain.Campaign{}, &FormatError{Field: "campaign.send_time", Err: fmt.Errorf("campaign %s: %w", c.ID, err)}
	}

	metrics := report.Metrics()
	if report == nil {
		metrics = c.summaryMetrics()
	}

	return domain.Campaign{
		ID:        c.ID,
		Subject:   c.Settings.SubjectLine,
		Preheader: c.Settings.PreviewText,
		SendDate:  sendDate,
		ListID:    c.Recipients.ListID,
		Segmented: c.Recipients.Segmented(),
		Status:    domain.CampaignStatus(c.Status),
		Metrics:   metrics,
	}, nil
}

func (c Campaign) summaryMetrics() domain.Metrics {
	m := domain.Metrics{EmailsSent: nonNegative(c.EmailsSent)}
	if c.ReportSummary != nil {
		m.UniqueOpens = nonNegative(c.ReportSummary.UniqueOpens)
		m.OpenRate = c.ReportSummary.OpenRate
		m.UniqueClicks = nonNegative(c.ReportSummary.SubscriberClicks)
		m.ClickRate = c.ReportSummary.ClickRate
	}
	return m
}

// CampaignID extracts only the id of a listing item, for skip notices on
// items that fail full decoding.
func CampaignID(raw json.RawMessage) string {
	var probe struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(raw, &probe)
	return probe.ID
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

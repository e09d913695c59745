package domain

import (
	"time"
)

// CampaignStatus enumerates the lifecycle states the platform reports for a campaign.
type CampaignStatus string

const (
	CampaignSaved     CampaignStatus = "save"
	CampaignPaused    CampaignStatus = "paused"
	CampaignScheduled CampaignStatus = "schedule"
	CampaignSending   CampaignStatus = "sending"
	CampaignSent      CampaignStatus = "sent"
	CampaignCanceled  CampaignStatus = "canceled"
	CampaignCanceling CampaignStatus = "canceling"
	CampaignArchived  CampaignStatus = "archived"
)

// Campaign is one fetched broadcast. It is immutable once built and lives for
// a single pass over the campaign stream.
type Campaign struct {
	ID        string         `json:"id"`
	Subject   string         `json:"subject"`
	Preheader string         `json:"preheader"`
	SendDate  time.Time      `json:"send_date"`
	ListID    string         `json:"list_id"`
	Segmented bool           `json:"segmented"`
	Status    CampaignStatus `json:"status"`
	Metrics   Metrics        `json:"metrics"`
}

// IsSent reports whether the campaign has been delivered.
func (c Campaign) IsSent() bool {
	return c.Status == CampaignSent
}

// HasSendDate reports whether the platform supplied a send timestamp.
func (c Campaign) HasSendDate() bool {
	return !c.SendDate.IsZero()
}

// Metrics is the performance snapshot for a sent campaign. Counts are never
// negative; rates are ratios in [0, 1].
type Metrics struct {
	EmailsSent   int     `json:"emails_sent"`
	UniqueOpens  int     `json:"unique_opens"`
	OpenRate     float64 `json:"open_rate"`
	UniqueClicks int     `json:"unique_clicks"`
	ClickRate    float64 `json:"click_rate"`
	HardBounces  int     `json:"hard_bounces"`
	SoftBounces  int     `json:"soft_bounces"`
	Unsubscribes int     `json:"unsubscribes"`
}

// EffectiveOpenRate returns the open ratio, or 0 when there is nothing to
// divide by or nothing was opened.
func (m Metrics) EffectiveOpenRate() float64 {
	return effectiveRate(m.OpenRate, m.UniqueOpens, m.EmailsSent)
}

// EffectiveClickRate returns the click ratio with the same guards as EffectiveOpenRate.
func (m Metrics) EffectiveClickRate() float64 {
	return effectiveRate(m.ClickRate, m.UniqueClicks, m.EmailsSent)
}

// effectiveRate trusts the reported ratio only when the counts behind it are
// non-zero and the ratio is in range; otherwise it derives count/sent.
func effectiveRate(reported float64, count, sent int) float64 {
	if sent <= 0 || count <= 0 {
		return 0
	}
	if reported > 0 && reported <= 1 {
		return reported
	}
	derived := float64(count) / float64(sent)
	if derived > 1 {
		return 1
	}
	return derived
}

// ListInfo is a resolved audience.
type ListInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

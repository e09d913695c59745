package report

import (
	"time"

	"github.com/ignite/mailchimp-archive/internal/archive"
	"github.com/ignite/mailchimp-archive/internal/domain"
)

const (
	// UnknownDate fills the Send Date column for unsent or undated campaigns.
	UnknownDate = "Unknown"

	sendDateLayout  = "2006-01-02 15:04:05"
	segmentedSuffix = " (Segmented)"
)

// FileRef is what the matcher learned about a campaign's document. The zero
// value means the archive was never consulted.
type FileRef struct {
	Searched bool
	Match    archive.MatchResult
}

// Searched wraps a match result from an archive lookup.
func Searched(m archive.MatchResult) FileRef {
	return FileRef{Searched: true, Match: m}
}

// Path returns the absolute path or the marker for why there is none.
func (f FileRef) Path() string {
	if !f.Searched {
		return archive.MarkerNoDirectory
	}
	return f.Match.Display()
}

// Assemble merges a campaign, its resolved list name and its file lookup into
// a row. It performs no I/O.
func Assemble(c domain.Campaign, listName string, file FileRef) Row {
	audience := listName
	if c.Segmented {
		audience += segmentedSuffix
	}

	m := c.Metrics
	return Row{
		CampaignID:   c.ID,
		Subject:      c.Subject,
		Preheader:    c.Preheader,
		Audience:     audience,
		SendDate:     formatSendDate(c.SendDate),
		EmailsSent:   m.EmailsSent,
		UniqueOpens:  m.UniqueOpens,
		OpenRate:     m.EffectiveOpenRate() * 100,
		UniqueClicks: m.UniqueClicks,
		ClickRate:    m.EffectiveClickRate() * 100,
		HardBounces:  m.HardBounces,
		SoftBounces:  m.SoftBounces,
		Unsubscribes: m.Unsubscribes,
		FilePath:     file.Path(),
	}
}

func formatSendDate(t time.Time) string {
	if t.IsZero() {
		return UnknownDate
	}
	return t.Format(sendDateLayout)
}

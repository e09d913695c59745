package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/mailchimp-archive/internal/archive"
	"github.com/ignite/mailchimp-archive/internal/domain"
)

func sentCampaign() domain.Campaign {
	return domain.Campaign{
		ID:        "c1",
		Subject:   "50% Off!!",
		Preheader: "This weekend only",
		SendDate:  time.Date(2024, 3, 10, 14, 5, 9, 0, time.FixedZone("EST", -5*3600)),
		ListID:    "L1",
		Status:    domain.CampaignSent,
		Metrics: domain.Metrics{
			EmailsSent:   400,
			UniqueOpens:  100,
			OpenRate:     0.25,
			UniqueClicks: 8,
			ClickRate:    0.02,
			HardBounces:  1,
			SoftBounces:  4,
			Unsubscribes: 2,
		},
	}
}

func TestAssemble(t *testing.T) {
	match := archive.MatchResult{Status: archive.MatchExact, Name: "2024-03-10_50_Off.md", Path: "/srv/archive/2024-03-10_50_Off.md"}

	row := Assemble(sentCampaign(), "Newsletter", Searched(match))

	assert.Equal(t, []string{
		"c1",
		"50% Off!!",
		"This weekend only",
		"Newsletter",
		"2024-03-10 14:05:09",
		"400",
		"100",
		"25.00",
		"8",
		"2.00",
		"1",
		"4",
		"2",
		"/srv/archive/2024-03-10_50_Off.md",
	}, row.Record())
}

func TestAssemble_ZeroSentGivesZeroRates(t *testing.T) {
	c := sentCampaign()
	c.Metrics = domain.Metrics{EmailsSent: 0, UniqueOpens: 3, OpenRate: 0.5, UniqueClicks: 1, ClickRate: 0.1}

	rec := Assemble(c, "Newsletter", FileRef{}).Record()

	assert.Equal(t, "0.00", rec[7])
	assert.Equal(t, "0.00", rec[9])
}

func TestAssemble_Fallbacks(t *testing.T) {
	c := sentCampaign()
	c.Preheader = ""
	c.SendDate = time.Time{}
	c.Segmented = true

	row := Assemble(c, "Unknown List", Searched(archive.MatchResult{Status: archive.MatchNone}))

	assert.Equal(t, "", row.Preheader)
	assert.Equal(t, UnknownDate, row.SendDate)
	assert.Equal(t, "Unknown List (Segmented)", row.Audience)
	assert.Equal(t, archive.MarkerNotFound, row.FilePath)
}

func TestAssemble_FileMarkers(t *testing.T) {
	c := sentCampaign()

	notSearched := Assemble(c, "L", FileRef{})
	noDir := Assemble(c, "L", Searched(archive.MatchResult{Status: archive.MatchNoDirectory}))
	notFound := Assemble(c, "L", Searched(archive.MatchResult{Status: archive.MatchNone}))

	assert.Equal(t, archive.MarkerNoDirectory, notSearched.FilePath)
	assert.Equal(t, archive.MarkerNoDirectory, noDir.FilePath)
	assert.Equal(t, archive.MarkerNotFound, notFound.FilePath)
	assert.NotEqual(t, noDir.FilePath, notFound.FilePath)
}

func TestAssemble_RateDerivedFromCounts(t *testing.T) {
	c := sentCampaign()
	c.Metrics.OpenRate = 0  // missing from payload
	c.Metrics.ClickRate = 7 // out of range

	row := Assemble(c, "L", FileRef{})

	assert.InDelta(t, 25.0, row.OpenRate, 1e-9)
	assert.InDelta(t, 2.0, row.ClickRate, 1e-9)
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 2)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, w.Write(Row{CampaignID: id, Subject: "Hello, \"world\"", FilePath: archive.MarkerNotFound}))
	}
	// Two rows flushed, the third still buffered.
	assert.Equal(t, 3, strings.Count(buf.String(), "\n"))

	require.NoError(t, w.Close())
	assert.Equal(t, 3, w.Rows())

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, Header(), records[0])
	assert.Equal(t, "c", records[3][0])
	assert.Equal(t, "Hello, \"world\"", records[1][1])
	assert.Len(t, records[1], len(Header()))
}

func TestWriter_EmptyReportHasHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 50)
	require.NoError(t, w.Close())

	assert.Equal(t, strings.Join(Header(), ",")+"\n", buf.String())
}

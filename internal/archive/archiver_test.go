package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/mailchimp-archive/internal/domain"
)

var fixedClock = func() time.Time { return time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC) }

func testCampaign(id, subject string) domain.Campaign {
	return domain.Campaign{
		ID:       id,
		Subject:  subject,
		SendDate: time.Date(2024, 3, 10, 14, 5, 0, 0, time.UTC),
		ListID:   "L1",
		Status:   domain.CampaignSent,
		Metrics: domain.Metrics{
			EmailsSent:   200,
			UniqueOpens:  50,
			OpenRate:     0.25,
			UniqueClicks: 10,
			ClickRate:    0.05,
			HardBounces:  1,
			SoftBounces:  2,
			Unsubscribes: 3,
		},
	}
}

func TestArchive_WritesCanonicalFile(t *testing.T) {
	dir := t.TempDir()
	a, err := NewArchiver(dir, WithClock(fixedClock))
	require.NoError(t, err)

	res, err := a.Archive(testCampaign("c1", "50% Off!!"), "Newsletter", "<h1>Spring</h1><p>Everything <b>half</b> price.</p>")
	require.NoError(t, err)

	assert.Equal(t, "2024-03-10_50_Off.md", res.Name)
	assert.Equal(t, filepath.Join(dir, "2024-03-10_50_Off.md"), res.Path)
	assert.False(t, res.Existing)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	doc := string(data)

	assert.True(t, strings.HasPrefix(doc, "# 50% Off!!\n"))
	assert.Contains(t, doc, "**Campaign ID:** c1")
	assert.Contains(t, doc, "**Sent:** March 10, 2024 at 02:05 PM")
	assert.Contains(t, doc, "**List:** Newsletter")
	assert.Contains(t, doc, "**Opens:** 50 (25.0%)")
	assert.Contains(t, doc, "**Clicks:** 10 (5.0%)")
	assert.Contains(t, doc, "# Spring")
	assert.Contains(t, doc, "Everything **half** price.")
	assert.Contains(t, doc, "*Downloaded from Mailchimp on 2024-04-01*")

	// Metadata order is fixed: id, send date, list, metrics.
	idPos := strings.Index(doc, "**Campaign ID:**")
	sentPos := strings.Index(doc, "**Sent:**")
	listPos := strings.Index(doc, "**List:**")
	metricsPos := strings.Index(doc, "**Emails Sent:**")
	assert.True(t, idPos < sentPos && sentPos < listPos && listPos < metricsPos)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestArchive_RoundTripWithMatcher(t *testing.T) {
	dir := t.TempDir()
	a, err := NewArchiver(dir, WithClock(fixedClock))
	require.NoError(t, err)

	c := testCampaign("c1", "50% Off!!")
	res, err := a.Archive(c, "Newsletter", "<p>hi</p>")
	require.NoError(t, err)

	assert.Equal(t, CanonicalFilename(c.SendDate, c.Subject), res.Name)

	idx, err := LoadIndex(dir)
	require.NoError(t, err)
	match := idx.Find(c)
	assert.Equal(t, MatchExact, match.Status)
	assert.Equal(t, res.Path, match.Path)
}

func TestArchive_CollisionIsReported(t *testing.T) {
	dir := t.TempDir()
	a, err := NewArchiver(dir, WithClock(fixedClock))
	require.NoError(t, err)

	first, err := a.Archive(testCampaign("c1", "Weekly Update"), "Newsletter", "<p>first</p>")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10_Weekly_Update.md", first.Name)

	_, err = a.Archive(testCampaign("c2", "Weekly: Update!"), "Newsletter", "<p>second</p>")
	require.Error(t, err)
	assert.True(t, IsCollision(err))

	var collision *CollisionError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, "c1", collision.ExistingID)
	assert.Equal(t, "c2", collision.CampaignID)

	data, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "first")
	assert.NotContains(t, string(data), "second")
}

func TestArchive_RerunIsExisting(t *testing.T) {
	dir := t.TempDir()
	a, err := NewArchiver(dir, WithClock(fixedClock))
	require.NoError(t, err)

	c := testCampaign("c1", "Weekly Update")
	_, err = a.Archive(c, "Newsletter", "<p>body</p>")
	require.NoError(t, err)

	again, err := a.Archive(c, "Newsletter", "<p>body changed</p>")
	require.NoError(t, err)
	assert.True(t, again.Existing)

	data, err := os.ReadFile(again.Path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "changed")
}

func TestArchiver_Lookup(t *testing.T) {
	a, err := NewArchiver(t.TempDir(), WithClock(fixedClock))
	require.NoError(t, err)

	c := testCampaign("c1", "Weekly Update")
	_, found, err := a.Lookup(c)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = a.Archive(c, "Newsletter", "<p>body</p>")
	require.NoError(t, err)

	res, found, err := a.Lookup(c)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, res.Existing)
	assert.Equal(t, "2024-03-10_Weekly_Update.md", res.Name)

	_, found, err = a.Lookup(testCampaign("c2", "Weekly Update"))
	assert.True(t, found)
	assert.True(t, IsCollision(err))
}

func TestArchive_UnwritableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	dir := t.TempDir()
	a, err := NewArchiver(dir)
	require.NoError(t, err)
	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	_, err = a.Archive(testCampaign("c1", "Hello"), "", "<p>x</p>")
	require.Error(t, err)
	assert.True(t, IsIO(err))
}

func TestNewArchiver_PathIsAFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := NewArchiver(file)
	assert.True(t, IsIO(err))
}

func TestReadCampaignID(t *testing.T) {
	id, err := ReadCampaignID(strings.NewReader("# Title\n\n---\n\n**Campaign ID:** abc123\n"))
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)

	id, err = ReadCampaignID(strings.NewReader("just some notes\n"))
	require.NoError(t, err)
	assert.Empty(t, id)
}

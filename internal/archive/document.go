package archive

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/osteele/liquid"

	"github.com/ignite/mailchimp-archive/internal/domain"
)

// campaignIDLabel marks the metadata line that identifies a document. It is
// read back to tell a re-run from a collision.
const campaignIDLabel = "**Campaign ID:**"

// documentTemplate fixes the metadata order: id, send date, list, metrics.
const documentTemplate = `# {{ subject }}

---

` + campaignIDLabel + ` {{ id }}
**Sent:** {{ sent }}
**List:** {{ list }}

## Performance Metrics

**Emails Sent:** {{ emails_sent }}
**Opens:** {{ unique_opens }} ({{ open_rate | percent }}%)
**Clicks:** {{ unique_clicks }} ({{ click_rate | percent }}%)
**Bounces:** {{ hard_bounces }} hard, {{ soft_bounces }} soft
**Unsubscribes:** {{ unsubscribes }}

---

## Content

{{ body | default: "_No content available._" }}

---

*Downloaded from Mailchimp on {{ downloaded }}*
`

// DocumentData is the input to one rendered document.
type DocumentData struct {
	Campaign     domain.Campaign
	ListName     string
	Body         string
	DownloadedAt time.Time
}

// Renderer turns campaign metadata and a markdown body into the archived
// document. The template is parsed once.
type Renderer struct {
	tpl *liquid.Template
}

// NewRenderer compiles the document template.
func NewRenderer() (*Renderer, error) {
	engine := liquid.NewEngine()

	// Ratio to percentage with one decimal: {{ open_rate | percent }}
	engine.RegisterFilter("percent", func(v float64) string {
		return fmt.Sprintf("%.1f", v*100)
	})

	tpl, err := engine.ParseString(documentTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing document template: %w", err)
	}
	return &Renderer{tpl: tpl}, nil
}

// Render produces the document text.
func (r *Renderer) Render(d DocumentData) (string, error) {
	c := d.Campaign
	subject := strings.TrimSpace(c.Subject)
	if subject == "" {
		subject = "No Subject"
	}
	list := d.ListName
	if list == "" {
		list = "N/A"
	}

	out, err := r.tpl.RenderString(liquid.Bindings{
		"subject":       subject,
		"id":            c.ID,
		"sent":          formatSent(c.SendDate),
		"list":          list,
		"emails_sent":   c.Metrics.EmailsSent,
		"unique_opens":  c.Metrics.UniqueOpens,
		"open_rate":     c.Metrics.EffectiveOpenRate(),
		"unique_clicks": c.Metrics.UniqueClicks,
		"click_rate":    c.Metrics.EffectiveClickRate(),
		"hard_bounces":  c.Metrics.HardBounces,
		"soft_bounces":  c.Metrics.SoftBounces,
		"unsubscribes":  c.Metrics.Unsubscribes,
		"body":          d.Body,
		"downloaded":    d.DownloadedAt.Format("2006-01-02"),
	})
	if err != nil {
		return "", fmt.Errorf("rendering campaign %s: %w", c.ID, err)
	}
	return out, nil
}

func formatSent(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.Format("January 02, 2006 at 03:04 PM")
}

// ReadCampaignID scans the metadata header of an archived document and
// returns the campaign id it records, or "" if there is none.
func ReadCampaignID(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for i := 0; i < 20 && scanner.Scan(); i++ {
		line := strings.TrimSpace(scanner.Text())
		if rest, ok := strings.CutPrefix(line, campaignIDLabel); ok {
			return strings.TrimSpace(rest), nil
		}
	}
	return "", scanner.Err()
}

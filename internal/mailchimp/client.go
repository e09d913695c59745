package mailchimp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ignite/mailchimp-archive/internal/config"
	"github.com/ignite/mailchimp-archive/internal/domain"
	"github.com/ignite/mailchimp-archive/internal/pkg/httpretry"
)

// maxPageSize is the largest count the campaigns and lists endpoints accept.
const maxPageSize = 1000

// Client is a Mailchimp Marketing API client
type Client struct {
	baseURL    string
	apiKey     APIKey
	httpClient httpretry.HTTPDoer
	attempts   int
	pageSize   int
}

// NewClient creates a new API client. The key is validated before anything
// else so a malformed key never reaches the network.
func NewClient(cfg config.MailchimpConfig, opts ...httpretry.Option) (*Client, error) {
	key, err := ParseAPIKey(cfg.APIKey)
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = key.BaseURL()
	}

	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	opts = append([]httpretry.Option{httpretry.WithBackoff(cfg.Backoff(), cfg.MaxBackoff())}, opts...)
	retry := httpretry.NewRetryClient(&http.Client{Timeout: timeout}, cfg.MaxRetries, opts...)

	return &Client{
		baseURL:    baseURL,
		apiKey:     key,
		httpClient: retry,
		attempts:   retry.MaxAttempts(),
		pageSize:   clampPageSize(cfg.PageSize),
	}, nil
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// DataCenter returns the regional prefix taken from the API key.
func (c *Client) DataCenter() string {
	return c.apiKey.DataCenter
}

// PageSize returns the count requested per listing page.
func (c *Client) PageSize() int {
	return c.pageSize
}

// apiProblem is the problem-detail body the API returns with errors.
type apiProblem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Request performs an authenticated GET and returns the JSON body.
// Throttling, 5xx and transport failures are retried by the underlying
// RetryClient; once retries run out they surface as TransientServiceError.
func (c *Client) Request(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	fullURL := c.baseURL + endpoint
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey.secret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("request %s: %w", endpoint, ctxErr)
		}
		return nil, &TransientServiceError{Attempts: c.attempts, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientServiceError{StatusCode: resp.StatusCode, Attempts: c.attempts, Err: fmt.Errorf("reading response: %w", err)}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if !json.Valid(body) {
			return nil, &FormatError{Field: "response body", Err: fmt.Errorf("%s returned invalid JSON", endpoint)}
		}
		return json.RawMessage(body), nil
	case httpretry.IsRetryableStatus(resp.StatusCode):
		return nil, &TransientServiceError{StatusCode: resp.StatusCode, Attempts: c.attempts, Err: errors.New(problemDetail(body))}
	case resp.StatusCode == http.StatusNotFound:
		return nil, &NotFoundError{Endpoint: endpoint}
	case resp.StatusCode >= 400:
		return nil, &AuthenticationError{StatusCode: resp.StatusCode, Detail: problemDetail(body)}
	default:
		return nil, &FormatError{Field: "status", Err: fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)}
	}
}

func problemDetail(body []byte) string {
	var p apiProblem
	if err := json.Unmarshal(body, &p); err == nil && (p.Title != "" || p.Detail != "") {
		if p.Detail == "" {
			return p.Title
		}
		if p.Title == "" {
			return p.Detail
		}
		return p.Title + ": " + p.Detail
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// ========== Resource Methods ==========

// CampaignFilter narrows the campaign listing.
type CampaignFilter struct {
	Status    domain.CampaignStatus
	SortField string
	SortDir   string
}

// SentCampaigns is the listing used by both passes: newest sends first.
var SentCampaigns = CampaignFilter{
	Status:    domain.CampaignSent,
	SortField: "send_time",
	SortDir:   "DESC",
}

// Values encodes the filter as query parameters.
func (f CampaignFilter) Values() url.Values {
	params := url.Values{}
	if f.Status != "" {
		params.Set("status", string(f.Status))
	}
	if f.SortField != "" {
		params.Set("sort_field", f.SortField)
	}
	if f.SortDir != "" {
		params.Set("sort_dir", f.SortDir)
	}
	return params
}

// Campaigns returns a pager over every campaign matching filter.
func (c *Client) Campaigns(filter CampaignFilter) *Pager {
	return NewPager(c, ResourceCampaigns, filter.Values(), c.pageSize)
}

// Lists returns a pager over every audience in the account.
func (c *Client) Lists() *Pager {
	params := url.Values{}
	params.Set("fields", "lists.id,lists.name")
	return NewPager(c, ResourceLists, params, c.pageSize)
}

// GetList fetches one audience by id.
func (c *Client) GetList(ctx context.Context, listID string) (domain.ListInfo, error) {
	params := url.Values{}
	params.Set("fields", "id,name")

	body, err := c.Request(ctx, "/lists/"+url.PathEscape(listID), params)
	if err != nil {
		return domain.ListInfo{}, fmt.Errorf("fetching list %s: %w", listID, err)
	}

	var list List
	if err := json.Unmarshal(body, &list); err != nil {
		return domain.ListInfo{}, &FormatError{Field: "list", Err: err}
	}
	if list.ID == "" {
		list.ID = listID
	}
	return domain.ListInfo{ID: list.ID, Name: list.Name}, nil
}

// GetReport fetches the performance report for a campaign. A campaign whose
// report has not been generated yet yields (nil, nil).
func (c *Client) GetReport(ctx context.Context, campaignID string) (*Report, error) {
	body, err := c.Request(ctx, "/reports/"+url.PathEscape(campaignID), nil)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching report for %s: %w", campaignID, err)
	}

	var report Report
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, &FormatError{Field: "report", Err: err}
	}
	return &report, nil
}

// GetContent fetches the rendered HTML body of a campaign.
func (c *Client) GetContent(ctx context.Context, campaignID string) (*Content, error) {
	body, err := c.Request(ctx, "/campaigns/"+url.PathEscape(campaignID)+"/content", nil)
	if err != nil {
		return nil, fmt.Errorf("fetching content for %s: %w", campaignID, err)
	}

	var content Content
	if err := json.Unmarshal(body, &content); err != nil {
		return nil, &FormatError{Field: "content", Err: err}
	}
	return &content, nil
}

func clampPageSize(n int) int {
	if n <= 0 || n > maxPageSize {
		return maxPageSize
	}
	return n
}

package mailchimp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Requester issues one authenticated GET against the API.
type Requester interface {
	Request(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error)
}

// Resource names a paginated collection and the key its items live under.
type Resource struct {
	Endpoint string
	ItemsKey string
}

var (
	ResourceCampaigns = Resource{Endpoint: "/campaigns", ItemsKey: "campaigns"}
	ResourceLists     = Resource{Endpoint: "/lists", ItemsKey: "lists"}
)

// Pager walks a collection with offset/count paging. It yields items in
// server order and stops after the first page shorter than the page size.
// A Pager is single use.
//
//	p := client.Campaigns(mailchimp.SentCampaigns)
//	for p.Next(ctx) {
//		raw := p.Item()
//	}
//	if err := p.Err(); err != nil { ... }
type Pager struct {
	req      Requester
	resource Resource
	filter   url.Values
	pageSize int

	offset int
	buf    []json.RawMessage
	cur    json.RawMessage
	pages  int
	done   bool
	err    error
}

// NewPager creates a pager. pageSize is clamped to 1..1000.
func NewPager(req Requester, resource Resource, filter url.Values, pageSize int) *Pager {
	return &Pager{
		req:      req,
		resource: resource,
		filter:   filter,
		pageSize: clampPageSize(pageSize),
	}
}

// Next advances to the next item, fetching a page when the buffer runs dry.
// It returns false at the end of the collection or on the first error.
func (p *Pager) Next(ctx context.Context) bool {
	if p.err != nil {
		return false
	}
	for len(p.buf) == 0 {
		if p.done {
			p.cur = nil
			return false
		}
		if err := p.fetch(ctx); err != nil {
			p.err = err
			p.cur = nil
			return false
		}
	}
	p.cur = p.buf[0]
	p.buf = p.buf[1:]
	return true
}

// Item returns the current raw item.
func (p *Pager) Item() json.RawMessage {
	return p.cur
}

// Err returns the error that stopped iteration, if any.
func (p *Pager) Err() error {
	return p.err
}

// Pages returns the number of pages fetched so far.
func (p *Pager) Pages() int {
	return p.pages
}

func (p *Pager) fetch(ctx context.Context) error {
	params := url.Values{}
	for k, vs := range p.filter {
		params[k] = append([]string(nil), vs...)
	}
	params.Set("count", strconv.Itoa(p.pageSize))
	params.Set("offset", strconv.Itoa(p.offset))

	body, err := p.req.Request(ctx, p.resource.Endpoint, params)
	if err != nil {
		return fmt.Errorf("listing %s at offset %d: %w", p.resource.Endpoint, p.offset, err)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &FormatError{Field: p.resource.ItemsKey, Err: err}
	}
	rawItems, ok := envelope[p.resource.ItemsKey]
	if !ok {
		return &FormatError{Field: p.resource.ItemsKey, Err: fmt.Errorf("page at offset %d has no %q array", p.offset, p.resource.ItemsKey)}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(rawItems, &items); err != nil {
		return &FormatError{Field: p.resource.ItemsKey, Err: err}
	}

	p.pages++
	p.offset += len(items)
	p.buf = items
	if len(items) < p.pageSize {
		p.done = true
	}
	return nil
}

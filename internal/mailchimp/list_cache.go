package mailchimp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ignite/mailchimp-archive/internal/domain"
	"github.com/ignite/mailchimp-archive/internal/pkg/logger"
)

const (
	// UnknownList stands in for a list name that could not be fetched.
	UnknownList = "Unknown List"
	// NoList labels a campaign that carries no list reference at all.
	NoList = "Unknown"
)

// ListFetcher fetches one list by id.
type ListFetcher interface {
	GetList(ctx context.Context, listID string) (domain.ListInfo, error)
}

// ListNameCache memoizes list id to name lookups for the lifetime of one run.
// It is not safe for concurrent use; a run resolves names from a single
// goroutine.
type ListNameCache struct {
	fetcher ListFetcher
	names   map[string]string
	fetches int
}

// NewListNameCache creates an empty cache backed by fetcher.
func NewListNameCache(fetcher ListFetcher) *ListNameCache {
	return &ListNameCache{
		fetcher: fetcher,
		names:   make(map[string]string),
	}
}

// Resolve returns the name for listID. The first call for an id fetches it;
// later calls are served from memory. Authentication and format errors are
// returned and leave nothing cached. Retry exhaustion yields UnknownList,
// also uncached, so a later call tries again.
func (c *ListNameCache) Resolve(ctx context.Context, listID string) (string, error) {
	if listID == "" {
		return NoList, nil
	}
	if name, ok := c.names[listID]; ok {
		return name, nil
	}

	c.fetches++
	info, err := c.fetcher.GetList(ctx, listID)
	switch {
	case err == nil:
		name := info.Name
		if name == "" {
			name = UnknownList
		}
		c.names[listID] = name
		return name, nil
	case IsNotFound(err):
		logger.Warn("list not found", "list_id", listID)
		c.names[listID] = UnknownList
		return UnknownList, nil
	case IsTransient(err):
		logger.Warn("list lookup failed, using placeholder", "list_id", listID, "error", err)
		return UnknownList, nil
	default:
		return "", fmt.Errorf("resolving list %s: %w", listID, err)
	}
}

// Warm seeds the cache from a pager over /lists. Names already cached are
// kept. It returns the number of lists seen.
func (c *ListNameCache) Warm(ctx context.Context, pager *Pager) (int, error) {
	seen := 0
	for pager.Next(ctx) {
		var list List
		if err := json.Unmarshal(pager.Item(), &list); err != nil {
			return seen, &FormatError{Field: "lists", Err: err}
		}
		seen++
		if list.ID == "" || list.Name == "" {
			continue
		}
		if _, ok := c.names[list.ID]; !ok {
			c.names[list.ID] = list.Name
		}
	}
	if err := pager.Err(); err != nil {
		return seen, fmt.Errorf("prefetching lists: %w", err)
	}
	c.fetches += pager.Pages()
	return seen, nil
}

// Fetches returns the number of network calls the cache has made.
func (c *ListNameCache) Fetches() int {
	return c.fetches
}

// Len returns the number of cached names.
func (c *ListNameCache) Len() int {
	return len(c.names)
}

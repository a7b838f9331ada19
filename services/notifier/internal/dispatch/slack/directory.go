package slack

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/transport"
)

const (
	listLimit = 200
	maxPages  = 20
)

type listKind string

const (
	kindChannels listKind = "channels.list"
	kindGroups   listKind = "groups.list"
	kindUsers    listKind = "users.list"
)

type listEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type listResponse struct {
	apiResponse
	Channels         []listEntry `json:"channels"`
	Groups           []listEntry `json:"groups"`
	Members          []listEntry `json:"members"`
	ResponseMetadata struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata"`
}

func (r *listResponse) entries(kind listKind) []listEntry {
	switch kind {
	case kindGroups:
		return r.Groups
	case kindUsers:
		return r.Members
	default:
		return r.Channels
	}
}

// directory looks up channel, private group and member ids by name. Results are
// cached per integration and token so a rotated token never sees a stale list.
type directory struct {
	baseURL   string
	transport transport.Transport
	cache     *cache.Cache
}

func newDirectory(baseURL string, t transport.Transport, ttl time.Duration) *directory {
	return &directory{
		baseURL:   baseURL,
		transport: t,
		cache:     cache.New(ttl, 2*ttl),
	}
}

// lookup returns the id for name in the given list, or "" when absent.
// A miss against a cached list refetches it once, so channels created since
// the list was cached are found.
func (d *directory) lookup(ctx context.Context, integrationID int64, token string, kind listKind, name string) (string, error) {
	key := cacheKey(integrationID, token, kind)
	if cached, ok := d.cache.Get(key); ok {
		if id := cached.(map[string]string)[name]; id != "" {
			return id, nil
		}
		d.cache.Delete(key)
	}

	ids, err := d.fetch(ctx, integrationID, token, kind)
	if err != nil {
		return "", err
	}
	d.cache.SetDefault(key, ids)
	return ids[name], nil
}

func (d *directory) fetch(ctx context.Context, integrationID int64, token string, kind listKind) (map[string]string, error) {

	ids := make(map[string]string)
	cursor := ""
	for page := 0; page < maxPages; page++ {
		q := url.Values{}
		q.Set("exclude_archived", "true")
		q.Set("exclude_members", "true")
		q.Set("limit", strconv.Itoa(listLimit))
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		var resp listResponse
		rawURL := fmt.Sprintf("%s/%s?%s", d.baseURL, kind, q.Encode())
		if err := transport.GetJSON(ctx, d.transport, rawURL, transport.Bearer(token), &resp); err != nil {
			return nil, fmt.Errorf("failed to list slack %s: %w", kind, err)
		}
		if err := resp.err(integrationID, string(kind)); err != nil {
			return nil, err
		}

		for _, e := range resp.entries(kind) {
			ids[e.Name] = e.ID
			ids[e.ID] = e.ID
		}
		cursor = resp.ResponseMetadata.NextCursor
		if cursor == "" {
			break
		}
	}

	return ids, nil
}

func cacheKey(integrationID int64, token string, kind listKind) string {
	return fmt.Sprintf("%d:%s:%s", integrationID, token, kind)
}

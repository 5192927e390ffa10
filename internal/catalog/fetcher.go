package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/rack/internal/api"
	"github.com/five82/rack/internal/logging"
	"github.com/five82/rack/internal/retry"
	"github.com/five82/rack/internal/state"
)

// Item is an immutable snapshot of one catalog record.
type Item struct {
	ID             int
	Title          string
	Description    string
	Category       string
	Components     []string
	ComponentsText string
	Tags           []string
	License        string
	Manufacturer   string
	SchematicURL   string
	ImageURL       string
	VideoURL       string
	PublishedAt    time.Time
	PublishedRaw   string
}

// Page is one successfully fetched catalog page.
type Page struct {
	Items      []Item
	Total      int
	Limit      int
	TotalPages int
}

// Source fetches raw catalog pages.
type Source interface {
	FetchHardware(ctx context.Context, query api.HardwareQuery) (api.HardwarePage, error)
}

// Fetcher turns a state.Query into a normalized Page.
type Fetcher struct {
	source Source
	tokens api.TokenSource
	policy retry.Policy
	logger zerolog.Logger
}

// NewFetcher wires a Fetcher. tokens may be nil to skip the credential check.
func NewFetcher(source Source, tokens api.TokenSource, policy retry.Policy, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		source: source,
		tokens: tokens,
		policy: policy,
		logger: logging.Component(logger, "catalog"),
	}
}

// Request builds the API query for q. ok is false when q is bookmark-only
// with no bookmarks, meaning the result is known to be empty.
func Request(q state.Query) (api.HardwareQuery, bool) {
	req := api.HardwareQuery{
		Page:     q.Page,
		Search:   q.Search,
		Category: q.Category,
	}
	if q.SortField != "" {
		req.Sort = q.SortField
		req.Order = string(q.SortOrder)
	}
	if q.BookmarksOnly {
		if len(q.Bookmarks) == 0 {
			return req, false
		}
		req.IDs = q.Bookmarks.Sorted()
	}
	return req, true
}

// Fetch loads the page described by q. Transient failures are retried under
// the fetcher's policy; business errors and credential rejections are not.
// q is never modified.
func (f *Fetcher) Fetch(ctx context.Context, q state.Query) (Page, error) {
	req, ok := Request(q)
	if !ok {
		return Page{}, ErrNoBookmarks
	}
	if f.tokens != nil && f.tokens.Token() == "" {
		return Page{}, &FetchError{Kind: KindUnauthorized, Message: "not signed in"}
	}

	attempt := 0
	raw, err := retry.Do(ctx, f.policy, api.IsRetryable, func(ctx context.Context) (api.HardwarePage, error) {
		attempt++
		page, err := f.source.FetchHardware(ctx, req)
		if err != nil {
			f.logger.Debug().Err(err).Int("page", req.Page).Int("attempt", attempt).Msg("catalog request failed")
		}
		return page, err
	})
	if err != nil {
		return Page{}, classify(err)
	}

	if raw.Pagination == nil || raw.Pagination.Limit <= 0 || raw.Pagination.Total < 0 {
		return Page{}, &FetchError{Kind: KindServer, Err: errors.New("missing or invalid pagination")}
	}

	items := make([]Item, 0, len(raw.Items))
	for _, it := range raw.Items {
		if q.BookmarksOnly && !q.Bookmarks.Contains(it.ID) {
			continue
		}
		items = append(items, mapItem(it))
	}
	if dropped := len(raw.Items) - len(items); dropped > 0 {
		f.logger.Info().Int("dropped", dropped).Msg("server returned items outside the bookmark filter")
	}

	page := Page{
		Items:      items,
		Total:      raw.Pagination.Total,
		Limit:      raw.Pagination.Limit,
		TotalPages: TotalPages(raw.Pagination.Total, raw.Pagination.Limit),
	}
	f.logger.Debug().Int("page", req.Page).Int("items", len(items)).Int("total_pages", page.TotalPages).Msg("catalog page loaded")
	return page, nil
}

// TotalPages is ceil(total/limit), never below 1.
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 1
	}
	return (total + limit - 1) / limit
}

func classify(err error) error {
	var statusErr *api.StatusError
	var appErr *api.ApplicationError
	var decodeErr *api.DecodeError
	switch {
	case errors.As(err, &statusErr):
		if statusErr.Unauthorized() {
			return &FetchError{Kind: KindUnauthorized, Status: statusErr.Status, Message: statusErr.Message, Err: err}
		}
		return &FetchError{Kind: KindServer, Status: statusErr.Status, Message: statusErr.Message, Err: err}
	case errors.As(err, &appErr):
		return &FetchError{Kind: KindApplication, Message: appErr.Message, Err: err}
	case errors.As(err, &decodeErr):
		return &FetchError{Kind: KindServer, Err: err}
	default:
		return &FetchError{Kind: KindNetwork, Err: err}
	}
}

func mapItem(it api.HardwareItem) Item {
	components := append([]string(nil), it.Components...)
	tags := append([]string(nil), it.Tags...)
	return Item{
		ID:             it.ID,
		Title:          strings.TrimSpace(it.Title),
		Description:    strings.TrimSpace(it.Description),
		Category:       strings.TrimSpace(it.Category),
		Components:     components,
		ComponentsText: strings.Join(components, ", "),
		Tags:           tags,
		License:        it.License,
		Manufacturer:   it.Manufacturer,
		SchematicURL:   it.SchematicURL,
		ImageURL:       it.ImageURL,
		VideoURL:       it.VideoURL,
		PublishedAt:    parseTime(it.PublishedAt),
		PublishedRaw:   it.PublishedAt,
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

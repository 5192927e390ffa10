package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Catalog defines the catalog API surface used by rack's services.
// It is implemented by *Client and can be faked in tests.
type Catalog interface {
	CheckAuth(ctx context.Context) (AuthCheck, error)
	FetchHardware(ctx context.Context, query HardwareQuery) (HardwarePage, error)
	ListCategories(ctx context.Context) ([]string, error)
	AddBookmark(ctx context.Context, itemID int) (BookmarkAck, error)
	RemoveBookmark(ctx context.Context, itemID int) (BookmarkAck, error)
	ListBookmarks(ctx context.Context) ([]int, error)
}

// Ensure Client implements Catalog at compile time.
var _ Catalog = (*Client)(nil)

// TokenSource yields the bearer credential for each request.
type TokenSource interface {
	Token() string
}

// Client talks to the hardware catalog HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	tokens    TokenSource
	userAgent string
}

const (
	defaultAPIBase        = "https://dae-mobile-assignment.hkit.cc/api"
	defaultUserAgent      = "rack/0.1"
	defaultRequestTimeout = 10 * time.Second
	maxErrorBody          = 4 << 10
)

// Options configure NewClient.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Tokens     TokenSource
	UserAgent  string
	HTTPClient *http.Client
}

// NewClient builds a Client for the given API base URL.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		baseURL:   base,
		http:      httpClient,
		tokens:    opts.Tokens,
		userAgent: userAgent,
	}, nil
}

// BaseURL returns the resolved API root.
func (c *Client) BaseURL() string {
	if c == nil {
		return ""
	}
	return c.baseURL.String()
}

// CheckAuth probes GET /auth/check with the current credential.
func (c *Client) CheckAuth(ctx context.Context) (AuthCheck, error) {
	if c == nil {
		return AuthCheck{}, ErrNilClient
	}
	var payload AuthCheck
	if err := c.do(ctx, http.MethodGet, "auth/check", nil, &payload); err != nil {
		return AuthCheck{}, err
	}
	return payload, nil
}

// HardwareQuery configures GET /hardware requests. Zero values are omitted.
type HardwareQuery struct {
	Page     int
	Search   string
	Category string
	Sort     string
	Order    string
	IDs      []int
}

// Values encodes the query, sending only fields that are set.
func (q HardwareQuery) Values() url.Values {
	values := url.Values{}
	page := q.Page
	if page < 1 {
		page = 1
	}
	values.Set("page", strconv.Itoa(page))
	if search := strings.TrimSpace(q.Search); search != "" {
		values.Set("search", search)
	}
	if category := strings.TrimSpace(q.Category); category != "" {
		values.Set("category", category)
	}
	if field := strings.TrimSpace(q.Sort); field != "" {
		values.Set("sort", field)
		order := strings.TrimSpace(q.Order)
		if order == "" {
			order = "desc"
		}
		values.Set("order", order)
	}
	if len(q.IDs) > 0 {
		ids := append([]int(nil), q.IDs...)
		sort.Ints(ids)
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = strconv.Itoa(id)
		}
		values.Set("ids", strings.Join(parts, ","))
	}
	return values
}

// FetchHardware retrieves one page of the catalog.
func (c *Client) FetchHardware(ctx context.Context, query HardwareQuery) (HardwarePage, error) {
	if c == nil {
		return HardwarePage{}, ErrNilClient
	}
	var payload HardwarePage
	if err := c.do(ctx, http.MethodGet, "hardware", query.Values(), &payload); err != nil {
		return HardwarePage{}, err
	}
	return payload, nil
}

// ListCategories retrieves the category filter options.
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	var payload categoryList
	if err := c.do(ctx, http.MethodGet, "hardware/categories", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Categories, nil
}

// AddBookmark bookmarks an item for the current user.
func (c *Client) AddBookmark(ctx context.Context, itemID int) (BookmarkAck, error) {
	return c.bookmark(ctx, http.MethodPost, itemID)
}

// RemoveBookmark removes an item from the current user's bookmarks.
func (c *Client) RemoveBookmark(ctx context.Context, itemID int) (BookmarkAck, error) {
	return c.bookmark(ctx, http.MethodDelete, itemID)
}

func (c *Client) bookmark(ctx context.Context, method string, itemID int) (BookmarkAck, error) {
	if c == nil {
		return BookmarkAck{}, ErrNilClient
	}
	if itemID <= 0 {
		return BookmarkAck{}, fmt.Errorf("item id required")
	}
	var payload BookmarkAck
	if err := c.do(ctx, method, "bookmarks/"+strconv.Itoa(itemID), nil, &payload); err != nil {
		return BookmarkAck{}, err
	}
	return payload, nil
}

// ListBookmarks retrieves every bookmarked item id.
func (c *Client) ListBookmarks(ctx context.Context) ([]int, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	var payload bookmarkList
	if err := c.do(ctx, http.MethodGet, "bookmarks", nil, &payload); err != nil {
		return nil, err
	}
	return payload.ItemIDs, nil
}

func (c *Client) do(ctx context.Context, method, rel string, query url.Values, dest any) error {
	reqURL := *c.baseURL
	reqURL.Path = path.Join("/", c.baseURL.Path, rel)
	if len(query) > 0 {
		reqURL.RawQuery = query.Encode()
	}
	endpoint := "/" + rel

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Path: endpoint, Status: resp.StatusCode, Message: errorMessage(body)}
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &DecodeError{Path: endpoint, Err: err}
	}
	if msg := strings.TrimSpace(envelope.Error); msg != "" {
		return &ApplicationError{Path: endpoint, Message: msg}
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(dest); err != nil {
		return &DecodeError{Path: endpoint, Err: err}
	}
	return nil
}

// errorMessage extracts a server-provided error text from a failed response.
func errorMessage(body []byte) string {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil {
		return strings.TrimSpace(envelope.Error)
	}
	return ""
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultAPIBase
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_base %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_base %q: %w", raw, errors.New("missing host"))
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

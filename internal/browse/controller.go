package browse

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/five82/rack/internal/api"
	"github.com/five82/rack/internal/auth"
	"github.com/five82/rack/internal/bookmarks"
	"github.com/five82/rack/internal/catalog"
	"github.com/five82/rack/internal/logging"
	"github.com/five82/rack/internal/state"
)

// AuthChecker verifies the stored credential.
type AuthChecker interface {
	Check(ctx context.Context) auth.Result
}

// PageFetcher loads one catalog page.
type PageFetcher interface {
	Fetch(ctx context.Context, q state.Query) (catalog.Page, error)
}

// BookmarkService mutates and lists the server-side bookmark set.
type BookmarkService interface {
	Toggle(ctx context.Context, itemID int, bookmarked bool) (bookmarks.Outcome, error)
	ListAll(ctx context.Context) (state.Bookmarks, error)
}

// CategorySource lists the category filter options.
type CategorySource interface {
	ListCategories(ctx context.Context) ([]string, error)
}

// CredentialClearer drops the stored credential.
type CredentialClearer interface {
	Clear(ctx context.Context) error
}

// Options wire a Controller. Gate, Fetcher and Bookmarks are required.
type Options struct {
	Gate       AuthChecker
	Fetcher    PageFetcher
	Bookmarks  BookmarkService
	Categories CategorySource
	Tokens     CredentialClearer
	Sink       Sink
	Navigator  Navigator
	Store      *state.Store
	Logger     zerolog.Logger
	// Query seeds the initial view state; the zero value means state.NewQuery().
	Query state.Query
}

// Controller is the single-flight orchestrator of catalog loads. It owns the
// live view state; every field below mu is guarded by it. Sink and Navigator
// calls are always made without holding mu.
type Controller struct {
	gate       AuthChecker
	fetcher    PageFetcher
	bookmarks  BookmarkService
	categories CategorySource
	tokens     CredentialClearer
	sink       Sink
	nav        Navigator
	store      *state.Store
	logger     zerolog.Logger
	initial    state.Query

	mu         sync.Mutex
	query      state.Query
	loading    bool
	generation uint64
	options    []string
}

// New builds a Controller.
func New(opts Options) (*Controller, error) {
	if opts.Gate == nil || opts.Fetcher == nil || opts.Bookmarks == nil {
		return nil, fmt.Errorf("controller requires gate, fetcher and bookmark service")
	}
	query := opts.Query
	if query.Page < 1 {
		defaults := state.NewQuery()
		if query.SortField == "" {
			query.SortField = defaults.SortField
		}
		if query.SortOrder == "" {
			query.SortOrder = defaults.SortOrder
		}
		query.Page = 1
	}
	if query.TotalPages < 1 {
		query.TotalPages = 1
	}
	if query.Bookmarks == nil {
		query.Bookmarks = state.NewBookmarks()
	}

	c := &Controller{
		gate:       opts.Gate,
		fetcher:    opts.Fetcher,
		bookmarks:  opts.Bookmarks,
		categories: opts.Categories,
		tokens:     opts.Tokens,
		sink:       opts.Sink,
		nav:        opts.Navigator,
		store:      opts.Store,
		logger:     logging.Component(opts.Logger, "browse"),
		initial:    query.Clone(),
		query:      query,
	}
	if c.sink == nil {
		c.sink = nopSink{}
	}
	if c.nav == nil {
		c.nav = nopSink{}
	}
	if c.store == nil {
		c.store = &state.Store{}
	}
	return c, nil
}

// Start runs the startup sequence: auth check, then category and bookmark
// population, then the initial load. On rejection nothing is fetched and
// the navigator is invoked. A cancelled check keeps the credential and does
// not navigate.
func (c *Controller) Start(ctx context.Context) auth.Result {
	res := c.gate.Check(ctx)
	if errors.Is(res.Err, context.Canceled) {
		c.logger.Debug().Msg("startup cancelled during auth check")
		return res
	}
	if !res.Authenticated {
		c.HandleRejection(ctx, res)
		return res
	}
	c.logger.Info().Str("user_id", res.UserID).Msg("session verified")

	c.loadCategories(ctx)

	set, err := c.bookmarks.ListAll(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("bookmarks unavailable")
		c.sink.PresentNotice("Could not load your bookmarks", SeverityWarning)
	}
	if set == nil {
		set = state.NewBookmarks()
	}
	c.mu.Lock()
	c.query.Bookmarks = set
	c.mu.Unlock()

	c.trigger(ctx, "initial", false, func(q *state.Query) (int, bool) {
		return q.Page, true
	})
	return res
}

func (c *Controller) loadCategories(ctx context.Context) {
	if c.categories == nil {
		return
	}
	cats, err := c.categories.ListCategories(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("category options unavailable")
		return
	}
	cleaned := make([]string, 0, len(cats))
	seen := make(map[string]bool, len(cats))
	for _, cat := range cats {
		cat = strings.TrimSpace(cat)
		if cat == "" || seen[cat] {
			continue
		}
		seen[cat] = true
		cleaned = append(cleaned, cat)
	}
	sort.Strings(cleaned)
	c.mu.Lock()
	c.options = cleaned
	c.mu.Unlock()
}

// Refresh reloads the current page.
func (c *Controller) Refresh(ctx context.Context) bool {
	return c.trigger(ctx, "refresh", false, func(q *state.Query) (int, bool) {
		return q.Page, true
	})
}

// NextPage replaces the view with the following page.
func (c *Controller) NextPage(ctx context.Context) bool {
	return c.trigger(ctx, "next", false, func(q *state.Query) (int, bool) {
		return q.Page + 1, q.CanGoNext()
	})
}

// PrevPage replaces the view with the preceding page.
func (c *Controller) PrevPage(ctx context.Context) bool {
	return c.trigger(ctx, "prev", false, func(q *state.Query) (int, bool) {
		return q.Page - 1, q.CanGoPrev()
	})
}

// LoadMore appends the following page. It is a no-op on the last page.
func (c *Controller) LoadMore(ctx context.Context) bool {
	return c.trigger(ctx, "append", true, func(q *state.Query) (int, bool) {
		return q.Page + 1, q.Page < q.TotalPages
	})
}

// SetSearch applies new search text and reloads page 1.
func (c *Controller) SetSearch(ctx context.Context, text string) bool {
	return c.trigger(ctx, "search", false, func(q *state.Query) (int, bool) {
		return 1, q.SetSearch(text)
	})
}

// SetCategory applies a category filter ("" clears it) and reloads page 1.
func (c *Controller) SetCategory(ctx context.Context, category string) bool {
	return c.trigger(ctx, "category", false, func(q *state.Query) (int, bool) {
		return 1, q.SetCategory(category)
	})
}

// SetSort applies a sort field and order and reloads page 1.
func (c *Controller) SetSort(ctx context.Context, field string, order state.SortOrder) bool {
	return c.trigger(ctx, "sort", false, func(q *state.Query) (int, bool) {
		return 1, q.SetSort(field, order)
	})
}

// ToggleBookmarksOnly flips the bookmark-only view and reloads page 1.
func (c *Controller) ToggleBookmarksOnly(ctx context.Context) bool {
	return c.trigger(ctx, "bookmarks-only", false, func(q *state.Query) (int, bool) {
		return 1, q.SetBookmarksOnly(!q.BookmarksOnly)
	})
}

// trigger is the single-flight gate. prepare runs under mu once the loading
// flag is known to be clear; it may mutate the query and returns the page to
// fetch, or false to abandon the trigger.
func (c *Controller) trigger(ctx context.Context, name string, appendMode bool, prepare func(q *state.Query) (int, bool)) bool {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		c.logger.Debug().Str("trigger", name).Msg("load dropped, fetch in flight")
		return false
	}
	target, ok := prepare(&c.query)
	if !ok {
		c.mu.Unlock()
		c.logger.Debug().Str("trigger", name).Msg("load not needed")
		return false
	}
	c.loading = true
	c.generation++
	gen := c.generation
	fetchQuery := c.query.Clone()
	fetchQuery.Page = target
	c.mu.Unlock()

	c.logger.Debug().Str("trigger", name).Int("page", target).Bool("append", appendMode).Msg("load started")
	if c.run(ctx, fetchQuery, appendMode, gen) && !appendMode {
		c.trigger(ctx, "clamp", false, func(q *state.Query) (int, bool) {
			return q.Page, true
		})
	}
	return true
}

// run fetches q and applies the result. It reports whether the requested page
// lay past the end of the catalog, in which case the cursor was clamped to the
// last page.
func (c *Controller) run(ctx context.Context, q state.Query, appendMode bool, gen uint64) (clamped bool) {
	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Msg("catalog load panicked")
			c.clearView("Could not load items, please try again later", SeverityError)
		}
	}()

	page, err := c.fetcher.Fetch(ctx, q)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug().Uint64("generation", gen).Msg("stale catalog result discarded")
		return
	}
	if err != nil {
		c.mu.Unlock()
		c.handleFetchError(ctx, err)
		return
	}
	// The catalog may have shrunk since the cursor was chosen.
	c.query.TotalPages = page.TotalPages
	c.query.Page = min(q.Page, page.TotalPages)
	clamped = q.Page > page.TotalPages
	items := page.Items
	if c.query.BookmarksOnly {
		items = onlyBookmarked(items, c.query.Bookmarks)
	}
	canPrev, canNext := c.query.CanGoPrev(), c.query.CanGoNext()
	c.mu.Unlock()

	c.store.Update(nil)
	if clamped && !appendMode {
		c.logger.Debug().Int("requested", q.Page).Int("total_pages", page.TotalPages).Msg("page past end, reloading last page")
		return clamped
	}
	c.sink.Render(items, appendMode)
	c.sink.SetPaginationState(canPrev, canNext)
	return clamped
}

func (c *Controller) handleFetchError(ctx context.Context, err error) {
	if errors.Is(err, catalog.ErrNoBookmarks) {
		c.clearView("No bookmarks yet", SeverityInfo)
		return
	}
	if errors.Is(err, context.Canceled) {
		c.logger.Debug().Msg("catalog load cancelled")
		return
	}

	c.store.Update(err)
	c.logger.Warn().Err(err).Str("kind", string(catalog.KindOf(err))).Msg("catalog load failed")

	var fe *catalog.FetchError
	if errors.As(err, &fe) && fe.Kind == catalog.KindUnauthorized {
		c.clearView("", SeverityError)
		c.HandleRejection(ctx, auth.Result{Reason: auth.ReasonInvalidCredential, Message: fe.Notice(), Err: err})
		return
	}
	msg := "Could not load items, please try again later"
	if fe != nil {
		msg = fe.Notice()
	}
	c.clearView(msg, SeverityError)
}

// clearView empties the catalog view and disables paging. An empty notice
// is not presented.
func (c *Controller) clearView(notice string, severity Severity) {
	c.sink.Render(nil, false)
	c.sink.SetPaginationState(false, false)
	if notice != "" {
		c.sink.PresentNotice(notice, severity)
	}
}

// ToggleBookmark adds or removes itemID depending on local membership. Only
// a confirmed transition changes the bookmark set; in bookmark-only view it
// also reloads page 1.
func (c *Controller) ToggleBookmark(ctx context.Context, itemID int) (bookmarks.Outcome, error) {
	c.mu.Lock()
	bookmarked := c.query.Bookmarks.Contains(itemID)
	c.mu.Unlock()

	outcome, err := c.bookmarks.Toggle(ctx, itemID, bookmarked)
	if err != nil {
		c.logger.Warn().Err(err).Int("item", itemID).Msg("bookmark toggle failed")
		if api.IsUnauthorized(err) {
			c.HandleRejection(ctx, auth.Result{
				Reason:  auth.ReasonInvalidCredential,
				Message: "Your session has expired, please sign in again",
				Err:     err,
			})
			return "", err
		}
		c.sink.PresentNotice(bookmarkFailure(bookmarked), SeverityError)
		return "", err
	}

	if !outcome.Changed() {
		c.logger.Debug().Int("item", itemID).Str("outcome", string(outcome)).Msg("bookmark already in requested state")
		c.sink.PresentNotice(outcomeNotice(outcome, itemID), SeverityInfo)
		return outcome, nil
	}

	c.mu.Lock()
	switch outcome {
	case bookmarks.Added:
		c.query.Bookmarks.Add(itemID)
	case bookmarks.Removed:
		c.query.Bookmarks.Remove(itemID)
	}
	reload := c.query.BookmarksOnly
	c.mu.Unlock()

	c.sink.PresentNotice(outcomeNotice(outcome, itemID), SeverityInfo)
	if reload {
		c.trigger(ctx, "bookmark-reload", false, func(q *state.Query) (int, bool) {
			q.Page = 1
			return 1, true
		})
	}
	return outcome, nil
}

func bookmarkFailure(wasBookmarked bool) string {
	if wasBookmarked {
		return "Could not remove bookmark, please try again"
	}
	return "Could not add bookmark, please try again"
}

func outcomeNotice(o bookmarks.Outcome, itemID int) string {
	switch o {
	case bookmarks.Added:
		return fmt.Sprintf("Bookmarked #%d", itemID)
	case bookmarks.Removed:
		return fmt.Sprintf("Removed bookmark #%d", itemID)
	case bookmarks.AlreadyPresent:
		return fmt.Sprintf("#%d is already bookmarked", itemID)
	default:
		return fmt.Sprintf("#%d is not bookmarked", itemID)
	}
}

// HandleRejection clears the credential, shows the rejection notice and
// routes to sign-in. Any in-flight result is discarded.
func (c *Controller) HandleRejection(ctx context.Context, res auth.Result) {
	c.logger.Warn().Str("reason", string(res.Reason)).Msg("session rejected")
	if c.tokens != nil {
		if err := c.tokens.Clear(context.WithoutCancel(ctx)); err != nil {
			c.logger.Error().Err(err).Msg("clear credential")
		}
	}
	c.mu.Lock()
	c.generation++
	c.mu.Unlock()

	msg := res.Message
	if msg == "" {
		msg = "Please sign in again"
	}
	c.sink.PresentNotice(msg, SeverityError)
	c.nav.GoToLogin()
}

// Logout drops the credential, resets the view state and routes to sign-in.
func (c *Controller) Logout(ctx context.Context) error {
	var clearErr error
	if c.tokens != nil {
		clearErr = c.tokens.Clear(ctx)
	}
	c.mu.Lock()
	c.generation++
	c.query = c.initial.Clone()
	c.options = nil
	c.mu.Unlock()
	c.store.Reset()

	c.logger.Info().Msg("signed out")
	c.sink.Render(nil, false)
	c.sink.SetPaginationState(false, false)
	c.nav.GoToLogin()
	return clearErr
}

// Snapshot returns a deep copy of the current view state.
func (c *Controller) Snapshot() state.Snapshot {
	c.mu.Lock()
	base := state.Snapshot{
		Query:      c.query.Clone(),
		Loading:    c.loading,
		Categories: append([]string(nil), c.options...),
	}
	c.mu.Unlock()
	return c.store.Snapshot(base)
}

func onlyBookmarked(items []catalog.Item, set state.Bookmarks) []catalog.Item {
	out := make([]catalog.Item, 0, len(items))
	for _, it := range items {
		if set.Contains(it.ID) {
			out = append(out, it)
		}
	}
	return out
}

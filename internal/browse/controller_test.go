package browse

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/rack/internal/api"
	"github.com/five82/rack/internal/auth"
	"github.com/five82/rack/internal/bookmarks"
	"github.com/five82/rack/internal/catalog"
	"github.com/five82/rack/internal/credstore"
	"github.com/five82/rack/internal/retry"
	"github.com/five82/rack/internal/state"
)

// --- fakes ---

type renderCall struct {
	ids    []int
	append bool
}

type noticeCall struct {
	message  string
	severity Severity
}

type recordingSink struct {
	mu         sync.Mutex
	renders    []renderCall
	pagination [][2]bool
	notices    []noticeCall
	logins     int
}

func (s *recordingSink) Render(items []catalog.Item, appendMode bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	s.renders = append(s.renders, renderCall{ids: ids, append: appendMode})
}

func (s *recordingSink) SetPaginationState(prev, next bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pagination = append(s.pagination, [2]bool{prev, next})
}

func (s *recordingSink) PresentNotice(msg string, sev Severity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, noticeCall{message: msg, severity: sev})
}

func (s *recordingSink) GoToLogin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logins++
}

func (s *recordingSink) lastRender() renderCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renders[len(s.renders)-1]
}

func (s *recordingSink) lastNotice() noticeCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notices[len(s.notices)-1]
}

func (s *recordingSink) lastPagination() [2]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pagination[len(s.pagination)-1]
}

type scriptedSource struct {
	mu      sync.Mutex
	queries []api.HardwareQuery
	respond func(q api.HardwareQuery) (api.HardwarePage, error)
	// entered and release make the next request block until released.
	entered chan struct{}
	release chan struct{}
}

func (s *scriptedSource) FetchHardware(_ context.Context, q api.HardwareQuery) (api.HardwarePage, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	entered, release := s.entered, s.release
	s.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
		<-release
	}
	return s.respond(q)
}

func (s *scriptedSource) calls() []api.HardwareQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.HardwareQuery(nil), s.queries...)
}

func (s *scriptedSource) block() (entered, release chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entered = make(chan struct{})
	s.release = make(chan struct{})
	return s.entered, s.release
}

func (s *scriptedSource) unblock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entered, s.release = nil, nil
}

// pagesOf serves totalItems items, limit per page, ids counting from 1.
func pagesOf(totalItems, limit int) func(api.HardwareQuery) (api.HardwarePage, error) {
	return func(q api.HardwareQuery) (api.HardwarePage, error) {
		var items []api.HardwareItem
		for id := (q.Page-1)*limit + 1; id <= q.Page*limit && id <= totalItems; id++ {
			items = append(items, api.HardwareItem{ID: id, Title: "item"})
		}
		return api.HardwarePage{Items: items, Pagination: &api.Pagination{Page: q.Page, Limit: limit, Total: totalItems}}, nil
	}
}

type fakeGate struct{ result auth.Result }

func (g fakeGate) Check(context.Context) auth.Result { return g.result }

type fakeBookmarks struct {
	mu        sync.Mutex
	list      state.Bookmarks
	listErr   error
	outcome   bookmarks.Outcome
	toggleErr error
	toggled   []int
}

func (f *fakeBookmarks) Toggle(_ context.Context, id int, bookmarked bool) (bookmarks.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggled = append(f.toggled, id)
	if f.toggleErr != nil {
		return "", f.toggleErr
	}
	if f.outcome != "" {
		return f.outcome, nil
	}
	if bookmarked {
		return bookmarks.Removed, nil
	}
	return bookmarks.Added, nil
}

func (f *fakeBookmarks) ListAll(context.Context) (state.Bookmarks, error) {
	if f.list == nil {
		return state.NewBookmarks(), f.listErr
	}
	return f.list.Clone(), f.listErr
}

type fakeCategories struct {
	cats []string
	err  error
}

func (f fakeCategories) ListCategories(context.Context) ([]string, error) { return f.cats, f.err }

type fakeTokens struct {
	mu      sync.Mutex
	cleared int
}

func (f *fakeTokens) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	return nil
}

type harness struct {
	ctrl      *Controller
	sink      *recordingSink
	source    *scriptedSource
	bookmarks *fakeBookmarks
	tokens    *fakeTokens
}

func newHarness(t *testing.T, respond func(api.HardwareQuery) (api.HardwarePage, error)) *harness {
	t.Helper()
	h := &harness{
		sink:      &recordingSink{},
		source:    &scriptedSource{respond: respond},
		bookmarks: &fakeBookmarks{},
		tokens:    &fakeTokens{},
	}
	fetcher := catalog.NewFetcher(h.source, nil, retry.Policy{Attempts: 3, Delay: time.Millisecond}, zerolog.Nop())
	ctrl, err := New(Options{
		Gate:       fakeGate{result: auth.Result{Authenticated: true, UserID: "1"}},
		Fetcher:    fetcher,
		Bookmarks:  h.bookmarks,
		Categories: fakeCategories{cats: []string{"Sensors", " Boards ", "Sensors", ""}},
		Tokens:     h.tokens,
		Sink:       h.sink,
		Navigator:  h.sink,
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)
	h.ctrl = ctrl
	return h
}

// --- tests ---

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

func TestStart_AuthenticatedPopulatesThenLoads(t *testing.T) {
	h := newHarness(t, pagesOf(25, 10))
	h.bookmarks.list = state.NewBookmarks(3, 7)

	res := h.ctrl.Start(context.Background())
	require.True(t, res.Authenticated)

	snap := h.ctrl.Snapshot()
	assert.Equal(t, []string{"Boards", "Sensors"}, snap.Categories)
	assert.Equal(t, []int{3, 7}, snap.Query.Bookmarks.Sorted())
	assert.Equal(t, 1, snap.Query.Page)
	assert.Equal(t, 3, snap.Query.TotalPages)
	assert.False(t, snap.Loading)

	calls := h.source.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 1, calls[0].Page)
	assert.Equal(t, "published_at", calls[0].Sort)
	assert.Equal(t, "desc", calls[0].Order)

	render := h.sink.lastRender()
	assert.False(t, render.append)
	assert.Len(t, render.ids, 10)
	assert.Equal(t, [2]bool{false, true}, h.sink.lastPagination())
}

func TestStart_RejectedNeverFetches(t *testing.T) {
	h := newHarness(t, pagesOf(5, 10))
	h.ctrl.gate = fakeGate{result: auth.Result{
		Reason:  auth.ReasonInvalidCredential,
		Message: "Your session has expired, please sign in again",
	}}

	res := h.ctrl.Start(context.Background())
	assert.False(t, res.Authenticated)
	assert.Empty(t, h.source.calls())
	assert.Equal(t, 1, h.sink.logins)
	assert.Equal(t, 1, h.tokens.cleared)
	assert.Equal(t, "Your session has expired, please sign in again", h.sink.lastNotice().message)
}

func TestStart_BookmarkListFailureIsNonFatal(t *testing.T) {
	h := newHarness(t, pagesOf(5, 10))
	h.bookmarks.listErr = errors.New("down")
	h.ctrl.categories = fakeCategories{err: errors.New("down")}

	h.ctrl.Start(context.Background())
	assert.Len(t, h.source.calls(), 1)
	assert.Empty(t, h.ctrl.Snapshot().Categories)
	assert.Equal(t, SeverityWarning, h.sink.notices[0].severity)
}

func TestTrigger_SecondTriggerWhileLoadingIsDropped(t *testing.T) {
	h := newHarness(t, pagesOf(30, 10))
	entered, release := h.source.block()

	done := make(chan bool)
	go func() { done <- h.ctrl.Refresh(context.Background()) }()
	<-entered

	assert.True(t, h.ctrl.Snapshot().Loading)
	assert.False(t, h.ctrl.Refresh(context.Background()))
	assert.False(t, h.ctrl.SetSearch(context.Background(), "pico"))
	assert.False(t, h.ctrl.LoadMore(context.Background()))

	h.source.unblock()
	close(release)
	assert.True(t, <-done)

	assert.Len(t, h.source.calls(), 1)
	snap := h.ctrl.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, "", snap.Query.Search, "dropped trigger must not mutate state")
}

func TestLoadMore_StopsAtLastPage(t *testing.T) {
	h := newHarness(t, pagesOf(30, 10))
	require.True(t, h.ctrl.Refresh(context.Background()))

	assert.True(t, h.ctrl.LoadMore(context.Background()))
	assert.True(t, h.ctrl.LoadMore(context.Background()))
	assert.False(t, h.ctrl.LoadMore(context.Background()))

	snap := h.ctrl.Snapshot()
	assert.Equal(t, 3, snap.Query.Page)
	assert.Equal(t, 3, snap.Query.TotalPages)

	calls := h.source.calls()
	require.Len(t, calls, 3)
	assert.Equal(t, 2, calls[1].Page)
	assert.Equal(t, 3, calls[2].Page)
	render := h.sink.lastRender()
	assert.True(t, render.append)
	assert.Equal(t, 21, render.ids[0])
	assert.Equal(t, [2]bool{true, false}, h.sink.lastPagination())
}

func TestLoadMore_FailureLeavesPageUnchanged(t *testing.T) {
	fail := false
	base := pagesOf(30, 10)
	h := newHarness(t, func(q api.HardwareQuery) (api.HardwarePage, error) {
		if fail {
			return api.HardwarePage{}, &api.StatusError{Status: 500}
		}
		return base(q)
	})
	require.True(t, h.ctrl.Refresh(context.Background()))

	fail = true
	assert.True(t, h.ctrl.LoadMore(context.Background()))
	snap := h.ctrl.Snapshot()
	assert.Equal(t, 1, snap.Query.Page)
	assert.Equal(t, 3, snap.Query.TotalPages, "totalPages must not change on error")
	assert.Equal(t, SeverityError, h.sink.lastNotice().severity)
	assert.Empty(t, h.sink.lastRender().ids)
	assert.Equal(t, 1, snap.ConsecutiveFailures)

	fail = false
	assert.True(t, h.ctrl.LoadMore(context.Background()))
	calls := h.source.calls()
	assert.Equal(t, 2, calls[len(calls)-1].Page, "retry must request the same page")
	assert.Equal(t, 2, h.ctrl.Snapshot().Query.Page)
}

func TestPaging_PrevAndNext(t *testing.T) {
	h := newHarness(t, pagesOf(30, 10))
	require.True(t, h.ctrl.Refresh(context.Background()))

	assert.False(t, h.ctrl.PrevPage(context.Background()))
	assert.True(t, h.ctrl.NextPage(context.Background()))
	assert.True(t, h.ctrl.NextPage(context.Background()))
	assert.False(t, h.ctrl.NextPage(context.Background()))
	assert.Equal(t, 3, h.ctrl.Snapshot().Query.Page)
	assert.False(t, h.sink.lastRender().append)

	assert.True(t, h.ctrl.PrevPage(context.Background()))
	assert.Equal(t, 2, h.ctrl.Snapshot().Query.Page)
	assert.Equal(t, [2]bool{true, true}, h.sink.lastPagination())
}

func TestFilters_ResetPageBeforeRequest(t *testing.T) {
	h := newHarness(t, pagesOf(50, 10))
	require.True(t, h.ctrl.Refresh(context.Background()))
	require.True(t, h.ctrl.NextPage(context.Background()))
	require.True(t, h.ctrl.NextPage(context.Background()))

	ctx := context.Background()
	steps := []func() bool{
		func() bool { return h.ctrl.SetSearch(ctx, "esp") },
		func() bool { return h.ctrl.SetCategory(ctx, "Boards") },
		func() bool { return h.ctrl.SetSort(ctx, "title", state.OrderAsc) },
	}
	for i, step := range steps {
		require.True(t, h.ctrl.NextPage(ctx))
		require.True(t, step(), "step %d", i)
		calls := h.source.calls()
		assert.Equal(t, 1, calls[len(calls)-1].Page, "step %d", i)
		assert.Equal(t, 1, h.ctrl.Snapshot().Query.Page)
	}

	last := h.source.calls()[len(h.source.calls())-1]
	assert.Equal(t, "esp", last.Search)
	assert.Equal(t, "Boards", last.Category)
	assert.Equal(t, "title", last.Sort)
	assert.Equal(t, "asc", last.Order)

	assert.False(t, h.ctrl.SetSearch(ctx, "esp"), "unchanged search must not reload")
}

func TestBookmarksOnly_EmptySetSkipsFetch(t *testing.T) {
	h := newHarness(t, pagesOf(30, 10))
	require.True(t, h.ctrl.Refresh(context.Background()))
	before := len(h.source.calls())

	assert.True(t, h.ctrl.ToggleBookmarksOnly(context.Background()))
	assert.Len(t, h.source.calls(), before)
	assert.Equal(t, noticeCall{message: "No bookmarks yet", severity: SeverityInfo}, h.sink.lastNotice())
	assert.Empty(t, h.sink.lastRender().ids)

	snap := h.ctrl.Snapshot()
	assert.True(t, snap.Query.BookmarksOnly)
	assert.Equal(t, 3, snap.Query.TotalPages)
	assert.False(t, snap.Loading)
}

func TestBookmarksOnly_ItemsAreSubsetOfBookmarks(t *testing.T) {
	// The server ignores the ids filter and returns everything.
	h := newHarness(t, pagesOf(5, 10))
	h.bookmarks.list = state.NewBookmarks(2, 4)
	h.ctrl.Start(context.Background())

	require.True(t, h.ctrl.ToggleBookmarksOnly(context.Background()))
	calls := h.source.calls()
	assert.Equal(t, []int{2, 4}, calls[len(calls)-1].IDs)
	assert.Equal(t, []int{2, 4}, h.sink.lastRender().ids)
}

func TestApplicationError_ClearsViewWithoutRetry(t *testing.T) {
	h := newHarness(t, func(api.HardwareQuery) (api.HardwarePage, error) {
		return api.HardwarePage{}, &api.ApplicationError{Message: "rate limited"}
	})

	assert.True(t, h.ctrl.Refresh(context.Background()))
	assert.Len(t, h.source.calls(), 1)
	assert.Equal(t, noticeCall{message: "rate limited", severity: SeverityError}, h.sink.lastNotice())
	assert.Equal(t, renderCall{ids: []int{}, append: false}, h.sink.lastRender())
	assert.Equal(t, [2]bool{false, false}, h.sink.lastPagination())
}

func TestUnauthorizedFetch_RoutesToLogin(t *testing.T) {
	h := newHarness(t, func(api.HardwareQuery) (api.HardwarePage, error) {
		return api.HardwarePage{}, &api.StatusError{Status: 401}
	})

	h.ctrl.Refresh(context.Background())
	assert.Len(t, h.source.calls(), 1)
	assert.Equal(t, 1, h.sink.logins)
	assert.Equal(t, 1, h.tokens.cleared)
}

func TestToggleBookmark_AlreadyPresentDoesNotMutate(t *testing.T) {
	h := newHarness(t, pagesOf(5, 10))
	h.bookmarks.list = state.NewBookmarks(1)
	h.ctrl.Start(context.Background())
	require.True(t, h.ctrl.ToggleBookmarksOnly(context.Background()))
	before := len(h.source.calls())

	h.bookmarks.outcome = bookmarks.AlreadyAbsent
	got, err := h.ctrl.ToggleBookmark(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, bookmarks.AlreadyAbsent, got)
	assert.Equal(t, []int{1}, h.ctrl.Snapshot().Query.Bookmarks.Sorted())
	assert.Len(t, h.source.calls(), before, "no reload without a transition")

	h.bookmarks.outcome = bookmarks.AlreadyPresent
	_, err = h.ctrl.ToggleBookmark(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, h.ctrl.Snapshot().Query.Bookmarks.Contains(3))
	assert.Len(t, h.source.calls(), before)
}

func TestToggleBookmark_TransitionsUpdateSetAndReloadInBookmarkView(t *testing.T) {
	h := newHarness(t, pagesOf(5, 10))
	h.ctrl.Start(context.Background())
	before := len(h.source.calls())

	got, err := h.ctrl.ToggleBookmark(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, bookmarks.Added, got)
	assert.True(t, h.ctrl.Snapshot().Query.Bookmarks.Contains(2))
	assert.Len(t, h.source.calls(), before, "normal view does not reload")

	require.True(t, h.ctrl.ToggleBookmarksOnly(context.Background()))
	assert.Equal(t, []int{2}, h.sink.lastRender().ids)
	before = len(h.source.calls())

	got, err = h.ctrl.ToggleBookmark(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, bookmarks.Removed, got)
	assert.False(t, h.ctrl.Snapshot().Query.Bookmarks.Contains(2))
	assert.Len(t, h.source.calls(), before, "empty bookmark view short-circuits")
	assert.Equal(t, "No bookmarks yet", h.sink.lastNotice().message)
}

func TestToggleBookmark_ErrorLeavesSetUnchanged(t *testing.T) {
	h := newHarness(t, pagesOf(5, 10))
	h.bookmarks.list = state.NewBookmarks(4)
	h.ctrl.Start(context.Background())

	h.bookmarks.toggleErr = &api.StatusError{Status: 500}
	_, err := h.ctrl.ToggleBookmark(context.Background(), 4)
	require.Error(t, err)
	assert.True(t, h.ctrl.Snapshot().Query.Bookmarks.Contains(4))
	assert.Equal(t, SeverityError, h.sink.lastNotice().severity)
	assert.Equal(t, 0, h.sink.logins)

	h.bookmarks.toggleErr = &api.StatusError{Status: 403}
	_, err = h.ctrl.ToggleBookmark(context.Background(), 4)
	require.Error(t, err)
	assert.Equal(t, 1, h.sink.logins)
}

func TestLogout_DiscardsInFlightResult(t *testing.T) {
	h := newHarness(t, pagesOf(30, 10))
	entered, release := h.source.block()

	done := make(chan bool)
	go func() { done <- h.ctrl.Refresh(context.Background()) }()
	<-entered

	require.NoError(t, h.ctrl.Logout(context.Background()))
	rendersAfterLogout := len(h.sink.renders)

	h.source.unblock()
	close(release)
	<-done

	assert.Len(t, h.sink.renders, rendersAfterLogout, "stale page must not render")
	assert.Equal(t, 1, h.tokens.cleared)
	assert.Equal(t, 1, h.sink.logins)
	snap := h.ctrl.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, 1, snap.Query.TotalPages)
}

// waitingChecker answers only once ctx is done.
type waitingChecker struct{}

func (waitingChecker) CheckAuth(ctx context.Context) (api.AuthCheck, error) {
	<-ctx.Done()
	return api.AuthCheck{}, ctx.Err()
}

func TestStart_CancelledCheckKeepsCredential(t *testing.T) {
	h := newHarness(t, pagesOf(5, 10))
	tokens := auth.NewTokenStore(nil)
	require.NoError(t, tokens.Set(context.Background(), credstore.Credential{Token: "tok", Username: "ada"}))
	h.ctrl.gate = auth.NewGate(tokens, waitingChecker{}, retry.Policy{Attempts: 3, Delay: time.Millisecond}, zerolog.Nop())
	h.ctrl.tokens = tokens

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := h.ctrl.Start(ctx)

	assert.False(t, res.Authenticated)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.True(t, tokens.Present(), "a cancelled check must not drop the credential")
	assert.Equal(t, "tok", tokens.Token())
	assert.Zero(t, h.sink.logins)
	assert.Empty(t, h.sink.notices)
	assert.Empty(t, h.source.calls())
}

func TestRefresh_ClampsPageWhenCatalogShrinks(t *testing.T) {
	var mu sync.Mutex
	total := 30
	h := newHarness(t, func(q api.HardwareQuery) (api.HardwarePage, error) {
		mu.Lock()
		n := total
		mu.Unlock()
		return pagesOf(n, 10)(q)
	})
	ctx := context.Background()

	require.True(t, h.ctrl.Refresh(ctx))
	require.True(t, h.ctrl.NextPage(ctx))
	require.True(t, h.ctrl.NextPage(ctx))
	require.Equal(t, 3, h.ctrl.Snapshot().Query.Page)

	mu.Lock()
	total = 10
	mu.Unlock()
	before := len(h.source.calls())
	require.True(t, h.ctrl.Refresh(ctx))

	snap := h.ctrl.Snapshot()
	assert.Equal(t, 1, snap.Query.TotalPages)
	assert.Equal(t, 1, snap.Query.Page)
	assert.LessOrEqual(t, snap.Query.Page, snap.Query.TotalPages)
	assert.False(t, snap.Loading)

	calls := h.source.calls()[before:]
	require.Len(t, calls, 2, "the past-the-end page is followed by a reload of the last page")
	assert.Equal(t, 3, calls[0].Page)
	assert.Equal(t, 1, calls[1].Page)

	render := h.sink.lastRender()
	assert.False(t, render.append)
	assert.Len(t, render.ids, 10)
	assert.Equal(t, [2]bool{false, false}, h.sink.lastPagination())
}

type panickingFetcher struct {
	mu    sync.Mutex
	calls int
}

func (f *panickingFetcher) Fetch(context.Context, state.Query) (catalog.Page, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	panic("decoder exploded")
}

func TestRun_PanicStillClearsLoading(t *testing.T) {
	sink := &recordingSink{}
	fetcher := &panickingFetcher{}
	ctrl, err := New(Options{
		Gate:      fakeGate{result: auth.Result{Authenticated: true, UserID: "1"}},
		Fetcher:   fetcher,
		Bookmarks: &fakeBookmarks{},
		Sink:      sink,
		Navigator: sink,
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)

	require.True(t, ctrl.Refresh(context.Background()))
	assert.False(t, ctrl.Snapshot().Loading)
	assert.Empty(t, sink.lastRender().ids)
	assert.Equal(t, [2]bool{false, false}, sink.lastPagination())
	assert.Equal(t, SeverityError, sink.lastNotice().severity)

	// The guard was released, so the next trigger is accepted.
	require.True(t, ctrl.Refresh(context.Background()))
	assert.Equal(t, 2, fetcher.calls)
}

func TestHandleRejection_DiscardsInFlightResult(t *testing.T) {
	h := newHarness(t, pagesOf(30, 10))
	entered, release := h.source.block()

	done := make(chan bool)
	go func() { done <- h.ctrl.Refresh(context.Background()) }()
	<-entered

	h.ctrl.HandleRejection(context.Background(), auth.Result{
		Reason:  auth.ReasonInvalidCredential,
		Message: "Your session has expired, please sign in again",
	})
	h.sink.mu.Lock()
	rendersAfterRejection := len(h.sink.renders)
	h.sink.mu.Unlock()

	h.source.unblock()
	close(release)
	require.True(t, <-done)

	assert.Len(t, h.sink.renders, rendersAfterRejection, "stale page must not render")
	assert.Equal(t, 1, h.tokens.cleared)
	assert.Equal(t, 1, h.sink.logins)
	snap := h.ctrl.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, 1, snap.Query.TotalPages, "the stale page count is not applied")
}

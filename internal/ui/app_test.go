package ui

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/rack/internal/auth"
	"github.com/five82/rack/internal/bookmarks"
	"github.com/five82/rack/internal/browse"
	"github.com/five82/rack/internal/catalog"
	"github.com/five82/rack/internal/prefs"
	"github.com/five82/rack/internal/state"
)

type fakeController struct {
	mu       sync.Mutex
	snapshot state.Snapshot
	calls    []string
	search   string
	category string
	sort     string
	order    state.SortOrder
	toggled  []int
}

func newFakeController() *fakeController {
	return &fakeController{snapshot: state.Snapshot{Query: state.NewQuery()}}
}

func (f *fakeController) record(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return true
}

func (f *fakeController) Start(context.Context) auth.Result {
	f.record("start")
	return auth.Result{Authenticated: true, UserID: "7"}
}
func (f *fakeController) Refresh(context.Context) bool  { return f.record("refresh") }
func (f *fakeController) NextPage(context.Context) bool { return f.record("next") }
func (f *fakeController) PrevPage(context.Context) bool { return f.record("prev") }
func (f *fakeController) LoadMore(context.Context) bool { return f.record("append") }
func (f *fakeController) SetSearch(_ context.Context, text string) bool {
	f.search = text
	return f.record("search")
}
func (f *fakeController) SetCategory(_ context.Context, c string) bool {
	f.category = c
	return f.record("category")
}
func (f *fakeController) SetSort(_ context.Context, field string, order state.SortOrder) bool {
	f.sort, f.order = field, order
	return f.record("sort")
}
func (f *fakeController) ToggleBookmarksOnly(context.Context) bool {
	return f.record("bookmarks-only")
}
func (f *fakeController) ToggleBookmark(_ context.Context, id int) (bookmarks.Outcome, error) {
	f.toggled = append(f.toggled, id)
	f.record("bookmark")
	return bookmarks.Added, nil
}
func (f *fakeController) Logout(context.Context) error {
	f.record("logout")
	return nil
}
func (f *fakeController) Snapshot() state.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func items(ids ...int) []catalog.Item {
	out := make([]catalog.Item, len(ids))
	for i, id := range ids {
		out[i] = catalog.Item{ID: id, Title: "Board", Category: "Boards"}
	}
	return out
}

// update applies msg and returns the resulting Model.
func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

// started returns a sized model whose startup sequence has completed.
func started(t *testing.T, ctrl Controller, opts Options) Model {
	t.Helper()
	opts.Controller = ctrl
	m := New(opts)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(t, m, startedMsg{result: auth.Result{Authenticated: true}})
	return m
}

func TestModel_StartupCountsAsLoading(t *testing.T) {
	m := New(Options{Controller: newFakeController()})
	assert.True(t, m.loading())

	m, _ = update(t, m, startedMsg{})
	assert.False(t, m.loading())
}

func TestModel_RenderReplacesOrAppends(t *testing.T) {
	m := started(t, newFakeController(), Options{})

	m, _ = update(t, m, renderMsg{items: items(1, 2, 3)})
	m.selected = 2
	m, _ = update(t, m, renderMsg{items: items(4, 5), append: true})
	assert.Len(t, m.items, 5)
	assert.Equal(t, 2, m.selected, "append keeps the selection")

	m, _ = update(t, m, renderMsg{items: items(9)})
	assert.Len(t, m.items, 1)
	assert.Equal(t, 0, m.selected)

	m, _ = update(t, m, renderMsg{})
	assert.Empty(t, m.items)
	assert.Equal(t, 0, m.selected)
}

func TestModel_ScrollPastEndLoadsMore(t *testing.T) {
	ctrl := newFakeController()
	m := started(t, ctrl, Options{})
	m, _ = update(t, m, renderMsg{items: items(1, 2)})
	m, _ = update(t, m, paginationMsg{canNext: true})

	m, cmd := update(t, m, keyRunes("j"))
	assert.Nil(t, cmd)
	assert.Equal(t, 1, m.selected)

	m, cmd = update(t, m, keyRunes("j"))
	require.NotNil(t, cmd)
	assert.True(t, m.loading())
	done := cmd()
	assert.Equal(t, actionDoneMsg{name: "append", accepted: true}, done)
	assert.Equal(t, []string{"append"}, ctrl.calls)

	// While the load is outstanding further scrolling is ignored.
	_, cmd = update(t, m, keyRunes("j"))
	assert.Nil(t, cmd)

	m, _ = update(t, m, done)
	assert.False(t, m.loading())
}

func TestModel_NoLoadMoreOnLastPage(t *testing.T) {
	m := started(t, newFakeController(), Options{})
	m, _ = update(t, m, renderMsg{items: items(1)})
	m, _ = update(t, m, paginationMsg{canPrev: true, canNext: false})

	_, cmd := update(t, m, keyRunes("j"))
	assert.Nil(t, cmd)
}

func TestModel_SearchInputAppliesOnEnter(t *testing.T) {
	ctrl := newFakeController()
	m := started(t, ctrl, Options{})

	m, _ = update(t, m, keyRunes("/"))
	require.Equal(t, inputSearch, m.mode)

	m, _ = update(t, m, keyRunes("esp32"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, inputNone, m.mode)

	cmd()
	assert.Equal(t, "esp32", ctrl.search)
}

func TestModel_EscapeCancelsInput(t *testing.T) {
	ctrl := newFakeController()
	m := started(t, ctrl, Options{})

	m, _ = update(t, m, keyRunes("c"))
	require.Equal(t, inputCategory, m.mode)
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.Equal(t, inputNone, m.mode)
	assert.Empty(t, ctrl.calls)
}

func TestModel_SortKeys(t *testing.T) {
	ctrl := newFakeController()
	m := started(t, ctrl, Options{})

	_, cmd := update(t, m, keyRunes("s"))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, state.NextSortField(state.DefaultSortField), ctrl.sort)
	assert.Equal(t, state.OrderDesc, ctrl.order)

	_, cmd = update(t, m, keyRunes("o"))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, state.DefaultSortField, ctrl.sort)
	assert.Equal(t, state.OrderAsc, ctrl.order)
}

func TestModel_AcceptedSortIsPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	ctrl := newFakeController()
	m := started(t, ctrl, Options{PrefsPath: path, Prefs: prefs.Default()})

	ctrl.snapshot.Query.SortField = "title"
	ctrl.snapshot.Query.SortOrder = state.OrderAsc
	m, _ = update(t, m, actionDoneMsg{name: "sort", accepted: true})

	saved := prefs.Load(path)
	assert.Equal(t, "title", saved.Sort)
	assert.Equal(t, "asc", saved.Order)
	assert.Equal(t, "title", m.snapshot.Query.SortField)
}

func TestModel_CycleThemeSavesPrefs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	m := started(t, newFakeController(), Options{PrefsPath: path, Prefs: prefs.Default()})
	require.Equal(t, "Nightfox", m.theme.Name)

	m, _ = update(t, m, keyRunes("T"))
	assert.Equal(t, "Kanagawa", m.theme.Name)
	assert.Equal(t, "Kanagawa", prefs.Load(path).Theme)
}

func TestModel_ToggleBookmarkUsesSelection(t *testing.T) {
	ctrl := newFakeController()
	m := started(t, ctrl, Options{})

	_, cmd := update(t, m, keyRunes("b"))
	assert.Nil(t, cmd, "nothing to bookmark")

	m, _ = update(t, m, renderMsg{items: items(10, 11)})
	m, _ = update(t, m, keyRunes("j"))
	_, cmd = update(t, m, keyRunes("b"))
	require.NotNil(t, cmd)
	assert.Equal(t, bookmarkDoneMsg{outcome: bookmarks.Added}, cmd())
	assert.Equal(t, []int{11}, ctrl.toggled)
}

func TestModel_NoticeAndLoginRequired(t *testing.T) {
	m := started(t, newFakeController(), Options{})
	m, _ = update(t, m, renderMsg{items: items(1)})
	m, _ = update(t, m, noticeMsg{text: "Your session has expired, please sign in again", severity: browse.SeverityError})
	m, _ = update(t, m, loginRequiredMsg{})

	assert.True(t, m.loginRequired)
	assert.Empty(t, m.items)
	view := m.View()
	assert.Contains(t, view, "rack login")
	assert.Contains(t, view, "Your session has expired")

	_, cmd := update(t, m, keyRunes("x"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModel_ViewShowsItemsAndPage(t *testing.T) {
	ctrl := newFakeController()
	ctrl.snapshot.Query.Bookmarks = state.NewBookmarks(2)
	ctrl.snapshot.Query.TotalPages = 4
	m := started(t, ctrl, Options{})
	m, _ = update(t, m, renderMsg{items: []catalog.Item{
		{ID: 1, Title: "Raspberry Pi Pico"},
		{ID: 2, Title: "ESP32 DevKit"},
	}})

	view := m.View()
	assert.Contains(t, view, "page 1/4")
	assert.Contains(t, view, "#1")
	assert.Contains(t, view, "Raspberry Pi Pico")
	assert.Contains(t, view, "★")
}

func TestModel_HelpOverlayClosesOnAnyKey(t *testing.T) {
	m := started(t, newFakeController(), Options{})
	m, _ = update(t, m, keyRunes("?"))
	require.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m, cmd := update(t, m, keyRunes("j"))
	assert.Nil(t, cmd)
	assert.False(t, m.showHelp)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "…", truncate("abcdef", 1))
	assert.Equal(t, "", truncate("abcdef", 0))
	assert.True(t, strings.HasSuffix(truncate("héllo wörld", 6), "…"))
}

package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/rack/internal/state"
)

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loginRequired {
		return m, tea.Quit
	}

	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.mode != inputNone {
		return m.handleInputKey(msg)
	}

	if m.ctrl == nil {
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	q := m.snapshot.Query

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.applyTheme(GetTheme(NextTheme(m.theme.Name)))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		ctrl := m.ctrl
		cmd := m.action("logout", func(ctx context.Context) bool {
			if err := ctrl.Logout(ctx); err != nil {
				m.logger.Warn().Err(err).Msg("logout")
			}
			return true
		})
		return m, cmd

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.items)-1 {
			m.selected++
			return m, nil
		}
		// Scrolling past the end pulls in the next page.
		if m.canNext && !m.loading() {
			cmd := m.action("append", m.ctrl.LoadMore)
			return m, cmd
		}
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.selected = 0
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.selected = max(0, len(m.items)-1)
		return m, nil

	case key.Matches(msg, m.keys.NextPage):
		cmd := m.action("next", m.ctrl.NextPage)
		return m, cmd

	case key.Matches(msg, m.keys.PrevPage):
		cmd := m.action("prev", m.ctrl.PrevPage)
		return m, cmd

	case key.Matches(msg, m.keys.LoadMore):
		cmd := m.action("append", m.ctrl.LoadMore)
		return m, cmd

	case key.Matches(msg, m.keys.Refresh):
		cmd := m.action("refresh", m.ctrl.Refresh)
		return m, cmd

	case key.Matches(msg, m.keys.Search):
		cmd := m.openInput(inputSearch, "search: ", q.Search, nil)
		return m, cmd

	case key.Matches(msg, m.keys.Category):
		cmd := m.openInput(inputCategory, "category: ", q.Category, m.snapshot.Categories)
		return m, cmd

	case key.Matches(msg, m.keys.CycleSort):
		field := state.NextSortField(q.SortField)
		order := q.SortOrder
		ctrl := m.ctrl
		cmd := m.action("sort", func(ctx context.Context) bool {
			return ctrl.SetSort(ctx, field, order)
		})
		return m, cmd

	case key.Matches(msg, m.keys.ToggleOrder):
		field := q.SortField
		order := q.SortOrder.Toggle()
		ctrl := m.ctrl
		cmd := m.action("sort", func(ctx context.Context) bool {
			return ctrl.SetSort(ctx, field, order)
		})
		return m, cmd

	case key.Matches(msg, m.keys.BookmarksOnly):
		cmd := m.action("bookmarks-only", m.ctrl.ToggleBookmarksOnly)
		return m, cmd

	case key.Matches(msg, m.keys.ToggleBookmark):
		if len(m.items) == 0 {
			return m, nil
		}
		cmd := m.toggleBookmark(m.items[m.selected].ID)
		return m, cmd
	}

	return m, nil
}

func (m *Model) openInput(mode inputMode, prompt, value string, suggestions []string) tea.Cmd {
	m.mode = mode
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.ShowSuggestions = len(suggestions) > 0
	m.input.SetSuggestions(suggestions)
	m.input.Focus()
	return textinput.Blink
}

// handleInputKey processes keys while the search or category input is open.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		m.closeInput()
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.closeInput()
		ctrl := m.ctrl
		if mode == inputCategory {
			cmd := m.action("category", func(ctx context.Context) bool {
				return ctrl.SetCategory(ctx, value)
			})
			return m, cmd
		}
		cmd := m.action("search", func(ctx context.Context) bool {
			return ctrl.SetSearch(ctx, value)
		})
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) closeInput() {
	m.mode = inputNone
	m.input.Blur()
	m.input.SetSuggestions(nil)
}

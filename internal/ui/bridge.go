package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/rack/internal/browse"
	"github.com/five82/rack/internal/catalog"
)

// Messages delivered by the bridge.

type renderMsg struct {
	items  []catalog.Item
	append bool
}

type paginationMsg struct {
	canPrev bool
	canNext bool
}

type noticeMsg struct {
	text     string
	severity browse.Severity
}

type loginRequiredMsg struct{}

type sender interface {
	Send(msg tea.Msg)
}

// Bridge adapts the controller's Sink and Navigator to a running Bubble Tea
// program. Calls made before Attach, or after the program exits, are dropped.
type Bridge struct {
	mu      sync.RWMutex
	program sender
}

var (
	_ browse.Sink      = (*Bridge)(nil)
	_ browse.Navigator = (*Bridge)(nil)
)

// NewBridge returns a detached Bridge.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach routes subsequent calls to p.
func (b *Bridge) Attach(p sender) {
	b.mu.Lock()
	b.program = p
	b.mu.Unlock()
}

func (b *Bridge) send(msg tea.Msg) {
	b.mu.RLock()
	p := b.program
	b.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

// Render implements browse.Sink.
func (b *Bridge) Render(items []catalog.Item, appendMode bool) {
	b.send(renderMsg{items: items, append: appendMode})
}

// SetPaginationState implements browse.Sink.
func (b *Bridge) SetPaginationState(canPrev, canNext bool) {
	b.send(paginationMsg{canPrev: canPrev, canNext: canNext})
}

// PresentNotice implements browse.Sink.
func (b *Bridge) PresentNotice(message string, severity browse.Severity) {
	b.send(noticeMsg{text: message, severity: severity})
}

// GoToLogin implements browse.Navigator.
func (b *Bridge) GoToLogin() {
	b.send(loginRequiredMsg{})
}

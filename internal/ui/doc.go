// Package ui provides the Bubble Tea catalog browser.
//
// The Model owns only presentation state: the rendered items, the selection,
// the current notice and the input prompt. Catalog state lives in the browse
// controller. Key presses become controller calls that run as tea.Cmds off the
// update loop, and the controller answers through a Bridge, which forwards
// Sink and Navigator calls to the running program with Program.Send.
//
// Key bindings are declared in keys.go; the help overlay and the footer are
// generated from the same key map. Themes are cycled with T and persisted to
// the preferences file, as is the sort order.
package ui

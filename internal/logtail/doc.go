// Package logtail reads and formats the rack log file.
//
// # Reading
//
// Read returns the last N lines of a file using a ring buffer of N entries,
// so memory stays bounded regardless of file size. A missing file is not an
// error; it simply has no lines.
//
//	lines, err := logtail.Read(cfg.LogPath(), 50)
//
// # Formatting
//
// rack writes zerolog JSON lines. Parse decodes one into an Entry, Filter
// drops entries below a level, and FormatLine renders an entry as
//
//	2025-10-08 21:01:05 WARN [catalog] catalog request failed page=2
//
// with optional lipgloss colouring. Lines that are not JSON pass through
// untouched.
package logtail

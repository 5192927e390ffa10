// Package state holds the catalog browser's view state.
//
// # Core Types
//
// Query:
//   - Page cursor and total page count
//   - Search text, category filter, sort field and order
//   - Bookmark-only flag and the bookmark id set
//
// Every filter mutator (SetSearch, SetCategory, SetSort, SetBookmarksOnly)
// resets Page to 1 when it changes something and reports whether it did,
// so callers can skip a reload for no-op input.
//
// Bookmarks:
//   - Set of item ids, the client-side source of truth for "is bookmarked"
//   - Add/Remove report whether a transition happened
//   - Sorted gives the ascending id list sent as the ids= filter
//
// Store:
//   - Thread-safe record of fetch outcomes (last error, failure streak)
//   - Snapshot merges the outcome fields over a caller-built Snapshot
//
// # Concurrency Model
//
// Query and Bookmarks are plain values with no locking of their own. The
// app.Controller owns the live Query behind its mutex and hands out
// deep copies via Clone. Store uses a readers-writer lock and is only held
// while copying.
package state

// Package catalog loads pages of the hardware catalog.
//
// Fetcher builds a GET /hardware request from a state.Query, retries
// transient failures, validates the pagination envelope and maps server
// records into Items. A bookmark-only query with no bookmarks returns
// ErrNoBookmarks without touching the network. Results of a bookmark-only
// query are re-filtered locally against the query's bookmark set even
// though the server already received the ids= filter.
//
// Failures are returned as *FetchError with one of four kinds: server,
// network, application and unauthorized. Only server and network failures
// are retried.
package catalog

package state

import (
	"sort"
	"strings"
)

// SortOrder is the catalog sort direction.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ParseOrder maps user input to a SortOrder, defaulting to descending.
func ParseOrder(s string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), string(OrderAsc)) {
		return OrderAsc
	}
	return OrderDesc
}

// Toggle returns the opposite direction.
func (o SortOrder) Toggle() SortOrder {
	if o == OrderAsc {
		return OrderDesc
	}
	return OrderAsc
}

// DefaultSortField is the field the catalog is ordered by at startup.
const DefaultSortField = "published_at"

// SortFields lists the server-supported sort fields in cycle order.
var SortFields = []string{"published_at", "title", "category"}

// NextSortField returns the field after current in SortFields.
func NextSortField(current string) string {
	for i, f := range SortFields {
		if f == current {
			return SortFields[(i+1)%len(SortFields)]
		}
	}
	return SortFields[0]
}

// Query is the view-state record that drives catalog requests.
// Empty strings mean "not set".
type Query struct {
	Page          int
	TotalPages    int
	Search        string
	Category      string
	SortField     string
	SortOrder     SortOrder
	BookmarksOnly bool
	Bookmarks     Bookmarks
}

// NewQuery returns the startup query: page 1 of 1, newest first.
func NewQuery() Query {
	return Query{
		Page:       1,
		TotalPages: 1,
		SortField:  DefaultSortField,
		SortOrder:  OrderDesc,
		Bookmarks:  NewBookmarks(),
	}
}

// Clone returns a deep copy.
func (q Query) Clone() Query {
	q.Bookmarks = q.Bookmarks.Clone()
	return q
}

// CanGoPrev reports whether a previous page exists.
func (q Query) CanGoPrev() bool {
	return q.Page > 1
}

// CanGoNext reports whether a next page exists.
func (q Query) CanGoNext() bool {
	return q.Page < q.TotalPages
}

// SetSearch updates the search text and resets the page. It reports whether
// anything changed.
func (q *Query) SetSearch(s string) bool {
	s = strings.TrimSpace(s)
	if s == q.Search {
		return false
	}
	q.Search = s
	q.Page = 1
	return true
}

// SetCategory updates the category filter and resets the page.
func (q *Query) SetCategory(c string) bool {
	c = strings.TrimSpace(c)
	if c == q.Category {
		return false
	}
	q.Category = c
	q.Page = 1
	return true
}

// SetSort updates the sort field and order and resets the page.
func (q *Query) SetSort(field string, order SortOrder) bool {
	field = strings.TrimSpace(field)
	if field == q.SortField && order == q.SortOrder {
		return false
	}
	q.SortField = field
	q.SortOrder = order
	q.Page = 1
	return true
}

// SetBookmarksOnly flips the bookmark-only filter and resets the page.
func (q *Query) SetBookmarksOnly(on bool) bool {
	if on == q.BookmarksOnly {
		return false
	}
	q.BookmarksOnly = on
	q.Page = 1
	return true
}

// Bookmarks is a set of bookmarked item ids.
type Bookmarks map[int]struct{}

// NewBookmarks returns a set holding ids.
func NewBookmarks(ids ...int) Bookmarks {
	b := make(Bookmarks, len(ids))
	for _, id := range ids {
		b[id] = struct{}{}
	}
	return b
}

// Contains reports membership.
func (b Bookmarks) Contains(id int) bool {
	_, ok := b[id]
	return ok
}

// Add inserts id and reports whether it was absent.
func (b Bookmarks) Add(id int) bool {
	if b.Contains(id) {
		return false
	}
	b[id] = struct{}{}
	return true
}

// Remove deletes id and reports whether it was present.
func (b Bookmarks) Remove(id int) bool {
	if !b.Contains(id) {
		return false
	}
	delete(b, id)
	return true
}

// Sorted returns the ids in ascending order.
func (b Bookmarks) Sorted() []int {
	ids := make([]int, 0, len(b))
	for id := range b {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Clone returns an independent copy.
func (b Bookmarks) Clone() Bookmarks {
	dup := make(Bookmarks, len(b))
	for id := range b {
		dup[id] = struct{}{}
	}
	return dup
}

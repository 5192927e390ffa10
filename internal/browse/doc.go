// Package browse coordinates catalog loading for one signed-in session.
//
// A Controller owns the query, the loading flag and the local bookmark set.
// At most one page load is in flight at a time: triggers that arrive while a
// load is running are dropped without touching state. Results are handed to
// a Sink; credential rejections are routed to a Navigator.
package browse

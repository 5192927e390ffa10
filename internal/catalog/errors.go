package catalog

import (
	"errors"
	"fmt"
)

// ErrNoBookmarks reports a bookmark-only query with an empty bookmark set.
// No request is made; it is an outcome, not a failure.
var ErrNoBookmarks = errors.New("no bookmarks")

// Kind classifies a failed catalog fetch.
type Kind string

const (
	// KindServer is a non-2xx status or a body that could not be understood.
	KindServer Kind = "server"
	// KindNetwork is a transport failure.
	KindNetwork Kind = "network"
	// KindApplication is a 2xx response carrying an error message.
	KindApplication Kind = "application"
	// KindUnauthorized is a 401/403 or a missing credential.
	KindUnauthorized Kind = "unauthorized"
)

// FetchError describes why a page could not be loaded.
type FetchError struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindApplication:
		return e.Message
	case KindServer:
		if e.Status > 0 {
			return fmt.Sprintf("server returned status %d", e.Status)
		}
		return "malformed server response"
	case KindUnauthorized:
		return "not authorized"
	default:
		return fmt.Sprintf("network error: %v", e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Notice returns the user-facing text for the error.
func (e *FetchError) Notice() string {
	switch e.Kind {
	case KindApplication:
		return e.Message
	case KindServer:
		if e.Status > 0 {
			return fmt.Sprintf("Could not load items (server error %d)", e.Status)
		}
		return "Could not load items (unexpected server response)"
	case KindUnauthorized:
		return "Your session has expired, please sign in again"
	default:
		return "Could not load items, please try again later"
	}
}

// KindOf returns the FetchError kind of err, or "" when err is not one.
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

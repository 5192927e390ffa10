// Package bookmarks mirrors the user's bookmark set on the server.
package bookmarks

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/five82/rack/internal/api"
	"github.com/five82/rack/internal/logging"
	"github.com/five82/rack/internal/retry"
	"github.com/five82/rack/internal/state"
)

// Outcome is the server's acknowledgement of a bookmark mutation.
type Outcome string

const (
	Added          Outcome = "added"
	AlreadyPresent Outcome = "already-present"
	Removed        Outcome = "removed"
	AlreadyAbsent  Outcome = "already-absent"
)

// Changed reports whether the outcome is a genuine transition.
func (o Outcome) Changed() bool {
	return o == Added || o == Removed
}

// ErrUnexpectedReply is returned when the server acknowledges with an
// unknown message.
var ErrUnexpectedReply = errors.New("unexpected bookmark reply")

// Remote is the bookmark API surface.
type Remote interface {
	AddBookmark(ctx context.Context, itemID int) (api.BookmarkAck, error)
	RemoveBookmark(ctx context.Context, itemID int) (api.BookmarkAck, error)
	ListBookmarks(ctx context.Context) ([]int, error)
}

// Service adds, removes and lists bookmarks. It does not own the local
// bookmark set; callers apply Changed outcomes themselves.
type Service struct {
	remote     Remote
	listPolicy retry.Policy
	logger     zerolog.Logger
}

// NewService wires a Service. listPolicy bounds ListAll retries.
func NewService(remote Remote, listPolicy retry.Policy, logger zerolog.Logger) *Service {
	return &Service{
		remote:     remote,
		listPolicy: listPolicy,
		logger:     logging.Component(logger, "bookmarks"),
	}
}

// Add bookmarks itemID.
func (s *Service) Add(ctx context.Context, itemID int) (Outcome, error) {
	ack, err := s.remote.AddBookmark(ctx, itemID)
	if err != nil {
		return "", fmt.Errorf("add bookmark %d: %w", itemID, err)
	}
	switch ack.Normalized() {
	case api.MessageNewlyBookmarked:
		return Added, nil
	case api.MessageAlreadyBookmarked:
		return AlreadyPresent, nil
	default:
		return "", fmt.Errorf("add bookmark %d: %w: %q", itemID, ErrUnexpectedReply, ack.Message)
	}
}

// Remove un-bookmarks itemID.
func (s *Service) Remove(ctx context.Context, itemID int) (Outcome, error) {
	ack, err := s.remote.RemoveBookmark(ctx, itemID)
	if err != nil {
		return "", fmt.Errorf("remove bookmark %d: %w", itemID, err)
	}
	switch ack.Normalized() {
	case api.MessageNewlyDeleted:
		return Removed, nil
	case api.MessageAlreadyAbsent:
		return AlreadyAbsent, nil
	default:
		return "", fmt.Errorf("remove bookmark %d: %w: %q", itemID, ErrUnexpectedReply, ack.Message)
	}
}

// Toggle removes itemID when bookmarked is true and adds it otherwise.
func (s *Service) Toggle(ctx context.Context, itemID int, bookmarked bool) (Outcome, error) {
	if bookmarked {
		return s.Remove(ctx, itemID)
	}
	return s.Add(ctx, itemID)
}

// ListAll fetches every bookmarked id. After the retry bound is exhausted it
// returns an empty set together with the last error.
func (s *Service) ListAll(ctx context.Context) (state.Bookmarks, error) {
	ids, err := retry.Do(ctx, s.listPolicy, listRetryable, func(ctx context.Context) ([]int, error) {
		ids, err := s.remote.ListBookmarks(ctx)
		if err != nil {
			s.logger.Debug().Err(err).Msg("list bookmarks attempt failed")
		}
		return ids, err
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("list bookmarks failed, continuing with none")
		return state.NewBookmarks(), fmt.Errorf("list bookmarks: %w", err)
	}
	return state.NewBookmarks(ids...), nil
}

func listRetryable(err error) bool {
	return !api.IsUnauthorized(err) && !errors.Is(err, context.Canceled)
}

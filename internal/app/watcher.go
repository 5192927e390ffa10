package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/rack/internal/api"
	"github.com/five82/rack/internal/auth"
	"github.com/five82/rack/internal/logging"
)

const maxBackoff = 5 * time.Minute

// SessionChecker probes the auth endpoint.
type SessionChecker interface {
	CheckAuth(ctx context.Context) (api.AuthCheck, error)
}

// CredentialHolder reports whether a credential is held.
type CredentialHolder interface {
	Present() bool
}

// Rejecter routes a rejected session to sign-in.
type Rejecter interface {
	HandleRejection(ctx context.Context, res auth.Result)
}

// WatcherOptions configure StartSessionWatcher.
type WatcherOptions struct {
	Checker  SessionChecker
	Tokens   CredentialHolder
	Rejecter Rejecter
	Interval time.Duration
	Logger   zerolog.Logger
}

type probe int

const (
	probeOK probe = iota
	probeTransient
	probeRejected
	probeSignedOut
)

// StartSessionWatcher launches a goroutine that re-verifies the credential
// every Interval while the browser runs. Transient failures back off; a
// rejection is handed to the Rejecter and ends the watcher, as does a missing
// credential. The returned channel closes when the goroutine exits. A
// non-positive Interval disables watching.
func StartSessionWatcher(ctx context.Context, opts WatcherOptions) <-chan struct{} {
	done := make(chan struct{})
	if opts.Interval <= 0 || opts.Checker == nil || opts.Rejecter == nil {
		close(done)
		return done
	}
	logger := logging.Component(opts.Logger, "session")

	go func() {
		defer close(done)
		failures := 0
		timer := time.NewTimer(opts.Interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			switch checkSession(ctx, opts, logger) {
			case probeOK:
				failures = 0
			case probeTransient:
				failures++
			case probeRejected, probeSignedOut:
				return
			}
			timer.Reset(calculateBackoff(failures, opts.Interval))
		}
	}()
	return done
}

func checkSession(ctx context.Context, opts WatcherOptions, logger zerolog.Logger) probe {
	if opts.Tokens != nil && !opts.Tokens.Present() {
		logger.Debug().Msg("no credential held, watcher stopping")
		return probeSignedOut
	}
	check, err := opts.Checker.CheckAuth(ctx)
	if err == nil && check.UserID != "" {
		return probeOK
	}
	if ctx.Err() != nil {
		return probeTransient
	}
	if err == nil || api.IsRetryable(err) {
		logger.Warn().Err(err).Msg("session check failed, backing off")
		return probeTransient
	}

	res := auth.Classify(err)
	if res.Reason == auth.ReasonServerError {
		logger.Warn().Err(err).Msg("session check failed, backing off")
		return probeTransient
	}
	logger.Info().Str("reason", string(res.Reason)).Msg("session no longer valid")
	opts.Rejecter.HandleRejection(ctx, res)
	return probeRejected
}

// calculateBackoff doubles base per consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

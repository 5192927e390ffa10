package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/five82/rack/internal/api"
	"github.com/five82/rack/internal/logging"
	"github.com/five82/rack/internal/retry"
)

// Reason explains why a credential was rejected.
type Reason string

const (
	ReasonMissingCredential Reason = "missing-credential"
	ReasonInvalidCredential Reason = "invalid-credential"
	ReasonServerError       Reason = "server-error"
)

// Result is the terminal outcome of a Gate check.
type Result struct {
	Authenticated bool
	UserID        string
	Reason        Reason
	// Message is the user-facing notice for a rejection.
	Message string
	Err     error
}

// NeedsLogin reports whether the caller should route the user to sign-in.
func (r Result) NeedsLogin() bool {
	return !r.Authenticated
}

// Checker probes the auth endpoint.
type Checker interface {
	CheckAuth(ctx context.Context) (api.AuthCheck, error)
}

var errMissingUserID = errors.New("auth check response has no user_id")

// Gate verifies the stored credential against the server.
type Gate struct {
	tokens  *TokenStore
	checker Checker
	policy  retry.Policy
	logger  zerolog.Logger
}

// NewGate wires a Gate. policy bounds transient-failure retries.
func NewGate(tokens *TokenStore, checker Checker, policy retry.Policy, logger zerolog.Logger) *Gate {
	return &Gate{
		tokens:  tokens,
		checker: checker,
		policy:  policy,
		logger:  logging.Component(logger, "auth"),
	}
}

// Check returns Authenticated or a Rejected result. Any rejection clears the
// credential, except when ctx itself was cancelled mid-check.
func (g *Gate) Check(ctx context.Context) Result {
	if !g.tokens.Present() {
		return Result{
			Reason:  ReasonMissingCredential,
			Message: "Please sign in first",
			Err:     ErrNoCredential,
		}
	}

	attempt := 0
	check, err := retry.Do(ctx, g.policy, api.IsRetryable, func(ctx context.Context) (api.AuthCheck, error) {
		attempt++
		check, err := g.checker.CheckAuth(ctx)
		if err != nil {
			g.logger.Debug().Err(err).Int("attempt", attempt).Msg("auth check attempt failed")
			return api.AuthCheck{}, err
		}
		if check.UserID == "" {
			return api.AuthCheck{}, errMissingUserID
		}
		return check, nil
	})
	if err == nil {
		g.logger.Debug().Str("user_id", string(check.UserID)).Msg("credential accepted")
		return Result{Authenticated: true, UserID: string(check.UserID)}
	}

	result := Classify(err)
	if errors.Is(err, context.Canceled) {
		return result
	}
	g.logger.Warn().Err(err).Str("reason", string(result.Reason)).Int("attempts", attempt).Msg("credential rejected")
	if clearErr := g.tokens.Clear(context.WithoutCancel(ctx)); clearErr != nil {
		g.logger.Error().Err(clearErr).Msg("clear rejected credential")
	}
	return result
}

// Classify maps a failed auth check to a rejection Result.
func Classify(err error) Result {
	var appErr *api.ApplicationError
	switch {
	case api.IsUnauthorized(err):
		return Result{
			Reason:  ReasonInvalidCredential,
			Message: "Your session has expired, please sign in again",
			Err:     err,
		}
	case errors.As(err, &appErr):
		return Result{Reason: ReasonInvalidCredential, Message: appErr.Message, Err: err}
	default:
		return Result{
			Reason:  ReasonServerError,
			Message: fmt.Sprintf("Could not verify your session: %v", err),
			Err:     err,
		}
	}
}

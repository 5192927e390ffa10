package app

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/five82/rack/internal/api"
	"github.com/five82/rack/internal/auth"
	"github.com/five82/rack/internal/bookmarks"
	"github.com/five82/rack/internal/browse"
	"github.com/five82/rack/internal/catalog"
	"github.com/five82/rack/internal/config"
	"github.com/five82/rack/internal/credstore"
	"github.com/five82/rack/internal/logging"
	"github.com/five82/rack/internal/prefs"
	"github.com/five82/rack/internal/retry"
	"github.com/five82/rack/internal/state"
	"github.com/five82/rack/internal/ui"
)

// Version is reported in the User-Agent header.
var Version = "dev"

// Options configure Open and Run.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/rack/prefs.toml
	// Console mirrors log output to stderr. The TUI leaves it off.
	Console bool
	// DatabasePath overrides the credential database location.
	DatabasePath string
}

// Env is the wired object graph shared by the TUI and the one-shot commands.
type Env struct {
	Config    config.Config
	Prefs     prefs.Prefs
	PrefsPath string
	Logger    zerolog.Logger

	Credentials *credstore.Store
	Tokens      *auth.TokenStore
	Client      *api.Client
	Gate        *auth.Gate
	Fetcher     *catalog.Fetcher
	Bookmarks   *bookmarks.Service
	Store       *state.Store

	closeLog func() error
}

// Open loads configuration, opens the log and credential database, restores
// the stored credential and builds the API services.
func Open(ctx context.Context, opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Path:    cfg.LogPath(),
		Console: opts.Console,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	dbPath := opts.DatabasePath
	if dbPath == "" {
		dbPath = cfg.DatabasePath()
	}
	creds, err := credstore.Open(ctx, dbPath)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("open credential store: %w", err)
	}

	env, err := build(ctx, cfg, creds, logger)
	if err != nil {
		_ = creds.Close()
		_ = closeLog()
		return nil, err
	}
	env.Prefs = prefs.Load(prefsPath)
	env.PrefsPath = prefsPath
	env.closeLog = closeLog
	return env, nil
}

func build(ctx context.Context, cfg config.Config, creds *credstore.Store, logger zerolog.Logger) (*Env, error) {
	tokens := auth.NewTokenStore(creds)
	if err := tokens.Load(ctx); err != nil {
		return nil, err
	}

	client, err := api.NewClient(api.Options{
		BaseURL:   cfg.APIBase,
		Timeout:   cfg.RequestTimeout,
		Tokens:    tokens,
		UserAgent: "rack/" + Version,
	})
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}

	policy := retry.Policy{Attempts: cfg.RetryCount, Delay: cfg.RetryDelay}
	logger.Debug().Str("api", client.BaseURL()).Int("retries", policy.Attempts).Msg("rack initialised")

	return &Env{
		Config:      cfg,
		Logger:      logger,
		Credentials: creds,
		Tokens:      tokens,
		Client:      client,
		Gate:        auth.NewGate(tokens, client, policy, logger),
		Fetcher:     catalog.NewFetcher(client, tokens, policy, logger),
		Bookmarks:   bookmarks.NewService(client, policy, logger),
		Store:       &state.Store{},
	}, nil
}

// Close releases the credential database and the log file.
func (e *Env) Close() error {
	var errs []error
	if e.Credentials != nil {
		errs = append(errs, e.Credentials.Close())
	}
	if e.closeLog != nil {
		errs = append(errs, e.closeLog())
	}
	return errors.Join(errs...)
}

// InitialQuery is the startup view state, honouring the saved sort.
func (e *Env) InitialQuery() state.Query {
	q := state.NewQuery()
	if slices.Contains(state.SortFields, e.Prefs.Sort) {
		q.SortField = e.Prefs.Sort
	}
	q.SortOrder = state.ParseOrder(e.Prefs.Order)
	return q
}

// NewController wires a browse controller that reports to sink and nav.
func (e *Env) NewController(sink browse.Sink, nav browse.Navigator) (*browse.Controller, error) {
	return browse.New(browse.Options{
		Gate:       e.Gate,
		Fetcher:    e.Fetcher,
		Bookmarks:  e.Bookmarks,
		Categories: e.Client,
		Tokens:     e.Tokens,
		Sink:       sink,
		Navigator:  nav,
		Store:      e.Store,
		Logger:     e.Logger,
		Query:      e.InitialQuery(),
	})
}

// Run boots the rack TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	env, err := Open(ctx, opts)
	if err != nil {
		return err
	}
	defer env.Close()

	bridge := ui.NewBridge()
	ctrl, err := env.NewController(bridge, bridge)
	if err != nil {
		return err
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	StartSessionWatcher(watchCtx, WatcherOptions{
		Checker:  env.Client,
		Tokens:   env.Tokens,
		Rejecter: ctrl,
		Interval: env.Config.SessionCheck,
		Logger:   env.Logger,
	})

	return ui.Run(ui.Options{
		Context:    ctx,
		Controller: ctrl,
		Bridge:     bridge,
		Prefs:      env.Prefs,
		PrefsPath:  env.PrefsPath,
		Logger:     env.Logger,
	})
}

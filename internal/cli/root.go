// Package cli defines the rack command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/rack/internal/app"
	"github.com/five82/rack/internal/auth"
	"github.com/five82/rack/internal/ui"
)

// App carries the global flags and the seams the commands are built on.
type App struct {
	ConfigPath string
	PrefsPath  string
	Verbose    bool

	open   func(ctx context.Context, opts app.Options) (*app.Env, error)
	browse func(ctx context.Context, opts app.Options) error
	stdin  io.Reader
}

// NewRootCmd returns the rack root command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{open: app.Open, browse: app.Run, stdin: os.Stdin})
}

func newRootCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rack",
		Short:         "Browse the hardware catalog from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Sign in, then open the interactive browser
  rack login --username ada
  rack

  # Print one page as a table
  rack list --search esp32 --sort title --order asc

  # Manage bookmarks
  rack bookmark add 42
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBrowse(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.ConfigPath, "config", envOr("RACK_CONFIG", ""), "Path to config.toml (default ~/.config/rack/config.toml)")
	cmd.PersistentFlags().StringVar(&a.PrefsPath, "prefs", envOr("RACK_PREFS", ""), "Path to prefs.toml (default ~/.config/rack/prefs.toml)")
	cmd.PersistentFlags().BoolVarP(&a.Verbose, "verbose", "v", false, "Mirror log output to stderr")

	cmd.AddCommand(newBrowseCmd(a))
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	cmd.AddCommand(newBookmarkCmd(a))
	cmd.AddCommand(newStatusCmd(a))
	cmd.AddCommand(newLogsCmd(a))

	return cmd
}

func newBrowseCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive catalog browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBrowse(cmd)
		},
	}
}

func (a *App) runBrowse(cmd *cobra.Command) error {
	opts := a.options()
	// The TUI owns the terminal.
	opts.Console = false
	err := a.browse(cmd.Context(), opts)
	if errors.Is(err, ui.ErrLoginRequired) {
		return errLoginRequired("")
	}
	return err
}

func (a *App) options() app.Options {
	return app.Options{
		ConfigPath: a.ConfigPath,
		PrefsPath:  a.PrefsPath,
		Console:    a.Verbose,
	}
}

func (a *App) env(cmd *cobra.Command) (*app.Env, error) {
	return a.open(cmd.Context(), a.options())
}

// signedIn verifies the stored credential, returning an error carrying the
// rejection notice when the user must sign in.
func signedIn(ctx context.Context, env *app.Env) (auth.Result, error) {
	res := env.Gate.Check(ctx)
	if res.NeedsLogin() {
		return res, errLoginRequired(res.Message)
	}
	return res, nil
}

func errLoginRequired(notice string) error {
	if notice == "" {
		notice = "not signed in"
	}
	return fmt.Errorf("%s; run `rack login`", notice)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

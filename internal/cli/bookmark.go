package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/rack/internal/api"
	"github.com/five82/rack/internal/app"
	"github.com/five82/rack/internal/bookmarks"
)

func newBookmarkCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bookmark",
		Aliases: []string{"bookmarks", "bm"},
		Short:   "Add, remove and list bookmarks",
	}
	cmd.AddCommand(newBookmarkMutateCmd(a, "add", "Bookmark an item", false))
	cmd.AddCommand(newBookmarkMutateCmd(a, "remove", "Remove a bookmark", true))
	cmd.AddCommand(newBookmarkListCmd(a))
	return cmd
}

func newBookmarkMutateCmd(a *App, use, short string, remove bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <item-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(args[0]), "#"))
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid item id %q", args[0])
			}

			env, err := a.env(cmd)
			if err != nil {
				return err
			}
			defer env.Close()
			if !env.Tokens.Present() {
				return errLoginRequired("")
			}

			ctx := cmd.Context()
			var outcome bookmarks.Outcome
			if remove {
				outcome, err = env.Bookmarks.Remove(ctx, id)
			} else {
				outcome, err = env.Bookmarks.Add(ctx, id)
			}
			if err != nil {
				return remoteError(cmd, env, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), describeOutcome(outcome, id))
			return nil
		},
	}
}

func newBookmarkListCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bookmarked item ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.env(cmd)
			if err != nil {
				return err
			}
			defer env.Close()
			if !env.Tokens.Present() {
				return errLoginRequired("")
			}

			set, err := env.Bookmarks.ListAll(cmd.Context())
			if err != nil {
				return remoteError(cmd, env, err)
			}
			if len(set) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No bookmarks yet")
				return nil
			}
			for _, id := range set.Sorted() {
				fmt.Fprintf(cmd.OutOrStdout(), "#%d\n", id)
			}
			return nil
		},
	}
}

func describeOutcome(o bookmarks.Outcome, id int) string {
	switch o {
	case bookmarks.Added:
		return fmt.Sprintf("Bookmarked #%d", id)
	case bookmarks.AlreadyPresent:
		return fmt.Sprintf("#%d is already bookmarked", id)
	case bookmarks.Removed:
		return fmt.Sprintf("Removed bookmark #%d", id)
	default:
		return fmt.Sprintf("#%d is not bookmarked", id)
	}
}

// remoteError drops a rejected credential and turns API failures into
// user-facing errors.
func remoteError(cmd *cobra.Command, env *app.Env, err error) error {
	if api.IsUnauthorized(err) {
		_ = env.Tokens.Clear(cmd.Context())
		return errLoginRequired("your session has expired")
	}
	var appErr *api.ApplicationError
	if errors.As(err, &appErr) {
		return errors.New(appErr.Message)
	}
	return err
}

package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/five82/rack/internal/catalog"
	"github.com/five82/rack/internal/state"
	"github.com/five82/rack/internal/ui"
)

type listFlags struct {
	page      int
	search    string
	category  string
	sort      string
	order     string
	bookmarks bool
}

func newListCmd(a *App) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one catalog page as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.page < 1 {
				return fmt.Errorf("--page must be at least 1")
			}
			if f.sort != "" && !slices.Contains(state.SortFields, f.sort) {
				return fmt.Errorf("--sort must be one of %s", strings.Join(state.SortFields, ", "))
			}
			if f.order != "" && f.order != string(state.OrderAsc) && f.order != string(state.OrderDesc) {
				return fmt.Errorf("--order must be asc or desc")
			}

			env, err := a.env(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx := cmd.Context()
			if _, err := signedIn(ctx, env); err != nil {
				return err
			}

			marks, err := env.Bookmarks.ListAll(ctx)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}

			q := env.InitialQuery()
			q.Page = f.page
			q.Search = strings.TrimSpace(f.search)
			q.Category = strings.TrimSpace(f.category)
			if f.sort != "" {
				q.SortField = f.sort
			}
			if f.order != "" {
				q.SortOrder = state.SortOrder(f.order)
			}
			q.BookmarksOnly = f.bookmarks
			q.Bookmarks = marks

			page, err := env.Fetcher.Fetch(ctx, q)
			if errors.Is(err, catalog.ErrNoBookmarks) {
				fmt.Fprintln(cmd.OutOrStdout(), "No bookmarks yet")
				return nil
			}
			if err != nil {
				var fe *catalog.FetchError
				if errors.As(err, &fe) {
					if fe.Kind == catalog.KindUnauthorized {
						_ = env.Tokens.Clear(ctx)
						return errLoginRequired(fe.Notice())
					}
					return errors.New(fe.Notice())
				}
				return err
			}

			renderTable(cmd.OutOrStdout(), ui.GetTheme(env.Prefs.Theme), page.Items, marks)
			fmt.Fprintf(cmd.OutOrStdout(), "page %d/%d · %d items\n", q.Page, page.TotalPages, page.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&f.page, "page", 1, "Page number")
	cmd.Flags().StringVar(&f.search, "search", "", "Search text")
	cmd.Flags().StringVar(&f.category, "category", "", "Category filter")
	cmd.Flags().StringVar(&f.sort, "sort", "", "Sort field ("+strings.Join(state.SortFields, "|")+")")
	cmd.Flags().StringVar(&f.order, "order", "", "Sort order (asc|desc)")
	cmd.Flags().BoolVar(&f.bookmarks, "bookmarks", false, "Only bookmarked items")
	return cmd
}

func renderTable(w io.Writer, theme ui.Theme, items []catalog.Item, marks state.Bookmarks) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items")
		return
	}

	header := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Accent)).Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	mark := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Bookmark)).Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Border))).
		Headers("", "ID", "TITLE", "CATEGORY", "PUBLISHED").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case col == 0:
				return mark
			default:
				return cell
			}
		})

	for _, it := range items {
		star := ""
		if marks.Contains(it.ID) {
			star = "★"
		}
		published := it.PublishedRaw
		if !it.PublishedAt.IsZero() {
			published = it.PublishedAt.Format("2006-01-02")
		}
		t.Row(star, strconv.Itoa(it.ID), it.Title, it.Category, published)
	}
	fmt.Fprintln(w, t.String())
}

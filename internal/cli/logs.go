package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/five82/rack/internal/config"
	"github.com/five82/rack/internal/logging"
	"github.com/five82/rack/internal/logtail"
)

func newLogsCmd(a *App) *cobra.Command {
	var (
		lines int
		level string
		raw   bool
		color = true
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent client log entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.ConfigPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			path := cfg.LogPath()
			tail, err := logtail.Read(path, lines)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			if level != "" {
				tail = logtail.Filter(tail, logging.ParseLevel(level))
			}

			out := cmd.OutOrStdout()
			if len(tail) == 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "no log entries in %s\n", path)
				return nil
			}
			if raw {
				fmt.Fprintln(out, strings.Join(tail, "\n"))
				return nil
			}

			useColor := color && isTerminal(out)
			for _, line := range logtail.FormatLines(tail, useColor) {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show (0 for all)")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (trace|debug|info|warn|error)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the JSON lines unformatted")
	cmd.Flags().BoolVar(&color, "color", true, "Colorize output on a terminal")
	return cmd
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

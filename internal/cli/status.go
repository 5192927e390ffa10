package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/rack/internal/ui"
)

func newStatusCmd(a *App) *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration and sign-in state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.env(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			out := cmd.OutOrStdout()
			styles := ui.GetTheme(env.Prefs.Theme).Styles()
			row := func(label, value string) {
				fmt.Fprintf(out, "%s %s\n", styles.MutedText.Render(fmt.Sprintf("%-10s", label)), value)
			}

			row("API", env.Client.BaseURL())
			row("Data", env.Config.DataDir)
			row("Log", env.Config.LogPath())
			row("Prefs", env.PrefsPath)

			if !env.Tokens.Present() {
				row("Session", styles.WarningText.Render("not signed in"))
				return nil
			}
			if user := env.Tokens.Username(); user != "" {
				row("User", user)
			}
			if offline {
				row("Session", "token stored (not verified)")
				return nil
			}

			res := env.Gate.Check(cmd.Context())
			if res.NeedsLogin() {
				row("Session", styles.DangerText.Render(res.Message))
				return nil
			}
			row("Session", styles.SuccessText.Render("signed in")+" "+styles.FaintText.Render("(user id "+res.UserID+")"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the server check")
	return cmd
}

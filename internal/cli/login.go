package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/five82/rack/internal/api"
	"github.com/five82/rack/internal/credstore"
)

func newLoginCmd(a *App) *cobra.Command {
	var username, token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store and verify an API token",
		Long: strings.TrimSpace(`
Stores the bearer token used for every catalog request and checks it against
the server. When --token is omitted the token is read from stdin, without echo
on a terminal. A token the server rejects is not kept.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token = strings.TrimSpace(token)
			if token == "" {
				read, err := readToken(a.stdin, cmd.ErrOrStderr())
				if err != nil {
					return fmt.Errorf("read token: %w", err)
				}
				token = read
			}
			if token == "" {
				return errors.New("token is empty")
			}

			env, err := a.env(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx := cmd.Context()
			cred := credstore.Credential{Token: token, Username: strings.TrimSpace(username)}
			if err := env.Tokens.Set(ctx, cred); err != nil {
				return err
			}

			res := env.Gate.Check(ctx)
			if !res.Authenticated {
				if api.IsUnauthorized(res.Err) {
					return errors.New("sign-in failed: the server rejected the token")
				}
				return fmt.Errorf("sign-in failed: %s", res.Message)
			}

			who := cred.Username
			if who == "" {
				who = "user " + res.UserID
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (user id %s)\n", who, res.UserID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Display name stored with the token")
	cmd.Flags().StringVar(&token, "token", "", "API token (read from stdin when omitted)")
	return cmd
}

// readToken prompts on prompt and reads one line from in, hiding input when
// in is a terminal.
func readToken(in io.Reader, prompt io.Writer) (string, error) {
	fmt.Fprint(prompt, "Token: ")
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func newLogoutCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.env(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			wasSignedIn := env.Tokens.Present()
			if err := env.Tokens.Clear(cmd.Context()); err != nil {
				return err
			}
			if wasSignedIn {
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
			}
			return nil
		},
	}
}

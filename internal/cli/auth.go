package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sinergy/sinergy-web/internal/core/domain"
)

var errNotLoggedIn = errors.New(`not logged in: run "sinergy-chat login" first`)

func newLoginCmd(app *App) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the identity on this machine",
		Long: `Log in against the Sinergy API and keep the identity in the state
directory, so later commands need no password. The password is read from
the terminal when --password is not given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := app.login(cmd, username, password, true)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Logged in as %s (%s).\n", displayName(id), id.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Sinergy username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Sinergy password")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the remembered identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.auth().Logout(cmd.Context(), app.store); err != nil {
				return err
			}
			fmt.Fprintln(app.Out, "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the remembered identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := app.store.Load(cmd.Context())
			if err != nil {
				if errors.Is(err, domain.ErrNotAuthenticated) {
					return errNotLoggedIn
				}
				return err
			}
			fmt.Fprintf(app.Out, "%s\nuser id: %s\nrole:    %s\n", displayName(id), id.UserID, id.Role)
			return nil
		},
	}
}

// login prompts for whatever credential is missing and logs in.
func (a *App) login(cmd *cobra.Command, username, password string, remember bool) (domain.Identity, error) {
	var err error
	if strings.TrimSpace(username) == "" {
		if username, err = a.prompt("Username: "); err != nil {
			return domain.Identity{}, err
		}
	}
	if password == "" {
		if password, err = a.prompt("Password: "); err != nil {
			return domain.Identity{}, err
		}
	}

	id, err := a.auth().Login(cmd.Context(), a.store, username, password, remember)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return domain.Identity{}, errors.New("invalid username or password")
	}
	return id, err
}

func (a *App) prompt(label string) (string, error) {
	fmt.Fprint(a.Out, label)
	line, err := a.readLine()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return line, nil
}

func displayName(id domain.Identity) string {
	if id.FullName != "" {
		return id.FullName
	}
	return id.Username
}

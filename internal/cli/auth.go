package cli

import (
	"errors"
	"fmt"

	"oneflow-cli/internal/auth"

	"github.com/spf13/cobra"
)

func newLoginCmd(app *App) *cobra.Command {
	var username string
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return writeErr(cmd, errors.New("both --username and --password are required"))
			}
			client, _, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			resp, err := client.SignIn(cmd.Context(), username, password)
			if err != nil {
				return writeErr(cmd, err)
			}
			stateDir, err := app.stateDir()
			if err != nil {
				return writeErr(cmd, err)
			}
			sess := auth.Session{
				Token:    resp.Token,
				Username: resp.Username,
				Email:    resp.Email,
				Role:     auth.Role(resp.Role),
			}
			if err := auth.Save(stateDir, sess); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]string{
				"username": sess.Username,
				"role":     string(sess.Role),
			}})
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			stateDir, err := app.stateDir()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := auth.Clear(stateDir); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": "signed out"})
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			stateDir, err := app.stateDir()
			if err != nil {
				return writeErr(cmd, err)
			}
			sess := auth.Load(stateDir)
			if !sess.SignedIn() {
				return writeErr(cmd, errors.New("not signed in; run `oneflow login`"))
			}
			return writeOut(cmd, app, map[string]any{"data": sess})
		},
	}
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check backend connectivity and session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, sess, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			backend := "ok"
			if err := client.Health(cmd.Context()); err != nil {
				backend = err.Error()
			}
			user := "(signed out)"
			if sess.SignedIn() {
				user = fmt.Sprintf("%s (%s)", sess.Username, sess.Role)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]string{
				"api":     client.BaseURL,
				"backend": backend,
				"user":    user,
			}})
		},
	}
}

// requireAdmin gates destructive project operations the way the portal UI
// does. Unauthenticated use (e.g. against a local dev server) is allowed;
// the backend still has the final say.
func requireAdmin(sess auth.Session, action string) error {
	if sess.SignedIn() && !sess.IsAdmin() {
		return fmt.Errorf("%s requires an admin role; signed in as %s (%s)", action, sess.Username, sess.Role)
	}
	return nil
}

package cli

import (
	"fmt"
	"os"
	"strings"

	"oneflow-cli/internal/auth"
	"oneflow-cli/internal/config"
	"oneflow-cli/internal/format"
	"oneflow-cli/internal/remote"
	"oneflow-cli/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	APIURL     string
	StateDir   string
	PrettyJSON bool
	Format     string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "oneflow",
		Short:        "OneFlow portal client (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  oneflow

  # Scriptable commands
  oneflow projects list
  oneflow tasks create --title "Map employee schema" ...

  # Run a local dev backend
  oneflow serve --seed
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.APIURL, "api", "", "Backend base URL (default: $ONEFLOW_API_URL or "+config.DefaultAPIURL+")")
	cmd.PersistentFlags().StringVar(&app.StateDir, "state-dir", "", "Local state dir for drafts and the login session (default: $ONEFLOW_STATE_DIR or the user config dir)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("ONEFLOW_FORMAT", "json"), "Output format (json|table)")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newStatusCmd(app))
	cmd.AddCommand(newProjectsCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newDraftsCmd(app))
	cmd.AddCommand(newServeCmd(app))

	return cmd
}

func runTUI(app *App) error {
	stateDir, err := config.StateDir(app.StateDir)
	if err != nil {
		return err
	}
	sess := auth.Load(stateDir)
	client := remote.NewClient(config.APIURL(app.APIURL), sess.Token)
	return tui.Run(tui.Config{
		Client:   client,
		StateDir: stateDir,
		Session:  sess,
	})
}

func (app *App) stateDir() (string, error) {
	return config.StateDir(app.StateDir)
}

// client builds the remote adapter with the persisted login token, if any.
func (app *App) client() (*remote.Client, auth.Session, error) {
	stateDir, err := app.stateDir()
	if err != nil {
		return nil, auth.Session{}, err
	}
	sess := auth.Load(stateDir)
	return remote.NewClient(config.APIURL(app.APIURL), sess.Token), sess, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

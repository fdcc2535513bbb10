package cli

import (
	"fmt"
	"net/http"

	"oneflow-cli/internal/devserver"

	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var seed bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local development backend",
		Long: "Runs an API-compatible stand-in for the portal backend, backed by a\n" +
			"local sqlite file in the state dir. Useful for demos and offline work:\n" +
			"point the client at it with --api or $ONEFLOW_API_URL.",
		RunE: func(cmd *cobra.Command, args []string) error {
			stateDir, err := app.stateDir()
			if err != nil {
				return writeErr(cmd, err)
			}
			srv, err := devserver.New(cmd.Context(), devserver.Config{
				Dir:  stateDir,
				Seed: seed,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			defer srv.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "oneflow dev server listening on http://%s/api\n", addr)
			if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "Listen address")
	cmd.Flags().BoolVar(&seed, "seed", false, "Seed sample projects and tasks on first run")
	return cmd
}

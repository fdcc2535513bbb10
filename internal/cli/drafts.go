package cli

import (
	"errors"

	"oneflow-cli/internal/draft"
	"oneflow-cli/internal/format"

	"github.com/spf13/cobra"
)

func newDraftsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Inspect and clear unsaved edit drafts",
	}
	cmd.AddCommand(newDraftsListCmd(app))
	cmd.AddCommand(newDraftsClearCmd(app))
	return cmd
}

func (app *App) draftStore() (draft.Store, error) {
	stateDir, err := app.stateDir()
	if err != nil {
		return draft.Store{}, err
	}
	return draft.Store{Dir: stateDir}, nil
}

func newDraftsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored draft keys, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.draftStore()
			if err != nil {
				return writeErr(cmd, err)
			}
			keys, err := store.Keys(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if app.Format == "table" {
				t := format.Table{Header: []string{"KEY"}}
				for _, k := range keys {
					t.Rows = append(t.Rows, []string{k})
				}
				return writeOut(cmd, app, t)
			}
			return writeOut(cmd, app, map[string]any{"data": keys})
		},
	}
}

func newDraftsClearCmd(app *App) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "clear [key]",
		Short: "Discard a stored draft (or all of them)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.draftStore()
			if err != nil {
				return writeErr(cmd, err)
			}
			switch {
			case all:
				keys, err := store.Keys(cmd.Context())
				if err != nil {
					return writeErr(cmd, err)
				}
				for _, k := range keys {
					if err := store.Clear(cmd.Context(), k); err != nil {
						return writeErr(cmd, err)
					}
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]int{"cleared": len(keys)}})
			case len(args) == 1:
				if err := store.Clear(cmd.Context(), args[0]); err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]int{"cleared": 1}})
			default:
				return writeErr(cmd, errors.New("pass a draft key or --all"))
			}
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Clear every stored draft")
	return cmd
}

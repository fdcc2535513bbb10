package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"oneflow-cli/internal/draft"
	"oneflow-cli/internal/engine"
	"oneflow-cli/internal/form"
	"oneflow-cli/internal/format"
	"oneflow-cli/internal/model"

	"github.com/spf13/cobra"
)

func newProjectsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List and mutate projects",
	}
	cmd.AddCommand(newProjectsListCmd(app))
	cmd.AddCommand(newProjectsCreateCmd(app))
	cmd.AddCommand(newProjectsEditCmd(app))
	cmd.AddCommand(newProjectsDeleteCmd(app))
	return cmd
}

// projectEngine builds a fully wired engine for one-shot CLI use. A zero
// debounce would still defer draft writes, so commands flush before exiting.
func (app *App) projectEngine() (*engine.Engine[model.Project, form.ProjectDraft], error) {
	client, _, err := app.client()
	if err != nil {
		return nil, err
	}
	stateDir, err := app.stateDir()
	if err != nil {
		return nil, err
	}
	return engine.New(engine.ProjectDescriptor(client.Projects()), engine.Options{
		Drafts: draft.Store{Dir: stateDir},
	}), nil
}

func newProjectsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.projectEngine()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := eng.Load(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			items := eng.List()
			if app.Format == "table" {
				return writeOut(cmd, app, projectTable(items))
			}
			return writeOut(cmd, app, map[string]any{"data": items})
		},
	}
}

func projectTable(items []model.Project) format.Table {
	t := format.Table{Header: []string{"ID", "NAME", "MANAGER", "STATUS", "PRIORITY", "PROGRESS", "DEADLINE", "TEAM"}}
	for _, p := range items {
		t.Rows = append(t.Rows, []string{
			p.ID, p.Name, p.Manager, string(p.Status), string(p.Priority),
			strconv.Itoa(p.Progress) + "%", p.Deadline, strconv.Itoa(p.TeamSize),
		})
	}
	return t
}

// projectFlags registers editable project fields and returns a closure that
// overlays the flags the user actually set onto a draft.
func projectFlags(cmd *cobra.Command) func(form.ProjectDraft) form.ProjectDraft {
	var d form.ProjectDraft
	cmd.Flags().StringVar(&d.Name, "name", "", "Project name")
	cmd.Flags().StringVar(&d.Description, "description", "", "Project description")
	cmd.Flags().StringVar(&d.Manager, "manager", "", "Project manager")
	cmd.Flags().StringVar(&d.Status, "status", "", "Status (Planned|In Progress|Completed|On Hold)")
	cmd.Flags().StringVar(&d.Priority, "priority", "", "Priority (Low|Medium|High|Critical)")
	cmd.Flags().StringVar(&d.Deadline, "deadline", "", "Deadline (YYYY-MM-DD)")
	cmd.Flags().StringVar(&d.TeamSize, "team-size", "", "Team size (1-100)")
	cmd.Flags().StringVar(&d.Progress, "progress", "", "Progress (0-100)")

	return func(base form.ProjectDraft) form.ProjectDraft {
		set := func(dst *string, flag, v string) {
			if cmd.Flags().Changed(flag) {
				*dst = v
			}
		}
		set(&base.Name, "name", d.Name)
		set(&base.Description, "description", d.Description)
		set(&base.Manager, "manager", d.Manager)
		set(&base.Status, "status", d.Status)
		set(&base.Priority, "priority", d.Priority)
		set(&base.Deadline, "deadline", d.Deadline)
		set(&base.TeamSize, "team-size", d.TeamSize)
		set(&base.Progress, "progress", d.Progress)
		return base
	}
}

func newProjectsCreateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
	}
	overlay := projectFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		_, sess, err := app.client()
		if err != nil {
			return writeErr(cmd, err)
		}
		if err := requireAdmin(sess, "creating projects"); err != nil {
			return writeErr(cmd, err)
		}
		eng, err := app.projectEngine()
		if err != nil {
			return writeErr(cmd, err)
		}
		s := eng.NewSession()
		if err := s.OpenNew(cmd.Context()); err != nil {
			return writeErr(cmd, err)
		}
		return submitProject(cmd, app, eng, s, overlay)
	}
	return cmd
}

func newProjectsEditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a project",
		Args:  cobra.ExactArgs(1),
	}
	overlay := projectFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		eng, err := app.projectEngine()
		if err != nil {
			return writeErr(cmd, err)
		}
		if err := eng.Load(cmd.Context()); err != nil {
			return writeErr(cmd, err)
		}
		s := eng.NewSession()
		if err := s.OpenEdit(cmd.Context(), args[0]); err != nil {
			return writeErr(cmd, err)
		}
		return submitProject(cmd, app, eng, s, overlay)
	}
	return cmd
}

func submitProject(cmd *cobra.Command, app *App, eng *engine.Engine[model.Project, form.ProjectDraft],
	s *engine.Session[model.Project, form.ProjectDraft], overlay func(form.ProjectDraft) form.ProjectDraft) error {

	s.SetDraft(overlay(s.Draft()))
	if err := s.Submit(cmd.Context()); err != nil {
		// Any failed submit keeps the draft around; a later `create`/`edit`
		// resumes it. The debounced save must land before the process exits.
		if ferr := eng.FlushDrafts(context.WithoutCancel(cmd.Context())); ferr != nil {
			return writeErr(cmd, ferr)
		}
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			return writeErr(cmd, validationMessage(verr))
		}
		return writeErr(cmd, err)
	}
	return writeOut(cmd, app, map[string]any{"data": eng.List()})
}

func validationMessage(verr *engine.ValidationError) error {
	msg := "invalid draft (kept for later):"
	for _, f := range verr.Fields.Fields() {
		msg += fmt.Sprintf("\n  %s: %s", f, verr.Fields[f])
	}
	return errors.New(msg)
}

func newProjectsDeleteCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return writeErr(cmd, errors.New("deleting is permanent; re-run with --yes to confirm"))
			}
			_, sess, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := requireAdmin(sess, "deleting projects"); err != nil {
				return writeErr(cmd, err)
			}
			eng, err := app.projectEngine()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := eng.Load(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			if err := eng.Delete(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": eng.List()})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	return cmd
}

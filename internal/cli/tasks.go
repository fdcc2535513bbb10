package cli

import (
	"context"
	"errors"

	"oneflow-cli/internal/draft"
	"oneflow-cli/internal/engine"
	"oneflow-cli/internal/form"
	"oneflow-cli/internal/format"
	"oneflow-cli/internal/model"

	"github.com/spf13/cobra"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and mutate tasks",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksCreateCmd(app))
	cmd.AddCommand(newTasksEditCmd(app))
	cmd.AddCommand(newTasksDeleteCmd(app))
	return cmd
}

func (app *App) taskEngine() (*engine.Engine[model.Task, form.TaskDraft], error) {
	client, _, err := app.client()
	if err != nil {
		return nil, err
	}
	stateDir, err := app.stateDir()
	if err != nil {
		return nil, err
	}
	return engine.New(engine.TaskDescriptor(client.Tasks()), engine.Options{
		Drafts: draft.Store{Dir: stateDir},
	}), nil
}

func newTasksListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.taskEngine()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := eng.Load(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			items := eng.List()
			if app.Format == "table" {
				return writeOut(cmd, app, taskTable(items))
			}
			return writeOut(cmd, app, map[string]any{"data": items})
		},
	}
}

func taskTable(items []model.Task) format.Table {
	t := format.Table{Header: []string{"ID", "TITLE", "PROJECT", "ASSIGNEE", "DUE", "PRIORITY", "STATE"}}
	for _, task := range items {
		t.Rows = append(t.Rows, []string{
			task.ID, task.Title, task.Project, task.Assignee, task.Due,
			string(task.Priority), string(task.State),
		})
	}
	return t
}

func taskFlags(cmd *cobra.Command) func(form.TaskDraft) form.TaskDraft {
	var d form.TaskDraft
	cmd.Flags().StringVar(&d.Title, "title", "", "Task title")
	cmd.Flags().StringVar(&d.Description, "description", "", "Task description")
	cmd.Flags().StringVar(&d.ProjectID, "project", "", "Parent project id")
	cmd.Flags().StringVar(&d.Assignee, "assignee", "", "Assignee")
	cmd.Flags().StringVar(&d.Due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&d.Priority, "priority", "", "Priority (Low|Medium|High|Critical)")
	cmd.Flags().StringVar(&d.State, "state", "", "State (New|In Progress|Done)")
	cmd.Flags().StringVar(&d.Tags, "tags", "", "Comma-separated tags")

	return func(base form.TaskDraft) form.TaskDraft {
		set := func(dst *string, flag, v string) {
			if cmd.Flags().Changed(flag) {
				*dst = v
			}
		}
		set(&base.Title, "title", d.Title)
		set(&base.Description, "description", d.Description)
		set(&base.ProjectID, "project", d.ProjectID)
		set(&base.Assignee, "assignee", d.Assignee)
		set(&base.Due, "due", d.Due)
		set(&base.Priority, "priority", d.Priority)
		set(&base.State, "state", d.State)
		set(&base.Tags, "tags", d.Tags)
		return base
	}
}

func newTasksCreateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
	}
	overlay := taskFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		eng, err := app.taskEngine()
		if err != nil {
			return writeErr(cmd, err)
		}
		s := eng.NewSession()
		if err := s.OpenNew(cmd.Context()); err != nil {
			return writeErr(cmd, err)
		}
		return submitTask(cmd, app, eng, s, overlay)
	}
	return cmd
}

func newTasksEditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a task",
		Args:  cobra.ExactArgs(1),
	}
	overlay := taskFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		eng, err := app.taskEngine()
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
		return submitTask(cmd, app, eng, s, overlay)
	}
	return cmd
}

func submitTask(cmd *cobra.Command, app *App, eng *engine.Engine[model.Task, form.TaskDraft],
	s *engine.Session[model.Task, form.TaskDraft], overlay func(form.TaskDraft) form.TaskDraft) error {

	s.SetDraft(overlay(s.Draft()))
	if err := s.Submit(cmd.Context()); err != nil {
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

func newTasksDeleteCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return writeErr(cmd, errors.New("deleting is permanent; re-run with --yes to confirm"))
			}
			eng, err := app.taskEngine()
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

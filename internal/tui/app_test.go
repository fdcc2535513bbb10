package tui

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"oneflow-cli/internal/auth"
	"oneflow-cli/internal/devserver"
	"oneflow-cli/internal/engine"
	"oneflow-cli/internal/form"
	"oneflow-cli/internal/remote"

	tea "github.com/charmbracelet/bubbletea"
)

func testNow() time.Time {
	return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
}

func newTestApp(t *testing.T, sess auth.Session) appModel {
	t.Helper()
	srv, err := devserver.New(context.Background(), devserver.Config{
		Dir:  t.TempDir(),
		Seed: true,
	})
	if err != nil {
		t.Fatalf("devserver.New: %v", err)
	}
	t.Cleanup(func() { srv.Close() })
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	m := newAppModel(Config{
		Client:   remote.NewClient(ts.URL+"/api", sess.Token),
		StateDir: t.TempDir(),
		Session:  sess,
	})

	var mm tea.Model = m
	mm, _ = mm.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	mm = drain(t, mm, m.Init())
	return mm.(appModel)
}

// drain runs commands synchronously until the model settles, the test
// stand-in for bubbletea's event loop.
func drain(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		if msg == nil {
			continue
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		var next tea.Cmd
		m, next = m.Update(msg)
		if next != nil {
			queue = append(queue, next)
		}
	}
	return m
}

func send(t *testing.T, m tea.Model, msg tea.Msg) tea.Model {
	t.Helper()
	m, cmd := m.Update(msg)
	return drain(t, m, cmd)
}

func TestInitialLoadFillsBothPanes(t *testing.T) {
	m := newTestApp(t, auth.Session{})
	if len(m.projList.Items()) == 0 {
		t.Fatal("expected seeded projects in the list")
	}
	if len(m.taskList.Items()) == 0 {
		t.Fatal("expected seeded tasks in the list")
	}

	m2 := send(t, m, keyMsg("tab")).(appModel)
	if m2.pane != paneTasks {
		t.Fatalf("tab should switch panes, got %v", m2.pane)
	}
}

func TestCreateProjectThroughEditor(t *testing.T) {
	m := newTestApp(t, auth.Session{})
	before := m.projects.Len()

	m = send(t, m, keyMsg("n")).(appModel)
	if m.mode != modeEdit {
		t.Fatalf("mode after n = %v", m.mode)
	}

	draft := form.ProjectDraft{
		Name:        "Vendor Audit",
		Description: "Review every vendor contract for renewal.",
		Manager:     "Dana",
		Status:      "Planned",
		Deadline:    "2099-04-01",
		TeamSize:    "3",
		Progress:    "0",
	}
	m.fields = newFieldsModel(projectFieldDefs(), projectFieldValues(draft), m.width)
	m.projSess.SetDraft(draft)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS}).(appModel)
	if m.mode != modeList {
		t.Fatalf("editor should close after a successful save, state %s", m.projSess.State())
	}
	if m.projects.Len() != before+1 {
		t.Fatalf("project count = %d, want %d", m.projects.Len(), before+1)
	}
	if !m.projects.CanUndo() {
		t.Fatal("a saved create must be undoable")
	}
}

func TestInvalidSubmitStaysInEditor(t *testing.T) {
	m := newTestApp(t, auth.Session{})
	m = send(t, m, keyMsg("n")).(appModel)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS}).(appModel)
	if m.mode != modeEdit {
		t.Fatalf("invalid draft must keep the editor open, mode %v", m.mode)
	}
	if m.projSess.Errors().OK() {
		t.Fatal("expected validation errors on an empty draft")
	}
}

func TestEscWithChangesAsksForConfirmation(t *testing.T) {
	m := newTestApp(t, auth.Session{})
	m = send(t, m, keyMsg("n")).(appModel)

	// Untouched editor closes silently.
	m2 := send(t, m, tea.KeyMsg{Type: tea.KeyEsc}).(appModel)
	if m2.mode != modeList {
		t.Fatalf("clean close should not prompt, mode %v", m2.mode)
	}

	m = send(t, m2, keyMsg("n")).(appModel)
	m = send(t, m, keyMsg("x")).(appModel)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc}).(appModel)
	if m.mode != modeConfirmDiscard {
		t.Fatalf("dirty close should prompt, mode %v", m.mode)
	}

	// Esc at the prompt keeps editing with the change intact.
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc}).(appModel)
	if m.mode != modeEdit {
		t.Fatalf("keep editing should return to the editor, mode %v", m.mode)
	}
	if m.fields.Values()["name"] != "x" {
		t.Fatalf("field change lost: %q", m.fields.Values()["name"])
	}
}

func TestDeleteConfirmAndUndo(t *testing.T) {
	m := newTestApp(t, auth.Session{})
	before := m.projects.Len()

	m = send(t, m, keyMsg("d")).(appModel)
	if m.mode != modeConfirmDelete {
		t.Fatalf("mode after d = %v", m.mode)
	}
	// Default focus is Cancel; enter must not delete.
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter}).(appModel)
	if m.projects.Len() != before {
		t.Fatal("cancel must not delete")
	}

	m = send(t, m, keyMsg("d")).(appModel)
	m = send(t, m, keyMsg("tab")).(appModel)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter}).(appModel)
	if m.projects.Len() != before-1 {
		t.Fatalf("project count after delete = %d, want %d", m.projects.Len(), before-1)
	}

	m = send(t, m, keyMsg("u")).(appModel)
	if m.projects.Len() != before {
		t.Fatalf("undo should restore the row locally, count %d", m.projects.Len())
	}
}

func TestRoleGateBlocksProjectMutations(t *testing.T) {
	member := auth.Session{Token: "t", Username: "bob", Role: auth.RoleTeamMember}
	m := newTestApp(t, member)

	m2 := send(t, m, keyMsg("n")).(appModel)
	if m2.mode != modeList {
		t.Fatalf("team member must not open the project editor, mode %v", m2.mode)
	}
	if m2.notice == "" {
		t.Fatal("expected a notice explaining the gate")
	}

	m2 = send(t, m2, keyMsg("d")).(appModel)
	if m2.mode != modeList {
		t.Fatal("team member must not reach the delete prompt")
	}

	// Tasks are not gated.
	m2 = send(t, m2, keyMsg("tab")).(appModel)
	m2 = send(t, m2, keyMsg("n")).(appModel)
	if m2.mode != modeEdit {
		t.Fatalf("task editor should open for any role, mode %v", m2.mode)
	}
}

func TestRemoteFailureKeepsEditorOpen(t *testing.T) {
	m := newTestApp(t, auth.Session{})
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab}).(appModel)
	m = send(t, m, keyMsg("n")).(appModel)

	// A task pointing at a project the server does not know is rejected
	// remotely but passes local validation.
	draft := form.TaskDraft{
		Title:       "Ghost task",
		Description: "Refers to a project that is gone.",
		ProjectID:   "p-missing",
		Assignee:    "Ola",
		Due:         "2099-01-10",
		Priority:    "Low",
		State:       "New",
	}
	m.fields = newFieldsModel(taskFieldDefs([]string{"p-missing"}), taskFieldValues(draft), m.width)
	m.taskSess.SetDraft(draft)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS}).(appModel)
	if m.mode != modeEdit {
		t.Fatalf("remote rejection should keep the editor open, mode %v", m.mode)
	}
	if m.taskSess.RemoteError() == "" {
		t.Fatal("expected the server message to surface")
	}
	if m.taskSess.State() != engine.StateEditing {
		t.Fatalf("session state = %s", m.taskSess.State())
	}
}

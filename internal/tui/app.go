package tui

import (
	"context"
	"fmt"
	"strings"

	"oneflow-cli/internal/collection"
	"oneflow-cli/internal/draft"
	"oneflow-cli/internal/engine"
	"oneflow-cli/internal/form"
	"oneflow-cli/internal/history"
	"oneflow-cli/internal/model"
	"oneflow-cli/internal/remote"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

type pane int

const (
	paneProjects pane = iota
	paneTasks
)

type mode int

const (
	modeList mode = iota
	modeEdit
	modeConfirmDiscard
	modeConfirmDelete
)

type appModel struct {
	cfg    Config
	width  int
	height int

	pane pane
	mode mode

	projects *engine.Engine[model.Project, form.ProjectDraft]
	tasks    *engine.Engine[model.Task, form.TaskDraft]
	projSess *engine.Session[model.Project, form.ProjectDraft]
	taskSess *engine.Session[model.Task, form.TaskDraft]

	projList list.Model
	taskList list.Model

	fields   fieldsModel
	editKind model.Kind

	confirmFocus confirmModalFocus
	deleteKind   model.Kind
	deleteID     string
	deleteLabel  string

	notice string
}

// Messages produced by remote I/O commands. Remote calls are the only work
// that leaves the update loop; every state transition happens back here.
type (
	projectsLoadedMsg struct {
		items []model.Project
		err   error
	}
	tasksLoadedMsg struct {
		items []model.Task
		err   error
	}
	projectSavedMsg struct {
		entity model.Project
		err    error
	}
	taskSavedMsg struct {
		entity model.Task
		err    error
	}
	projectDeletedMsg struct {
		id  string
		err error
	}
	taskDeletedMsg struct {
		id  string
		err error
	}
	mirrorPushedMsg struct {
		err error
	}
)

func newAppModel(cfg Config) appModel {
	store := draft.Store{Dir: cfg.StateDir}
	opts := engine.Options{Drafts: store}

	projects := engine.New(engine.ProjectDescriptor(cfg.Client.Projects()), opts)
	tasks := engine.New(engine.TaskDescriptor(cfg.Client.Tasks()), opts)

	newPaneList := func(title string) list.Model {
		l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
		l.Title = title
		l.SetShowHelp(false)
		l.SetShowStatusBar(false)
		l.SetFilteringEnabled(true)
		return l
	}

	return appModel{
		cfg:      cfg,
		projects: projects,
		tasks:    tasks,
		projSess: projects.NewSession(),
		taskSess: tasks.NewSession(),
		projList: newPaneList("Projects"),
		taskList: newPaneList("Tasks"),
	}
}

// canMutateProjects mirrors the portal's role gate: project create/delete is
// reserved for admins. An unauthenticated session (local dev backend) is not
// gated; the server still enforces its own rules.
func (m appModel) canMutateProjects() bool {
	return !m.cfg.Session.SignedIn() || m.cfg.Session.IsAdmin()
}

type entityItem struct {
	id    string
	title string
	desc  string
}

func (it entityItem) Title() string       { return it.title }
func (it entityItem) Description() string { return it.desc }
func (it entityItem) FilterValue() string { return it.title }

func projectItems(items []model.Project) []list.Item {
	out := make([]list.Item, 0, len(items))
	for _, p := range items {
		out = append(out, entityItem{
			id:    p.ID,
			title: p.Name,
			desc:  fmt.Sprintf("%s · %s · due %s · team %d · %d%%", p.Manager, p.Status, p.Deadline, p.TeamSize, p.Progress),
		})
	}
	return out
}

func taskItems(items []model.Task) []list.Item {
	out := make([]list.Item, 0, len(items))
	for _, t := range items {
		project := t.Project
		if project == "" {
			project = t.ProjectID
		}
		out = append(out, entityItem{
			id:    t.ID,
			title: t.Title,
			desc:  fmt.Sprintf("%s · %s · %s · due %s", project, t.Assignee, t.State, t.Due),
		})
	}
	return out
}

func (m *appModel) refreshProjects() { m.projList.SetItems(projectItems(m.projects.List())) }
func (m *appModel) refreshTasks()    { m.taskList.SetItems(taskItems(m.tasks.List())) }

func (m *appModel) selectedID() string {
	var it list.Item
	if m.pane == paneProjects {
		it = m.projList.SelectedItem()
	} else {
		it = m.taskList.SelectedItem()
	}
	if it == nil {
		return ""
	}
	return it.(entityItem).id
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.loadProjectsCmd(), m.loadTasksCmd())
}

func (m *appModel) loadProjectsCmd() tea.Cmd {
	if !m.projects.BeginLoad() {
		return nil
	}
	svc := m.cfg.Client.Projects()
	return func() tea.Msg {
		items, err := svc.List(context.Background())
		return projectsLoadedMsg{items: items, err: err}
	}
}

func (m *appModel) loadTasksCmd() tea.Cmd {
	if !m.tasks.BeginLoad() {
		return nil
	}
	svc := m.cfg.Client.Tasks()
	return func() tea.Msg {
		items, err := svc.List(context.Background())
		return tasksLoadedMsg{items: items, err: err}
	}
}

func saveProjectCmd(svc remote.Service[model.Project], req engine.SubmitRequest) tea.Cmd {
	return func() tea.Msg {
		var e model.Project
		var err error
		if req.Create {
			e, err = svc.Create(context.Background(), req.Payload)
		} else {
			e, err = svc.Update(context.Background(), req.ID, req.Payload)
		}
		return projectSavedMsg{entity: e, err: err}
	}
}

func saveTaskCmd(svc remote.Service[model.Task], req engine.SubmitRequest) tea.Cmd {
	return func() tea.Msg {
		var e model.Task
		var err error
		if req.Create {
			e, err = svc.Create(context.Background(), req.Payload)
		} else {
			e, err = svc.Update(context.Background(), req.ID, req.Payload)
		}
		return taskSavedMsg{entity: e, err: err}
	}
}

func deleteCmd[E collection.Entity](svc remote.Service[E], id string, wrap func(string, error) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		err := svc.Delete(context.Background(), id)
		return wrap(id, err)
	}
}

// pushCmd fires the best-effort mirror write for an undo/redo. The result is
// surfaced as a notice only; local state is already settled.
func pushCmd[E collection.Entity, D any](eng *engine.Engine[E, D], rec history.Record[E], inverted bool) tea.Cmd {
	return func() tea.Msg {
		return mirrorPushedMsg{err: eng.PushRecord(context.Background(), rec, inverted)}
	}
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listHeight := m.height - chromeHeight - detailHeight
		if listHeight < 3 {
			listHeight = 3
		}
		m.projList.SetSize(m.width, listHeight)
		m.taskList.SetSize(m.width, listHeight)
		return m, nil

	case projectsLoadedMsg:
		if err := m.projects.FinishLoad(msg.items, msg.err); err != nil {
			m.notice = "projects: " + err.Error()
			return m, nil
		}
		m.refreshProjects()
		return m, nil

	case tasksLoadedMsg:
		if err := m.tasks.FinishLoad(msg.items, msg.err); err != nil {
			m.notice = "tasks: " + err.Error()
			return m, nil
		}
		m.refreshTasks()
		return m, nil

	case projectSavedMsg:
		if err := m.projSess.Resolve(msg.entity, msg.err); err != nil {
			m.notice = err.Error()
		}
		if m.projSess.State() == engine.StateClosed {
			m.mode = modeList
			m.refreshProjects()
			m.notice = "saved " + msg.entity.Name
		}
		return m, nil

	case taskSavedMsg:
		if err := m.taskSess.Resolve(msg.entity, msg.err); err != nil {
			m.notice = err.Error()
		}
		if m.taskSess.State() == engine.StateClosed {
			m.mode = modeList
			m.refreshTasks()
			m.notice = "saved " + msg.entity.Title
		}
		return m, nil

	case projectDeletedMsg:
		if err := m.projects.FinishDelete(msg.id, msg.err); err != nil {
			m.notice = "delete failed: " + err.Error()
		} else {
			m.refreshProjects()
			m.notice = "deleted"
		}
		return m, nil

	case taskDeletedMsg:
		if err := m.tasks.FinishDelete(msg.id, msg.err); err != nil {
			m.notice = "delete failed: " + err.Error()
		} else {
			m.refreshTasks()
			m.notice = "deleted"
		}
		return m, nil

	case mirrorPushedMsg:
		if msg.err != nil {
			m.notice = "sync pending: " + msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeEdit:
			return m.updateEdit(msg)
		case modeConfirmDiscard:
			return m.updateConfirmDiscard(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m appModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// When the list filter is active, keys belong to the filter input.
	active := &m.projList
	if m.pane == paneTasks {
		active = &m.taskList
	}
	if active.FilterState() == list.Filtering {
		var cmd tea.Cmd
		*active, cmd = active.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		ctx := context.Background()
		_ = m.projects.FlushDrafts(ctx)
		_ = m.tasks.FlushDrafts(ctx)
		return m, tea.Quit

	case "tab":
		if m.pane == paneProjects {
			m.pane = paneTasks
		} else {
			m.pane = paneProjects
		}
		return m, nil

	case "r":
		return m, tea.Batch(m.loadProjectsCmd(), m.loadTasksCmd())

	case "n":
		return m.openCreate()

	case "enter":
		return m.openEdit(m.selectedID())

	case "d":
		return m.openDeleteConfirm(m.selectedID())

	case "u":
		return m.undo()

	case "ctrl+r":
		return m.redo()
	}

	var cmd tea.Cmd
	*active, cmd = active.Update(msg)
	return m, cmd
}

func (m appModel) openCreate() (tea.Model, tea.Cmd) {
	m.notice = ""
	if m.pane == paneProjects {
		if !m.canMutateProjects() {
			m.notice = "your role cannot create projects"
			return m, nil
		}
		if err := m.projSess.OpenNew(context.Background()); err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.editKind = model.KindProject
		m.fields = newFieldsModel(projectFieldDefs(), projectFieldValues(m.projSess.Draft()), m.width)
	} else {
		if err := m.taskSess.OpenNew(context.Background()); err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.editKind = model.KindTask
		m.fields = newFieldsModel(taskFieldDefs(m.projectChoiceIDs()), taskFieldValues(m.taskSess.Draft()), m.width)
	}
	m.mode = modeEdit
	return m, nil
}

func (m appModel) openEdit(id string) (tea.Model, tea.Cmd) {
	if id == "" {
		return m, nil
	}
	m.notice = ""
	if m.pane == paneProjects {
		if err := m.projSess.OpenEdit(context.Background(), id); err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.editKind = model.KindProject
		m.fields = newFieldsModel(projectFieldDefs(), projectFieldValues(m.projSess.Draft()), m.width)
	} else {
		if err := m.taskSess.OpenEdit(context.Background(), id); err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.editKind = model.KindTask
		m.fields = newFieldsModel(taskFieldDefs(m.projectChoiceIDs()), taskFieldValues(m.taskSess.Draft()), m.width)
	}
	m.mode = modeEdit
	return m, nil
}

func (m appModel) projectChoiceIDs() []string {
	projects := m.projects.List()
	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	return ids
}

func (m appModel) openDeleteConfirm(id string) (tea.Model, tea.Cmd) {
	if id == "" {
		return m, nil
	}
	m.notice = ""
	if m.pane == paneProjects {
		if !m.canMutateProjects() {
			m.notice = "your role cannot delete projects"
			return m, nil
		}
		p, ok := m.projects.BeginDelete(id)
		if !ok {
			return m, nil
		}
		m.deleteKind = model.KindProject
		m.deleteLabel = p.Name
	} else {
		t, ok := m.tasks.BeginDelete(id)
		if !ok {
			return m, nil
		}
		m.deleteKind = model.KindTask
		m.deleteLabel = t.Title
	}
	m.deleteID = id
	m.confirmFocus = confirmFocusCancel
	m.mode = modeConfirmDelete
	return m, nil
}

func (m appModel) undo() (tea.Model, tea.Cmd) {
	if m.pane == paneProjects {
		rec, ok, err := m.projects.Undo()
		if err != nil {
			m.notice = "undo failed: " + err.Error()
			return m, nil
		}
		if !ok {
			m.notice = "nothing to undo"
			return m, nil
		}
		m.refreshProjects()
		m.notice = "undid " + string(rec.Op)
		return m, pushCmd(m.projects, rec, true)
	}
	rec, ok, err := m.tasks.Undo()
	if err != nil {
		m.notice = "undo failed: " + err.Error()
		return m, nil
	}
	if !ok {
		m.notice = "nothing to undo"
		return m, nil
	}
	m.refreshTasks()
	m.notice = "undid " + string(rec.Op)
	return m, pushCmd(m.tasks, rec, true)
}

func (m appModel) redo() (tea.Model, tea.Cmd) {
	if m.pane == paneProjects {
		rec, ok, err := m.projects.Redo()
		if err != nil {
			m.notice = "redo failed: " + err.Error()
			return m, nil
		}
		if !ok {
			m.notice = "nothing to redo"
			return m, nil
		}
		m.refreshProjects()
		m.notice = "redid " + string(rec.Op)
		return m, pushCmd(m.projects, rec, false)
	}
	rec, ok, err := m.tasks.Redo()
	if err != nil {
		m.notice = "redo failed: " + err.Error()
		return m, nil
	}
	if !ok {
		m.notice = "nothing to redo"
		return m, nil
	}
	m.refreshTasks()
	m.notice = "redid " + string(rec.Op)
	return m, pushCmd(m.tasks, rec, false)
}

func (m appModel) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While a submit is outstanding the editor is inert; the in-flight
	// result still lands and settles the session.
	if m.editorState() == engine.StateSubmitting {
		return m, nil
	}

	switch msg.String() {
	case "ctrl+s":
		if m.editKind == model.KindProject {
			req, ok := m.projSess.BeginSubmit()
			if !ok {
				return m, nil
			}
			return m, saveProjectCmd(m.cfg.Client.Projects(), req)
		}
		req, ok := m.taskSess.BeginSubmit()
		if !ok {
			return m, nil
		}
		return m, saveTaskCmd(m.cfg.Client.Tasks(), req)

	case "esc":
		var closed bool
		if m.editKind == model.KindProject {
			closed = m.projSess.RequestClose()
		} else {
			closed = m.taskSess.RequestClose()
		}
		if closed {
			m.mode = modeList
		} else {
			m.confirmFocus = confirmFocusCancel
			m.mode = modeConfirmDiscard
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.fields, cmd = m.fields.Update(msg)
	if m.editKind == model.KindProject {
		m.projSess.SetDraft(projectDraftFromValues(m.fields.Values()))
	} else {
		m.taskSess.SetDraft(taskDraftFromValues(m.fields.Values()))
	}
	return m, cmd
}

func (m appModel) editorState() engine.State {
	if m.editKind == model.KindProject {
		return m.projSess.State()
	}
	return m.taskSess.State()
}

func (m appModel) updateConfirmDiscard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "left", "right":
		if m.confirmFocus == confirmFocusConfirm {
			m.confirmFocus = confirmFocusCancel
		} else {
			m.confirmFocus = confirmFocusConfirm
		}
		return m, nil
	case "enter":
		if m.confirmFocus == confirmFocusConfirm {
			var err error
			if m.editKind == model.KindProject {
				err = m.projSess.ConfirmDiscard(context.Background())
			} else {
				err = m.taskSess.ConfirmDiscard(context.Background())
			}
			if err != nil {
				m.notice = err.Error()
			}
			m.mode = modeList
			return m, nil
		}
		fallthrough
	case "esc":
		if m.editKind == model.KindProject {
			m.projSess.KeepEditing()
		} else {
			m.taskSess.KeepEditing()
		}
		m.mode = modeEdit
		return m, nil
	}
	return m, nil
}

func (m appModel) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "left", "right":
		if m.confirmFocus == confirmFocusConfirm {
			m.confirmFocus = confirmFocusCancel
		} else {
			m.confirmFocus = confirmFocusConfirm
		}
		return m, nil
	case "enter":
		if m.confirmFocus != confirmFocusConfirm {
			m.mode = modeList
			return m, nil
		}
		m.mode = modeList
		id := m.deleteID
		if m.deleteKind == model.KindProject {
			return m, deleteCmd(m.cfg.Client.Projects(), id, func(id string, err error) tea.Msg {
				return projectDeletedMsg{id: id, err: err}
			})
		}
		return m, deleteCmd(m.cfg.Client.Tasks(), id, func(id string, err error) tea.Msg {
			return taskDeletedMsg{id: id, err: err}
		})
	case "esc":
		m.mode = modeList
		return m, nil
	}
	return m, nil
}

const (
	chromeHeight = 4 // header + tabs + help + notice
	detailHeight = 8
)

func (m appModel) View() string {
	if m.width == 0 {
		return "loading..."
	}

	switch m.mode {
	case modeEdit:
		return m.placeCentered(m.viewEditor())
	case modeConfirmDiscard:
		body := "Discard unsaved changes?"
		return m.placeCentered(renderConfirmModal(m.width, "Unsaved changes", body, "Discard", "Keep editing", m.confirmFocus))
	case modeConfirmDelete:
		body := fmt.Sprintf("Delete %s %q? This cannot be undone on the server.", m.deleteKind, m.deleteLabel)
		return m.placeCentered(renderConfirmModal(m.width, "Confirm delete", body, "Delete", "Cancel", m.confirmFocus))
	}
	return m.viewList()
}

func (m appModel) placeCentered(box string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m appModel) viewList() string {
	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString("\n")

	if m.pane == paneProjects {
		b.WriteString(m.projList.View())
	} else {
		b.WriteString(m.taskList.View())
	}
	b.WriteString("\n")
	b.WriteString(m.viewDetail())
	b.WriteString("\n")
	b.WriteString(m.viewFooter())
	return b.String()
}

func (m appModel) viewHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render("OneFlow")
	user := "signed out"
	if m.cfg.Session.SignedIn() {
		user = fmt.Sprintf("%s (%s)", m.cfg.Session.Username, m.cfg.Session.Role)
	}

	tab := func(label string, active bool) string {
		st := styleMuted()
		if active {
			st = lipgloss.NewStyle().Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg).Padding(0, 1)
			return st.Render(label)
		}
		return st.Padding(0, 1).Render(label)
	}
	tabs := tab("Projects", m.pane == paneProjects) + " " + tab("Tasks", m.pane == paneTasks)

	return title + "  " + tabs + "  " + styleMuted().Render(user)
}

// viewDetail renders the selected entity's description as markdown under the
// list, the closest the terminal gets to the portal's detail cards.
func (m appModel) viewDetail() string {
	var md string
	if m.pane == paneProjects {
		if p, ok := m.projects.Get(m.selectedID()); ok {
			md = p.Description
		}
	} else {
		if t, ok := m.tasks.Get(m.selectedID()); ok {
			md = t.Description
			if len(t.Tags) > 0 {
				md += "\n\n*tags: " + strings.Join(t.Tags, ", ") + "*"
			}
		}
	}
	if md == "" {
		return styleMuted().Render("(nothing selected)")
	}
	out := renderMarkdown(md, m.width-2)
	lines := strings.Split(out, "\n")
	if len(lines) > detailHeight-1 {
		lines = lines[:detailHeight-1]
		lines = append(lines, styleMuted().Render("…"))
	}
	for i, line := range lines {
		lines[i] = ansi.Truncate(line, m.width, "…")
	}
	return strings.Join(lines, "\n")
}

func (m appModel) viewFooter() string {
	help := "tab: switch   n: new   enter: edit   d: delete   u: undo   ctrl+r: redo   /: filter   r: reload   q: quit"
	keys := styleMuted().Render(help)
	if m.notice == "" {
		return keys
	}
	return keys + "\n" + lipgloss.NewStyle().Foreground(colorWarning).Render(m.notice)
}

func (m appModel) viewEditor() string {
	var (
		title     string
		errs      form.Errors
		remoteErr string
		recovered bool
		state     engine.State
	)
	if m.editKind == model.KindProject {
		if m.projSess.Creating() {
			title = "New project"
		} else {
			title = "Edit project"
		}
		errs = m.projSess.Errors()
		remoteErr = m.projSess.RemoteError()
		recovered = m.projSess.Recovered()
		state = m.projSess.State()
	} else {
		if m.taskSess.Creating() {
			title = "New task"
		} else {
			title = "Edit task"
		}
		errs = m.taskSess.Errors()
		remoteErr = m.taskSess.RemoteError()
		recovered = m.taskSess.Recovered()
		state = m.taskSess.State()
	}

	var parts []string
	if recovered {
		parts = append(parts, styleMuted().Render("Recovered an unsaved draft."), "")
	}
	parts = append(parts, m.fields.View(errs, m.width))
	if remoteErr != "" {
		parts = append(parts, "", styleError().Width(modalBodyWidth(m.width)).Render("server: "+remoteErr))
	}
	if state == engine.StateSubmitting {
		parts = append(parts, "", styleMuted().Render("saving…"))
	}
	parts = append(parts, "", styleMuted().Render("tab: next field   ctrl+s: save   esc: close"))

	return renderModalBox(m.width, title, strings.Join(parts, "\n"))
}

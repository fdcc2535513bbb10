package tui

import (
	"reflect"
	"strings"
	"testing"

	"oneflow-cli/internal/form"

	tea "github.com/charmbracelet/bubbletea"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestProjectFieldRoundTrip(t *testing.T) {
	d := form.ProjectDraft{
		Name:        "HR Portal",
		Description: "Employee self-service portal rollout.",
		Manager:     "Dana",
		Status:      "In Progress",
		Priority:    "High",
		Deadline:    "2099-05-01",
		TeamSize:    "5",
		Progress:    "40",
	}
	got := projectDraftFromValues(projectFieldValues(d))
	if !reflect.DeepEqual(got, d) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, d)
	}
}

func TestTaskFieldRoundTrip(t *testing.T) {
	d := form.TaskDraft{
		Title:       "Map schema",
		Description: "Document every field we sync.",
		ProjectID:   "p-1",
		Assignee:    "Ola",
		Due:         "2099-01-10",
		Priority:    "High",
		State:       "New",
		Tags:        "schema, sync",
	}
	got := taskDraftFromValues(taskFieldValues(d))
	if !reflect.DeepEqual(got, d) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, d)
	}
}

func TestFieldKeysMatchValidation(t *testing.T) {
	// Every validation error key must have a widget to render under,
	// otherwise a failing field would be invisible in the editor.
	var empty form.ProjectDraft
	errs := empty.Validate(testNow())
	keys := map[string]bool{}
	for _, def := range projectFieldDefs() {
		keys[def.key] = true
	}
	for _, f := range errs.Fields() {
		if !keys[f] {
			t.Errorf("project validation key %q has no editor field", f)
		}
	}

	var emptyTask form.TaskDraft
	terrs := emptyTask.Validate(testNow())
	keys = map[string]bool{}
	for _, def := range taskFieldDefs(nil) {
		keys[def.key] = true
	}
	for _, f := range terrs.Fields() {
		if !keys[f] {
			t.Errorf("task validation key %q has no editor field", f)
		}
	}
}

func TestFieldsFocusCycle(t *testing.T) {
	defs := projectFieldDefs()
	m := newFieldsModel(defs, map[string]string{}, 80)
	if m.focus != 0 {
		t.Fatalf("initial focus = %d", m.focus)
	}
	m, _ = m.Update(keyMsg("tab"))
	if m.focus != 1 {
		t.Fatalf("focus after tab = %d", m.focus)
	}
	m, _ = m.Update(keyMsg("shift+tab"))
	m, _ = m.Update(keyMsg("shift+tab"))
	if m.focus != len(defs)-1 {
		t.Fatalf("shift+tab should wrap to the last field, got %d", m.focus)
	}
}

func TestFieldsTypingAndValues(t *testing.T) {
	m := newFieldsModel(projectFieldDefs(), map[string]string{"name": "ab"}, 80)
	m, _ = m.Update(keyMsg("c"))
	v := m.Values()
	if v["name"] != "abc" {
		t.Fatalf("name = %q", v["name"])
	}
}

func TestChoiceCycling(t *testing.T) {
	m := newFieldsModel(projectFieldDefs(), map[string]string{"status": "Planned"}, 80)
	// Move focus to the status field.
	for i, def := range projectFieldDefs() {
		if def.key == "status" {
			m.setFocus(i)
			break
		}
	}
	m, _ = m.Update(keyMsg("right"))
	if got := m.Values()["status"]; got != "In Progress" {
		t.Fatalf("status after right = %q", got)
	}
	m, _ = m.Update(keyMsg("left"))
	m, _ = m.Update(keyMsg("left"))
	if got := m.Values()["status"]; got != "On Hold" {
		t.Fatalf("cycling should wrap, got %q", got)
	}
}

func TestFieldErrorsRenderUnderWidget(t *testing.T) {
	m := newFieldsModel(projectFieldDefs(), map[string]string{}, 80)
	errs := form.Errors{"name": "name is required"}
	out := m.View(errs, 80)
	if !strings.Contains(out, "name is required") {
		t.Fatalf("expected the error message in the view:\n%s", out)
	}
}

func TestConfirmModalShowsLabels(t *testing.T) {
	out := renderConfirmModal(80, "Unsaved changes", "Discard unsaved changes?", "Discard", "Keep editing", confirmFocusCancel)
	for _, want := range []string{"Unsaved changes", "Discard", "Keep editing"} {
		if !strings.Contains(out, want) {
			t.Errorf("confirm modal missing %q", want)
		}
	}
}

package form

import (
	"strconv"
	"strings"

	"oneflow-cli/internal/model"
)

// ProjectDraft is the editable projection of a Project. All fields are held
// as entered; validation and payload mapping happen at submit time.
type ProjectDraft struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Manager     string `json:"manager"`
	Status      string `json:"status"`
	Priority    string `json:"priority,omitempty"`
	Deadline    string `json:"deadline"` // YYYY-MM-DD
	TeamSize    string `json:"teamSize"`
	Progress    string `json:"progress"`
}

// TaskDraft is the editable projection of a Task.
type TaskDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ProjectID   string `json:"projectId"`
	Assignee    string `json:"assignee"`
	Due         string `json:"due"` // YYYY-MM-DD
	Priority    string `json:"priority"`
	State       string `json:"state"`
	Tags        string `json:"tags"` // comma-separated as typed
}

// ProjectBaseline projects an entity's editable fields into a draft.
// Sessions re-derive baselines from the live collection, never from a cached
// entity copy.
func ProjectBaseline(p model.Project) ProjectDraft {
	d := ProjectDraft{
		Name:        p.Name,
		Description: p.Description,
		Manager:     p.Manager,
		Status:      string(p.Status),
		Priority:    string(p.Priority),
		Deadline:    p.Deadline,
		Progress:    strconv.Itoa(p.Progress),
	}
	if p.TeamSize != 0 {
		d.TeamSize = strconv.Itoa(p.TeamSize)
	}
	return d
}

// EmptyProject is the baseline for a create session.
func EmptyProject() ProjectDraft {
	return ProjectDraft{Status: string(model.ProjectPlanned), Progress: "0"}
}

func TaskBaseline(t model.Task) TaskDraft {
	return TaskDraft{
		Title:       t.Title,
		Description: t.Description,
		ProjectID:   t.ProjectID,
		Assignee:    t.Assignee,
		Due:         t.Due,
		Priority:    string(t.Priority),
		State:       string(t.State),
		Tags:        strings.Join(t.Tags, ", "),
	}
}

func EmptyTask() TaskDraft {
	return TaskDraft{Priority: string(model.PriorityMedium), State: string(model.TaskNew)}
}

// TagList splits the comma-separated tag input, dropping empties.
func (d TaskDraft) TagList() []string {
	parts := strings.Split(d.Tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

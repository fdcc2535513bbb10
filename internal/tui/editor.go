package tui

import (
	"oneflow-cli/internal/form"
)

// Field definitions for the two editors. Keys line up with the validation
// error keys so messages render under the offending widget.

func projectFieldDefs() []fieldDef {
	return []fieldDef{
		{key: "name", label: "Name", kind: fieldInput},
		{key: "description", label: "Description", kind: fieldArea, placeholder: "What is this project about? Markdown is fine."},
		{key: "manager", label: "Manager", kind: fieldInput},
		{key: "status", label: "Status", kind: fieldChoice, options: []string{"Planned", "In Progress", "Completed", "On Hold"}},
		{key: "priority", label: "Priority", kind: fieldChoice, options: []string{"", "Low", "Medium", "High", "Critical"}},
		{key: "deadline", label: "Deadline", kind: fieldInput, placeholder: "YYYY-MM-DD"},
		{key: "teamSize", label: "Team size", kind: fieldInput, placeholder: "1-100"},
		{key: "progress", label: "Progress", kind: fieldInput, placeholder: "0-100"},
	}
}

func projectFieldValues(d form.ProjectDraft) map[string]string {
	return map[string]string{
		"name":        d.Name,
		"description": d.Description,
		"manager":     d.Manager,
		"status":      d.Status,
		"priority":    d.Priority,
		"deadline":    d.Deadline,
		"teamSize":    d.TeamSize,
		"progress":    d.Progress,
	}
}

func projectDraftFromValues(v map[string]string) form.ProjectDraft {
	return form.ProjectDraft{
		Name:        v["name"],
		Description: v["description"],
		Manager:     v["manager"],
		Status:      v["status"],
		Priority:    v["priority"],
		Deadline:    v["deadline"],
		TeamSize:    v["teamSize"],
		Progress:    v["progress"],
	}
}

func taskFieldDefs(projectIDs []string) []fieldDef {
	return []fieldDef{
		{key: "title", label: "Title", kind: fieldInput},
		{key: "description", label: "Description", kind: fieldArea, placeholder: "What needs doing?"},
		{key: "projectId", label: "Project", kind: fieldChoice, options: projectIDs},
		{key: "assignee", label: "Assignee", kind: fieldInput},
		{key: "due", label: "Due", kind: fieldInput, placeholder: "YYYY-MM-DD"},
		{key: "priority", label: "Priority", kind: fieldChoice, options: []string{"Low", "Medium", "High", "Critical"}},
		{key: "state", label: "State", kind: fieldChoice, options: []string{"New", "In Progress", "Done"}},
		{key: "tags", label: "Tags", kind: fieldInput, placeholder: "comma, separated"},
	}
}

func taskFieldValues(d form.TaskDraft) map[string]string {
	return map[string]string{
		"title":       d.Title,
		"description": d.Description,
		"projectId":   d.ProjectID,
		"assignee":    d.Assignee,
		"due":         d.Due,
		"priority":    d.Priority,
		"state":       d.State,
		"tags":        d.Tags,
	}
}

func taskDraftFromValues(v map[string]string) form.TaskDraft {
	return form.TaskDraft{
		Title:       v["title"],
		Description: v["description"],
		ProjectID:   v["projectId"],
		Assignee:    v["assignee"],
		Due:         v["due"],
		Priority:    v["priority"],
		State:       v["state"],
		Tags:        v["tags"],
	}
}

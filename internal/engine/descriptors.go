package engine

import (
	"strconv"
	"strings"

	"oneflow-cli/internal/form"
	"oneflow-cli/internal/model"
	"oneflow-cli/internal/remote"
)

// ProjectDescriptor binds the generic engine to the Project entity type.
func ProjectDescriptor(svc remote.Service[model.Project]) Descriptor[model.Project, form.ProjectDraft] {
	return Descriptor[model.Project, form.ProjectDraft]{
		Kind:     model.KindProject,
		Service:  svc,
		Empty:    form.EmptyProject,
		Baseline: form.ProjectBaseline,
		Validate: form.ProjectDraft.Validate,
		Payload:  projectPayload,
	}
}

// TaskDescriptor binds the generic engine to the Task entity type.
func TaskDescriptor(svc remote.Service[model.Task]) Descriptor[model.Task, form.TaskDraft] {
	return Descriptor[model.Task, form.TaskDraft]{
		Kind:     model.KindTask,
		Service:  svc,
		Empty:    form.EmptyTask,
		Baseline: form.TaskBaseline,
		Validate: form.TaskDraft.Validate,
		Payload:  taskPayload,
	}
}

// projectPayload is the typed draft-to-request mapping. Numeric fields were
// validated before submit, so parse failures degrade to zero values.
func projectPayload(d form.ProjectDraft) any {
	return remote.ProjectPayload{
		Name:        strings.TrimSpace(d.Name),
		Description: strings.TrimSpace(d.Description),
		Manager:     strings.TrimSpace(d.Manager),
		Status:      strings.TrimSpace(d.Status),
		Priority:    strings.TrimSpace(d.Priority),
		Progress:    atoiOrZero(d.Progress),
		Deadline:    strings.TrimSpace(d.Deadline),
		TeamSize:    atoiOrZero(d.TeamSize),
	}
}

func taskPayload(d form.TaskDraft) any {
	return remote.TaskPayload{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		ProjectID:   strings.TrimSpace(d.ProjectID),
		Assignee:    strings.TrimSpace(d.Assignee),
		Due:         strings.TrimSpace(d.Due),
		Priority:    strings.TrimSpace(d.Priority),
		State:       strings.TrimSpace(d.State),
		Tags:        d.TagList(),
	}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

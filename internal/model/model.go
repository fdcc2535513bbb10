package model

// Kind identifies an editable entity type. The engine is generic; Kind is
// what keys draft storage and remote endpoints per type.
type Kind string

const (
	KindProject Kind = "project"
	KindTask    Kind = "task"
)

type ProjectStatus string

const (
	ProjectPlanned    ProjectStatus = "Planned"
	ProjectInProgress ProjectStatus = "In Progress"
	ProjectCompleted  ProjectStatus = "Completed"
	ProjectOnHold     ProjectStatus = "On Hold"
)

var ProjectStatuses = []ProjectStatus{ProjectPlanned, ProjectInProgress, ProjectCompleted, ProjectOnHold}

type TaskState string

const (
	TaskNew        TaskState = "New"
	TaskInProgress TaskState = "In Progress"
	TaskDone       TaskState = "Done"
)

var TaskStates = []TaskState{TaskNew, TaskInProgress, TaskDone}

type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Manager     string        `json:"manager"`
	Status      ProjectStatus `json:"status"`
	Priority    Priority      `json:"priority,omitempty"`
	Progress    int           `json:"progress"`
	Deadline    string        `json:"deadline"` // YYYY-MM-DD
	TeamSize    int           `json:"teamSize,omitempty"`

	// Display-only fields computed by the server; never edited locally.
	ManagerPhoto   string `json:"managerPhoto,omitempty"`
	CoverImage     string `json:"coverImage,omitempty"`
	TasksCompleted int    `json:"tasksCompleted,omitempty"`
	TotalTasks     int    `json:"totalTasks,omitempty"`
}

func (p Project) EntityID() string { return p.ID }

type SubtaskProgress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ProjectID   string    `json:"projectId"`
	Assignee    string    `json:"assignee"`
	Due         string    `json:"due"` // YYYY-MM-DD
	Priority    Priority  `json:"priority"`
	State       TaskState `json:"state"`
	Tags        []string  `json:"tags,omitempty"`

	// Display-only fields computed by the server.
	Project         string           `json:"project,omitempty"` // resolved project name
	AssigneeAvatar  string           `json:"assigneeAvatar,omitempty"`
	CoverImage      string           `json:"coverImage,omitempty"`
	SubtaskProgress *SubtaskProgress `json:"subtaskProgress,omitempty"`
}

func (t Task) EntityID() string { return t.ID }

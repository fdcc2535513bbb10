package remote

// Request payloads are explicit per entity type: the mapping from form
// drafts is a typed function at the boundary, not an ad-hoc field spread.

type ProjectPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Manager     string `json:"manager"`
	Status      string `json:"status"`
	Priority    string `json:"priority,omitempty"`
	Progress    int    `json:"progress"`
	Deadline    string `json:"deadline"`
	TeamSize    int    `json:"teamSize,omitempty"`
}

type TaskPayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ProjectID   string   `json:"projectId"`
	Assignee    string   `json:"assignee"`
	Due         string   `json:"due"`
	Priority    string   `json:"priority"`
	State       string   `json:"state"`
	Tags        []string `json:"tags"`
}

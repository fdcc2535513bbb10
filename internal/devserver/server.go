// Package devserver is a local stand-in for the OneFlow backend: the same
// REST surface (projects, tasks, auth, health) on a sqlite file, so the
// client runs end-to-end without the real deployment. Any username/password
// signs in; tokens live in memory for the server's lifetime.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"oneflow-cli/internal/auth"
	"oneflow-cli/internal/model"
	"oneflow-cli/internal/remote"

	"github.com/google/uuid"
)

type Config struct {
	Dir string // state directory for the sqlite file

	// Seed populates sample projects and tasks into an empty database.
	Seed bool
}

type Server struct {
	store *store

	mu       sync.Mutex
	sessions map[string]auth.Session // token -> session
}

func New(ctx context.Context, cfg Config) (*Server, error) {
	st, err := openStore(ctx, cfg.Dir)
	if err != nil {
		return nil, err
	}
	s := &Server{store: st, sessions: map[string]auth.Session{}}
	if cfg.Seed {
		if err := s.seed(ctx); err != nil {
			_ = st.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *Server) Close() error { return s.store.Close() }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/auth/signin", s.handleSignIn)
	mux.HandleFunc("GET /api/auth/me", s.handleMe)

	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	mux.HandleFunc("GET /api/projects/{id}", s.handleGetProject)
	mux.HandleFunc("PUT /api/projects/{id}", s.handleUpdateProject)
	mux.HandleFunc("DELETE /api/projects/{id}", s.handleDeleteProject)

	mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	mux.HandleFunc("POST /api/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PUT /api/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req remote.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		writeError(w, http.StatusUnauthorized, "username and password required")
		return
	}

	// Dev convenience: the role is derived from the username so every role
	// is reachable without user management ("member-*" and "finance-*"
	// prefixes downgrade from the default manager role).
	role := auth.RoleProjectManager
	switch {
	case username == "admin":
		role = auth.RoleSuperadmin
	case strings.HasPrefix(username, "member-"):
		role = auth.RoleTeamMember
	case strings.HasPrefix(username, "finance-"):
		role = auth.RoleSalesFinance
	}

	token := uuid.NewString()
	sess := auth.Session{Token: token, Username: username, Role: role}
	s.mu.Lock()
	s.sessions[token] = sess
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, remote.SignInResponse{
		Token:    token,
		Username: username,
		Role:     string(role),
	})
}

func (s *Server) sessionFor(r *http.Request) (auth.Session, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return auth.Session{}, false
	}
	token := strings.TrimPrefix(h, "Bearer ")
	s.mu.Lock()
	sess, ok := s.sessions[token]
	s.mu.Unlock()
	return sess, ok
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	writeJSON(w, http.StatusOK, remote.CurrentUser{Username: sess.Username, Email: sess.Email, Role: string(sess.Role)})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListProjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var p remote.ProjectPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(p.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	created := projectFromPayload(p, "p-"+uuid.NewString())
	if err := s.store.PutProject(r.Context(), created); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProject(r.Context(), r.PathValue("id"))
	if errors.Is(err, errNotFound) {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.GetProject(r.Context(), id); errors.Is(err, errNotFound) {
		writeError(w, http.StatusNotFound, "project not found")
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var p remote.ProjectPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated := projectFromPayload(p, id)
	if err := s.store.PutProject(r.Context(), updated); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteProject(r.Context(), r.PathValue("id"))
	if errors.Is(err, errNotFound) {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListTasks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var p remote.TaskPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(p.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	created, err := s.taskFromPayload(r.Context(), p, "t-"+uuid.NewString())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.PutTask(r.Context(), created); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetTask(r.Context(), r.PathValue("id"))
	if errors.Is(err, errNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.GetTask(r.Context(), id); errors.Is(err, errNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var p remote.TaskPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := s.taskFromPayload(r.Context(), p, id)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.PutTask(r.Context(), updated); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteTask(r.Context(), r.PathValue("id"))
	if errors.Is(err, errNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func projectFromPayload(p remote.ProjectPayload, id string) model.Project {
	return model.Project{
		ID:          id,
		Name:        strings.TrimSpace(p.Name),
		Description: strings.TrimSpace(p.Description),
		Manager:     strings.TrimSpace(p.Manager),
		Status:      model.ProjectStatus(p.Status),
		Priority:    model.Priority(p.Priority),
		Progress:    p.Progress,
		Deadline:    p.Deadline,
		TeamSize:    p.TeamSize,
	}
}

// taskFromPayload resolves the project display name the way the portal
// backend does.
func (s *Server) taskFromPayload(ctx context.Context, p remote.TaskPayload, id string) (model.Task, error) {
	t := model.Task{
		ID:          id,
		Title:       strings.TrimSpace(p.Title),
		Description: strings.TrimSpace(p.Description),
		ProjectID:   strings.TrimSpace(p.ProjectID),
		Assignee:    strings.TrimSpace(p.Assignee),
		Due:         p.Due,
		Priority:    model.Priority(p.Priority),
		State:       model.TaskState(p.State),
		Tags:        p.Tags,
	}
	if t.ProjectID != "" {
		proj, err := s.store.GetProject(ctx, t.ProjectID)
		if errors.Is(err, errNotFound) {
			return model.Task{}, errors.New("unknown projectId: " + t.ProjectID)
		}
		if err != nil {
			return model.Task{}, err
		}
		t.Project = proj.Name
	}
	return t, nil
}

func (s *Server) seed(ctx context.Context) error {
	existing, err := s.store.ListProjects(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	projects := []model.Project{
		{ID: "p-" + uuid.NewString(), Name: "Student Portal Revamp", Description: "UI modernization and performance work.", Manager: "A. Patel", Status: model.ProjectInProgress, Progress: 55, Deadline: "2026-12-01", TeamSize: 6},
		{ID: "p-" + uuid.NewString(), Name: "HRMS Integration", Description: "Sync HR data with core systems.", Manager: "R. Singh", Status: model.ProjectPlanned, Progress: 10, Deadline: "2027-01-15", TeamSize: 4},
		{ID: "p-" + uuid.NewString(), Name: "Finance Workflows", Description: "Streamline approvals and reporting.", Manager: "S. Kumar", Status: model.ProjectOnHold, Progress: 35, Deadline: "2027-03-01", TeamSize: 5},
	}
	for _, p := range projects {
		if err := s.store.PutProject(ctx, p); err != nil {
			return err
		}
	}

	tasks := []model.Task{
		{ID: "t-" + uuid.NewString(), Title: "Design onboarding flow", Description: "Wireframes for the new signup funnel.", ProjectID: projects[0].ID, Project: projects[0].Name, Assignee: "N. Shah", Due: "2026-11-10", Priority: model.PriorityHigh, State: model.TaskInProgress, Tags: []string{"design"}},
		{ID: "t-" + uuid.NewString(), Title: "Map employee schema", Description: "Field mapping between HRMS and core DB.", ProjectID: projects[1].ID, Project: projects[1].Name, Assignee: "R. Singh", Due: "2026-12-20", Priority: model.PriorityMedium, State: model.TaskNew, Tags: []string{"backend", "data"}},
	}
	for _, t := range tasks {
		if err := s.store.PutTask(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

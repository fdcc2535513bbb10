// Package auth persists the signed-in user's session and exposes role
// checks for role-gated UI. The mutation engine itself never enforces
// authorization; the surrounding views decide which entry points to offer.
package auth

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

type Role string

const (
	RoleSuperadmin     Role = "SUPERADMIN"
	RoleProjectManager Role = "PROJECT_MANAGER"
	RoleTeamMember     Role = "TEAM_MEMBER"
	RoleSalesFinance   Role = "SALES_FINANCE"
)

const sessionFileName = "session.json"

// Session is the locally persisted login state.
type Session struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     Role   `json:"role"`
}

func (s Session) SignedIn() bool { return s.Token != "" }

func (s Session) HasRole(r Role) bool { return s.Role == r }

func (s Session) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

// IsAdmin mirrors the portal's admin gate: superadmins and project managers
// may create and delete projects.
func (s Session) IsAdmin() bool {
	return s.HasAnyRole(RoleSuperadmin, RoleProjectManager)
}

func sessionPath(dir string) string {
	return filepath.Join(dir, sessionFileName)
}

// Load reads the persisted session. Missing or unreadable files mean
// signed-out; the caller can always sign in again.
func Load(dir string) Session {
	b, err := os.ReadFile(sessionPath(dir))
	if err != nil {
		return Session{}
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return Session{}
	}
	return s
}

func Save(dir string, s Session) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	path := sessionPath(dir)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func Clear(dir string) error {
	err := os.Remove(sessionPath(dir))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

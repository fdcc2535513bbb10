package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveLoadClearRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := Session{Token: "tok", Username: "apatel", Email: "a@p.example", Role: RoleProjectManager}
	if err := Save(dir, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := Load(dir)
	if got != s {
		t.Fatalf("round trip:\n got: %#v\nwant: %#v", got, s)
	}
	if !got.SignedIn() {
		t.Fatalf("expected signed in")
	}

	if err := Clear(dir); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if Load(dir).SignedIn() {
		t.Fatalf("expected signed out after clear")
	}
	// Clearing twice is fine.
	if err := Clear(dir); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

func TestLoadToleratesCorruptFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, sessionFileName), []byte("{nope"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if Load(dir).SignedIn() {
		t.Fatalf("corrupt session must read as signed out")
	}
}

func TestRoleChecks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role  Role
		admin bool
	}{
		{RoleSuperadmin, true},
		{RoleProjectManager, true},
		{RoleTeamMember, false},
		{RoleSalesFinance, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.role), func(t *testing.T) {
			t.Parallel()
			s := Session{Token: "t", Role: tt.role}
			if got := s.IsAdmin(); got != tt.admin {
				t.Fatalf("IsAdmin(%s) = %v; want %v", tt.role, got, tt.admin)
			}
			if !s.HasRole(tt.role) || s.HasRole("OTHER") {
				t.Fatalf("HasRole misbehaved for %s", tt.role)
			}
		})
	}
}

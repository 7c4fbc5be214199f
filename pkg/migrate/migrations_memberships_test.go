package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMembershipsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_circle_memberships_table.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no circle memberships migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TYPE circle_role AS ENUM ('owner', 'admin', 'member')",
		"CREATE TABLE IF NOT EXISTS circle_memberships",
		"CONSTRAINT uq_circle_memberships_user_circle UNIQUE (user_id, circle_id)",
		"FOREIGN KEY (circle_id) REFERENCES circles(id) ON DELETE CASCADE",
		"FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS circle_memberships",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestInvitationsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_circle_invitations_table.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no circle invitations migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS circle_invitations",
		"CONSTRAINT uq_circle_invitations_invitee_circle UNIQUE (invitee_id, circle_id)",
		"accepted BOOLEAN NOT NULL DEFAULT FALSE",
		"DROP TABLE IF EXISTS circle_invitations",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

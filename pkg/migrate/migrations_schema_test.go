package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUsersMigrationContainsLedgerColumn(t *testing.T) {
	content := readMigration(t, "*_create_users.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS users",
		"tokens TEXT[] NOT NULL DEFAULT '{}'",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email",
		"DROP TABLE IF EXISTS users",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestReviewVotesMigrationConstraints(t *testing.T) {
	content := readMigration(t, "*_create_review_votes.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS review_votes",
		"FOREIGN KEY (review_id) REFERENCES reviews(id) ON DELETE CASCADE",
		"CHECK (value IN (-1, 1))",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_review_votes_review_user ON review_votes (review_id, user_id)",
		"DROP TABLE IF EXISTS review_votes",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestReviewsMigrationConstraints(t *testing.T) {
	content := readMigration(t, "*_create_reviews.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS reviews",
		"CHECK (rating >= 1 AND rating <= 5)",
		"FOREIGN KEY (restaurant_id) REFERENCES restaurants(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS reviews",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

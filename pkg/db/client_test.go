package db

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/platefinderz-backend/pkg/config"
)

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{}, nil); err == nil {
		t.Fatal("expected error when DSN missing")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil error should not match")
	}
	err := errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_email"`)
	if !IsUniqueViolation(err, "") {
		t.Fatal("expected duplicate key error to match")
	}
	if !IsUniqueViolation(err, "idx_users_email") {
		t.Fatal("expected named constraint to match")
	}
	if IsUniqueViolation(err, "idx_review_votes_review_user") {
		t.Fatal("unrelated constraint should not match")
	}
	sqliteErr := errors.New("UNIQUE constraint failed: users.email")
	if !IsUniqueViolation(sqliteErr, "") {
		t.Fatal("expected sqlite unique error to match")
	}
}

package health

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/lib/pq"
)

func TestDBChecker_Creation(t *testing.T) {
	db := &sql.DB{}

	checker := NewDBChecker(db)
	if checker == nil {
		t.Fatal("expected checker to be non-nil")
	}
	if checker.db != db {
		t.Error("expected checker db to match provided db")
	}
}

func TestDBChecker_HealthCheck_NoConnection(t *testing.T) {
	db, err := sql.Open("postgres", "postgres://localhost:1/unreachable?sslmode=disable&connect_timeout=1")
	if err != nil {
		t.Fatalf("sql.Open error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	checker := NewDBChecker(db)
	if err := checker.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() = nil against an unreachable database, want error")
	}
}

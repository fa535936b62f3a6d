package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dukerupert/fantastictask/internal/database"
	"github.com/dukerupert/fantastictask/internal/model"
	"github.com/dukerupert/fantastictask/internal/recurrence"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedFamily creates a family with one admin and one child.
func seedFamily(t *testing.T, db *sql.DB) (family *model.Family, admin, child *model.FamilyMember) {
	t.Helper()
	ctx := context.Background()
	ms := NewFamilyMemberStore(db)

	family, err := ms.CreateFamily(ctx, "Smith")
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	admin, err = ms.Create(ctx, family.ID, "Alice", model.RoleAdmin)
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	child, err = ms.Create(ctx, family.ID, "Charlie", model.RoleChild)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	return family, admin, child
}

func seedTask(t *testing.T, db *sql.DB, familyID int64, title string, p recurrence.Policy) *model.Task {
	t.Helper()
	task, err := NewTaskStore(db).Create(context.Background(), model.Task{
		FamilyID:   familyID,
		Title:      title,
		Points:     10,
		Recurrence: p,
		IsActive:   true,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func intp(n int) *int { return &n }

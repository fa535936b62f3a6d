package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func TestOpenRunsMigrations(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"families", "family_members", "tasks", "task_assignments", "task_completions", "points_transactions", "rewards"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(`INSERT INTO family_members (family_id, name) VALUES (999, 'Ghost')`)
	if err == nil {
		t.Error("expected foreign key violation for unknown family")
	}
}

func TestInTxCommit(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	err = InTx(context.Background(), db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO families (name) VALUES ('Smith')`)
		return err
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM families`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestInTxRollback(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	boom := errors.New("boom")
	err = InTx(context.Background(), db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO families (name) VALUES ('Smith')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx err = %v, want boom", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM families`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0 after rollback", count)
	}
}

func TestDSN(t *testing.T) {
	if got := dsn(":memory:"); got != ":memory:?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite" {
		t.Errorf("memory dsn = %q", got)
	}
	if got := dsn("data/ft.db"); got != "data/ft.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_time_format=sqlite" {
		t.Errorf("file dsn = %q", got)
	}
}

package database

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func columnSet(t *testing.T, db *DB, table string) map[string]bool {
	t.Helper()

	rows, err := db.QueryContext(context.Background(), db.Dialect.ColumnsQuery(), table)
	if err != nil {
		t.Fatalf("Failed to list columns: %v", err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("Failed to scan column: %v", err)
		}
		cols[name] = true
	}
	return cols
}

func TestRunMigrationsCreatesBaseTables(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.RunMigrations(ctx, zerolog.Nop()); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	// A second run is a no-op
	if err := db.RunMigrations(ctx, zerolog.Nop()); err != nil {
		t.Fatalf("second RunMigrations() error = %v", err)
	}

	for _, table := range []string{AccountsTable, SessionsTable} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	if !columnSet(t, db, SessionsTable)["created_at"] {
		t.Error("sessions.created_at missing after migrations")
	}
}

func TestSchemaMigratorIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.RunMigrations(ctx, zerolog.Nop()); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}

	migrator := NewSchemaMigrator(db, zerolog.Nop())

	added, err := migrator.EnsureColumns(ctx, AccountsTable, AccountColumns)
	if err != nil {
		t.Fatalf("EnsureColumns() error = %v", err)
	}
	if len(added) != len(AccountColumns) {
		t.Fatalf("expected %d columns added, got %v", len(AccountColumns), added)
	}

	for i := 0; i < 3; i++ {
		added, err = migrator.EnsureColumns(ctx, AccountsTable, AccountColumns)
		if err != nil {
			t.Fatalf("EnsureColumns() run %d error = %v", i+2, err)
		}
		if len(added) != 0 {
			t.Fatalf("run %d added %v, want nothing", i+2, added)
		}
	}

	if err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	cols := columnSet(t, db, AccountsTable)
	for _, col := range AccountColumns {
		if !cols[col.Name] {
			t.Errorf("column %s missing", col.Name)
		}
	}
}

func TestSchemaMigratorUpgradesLegacyTable(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	// A registrations table from before username/password columns existed
	legacy := `
		CREATE TABLE registrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name TEXT, last_name TEXT, company_name TEXT,
			phone TEXT, email TEXT, address TEXT, plan TEXT,
			contact_method TEXT
		)`
	if _, err := db.ExecContext(ctx, legacy); err != nil {
		t.Fatalf("Failed to create legacy table: %v", err)
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO registrations (company_name) VALUES (?)", "Old Co"); err != nil {
		t.Fatalf("Failed to insert legacy row: %v", err)
	}

	if err := db.RunMigrations(ctx, zerolog.Nop()); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}

	migrator := NewSchemaMigrator(db, zerolog.Nop())
	added, err := migrator.EnsureColumns(ctx, AccountsTable, AccountColumns)
	if err != nil {
		t.Fatalf("EnsureColumns() error = %v", err)
	}
	if len(added) != len(AccountColumns)-1 {
		t.Fatalf("expected contact_method to be skipped, added %v", added)
	}

	var views int64
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(views, 0) FROM registrations WHERE company_name = ?", "Old Co").Scan(&views); err != nil {
		t.Fatalf("Failed to read views: %v", err)
	}
	if views != 0 {
		t.Errorf("views = %d, want 0", views)
	}
}

func TestSchemaMigratorContinuesAfterFailedColumn(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.RunMigrations(ctx, zerolog.Nop()); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}

	var buf bytes.Buffer
	migrator := NewSchemaMigrator(db, zerolog.New(&buf))

	columns := []Column{
		{Name: "broken(", Kind: ColumnText},
		{Name: "views", Kind: ColumnCounter},
	}
	added, err := migrator.EnsureColumns(ctx, AccountsTable, columns)
	if err != nil {
		t.Fatalf("EnsureColumns() error = %v", err)
	}
	if len(added) != 1 || added[0] != "views" {
		t.Fatalf("added = %v, want [views]", added)
	}
	if !bytes.Contains(buf.Bytes(), []byte("broken(")) {
		t.Errorf("expected failure to be logged, got %q", buf.String())
	}
}

func TestSchemaMigratorMissingTable(t *testing.T) {
	db := openTestDB(t)

	migrator := NewSchemaMigrator(db, zerolog.Nop())
	if _, err := migrator.EnsureColumns(context.Background(), "nope", AccountColumns); err == nil {
		t.Fatal("expected error for missing table")
	}
}

func TestEnsureUniqueIndexRejectsDuplicates(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.RunMigrations(ctx, zerolog.Nop()); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	migrator := NewSchemaMigrator(db, zerolog.Nop())
	if err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	insert := "INSERT INTO registrations (company_name, username) VALUES (?, ?)"
	if _, err := db.ExecContext(ctx, insert, "Acme", "acme_001"); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	_, err := db.ExecContext(ctx, insert, "Acme", "acme_001")
	if err == nil {
		t.Fatal("expected unique violation on duplicate username")
	}
	if !db.Dialect.IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false", err)
	}
}

func TestWithTxRollsBack(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.RunMigrations(ctx, zerolog.Nop()); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}

	err := db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecReturningID(ctx, "INSERT INTO registrations (company_name) VALUES (?)", "Rollback Co"); err != nil {
			return err
		}
		return context.Canceled
	})
	if err != context.Canceled {
		t.Fatalf("WithTx() error = %v, want context.Canceled", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM registrations").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 rows after rollback, got %d", count)
	}
}

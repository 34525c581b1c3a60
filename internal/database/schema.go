package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

const (
	// AccountsTable stores one row per registered business
	AccountsTable = "registrations"
	// SessionsTable stores bearer tokens
	SessionsTable = "sessions"

	usernameIndex = "idx_registrations_username"
)

// Column describes a column the schema migrator guarantees
type Column struct {
	Name string
	Kind ColumnKind
}

// AccountColumns are the columns added on top of the base registrations table
var AccountColumns = []Column{
	{Name: "contact_method", Kind: ColumnText},
	{Name: "username", Kind: ColumnIdentifier},
	{Name: "password_hash", Kind: ColumnText},
	{Name: "views", Kind: ColumnCounter},
	{Name: "orders", Kind: ColumnCounter},
	{Name: "created_at", Kind: ColumnText},
}

// SchemaMigrator adds missing columns to existing tables. It is safe to run on
// every start: present columns are left alone and a failed addition is logged
// without aborting the remaining ones.
type SchemaMigrator struct {
	db     *DB
	logger zerolog.Logger
}

// NewSchemaMigrator creates a new schema migrator
func NewSchemaMigrator(db *DB, logger zerolog.Logger) *SchemaMigrator {
	return &SchemaMigrator{db: db, logger: logger}
}

// Migrate ensures the account columns and the unique username index exist
func (m *SchemaMigrator) Migrate(ctx context.Context) error {
	if _, err := m.EnsureColumns(ctx, AccountsTable, AccountColumns); err != nil {
		return err
	}
	m.EnsureUniqueIndex(ctx, AccountsTable, usernameIndex, "username")
	return nil
}

// EnsureColumns adds every column of columns missing from table and returns
// the names it added. Only a failure to read the current columns is returned.
func (m *SchemaMigrator) EnsureColumns(ctx context.Context, table string, columns []Column) ([]string, error) {
	existing, err := m.existingColumns(ctx, table)
	if err != nil {
		return nil, err
	}

	var added []string
	for _, col := range columns {
		if existing[col.Name] {
			continue
		}

		definition := m.db.Dialect.ColumnDefinition(col.Kind)
		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, col.Name, definition)
		if _, err := m.db.ExecContext(ctx, query); err != nil {
			m.logger.Error().Err(err).
				Str("table", table).
				Str("column", col.Name).
				Msg("failed to add column, manual intervention required")
			continue
		}

		m.logger.Info().
			Str("table", table).
			Str("column", col.Name).
			Str("definition", definition).
			Msg("added column")
		added = append(added, col.Name)
	}

	return added, nil
}

// EnsureUniqueIndex creates a unique index on table(column) when it is absent.
// Failures are logged; existing duplicate values are the usual cause.
func (m *SchemaMigrator) EnsureUniqueIndex(ctx context.Context, table, index, column string) bool {
	var count int
	if err := m.db.QueryRowContext(ctx, m.db.Dialect.IndexExistsQuery(), index).Scan(&count); err != nil {
		m.logger.Error().Err(err).Str("index", index).Msg("failed to check index")
		return false
	}
	if count > 0 {
		return true
	}

	query := fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s)", index, table, column)
	if _, err := m.db.ExecContext(ctx, query); err != nil {
		m.logger.Error().Err(err).Str("index", index).Msg("failed to create unique index, manual intervention required")
		return false
	}

	m.logger.Info().Str("index", index).Str("table", table).Msg("created unique index")
	return true
}

func (m *SchemaMigrator) existingColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, m.db.Dialect.ColumnsQuery(), table)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", table, err)
	}
	defer rows.Close()

	existing := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", table, err)
	}
	if len(existing) == 0 {
		return nil, fmt.Errorf("table %s does not exist", table)
	}
	return existing, nil
}

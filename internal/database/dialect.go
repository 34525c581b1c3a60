package database

import (
	"database/sql"
	"regexp"
	"strconv"
)

// ColumnKind classifies a migrated column so each dialect can pick its own type
type ColumnKind int

const (
	// ColumnText is free-form text
	ColumnText ColumnKind = iota
	// ColumnIdentifier is text that carries a unique index
	ColumnIdentifier
	// ColumnCounter is a non-negative integer defaulting to zero
	ColumnCounter
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// SupportsLastInsertId returns true if the driver supports LastInsertId()
	SupportsLastInsertId() bool

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir returns the subdirectory name for base-table migrations
	MigrationsSubdir() string

	// GooseDialect returns the dialect name understood by goose
	GooseDialect() string

	// ColumnsQuery returns a query taking a table name and yielding one column name per row
	ColumnsQuery() string

	// IndexExistsQuery returns a query taking an index name and yielding a count
	IndexExistsQuery() string

	// ColumnDefinition returns the column type (and default) used by ALTER TABLE ADD COLUMN
	ColumnDefinition(kind ColumnKind) string

	// IsUniqueViolation reports whether err is a unique or primary key constraint failure
	IsUniqueViolation(err error) bool
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// placeholderRegexp matches ? placeholders
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

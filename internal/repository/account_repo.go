package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"twolaunch/internal/database"
	"twolaunch/internal/models"
)

// ErrUsernameTaken is returned when an insert hits the unique username index
var ErrUsernameTaken = errors.New("username already taken")

const accountColumns = `id, COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(company_name, ''),
	COALESCE(email, ''), COALESCE(phone, ''), COALESCE(plan, ''), COALESCE(contact_method, ''),
	COALESCE(address, ''), COALESCE(username, ''), COALESCE(password_hash, ''),
	COALESCE(views, 0), COALESCE(orders, 0), COALESCE(created_at, '')`

// AccountRepository handles database operations for registrations
type AccountRepository struct {
	db database.DBTX
}

// NewAccountRepository creates a new account repository. db may be a
// *database.DB or a *database.Tx.
func NewAccountRepository(db database.DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

// UsernameExists reports whether any account already holds username
func (r *AccountRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM registrations WHERE username = ? LIMIT 1", username).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return true, nil
}

// CompanyNameExists does a case-insensitive exact match on company_name
func (r *AccountRepository) CompanyNameExists(ctx context.Context, name string) (bool, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return false, nil
	}

	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM registrations WHERE LOWER(company_name) = ? LIMIT 1", name).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check company name: %w", err)
	}
	return true, nil
}

// CreateAccount inserts a new registration with zeroed counters and returns its ID.
// A username collision is reported as ErrUsernameTaken.
func (r *AccountRepository) CreateAccount(ctx context.Context, reg models.Registration, username, passwordHash, createdAt string) (int64, error) {
	query := `
		INSERT INTO registrations (first_name, last_name, company_name, phone, email, address, plan,
			contact_method, username, password_hash, views, orders, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		reg.FirstName, reg.LastName, reg.CompanyName, reg.Phone, reg.Email, reg.Address, reg.Plan,
		reg.ContactMethod, username, passwordHash, 0, 0, createdAt,
	)
	if err != nil {
		if r.db.GetDialect().IsUniqueViolation(err) {
			return 0, ErrUsernameTaken
		}
		return 0, fmt.Errorf("failed to create account: %w", err)
	}
	return id, nil
}

// GetAccountByID retrieves an account by ID
func (r *AccountRepository) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM registrations WHERE id = ?", id)
	return scanAccount(row)
}

// GetAccountByUsername retrieves an account by its login name
func (r *AccountRepository) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM registrations WHERE username = ?", username)
	return scanAccount(row)
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(
		&account.ID,
		&account.FirstName,
		&account.LastName,
		&account.CompanyName,
		&account.Email,
		&account.Phone,
		&account.Plan,
		&account.ContactMethod,
		&account.Address,
		&account.Username,
		&account.PasswordHash,
		&account.Views,
		&account.Orders,
		&account.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}

// ListAccounts returns every account, newest first. Null counters read as 0
// and a null created_at as the empty string.
func (r *AccountRepository) ListAccounts(ctx context.Context) ([]models.AccountSummary, error) {
	query := `
		SELECT id, COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(company_name, ''),
			COALESCE(email, ''), COALESCE(phone, ''), COALESCE(plan, ''), COALESCE(created_at, ''),
			COALESCE(username, ''), COALESCE(views, 0), COALESCE(orders, 0)
		FROM registrations
		ORDER BY id DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.AccountSummary{}
	for rows.Next() {
		var a models.AccountSummary
		if err := rows.Scan(
			&a.ID,
			&a.FirstName,
			&a.LastName,
			&a.CompanyName,
			&a.Email,
			&a.Phone,
			&a.Plan,
			&a.CreatedAt,
			&a.Username,
			&a.Views,
			&a.Orders,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

// IncrementViews adds one to the view counter, treating null as 0.
// It reports whether the account exists.
func (r *AccountRepository) IncrementViews(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, "UPDATE registrations SET views = COALESCE(views, 0) + 1 WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to increment views: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

// DeleteAccount hard-deletes an account together with its sessions.
// It reports whether the account existed.
func (r *AccountRepository) DeleteAccount(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := database.RunInTx(ctx, r.db, func(tx database.DBTX) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE reg_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete sessions: %w", err)
		}

		result, err := tx.ExecContext(ctx, "DELETE FROM registrations WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete account: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		deleted = affected > 0
		return nil
	})
	return deleted, err
}

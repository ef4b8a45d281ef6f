package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/espachat/internal/store"
)

// Schema creates the accounts relation if it does not exist yet.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	is_admin      BOOLEAN NOT NULL DEFAULT 0,
	is_banned     BOOLEAN NOT NULL DEFAULT 0,
	last_ip       TEXT NOT NULL DEFAULT '',
	last_login    DATETIME,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_name_lower ON users (LOWER(name));
`

// SQLiteStore implements store.AccountStore for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ store.AccountStore = (*SQLiteStore)(nil)

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const accountColumns = `id, name, password_hash, is_admin, is_banned, last_ip, last_login, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*store.Account, error) {
	var (
		acc       store.Account
		lastLogin sql.NullTime
	)
	if err := row.Scan(
		&acc.ID,
		&acc.Name,
		&acc.PasswordHash,
		&acc.IsAdmin,
		&acc.IsBanned,
		&acc.LastIP,
		&lastLogin,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		acc.LastLoginAt = &t
	}
	return &acc, nil
}

// CreateAccount inserts a new account.
func (s *SQLiteStore) CreateAccount(ctx context.Context, name, passwordHash, ip string) (*store.Account, error) {
	query := `
		INSERT INTO users (name, password_hash, last_ip)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, name, passwordHash, ip)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, fmt.Errorf("insert account %q: %w", name, store.ErrNameTaken)
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.getAccountByID(ctx, id)
}

func (s *SQLiteStore) getAccountByID(ctx context.Context, id int64) (*store.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE id = ?`
	acc, err := scanAccount(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query account: %w", err)
	}
	return acc, nil
}

// GetAccountByName retrieves an account by case-folded name.
func (s *SQLiteStore) GetAccountByName(ctx context.Context, name string) (*store.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE LOWER(name) = LOWER(?)`
	acc, err := scanAccount(s.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query account: %w", err)
	}
	return acc, nil
}

// ListAccounts returns all accounts ordered by name.
func (s *SQLiteStore) ListAccounts(ctx context.Context) ([]*store.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users ORDER BY LOWER(name)`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*store.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

// UpdatePassword replaces the password hash.
func (s *SQLiteStore) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	return s.execOne(ctx, "update password", query, passwordHash, id)
}

// RecordLogin stamps last_login and last_ip.
func (s *SQLiteStore) RecordLogin(ctx context.Context, id int64, ip string) error {
	query := `
		UPDATE users
		SET last_login = CURRENT_TIMESTAMP, last_ip = ?
		WHERE id = ?
	`
	return s.execOne(ctx, "record login", query, ip, id)
}

// SetAdmin toggles the administrator flag.
func (s *SQLiteStore) SetAdmin(ctx context.Context, id int64, admin bool) error {
	query := `
		UPDATE users
		SET is_admin = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	return s.execOne(ctx, "set admin", query, admin, id)
}

// SetBanned toggles the ban flag.
func (s *SQLiteStore) SetBanned(ctx context.Context, id int64, banned bool) error {
	query := `
		UPDATE users
		SET is_banned = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	return s.execOne(ctx, "set banned", query, banned, id)
}

// DeleteAccount removes the account row.
func (s *SQLiteStore) DeleteAccount(ctx context.Context, id int64) error {
	return s.execOne(ctx, "delete account", `DELETE FROM users WHERE id = ?`, id)
}

// execOne runs a statement that must touch exactly one row.
func (s *SQLiteStore) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

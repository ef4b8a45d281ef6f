package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account not found")
	// ErrNameTaken is returned when an account with the same case-folded name exists.
	ErrNameTaken = errors.New("account name taken")
)

// Account represents a registered user.
type Account struct {
	ID           int64
	Name         string
	PasswordHash string
	IsAdmin      bool
	IsBanned     bool
	LastIP       string
	LastLoginAt  *time.Time // nil until the first successful login
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccountStore handles account persistence. Name lookups are case-insensitive.
type AccountStore interface {
	// CreateAccount inserts a new account bound to name and the originating IP.
	CreateAccount(ctx context.Context, name, passwordHash, ip string) (*Account, error)

	// GetAccountByName retrieves an account by case-folded name.
	GetAccountByName(ctx context.Context, name string) (*Account, error)

	// ListAccounts returns all accounts ordered by name.
	ListAccounts(ctx context.Context) ([]*Account, error)

	// UpdatePassword replaces the password hash and stamps updated_at.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error

	// RecordLogin stamps last_login and last_ip.
	RecordLogin(ctx context.Context, id int64, ip string) error

	// SetAdmin toggles the administrator flag.
	SetAdmin(ctx context.Context, id int64, admin bool) error

	// SetBanned toggles the ban flag.
	SetBanned(ctx context.Context, id int64, banned bool) error

	// DeleteAccount removes the account row.
	DeleteAccount(ctx context.Context, id int64) error

	// Close closes the underlying database connection.
	Close() error
}

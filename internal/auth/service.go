package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/espachat/internal/store"
	"github.com/vovakirdan/espachat/internal/utils"
)

var (
	// ErrInvalidCredentials is returned when username/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrBanned is returned by Login when the password is right but the account is banned.
	ErrBanned = errors.New("account banned")
	// ErrNameRegistered is returned when an account with the case-folded name exists.
	ErrNameRegistered = errors.New("name already registered")
	// ErrPasswordMismatch is returned when a password and its repetition differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrPasswordTooShort is returned for passwords under MinPasswordLength.
	ErrPasswordTooShort = errors.New("password too short")
	// ErrPasswordTooLong is returned for passwords over MaxPasswordLength.
	ErrPasswordTooLong = errors.New("password too long")
	// ErrOldPasswordIncorrect is returned when the current password does not verify.
	ErrOldPasswordIncorrect = errors.New("old password incorrect")
	// ErrUserNotFound is returned when no account matches a target name.
	ErrUserNotFound = errors.New("user not found")
	// ErrGuestCannotBeAdmin is returned when promoting a name with the guest prefix.
	ErrGuestCannotBeAdmin = errors.New("guests cannot become administrators")
	// ErrNotAdmin is returned when demoting an account that is not an administrator.
	ErrNotAdmin = errors.New("not an administrator")
)

// Service implements the account operations on top of a store.AccountStore.
type Service struct {
	store       store.AccountStore
	guestPrefix string
}

// NewService creates a new account service. Names starting with guestPrefix
// are never promoted to administrator.
func NewService(accountStore store.AccountStore, guestPrefix string) *Service {
	return &Service{
		store:       accountStore,
		guestPrefix: guestPrefix,
	}
}

// Account returns the account registered under name.
func (s *Service) Account(ctx context.Context, name string) (*store.Account, error) {
	acc, err := s.store.GetAccountByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return acc, nil
}

// Accounts lists every registered account ordered by name.
func (s *Service) Accounts(ctx context.Context) ([]*store.Account, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// IsRegistered reports whether an account with the case-folded name exists.
func (s *Service) IsRegistered(ctx context.Context, name string) (bool, error) {
	_, err := s.Account(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

// IsAdmin re-reads the account and reports its administrator flag.
func (s *Service) IsAdmin(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, nil
	}
	acc, err := s.Account(ctx, name)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return acc.IsAdmin, nil
}

// CreateUser registers name with a hashed password and the originating IP.
func (s *Service) CreateUser(ctx context.Context, name, password, passwordRepeat, ip string) (*store.Account, error) {
	if password != passwordRepeat {
		return nil, ErrPasswordMismatch
	}
	if err := checkPasswordLength(password); err != nil {
		return nil, err
	}

	registered, err := s.IsRegistered(ctx, name)
	if err != nil {
		return nil, err
	}
	if registered {
		return nil, ErrNameRegistered
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	acc, err := s.store.CreateAccount(ctx, name, hash, ip)
	if err != nil {
		if errors.Is(err, store.ErrNameTaken) {
			return nil, ErrNameRegistered
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return acc, nil
}

// Login validates credentials. A banned account yields ErrBanned together
// with the account so callers can report who was refused.
func (s *Service) Login(ctx context.Context, name, password, ip string) (*store.Account, error) {
	acc, err := s.store.GetAccountByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	if errPwd := ComparePassword(acc.PasswordHash, password); errPwd != nil {
		return nil, ErrInvalidCredentials
	}
	if acc.IsBanned {
		return acc, ErrBanned
	}

	if err := s.store.RecordLogin(ctx, acc.ID, ip); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	now := time.Now()
	acc.LastLoginAt = &now
	acc.LastIP = ip

	return acc, nil
}

// ChangePassword replaces the password of the named account.
func (s *Service) ChangePassword(ctx context.Context, name, oldPassword, newPassword, newPasswordRepeat string) error {
	if newPassword != newPasswordRepeat {
		return ErrPasswordMismatch
	}

	acc, err := s.Account(ctx, name)
	if err != nil {
		return err
	}
	if err := ComparePassword(acc.PasswordHash, oldPassword); err != nil {
		return ErrOldPasswordIncorrect
	}
	if err := checkPasswordLength(newPassword); err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, acc.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// LastLogin returns the last successful login of name, nil if it never logged in.
func (s *Service) LastLogin(ctx context.Context, name string) (*time.Time, error) {
	acc, err := s.Account(ctx, name)
	if err != nil {
		return nil, err
	}
	return acc.LastLoginAt, nil
}

// DeleteAccount removes the named account and returns its stored name.
func (s *Service) DeleteAccount(ctx context.Context, name string) (string, error) {
	acc, err := s.Account(ctx, name)
	if err != nil {
		return "", err
	}
	if err := s.store.DeleteAccount(ctx, acc.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("delete account: %w", err)
	}
	return acc.Name, nil
}

// SetAdmin promotes or demotes the named account and returns it updated.
func (s *Service) SetAdmin(ctx context.Context, name string, admin bool) (*store.Account, error) {
	if admin && s.isGuestName(name) {
		return nil, ErrGuestCannotBeAdmin
	}

	acc, err := s.Account(ctx, name)
	if err != nil {
		return nil, err
	}
	if admin && s.isGuestName(acc.Name) {
		return nil, ErrGuestCannotBeAdmin
	}
	if !admin && !acc.IsAdmin {
		return nil, ErrNotAdmin
	}

	if err := s.store.SetAdmin(ctx, acc.ID, admin); err != nil {
		return nil, fmt.Errorf("set admin: %w", err)
	}
	acc.IsAdmin = admin
	return acc, nil
}

// isGuestName reports whether name carries the guest prefix in any letter case.
func (s *Service) isGuestName(name string) bool {
	if s.guestPrefix == "" {
		return false
	}
	return strings.HasPrefix(utils.FoldName(name), utils.FoldName(s.guestPrefix))
}

// SetBanned toggles the ban flag of the named account and returns it updated.
func (s *Service) SetBanned(ctx context.Context, name string, banned bool) (*store.Account, error) {
	acc, err := s.Account(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetBanned(ctx, acc.ID, banned); err != nil {
		return nil, fmt.Errorf("set banned: %w", err)
	}
	acc.IsBanned = banned
	return acc, nil
}

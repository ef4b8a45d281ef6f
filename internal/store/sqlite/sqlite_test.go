package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/vovakirdan/espachat/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndGetAccountCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateAccount(ctx, "Gast42", "hash", "10.0.0.1")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if created.ID == 0 || created.Name != "Gast42" || created.LastIP != "10.0.0.1" {
		t.Fatalf("unexpected account: %+v", created)
	}
	if created.IsAdmin || created.IsBanned {
		t.Fatalf("new accounts must not be admin or banned: %+v", created)
	}
	if created.LastLoginAt != nil {
		t.Fatalf("expected no last login yet, got %v", created.LastLoginAt)
	}

	got, err := s.GetAccountByName(ctx, "gAST42")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("expected id %d, got %d", created.ID, got.ID)
	}
}

func TestCreateAccountRejectsCaseFoldedDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateAccount(ctx, "Max", "hash", ""); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if _, err := s.CreateAccount(ctx, "MAX", "hash", ""); !errors.Is(err, store.ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
}

func TestGetAccountNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetAccountByName(context.Background(), "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAccountMutations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	acc, err := s.CreateAccount(ctx, "alice", "old", "")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	if err := s.UpdatePassword(ctx, acc.ID, "new"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	if err := s.RecordLogin(ctx, acc.ID, "192.168.1.5"); err != nil {
		t.Fatalf("record login: %v", err)
	}
	if err := s.SetAdmin(ctx, acc.ID, true); err != nil {
		t.Fatalf("set admin: %v", err)
	}
	if err := s.SetBanned(ctx, acc.ID, true); err != nil {
		t.Fatalf("set banned: %v", err)
	}

	got, err := s.GetAccountByName(ctx, "alice")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got.PasswordHash != "new" || !got.IsAdmin || !got.IsBanned || got.LastIP != "192.168.1.5" {
		t.Fatalf("unexpected account after mutations: %+v", got)
	}
	if got.LastLoginAt == nil {
		t.Fatalf("expected last login to be set")
	}

	if err := s.DeleteAccount(ctx, acc.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if _, err := s.GetAccountByName(ctx, "alice"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteAccount(ctx, acc.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListAccountsOrderedByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"charlie", "Alice", "bob"} {
		if _, err := s.CreateAccount(ctx, name, "hash", ""); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	accounts, err := s.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}

	expected := []string{"Alice", "bob", "charlie"}
	if len(accounts) != len(expected) {
		t.Fatalf("expected %d accounts, got %d", len(expected), len(accounts))
	}
	for i, acc := range accounts {
		if acc.Name != expected[i] {
			t.Errorf("expected %s at index %d, got %s", expected[i], i, acc.Name)
		}
	}
}

func TestSchemaIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.db.Exec(Schema); err != nil {
		t.Fatalf("re-applying schema should succeed: %v", err)
	}
}

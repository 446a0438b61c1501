package storefront

import (
	"testing"

	"github.com/jamrock-club/jamrock-backend/pkg/enums"
	pkgerrors "github.com/jamrock-club/jamrock-backend/pkg/errors"
)

func TestAuthStoreRequiresSession(t *testing.T) {
	auth := NewAuthStore(NewMemoryStorage())

	_, err := auth.RequireSession()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if typed.Message() != "Debes iniciar sesión" {
		t.Fatalf("unexpected message: %s", typed.Message())
	}
}

func TestAuthStorePersistsAcrossInstances(t *testing.T) {
	storage := NewMemoryStorage()

	auth := NewAuthStore(storage)
	user := &SessionUser{ID: "user-1", Name: "Ana", Role: enums.MemberRoleSocio}
	if err := auth.SetSession("token-1", user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rehydrated := NewAuthStore(storage)
	if !rehydrated.IsAuthenticated() {
		t.Fatal("expected hydrated session")
	}
	if rehydrated.Token() != "token-1" {
		t.Fatalf("unexpected token: %s", rehydrated.Token())
	}
	got := rehydrated.User()
	if got == nil || got.ID != "user-1" || got.Name != "Ana" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestAuthStoreClear(t *testing.T) {
	storage := NewMemoryStorage()
	auth := NewAuthStore(storage)
	if err := auth.SetSession("token-1", &SessionUser{ID: "user-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := auth.Clear(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth.IsAuthenticated() {
		t.Fatal("expected logged out")
	}
	if NewAuthStore(storage).IsAuthenticated() {
		t.Fatal("cleared session must not rehydrate")
	}
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zapify/zapify/internal/storage"
	"github.com/zapify/zapify/internal/storage/model"
)

type fakeUsers struct {
	storage.UserRepository
	byEmail map[string]model.User
	byID    map[string]model.User
	nextID  int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]model.User{}, byID: map[string]model.User{}}
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return model.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) Create(_ context.Context, user model.User) (model.User, error) {
	f.nextID++
	user.ID = fmt.Sprintf("u%d", f.nextID)
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
	return user, nil
}

func (f *fakeUsers) Count(_ context.Context) (int, error) { return len(f.byID), nil }

func (f *fakeUsers) UpdatePassword(_ context.Context, id, hash string) error {
	u, ok := f.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.PasswordHash = hash
	f.byID[id] = u
	f.byEmail[u.Email] = u
	return nil
}

func TestRegisterFirstUserIsAdmin(t *testing.T) {
	users := newFakeUsers()
	svc := NewService(users, "segredo", 24)
	ctx := context.Background()

	first, token, err := svc.Register(ctx, "dona@loja.com", "senha123", "Dona")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if first.Role != model.UserRoleAdmin {
		t.Errorf("primeiro usuário role = %q, want ADMIN", first.Role)
	}
	if token == "" {
		t.Error("registro deveria emitir token")
	}

	second, _, err := svc.Register(ctx, "vendedor@loja.com", "senha123", "Vendedor")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if second.Role != model.UserRoleOperator {
		t.Errorf("segundo usuário role = %q, want OPERATOR", second.Role)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := newFakeUsers()
	svc := NewService(users, "segredo", 24)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "dona@loja.com", "senha123", "Dona"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := svc.Register(ctx, "dona@loja.com", "outra", "Dona"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestLogin(t *testing.T) {
	users := newFakeUsers()
	svc := NewService(users, "segredo", 24)
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, "dona@loja.com", "senha123", "Dona")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	user, token, err := svc.Login(ctx, "dona@loja.com", "senha123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("user.ID = %q, want %q", user.ID, registered.ID)
	}

	// o token carrega sub/email/role e valida com o mesmo segredo
	parsed, err := jwt.Parse(token, func(tk *jwt.Token) (any, error) {
		return []byte("segredo"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token inválido: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"] != registered.ID || claims["email"] != "dona@loja.com" || claims["role"] != model.UserRoleAdmin {
		t.Errorf("claims = %v", claims)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	users := newFakeUsers()
	svc := NewService(users, "segredo", 24)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "dona@loja.com", "senha123", "Dona"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, _, err := svc.Login(ctx, "dona@loja.com", "errada"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("senha errada: err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(ctx, "ninguem@loja.com", "senha123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("email inexistente: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestChangePassword(t *testing.T) {
	users := newFakeUsers()
	svc := NewService(users, "segredo", 24)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "dona@loja.com", "senha123", "Dona")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.ChangePassword(ctx, user.ID, "errada", "nova456"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("err = %v, want ErrWrongPassword", err)
	}

	if err := svc.ChangePassword(ctx, user.ID, "senha123", "nova456"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, _, err := svc.Login(ctx, "dona@loja.com", "senha123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Error("senha antiga ainda funciona após a troca")
	}
	if _, _, err := svc.Login(ctx, "dona@loja.com", "nova456"); err != nil {
		t.Errorf("login com a senha nova: %v", err)
	}
}

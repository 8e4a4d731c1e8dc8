package service

import (
	"context"
	"testing"

	"shopfront/internal/domain"
	"shopfront/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"golang.org/x/crypto/bcrypt"
)

type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	var out []*domain.User
	for _, user := range m.users {
		out = append(out, user)
	}
	return out, nil
}

func (m *mockUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	for _, user := range m.users {
		if user.ID == id {
			user.Role = role
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func TestRegister_DefaultsToUserRole(t *testing.T) {
	svc := NewUserService(newMockUserRepository(), "test-secret", 15)

	user, err := svc.Register(context.Background(), "shopper@example.com", "hunter2secret", "Sam", "Shopper")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Errorf("expected default role %q, got %q", domain.RoleUser, user.Role)
	}
	if user.PasswordHash == "hunter2secret" {
		t.Error("password stored as plaintext")
	}
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	repo := newMockUserRepository()
	svc := NewUserService(repo, "test-secret", 15)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "shopper@example.com", "hunter2secret", "Sam", "Shopper")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, user, err := svc.Login(ctx, "shopper@example.com", "hunter2secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.ID != registered.ID {
		t.Error("login returned a different user")
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token did not verify: %v", err)
	}
	if claims.UserID != registered.ID {
		t.Errorf("expected user id %s in claims, got %s", registered.ID, claims.UserID)
	}
	if claims.Role != domain.RoleUser {
		t.Errorf("expected role %q in claims, got %q", domain.RoleUser, claims.Role)
	}
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	svc := NewUserService(newMockUserRepository(), "test-secret", 15)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "shopper@example.com", "hunter2secret", "Sam", "Shopper"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, _, err := svc.Login(ctx, "shopper@example.com", "wrong-password"); err != ErrInvalidCredentials {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "hunter2secret"); err != ErrInvalidCredentials {
		t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAssignRole(t *testing.T) {
	repo := newMockUserRepository()
	svc := NewUserService(repo, "test-secret", 15)
	ctx := context.Background()

	user, err := svc.Register(ctx, "staff@example.com", "hunter2secret", "Max", "Manager")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	updated, err := svc.AssignRole(ctx, user.ID, domain.RoleManager)
	if err != nil {
		t.Fatalf("assign role failed: %v", err)
	}
	if updated.Role != domain.RoleManager {
		t.Errorf("expected role %q, got %q", domain.RoleManager, updated.Role)
	}

	if _, err := svc.AssignRole(ctx, user.ID, "superadmin"); err != ErrInvalidRole {
		t.Errorf("expected ErrInvalidRole for unknown role, got %v", err)
	}
}

func TestProperty_PasswordsAreHashed(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("stored hashes verify against the original password", prop.ForAll(
		func(password string) bool {
			svc := NewUserService(newMockUserRepository(), "test-secret", 15)

			user, err := svc.Register(context.Background(), "p@example.com", password, "P", "H")
			if err != nil {
				return true
			}
			if user.PasswordHash == password {
				return false
			}
			return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 && len(s) <= 72 }),
	))

	properties.TestingRun(t)
}

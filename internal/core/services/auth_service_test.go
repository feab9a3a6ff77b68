package services

import (
	"context"
	"errors"
	"testing"

	"docshelf/internal/adapters/persistence/models"
	"docshelf/internal/adapters/persistence/repositories"
	"docshelf/internal/core/domain"

	"gorm.io/gorm"
)

func newTestAuthService(db *gorm.DB) *AuthService {
	return NewAuthService(
		repositories.NewUserRepository(db),
		repositories.NewRefreshTokenRepository(db),
		testConfig(),
	)
}

func TestAuthRegister(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(db)

	resp, err := svc.Register(context.Background(), &RegisterInput{
		Username: "newreader",
		Email:    "Reader@Example.com",
		Password: "correct-horse-battery",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("Registration must issue both tokens")
	}
	if resp.User.Role != string(domain.RoleUser) {
		t.Errorf("Role = %s, want USER", resp.User.Role)
	}
	if resp.User.Email != "reader@example.com" {
		t.Errorf("Email = %s, want lowercased", resp.User.Email)
	}
}

func TestAuthRegister_Validation(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(db)
	ctx := context.Background()

	if _, err := svc.Register(ctx, &RegisterInput{Username: "ab", Email: "a@b.com", Password: "longenough1"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("short username err = %v, want ErrValidation", err)
	}
	if _, err := svc.Register(ctx, &RegisterInput{Username: "abc", Email: "a@b.com", Password: "short"}); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("weak password err = %v, want ErrWeakPassword", err)
	}
}

func TestAuthRegister_DuplicateIdentity(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(db)
	ctx := context.Background()

	input := &RegisterInput{Username: "reader", Email: "reader@example.com", Password: "longenough1"}
	if _, err := svc.Register(ctx, input); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Register(ctx, input); !errors.Is(err, ErrUserAlreadyExists) {
		t.Errorf("duplicate username err = %v, want ErrUserAlreadyExists", err)
	}
	if _, err := svc.Register(ctx, &RegisterInput{Username: "other", Email: "reader@example.com", Password: "longenough1"}); !errors.Is(err, ErrUserAlreadyExists) {
		t.Errorf("duplicate email err = %v, want ErrUserAlreadyExists", err)
	}
}

func TestAuthLogin(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(db)
	ctx := context.Background()

	if _, err := svc.Register(ctx, &RegisterInput{Username: "reader", Email: "reader@example.com", Password: "longenough1"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Username login
	if _, err := svc.Login(ctx, &LoginInput{Username: "reader", Password: "longenough1"}); err != nil {
		t.Errorf("Username login: %v", err)
	}
	// Email works in the same field
	if _, err := svc.Login(ctx, &LoginInput{Username: "reader@example.com", Password: "longenough1"}); err != nil {
		t.Errorf("Email login: %v", err)
	}
	// Wrong password and unknown identity look identical to the caller
	if _, err := svc.Login(ctx, &LoginInput{Username: "reader", Password: "wrongpassword"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, &LoginInput{Username: "nobody", Password: "longenough1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthLogin_InactiveAccount(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(db)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &RegisterInput{Username: "reader", Email: "reader@example.com", Password: "longenough1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	db.Model(&models.User{}).Where("id = ?", resp.User.ID).Update("is_active", false)

	if _, err := svc.Login(ctx, &LoginInput{Username: "reader", Password: "longenough1"}); !errors.Is(err, ErrUserInactive) {
		t.Errorf("err = %v, want ErrUserInactive", err)
	}
}

func TestAuthRefresh_RotatesToken(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(db)
	ctx := context.Background()

	first, err := svc.Register(ctx, &RegisterInput{Username: "reader", Email: "reader@example.com", Password: "longenough1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	second, err := svc.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Error("Refresh must rotate the refresh token")
	}

	// The spent token is revoked and cannot be replayed
	if _, err := svc.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("replay err = %v, want ErrTokenRevoked", err)
	}
	// The new one still works
	if _, err := svc.Refresh(ctx, second.RefreshToken); err != nil {
		t.Errorf("Refresh of rotated token: %v", err)
	}
}

func TestAuthRefresh_GarbageToken(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(db)

	if _, err := svc.Refresh(context.Background(), "not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestAuthLogout(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(db)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &RegisterInput{Username: "reader", Email: "reader@example.com", Password: "longenough1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.Logout(ctx, resp.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, resp.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("post-logout refresh err = %v, want ErrTokenRevoked", err)
	}

	// Logging out an unknown token is a no-op, not an error
	if err := svc.Logout(ctx, "not-a-jwt"); err != nil {
		t.Errorf("Logout of unknown token: %v", err)
	}
}

func TestAuthLogoutAll(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(db)
	ctx := context.Background()

	reg, err := svc.Register(ctx, &RegisterInput{Username: "reader", Email: "reader@example.com", Password: "longenough1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	login, err := svc.Login(ctx, &LoginInput{Username: "reader", Password: "longenough1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.LogoutAll(ctx, reg.User.ID); err != nil {
		t.Fatalf("LogoutAll: %v", err)
	}
	for _, token := range []string{reg.RefreshToken, login.RefreshToken} {
		if _, err := svc.Refresh(ctx, token); !errors.Is(err, ErrTokenRevoked) {
			t.Errorf("refresh after LogoutAll err = %v, want ErrTokenRevoked", err)
		}
	}
}

func TestAuthMe(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(db)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &RegisterInput{Username: "reader", Email: "reader@example.com", Password: "longenough1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	me, err := svc.Me(ctx, resp.User.ID)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.Username != "reader" {
		t.Errorf("Username = %s, want reader", me.Username)
	}
	if _, err := svc.Me(ctx, 9999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

package service

import (
	"context"
	"testing"

	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/domain"
)

func authConfigForTest() config.AuthConfig {
	return config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 15, BcryptCost: 4}
}

func TestLoginUserIssuesToken(t *testing.T) {
	hash, err := auth.HashPassword("hunter2", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users := &fakeUserRepo{
		GetByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: "u1", Email: email, PasswordHash: hash}, nil
		},
	}
	svc := NewAuthService(authConfigForTest(), users, &fakeAdminRepo{})

	token, expiresAt, err := svc.LoginUser(context.Background(), "sam@example.com", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" || expiresAt.IsZero() {
		t.Fatal("expected token and expiry")
	}
	claims, err := svc.TokenManager().ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.SubjectID != "u1" || claims.Subject != domain.SubjectTypeUser {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestLoginUserWrongPassword(t *testing.T) {
	hash, _ := auth.HashPassword("hunter2", 4)
	users := &fakeUserRepo{
		GetByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: "u1", Email: email, PasswordHash: hash}, nil
		},
	}
	svc := NewAuthService(authConfigForTest(), users, &fakeAdminRepo{})

	_, _, err := svc.LoginUser(context.Background(), "sam@example.com", "wrong")
	assertCode(t, err, "UNAUTHORIZED")
}

func TestLoginUserUnknownEmail(t *testing.T) {
	svc := NewAuthService(authConfigForTest(), &fakeUserRepo{}, &fakeAdminRepo{})

	_, _, err := svc.LoginUser(context.Background(), "nobody@example.com", "pw")
	assertCode(t, err, "UNAUTHORIZED")
}

func TestLoginAdminDeactivated(t *testing.T) {
	hash, _ := auth.HashPassword("hunter2", 4)
	admins := &fakeAdminRepo{
		GetByEmailFn: func(ctx context.Context, email string) (*domain.Admin, error) {
			return &domain.Admin{ID: "a1", Email: email, PasswordHash: hash, Active: false}, nil
		},
	}
	svc := NewAuthService(authConfigForTest(), &fakeUserRepo{}, admins)

	_, _, err := svc.LoginAdmin(context.Background(), "lee@example.com", "hunter2")
	assertCode(t, err, "UNAUTHORIZED")
}

func TestLoginAdminIssuesAdminToken(t *testing.T) {
	hash, _ := auth.HashPassword("hunter2", 4)
	admins := &fakeAdminRepo{
		GetByEmailFn: func(ctx context.Context, email string) (*domain.Admin, error) {
			return &domain.Admin{ID: "a1", Email: email, PasswordHash: hash, Active: true}, nil
		},
	}
	svc := NewAuthService(authConfigForTest(), &fakeUserRepo{}, admins)

	token, _, err := svc.LoginAdmin(context.Background(), "lee@example.com", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := svc.TokenManager().ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != domain.SubjectTypeAdmin {
		t.Fatalf("subject = %s", claims.Subject)
	}
}

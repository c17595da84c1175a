// Package identity authenticates panel users against Supabase GoTrue or,
// for development, a local users table.
package identity

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("E-mail ou senha inválidos.")
	ErrInvalidToken       = errors.New("Token inválido ou expirado.")
	ErrEmailTaken         = errors.New("E-mail já cadastrado.")
	ErrSignUpFailed       = errors.New("Erro na criação do usuário.")
)

// Identity is an authenticated user.
type Identity struct {
	ID    string
	Email string
	Name  *string
	Phone *string
}

// Session is an identity with its bearer token. AccessToken is empty when
// the provider requires e-mail confirmation first.
type Session struct {
	Identity
	AccessToken string
}

type SignUpInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

type Provider interface {
	SignUp(ctx context.Context, in SignUpInput) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	Verify(ctx context.Context, token string) (*Identity, error)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"

	"github.com/nexoraai/nexora_server/config"
	"github.com/nexoraai/nexora_server/internal/pkg/logger"
)

// SupabaseProvider delegates to GoTrue with the anon key.
type SupabaseProvider struct {
	client *supabase.Client
}

func NewSupabaseProvider(cfg config.SupabaseConfig) (*SupabaseProvider, error) {
	if cfg.URL == "" || cfg.AnonKey == "" {
		return nil, fmt.Errorf("supabase url and anon key are required")
	}
	client, err := supabase.NewClient(cfg.URL, cfg.AnonKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("supabase client: %w", err)
	}
	return &SupabaseProvider{client: client}, nil
}

func (p *SupabaseProvider) SignUp(_ context.Context, in SignUpInput) (*Session, error) {
	resp, err := p.client.Auth.Signup(types.SignupRequest{
		Email:    in.Email,
		Password: in.Password,
		Data: map[string]interface{}{
			"full_name": optional(in.Name),
			"phone":     optional(in.Phone),
		},
	})
	if err != nil {
		logger.WithComponent("identity").WithError(err).Warn("supabase signup failed")
		return nil, fmt.Errorf("%w: %v", ErrSignUpFailed, err)
	}

	// with autoconfirm on, the user comes back inside the session
	user := resp.User
	if user.ID == uuid.Nil {
		user = resp.Session.User
	}
	if user.ID == uuid.Nil {
		return nil, ErrSignUpFailed
	}

	return &Session{
		Identity:    toIdentity(user),
		AccessToken: resp.AccessToken,
	}, nil
}

func (p *SupabaseProvider) SignIn(_ context.Context, email, password string) (*Session, error) {
	resp, err := p.client.Auth.Token(types.TokenRequest{
		GrantType: "password",
		Email:     email,
		Password:  password,
	})
	if err != nil {
		logger.WithComponent("identity").WithError(err).Info("supabase login rejected")
		return nil, ErrInvalidCredentials
	}
	return &Session{
		Identity:    toIdentity(resp.User),
		AccessToken: resp.AccessToken,
	}, nil
}

func (p *SupabaseProvider) Verify(_ context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	resp, err := p.client.Auth.WithToken(token).GetUser()
	if err != nil || resp == nil || resp.ID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	identity := toIdentity(resp.User)
	return &identity, nil
}

func toIdentity(u types.User) Identity {
	id := Identity{ID: u.ID.String(), Email: u.Email}
	if name, ok := u.UserMetadata["full_name"].(string); ok && name != "" {
		id.Name = &name
	}
	if phone, ok := u.UserMetadata["phone"].(string); ok && phone != "" {
		id.Phone = &phone
	}
	return id
}

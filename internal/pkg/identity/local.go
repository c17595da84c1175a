package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/nexoraai/nexora_server/config"
	"github.com/nexoraai/nexora_server/internal/model"
	"github.com/nexoraai/nexora_server/internal/pkg/jwt"
	"github.com/nexoraai/nexora_server/internal/repository"
)

// LocalProvider keeps users in the database and issues HS256 tokens.
type LocalProvider struct {
	users *repository.UserRepository
	cfg   config.JWTConfig
}

func NewLocalProvider(users *repository.UserRepository, cfg config.JWTConfig) *LocalProvider {
	return &LocalProvider{users: users, cfg: cfg}
}

func (p *LocalProvider) SignUp(_ context.Context, in SignUpInput) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	exists, err := p.users.ExistsByEmail(email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	name := in.Name
	if name == "" {
		name = email
	}
	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		Phone:        optional(in.Phone),
		PasswordHash: string(hash),
	}
	if err := p.users.Create(user); err != nil {
		return nil, err
	}

	return p.session(user)
}

func (p *LocalProvider) SignIn(_ context.Context, email, password string) (*Session, error) {
	user, err := p.users.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return p.session(user)
}

func (p *LocalProvider) Verify(_ context.Context, token string) (*Identity, error) {
	claims, err := jwt.ParseToken(token, p.cfg.Secret)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := p.users.GetByID(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	identity := toLocalIdentity(user)
	return &identity, nil
}

func (p *LocalProvider) session(user *model.User) (*Session, error) {
	token, err := jwt.GenerateToken(user.ID, user.Email, p.cfg.Secret, p.cfg.ExpireHours)
	if err != nil {
		return nil, err
	}
	return &Session{Identity: toLocalIdentity(user), AccessToken: token}, nil
}

func toLocalIdentity(u *model.User) Identity {
	return Identity{ID: u.ID, Email: u.Email, Name: optional(u.Name), Phone: u.Phone}
}

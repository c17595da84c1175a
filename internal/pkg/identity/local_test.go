package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexoraai/nexora_server/config"
	"github.com/nexoraai/nexora_server/internal/pkg/jwt"
	"github.com/nexoraai/nexora_server/internal/repository"
	"github.com/nexoraai/nexora_server/internal/testutil"
)

func newLocal(t *testing.T) *LocalProvider {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	return NewLocalProvider(repository.NewUserRepository(db), config.JWTConfig{Secret: "test-secret", ExpireHours: 1})
}

func TestLocalProvider_SignUpAndSignIn(t *testing.T) {
	p := newLocal(t)
	ctx := context.Background()

	session, err := p.SignUp(ctx, SignUpInput{Email: "Ana@Example.com", Password: "secret123", Name: "Ana", Phone: "+55 11 9"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.Equal(t, "ana@example.com", session.Email)
	require.NotNil(t, session.Name)
	assert.Equal(t, "Ana", *session.Name)

	login, err := p.SignIn(ctx, "ana@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, session.ID, login.ID)

	identity, err := p.Verify(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.ID, identity.ID)
	assert.Equal(t, "+55 11 9", *identity.Phone)
}

func TestLocalProvider_SignUp_EmailTaken(t *testing.T) {
	p := newLocal(t)
	ctx := context.Background()

	_, err := p.SignUp(ctx, SignUpInput{Email: "dup@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = p.SignUp(ctx, SignUpInput{Email: "dup@example.com", Password: "other123"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLocalProvider_SignIn_Wrong(t *testing.T) {
	p := newLocal(t)
	ctx := context.Background()

	_, err := p.SignUp(ctx, SignUpInput{Email: "a@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = p.SignIn(ctx, "a@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = p.SignIn(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLocalProvider_Verify_Rejects(t *testing.T) {
	p := newLocal(t)
	ctx := context.Background()

	_, err := p.Verify(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign, err := jwt.GenerateToken("ghost", "g@example.com", "test-secret", 1)
	require.NoError(t, err)
	_, err = p.Verify(ctx, foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	otherSecret, err := jwt.GenerateToken("ghost", "g@example.com", "other", 1)
	require.NoError(t, err)
	_, err = p.Verify(ctx, otherSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewSupabaseProvider_RequiresConfig(t *testing.T) {
	_, err := NewSupabaseProvider(config.SupabaseConfig{})
	assert.Error(t, err)
}

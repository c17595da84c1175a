package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexoraai/nexora_server/internal/model"
	"github.com/nexoraai/nexora_server/internal/pkg/identity"
	"github.com/nexoraai/nexora_server/internal/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubProvider accepts the tokens it knows.
type stubProvider struct {
	users map[string]*identity.Identity
}

func (p *stubProvider) SignUp(context.Context, identity.SignUpInput) (*identity.Session, error) {
	return nil, errors.New("not implemented")
}

func (p *stubProvider) SignIn(context.Context, string, string) (*identity.Session, error) {
	return nil, errors.New("not implemented")
}

func (p *stubProvider) Verify(_ context.Context, token string) (*identity.Identity, error) {
	if user, ok := p.users[token]; ok {
		return user, nil
	}
	return nil, identity.ErrInvalidToken
}

func newStubProvider() *stubProvider {
	return &stubProvider{users: map[string]*identity.Identity{
		"good-token": {ID: "user-1", Email: "a@example.com"},
	}}
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func serve(router *gin.Engine, target, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", target, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuth_Success(t *testing.T) {
	router := gin.New()
	router.Use(Auth(newStubProvider()))
	router.GET("/test", func(c *gin.Context) {
		userID, ok := GetUserID(c)
		assert.True(t, ok)
		assert.Equal(t, "user-1", userID)

		user, ok := GetIdentity(c)
		require.True(t, ok)
		assert.Equal(t, "a@example.com", user.Email)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := serve(router, "/test", "Bearer good-token")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_TokenQuery(t *testing.T) {
	router := gin.New()
	router.Use(Auth(newStubProvider()))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"owner": Owner(c)})
	})

	w := serve(router, "/test?token=good-token", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"owner":"user-1"`)
}

func TestAuth_Rejections(t *testing.T) {
	router := gin.New()
	router.Use(Auth(newStubProvider()))
	router.GET("/test", func(c *gin.Context) {
		t.Fatal("handler must not run")
	})

	for _, header := range []string{"", "good-token", "Bearer ", "Bearer bad-token", "Basic abc"} {
		w := serve(router, "/test", header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		resp := parseResponse(t, w)
		assert.False(t, resp.OK)
		assert.NotEmpty(t, resp.Error)
	}
}

func TestOptionalAuth(t *testing.T) {
	router := gin.New()
	router.Use(OptionalAuth(newStubProvider()))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"owner": Owner(c)})
	})

	w := serve(router, "/test", "Bearer good-token")
	assert.Contains(t, w.Body.String(), `"owner":"user-1"`)

	w = serve(router, "/test", "Bearer bad-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"owner":"`+model.LocalOwner+`"`)

	w = serve(router, "/test", "")
	assert.Contains(t, w.Body.String(), `"owner":"`+model.LocalOwner+`"`)
}

func TestGetUserID_WrongType(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(UserIDKey, 42)

	_, ok := GetUserID(c)
	assert.False(t, ok)
	assert.Equal(t, model.LocalOwner, Owner(c))
}

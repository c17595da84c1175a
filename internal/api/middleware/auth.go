package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nexoraai/nexora_server/internal/model"
	"github.com/nexoraai/nexora_server/internal/pkg/identity"
	"github.com/nexoraai/nexora_server/internal/pkg/response"
)

const (
	UserIDKey   = "userID"
	IdentityKey = "identity"
)

// bearerToken reads "Authorization: Bearer <token>", falling back to the
// token query parameter used by redirects and websockets.
func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || strings.TrimSpace(token) == "" {
			return "", false
		}
		return strings.TrimSpace(token), true
	}
	if token := c.Query("token"); token != "" {
		return token, true
	}
	return "", false
}

// Auth rejects requests without a token the provider accepts.
func Auth(provider identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.AuthError(c, "Token ausente.")
			c.Abort()
			return
		}

		user, err := provider.Verify(c.Request.Context(), token)
		if err != nil {
			response.AuthError(c, identity.ErrInvalidToken.Error())
			c.Abort()
			return
		}

		setIdentity(c, user)
		c.Next()
	}
}

// OptionalAuth attaches the identity when a valid token is present.
func OptionalAuth(provider identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if user, err := provider.Verify(c.Request.Context(), token); err == nil {
				setIdentity(c, user)
			}
		}
		c.Next()
	}
}

func setIdentity(c *gin.Context, user *identity.Identity) {
	c.Set(IdentityKey, user)
	c.Set(UserIDKey, user.ID)
}

func GetIdentity(c *gin.Context) (*identity.Identity, bool) {
	v, exists := c.Get(IdentityKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*identity.Identity)
	return user, ok
}

func GetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// Owner keys per-caller Meta data: the user id, or the shared local owner
// for anonymous callers.
func Owner(c *gin.Context) string {
	if id, ok := GetUserID(c); ok {
		return id
	}
	return model.LocalOwner
}

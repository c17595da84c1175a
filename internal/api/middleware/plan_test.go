package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubPlans struct {
	active map[string]bool
	err    error
}

func (s *stubPlans) HasActivePlan(userID string) (bool, error) {
	return s.active[userID], s.err
}

func planRouter(plans PlanChecker, enabled bool) *gin.Engine {
	router := gin.New()
	router.Use(OptionalAuth(newStubProvider()))
	router.Use(RequirePlan(plans, enabled))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestRequirePlan(t *testing.T) {
	plans := &stubPlans{active: map[string]bool{}}

	w := serve(planRouter(plans, true), "/test", "Bearer good-token")
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	resp := parseResponse(t, w)
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "plano expirou")

	plans.active["user-1"] = true
	w = serve(planRouter(plans, true), "/test", "Bearer good-token")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequirePlan_AnonymousAndDisabled(t *testing.T) {
	plans := &stubPlans{active: map[string]bool{}}

	w := serve(planRouter(plans, true), "/test", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(planRouter(plans, false), "/test", "Bearer good-token")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequirePlan_Error(t *testing.T) {
	plans := &stubPlans{err: errors.New("db down")}

	w := serve(planRouter(plans, true), "/test", "Bearer good-token")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2)
	router := gin.New()
	router.Use(OptionalAuth(newStubProvider()))
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	assert.Equal(t, http.StatusOK, serve(router, "/test", "Bearer good-token").Code)
	assert.Equal(t, http.StatusOK, serve(router, "/test", "Bearer good-token").Code)
	w := serve(router, "/test", "Bearer good-token")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.False(t, parseResponse(t, w).OK)

	// anonymous callers have their own bucket
	assert.Equal(t, http.StatusOK, serve(router, "/test", "").Code)
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0)
	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, serve(router, "/test", "").Code)
	}
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	router := gin.New()
	router.Use(RequestLogger())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/nexoraai/nexora_server/config"
	"github.com/nexoraai/nexora_server/internal/api/middleware"
	"github.com/nexoraai/nexora_server/internal/pkg/identity"
	"github.com/nexoraai/nexora_server/internal/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:      "test-secret-key",
			ExpireHours: 24,
		},
		Plans: config.PlansConfig{
			TrialDays: 7,
			Catalog: map[string]config.PlanOffer{
				"biweekly": {Title: "Nexora Pro 15 dias", DurationDays: 15, Price: 37, Currency: "BRL"},
				"monthly":  {Title: "Nexora Pro 30 dias", DurationDays: 30, Price: 68, Currency: "BRL"},
			},
		},
		Generation: config.GenerationConfig{
			MaxReferenceImages: 3,
			MaxReferenceBytes:  6 << 20,
			CorpusPosts:        25,
			CorpusPostChars:    1200,
			CorpusTotalChars:   12000,
			StyleSampleImages:  6,
		},
		History: config.HistoryConfig{Limit: 20},
	}
}

func performRequest(r http.Handler, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func parseBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// withIdentity stands in for the auth middleware.
func withIdentity(user *identity.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.IdentityKey, user)
		c.Set(middleware.UserIDKey, user.ID)
		c.Next()
	}
}

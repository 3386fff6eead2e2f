package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/policy"
	"github.com/Baaaki/yamdb/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubAuthenticator map[string]*models.User

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*models.User, error) {
	if token == "broken" {
		return nil, errors.New("database is down")
	}
	user, ok := s[token]
	if !ok {
		return nil, utils.ErrInvalidToken
	}
	return user, nil
}

func newAuthRouter(p policy.Policy) *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := stubAuthenticator{
		"user-token":  {Username: "alice", Role: models.RoleUser},
		"admin-token": {Username: "root", Role: models.RoleAdmin},
	}

	router := gin.New()
	router.Use(AuthMiddleware(auth))
	handler := func(c *gin.Context) {
		name := "anonymous"
		if user := CurrentUser(c); user != nil {
			name = user.Username
		}
		c.String(http.StatusOK, name)
	}
	router.GET("/resource", RequirePermission(p), handler)
	router.POST("/resource", RequirePermission(p), handler)
	return router
}

func call(router http.Handler, method, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/resource", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	router := newAuthRouter(policy.AdminOrReadOnly)

	tests := []struct {
		name   string
		method string
		header string
		status int
		body   string
	}{
		{"anonymous read", http.MethodGet, "", http.StatusOK, "anonymous"},
		{"authenticated read", http.MethodGet, "Bearer user-token", http.StatusOK, "alice"},
		{"missing bearer prefix", http.MethodGet, "user-token", http.StatusUnauthorized, ""},
		{"unknown token", http.MethodGet, "Bearer nope", http.StatusUnauthorized, ""},
		{"lookup failure", http.MethodGet, "Bearer broken", http.StatusInternalServerError, ""},
		{"anonymous write", http.MethodPost, "", http.StatusUnauthorized, ""},
		{"user write", http.MethodPost, "Bearer user-token", http.StatusForbidden, ""},
		{"admin write", http.MethodPost, "Bearer admin-token", http.StatusOK, "root"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(router, tt.method, tt.header)
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SecurityHeadersMiddleware(), HSTSMiddleware(true))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}

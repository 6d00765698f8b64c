package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"watchtower-service/service/auth"
)

type stubParser struct{}

func (stubParser) ParseToken(token string) (*auth.Claims, error) {
	if token == "good" {
		return &auth.Claims{UserID: "u-1", Email: "u@example.com"}, nil
	}
	return nil, errors.New("bad token")
}

func TestOptionalAuth(t *testing.T) {
	var scope string
	handler := OptionalAuth(stubParser{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope = OwnerScope(r.Context())
	}))

	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"有效令牌", "Bearer good", "u-1"},
		{"大小写不敏感", "bearer good", "u-1"},
		{"无效令牌按匿名", "Bearer bad", ""},
		{"缺少令牌", "", ""},
		{"非 Bearer", "Basic good", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			scope = "unset"
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tc.want, scope)
		})
	}
}

func TestRequireUser(t *testing.T) {
	handler := OptionalAuth(stubParser{})(RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Not authenticated")

	req.Header.Set("Authorization", "Bearer bad")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid token")

	req.Header.Set("Authorization", "Bearer good")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

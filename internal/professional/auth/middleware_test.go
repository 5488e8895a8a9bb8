package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMiddleware(t *testing.T) {
	const (
		validSecret   = "test-secret"
		invalidSecret = "wrong-secret"
		userID        = "test-user"
	)

	generateToken := func(secret string, expiresAt time.Time) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": userID,
			"exp": expiresAt.Unix(),
		})
		tokenString, _ := token.SignedString([]byte(secret))
		return tokenString
	}

	tests := []struct {
		name       string
		method     string
		path       string
		header     string
		wantStatus int
		wantClaims bool
	}{
		{
			name:       "write with valid token",
			method:     http.MethodPost,
			path:       "/professionals",
			header:     "Bearer " + generateToken(validSecret, time.Now().Add(time.Hour)),
			wantStatus: http.StatusOK,
			wantClaims: true,
		},
		{
			name:       "write with token signed by another secret",
			method:     http.MethodPost,
			path:       "/professionals/bulk",
			header:     "Bearer " + generateToken(invalidSecret, time.Now().Add(time.Hour)),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "write with expired token",
			method:     http.MethodDelete,
			path:       "/professionals/4",
			header:     "Bearer " + generateToken(validSecret, time.Now().Add(-time.Hour)),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "write without header",
			method:     http.MethodPost,
			path:       "/professionals/4/resume",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "write with malformed header",
			method:     http.MethodPost,
			path:       "/professionals",
			header:     "Token abc",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "read is public",
			method:     http.MethodGet,
			path:       "/professionals",
			wantStatus: http.StatusOK,
		},
		{
			name:       "health is public",
			method:     http.MethodGet,
			path:       "/healthz",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotClaims bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				claims, ok := ClaimsFromContext(r.Context())
				gotClaims = ok && claims["sub"] == userID
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			HTTPMiddleware(next, validSecret).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantClaims, gotClaims)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), `"detail"`)
			}
		})
	}
}

func TestHTTPMiddlewareDisabled(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

	rec := httptest.NewRecorder()
	HTTPMiddleware(next, "").ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/professionals", nil))
	assert.True(t, called)
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken("12345", "secret")
	require.NoError(t, err)

	claims, err := validateToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "12345", claims["sub"])

	_, err = validateToken(token, "other")
	assert.Error(t, err)
}

func TestValidateTokenRejectsOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"})
	unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = validateToken(unsigned, "secret")
	assert.Error(t, err)
}

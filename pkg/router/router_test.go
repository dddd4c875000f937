package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgconfig "github.com/plannr/plannr-backend/pkg/config"
	apperrors "github.com/plannr/plannr-backend/pkg/errors"
	"github.com/plannr/plannr-backend/pkg/iam"
	"github.com/plannr/plannr-backend/pkg/login"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testAppConfig(googleURL string) pkgconfig.Config {
	return pkgconfig.Config{
		Server: pkgconfig.ServerConfig{
			CORSOrigins:    []string{"http://localhost:3000"},
			RequestTimeout: 5 * time.Second,
		},
		JWT: pkgconfig.JWTConfig{
			Secret:            "router-test-secret",
			AccessTokenExpiry: time.Hour,
			Issuer:            "plannr",
		},
		Google: pkgconfig.GoogleConfig{
			ClientID:     "web-client",
			TokenInfoURL: googleURL,
			Timeout:      time.Second,
		},
		Password:  pkgconfig.PasswordConfig{BcryptCost: bcrypt.MinCost},
		RateLimit: pkgconfig.RateLimitConfig{Enabled: false},
	}
}

func newTestServer(t *testing.T, appConfig pkgconfig.Config) (http.Handler, *iam.InMemoryIamRepository) {
	t.Helper()
	repo := iam.NewInMemoryIamRepository()
	require.NoError(t, repo.Seed(context.Background()))

	cfg, err := NewConfig(repo, appConfig)
	require.NoError(t, err)
	return NewRouter(cfg), repo
}

func request(t *testing.T, h http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:4711"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func errorDetail(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Detail
}

func TestRouter_LocalAuthFlow(t *testing.T) {
	h, _ := newTestServer(t, testAppConfig("http://127.0.0.1:1"))

	rr := request(t, h, http.MethodPost, "/auth/register",
		map[string]string{"name": "Ana", "email": "ana@x.io", "password": "pw1"}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var registered login.AuthResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &registered))
	assert.Equal(t, "bearer", registered.TokenType)
	require.Len(t, registered.User.Permissions, 12)
	for name, granted := range registered.User.Permissions {
		assert.False(t, granted, name)
	}

	rr = request(t, h, http.MethodPost, "/auth/register",
		map[string]string{"name": "Ana", "email": "ana@x.io", "password": "pw2"}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Email already registered", errorDetail(t, rr))

	rr = request(t, h, http.MethodPost, "/auth/login",
		map[string]string{"email": "ana@x.io", "password": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid email or password", errorDetail(t, rr))

	rr = request(t, h, http.MethodPost, "/auth/login",
		map[string]string{"email": "ana@x.io", "password": "pw1"}, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = request(t, h, http.MethodGet, "/auth/me", nil, registered.AccessToken)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = request(t, h, http.MethodGet, "/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Not authenticated", errorDetail(t, rr))

	rr = request(t, h, http.MethodGet, "/auth/me", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid or expired token", errorDetail(t, rr))
}

func TestRouter_GoogleSignIn(t *testing.T) {
	google := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("id_token") {
		case "good":
			_ = json.NewEncoder(w).Encode(map[string]string{
				"sub": "g-1", "email": "gina@x.io", "aud": "web-client",
			})
		case "foreign":
			_ = json.NewEncoder(w).Encode(map[string]string{
				"sub": "g-2", "email": "eve@x.io", "aud": "other-client",
			})
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	t.Cleanup(google.Close)

	h, _ := newTestServer(t, testAppConfig(google.URL))

	rr := request(t, h, http.MethodPost, "/auth/google", map[string]string{"credential": "good"}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var result login.AuthResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, "gina", result.User.Name)
	assert.Equal(t, iam.ProviderGoogle, result.User.AuthProvider)

	rr = request(t, h, http.MethodPost, "/auth/google", map[string]string{"credential": "good"}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var again login.AuthResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &again))
	assert.Equal(t, result.User.ID, again.User.ID)

	rr = request(t, h, http.MethodPost, "/auth/google", map[string]string{"credential": "bad"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid Google token", errorDetail(t, rr))

	rr = request(t, h, http.MethodPost, "/auth/google", map[string]string{"credential": "foreign"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Google token audience mismatch", errorDetail(t, rr))
}

func TestRouter_RoutesRequireSession(t *testing.T) {
	h, repo := newTestServer(t, testAppConfig("http://127.0.0.1:1"))

	rr := request(t, h, http.MethodGet, "/roles/", nil, "")
	require.Equal(t, http.StatusOK, rr.Code, "role list is public")
	var roles []iam.Role
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &roles))
	require.Len(t, roles, 4)

	protected := []struct{ method, path string }{
		{http.MethodPost, "/roles/"},
		{http.MethodGet, "/roles/" + roles[0].ID.String()},
		{http.MethodGet, "/roles/" + roles[0].ID.String() + "/permissions"},
		{http.MethodGet, "/users/"},
		{http.MethodDelete, "/users/" + roles[0].ID.String()},
	}
	for _, p := range protected {
		rr := request(t, h, p.method, p.path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", p.method, p.path)
	}

	rr = request(t, h, http.MethodPost, "/auth/register",
		map[string]any{"name": "Admin", "email": "admin@x.io", "password": "pw", "role_id": roles[0].ID}, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	var admin login.AuthResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &admin))
	assert.True(t, admin.User.Permissions[iam.PermAdminWrite])

	rr = request(t, h, http.MethodGet, "/users/", nil, admin.AccessToken)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = request(t, h, http.MethodGet, "/roles/"+roles[0].ID.String()+"/permissions", nil, admin.AccessToken)
	require.Equal(t, http.StatusOK, rr.Code)

	users, err := repo.FindUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestRouter_RateLimit(t *testing.T) {
	appConfig := testAppConfig("http://127.0.0.1:1")
	appConfig.RateLimit = pkgconfig.RateLimitConfig{Enabled: true, LoginLimit: 2, SignupLimit: 1, WindowLength: time.Minute}
	h, _ := newTestServer(t, appConfig)

	creds := map[string]string{"email": "nobody@x.io", "password": "pw"}
	for i := 0; i < 2; i++ {
		rr := request(t, h, http.MethodPost, "/auth/login", creds, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	}
	rr := request(t, h, http.MethodPost, "/auth/login", creds, "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "Too many requests", errorDetail(t, rr))

	rr = request(t, h, http.MethodGet, "/roles/", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code, "other routes are not limited")
}

func TestRouter_Healthz(t *testing.T) {
	repo := iam.NewInMemoryIamRepository()
	cfg, err := NewConfig(repo, testAppConfig("http://127.0.0.1:1"))
	require.NoError(t, err)

	rr := request(t, NewRouter(cfg), http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	cfg.HealthCheck = func(context.Context) error { return errors.New("db down") }
	rr = request(t, NewRouter(cfg), http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	h, _ := newTestServer(t, testAppConfig("http://127.0.0.1:1"))

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}

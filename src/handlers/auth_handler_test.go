package handlers

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/finentry/backend/src/authcfg"
	"golang.org/x/crypto/bcrypt"
)

func newAuthTestConfig(t *testing.T, password string) *authcfg.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &authcfg.Config{
		Credentials: authcfg.Credentials{
			Usernames: map[string]authcfg.User{
				"alice": {Name: "Alice", Password: string(hash)},
			},
		},
		Cookie: authcfg.Cookie{
			Name:       "finentry_auth",
			Key:        "0123456789abcdef0123456789abcdef",
			ExpiryDays: 30,
		},
	}
}

func newAuthHandler(t *testing.T, cfg *authcfg.Config) *AuthHandler {
	t.Helper()
	tmpl, err := template.ParseGlob("../../web/templates/*.html")
	require.NoError(t, err)
	return NewAuthHandler(cfg, tmpl, 5, 15*time.Minute)
}

func postLogin(h *AuthHandler, username, password string) *httptest.ResponseRecorder {
	values := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestShowLoginWarnsWhenUnauthenticated(t *testing.T) {
	h := newAuthHandler(t, newAuthTestConfig(t, "correct-horse"))

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	h.ShowLogin(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please enter your username and password.")
}

func TestLoginSuccessSetsSessionCookie(t *testing.T) {
	cfg := newAuthTestConfig(t, "correct-horse")
	h := newAuthHandler(t, cfg)

	rec := postLogin(h, "alice", "correct-horse")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	cookie := sessionCookie(t, rec, cfg.Cookie.Name)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestLoginWrongPasswordRejected(t *testing.T) {
	h := newAuthHandler(t, newAuthTestConfig(t, "correct-horse"))

	rec := postLogin(h, "alice", "wrong")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Username or password incorrect.")
}

func TestLoginUnknownUserRejected(t *testing.T) {
	h := newAuthHandler(t, newAuthTestConfig(t, "correct-horse"))

	rec := postLogin(h, "mallory", "whatever")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	h := newAuthHandler(t, newAuthTestConfig(t, "correct-horse"))

	for i := 0; i < 5; i++ {
		rec := postLogin(h, "alice", "wrong")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	// Even the correct password is rejected while locked out.
	rec := postLogin(h, "alice", "correct-horse")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many failed attempts.")
}

func TestLoginSuccessClearsFailureCount(t *testing.T) {
	h := newAuthHandler(t, newAuthTestConfig(t, "correct-horse"))

	for i := 0; i < 4; i++ {
		postLogin(h, "alice", "wrong")
	}
	rec := postLogin(h, "alice", "correct-horse")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	// The slate is clean again after a successful login.
	rec = postLogin(h, "alice", "wrong")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRedirectsWithoutCookie(t *testing.T) {
	h := newAuthHandler(t, newAuthTestConfig(t, "correct-horse"))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached without a session")
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.RequireAuth(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRequireAuthRejectsTamperedToken(t *testing.T) {
	cfg := newAuthTestConfig(t, "correct-horse")
	h := newAuthHandler(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cfg.Cookie.Name, Value: "not-a-jwt"})
	rec := httptest.NewRecorder()
	h.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached with a bad token")
	})).ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestRequireAuthAcceptsIssuedToken(t *testing.T) {
	cfg := newAuthTestConfig(t, "correct-horse")
	h := newAuthHandler(t, cfg)

	loginRec := postLogin(h, "alice", "correct-horse")
	cookie := sessionCookie(t, loginRec, cfg.Cookie.Name)

	var gotUsername string
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUsername, _ = GetUsernameFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", gotUsername)
}

func TestLogoutExpiresCookie(t *testing.T) {
	cfg := newAuthTestConfig(t, "correct-horse")
	h := newAuthHandler(t, cfg)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	cookie := sessionCookie(t, rec, cfg.Cookie.Name)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

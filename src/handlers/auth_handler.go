// backend/src/handlers/auth_handler.go
package handlers

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"
	"github.com/username/finentry/backend/src/authcfg"
	"github.com/username/finentry/backend/src/logger"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler gates the data-entry form behind the credentials and cookie
// parameters loaded from the auth YAML config.
type AuthHandler struct {
	cfg         *authcfg.Config
	templates   *template.Template
	failures    *cache.Cache // username -> consecutive failed logins, TTL-scoped
	maxFailures int
}

func NewAuthHandler(cfg *authcfg.Config, templates *template.Template, maxFailures int, lockoutWindow time.Duration) *AuthHandler {
	return &AuthHandler{
		cfg:         cfg,
		templates:   templates,
		failures:    cache.New(lockoutWindow, 2*lockoutWindow),
		maxFailures: maxFailures,
	}
}

type loginPage struct {
	Warning string
	Error   string
}

// ShowLogin renders the login page. The unauthenticated state shows a warning
// prompting for credentials.
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, http.StatusOK, loginPage{Warning: "Please enter your username and password."})
}

// Login verifies the submitted credentials against the configured bcrypt
// hashes and, on success, issues the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, http.StatusBadRequest, loginPage{Error: "Invalid login request."})
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	if h.isLockedOut(username) {
		ctxLogger.Warn("Login rejected: account locked out", "username", username)
		h.renderLogin(w, http.StatusTooManyRequests, loginPage{Error: "Too many failed attempts. Try again later."})
		return
	}

	user, ok := h.cfg.Credentials.Usernames[username]
	if !ok || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		h.recordFailure(username)
		ctxLogger.Warn("Login failed: bad credentials", "username", username)
		h.renderLogin(w, http.StatusUnauthorized, loginPage{Error: "Username or password incorrect."})
		return
	}

	token, expiry, err := h.issueToken(username)
	if err != nil {
		ctxLogger.Error("Failed to sign session token", "username", username, "error", err)
		h.renderLogin(w, http.StatusInternalServerError, loginPage{Error: "Login failed. Try again."})
		return
	}

	h.failures.Delete(username)

	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.Cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  expiry,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})

	ctxLogger.Info("User logged in", "username", username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout expires the session cookie and returns to the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.Cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	if username, ok := GetUsernameFromContext(r.Context()); ok {
		logger.FromContext(r.Context()).Info("User logged out", "username", username)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// RequireAuth validates the session cookie and injects the username into the
// request context. Unauthenticated requests are sent to the login page.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(h.cfg.Cookie.Name)
		if err != nil || cookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		username, err := h.validateToken(cookie.Value)
		if err != nil {
			logger.FromContext(r.Context()).Debug("Session token rejected", "error", err)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctxLogger := logger.FromContext(r.Context()).With("username", username)
		ctx := logger.ToContext(r.Context(), ctxLogger)
		ctx = context.WithValue(ctx, usernameContextKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *AuthHandler) issueToken(username string) (string, time.Time, error) {
	expiry := time.Now().Add(time.Duration(h.cfg.Cookie.ExpiryDays) * 24 * time.Hour)
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiry),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.cfg.Cookie.Key))
	return token, expiry, err
}

func (h *AuthHandler) validateToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(h.cfg.Cookie.Key), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid session token")
	}
	if _, exists := h.cfg.Credentials.Usernames[claims.Subject]; !exists {
		return "", fmt.Errorf("unknown user %q in session token", claims.Subject)
	}
	return claims.Subject, nil
}

func (h *AuthHandler) isLockedOut(username string) bool {
	if n, found := h.failures.Get(username); found {
		return n.(int) >= h.maxFailures
	}
	return false
}

func (h *AuthHandler) recordFailure(username string) {
	if n, found := h.failures.Get(username); found {
		h.failures.Set(username, n.(int)+1, cache.DefaultExpiration)
		return
	}
	h.failures.Set(username, 1, cache.DefaultExpiration)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, status int, page loginPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, "login.html", page); err != nil {
		logger.L.Error("Failed to render login page", "error", err)
	}
}

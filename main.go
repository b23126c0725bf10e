package main

import (
	"encoding/json"
	"html/template"
	stdlog "log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/username/finentry/backend/src/authcfg"
	"github.com/username/finentry/backend/src/config"
	"github.com/username/finentry/backend/src/database"
	"github.com/username/finentry/backend/src/handlers"
	"github.com/username/finentry/backend/src/logger"
	"github.com/username/finentry/backend/src/store"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("finentry backend server starting...")

	logger.L.Info("Loading auth configuration...", "path", config.Cfg.AuthConfigPath)
	authConfig, err := authcfg.Load(config.Cfg.AuthConfigPath)
	if err != nil {
		logger.L.Error("Failed to load auth configuration", "error", err)
		stdlog.Fatalf("failed to load auth configuration: %v", err)
	}

	templates, err := template.ParseGlob(config.Cfg.TemplatesGlob)
	if err != nil {
		logger.L.Error("Failed to parse templates", "glob", config.Cfg.TemplatesGlob, "error", err)
		stdlog.Fatalf("failed to parse templates: %v", err)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.InitSchema()

	if err := store.SeedLookups(database.DB); err != nil {
		logger.L.Error("Failed to seed lookup tables", "error", err)
		stdlog.Fatalf("failed to seed lookup tables: %v", err)
	}

	authHandler := handlers.NewAuthHandler(authConfig, templates, config.Cfg.LoginMaxFailures, config.Cfg.LoginLockoutWindow)
	entryHandler := handlers.NewEntryHandler(database.DB, templates)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(rateLimitMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "finentry backend is running"})
	})

	r.Get("/login", authHandler.ShowLogin)
	r.Post("/login", authHandler.Login)
	r.Post("/logout", authHandler.Logout)

	r.Group(func(r chi.Router) {
		r.Use(authHandler.RequireAuth)
		r.Get("/", entryHandler.ShowForm)
		r.Post("/entries", entryHandler.Submit)
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tphummel/ict_assets/internal/auth"
	"github.com/tphummel/ict_assets/internal/db"
	"github.com/tphummel/ict_assets/internal/documents"
	"github.com/tphummel/ict_assets/internal/handlers"
	"github.com/tphummel/ict_assets/internal/inventory"
	"github.com/tphummel/ict_assets/internal/metrics"
	"github.com/tphummel/ict_assets/internal/middleware"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

// config is the service configuration, read from the environment.
type config struct {
	JWTSecret      string        `env:"JWT_SECRET,required,notEmpty"`
	DBPath         string        `env:"DB_PATH" envDefault:"./ict_assets.db"`
	Port           string        `env:"PORT" envDefault:"8080"`
	DocumentsDir   string        `env:"DOCUMENTS_DIR" envDefault:"./documents"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"12h"`
	LoginRateLimit int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	LogFile        string        `env:"LOG_FILE"`

	BootstrapAdminNumber   string `env:"BOOTSTRAP_ADMIN_NUMBER"`
	BootstrapAdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
	BootstrapAdminName     string `env:"BOOTSTRAP_ADMIN_NAME" envDefault:"Administrator"`
}

// loadConfig reads service configuration from environment variables and
// applies defaults. It returns an error when a required variable is absent.
func loadConfig() (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.TokenTTL <= 0 {
		return config{}, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	if cfg.LoginRateLimit <= 0 {
		return config{}, fmt.Errorf("LOGIN_RATE_LIMIT must be positive, got %d", cfg.LoginRateLimit)
	}
	return cfg, nil
}

// newLogger returns a JSON logger writing to w and, when logFile is set, to
// a size-rotated file. The returned closer releases the file.
func newLogger(w io.Writer, logFile string) (*slog.Logger, io.Closer) {
	if logFile == "" {
		return slog.New(slog.NewJSONHandler(w, nil)), io.NopCloser(nil)
	}
	rotator := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    50, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
	return slog.New(slog.NewJSONHandler(io.MultiWriter(w, rotator), nil)), rotator
}

// loginLimiter throttles sign-in attempts per client IP.
func loginLimiter(perMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		perMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(int(time.Minute.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "too many sign-in attempts"})
		}),
	)
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, logCloser := newLogger(os.Stderr, cfg.LogFile)
	defer logCloser.Close()
	slog.SetDefault(logger)

	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	docs, err := documents.NewStore(cfg.DocumentsDir, cfg.JWTSecret)
	if err != nil {
		log.Fatalf("failed to open documents store: %v", err)
	}

	inv := inventory.New(database)
	if cfg.BootstrapAdminNumber != "" && cfg.BootstrapAdminPassword != "" {
		if _, err := inv.BootstrapAdmin(context.Background(),
			cfg.BootstrapAdminName, cfg.BootstrapAdminNumber, cfg.BootstrapAdminPassword); err != nil {
			log.Fatalf("failed to bootstrap admin: %v", err)
		}
	}

	metrics.Register(prometheus.DefaultRegisterer, database)

	h := &handlers.Handler{
		Inventory: inv,
		Tokens:    auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Documents: docs,
		Version:   version,
		Commit:    commit,
	}
	mux := h.Routes(loginLimiter(cfg.LoginRateLimit))

	skip := func(r *http.Request) bool {
		return r.URL.Path == "/healthz" || r.URL.Path == "/metrics"
	}
	handler := middleware.RequestID(middleware.RequestLogger(slog.Default(), skip, mux))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("listening", "addr", srv.Addr, "version", version, "commit", commit)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}
	slog.Info("server stopped")
}

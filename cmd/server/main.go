package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/go-taxprep/auth"
	"github.com/diewo77/go-taxprep/internal/config"
	"github.com/diewo77/go-taxprep/internal/db"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()
	log := newLogger(cfg.App.Dev)
	slog.SetDefault(log)

	dbConn, err := db.Connect(cfg.Database, cfg.App.Dev)
	if err != nil {
		fatal(log, "failed to connect to database", err)
	}

	if *migrateOnlyFlag {
		if err := migrate(dbConn, cfg.Database); err != nil {
			fatal(log, "migration failed", err)
		}
		log.Info("migrations completed")
		return
	}
	if *seedOnlyFlag {
		if err := db.Seed(dbConn); err != nil {
			fatal(log, "seeding failed", err)
		}
		log.Info("seeding completed")
		return
	}

	if cfg.App.Migrations || cfg.App.Dev {
		if err := migrate(dbConn, cfg.Database); err != nil {
			fatal(log, "migration failed", err)
		}
	}
	if cfg.App.Seed || cfg.App.Dev {
		if err := db.Seed(dbConn); err != nil {
			fatal(log, "seeding failed", err)
		}
	}

	app := NewApp(dbConn, cfg, log)

	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		if _, err := app.accounts.EnsureAdmin(context.Background(), cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			fatal(log, "admin bootstrap failed", err)
		}
	}

	// Reject tokens of deleted accounts
	auth.SetUserVerifier(app.accounts.Exists)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Server.Port, "dev", cfg.App.Dev)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
	log.Info("server stopped gracefully")
}

// migrate runs the SQL migrations on PostgreSQL and AutoMigrate elsewhere.
func migrate(conn *gorm.DB, cfg config.DatabaseConfig) error {
	if cfg.Driver == "postgres" {
		return db.RunSQLMigrations(cfg.URL())
	}
	return db.AutoMigrate(conn)
}

func newLogger(dev bool) *slog.Logger {
	if dev {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}

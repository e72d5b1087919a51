package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hi-deen/PharmaTrack/internal/auth"
	"github.com/hi-deen/PharmaTrack/internal/config"
	"github.com/hi-deen/PharmaTrack/internal/db"
	transport "github.com/hi-deen/PharmaTrack/internal/http"
	"github.com/hi-deen/PharmaTrack/internal/http/middleware"
	"github.com/hi-deen/PharmaTrack/internal/mail"
	"github.com/hi-deen/PharmaTrack/internal/realtime"
	"github.com/hi-deen/PharmaTrack/internal/repo"
	"github.com/hi-deen/PharmaTrack/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Env)

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	dbConn, err := db.Connect(ctx, cfg.DBURL, cfg.RequestTimeout)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	if err := db.Migrate(ctx, dbConn.Pool, cfg.RequestTimeout); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}
	if err := db.EnsureAdminUser(ctx, dbConn.Pool, cfg.RequestTimeout, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Error("failed to seed admin user", "error", err)
		os.Exit(1)
	}

	userRepo := repo.NewUserRepo(dbConn.Pool, cfg.RequestTimeout)
	resetRepo := repo.NewResetTokenRepo(dbConn.Pool, cfg.RequestTimeout)
	deptRepo := repo.NewDepartmentRepo(dbConn.Pool, cfg.RequestTimeout)
	activityRepo := repo.NewActivityRepo(dbConn.Pool, cfg.RequestTimeout)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL, cfg.PartialTokenTTL)
	totp := auth.NewTOTP(cfg.TOTPIssuer)
	mailer := newMailer(cfg, logger)
	hub := realtime.NewHub()

	authService := services.NewAuthService(userRepo, resetRepo, tokens, totp, mailer, cfg)
	deptService := services.NewDepartmentService(deptRepo)
	activityService := services.NewActivityService(activityRepo, hub)

	router := transport.NewRouter(transport.Dependencies{
		Config:            cfg,
		AuthService:       authService,
		DepartmentService: deptService,
		ActivityService:   activityService,
		Tokens:            tokens,
		Hub:               hub,
		Logger:            logger,
		GlobalRateLimiter: middleware.NewRateLimiter(cfg.GlobalRateLimit, cfg.RateLimitWindow),
		AuthRateLimiter:   middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.RateLimitWindow),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadTimeout:       cfg.RequestTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		// No WriteTimeout: the events stream holds its response open.
		IdleTimeout: 60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErrors:
		logger.Error("http server stopped unexpectedly", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("http server stopped")
}

func newMailer(cfg *config.Config, logger *slog.Logger) mail.Mailer {
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP_HOST not set, mail goes to the log")
		return mail.NewLogMailer(logger)
	}
	return mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
}

func newLogger(env string) *slog.Logger {
	level := slog.LevelInfo
	if env != "prod" {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if env == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

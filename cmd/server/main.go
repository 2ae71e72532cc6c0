package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lifelog/backend/internal/auth"
	"lifelog/backend/internal/database"
	"lifelog/backend/internal/filestorage"
	"lifelog/backend/internal/handlers"
	appmiddleware "lifelog/backend/internal/middleware"
	"lifelog/backend/internal/notifications"
	"lifelog/backend/internal/router"
	"lifelog/backend/internal/seeders"
	"lifelog/backend/internal/services"
	"lifelog/backend/pkg/config"
	applog "lifelog/backend/pkg/log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const usage = `Usage: server [command]

Commands:
  serve             start the HTTP API (default)
  migrate           apply database migrations and exit
  cleanup-tokens    delete expired password reset tokens
  cleanup-sessions  delete expired sessions
  check-overdue     mark lendings past their expected return date as overdue
  seed-demo         create a demo account with sample data (not in production)
`

func connectDB() {
	if err := database.ConnectDB(config.Cfg.DSN(), config.Cfg.Environment); err != nil {
		applog.L.Fatal("Failed to connect to database", zap.Error(err))
	}
}

func startServer() {
	log := applog.L

	if err := auth.InitializeJWT(config.Cfg.JWTSecret); err != nil {
		log.Fatal("Failed to initialize JWT", zap.Error(err))
	}
	if err := handlers.RegisterValidators(); err != nil {
		log.Fatal("Failed to register request validators", zap.Error(err))
	}

	connectDB()
	if err := database.MigrateDB(); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	notifications.InitEmailService()
	filestorage.InitFileStorage(context.Background())

	if config.Cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := appmiddleware.NewRateLimitStore(ctx)
	if mem, ok := store.(*appmiddleware.MemoryStore); ok {
		go sweepRateLimits(ctx, mem)
	}

	srv := &http.Server{
		Addr:              ":" + config.Cfg.Port,
		Handler:           router.SetupRouter(log, store),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Starting server", zap.String("port", config.Cfg.Port), zap.String("environment", config.Cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func sweepRateLimits(ctx context.Context, store *appmiddleware.MemoryStore) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.Sweep()
		}
	}
}

func runMigrate() {
	connectDB()
	if err := database.MigrateDB(); err != nil {
		applog.L.Fatal("Database migration failed", zap.Error(err))
	}
	fmt.Println("Database migrations applied.")
}

func runCleanupTokens(ctx context.Context) {
	connectDB()
	removed, err := services.NewPasswordResetService(database.GetDB(), nil).CleanupExpiredTokens(ctx)
	if err != nil {
		applog.L.Fatal("Password reset token cleanup failed", zap.Error(err))
	}
	fmt.Printf("Removed %d expired password reset tokens.\n", removed)
}

func runCleanupSessions(ctx context.Context) {
	connectDB()
	removed, err := services.NewSessionService(database.GetDB(), nil, config.Cfg.SessionLifespan).CleanupExpired(ctx)
	if err != nil {
		applog.L.Fatal("Session cleanup failed", zap.Error(err))
	}
	fmt.Printf("Removed %d expired sessions.\n", removed)
}

func runCheckOverdue(ctx context.Context) {
	connectDB()
	updated, err := services.NewLendingService(database.GetDB(), nil).CheckAllOverdue(ctx)
	if err != nil {
		applog.L.Fatal("Overdue lending check failed", zap.Error(err))
	}
	fmt.Printf("Marked %d lendings as overdue.\n", updated)
}

func runSeedDemo(ctx context.Context) {
	if config.Cfg.IsProduction() {
		applog.L.Fatal("Refusing to seed demo data in production")
	}
	connectDB()
	if err := database.MigrateDB(); err != nil {
		applog.L.Fatal("Database migration failed", zap.Error(err))
	}
	user, created, err := seeders.SeedDemoData(ctx, database.GetDB(), seeders.DemoAccount{
		Email:      config.Cfg.DemoEmail,
		Password:   config.Cfg.DemoPassword,
		BcryptCost: config.Cfg.BcryptCost,
	})
	if err != nil {
		applog.L.Fatal("Demo seeding failed", zap.Error(err))
	}
	if !created {
		fmt.Printf("Demo account %s already exists.\n", user.Email)
		return
	}
	fmt.Printf("Demo account %s created.\n", user.Email)
}

func main() {
	applog.Init(config.Cfg.LogLevel, config.Cfg.Environment)
	defer func() { _ = applog.L.Sync() }()

	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	ctx := context.Background()
	switch command {
	case "serve":
		startServer()
	case "migrate":
		runMigrate()
	case "cleanup-tokens":
		runCleanupTokens(ctx)
	case "cleanup-sessions":
		runCleanupSessions(ctx)
	case "check-overdue":
		runCheckOverdue(ctx)
	case "seed-demo":
		runSeedDemo(ctx)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		os.Exit(2)
	}
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-backend/config"
	"storefront-backend/database"
	"storefront-backend/firebase"
	"storefront-backend/middleware"
	"storefront-backend/payment"
	"storefront-backend/routes"
	"storefront-backend/session"
	"storefront-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server. The schema is migrated and the default admin
account created before the server accepts requests.

Sessions use Redis when REDIS_URL is set and process memory otherwise.
Image endpoints answer 503 when FIREBASE_STORAGE_BUCKET is not set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	warnings, err := config.ValidateEnv()
	if err != nil {
		return fmt.Errorf("environment validation failed: %w", err)
	}
	defer log.Sync()

	for _, w := range warnings {
		log.Warn(w)
	}

	db, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	if _, err := database.CreateDefaultAdmin(db, log); err != nil {
		log.Warn("could not create default admin", zap.Error(err))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sessions, closeSessions := sessionStore(ctx, cfg, log)
	defer closeSessions()

	var storage firebase.StorageClient = firebase.DisabledStorage{}
	if cfg.FirebaseBucket != "" {
		s, err := firebase.New(ctx, cfg.FirebaseBucket, os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"), log)
		if err != nil {
			log.Warn("image storage disabled", zap.Error(err))
		} else {
			storage = s
		}
	}

	payments := payment.NewClient(cfg.LiqPayPublicKey, cfg.LiqPayPrivateKey, cfg.Currency)
	if !payments.Configured() {
		log.Warn("LiqPay keys missing, payment forms are unavailable")
	}

	storeURL := cfg.FrontendURL
	if storeURL == "" {
		storeURL = cfg.PublicBaseURL
	}

	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer authLimiter.Stop()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Limit multipart form memory to 10MB
	r.MaxMultipartMemory = 10 << 20

	routes.SetupRoutes(r, routes.Dependencies{
		DB:          db,
		Log:         log,
		Config:      cfg,
		Sessions:    sessions,
		Storage:     storage,
		Payments:    payments,
		Notifier:    utils.NewEmailNotifier(log, cfg.Currency, storeURL),
		AuthLimiter: authLimiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-quit:
	}
	log.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exited gracefully")
	return nil
}

// sessionStore picks Redis when configured and reachable, memory otherwise.
func sessionStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (session.Store, func()) {
	if cfg.RedisURL == "" {
		log.Info("using in-memory session store")
		return session.NewMemoryStore(cfg.SessionTTL), func() {}
	}

	client, err := session.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn("redis unavailable, using in-memory session store", zap.Error(err))
		return session.NewMemoryStore(cfg.SessionTTL), func() {}
	}

	log.Info("using redis session store")
	return session.NewRedisStore(client, cfg.SessionTTL), func() {
		if err := client.Close(); err != nil {
			log.Warn("error closing redis client", zap.Error(err))
		}
	}
}

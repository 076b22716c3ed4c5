package commands

import (
	"fmt"
	"os"

	"storefront-backend/config"
	"storefront-backend/database"
	"storefront-backend/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// Global flags
	dbURL string
)

// rootCmd runs the API server when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront backend - catalog, carts, orders and payments",
	Long: `Storefront backend serves the shop API: catalog browsing, session and
account carts, checkout, orders, reviews, wishlists and LiqPay payments.

Commands:
  serve         - Start the HTTP server (default)
  migrate       - Apply the database schema
  create-admin  - Create the default admin account
  seed          - Load the demo catalog`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database connection URL (defaults to DATABASE_URL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(seedCmd)
}

// bootstrap loads configuration and builds the logger.
func bootstrap() (*config.Config, *zap.Logger, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, nil, fmt.Errorf("error loading .env file: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, log, nil
}

// openDatabase connects and applies the schema.
func openDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database ready")
	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if err := database.Close(db); err != nil {
		log.Error("error closing database connection", zap.Error(err))
		return
	}
	log.Info("database connection closed")
}

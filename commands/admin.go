package commands

import (
	"fmt"

	"storefront-backend/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		db, err := openDatabase(cfg, log)
		if err != nil {
			return err
		}
		defer closeDatabase(db, log)

		fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
		return nil
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create the default admin account",
	Long: `Create the admin account named by ADMIN_EMAIL and ADMIN_PASSWORD.
Nothing changes when an account with that e-mail already exists.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		db, err := openDatabase(cfg, log)
		if err != nil {
			return err
		}
		defer closeDatabase(db, log)

		created, err := database.CreateDefaultAdmin(db, log)
		if err != nil {
			return fmt.Errorf("failed to create admin: %w", err)
		}
		if created {
			fmt.Fprintln(cmd.OutOrStdout(), "Admin account created")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Admin account already exists")
		}
		return nil
	},
}

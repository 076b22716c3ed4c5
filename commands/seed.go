package commands

import (
	"context"
	"fmt"
	"os"

	"storefront-backend/database"
	"storefront-backend/firebase"

	"github.com/spf13/cobra"
)

var withImages bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo catalog",
	Long: `Load the demo categories and products. Existing records with the same
titles are refreshed, so the command can be run repeatedly.

Examples:
  storefront seed                 # Catalog only
  storefront seed --with-images   # Also import stock photos into Firebase Storage`,
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

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		var images firebase.StorageClient
		if withImages {
			s, err := firebase.New(ctx, cfg.FirebaseBucket, os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"), log)
			if err != nil {
				return fmt.Errorf("--with-images needs image storage: %w", err)
			}
			images = s
		}

		result, err := database.Seed(ctx, db, images, log)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d categories, %d products, %d images\n",
			result.Categories, result.Products, result.Images)
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&withImages, "with-images", false, "Import product photos into image storage")
}

package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"storefront-backend/firebase"
	"storefront-backend/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultAdminEmail    = "admin@storefront.local"
	defaultAdminPassword = "admin12345"
)

func Connect(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=storefront port=5432 sslmode=disable"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Close releases the connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func Migrate(db *gorm.DB) error {
	// Ensure PostgreSQL has gen_random_uuid() available (pgcrypto extension).
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		return fmt.Errorf("failed to enable pgcrypto extension: %w", err)
	}

	return db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.ProductImage{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Review{},
		&models.Wishlist{},
		&models.PaymentNotification{},
	)
}

// CreateDefaultAdmin creates the admin account named by ADMIN_EMAIL and
// ADMIN_PASSWORD unless it already exists. It reports whether an account
// was created.
func CreateDefaultAdmin(db *gorm.DB, log *zap.Logger) (bool, error) {
	adminEmail := strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" {
		adminEmail = defaultAdminEmail
	}
	if adminPassword == "" {
		adminPassword = defaultAdminPassword
		log.Warn("ADMIN_PASSWORD not set, using the default admin password")
	}

	var existingUser models.User
	err := db.Where("email = ?", adminEmail).First(&existingUser).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}

	admin := models.User{
		Email:    adminEmail,
		Password: string(hashedPassword),
		Role:     models.RoleAdmin,
		Name:     "Admin User",
	}
	if err := db.Create(&admin).Error; err != nil {
		return false, err
	}

	log.Info("default admin created", zap.String("email", adminEmail))
	return true, nil
}

type seedCategory struct {
	Title       string
	Description string
}

type seedProduct struct {
	Title    string
	Category string
	Price    string
	Stock    int
}

var demoCategories = []seedCategory{
	{"Електроніка", "Гаджети та пристрої"},
	{"Книги", "Друковані та цифрові книги"},
	{"Дім та кухня", "Все для вашого дому"},
}

var demoProducts = []seedProduct{
	{"Смартфон X", "Електроніка", "25000.00", 50},
	{"Ноутбук Pro", "Електроніка", "45000.00", 30},
	{"Великий Роман", "Книги", "550.00", 100},
	{"Майстер Кулінарії", "Книги", "750.00", 80},
	{"Кавоварка", "Дім та кухня", "2800.00", 60},
	{"Потужний Блендер", "Дім та кухня", "1600.00", 90},
}

// SeedResult counts what Seed wrote.
type SeedResult struct {
	Categories int
	Products   int
	Images     int
}

// Seed writes the demo catalog. Records are matched by title, so running
// it again refreshes them instead of duplicating. With a non-nil images
// client each product also gets a stock photo; failed downloads are
// logged and skipped.
func Seed(ctx context.Context, db *gorm.DB, images firebase.StorageClient, log *zap.Logger) (SeedResult, error) {
	var result SeedResult
	categories := map[string]models.Category{}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, sc := range demoCategories {
			category := models.Category{Title: sc.Title, Description: sc.Description}
			fields := map[string]any{"description": sc.Description, "deleted_at": nil}
			if err := upsert(tx, &category, fields, "title = ?", sc.Title); err != nil {
				return fmt.Errorf("failed to seed category %s: %w", sc.Title, err)
			}
			categories[sc.Title] = category
			result.Categories++
		}

		for i, sp := range demoProducts {
			category := categories[sp.Category]
			product := models.Product{
				Title:         sp.Title,
				Description:   fmt.Sprintf("Це високоякісний продукт: %s.", sp.Title),
				Price:         decimal.RequireFromString(sp.Price),
				StockQuantity: sp.Stock,
				IsActive:      true,
				Featured:      i%2 == 0,
				CategoryID:    category.ID,
			}
			fields := map[string]any{
				"description":    product.Description,
				"price":          product.Price,
				"discount_price": nil,
				"stock_quantity": product.StockQuantity,
				"is_active":      true,
				"featured":       product.Featured,
				"deleted_at":     nil,
			}
			if err := upsert(tx, &product, fields, "title = ? AND category_id = ?", sp.Title, category.ID); err != nil {
				return fmt.Errorf("failed to seed product %s: %w", sp.Title, err)
			}
			result.Products++
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	if images == nil {
		return result, nil
	}
	for _, sp := range demoProducts {
		imageURL := "https://source.unsplash.com/600x400/?" + strings.ReplaceAll(sp.Title, " ", ",")
		stored, err := images.ImportRemoteImage(ctx, imageURL, "products")
		if err != nil {
			log.Warn("failed to import product image", zap.String("product", sp.Title), zap.Error(err))
			continue
		}
		res := db.WithContext(ctx).Model(&models.Product{}).
			Where("title = ? AND category_id = ?", sp.Title, categories[sp.Category].ID).
			Update("image_url", stored)
		if res.Error != nil {
			return result, fmt.Errorf("failed to attach image to %s: %w", sp.Title, res.Error)
		}
		result.Images++
	}
	return result, nil
}

// upsert creates dest unless a row, soft-deleted or not, matches query.
// A match is updated with fields and loaded into dest.
func upsert(tx *gorm.DB, dest any, fields map[string]any, query string, args ...any) error {
	err := tx.Unscoped().Where(query, args...).Select("id").Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Omit(clause.Associations).Create(dest).Error
	}
	if err != nil {
		return err
	}
	if err := tx.Unscoped().Model(dest).Updates(fields).Error; err != nil {
		return err
	}
	return tx.Unscoped().Take(dest).Error
}

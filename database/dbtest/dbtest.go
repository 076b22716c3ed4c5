// Package dbtest provides throwaway SQLite databases carrying the storefront
// schema. Tables are created from raw SQLite DDL instead of AutoMigrate,
// because the model tags use PostgreSQL defaults like gen_random_uuid().
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS "users" (
		"id" TEXT PRIMARY KEY,
		"email" TEXT NOT NULL UNIQUE,
		"password" TEXT NOT NULL,
		"name" TEXT,
		"role" TEXT DEFAULT 'customer',
		"phone" TEXT,
		"created_at" DATETIME,
		"updated_at" DATETIME,
		"deleted_at" DATETIME
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_deleted_at ON "users"("deleted_at")`,

	`CREATE TABLE IF NOT EXISTS "categories" (
		"id" TEXT PRIMARY KEY,
		"title" TEXT NOT NULL UNIQUE,
		"description" TEXT,
		"image_url" TEXT,
		"created_at" DATETIME,
		"updated_at" DATETIME,
		"deleted_at" DATETIME
	)`,
	`CREATE INDEX IF NOT EXISTS idx_categories_deleted_at ON "categories"("deleted_at")`,

	`CREATE TABLE IF NOT EXISTS "products" (
		"id" TEXT PRIMARY KEY,
		"title" TEXT NOT NULL,
		"description" TEXT,
		"price" NUMERIC NOT NULL,
		"discount_price" NUMERIC,
		"stock_quantity" INTEGER NOT NULL DEFAULT 0,
		"is_active" INTEGER DEFAULT 0,
		"featured" INTEGER DEFAULT 0,
		"weight" NUMERIC,
		"dimensions" TEXT,
		"image_url" TEXT,
		"category_id" TEXT NOT NULL,
		"created_at" DATETIME,
		"updated_at" DATETIME,
		"deleted_at" DATETIME,
		CONSTRAINT fk_products_category FOREIGN KEY ("category_id") REFERENCES "categories"("id")
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_deleted_at ON "products"("deleted_at")`,
	`CREATE INDEX IF NOT EXISTS idx_products_category_id ON "products"("category_id")`,

	`CREATE TABLE IF NOT EXISTS "product_images" (
		"id" TEXT PRIMARY KEY,
		"product_id" TEXT NOT NULL,
		"image_url" TEXT NOT NULL,
		"alt_text" TEXT,
		"created_at" DATETIME,
		"updated_at" DATETIME,
		"deleted_at" DATETIME,
		CONSTRAINT fk_product_images_product FOREIGN KEY ("product_id") REFERENCES "products"("id")
	)`,
	`CREATE INDEX IF NOT EXISTS idx_product_images_deleted_at ON "product_images"("deleted_at")`,

	`CREATE TABLE IF NOT EXISTS "carts" (
		"id" TEXT PRIMARY KEY,
		"user_id" TEXT UNIQUE,
		"created_at" DATETIME,
		"updated_at" DATETIME
	)`,

	`CREATE TABLE IF NOT EXISTS "cart_items" (
		"id" TEXT PRIMARY KEY,
		"cart_id" TEXT NOT NULL,
		"product_id" TEXT NOT NULL,
		"quantity" INTEGER NOT NULL DEFAULT 1,
		"created_at" DATETIME,
		"updated_at" DATETIME,
		CONSTRAINT fk_cart_items_cart FOREIGN KEY ("cart_id") REFERENCES "carts"("id"),
		CONSTRAINT fk_cart_items_product FOREIGN KEY ("product_id") REFERENCES "products"("id")
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_product ON "cart_items"("cart_id","product_id")`,

	`CREATE TABLE IF NOT EXISTS "orders" (
		"id" TEXT PRIMARY KEY,
		"user_id" TEXT NOT NULL,
		"order_number" TEXT NOT NULL UNIQUE,
		"status" TEXT DEFAULT 'pending',
		"total_amount" NUMERIC NOT NULL,
		"shipping_address" TEXT NOT NULL,
		"billing_address" TEXT,
		"phone" TEXT,
		"email" TEXT,
		"notes" TEXT,
		"created_at" DATETIME,
		"updated_at" DATETIME,
		"deleted_at" DATETIME,
		CONSTRAINT fk_orders_user FOREIGN KEY ("user_id") REFERENCES "users"("id")
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_deleted_at ON "orders"("deleted_at")`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user_id ON "orders"("user_id")`,

	`CREATE TABLE IF NOT EXISTS "order_items" (
		"id" TEXT PRIMARY KEY,
		"order_id" TEXT NOT NULL,
		"product_id" TEXT NOT NULL,
		"quantity" INTEGER NOT NULL,
		"price" NUMERIC NOT NULL,
		"created_at" DATETIME,
		"updated_at" DATETIME,
		CONSTRAINT fk_order_items_order FOREIGN KEY ("order_id") REFERENCES "orders"("id"),
		CONSTRAINT fk_order_items_product FOREIGN KEY ("product_id") REFERENCES "products"("id")
	)`,

	`CREATE TABLE IF NOT EXISTS "reviews" (
		"id" TEXT PRIMARY KEY,
		"product_id" TEXT NOT NULL,
		"user_id" TEXT NOT NULL,
		"rating" INTEGER NOT NULL,
		"comment" TEXT,
		"created_at" DATETIME,
		"updated_at" DATETIME
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_review_product_user ON "reviews"("product_id","user_id")`,

	`CREATE TABLE IF NOT EXISTS "wishlists" (
		"id" TEXT PRIMARY KEY,
		"user_id" TEXT NOT NULL UNIQUE,
		"created_at" DATETIME,
		"updated_at" DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS "wishlist_products" (
		"wishlist_id" TEXT NOT NULL,
		"product_id" TEXT NOT NULL,
		PRIMARY KEY ("wishlist_id","product_id")
	)`,

	`CREATE TABLE IF NOT EXISTS "payment_notifications" (
		"id" TEXT PRIMARY KEY,
		"order_ref" TEXT,
		"gateway_status" TEXT,
		"outcome" TEXT NOT NULL,
		"signature_valid" INTEGER DEFAULT 0,
		"data" TEXT,
		"created_at" DATETIME
	)`,
}

// tables lists every table in delete order (children first).
var tables = []string{
	"payment_notifications",
	"wishlist_products",
	"wishlists",
	"reviews",
	"order_items",
	"orders",
	"cart_items",
	"carts",
	"product_images",
	"products",
	"categories",
	"users",
}

// Open creates a private in-memory database with the schema applied.
// The pool is limited to one connection so every caller sees the same tables.
func Open() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			return nil, fmt.Errorf("failed to apply test schema: %w", err)
		}
	}
	return db, nil
}

// New is Open for a single test; the database is closed on cleanup.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := Open()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// Reset deletes every row, for suites that share one database.
func Reset(db *gorm.DB) *gorm.DB {
	for _, table := range tables {
		db.Exec("DELETE FROM " + table)
	}
	return db
}

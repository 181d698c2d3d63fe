package main

import (
	"log"
	"os"

	"billing-sync-be/internal/model"
	"billing-sync-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: gen_random_uuid() defaults
	log.Println("Step 1: Setting up Extensions...")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Printf("Warn: Failed to create pgcrypto extension: %v. Continuing...", err)
	}

	// 4. AutoMigrate All Models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.Account{},
		&model.SubscriptionRecord{},
		&model.NotificationQueueItem{},
		&model.OutboxEvent{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: partial indexes GORM tags cannot express
	log.Println("Step 3: Creating partial indexes...")

	postMigrationSQL := []string{
		// Queue sweeps only ever scan pending rows
		`CREATE INDEX IF NOT EXISTS idx_notification_queue_pending ON notification_queue (created_at) WHERE status = 'pending';`,
		// Outbox dispatcher only reads unprocessed rows
		`CREATE INDEX IF NOT EXISTS idx_event_outbox_unprocessed ON event_outbox (created_at) WHERE processed_at IS NULL;`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Success: Database migration completed.")
}

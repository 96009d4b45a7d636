package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/noah-isme/toko-volume-discounts/internal/content"
	"github.com/noah-isme/toko-volume-discounts/internal/threshold"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	if err := content.Migrate(dbURL); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedThresholds(db)

	log.Println("Seeding completed successfully!")
}

func seedThresholds(db *sql.DB) {
	tiers := []struct {
		Title    string
		Quantity int
		Percent  int
	}{
		{"Buy 5, save 5%", 5, 5},
		{"Buy 10, save 10%", 10, 10},
		{"Buy 25, save 15%", 25, 15},
		{"Buy 50, save 20%", 50, 20},
	}

	fmt.Println("Seeding Volume Discounts...")
	for _, t := range tiers {
		var exists bool
		err := db.QueryRow(`
			SELECT EXISTS (SELECT 1 FROM content_records WHERE type = $1 AND title = $2)
		`, threshold.Type, t.Title).Scan(&exists)
		if err != nil {
			log.Printf("Failed to check tier %q: %v", t.Title, err)
			continue
		}
		if exists {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			log.Printf("Failed to begin tier %q: %v", t.Title, err)
			continue
		}
		id := uuid.NewString()
		if _, err := tx.Exec(`
			INSERT INTO content_records (id, type, title, status)
			VALUES ($1, $2, $3, $4)
		`, id, threshold.Type, t.Title, content.StatusPublish); err != nil {
			_ = tx.Rollback()
			log.Printf("Failed to insert tier %q: %v", t.Title, err)
			continue
		}
		meta := map[string]int{
			threshold.MetaRequiredQuantity: t.Quantity,
			threshold.MetaDiscountPercent:  t.Percent,
		}
		failed := false
		for key, value := range meta {
			if _, err := tx.Exec(`
				INSERT INTO content_meta (record_id, meta_key, meta_value)
				VALUES ($1, $2, $3)
			`, id, key, fmt.Sprint(value)); err != nil {
				log.Printf("Failed to insert %s for tier %q: %v", key, t.Title, err)
				failed = true
				break
			}
		}
		if failed {
			_ = tx.Rollback()
			continue
		}
		if err := tx.Commit(); err != nil {
			log.Printf("Failed to commit tier %q: %v", t.Title, err)
		}
	}
}

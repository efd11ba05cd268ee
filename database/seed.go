package database

import (
	"encoding/json"
	"log"
	"os"
	"strings"

	"gorm.io/gorm"
	"trainalert.app/models"
)

// SeedCities loads the static city-code reference data into the cities table.
// The file is a flat JSON object mapping city name to its upstream code, the
// same format the booking site publishes. Seeding is skipped when the table
// already has rows.
func SeedCities(db *gorm.DB, path string) error {
	var count int64
	if err := db.Model(&models.City{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Printf("[DEBUG] City table already seeded (%d rows), skipping\n", count)
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var codes map[string]uint
	if err := json.Unmarshal(data, &codes); err != nil {
		return err
	}

	// Names are stored lowercased; lookups lowercase their input to match.
	cities := make([]models.City, 0, len(codes))
	for name, code := range codes {
		cities = append(cities, models.City{ID: code, Name: strings.ToLower(name)})
	}

	if err := db.CreateInBatches(cities, 500).Error; err != nil {
		return err
	}

	log.Printf("[DEBUG] Seeded %d cities from %s\n", len(cities), path)
	return nil
}

package repository

import (
	"errors"
	"log"
	"strings"

	"gorm.io/gorm"
	apperrors "trainalert.app/errors"
	"trainalert.app/models"
)

// CityRepository handles lookups against the static city-code reference data
type CityRepository struct {
	db *gorm.DB
}

// NewCityRepository creates a new repository for city code lookups
func NewCityRepository(db *gorm.DB) *CityRepository {
	return &CityRepository{db: db}
}

// CodeByName resolves a city name to its upstream code. Exact match wins;
// otherwise the alphabetically first prefix match is taken, so "моск" finds
// "москва".
func (r *CityRepository) CodeByName(name string) (uint, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return 0, apperrors.NewValidationError("city name cannot be empty")
	}

	var city models.City
	result := r.db.Where("name = ?", name).First(&city)
	if result.Error == nil {
		return city.ID, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		log.Printf("[ERROR] Database error when looking up city: %v\n", result.Error)
		return 0, result.Error
	}

	result = r.db.Where("name LIKE ?", name+"%").Order("name asc").First(&city)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, apperrors.NewNotFoundError("city or station not found: " + name)
		}
		log.Printf("[ERROR] Database error when looking up city by prefix: %v\n", result.Error)
		return 0, result.Error
	}

	return city.ID, nil
}

// StationRepository handles data access operations for stations
type StationRepository struct {
	db *gorm.DB
}

// NewStationRepository creates a new repository for station data
func NewStationRepository(db *gorm.DB) *StationRepository {
	return &StationRepository{db: db}
}

// Upsert saves station names observed in search results so notifications can
// render names instead of raw codes.
func (r *StationRepository) Upsert(stations []models.Station) error {
	for i := range stations {
		if stations[i].ID == 0 || stations[i].Name == "" {
			continue
		}
		if err := r.db.Save(&stations[i]).Error; err != nil {
			log.Printf("[ERROR] Database error when saving station: %v\n", err)
			return err
		}
	}
	return nil
}

// NameByCode returns the known name for a station code, or "" when unknown
func (r *StationRepository) NameByCode(code uint) (string, error) {
	var station models.Station
	result := r.db.First(&station, code)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		log.Printf("[ERROR] Database error when finding station: %v\n", result.Error)
		return "", result.Error
	}

	return station.Name, nil
}

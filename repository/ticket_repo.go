package repository

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
	"trainalert.app/models"
)

// TicketRepository handles data access operations for price observations
type TicketRepository struct {
	db *gorm.DB
}

// NewTicketRepository creates a new repository for price observations
func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// Latest returns the most recent price observation for a route, or nil when
// the route has never been observed.
func (r *TicketRepository) Latest(routeID uint) (*models.Ticket, error) {
	var ticket models.Ticket
	result := r.db.Where("route_id = ?", routeID).Order("update_time DESC").First(&ticket)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("[ERROR] Database error when finding latest price: %v\n", result.Error)
		return nil, result.Error
	}

	return &ticket, nil
}

// RecordPrice appends a new price observation for a route
func (r *TicketRepository) RecordPrice(routeID uint, price int, observedAt time.Time) error {
	log.Printf("[DEBUG] TicketRepository.RecordPrice: routeID=%d, price=%d\n", routeID, price)

	ticket := models.Ticket{
		RouteID:    routeID,
		BestPrice:  price,
		UpdateTime: observedAt,
	}
	if err := r.db.Create(&ticket).Error; err != nil {
		log.Printf("[ERROR] Database error when recording price: %v\n", err)
		return err
	}

	return nil
}

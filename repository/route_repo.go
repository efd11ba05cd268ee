// Package repository implements data access layer for the application
package repository

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
	"trainalert.app/models"
)

// RouteRepository handles data access operations for tracked routes
type RouteRepository struct {
	db *gorm.DB
}

// NewRouteRepository creates a new repository for route data
func NewRouteRepository(db *gorm.DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// FindOrCreate returns the route with this exact identity, creating it on
// first use. The identity is the dedup unit for reconciliation: many users
// may subscribe to one route row.
func (r *RouteRepository) FindOrCreate(route *models.Route) (*models.Route, error) {
	log.Printf("[DEBUG] RouteRepository.FindOrCreate: %+v\n", route)

	var existing models.Route
	result := r.db.Where(
		"from_station_id = ? AND to_station_id = ? AND from_date = ? AND to_date = ? AND train_no = ? AND class = ?",
		route.FromStationID, route.ToStationID, route.FromDate, route.ToDate, route.TrainNo, route.Class,
	).First(&existing)

	if result.Error == nil {
		log.Printf("[DEBUG] Found existing route with ID: %d\n", existing.ID)
		return &existing, nil
	}

	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		log.Printf("[ERROR] Database error when finding route: %v\n", result.Error)
		return nil, result.Error
	}

	if err := r.db.Create(route).Error; err != nil {
		log.Printf("[ERROR] Database error when creating route: %v\n", err)
		return nil, err
	}

	log.Printf("[DEBUG] Created route with ID: %d\n", route.ID)
	return route, nil
}

// FindByID retrieves a route by its ID
func (r *RouteRepository) FindByID(id uint) (*models.Route, error) {
	var route models.Route
	result := r.db.First(&route, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("[ERROR] Database error when finding route by ID: %v\n", result.Error)
		return nil, result.Error
	}

	return &route, nil
}

// DistinctSubscribedRouteIDs returns the ids of all routes that currently
// have at least one subscriber. Each id is fetched from upstream once per
// reconciliation cycle regardless of subscriber count.
func (r *RouteRepository) DistinctSubscribedRouteIDs() ([]uint, error) {
	var ids []uint
	result := r.db.Model(&models.Subscription{}).Distinct().Pluck("route_id", &ids)
	if result.Error != nil {
		log.Printf("[ERROR] Database error when listing subscribed routes: %v\n", result.Error)
		return nil, result.Error
	}

	log.Printf("[DEBUG] Found %d distinct subscribed routes\n", len(ids))
	return ids, nil
}

// DeleteRoutesDepartingBefore removes every route whose departure is before
// the cutoff, together with its subscriptions and price observations, in one
// transaction so no orphaned subscription can survive.
func (r *RouteRepository) DeleteRoutesDepartingBefore(cutoff time.Time) (int64, error) {
	log.Printf("[DEBUG] RouteRepository.DeleteRoutesDepartingBefore: cutoff=%v\n", cutoff)

	var removed int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.Route{}).Where("from_date < ?", cutoff).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Where("route_id IN ?", ids).Delete(&models.Subscription{}).Error; err != nil {
			return err
		}
		if err := tx.Where("route_id IN ?", ids).Delete(&models.Ticket{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", ids).Delete(&models.Route{}).Error; err != nil {
			return err
		}

		removed = int64(len(ids))
		return nil
	})
	if err != nil {
		log.Printf("[ERROR] Database error when pruning stale routes: %v\n", err)
		return 0, err
	}

	log.Printf("[DEBUG] Pruned %d stale routes\n", removed)
	return removed, nil
}

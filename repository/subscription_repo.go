package repository

import (
	"errors"
	"log"

	"gorm.io/gorm"
	"trainalert.app/models"
)

// SubscriptionRepository handles data access operations for subscriptions
type SubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new repository for subscription data
func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Create adds a subscription edge; subscribing twice is a no-op
func (r *SubscriptionRepository) Create(userID int64, routeID uint) error {
	log.Printf("[DEBUG] SubscriptionRepository.Create: userID=%d, routeID=%d\n", userID, routeID)

	subscription := models.Subscription{UserID: userID, RouteID: routeID}
	result := r.db.Where("user_id = ? AND route_id = ?", userID, routeID).FirstOrCreate(&subscription)
	if result.Error != nil {
		log.Printf("[ERROR] Database error when creating subscription: %v\n", result.Error)
		return result.Error
	}

	return nil
}

// Delete removes one user's subscription to one route
func (r *SubscriptionRepository) Delete(userID int64, routeID uint) error {
	log.Printf("[DEBUG] SubscriptionRepository.Delete: userID=%d, routeID=%d\n", userID, routeID)

	result := r.db.Where("user_id = ? AND route_id = ?", userID, routeID).Delete(&models.Subscription{})
	if result.Error != nil {
		log.Printf("[ERROR] Database error when deleting subscription: %v\n", result.Error)
		return result.Error
	}

	return nil
}

// DeleteByUser removes all subscriptions of one user (ban purge)
func (r *SubscriptionRepository) DeleteByUser(userID int64) error {
	result := r.db.Where("user_id = ?", userID).Delete(&models.Subscription{})
	if result.Error != nil {
		log.Printf("[ERROR] Database error when purging subscriptions: %v\n", result.Error)
		return result.Error
	}

	log.Printf("[DEBUG] Purged %d subscriptions for user %d\n", result.RowsAffected, userID)
	return nil
}

// ListRoutesByUser returns all routes one user is subscribed to
func (r *SubscriptionRepository) ListRoutesByUser(userID int64) ([]models.Route, error) {
	var routes []models.Route
	result := r.db.
		Joins("JOIN subscriptions ON subscriptions.route_id = routes.id").
		Where("subscriptions.user_id = ?", userID).
		Find(&routes)
	if result.Error != nil {
		log.Printf("[ERROR] Database error when listing user routes: %v\n", result.Error)
		return nil, result.Error
	}

	return routes, nil
}

// SubscriberIDs returns the user ids subscribed to one route
func (r *SubscriptionRepository) SubscriberIDs(routeID uint) ([]int64, error) {
	var ids []int64
	result := r.db.Model(&models.Subscription{}).Where("route_id = ?", routeID).Pluck("user_id", &ids)
	if result.Error != nil {
		log.Printf("[ERROR] Database error when listing subscribers: %v\n", result.Error)
		return nil, result.Error
	}

	return ids, nil
}

// UserRepository handles data access operations for bot users
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository for user data
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindOrCreate returns the user record, creating an active one on first action
func (r *UserRepository) FindOrCreate(userID int64) (*models.User, error) {
	var user models.User
	result := r.db.First(&user, userID)
	if result.Error == nil {
		return &user, nil
	}

	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		log.Printf("[ERROR] Database error when finding user: %v\n", result.Error)
		return nil, result.Error
	}

	user = models.User{ID: userID, Status: models.UserStatusActive}
	if err := r.db.Create(&user).Error; err != nil {
		log.Printf("[ERROR] Database error when creating user: %v\n", err)
		return nil, err
	}

	log.Printf("[DEBUG] Created user %d\n", userID)
	return &user, nil
}

// IsBanned reports whether the user exists and is banned
func (r *UserRepository) IsBanned(userID int64) (bool, error) {
	var user models.User
	result := r.db.First(&user, userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return false, nil
		}
		log.Printf("[ERROR] Database error when checking user status: %v\n", result.Error)
		return false, result.Error
	}

	return user.Status == models.UserStatusBanned, nil
}

// Ban marks a user banned and purges their subscriptions in one transaction
func (r *UserRepository) Ban(userID int64) error {
	log.Printf("[DEBUG] UserRepository.Ban: userID=%d\n", userID)

	return r.db.Transaction(func(tx *gorm.DB) error {
		user := models.User{ID: userID, Status: models.UserStatusActive}
		if err := tx.FirstOrCreate(&user, models.User{ID: userID}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("status", models.UserStatusBanned).Error; err != nil {
			return err
		}

		return tx.Where("user_id = ?", userID).Delete(&models.Subscription{}).Error
	})
}

package service

import (
	"context"
	"time"

	"trainalert.app/models"
)

// TicketServiceInterface defines the interface for route search operations
type TicketServiceInterface interface {
	SearchRoutes(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error)
}

// SubscriptionServiceInterface defines the interface for subscription management
type SubscriptionServiceInterface interface {
	Subscribe(req *models.SubscribeRequest) error
	Unsubscribe(userID int64, routeID uint) error
	ListSubscriptions(userID int64) ([]models.SubscriptionInfo, error)
	BanUser(userID int64) error
}

// NotificationServiceInterface handles fanning out price change events
type NotificationServiceInterface interface {
	NotifyPriceChange(ctx context.Context, route *models.Route, oldPrice, newPrice int)
}

// ReconciliationServiceInterface runs one full price refresh cycle
type ReconciliationServiceInterface interface {
	RunCycle(ctx context.Context) error
}

// RouteRepositoryInterface defines the interface for route data operations
type RouteRepositoryInterface interface {
	FindOrCreate(route *models.Route) (*models.Route, error)
	FindByID(id uint) (*models.Route, error)
	DistinctSubscribedRouteIDs() ([]uint, error)
	DeleteRoutesDepartingBefore(cutoff time.Time) (int64, error)
}

// SubscriptionRepositoryInterface defines the interface for subscription data operations
type SubscriptionRepositoryInterface interface {
	Create(userID int64, routeID uint) error
	Delete(userID int64, routeID uint) error
	DeleteByUser(userID int64) error
	ListRoutesByUser(userID int64) ([]models.Route, error)
	SubscriberIDs(routeID uint) ([]int64, error)
}

// UserRepositoryInterface defines the interface for user data operations
type UserRepositoryInterface interface {
	FindOrCreate(userID int64) (*models.User, error)
	IsBanned(userID int64) (bool, error)
	Ban(userID int64) error
}

// TicketRepositoryInterface defines the interface for price observation operations
type TicketRepositoryInterface interface {
	Latest(routeID uint) (*models.Ticket, error)
	RecordPrice(routeID uint, price int, observedAt time.Time) error
}

// CityRepositoryInterface defines the interface for city code lookups
type CityRepositoryInterface interface {
	CodeByName(name string) (uint, error)
}

// StationRepositoryInterface defines the interface for station data operations
type StationRepositoryInterface interface {
	Upsert(stations []models.Station) error
	NameByCode(code uint) (string, error)
}

package service

import (
	"log"
	"time"

	"trainalert.app/errors"
	"trainalert.app/models"
)

// SubscriptionService handles subscription-related business logic
type SubscriptionService struct {
	users    UserRepositoryInterface
	routes   RouteRepositoryInterface
	subs     SubscriptionRepositoryInterface
	tickets  TicketRepositoryInterface
	stations StationRepositoryInterface
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(
	users UserRepositoryInterface,
	routes RouteRepositoryInterface,
	subs SubscriptionRepositoryInterface,
	tickets TicketRepositoryInterface,
	stations StationRepositoryInterface,
) *SubscriptionService {
	return &SubscriptionService{
		users:    users,
		routes:   routes,
		subs:     subs,
		tickets:  tickets,
		stations: stations,
	}
}

// Subscribe starts tracking a route for a user. The route identity comes
// from a search result the user picked; when the request carries the price
// seen at that moment it is recorded as the first observation, so the next
// reconciliation cycle diffs against what the user actually saw.
func (s *SubscriptionService) Subscribe(req *models.SubscribeRequest) error {
	log.Printf("[DEBUG] SubscriptionService.Subscribe: userID=%d, train=%s\n", req.UserID, req.TrainNo)

	class, err := models.ParseTravelClass(req.Class)
	if err != nil {
		return errors.NewValidationError("unknown travel class: " + req.Class)
	}
	if req.FromDate.Before(time.Now()) {
		return errors.NewValidationError("cannot subscribe to a route that has already departed")
	}
	if !req.ToDate.After(req.FromDate) {
		return errors.NewValidationError("arrival must be after departure")
	}

	user, err := s.users.FindOrCreate(req.UserID)
	if err != nil {
		return errors.NewDatabaseError("failed to load user", err)
	}
	if user.Status == models.UserStatusBanned {
		return errors.NewValidationError("user is banned")
	}

	route, err := s.routes.FindOrCreate(&models.Route{
		FromStationID: req.FromStationID,
		ToStationID:   req.ToStationID,
		FromCityCode:  req.FromCityCode,
		ToCityCode:    req.ToCityCode,
		FromDate:      req.FromDate,
		ToDate:        req.ToDate,
		TrainNo:       req.TrainNo,
		Class:         class,
	})
	if err != nil {
		return errors.NewDatabaseError("failed to create route", err)
	}

	if err := s.subs.Create(req.UserID, route.ID); err != nil {
		return errors.NewDatabaseError("failed to create subscription", err)
	}

	if req.LastPrice != nil {
		if err := s.tickets.RecordPrice(route.ID, *req.LastPrice, time.Now()); err != nil {
			return errors.NewDatabaseError("failed to record initial price", err)
		}
	}

	return nil
}

// Unsubscribe stops tracking one route for a user
func (s *SubscriptionService) Unsubscribe(userID int64, routeID uint) error {
	log.Printf("[DEBUG] SubscriptionService.Unsubscribe: userID=%d, routeID=%d\n", userID, routeID)

	if err := s.subs.Delete(userID, routeID); err != nil {
		return errors.NewDatabaseError("failed to delete subscription", err)
	}

	return nil
}

// ListSubscriptions returns a user's tracked routes with latest observed prices
func (s *SubscriptionService) ListSubscriptions(userID int64) ([]models.SubscriptionInfo, error) {
	routes, err := s.subs.ListRoutesByUser(userID)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list subscriptions", err)
	}

	infos := make([]models.SubscriptionInfo, 0, len(routes))
	for _, route := range routes {
		info := models.SubscriptionInfo{
			RouteID:       route.ID,
			FromStationID: route.FromStationID,
			ToStationID:   route.ToStationID,
			FromDate:      route.FromDate,
			ToDate:        route.ToDate,
			TrainNo:       route.TrainNo,
			Class:         route.Class,
		}

		if name, err := s.stations.NameByCode(route.FromStationID); err == nil {
			info.FromStationName = name
		}
		if name, err := s.stations.NameByCode(route.ToStationID); err == nil {
			info.ToStationName = name
		}

		ticket, err := s.tickets.Latest(route.ID)
		if err != nil {
			return nil, errors.NewDatabaseError("failed to load latest price", err)
		}
		if ticket != nil {
			price := ticket.BestPrice
			info.LatestPrice = &price
		}

		infos = append(infos, info)
	}

	return infos, nil
}

// BanUser marks the user banned and purges their subscriptions immediately
func (s *SubscriptionService) BanUser(userID int64) error {
	log.Printf("[DEBUG] SubscriptionService.BanUser: userID=%d\n", userID)

	if err := s.users.Ban(userID); err != nil {
		return errors.NewDatabaseError("failed to ban user", err)
	}

	return nil
}

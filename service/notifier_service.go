package service

import (
	"context"
	"fmt"
	"log"

	"trainalert.app/models"
	"trainalert.app/providers"
)

// NotifierService fans a price change out to every subscriber of a route.
// It never returns an error: delivery failures are per-subscriber and must
// not disturb the caller's price bookkeeping.
type NotifierService struct {
	notifier providers.Notifier
	subs     SubscriptionRepositoryInterface
	stations StationRepositoryInterface
}

// NewNotifierService creates a new notification fan-out service
func NewNotifierService(
	notifier providers.Notifier,
	subs SubscriptionRepositoryInterface,
	stations StationRepositoryInterface,
) *NotifierService {
	return &NotifierService{
		notifier: notifier,
		subs:     subs,
		stations: stations,
	}
}

// NotifyPriceChange delivers the change to each subscriber independently.
// One user having blocked the bot must not cost the others their message.
func (s *NotifierService) NotifyPriceChange(ctx context.Context, route *models.Route, oldPrice, newPrice int) {
	subscribers, err := s.subs.SubscriberIDs(route.ID)
	if err != nil {
		log.Printf("[ERROR] Failed to resolve subscribers for route %d: %v\n", route.ID, err)
		return
	}

	if len(subscribers) == 0 {
		log.Printf("[DEBUG] No subscribers for route %d, nothing to notify\n", route.ID)
		return
	}

	text := s.formatPriceChange(route, oldPrice, newPrice)

	delivered := 0
	for _, userID := range subscribers {
		if err := s.notifier.SendMessage(ctx, userID, text); err != nil {
			log.Printf("[WARNING] Failed to notify user %d about route %d: %v\n", userID, route.ID, err)
			continue
		}
		delivered++
	}

	log.Printf("[DEBUG] Notified %d/%d subscribers of route %d\n", delivered, len(subscribers), route.ID)
}

func (s *NotifierService) formatPriceChange(route *models.Route, oldPrice, newPrice int) string {
	from := s.stationLabel(route.FromStationID)
	to := s.stationLabel(route.ToStationID)

	return fmt.Sprintf(
		"Цена на маршрут изменилась!\n"+
			"%s → %s\n"+
			"Поезд: %s (%s)\n"+
			"Отправление: %s\n"+
			"Старая цена: %d руб.\n"+
			"Новая цена: %d руб.",
		from, to,
		route.TrainNo, route.Class.Label(),
		route.FromDate.Format("02.01.2006 15:04"),
		oldPrice, newPrice,
	)
}

// stationLabel prefers the stored station name and falls back to the code
func (s *NotifierService) stationLabel(code uint) string {
	name, err := s.stations.NameByCode(code)
	if err != nil || name == "" {
		return fmt.Sprintf("%d", code)
	}
	return name
}

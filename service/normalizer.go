package service

import (
	"trainalert.app/models"
)

type offerGroupKey struct {
	trainNo   string
	fromID    uint
	toID      uint
	departure int64
	arrival   int64
}

// NormalizeOffers groups raw upstream offers by physical train (number,
// stations, departure and arrival time) and derives the best purchasable
// price per group. Special fares (e.g. disabled-person tariffs) never win:
// general subscribers cannot buy them. With a class filter only offers in
// that class compete; without one the minimum across all classes wins and
// the achieving class is recorded. Groups left without an eligible offer are
// dropped entirely, so "no eligible fare" stays distinguishable from a fare
// of any value.
func NormalizeOffers(offers []models.Offer, filterClass *models.TravelClass) []models.NormalizedRoute {
	order := []offerGroupKey{}
	groups := map[offerGroupKey][]models.Offer{}

	for _, offer := range offers {
		key := offerGroupKey{
			trainNo:   offer.TrainNo,
			fromID:    offer.FromStationID,
			toID:      offer.ToStationID,
			departure: offer.Departure.Unix(),
			arrival:   offer.Arrival.Unix(),
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], offer)
	}

	routes := []models.NormalizedRoute{}
	for _, key := range order {
		if route, ok := bestOffer(groups[key], filterClass); ok {
			routes = append(routes, route)
		}
	}

	return routes
}

func bestOffer(group []models.Offer, filterClass *models.TravelClass) (models.NormalizedRoute, bool) {
	var best *models.Offer
	for i := range group {
		offer := &group[i]
		if offer.SpecialFare {
			continue
		}
		if filterClass != nil && offer.Class != *filterClass {
			continue
		}
		if best == nil || offer.Price < best.Price {
			best = offer
		}
	}

	if best == nil {
		return models.NormalizedRoute{}, false
	}

	return models.NormalizedRoute{
		TrainNo:         best.TrainNo,
		FromStationID:   best.FromStationID,
		FromStationName: best.FromStationName,
		ToStationID:     best.ToStationID,
		ToStationName:   best.ToStationName,
		Departure:       best.Departure,
		Arrival:         best.Arrival,
		Class:           best.Class,
		BestPrice:       best.Price,
	}, true
}

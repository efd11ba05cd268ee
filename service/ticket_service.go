package service

import (
	"context"
	"log"
	"time"

	"trainalert.app/errors"
	"trainalert.app/models"
	"trainalert.app/providers"
)

const searchDateFormat = "02.01.2006"

// TicketService handles user-facing route searches
type TicketService struct {
	source   providers.RouteSource
	cities   CityRepositoryInterface
	stations StationRepositoryInterface
}

// NewTicketService creates a new ticket search service
func NewTicketService(
	source providers.RouteSource,
	cities CityRepositoryInterface,
	stations StationRepositoryInterface,
) *TicketService {
	return &TicketService{
		source:   source,
		cities:   cities,
		stations: stations,
	}
}

// SearchRoutes resolves city names to codes, queries the ticket source and
// returns normalized routes. An empty route list means the site has nothing
// to sell for that day; upstream failures come back as errors.
func (s *TicketService) SearchRoutes(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	log.Printf("[DEBUG] TicketService.SearchRoutes: from=%s, to=%s, date=%s, class=%s\n",
		req.From, req.To, req.Date, req.Class)

	date, err := time.Parse(searchDateFormat, req.Date)
	if err != nil {
		return nil, errors.NewValidationError("date must be in DD.MM.YYYY format")
	}
	if date.Before(time.Now().Truncate(24 * time.Hour)) {
		return nil, errors.NewValidationError("date cannot be in the past")
	}

	var filterClass *models.TravelClass
	if req.Class != "" {
		class, err := models.ParseTravelClass(req.Class)
		if err != nil {
			return nil, errors.NewValidationError("unknown travel class: " + req.Class)
		}
		filterClass = &class
	}

	fromCode, err := s.cities.CodeByName(req.From)
	if err != nil {
		return nil, err
	}
	toCode, err := s.cities.CodeByName(req.To)
	if err != nil {
		return nil, err
	}

	result, err := s.source.Search(ctx, models.SearchQuery{
		FromCode: fromCode,
		ToCode:   toCode,
		Date:     date,
	})
	if err != nil {
		log.Printf("[ERROR] Ticket source error: %v\n", err)
		return nil, err
	}

	response := &models.SearchResponse{
		FromCityCode: fromCode,
		ToCityCode:   toCode,
		Routes:       []models.NormalizedRoute{},
	}

	if result.NoTickets {
		log.Println("[DEBUG] No tickets available for query")
		return response, nil
	}

	s.rememberStations(result.Offers)
	response.Routes = NormalizeOffers(result.Offers, filterClass)

	log.Printf("[DEBUG] Search returned %d normalized routes\n", len(response.Routes))
	return response, nil
}

// rememberStations saves station names seen in offers; failures only cost us
// prettier notification texts, so they are logged and swallowed.
func (s *TicketService) rememberStations(offers []models.Offer) {
	seen := map[uint]models.Station{}
	for _, offer := range offers {
		if offer.FromStationID != 0 && offer.FromStationName != "" {
			seen[offer.FromStationID] = models.Station{ID: offer.FromStationID, Name: offer.FromStationName}
		}
		if offer.ToStationID != 0 && offer.ToStationName != "" {
			seen[offer.ToStationID] = models.Station{ID: offer.ToStationID, Name: offer.ToStationName}
		}
	}
	if len(seen) == 0 {
		return
	}

	stations := make([]models.Station, 0, len(seen))
	for _, station := range seen {
		stations = append(stations, station)
	}
	if err := s.stations.Upsert(stations); err != nil {
		log.Printf("[WARNING] Failed to save station names: %v\n", err)
	}
}

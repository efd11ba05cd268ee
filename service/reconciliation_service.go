package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"trainalert.app/errors"
	"trainalert.app/models"
	"trainalert.app/providers"
)

// ReconciliationService re-checks the price of every subscribed route and
// fans out notifications on change. One cycle: prune departed routes,
// enumerate distinct subscribed routes, then fetch-and-diff each. A failure
// on one route degrades that route only; the cycle always runs to the end.
type ReconciliationService struct {
	routes   RouteRepositoryInterface
	tickets  TicketRepositoryInterface
	source   providers.RouteSource
	notifier NotificationServiceInterface
}

// NewReconciliationService creates a new reconciliation engine. The source
// must be the uncached provider: observed prices have to reflect upstream,
// not the search cache.
func NewReconciliationService(
	routes RouteRepositoryInterface,
	tickets TicketRepositoryInterface,
	source providers.RouteSource,
	notifier NotificationServiceInterface,
) *ReconciliationService {
	return &ReconciliationService{
		routes:   routes,
		tickets:  tickets,
		source:   source,
		notifier: notifier,
	}
}

// RunCycle executes one full reconciliation pass. It returns an error only
// when the cycle cannot run at all (enumeration failure, cancellation);
// per-route problems are logged and retried on the next cycle.
func (s *ReconciliationService) RunCycle(ctx context.Context) error {
	cycleID := uuid.New().String()[:8]
	log.Printf("[DEBUG] Reconciliation cycle %s started\n", cycleID)

	pruned, err := s.routes.DeleteRoutesDepartingBefore(time.Now())
	if err != nil {
		// Stale routes only waste fetches; keep going with what we have.
		log.Printf("[ERROR] Cycle %s: pruning failed: %v\n", cycleID, err)
	} else if pruned > 0 {
		log.Printf("[DEBUG] Cycle %s: pruned %d departed routes\n", cycleID, pruned)
	}

	routeIDs, err := s.routes.DistinctSubscribedRouteIDs()
	if err != nil {
		return errors.NewDatabaseError("failed to enumerate subscribed routes", err)
	}

	for _, routeID := range routeIDs {
		if err := ctx.Err(); err != nil {
			log.Printf("[DEBUG] Cycle %s: canceled, %s\n", cycleID, err)
			return err
		}
		s.reconcileRoute(ctx, cycleID, routeID)
	}

	log.Printf("[DEBUG] Reconciliation cycle %s finished, %d routes checked\n", cycleID, len(routeIDs))
	return nil
}

// reconcileRoute is the per-route unit of work: fetch current offers, match
// them against the stored identity, diff the price and notify-then-record.
// Every early return leaves the stored observation untouched, so the next
// cycle retries from the same state.
func (s *ReconciliationService) reconcileRoute(ctx context.Context, cycleID string, routeID uint) {
	route, err := s.routes.FindByID(routeID)
	if err != nil {
		log.Printf("[WARNING] Cycle %s: route %d: load failed, skipping: %v\n", cycleID, routeID, err)
		return
	}
	if route == nil {
		// Subscription pointing at a deleted route; pruning should make this
		// impossible, so only warn and move on.
		log.Printf("[WARNING] Cycle %s: route %d referenced by subscription but missing\n", cycleID, routeID)
		return
	}

	result, err := s.source.Search(ctx, models.SearchQuery{
		FromCode: route.FromCityCode,
		ToCode:   route.ToCityCode,
		Date:     route.FromDate,
	})
	if err != nil {
		log.Printf("[WARNING] Cycle %s: route %d: fetch failed, retrying next cycle: %v\n", cycleID, routeID, err)
		return
	}
	if result.NoTickets {
		log.Printf("[DEBUG] Cycle %s: route %d: no tickets reported\n", cycleID, routeID)
		return
	}

	match := findMatch(NormalizeOffers(result.Offers, &route.Class), route)
	if match == nil {
		log.Printf("[DEBUG] Cycle %s: route %d: no offer matches stored identity\n", cycleID, routeID)
		return
	}

	latest, err := s.tickets.Latest(route.ID)
	if err != nil {
		log.Printf("[WARNING] Cycle %s: route %d: price lookup failed, skipping: %v\n", cycleID, routeID, err)
		return
	}

	if latest == nil {
		log.Printf("[DEBUG] Cycle %s: route %d: first observation, price %d\n", cycleID, routeID, match.BestPrice)
		if err := s.tickets.RecordPrice(route.ID, match.BestPrice, time.Now()); err != nil {
			log.Printf("[ERROR] Cycle %s: route %d: failed to record price: %v\n", cycleID, routeID, err)
		}
		return
	}

	if latest.BestPrice == match.BestPrice {
		return
	}

	log.Printf("[DEBUG] Cycle %s: route %d: price changed %d -> %d\n",
		cycleID, routeID, latest.BestPrice, match.BestPrice)

	// Fan-out first, then record; the observation is updated regardless of
	// delivery failures.
	s.notifier.NotifyPriceChange(ctx, route, latest.BestPrice, match.BestPrice)

	if err := s.tickets.RecordPrice(route.ID, match.BestPrice, time.Now()); err != nil {
		log.Printf("[ERROR] Cycle %s: route %d: failed to record price: %v\n", cycleID, routeID, err)
	}
}

func findMatch(normalized []models.NormalizedRoute, route *models.Route) *models.NormalizedRoute {
	for i := range normalized {
		if route.Matches(&normalized[i]) {
			return &normalized[i]
		}
	}
	return nil
}

// Package models defines data structures used throughout the application
package models

import (
	"fmt"
	"strings"
	"time"

	apperrors "trainalert.app/errors"
)

// TravelClass enumerates the carriage classes a route can be tracked for.
type TravelClass string

const (
	ClassPlackart TravelClass = "plackart"
	ClassCupe     TravelClass = "cupe"
	ClassSV       TravelClass = "sv"
	ClassSeated   TravelClass = "seated"
)

// upstream carriage type labels as they appear in the booking site payloads
var travelClassLabels = map[string]TravelClass{
	"плацкартный": ClassPlackart,
	"плацкарт":    ClassPlackart,
	"купе":        ClassCupe,
	"св":          ClassSV,
	"сидячий":     ClassSeated,
	"plackart":    ClassPlackart,
	"cupe":        ClassCupe,
	"sv":          ClassSV,
	"seated":      ClassSeated,
}

// ParseTravelClass converts an upstream carriage type label or an enum name
// into a TravelClass. Unrecognized labels are a parse error, never a default.
func ParseTravelClass(label string) (TravelClass, error) {
	class, ok := travelClassLabels[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return "", apperrors.NewParseError(fmt.Sprintf("unknown travel class label: %q", label), nil)
	}
	return class, nil
}

// Label returns the display label used in notification messages.
func (c TravelClass) Label() string {
	switch c {
	case ClassPlackart:
		return "плацкарт"
	case ClassCupe:
		return "купе"
	case ClassSV:
		return "СВ"
	case ClassSeated:
		return "сидячий"
	}
	return string(c)
}

// City represents a settlement known to the booking site, keyed by its
// upstream city code.
type City struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"index;not null"`
}

// Station represents a railway station, keyed by its upstream station code.
type Station struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	CityID uint   `json:"city_id" gorm:"index"`
	Name   string `json:"name" gorm:"not null"`
}

// Route is the canonical identity of a tracked train route: stations, times,
// class and (when subscribed from a concrete search result) the train number.
// City codes are denormalized onto the route because the upstream search is
// queried by city, while offers are matched by station.
type Route struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	FromStationID uint        `json:"from_station_id" gorm:"index;not null"`
	ToStationID   uint        `json:"to_station_id" gorm:"not null"`
	FromCityCode  uint        `json:"from_city_code" gorm:"not null"`
	ToCityCode    uint        `json:"to_city_code" gorm:"not null"`
	FromDate      time.Time   `json:"from_date" gorm:"index;not null"`
	ToDate        time.Time   `json:"to_date" gorm:"not null"`
	TrainNo       string      `json:"train_no"`
	Class         TravelClass `json:"class" gorm:"not null"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Matches reports whether a normalized upstream route is this exact route.
// The train number participates in the match whenever the route has one
// pinned.
func (r *Route) Matches(n *NormalizedRoute) bool {
	if r.TrainNo != "" && r.TrainNo != n.TrainNo {
		return false
	}
	return r.FromStationID == n.FromStationID &&
		r.ToStationID == n.ToStationID &&
		r.FromDate.Equal(n.Departure) &&
		r.ToDate.Equal(n.Arrival) &&
		r.Class == n.Class
}

// User statuses
const (
	UserStatusActive = "active"
	UserStatusBanned = "banned"
)

// User represents a chat user of the bot, keyed by the messenger user id.
type User struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Status    string    `json:"status" gorm:"not null;default:active"`
	CreatedAt time.Time `json:"created_at"`
}

// Subscription links a user to a route they track price changes for.
type Subscription struct {
	UserID    int64     `json:"user_id" gorm:"primaryKey"`
	RouteID   uint      `json:"route_id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
}

// Ticket is one observation of the best price for a route. The engine only
// reads the latest observation per route; older rows are kept for audit.
type Ticket struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	RouteID    uint      `json:"route_id" gorm:"index;not null"`
	BestPrice  int       `json:"best_price" gorm:"not null"`
	UpdateTime time.Time `json:"update_time" gorm:"not null"`
}

// Offer is one upstream-reported fare for a train/class, transient per fetch.
type Offer struct {
	TrainNo         string      `json:"train_no"`
	FromStationID   uint        `json:"from_station_id"`
	FromStationName string      `json:"from_station_name"`
	ToStationID     uint        `json:"to_station_id"`
	ToStationName   string      `json:"to_station_name"`
	Departure       time.Time   `json:"departure"`
	Arrival         time.Time   `json:"arrival"`
	Class           TravelClass `json:"class"`
	Price           int         `json:"price"`
	SpecialFare     bool        `json:"special_fare"`
}

// NormalizedRoute is a group of offers for one physical train with the
// derived best eligible price and the class that achieved it.
type NormalizedRoute struct {
	TrainNo         string      `json:"train_no"`
	FromStationID   uint        `json:"from_station_id"`
	FromStationName string      `json:"from_station_name"`
	ToStationID     uint        `json:"to_station_id"`
	ToStationName   string      `json:"to_station_name"`
	Departure       time.Time   `json:"departure"`
	Arrival         time.Time   `json:"arrival"`
	Class           TravelClass `json:"class"`
	BestPrice       int         `json:"best_price"`
}

// SearchQuery addresses one upstream search: city codes plus travel date.
type SearchQuery struct {
	FromCode uint
	ToCode   uint
	Date     time.Time
}

// CacheKey returns a stable key for caching the result of this query.
func (q SearchQuery) CacheKey() string {
	return fmt.Sprintf("search:%d:%d:%s", q.FromCode, q.ToCode, q.Date.Format("02.01.2006"))
}

// SearchResult is the outcome of a successful upstream fetch. NoTickets set
// means the site answered "nothing available", which is distinct from a
// fetch error (non-nil error from the source) and from an offer list.
type SearchResult struct {
	Offers    []Offer `json:"offers"`
	NoTickets bool    `json:"no_tickets"`
}

// SearchRequest represents the user-facing route search parameters
type SearchRequest struct {
	From  string `json:"from" form:"from" binding:"required"`
	To    string `json:"to" form:"to" binding:"required"`
	Date  string `json:"date" form:"date" binding:"required"`
	Class string `json:"class" form:"class"`
}

// SearchResponse carries normalized routes plus the city codes the search
// resolved to, so a client can subscribe without a second lookup.
type SearchResponse struct {
	FromCityCode uint              `json:"from_city_code"`
	ToCityCode   uint              `json:"to_city_code"`
	Routes       []NormalizedRoute `json:"routes"`
}

// SubscribeRequest represents data required to start tracking a route
type SubscribeRequest struct {
	UserID        int64     `json:"user_id" binding:"required"`
	FromStationID uint      `json:"from_station_id" binding:"required"`
	ToStationID   uint      `json:"to_station_id" binding:"required"`
	FromCityCode  uint      `json:"from_city_code" binding:"required"`
	ToCityCode    uint      `json:"to_city_code" binding:"required"`
	FromDate      time.Time `json:"from_date" binding:"required"`
	ToDate        time.Time `json:"to_date" binding:"required"`
	TrainNo       string    `json:"train_no"`
	Class         string    `json:"class" binding:"required"`
	LastPrice     *int      `json:"last_price"`
}

// SubscriptionInfo is one entry of a user's subscription listing.
type SubscriptionInfo struct {
	RouteID         uint        `json:"route_id"`
	FromStationID   uint        `json:"from_station_id"`
	FromStationName string      `json:"from_station_name"`
	ToStationID     uint        `json:"to_station_id"`
	ToStationName   string      `json:"to_station_name"`
	FromDate        time.Time   `json:"from_date"`
	ToDate          time.Time   `json:"to_date"`
	TrainNo         string      `json:"train_no"`
	Class           TravelClass `json:"class"`
	LatestPrice     *int        `json:"latest_price,omitempty"`
}

// ErrorResponse represents an error message structure for API responses
type ErrorResponse struct {
	Error string `json:"error"`
}

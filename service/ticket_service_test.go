package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	apperrors "trainalert.app/errors"
	"trainalert.app/models"
)

type mockCityRepository struct {
	mock.Mock
}

func (m *mockCityRepository) CodeByName(name string) (uint, error) {
	args := m.Called(name)
	return args.Get(0).(uint), args.Error(1)
}

type ticketFixture struct {
	source   *mockRouteSource
	cities   *mockCityRepository
	stations *mockStationRepository
	service  *TicketService
}

func newTicketFixture() *ticketFixture {
	source := &mockRouteSource{}
	cities := &mockCityRepository{}
	stations := &mockStationRepository{}

	return &ticketFixture{
		source:   source,
		cities:   cities,
		stations: stations,
		service:  NewTicketService(source, cities, stations),
	}
}

func futureSearchDate() (string, time.Time) {
	date := time.Now().AddDate(0, 0, 30)
	formatted := date.Format(searchDateFormat)
	parsed, _ := time.Parse(searchDateFormat, formatted)
	return formatted, parsed
}

func TestSearchRoutes_Success(t *testing.T) {
	f := newTicketFixture()
	dateStr, date := futureSearchDate()

	offer := models.Offer{
		TrainNo:         "102А",
		FromStationID:   2000000,
		FromStationName: "МОСКВА ОКТЯБРЬСКАЯ",
		ToStationID:     2004000,
		ToStationName:   "САНКТ-ПЕТЕРБУРГ-ГЛАВН.",
		Departure:       date.Add(12 * time.Hour),
		Arrival:         date.Add(20 * time.Hour),
		Class:           models.ClassCupe,
		Price:           2500,
	}

	f.cities.On("CodeByName", "москва").Return(uint(2000000), nil)
	f.cities.On("CodeByName", "санкт-петербург").Return(uint(2004000), nil)
	f.source.On("Search", mock.Anything, models.SearchQuery{
		FromCode: 2000000,
		ToCode:   2004000,
		Date:     date,
	}).Return(&models.SearchResult{Offers: []models.Offer{offer}}, nil)
	f.stations.On("Upsert", mock.AnythingOfType("[]models.Station")).Return(nil)

	response, err := f.service.SearchRoutes(context.Background(), &models.SearchRequest{
		From: "москва",
		To:   "санкт-петербург",
		Date: dateStr,
	})

	assert.NoError(t, err)
	assert.Equal(t, uint(2000000), response.FromCityCode)
	assert.Equal(t, uint(2004000), response.ToCityCode)
	assert.Len(t, response.Routes, 1)
	assert.Equal(t, 2500, response.Routes[0].BestPrice)
	f.stations.AssertExpectations(t)
}

func TestSearchRoutes_NoTickets(t *testing.T) {
	f := newTicketFixture()
	dateStr, _ := futureSearchDate()

	f.cities.On("CodeByName", mock.AnythingOfType("string")).Return(uint(2000000), nil)
	f.source.On("Search", mock.Anything, mock.AnythingOfType("models.SearchQuery")).
		Return(&models.SearchResult{NoTickets: true}, nil)

	response, err := f.service.SearchRoutes(context.Background(), &models.SearchRequest{
		From: "москва",
		To:   "казань",
		Date: dateStr,
	})

	// No tickets is a valid answer, not an error.
	assert.NoError(t, err)
	assert.Empty(t, response.Routes)
}

func TestSearchRoutes_SourceError(t *testing.T) {
	f := newTicketFixture()
	dateStr, _ := futureSearchDate()

	f.cities.On("CodeByName", mock.AnythingOfType("string")).Return(uint(2000000), nil)
	f.source.On("Search", mock.Anything, mock.AnythingOfType("models.SearchQuery")).
		Return(nil, apperrors.NewExternalAPIError("upstream unavailable", assert.AnError))

	_, err := f.service.SearchRoutes(context.Background(), &models.SearchRequest{
		From: "москва",
		To:   "казань",
		Date: dateStr,
	})

	assert.Error(t, err)
}

func TestSearchRoutes_UnknownCity(t *testing.T) {
	f := newTicketFixture()
	dateStr, _ := futureSearchDate()

	f.cities.On("CodeByName", "атлантида").Return(uint(0), apperrors.NewNotFoundError("city not found: атлантида"))

	_, err := f.service.SearchRoutes(context.Background(), &models.SearchRequest{
		From: "атлантида",
		To:   "москва",
		Date: dateStr,
	})

	assert.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	if assert.True(t, ok) {
		assert.Equal(t, apperrors.NotFoundError, appErr.Type)
	}
	f.source.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestSearchRoutes_InvalidDate(t *testing.T) {
	f := newTicketFixture()

	for _, date := range []string{"2026-10-01", "not-a-date", ""} {
		_, err := f.service.SearchRoutes(context.Background(), &models.SearchRequest{
			From: "москва",
			To:   "казань",
			Date: date,
		})
		assertValidationError(t, err)
	}
}

func TestSearchRoutes_PastDate(t *testing.T) {
	f := newTicketFixture()

	_, err := f.service.SearchRoutes(context.Background(), &models.SearchRequest{
		From: "москва",
		To:   "казань",
		Date: time.Now().AddDate(0, 0, -7).Format(searchDateFormat),
	})

	assertValidationError(t, err)
}

func TestSearchRoutes_UnknownClassFilter(t *testing.T) {
	f := newTicketFixture()
	dateStr, _ := futureSearchDate()

	_, err := f.service.SearchRoutes(context.Background(), &models.SearchRequest{
		From:  "москва",
		To:    "казань",
		Date:  dateStr,
		Class: "Люкс",
	})

	assertValidationError(t, err)
	f.cities.AssertNotCalled(t, "CodeByName", mock.Anything)
}

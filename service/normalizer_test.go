package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"trainalert.app/models"
)

func makeOffer(trainNo string, class models.TravelClass, price int, special bool) models.Offer {
	return models.Offer{
		TrainNo:       trainNo,
		FromStationID: 2000000,
		ToStationID:   2004000,
		Departure:     time.Date(2026, 10, 1, 12, 30, 0, 0, time.UTC),
		Arrival:       time.Date(2026, 10, 2, 8, 15, 0, 0, time.UTC),
		Class:         class,
		Price:         price,
		SpecialFare:   special,
	}
}

func TestNormalizeOffers_GroupsByTrain(t *testing.T) {
	offers := []models.Offer{
		makeOffer("102А", models.ClassCupe, 2500, false),
		makeOffer("102А", models.ClassPlackart, 1200, false),
		makeOffer("104Б", models.ClassCupe, 3100, false),
	}

	routes := NormalizeOffers(offers, nil)

	assert.Len(t, routes, 2)
	assert.Equal(t, "102А", routes[0].TrainNo)
	assert.Equal(t, 1200, routes[0].BestPrice)
	assert.Equal(t, models.ClassPlackart, routes[0].Class)
	assert.Equal(t, "104Б", routes[1].TrainNo)
	assert.Equal(t, 3100, routes[1].BestPrice)
}

func TestNormalizeOffers_SameTrainDifferentDeparture(t *testing.T) {
	first := makeOffer("102А", models.ClassCupe, 2500, false)
	second := makeOffer("102А", models.ClassCupe, 1900, false)
	second.Departure = second.Departure.Add(6 * time.Hour)

	routes := NormalizeOffers([]models.Offer{first, second}, nil)

	// Different departure times are different physical trains.
	assert.Len(t, routes, 2)
}

func TestNormalizeOffers_SpecialFareNeverWins(t *testing.T) {
	offers := []models.Offer{
		makeOffer("102А", models.ClassCupe, 800, true),
		makeOffer("102А", models.ClassCupe, 2500, false),
	}

	routes := NormalizeOffers(offers, nil)

	assert.Len(t, routes, 1)
	assert.Equal(t, 2500, routes[0].BestPrice)
}

func TestNormalizeOffers_OnlySpecialFaresDropsGroup(t *testing.T) {
	offers := []models.Offer{
		makeOffer("102А", models.ClassCupe, 800, true),
		makeOffer("104Б", models.ClassCupe, 2500, false),
	}

	routes := NormalizeOffers(offers, nil)

	assert.Len(t, routes, 1)
	assert.Equal(t, "104Б", routes[0].TrainNo)
}

func TestNormalizeOffers_ClassFilter(t *testing.T) {
	offers := []models.Offer{
		makeOffer("102А", models.ClassPlackart, 1200, false),
		makeOffer("102А", models.ClassCupe, 2500, false),
	}

	filter := models.ClassCupe
	routes := NormalizeOffers(offers, &filter)

	// The cheaper plackart offer must not leak through the cupe filter.
	assert.Len(t, routes, 1)
	assert.Equal(t, 2500, routes[0].BestPrice)
	assert.Equal(t, models.ClassCupe, routes[0].Class)
}

func TestNormalizeOffers_ClassFilterWithoutMatch(t *testing.T) {
	offers := []models.Offer{
		makeOffer("102А", models.ClassPlackart, 1200, false),
	}

	filter := models.ClassSV
	routes := NormalizeOffers(offers, &filter)

	assert.Empty(t, routes)
}

func TestNormalizeOffers_Empty(t *testing.T) {
	assert.Empty(t, NormalizeOffers(nil, nil))
	assert.Empty(t, NormalizeOffers([]models.Offer{}, nil))
}

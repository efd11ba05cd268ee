package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"trainalert.app/config"
	"trainalert.app/errors"
	"trainalert.app/models"
)

const rzdDateFormat = "02.01.2006"
const rzdDateTimeFormat = "02.01.2006 15:04"

// RZDProvider implements RouteSource against the pass.rzd.ru timetable API.
// The API is two-phase: the first request either answers "OK" (no tickets) or
// hands out a request id (RID); the offer list is polled with that RID after
// a short delay while the upstream computes results.
type RZDProvider struct {
	baseURL   string
	layerID   int
	pollDelay time.Duration
	client    *http.Client
}

// NewRZDProvider creates a new timetable API provider
func NewRZDProvider(config *config.RZDConfig) *RZDProvider {
	return &RZDProvider{
		baseURL:   config.BaseURL,
		layerID:   config.LayerID,
		pollDelay: time.Duration(config.PollDelaySeconds) * time.Second,
		client:    &http.Client{Timeout: time.Duration(config.RequestTimeoutSeconds) * time.Second},
	}
}

type rzdFirstResponse struct {
	Result string      `json:"result"`
	RID    json.Number `json:"RID"`
}

type rzdSecondResponse struct {
	Result string         `json:"result"`
	Tp     []rzdTimetable `json:"tp"`
}

type rzdTimetable struct {
	From      string     `json:"from"`
	FromCode  uint       `json:"fromCode"`
	Where     string     `json:"where"`
	WhereCode uint       `json:"whereCode"`
	List      []rzdTrain `json:"list"`
}

type rzdTrain struct {
	Number   string   `json:"number"`
	Code0    uint     `json:"code0"`
	Code1    uint     `json:"code1"`
	Station0 string   `json:"station0"`
	Station1 string   `json:"station1"`
	Date0    string   `json:"date0"`
	Time0    string   `json:"time0"`
	Date1    string   `json:"date1"`
	Time1    string   `json:"time1"`
	Cars     []rzdCar `json:"cars"`
}

type rzdCar struct {
	Tariff         *int   `json:"tariff"`
	TypeLoc        string `json:"typeLoc"`
	DisabledPerson bool   `json:"disabledPerson"`
}

// Search queries the timetable API for offers between two city codes on the
// given date. A "no tickets" answer is a valid result, not an error.
func (p *RZDProvider) Search(ctx context.Context, query models.SearchQuery) (*models.SearchResult, error) {
	params := url.Values{}
	params.Set("layer_id", fmt.Sprintf("%d", p.layerID))
	params.Set("dir", "0")
	params.Set("tfl", "1")
	params.Set("checkSeats", "1")
	params.Set("code0", fmt.Sprintf("%d", query.FromCode))
	params.Set("code1", fmt.Sprintf("%d", query.ToCode))
	params.Set("dt0", query.Date.Format(rzdDateFormat))

	var first rzdFirstResponse
	if err := p.getJSON(ctx, p.baseURL+"?"+params.Encode(), &first); err != nil {
		return nil, err
	}

	switch first.Result {
	case "OK":
		return &models.SearchResult{NoTickets: true}, nil
	case "RID":
	default:
		return nil, errors.NewExternalAPIError(
			fmt.Sprintf("unexpected first-phase result: %q", first.Result), nil)
	}

	// Upstream computes the offer list asynchronously; poll after the delay.
	select {
	case <-ctx.Done():
		return nil, errors.NewExternalAPIError("search canceled while waiting for results", ctx.Err())
	case <-time.After(p.pollDelay):
	}

	pollParams := url.Values{}
	pollParams.Set("layer_id", fmt.Sprintf("%d", p.layerID))
	pollParams.Set("rid", first.RID.String())

	var second rzdSecondResponse
	if err := p.getJSON(ctx, p.baseURL+"?"+pollParams.Encode(), &second); err != nil {
		return nil, err
	}

	if second.Result != "OK" {
		return nil, errors.NewExternalAPIError(
			fmt.Sprintf("unexpected second-phase result: %q", second.Result), nil)
	}

	offers, err := parseOffers(second.Tp)
	if err != nil {
		return nil, err
	}

	return &models.SearchResult{Offers: offers}, nil
}

func (p *RZDProvider) getJSON(ctx context.Context, rawURL string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.NewExternalAPIError("failed to build ticket source request", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36")
	req.Header.Set("Referer", "https://pass.rzd.ru/")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.NewExternalAPIError("failed to call ticket source", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return errors.NewExternalAPIError(
			fmt.Sprintf("ticket source returned status code %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return errors.NewParseError("failed to decode ticket source response", err)
	}

	return nil
}

// parseOffers flattens the timetable payload into one Offer per carriage
// group with a tariff. Cars without a tariff carry no purchasable fare and
// are skipped; unknown carriage class labels fail the whole parse.
func parseOffers(tp []rzdTimetable) ([]models.Offer, error) {
	offers := []models.Offer{}
	if len(tp) == 0 {
		return offers, nil
	}

	for _, train := range tp[0].List {
		departure, err := time.Parse(rzdDateTimeFormat, train.Date0+" "+train.Time0)
		if err != nil {
			return nil, errors.NewParseError(
				fmt.Sprintf("invalid departure time for train %s", train.Number), err)
		}
		arrival, err := time.Parse(rzdDateTimeFormat, train.Date1+" "+train.Time1)
		if err != nil {
			return nil, errors.NewParseError(
				fmt.Sprintf("invalid arrival time for train %s", train.Number), err)
		}

		for _, car := range train.Cars {
			if car.Tariff == nil {
				continue
			}

			class, err := models.ParseTravelClass(car.TypeLoc)
			if err != nil {
				return nil, err
			}

			offers = append(offers, models.Offer{
				TrainNo:         train.Number,
				FromStationID:   train.Code0,
				FromStationName: train.Station0,
				ToStationID:     train.Code1,
				ToStationName:   train.Station1,
				Departure:       departure,
				Arrival:         arrival,
				Class:           class,
				Price:           *car.Tariff,
				SpecialFare:     car.DisabledPerson,
			})
		}
	}

	return offers, nil
}

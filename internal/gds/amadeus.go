package gds

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Domenick1991/gdsbooking/config"
	"github.com/Domenick1991/gdsbooking/internal/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	tokenPath   = "/v1/security/oauth2/token"
	searchPath  = "/v2/shopping/flight-offers"
	pricingPath = "/v1/shopping/flight-offers/pricing"
	ordersPath  = "/v1/booking/flight-orders"
)

// AmadeusClient talks to an Amadeus-compatible self-service API.
type AmadeusClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

func NewAmadeusClient(cfg config.GDSConfig) *AmadeusClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	creds := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     baseURL + tokenPath,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tokenHTTP := &http.Client{Timeout: cfg.Timeout()}
	httpClient := creds.Client(context.WithValue(context.Background(), oauth2.HTTPClient, tokenHTTP))
	httpClient.Timeout = cfg.Timeout()

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}

	return &AmadeusClient{baseURL: baseURL, http: httpClient, limiter: limiter}
}

func (c *AmadeusClient) Search(ctx context.Context, params domain.SearchParams) ([]domain.FlightOffer, error) {
	q := url.Values{}
	q.Set("originLocationCode", params.Origin)
	q.Set("destinationLocationCode", params.Destination)
	q.Set("departureDate", params.DepartureDate)
	if params.ReturnDate != "" {
		q.Set("returnDate", params.ReturnDate)
	}
	q.Set("adults", strconv.Itoa(params.Adults))
	if params.Children > 0 {
		q.Set("children", strconv.Itoa(params.Children))
	}
	q.Set("travelClass", string(params.TravelClass))

	var resp struct {
		Data []domain.FlightOffer `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, searchPath, q, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		resp.Data = []domain.FlightOffer{}
	}
	return resp.Data, nil
}

func (c *AmadeusClient) Price(ctx context.Context, offer domain.FlightOffer) (domain.PricedQuote, error) {
	body := map[string]any{
		"data": map[string]any{
			"type":         "flight-offers-pricing",
			"flightOffers": []domain.FlightOffer{offer},
		},
	}

	var resp struct {
		Data domain.PricedQuote `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, pricingPath, nil, body, &resp); err != nil {
		return domain.PricedQuote{}, err
	}
	return resp.Data, nil
}

func (c *AmadeusClient) Book(ctx context.Context, flightOffer json.RawMessage, travelers []domain.Traveler) (domain.BookingResult, error) {
	body := map[string]any{
		"data": map[string]any{
			"type":         "flight-order",
			"flightOffers": []json.RawMessage{flightOffer},
			"travelers":    travelers,
		},
	}

	var resp struct {
		Data domain.BookingResult `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, ordersPath, nil, body, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		resp.Data = domain.BookingResult{}
	}
	return resp.Data, nil
}

func (c *AmadeusClient) Cancel(ctx context.Context, bookingID string) error {
	return c.do(ctx, http.MethodDelete, ordersPath+"/"+url.PathEscape(bookingID), nil, nil, nil)
}

func (c *AmadeusClient) do(ctx context.Context, method, path string, query url.Values, body, dst any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.UpstreamError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}
	if dst == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &domain.UpstreamError{Status: http.StatusBadGateway, Message: "invalid response from flight provider"}
	}
	return nil
}

type apiErrors struct {
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

func errorMessage(status int, body []byte) string {
	var parsed apiErrors
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Errors) > 0 {
		if parsed.Errors[0].Detail != "" {
			return parsed.Errors[0].Detail
		}
		if parsed.Errors[0].Title != "" {
			return parsed.Errors[0].Title
		}
	}
	return http.StatusText(status)
}

// transportError keeps the status of a failed token exchange and leaves
// everything else without one.
func transportError(err error) error {
	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) && retrieve.Response != nil {
		msg := retrieve.ErrorDescription
		if msg == "" {
			msg = errorMessage(retrieve.Response.StatusCode, retrieve.Body)
		}
		return &domain.UpstreamError{Status: retrieve.Response.StatusCode, Message: msg}
	}
	return &domain.UpstreamError{Message: err.Error()}
}

var _ Client = (*AmadeusClient)(nil)

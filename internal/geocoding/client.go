// Package geocoding wraps the Nominatim (OpenStreetMap) address lookup API.
package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Nominatim's usage policy requires an identifying User-Agent and at most
// one request per second.
const userAgent = "PetAlertFrance/1.0 (https://petalertefrance.fr; contact@petalertefrance.fr)"

const requestTimeout = 10 * time.Second

// Errors surfaced to the handlers, each mapped to its own response shape.
var (
	ErrQueryTooShort = errors.New("query too short (minimum 3 characters)")
	ErrBlankAddress  = errors.New("address is required")
	ErrNoResults     = errors.New("address not found")
	ErrRateLimited   = errors.New("too many requests, retry in a few seconds")
	ErrTimeout       = errors.New("geocoding timed out, please retry")
	ErrUnavailable   = errors.New("geocoding service unavailable, use the map to select the location manually")
	ErrSearchFailed  = errors.New("address search failed")
)

// Suggestion is a single autocomplete candidate. The address parts are
// passed through from the provider untouched.
type Suggestion struct {
	DisplayName string          `json:"display_name"`
	Lat         float64         `json:"lat"`
	Lon         float64         `json:"lon"`
	Address     json.RawMessage `json:"address"`
}

// Result is a normalized forward or reverse geocoding result.
type Result struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formattedAddress"`
	Street           string  `json:"street"`
	City             string  `json:"city"`
	PostalCode       string  `json:"postalCode"`
	Country          string  `json:"country"`
}

// nominatimPlace is the provider's wire format. Coordinates arrive as strings.
type nominatimPlace struct {
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
}

type nominatimAddress struct {
	Road     string `json:"road"`
	Street   string `json:"street"`
	City     string `json:"city"`
	Town     string `json:"town"`
	Village  string `json:"village"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

// Client is a rate-limited Nominatim client. All requests share one token
// bucket so concurrent callers cannot exceed the provider's limit together.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a geocoding client for the given Nominatim base URL.
// Passing nil uses a default HTTP client with the standard request timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Search performs an address autocomplete lookup, restricted to France.
// Queries shorter than 3 characters fail fast without contacting the
// provider. Provider ordering is preserved.
func (c *Client) Search(ctx context.Context, query string) ([]Suggestion, error) {
	if len(strings.TrimSpace(query)) < 3 {
		return nil, ErrQueryTooShort
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "10")
	params.Set("countrycodes", "fr")
	params.Set("addressdetails", "1")
	params.Set("accept-language", "fr")

	body, err := c.get(ctx, "/search", params)
	if err != nil {
		if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimeout) {
			return nil, err
		}
		return nil, ErrSearchFailed
	}

	var places []json.RawMessage
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, ErrSearchFailed
	}

	suggestions := make([]Suggestion, 0, len(places))
	for _, raw := range places {
		var place nominatimPlace
		if err := json.Unmarshal(raw, &place); err != nil {
			continue
		}
		lat, lon, err := parseCoords(place)
		if err != nil {
			continue
		}
		var envelope struct {
			Address json.RawMessage `json:"address"`
		}
		_ = json.Unmarshal(raw, &envelope)
		suggestions = append(suggestions, Suggestion{
			DisplayName: place.DisplayName,
			Lat:         lat,
			Lon:         lon,
			Address:     envelope.Address,
		})
	}
	return suggestions, nil
}

// Geocode resolves a free-text address to coordinates, taking the first
// provider result.
func (c *Client) Geocode(ctx context.Context, address string) (Result, error) {
	if strings.TrimSpace(address) == "" {
		return Result{}, ErrBlankAddress
	}

	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "5")
	params.Set("countrycodes", "fr")
	params.Set("addressdetails", "1")
	params.Set("accept-language", "fr")

	body, err := c.get(ctx, "/search", params)
	if err != nil {
		return Result{}, err
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return Result{}, fmt.Errorf("decoding geocoding response: %w", err)
	}
	if len(places) == 0 {
		return Result{}, ErrNoResults
	}

	return toResult(places[0])
}

// ReverseGeocode resolves coordinates back to an address.
func (c *Client) ReverseGeocode(ctx context.Context, latitude, longitude float64) (Result, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(latitude, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(longitude, 'f', -1, 64))
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("accept-language", "fr")

	body, err := c.get(ctx, "/reverse", params)
	if err != nil {
		return Result{}, err
	}

	var place nominatimPlace
	if err := json.Unmarshal(body, &place); err != nil {
		return Result{}, fmt.Errorf("decoding reverse geocoding response: %w", err)
	}
	if place.DisplayName == "" {
		return Result{}, ErrNoResults
	}

	return toResult(place)
}

// get performs a rate-limited GET against the provider and maps transport
// and status failures to the package errors.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, ErrTimeout
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, ErrUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, ErrUnavailable
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d from geocoding provider", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func parseCoords(place nominatimPlace) (float64, float64, error) {
	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return 0, 0, err
	}
	lon, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

// toResult normalizes a provider place, applying the same address part
// fallbacks as the web client expects (road/street, city/town/village).
func toResult(place nominatimPlace) (Result, error) {
	lat, lon, err := parseCoords(place)
	if err != nil {
		return Result{}, fmt.Errorf("invalid coordinates in geocoding response: %w", err)
	}

	street := place.Address.Road
	if street == "" {
		street = place.Address.Street
	}
	city := place.Address.City
	if city == "" {
		city = place.Address.Town
	}
	if city == "" {
		city = place.Address.Village
	}
	country := place.Address.Country
	if country == "" {
		country = "France"
	}

	return Result{
		Latitude:         lat,
		Longitude:        lon,
		FormattedAddress: place.DisplayName,
		Street:           street,
		City:             city,
		PostalCode:       place.Address.Postcode,
		Country:          country,
	}, nil
}

// Package backend talks to the company's booking backend: vehicle suggestion,
// fare calculation and manual booking creation.
package backend

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
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/starskyline/bareerah/internal/booking"
	"github.com/starskyline/bareerah/internal/extcall"
	"github.com/starskyline/bareerah/internal/fleet"
	"github.com/starskyline/bareerah/pkg/logging"
)

const (
	dependency      = "backend"
	defaultTimeout  = 10 * time.Second
	tokenLifetime   = 24 * time.Hour
	tokenRefreshGap = 5 * time.Minute
)

var backendTracer = otel.Tracer("bareerah.backend")

// Client is an agent-role client for the booking backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secret     []byte
	logger     *logging.Logger
	now        func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient returns nil when baseURL is empty so callers fall back to local
// pricing and pending bookings.
func NewClient(baseURL, jwtSecret string, logger *logging.Logger) *Client {
	if strings.TrimSpace(baseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		secret:     []byte(jwtSecret),
		logger:     logger,
		now:        time.Now,
	}
}

type agentClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// authToken signs a fresh agent token when the cached one is within five
// minutes of expiring.
func (c *Client) authToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if c.token != "" && now.Add(tokenRefreshGap).Before(c.tokenExpiry) {
		return c.token, nil
	}
	if len(c.secret) == 0 {
		return "", errors.New("backend: jwt secret not configured")
	}
	expiry := now.Add(tokenLifetime)
	claims := agentClaims{
		Role: "agent",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("backend: sign token: %w", err)
	}
	c.token = signed
	c.tokenExpiry = expiry
	return signed, nil
}

type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// SuggestVehicle implements fleet.VehicleService.
func (c *Client) SuggestVehicle(ctx context.Context, passengers, luggage int) (fleet.Category, error) {
	q := url.Values{}
	q.Set("passengers", strconv.Itoa(passengers))
	q.Set("luggage", strconv.Itoa(luggage))

	var data struct {
		SuggestedVehicles []struct {
			Type  string `json:"type"`
			Model string `json:"model"`
		} `json:"suggested_vehicles"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/vehicles/suggest?"+q.Encode(), nil, &data); err != nil {
		return "", err
	}
	for _, v := range data.SuggestedVehicles {
		if cat, ok := fleet.ParseCategory(v.Type); ok {
			return cat, nil
		}
	}
	return "", extcall.Invalid(dependency, errors.New("no recognised vehicle in suggestion"))
}

// QuoteFare implements fleet.FareService.
func (c *Client) QuoteFare(ctx context.Context, distanceKm float64, vehicle fleet.Category, bt fleet.BookingType) (float64, error) {
	req := map[string]any{
		"distance_km":  distanceKm,
		"vehicle_type": string(vehicle),
		"booking_type": string(bt),
	}
	var data struct {
		FareAED *float64 `json:"fare_aed"`
		Fare    *float64 `json:"fare"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/bookings/calculate-fare", req, &data); err != nil {
		return 0, err
	}
	switch {
	case data.FareAED != nil && *data.FareAED > 0:
		return *data.FareAED, nil
	case data.Fare != nil && *data.Fare > 0:
		return *data.Fare, nil
	}
	return 0, extcall.Invalid(dependency, errors.New("fare missing from response"))
}

type createBookingRequest struct {
	CustomerName    string   `json:"customer_name"`
	CustomerPhone   string   `json:"customer_phone"`
	CustomerEmail   string   `json:"customer_email,omitempty"`
	PickupLocation  string   `json:"pickup_location"`
	DropoffLocation string   `json:"dropoff_location"`
	PickupDatetime  string   `json:"pickup_datetime"`
	VehicleType     string   `json:"vehicle_type"`
	BookingType     string   `json:"booking_type"`
	Passengers      int      `json:"passengers"`
	Luggage         int      `json:"luggage"`
	FareQuoted      float64  `json:"fare_quoted"`
	DistanceKm      float64  `json:"distance_km"`
	FlightNumber    string   `json:"flight_number,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	Reference       string   `json:"reference"`
	Source          string   `json:"source"`
	PickupLat       *float64 `json:"pickup_lat,omitempty"`
	PickupLng       *float64 `json:"pickup_lng,omitempty"`
	DropoffLat      *float64 `json:"dropoff_lat,omitempty"`
	DropoffLng      *float64 `json:"dropoff_lng,omitempty"`
}

// Create implements booking.Service and returns the backend's reference,
// or the local one when the backend does not issue its own.
func (c *Client) Create(ctx context.Context, d booking.Draft) (string, error) {
	req := createBookingRequest{
		CustomerName:    d.CustomerName,
		CustomerPhone:   d.ContactNumber,
		CustomerEmail:   d.Email,
		PickupLocation:  d.Pickup,
		DropoffLocation: d.Dropoff,
		PickupDatetime:  d.PickupTime,
		VehicleType:     string(d.VehicleType),
		BookingType:     string(d.BookingType),
		Passengers:      d.Passengers,
		Luggage:         d.Luggage,
		FareQuoted:      d.FareAED,
		DistanceKm:      d.DistanceKm,
		FlightNumber:    d.FlightNumber,
		Notes:           d.Notes,
		Reference:       d.Reference,
		Source:          "bareerah-" + d.Channel,
	}
	var data struct {
		BookingReference string          `json:"booking_reference"`
		Reference        string          `json:"reference"`
		ID               json.RawMessage `json:"id"`
		BookingID        json.RawMessage `json:"booking_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/bookings/create-manual", req, &data); err != nil {
		return "", err
	}
	for _, ref := range []string{data.BookingReference, data.Reference, rawID(data.BookingID), rawID(data.ID)} {
		if ref != "" {
			return ref, nil
		}
	}
	return d.Reference, nil
}

func rawID(raw json.RawMessage) string {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "null" {
		return ""
	}
	return s
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	ctx, span := backendTracer.Start(ctx, "backend.request")
	defer span.End()
	span.SetAttributes(attribute.String("http.method", method), attribute.String("backend.path", path))

	token, err := c.authToken()
	if err != nil {
		return extcall.Invalid(dependency, err)
	}

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return extcall.Invalid(dependency, fmt.Errorf("marshal request: %w", err))
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return extcall.Invalid(dependency, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return extcall.Classify(dependency, fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return extcall.Classify(dependency, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		c.logger.Warn("backend non-2xx response", "status", resp.StatusCode, "path", path, "body", msg)
		err := fmt.Errorf("backend returned %d: %s", resp.StatusCode, msg)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return extcall.Unavailable(dependency, err)
		}
		if resp.StatusCode == http.StatusUnauthorized {
			c.mu.Lock()
			c.token = ""
			c.mu.Unlock()
		}
		return extcall.Invalid(dependency, err)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return extcall.Invalid(dependency, fmt.Errorf("decode response: %w", err))
	}
	if env.Success != nil && !*env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return extcall.Invalid(dependency, fmt.Errorf("backend rejected request: %s", msg))
	}
	if out == nil {
		return nil
	}
	data := env.Data
	if len(data) == 0 || string(data) == "null" {
		data = respBody
	}
	if err := json.Unmarshal(data, out); err != nil {
		return extcall.Invalid(dependency, fmt.Errorf("decode data: %w", err))
	}
	return nil
}

var (
	_ fleet.VehicleService = (*Client)(nil)
	_ fleet.FareService    = (*Client)(nil)
	_ booking.Service      = (*Client)(nil)
)

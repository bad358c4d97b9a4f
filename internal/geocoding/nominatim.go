package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/geobiz/internal/models"
	"golang.org/x/time/rate"
)

const (
	// NominatimBaseURL is the public OpenStreetMap Nominatim instance.
	NominatimBaseURL = "https://nominatim.openstreetmap.org"
	// DefaultUserAgent identifies the application to Nominatim.
	DefaultUserAgent = "GeoBizApp/1.0"
)

// NominatimProvider implements the Provider interface using OpenStreetMap's Nominatim API.
// This is a free geocoding service with usage limits (1 request/second for fair use).
type NominatimProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the Nominatim API
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Rate limiter
	// userAgent is required by Nominatim usage policy
	userAgent string
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NominatimOptions configures a NominatimProvider. Zero values fall back to the defaults.
type NominatimOptions struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	RateLimit int
}

// nominatimResponse represents the JSON response from the reverse endpoint.
type nominatimResponse struct {
	Error   string `json:"error"`
	Address struct {
		Road    string `json:"road"`
		Suburb  string `json:"suburb"`
		Village string `json:"village"`
		Town    string `json:"town"`
	} `json:"address"`
}

// Common errors for Nominatim provider.
var (
	ErrNominatimEmptyResponse = errors.New("nominatim API returned empty response")
	ErrNominatimInvalidCoords = errors.New("nominatim provider got invalid coordinates")
)

// NewNominatimProvider creates a new Nominatim reverse geocoding provider.
func NewNominatimProvider(opts NominatimOptions, log *slog.Logger) *NominatimProvider {
	const timeout = 10 * time.Second
	if opts.Timeout <= 0 {
		opts.Timeout = timeout
	}

	return NewNominatimProviderWithClient(&http.Client{Timeout: opts.Timeout}, opts, log)
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom HTTP client.
// Useful for testing with mocked HTTP clients.
func NewNominatimProviderWithClient(client HTTPClient, opts NominatimOptions, log *slog.Logger) *NominatimProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = NominatimBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateLimit)
	}

	return &NominatimProvider{
		client:    client,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		log:       log,
		limiter:   limiter,
		userAgent: opts.UserAgent,
	}
}

// Reverse converts coordinates to a street and district using the Nominatim reverse endpoint.
// The street is the "road" of the returned address; the district is the first of
// "suburb", "village" and "town" that is present. Missing keys yield empty strings.
func (np *NominatimProvider) Reverse(ctx context.Context, coords models.Coordinates) (*models.Address, error) {
	if coords.Latitude < -90 || coords.Latitude > 90 || coords.Longitude < -180 || coords.Longitude > 180 {
		return nil, fmt.Errorf("%w: %f, %f", ErrNominatimInvalidCoords, coords.Latitude, coords.Longitude)
	}

	if err := np.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	np.log.DebugContext(ctx, "Reverse geocoding using Nominatim", "lat", coords.Latitude, "lon", coords.Longitude)

	reqURL, err := url.Parse(np.baseURL + "/reverse")
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("format", "json")
	query.Set("lat", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// User-Agent is mandatory per Nominatim usage policy.
	req.Header.Set("User-Agent", np.userAgent)

	resp, err := np.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute reverse geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("nominatim API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	np.log.DebugContext(ctx, "Nominatim raw response", "body", string(body))

	var result nominatimResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}

	if result.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrNominatimEmptyResponse, result.Error)
	}

	return &models.Address{
		Street:   result.Address.Road,
		District: firstNonEmpty(result.Address.Suburb, result.Address.Village, result.Address.Town),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

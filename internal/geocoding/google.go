package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/UnknownOlympus/geobiz/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider is a struct that holds the client for Google Maps API
// and a logger for logging purposes. It is used to interact with the
// Google Maps reverse geocoding service.
type GoogleProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
}

type GoogleAPIClient interface {
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// ErrEmptyResponse is returned when the Google Maps API responds with an empty result.
var ErrEmptyResponse = errors.New("get empty response from Google Maps API")

// districtTypes lists the address component types that can stand in for a district,
// most specific first.
var districtTypes = []string{"administrative_area_level_3", "sublocality", "locality"}

// NewGoogleProvider initializes a new GoogleProvider with the given client and logger.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Reverse looks up the street ("route") and district of the given point using the
// Google Maps Geocoding API. Components are taken from the first result that has them.
func (gp *GoogleProvider) Reverse(ctx context.Context, coords models.Coordinates) (*models.Address, error) {
	gp.log.DebugContext(ctx, "Reverse geocoding using Google Maps", "lat", coords.Latitude, "lon", coords.Longitude)

	req := maps.GeocodingRequest{LatLng: &maps.LatLng{Lat: coords.Latitude, Lng: coords.Longitude}}
	results, err := gp.client.ReverseGeocode(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to reverse geocode coordinates: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrEmptyResponse
	}

	address := &models.Address{
		Street: findComponent(results, "route"),
	}
	for _, kind := range districtTypes {
		if address.District = findComponent(results, kind); address.District != "" {
			break
		}
	}

	return address, nil
}

func findComponent(results []maps.GeocodingResult, kind string) string {
	for _, result := range results {
		for _, component := range result.AddressComponents {
			if slices.Contains(component.Types, kind) {
				return component.LongName
			}
		}
	}

	return ""
}

package geocoding_test

import (
	"log/slog"
	"testing"

	"github.com/UnknownOlympus/geobiz/internal/geocoding"
	"github.com/UnknownOlympus/geobiz/internal/models"
	"github.com/UnknownOlympus/geobiz/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

func TestReverse(t *testing.T) {
	mockClient := mocks.NewGoogleAPIClient(t)
	provider := geocoding.NewGoogleProvider(mockClient, slog.Default())
	ctx := t.Context()
	coords := models.Coordinates{Latitude: -6.1754, Longitude: 106.8272}
	req := &maps.GeocodingRequest{LatLng: &maps.LatLng{Lat: coords.Latitude, Lng: coords.Longitude}}

	t.Run("api returns error", func(t *testing.T) {
		mockClient.On("ReverseGeocode", ctx, req).Return(nil, assert.AnError).Once()

		_, err := provider.Reverse(ctx, coords)

		require.Error(t, err)
		require.ErrorIs(t, err, assert.AnError)
		mockClient.AssertExpectations(t)
	})

	t.Run("api return empty response", func(t *testing.T) {
		mockClient.On("ReverseGeocode", ctx, req).Return(nil, nil).Once()

		address, err := provider.Reverse(ctx, coords)

		require.Nil(t, address)
		require.ErrorIs(t, err, geocoding.ErrEmptyResponse)
		mockClient.AssertExpectations(t)
	})

	t.Run("successfull reverse geocoding", func(t *testing.T) {
		mockResponse := []maps.GeocodingResult{
			{AddressComponents: []maps.AddressComponent{
				{LongName: "Jalan Medan Merdeka Utara", Types: []string{"route"}},
				{LongName: "Gambir", Types: []string{"administrative_area_level_3", "political"}},
				{LongName: "Jakarta Pusat", Types: []string{"administrative_area_level_2", "political"}},
			}},
		}

		mockClient.On("ReverseGeocode", ctx, req).Return(mockResponse, nil).Once()

		address, err := provider.Reverse(ctx, coords)

		require.NoError(t, err)
		require.NotNil(t, address)
		assert.Equal(t, "Jalan Medan Merdeka Utara", address.Street)
		assert.Equal(t, "Gambir", address.District)
		mockClient.AssertExpectations(t)
	})

	t.Run("district falls back to locality and street stays empty", func(t *testing.T) {
		mockResponse := []maps.GeocodingResult{
			{AddressComponents: []maps.AddressComponent{
				{LongName: "Bogor", Types: []string{"locality", "political"}},
			}},
		}

		mockClient.On("ReverseGeocode", ctx, req).Return(mockResponse, nil).Once()

		address, err := provider.Reverse(ctx, coords)

		require.NoError(t, err)
		assert.Empty(t, address.Street)
		assert.Equal(t, "Bogor", address.District)
		mockClient.AssertExpectations(t)
	})
}

package geocoding_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/UnknownOlympus/geobiz/internal/geocoding"
	"github.com/UnknownOlympus/geobiz/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockHTTPClient is a mock implementation of HTTPClient for testing.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestNominatimProvider_Reverse(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()
	coords := models.Coordinates{Latitude: -7.7828, Longitude: 110.3671}
	opts := geocoding.NominatimOptions{}

	t.Run("successful reverse geocoding", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, http.MethodGet, req.Method)
				assert.Equal(t, "nominatim.openstreetmap.org", req.URL.Host)
				assert.Equal(t, "/reverse", req.URL.Path)
				assert.Equal(t, "json", req.URL.Query().Get("format"))
				assert.Equal(t, "-7.7828", req.URL.Query().Get("lat"))
				assert.Equal(t, "110.3671", req.URL.Query().Get("lon"))
				assert.Equal(t, "GeoBizApp/1.0", req.Header.Get("User-Agent"))

				return jsonResponse(http.StatusOK,
					`{"address":{"road":"Jalan Malioboro","suburb":"Gedongtengen","town":"Yogyakarta"}}`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, opts, logger)
		address, err := provider.Reverse(ctx, coords)

		require.NoError(t, err)
		require.NotNil(t, address)
		assert.Equal(t, "Jalan Malioboro", address.Street)
		assert.Equal(t, "Gedongtengen", address.District)
	})

	t.Run("custom base url and user agent", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, "geo.internal:8080", req.URL.Host)
				assert.Equal(t, "/reverse", req.URL.Path)
				assert.Equal(t, "Custom/2.0", req.Header.Get("User-Agent"))
				return jsonResponse(http.StatusOK, `{"address":{}}`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, geocoding.NominatimOptions{
			BaseURL:   "http://geo.internal:8080/",
			UserAgent: "Custom/2.0",
		}, logger)
		_, err := provider.Reverse(ctx, coords)

		require.NoError(t, err)
	})

	t.Run("district falls back to village then town", func(t *testing.T) {
		bodies := map[string]string{
			"village": `{"address":{"road":"Jalan Kaliurang","village":"Sinduharjo","town":"Ngaglik"}}`,
			"town":    `{"address":{"road":"Jalan Kaliurang","town":"Ngaglik"}}`,
		}
		expected := map[string]string{"village": "Sinduharjo", "town": "Ngaglik"}

		for name, body := range bodies {
			mockClient := &mockHTTPClient{
				doFunc: func(_ *http.Request) (*http.Response, error) {
					return jsonResponse(http.StatusOK, body), nil
				},
			}

			provider := geocoding.NewNominatimProviderWithClient(mockClient, opts, logger)
			address, err := provider.Reverse(ctx, coords)

			require.NoError(t, err, name)
			assert.Equal(t, expected[name], address.District, name)
		}
	})

	t.Run("missing road yields empty street", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{"address":{"suburb":"Gondokusuman"}}`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, opts, logger)
		address, err := provider.Reverse(ctx, coords)

		require.NoError(t, err)
		assert.Empty(t, address.Street)
		assert.Equal(t, "Gondokusuman", address.District)
	})

	t.Run("missing address object yields empty strings", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{"place_id":1}`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, opts, logger)
		address, err := provider.Reverse(ctx, coords)

		require.NoError(t, err)
		assert.Equal(t, models.Address{}, *address)
	})

	t.Run("unable to geocode", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{"error":"Unable to geocode"}`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, opts, logger)
		address, err := provider.Reverse(ctx, coords)

		require.Nil(t, address)
		require.ErrorIs(t, err, geocoding.ErrNominatimEmptyResponse)
		assert.Contains(t, err.Error(), "Unable to geocode")
	})

	t.Run("HTTP error status", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusTooManyRequests, `{"error":"Rate limit exceeded"}`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, opts, logger)
		address, err := provider.Reverse(ctx, coords)

		require.Error(t, err)
		require.Nil(t, address)
		assert.Contains(t, err.Error(), "nominatim API returned status 429")
	})

	t.Run("invalid JSON response", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `invalid json`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, opts, logger)
		address, err := provider.Reverse(ctx, coords)

		require.Error(t, err)
		require.Nil(t, address)
		assert.Contains(t, err.Error(), "failed to decode nominatim response")
	})

	t.Run("HTTP client returns error", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, assert.AnError
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, opts, logger)
		address, err := provider.Reverse(ctx, coords)

		require.ErrorIs(t, err, assert.AnError)
		require.Nil(t, address)
		assert.Contains(t, err.Error(), "failed to execute reverse geocoding request")
	})

	t.Run("coordinates out of range", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				t.Fatal("request must not be sent")
				return nil, assert.AnError
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, opts, logger)
		address, err := provider.Reverse(ctx, models.Coordinates{Latitude: 91, Longitude: 10})

		require.ErrorIs(t, err, geocoding.ErrNominatimInvalidCoords)
		require.Nil(t, address)
	})

	t.Run("context cancellation", func(t *testing.T) {
		newCtx, cancel := context.WithCancel(context.Background())
		cancel()

		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				return nil, req.Context().Err()
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, geocoding.NominatimOptions{RateLimit: 1}, logger)
		address, err := provider.Reverse(newCtx, coords)

		require.Error(t, err)
		require.Nil(t, address)
	})
}

func TestNewNominatimProvider(t *testing.T) {
	logger := slog.Default()

	provider := geocoding.NewNominatimProvider(geocoding.NominatimOptions{}, logger)

	require.NotNil(t, provider)
}

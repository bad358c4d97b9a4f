package geocoding

import (
	"context"

	"github.com/UnknownOlympus/geobiz/internal/models"
)

// Provider is an interface that defines a method for reverse geocoding a point.
// The Reverse method takes a context and coordinates as input,
// and returns the street and district found there and an error if any occurs.
type Provider interface {
	Reverse(ctx context.Context, coords models.Coordinates) (*models.Address, error)
}

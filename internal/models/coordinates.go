package models

// Coordinates represents a geographical point defined by its latitude and longitude.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`  // Latitude of the geographical point.
	Longitude float64 `json:"longitude"` // Longitude of the geographical point.
}

// Captured reports whether the point looks like a real device fix.
// A zero latitude is what the form holds before the browser returned a position.
func (c Coordinates) Captured() bool {
	return c.Latitude != 0
}

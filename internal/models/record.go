package models

// Record is a single business location row. Records are never updated once stored.
type Record struct {
	BusinessName string  `json:"business_name"`
	Street       string  `json:"street"`
	District     string  `json:"district"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// Coordinates returns the point the record was captured at.
func (r Record) Coordinates() Coordinates {
	return Coordinates{Latitude: r.Latitude, Longitude: r.Longitude}
}

package models

// Address is the human-readable fragment returned by reverse geocoding.
type Address struct {
	Street   string `json:"street"`   // Street is the road name, empty when the provider has none.
	District string `json:"district"` // District is the suburb, village or town.
}

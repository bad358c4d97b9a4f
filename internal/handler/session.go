package handler

import (
	"github.com/gin-contrib/sessions"
	"github.com/google/uuid"
)

// Session keys of the form state.
const (
	keyBusinessName = "business_name"
	keyStreet       = "street"
	keyDistrict     = "district"
	keyLatitude     = "latitude"
	keyLongitude    = "longitude"
	keyFormKey      = "form_key"
)

// Flash channels.
const (
	flashSuccess = "success"
	flashWarning = "warning"
)

// formState is what the form shows between requests. Coordinates are only ever
// set by /locate; the browser cannot edit them.
type formState struct {
	BusinessName string
	Street       string
	District     string
	Latitude     float64
	Longitude    float64
	// FormKey is rotated after every successful save so a stale page cannot resubmit.
	FormKey string
}

func loadForm(session sessions.Session) formState {
	form := formState{
		BusinessName: getString(session, keyBusinessName),
		Street:       getString(session, keyStreet),
		District:     getString(session, keyDistrict),
		Latitude:     getFloat(session, keyLatitude),
		Longitude:    getFloat(session, keyLongitude),
		FormKey:      getString(session, keyFormKey),
	}

	if form.FormKey == "" {
		form.FormKey = uuid.NewString()
		session.Set(keyFormKey, form.FormKey)
	}

	return form
}

func (f formState) store(session sessions.Session) {
	session.Set(keyBusinessName, f.BusinessName)
	session.Set(keyStreet, f.Street)
	session.Set(keyDistrict, f.District)
	session.Set(keyLatitude, f.Latitude)
	session.Set(keyLongitude, f.Longitude)
	session.Set(keyFormKey, f.FormKey)
}

// resetForm clears every field and issues a new form key.
func resetForm(session sessions.Session) formState {
	for _, key := range []string{keyBusinessName, keyStreet, keyDistrict, keyLatitude, keyLongitude} {
		session.Delete(key)
	}

	form := formState{FormKey: uuid.NewString()}
	session.Set(keyFormKey, form.FormKey)

	return form
}

func flashes(session sessions.Session, channel string) []string {
	var messages []string
	for _, flash := range session.Flashes(channel) {
		if msg, ok := flash.(string); ok {
			messages = append(messages, msg)
		}
	}

	return messages
}

func getString(session sessions.Session, key string) string {
	value, _ := session.Get(key).(string)
	return value
}

func getFloat(session sessions.Session, key string) float64 {
	value, _ := session.Get(key).(float64)
	return value
}

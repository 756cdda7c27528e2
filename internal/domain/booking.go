package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Traveler is a caller-supplied traveler record passed to the GDS as is.
type Traveler = json.RawMessage

type Booking struct {
	ID            int64           `json:"-"`
	BookingID     string          `json:"bookingId"`
	OwnerID       string          `json:"userId"`
	FlightDetails json.RawMessage `json:"flightDetails"`
	Status        BookingStatus   `json:"status"`
	RawResponse   json.RawMessage `json:"rawResponse"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// BookingResult is the provider booking payload. Fields are looked up by
// name since providers disagree on what they call the reference.
type BookingResult map[string]json.RawMessage

// bookingIDFields is the lookup order for the booking reference.
var bookingIDFields = []string{"id", "bookingId", "pnr", "gdsBookingReference"}

// DeriveBookingID picks the first usable reference from the result, falling
// back to the current time in milliseconds.
func DeriveBookingID(result BookingResult, now time.Time) string {
	for _, field := range bookingIDFields {
		if v := truthyScalar(result[field]); v != "" {
			return v
		}
	}
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// Status returns the provider status, or confirmed when none is given.
func (r BookingResult) Status() BookingStatus {
	var s string
	if err := json.Unmarshal(r["status"], &s); err == nil && s != "" {
		return BookingStatus(s)
	}
	return BookingStatusConfirmed
}

// FlightDetails returns the provider's flight details or an empty object.
func (r BookingResult) FlightDetails() json.RawMessage {
	raw := bytes.TrimSpace(r["flightDetails"])
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return json.RawMessage("{}")
	}
	return raw
}

// truthyScalar returns a non-empty string or a non-zero number as text.
func truthyScalar(raw json.RawMessage) string {
	v := scalarString(raw)
	if v == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && f == 0 && !isJSONString(raw) {
		return ""
	}
	return v
}

func isJSONString(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '"'
}

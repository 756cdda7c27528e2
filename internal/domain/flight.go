package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

type TravelClass string

const (
	TravelClassEconomy        TravelClass = "ECONOMY"
	TravelClassPremiumEconomy TravelClass = "PREMIUM_ECONOMY"
	TravelClassBusiness       TravelClass = "BUSINESS"
	TravelClassFirst          TravelClass = "FIRST"
)

func (c TravelClass) Valid() bool {
	switch c {
	case TravelClassEconomy, TravelClassPremiumEconomy, TravelClassBusiness, TravelClassFirst:
		return true
	}
	return false
}

// SearchParams is the normalized query sent to the GDS.
type SearchParams struct {
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    string
	Adults        int
	Children      int
	TravelClass   TravelClass
}

// FlightOffer is a provider offer kept as raw JSON. Only the id is read;
// marshalling returns the provider payload unchanged.
type FlightOffer struct {
	ID  string
	Raw json.RawMessage
}

func (o FlightOffer) MarshalJSON() ([]byte, error) {
	if len(o.Raw) == 0 {
		return []byte("null"), nil
	}
	return o.Raw, nil
}

func (o *FlightOffer) UnmarshalJSON(data []byte) error {
	var head struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	o.ID = scalarString(head.ID)
	o.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// PricedQuote is the provider pricing payload. The offers inside it are the
// ones that get booked.
type PricedQuote struct {
	FlightOffers []json.RawMessage
	Raw          json.RawMessage
}

func (q PricedQuote) MarshalJSON() ([]byte, error) {
	if len(q.Raw) == 0 {
		return []byte("null"), nil
	}
	return q.Raw, nil
}

func (q *PricedQuote) UnmarshalJSON(data []byte) error {
	var body struct {
		FlightOffers []json.RawMessage `json:"flightOffers"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}
	q.FlightOffers = body.FlightOffers
	q.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// FirstOffer returns the offer a booking is made against.
func (q PricedQuote) FirstOffer() (json.RawMessage, error) {
	if len(q.FlightOffers) == 0 {
		return nil, errors.New("priced offer has no flight offers")
	}
	return q.FlightOffers[0], nil
}

type OfferSet struct {
	OwnerID   string        `json:"userId"`
	Offers    []FlightOffer `json:"offers"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Find returns the first offer with the given id.
func (s *OfferSet) Find(id string) (FlightOffer, bool) {
	for _, o := range s.Offers {
		if o.ID == id {
			return o, true
		}
	}
	return FlightOffer{}, false
}

type PricedOffer struct {
	OwnerID   string      `json:"userId"`
	Offer     PricedQuote `json:"offer"`
	CreatedAt time.Time   `json:"createdAt"`
}

// scalarString reads a JSON string or number as text. Anything else is "".
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

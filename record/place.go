package record

import (
	"encoding/json"
	"reflect"
	"strconv"

	"github.com/adeilh/go-places/query"
)

// ReservationBaseURL prefixes a place_id to build the maps link for a place.
const ReservationBaseURL = "https://www.google.com/maps/place/?q=place_id:"

// DefaultCollection is the collection a place belongs to when none is given.
const DefaultCollection = "personal"

// Location is a latitude/longitude pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Viewport is the recommended bounding box for displaying a place.
type Viewport struct {
	Northeast Location `json:"northeast"`
	Southwest Location `json:"southwest"`
}

// Geometry positions a place on the map.
type Geometry struct {
	Location Location `json:"location"`
	Viewport Viewport `json:"viewport"`
}

// PlusCode is an open location code for a place.
type PlusCode struct {
	CompoundCode string `json:"compound_code,omitempty"`
	GlobalCode   string `json:"global_code,omitempty"`
}

// Photo references an image hosted by the lookup service.
type Photo struct {
	Height           int      `json:"height"`
	Width            int      `json:"width"`
	HTMLAttributions []string `json:"html_attributions,omitempty"`
	PhotoReference   string   `json:"photo_reference"`
}

// Place is a restaurant enriched from the places lookup service.
type Place struct {
	ID     string `json:"id"`
	Handle int64  `json:"_id,omitempty"`

	Name                string   `json:"name" validate:"required"`
	PlaceID             string   `json:"place_id"`
	FormattedAddress    string   `json:"formatted_address"`
	BusinessStatus      string   `json:"business_status,omitempty"`
	Geometry            Geometry `json:"geometry"`
	IconBackgroundColor string   `json:"icon_background_color,omitempty"`
	IconMaskBaseURI     string   `json:"icon_mask_base_uri,omitempty"`
	PlusCode            PlusCode `json:"plus_code"`
	Reference           string   `json:"reference,omitempty"`
	Types               []string `json:"types,omitempty"`
	Photos              []Photo  `json:"photos,omitempty"`
	UserRatingsTotal    int      `json:"user_ratings_total"`

	PriceLevel *int     `json:"price_level,omitempty" validate:"omitempty,min=0,max=4"`
	Rating     *float64 `json:"rating,omitempty" validate:"omitempty,min=0,max=5"`
	Collection string   `json:"collection,omitempty"`

	ReservationURL string `json:"reservation_url,omitempty"`

	Extra Extra `json:"-" msgpack:"_extra,omitempty"`
}

// Normalize fills derived fields: the default collection and the reservation link.
func (p Place) Normalize() Place {
	if p.Collection == "" {
		p.Collection = DefaultCollection
	}
	p.ReservationURL = ""
	if p.PlaceID != "" && p.Name != "" {
		p.ReservationURL = ReservationBaseURL + p.PlaceID
	}
	return p
}

func (p Place) String() string {
	rating := "n/a"
	if p.Rating != nil {
		rating = strconv.FormatFloat(*p.Rating, 'f', -1, 64)
	}
	return p.Name + " - " + p.FormattedAddress + " - " + rating
}

type placeJSON Place

// UnmarshalJSON decodes a place and keeps unknown members in Extra.
func (p *Place) UnmarshalJSON(data []byte) error {
	var v placeJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	extra, err := splitExtra(data, reflect.TypeOf(v))
	if err != nil {
		return err
	}
	v.Extra = extra
	*p = Place(v)
	return nil
}

// MarshalJSON encodes a place with its Extra members inlined.
func (p Place) MarshalJSON() ([]byte, error) {
	encoded, err := json.Marshal(placeJSON(p))
	if err != nil {
		return nil, err
	}
	return mergeExtra(encoded, p.Extra)
}

// Field resolves a document field by its JSON name.
func (p Place) Field(name string) (any, bool) {
	switch name {
	case "id":
		return stringField(p.ID)
	case "name":
		return stringField(p.Name)
	case "place_id":
		return stringField(p.PlaceID)
	case "formatted_address":
		return stringField(p.FormattedAddress)
	case "business_status":
		return stringField(p.BusinessStatus)
	case "reference":
		return stringField(p.Reference)
	case "collection":
		return stringField(p.Collection)
	case "reservation_url":
		return stringField(p.ReservationURL)
	case "types":
		if len(p.Types) == 0 {
			return nil, false
		}
		return append([]string(nil), p.Types...), true
	case "user_ratings_total":
		return float64(p.UserRatingsTotal), true
	case "rating":
		if p.Rating == nil {
			return nil, false
		}
		return *p.Rating, true
	case "price_level":
		if p.PriceLevel == nil {
			return nil, false
		}
		return float64(*p.PriceLevel), true
	default:
		return p.Extra.Get(name)
	}
}

// PlaceSearchFields maps search parameters onto place fields.
var PlaceSearchFields = query.Fields{Name: "name", Address: "formatted_address", Rating: "rating"}

// PlaceSchema addresses places in the "restaurants" collection.
var PlaceSchema = Schema[Place]{
	Collection: "restaurants",
	Search:     PlaceSearchFields,
	ID:         func(p Place) string { return p.ID },
	WithID: func(p Place, id string) Place {
		p.ID = id
		return p
	},
	Handle:     func(p Place) int64 { return p.Handle },
	WithHandle: func(p Place, h int64) Place {
		p.Handle = h
		return p
	},
	Name:     func(p Place) string { return p.Name },
	Field:    Place.Field,
	Validate: func(p Place) error { return Validate(p) },
}

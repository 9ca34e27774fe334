package domain

import "time"

// Tolerance is the half-width of the lookup box on each axis, in decimal degrees.
const Tolerance = 0.001

// Review is an immutable tenant review of a rental unit.
type Review struct {
	ID               string    `json:"_id"` // store-assigned, opaque
	FormattedAddress string    `json:"formatted_address"`
	ReviewText       string    `json:"review_text"`
	Floor            float64   `json:"floor"`
	UnitNumber       string    `json:"unit_number"`
	Lat              float64   `json:"lat"`
	Lng              float64   `json:"lng"`
	CreatedAt        time.Time `json:"created_at"`
}

// ReviewInput carries the six caller-supplied fields of a new review.
type ReviewInput struct {
	FormattedAddress string  `json:"formatted_address"`
	ReviewText       string  `json:"review_text"`
	Floor            float64 `json:"floor"`
	UnitNumber       string  `json:"unit_number"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
}

// NewReview stamps an input with its identifier and creation time.
func NewReview(id string, in ReviewInput, createdAt time.Time) Review {
	return Review{
		ID:               id,
		FormattedAddress: in.FormattedAddress,
		ReviewText:       in.ReviewText,
		Floor:            in.Floor,
		UnitNumber:       in.UnitNumber,
		Lat:              in.Lat,
		Lng:              in.Lng,
		CreatedAt:        createdAt,
	}
}

// BoundingBox is an axis-aligned lat/lng rectangle with inclusive edges.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// Around returns the lookup box centred on (lat, lng).
func Around(lat, lng float64) BoundingBox {
	return BoundingBox{
		MinLat: lat - Tolerance,
		MaxLat: lat + Tolerance,
		MinLng: lng - Tolerance,
		MaxLng: lng + Tolerance,
	}
}

func (b BoundingBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat &&
		lng >= b.MinLng && lng <= b.MaxLng
}

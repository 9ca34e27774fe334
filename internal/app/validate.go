package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"landlord_reviews/internal/domain"
)

// validate treats Text and Number as their truthiness, so `required`
// rejects absent, null, "", 0 and false alike.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		switch x := f.Interface().(type) {
		case Text:
			return x.truthy
		case Number:
			return x.truthy
		}
		return nil
	}, Text{}, Number{})
	return v
}

// Text is a loosely-typed JSON text field: strings are taken as-is,
// numbers and true are converted to their text form.
type Text struct {
	Value   string
	truthy  bool
	invalid bool
}

func (t *Text) UnmarshalJSON(b []byte) error {
	*t = Text{}
	raw, err := decodeAny(b)
	if err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
	case string:
		t.Value, t.truthy = v, v != ""
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			t.truthy, t.invalid = true, true
			return nil
		}
		t.Value, t.truthy = strconv.FormatFloat(f, 'f', -1, 64), f != 0
	case bool:
		// false is falsy; true is stored as its text
		if v {
			t.Value, t.truthy = "true", true
		}
	default:
		t.truthy, t.invalid = true, true
	}
	return nil
}

// Number is a loosely-typed JSON numeric field: numbers and numeric strings
// are accepted, true counts as 1.
type Number struct {
	Value   float64
	truthy  bool
	invalid bool
}

func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	raw, err := decodeAny(b)
	if err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			n.truthy, n.invalid = true, true
			return nil
		}
		n.Value, n.truthy = f, f != 0
	case string:
		if v == "" {
			return nil
		}
		n.truthy = true
		f, err := parseCoordinate(strings.TrimSpace(v))
		if err != nil {
			n.invalid = true
			return nil
		}
		n.Value = f
	case bool:
		if v {
			n.Value, n.truthy = 1, true
		}
	default:
		n.truthy, n.invalid = true, true
	}
	return nil
}

func decodeAny(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// parseCoordinate accepts only finite decimal numbers.
func parseCoordinate(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrSyntax
	}
	return f, nil
}

// SubmitReview is the body of POST /api/reviews. Field order is the order
// in which missing fields are reported.
type SubmitReview struct {
	FormattedAddress Text   `json:"formatted_address" validate:"required"`
	ReviewText       Text   `json:"review_text" validate:"required"`
	Floor            Number `json:"floor" validate:"required"`
	UnitNumber       Text   `json:"unit_number" validate:"required"`
	Lat              Number `json:"lat" validate:"required"`
	Lng              Number `json:"lng" validate:"required"`
}

// Input validates the request and returns the review fields exactly as given.
func (r SubmitReview) Input() (domain.ReviewInput, error) {
	if err := missingFields(r); err != nil {
		return domain.ReviewInput{}, err
	}

	var invalid []string
	for _, f := range []struct {
		name string
		bad  bool
	}{
		{"formatted_address", r.FormattedAddress.invalid},
		{"review_text", r.ReviewText.invalid},
		{"floor", r.Floor.invalid},
		{"unit_number", r.UnitNumber.invalid},
		{"lat", r.Lat.invalid},
		{"lng", r.Lng.invalid},
	} {
		if f.bad {
			invalid = append(invalid, f.name)
		}
	}
	if len(invalid) > 0 {
		return domain.ReviewInput{}, &domain.ValidationError{Invalid: invalid}
	}

	return domain.ReviewInput{
		FormattedAddress: r.FormattedAddress.Value,
		ReviewText:       r.ReviewText.Value,
		Floor:            r.Floor.Value,
		UnitNumber:       r.UnitNumber.Value,
		Lat:              r.Lat.Value,
		Lng:              r.Lng.Value,
	}, nil
}

// NearQuery holds the raw lat/lng query parameters of GET /api/reviews.
type NearQuery struct {
	Lat string `json:"lat" validate:"required"`
	Lng string `json:"lng" validate:"required"`
}

// Coordinates validates and parses the query. Unparsable values are
// rejected rather than searched as NaN.
func (q NearQuery) Coordinates() (lat, lng float64, err error) {
	if err := missingFields(q); err != nil {
		return 0, 0, err
	}
	var invalid []string
	lat, err = parseCoordinate(strings.TrimSpace(q.Lat))
	if err != nil {
		invalid = append(invalid, "lat")
	}
	lng, err = parseCoordinate(strings.TrimSpace(q.Lng))
	if err != nil {
		invalid = append(invalid, "lng")
	}
	if len(invalid) > 0 {
		return 0, 0, &domain.ValidationError{Invalid: invalid}
	}
	return lat, lng, nil
}

func missingFields(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	missing := make([]string, 0, len(ves))
	for _, fe := range ves {
		missing = append(missing, fe.Field())
	}
	return &domain.ValidationError{Missing: missing}
}

package domain_test

import (
	"errors"
	"testing"

	"landlord_reviews/internal/domain"
)

func TestAround_InclusiveEdges(t *testing.T) {
	lat, lng := 40.7128, -74.0060
	box := domain.Around(lat, lng)

	cases := []struct {
		name     string
		lat, lng float64
		want     bool
	}{
		{"centre", lat, lng, true},
		{"north edge", lat + domain.Tolerance, lng, true},
		{"south edge", lat - domain.Tolerance, lng, true},
		{"east edge", lat, lng + domain.Tolerance, true},
		{"west edge", lat, lng - domain.Tolerance, true},
		{"corner", lat + domain.Tolerance, lng - domain.Tolerance, true},
		{"just north", lat + 0.0010001, lng, false},
		{"just west", lat, lng - 0.0010001, false},
		{"far away", 51.5074, -0.1278, false},
	}
	for _, tc := range cases {
		if got := box.Contains(tc.lat, tc.lng); got != tc.want {
			t.Errorf("%s: Contains(%v,%v)=%v want %v", tc.name, tc.lat, tc.lng, got, tc.want)
		}
	}
}

func TestValidationError_Message(t *testing.T) {
	cases := []struct {
		err  *domain.ValidationError
		want string
	}{
		{&domain.ValidationError{Missing: []string{"floor"}}, "Missing floor in your input!"},
		{&domain.ValidationError{Missing: []string{"lat", "lng"}}, "Missing lat,lng in your input!"},
		{&domain.ValidationError{Invalid: []string{"lng"}}, "Invalid lng in your input!"},
		{&domain.ValidationError{Message: "Invalid JSON body"}, "Invalid JSON body"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("got %q want %q", got, tc.want)
		}
	}
}

func TestPersist_WrapsOnce(t *testing.T) {
	if domain.Persist("save", nil) != nil {
		t.Fatalf("nil error must stay nil")
	}
	cause := errors.New("connection refused")
	err := domain.Persist("save", cause)

	var pe *domain.PersistenceError
	if !errors.As(err, &pe) || pe.Op != "save" {
		t.Fatalf("expected PersistenceError, got %#v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause lost")
	}
	if again := domain.Persist("find", err); again != err {
		t.Fatalf("double wrapped: %v", again)
	}
}

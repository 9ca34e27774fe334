package memory_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landlord_reviews/internal/domain"
	"landlord_reviews/internal/storage/memory"
)

func input(lat, lng float64, unit string) domain.ReviewInput {
	return domain.ReviewInput{
		FormattedAddress: "1 Main St",
		ReviewText:       "Noisy",
		Floor:            3,
		UnitNumber:       unit,
		Lat:              lat,
		Lng:              lng,
	}
}

func units(rs []domain.Review) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.UnitNumber)
	}
	sort.Strings(out)
	return out
}

func TestSaveAssignsIDs(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	a, err := s.Save(ctx, input(1, 1, "a"))
	require.NoError(t, err)
	b, err := s.Save(ctx, input(1, 1, "b"))
	require.NoError(t, err)

	require.NotEmpty(t, a.ID)
	require.NotEqual(t, a.ID, b.ID)
	require.False(t, a.CreatedAt.IsZero())
	require.Equal(t, 2, s.Len())
}

func TestFindNear_BoundingBox(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	lat, lng := 40.7128, -74.0060

	for _, in := range []domain.ReviewInput{
		input(lat, lng, "centre"),
		input(lat+domain.Tolerance, lng, "north-edge"),
		input(lat-domain.Tolerance, lng, "south-edge"),
		input(lat, lng+domain.Tolerance, "east-edge"),
		input(lat-domain.Tolerance, lng-domain.Tolerance, "sw-corner"),
		input(lat+0.0010001, lng, "just-north"),
		input(lat, lng-0.0010001, "just-west"),
		input(lat+0.0005, lng+0.002, "lat-in-lng-out"),
		input(51.5074, -0.1278, "london"),
	} {
		_, err := s.Save(ctx, in)
		require.NoError(t, err)
	}

	got, err := s.FindNear(ctx, lat, lng)
	require.NoError(t, err)
	require.Equal(t, []string{"centre", "east-edge", "north-edge", "south-edge", "sw-corner"}, units(got))

	// Same query, no writes in between: same set.
	again, err := s.FindNear(ctx, lat, lng)
	require.NoError(t, err)
	require.Equal(t, units(got), units(again))
}

func TestFindNear_EmptyNotNil(t *testing.T) {
	s := memory.New()
	got, err := s.FindNear(context.Background(), 10, 10)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestClosedStoreFails(t *testing.T) {
	s := memory.New()
	require.NoError(t, s.Close())

	_, err := s.Save(context.Background(), input(1, 1, "x"))
	var pe *domain.PersistenceError
	require.True(t, errors.As(err, &pe))
	require.ErrorIs(t, err, domain.ErrStoreClosed)

	_, err = s.FindNear(context.Background(), 1, 1)
	require.ErrorIs(t, err, domain.ErrStoreClosed)
	require.Error(t, s.Ping(context.Background()))
}

func TestConcurrentSaveAndFind(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.Save(ctx, input(10, 20, "u"))
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := s.FindNear(ctx, 10, 20)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.FindNear(ctx, 10, 20)
	require.NoError(t, err)
	require.Len(t, got, 50)
}

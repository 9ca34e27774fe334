package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"landlord_reviews/internal/domain"
)

// generationKey is bumped on every successful write; lookup cache keys embed
// it so a write makes all earlier lookup entries unreachable.
const generationKey = "reviews:gen"

type ReviewService struct {
	repo     domain.ReviewRepository
	cache    domain.Cache // optional
	cacheTTL time.Duration
}

// NewReviewService wires the store and an optional lookup cache (nil disables it).
func NewReviewService(r domain.ReviewRepository, c domain.Cache, ttl time.Duration) *ReviewService {
	return &ReviewService{repo: r, cache: c, cacheTTL: ttl}
}

// Submit validates and persists a new review.
func (s *ReviewService) Submit(ctx context.Context, req SubmitReview) (domain.Review, error) {
	in, err := req.Input()
	if err != nil {
		return domain.Review{}, err
	}
	rv, err := s.repo.Save(ctx, in)
	if err != nil {
		return domain.Review{}, domain.Persist("save", err)
	}
	if s.cache != nil {
		if _, err := s.cache.Incr(ctx, generationKey); err != nil {
			log.Warn().Err(err).Str("review_id", rv.ID).Msg("lookup cache invalidation failed")
		}
	}
	return rv, nil
}

// Near validates the query and returns reviews inside its bounding box.
func (s *ReviewService) Near(ctx context.Context, q NearQuery) ([]domain.Review, error) {
	lat, lng, err := q.Coordinates()
	if err != nil {
		return nil, err
	}
	if s.cache == nil {
		return s.findNear(ctx, lat, lng)
	}

	var gen int64
	if _, err := s.cache.Get(ctx, generationKey, &gen); err != nil {
		// cache unhealthy; go straight to the store
		return s.findNear(ctx, lat, lng)
	}
	key := fmt.Sprintf("reviews:near:%d:%s:%s", gen,
		strconv.FormatFloat(lat, 'g', -1, 64), strconv.FormatFloat(lng, 'g', -1, 64))

	var out []domain.Review
	if ok, _ := s.cache.Get(ctx, key, &out); ok && out != nil {
		return out, nil
	}
	rs, err := s.findNear(ctx, lat, lng)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, rs, int(s.cacheTTL.Seconds()))
	return rs, nil
}

func (s *ReviewService) findNear(ctx context.Context, lat, lng float64) ([]domain.Review, error) {
	rs, err := s.repo.FindNear(ctx, lat, lng)
	if err != nil {
		return nil, domain.Persist("find", err)
	}
	if rs == nil {
		rs = []domain.Review{}
	}
	return rs, nil
}

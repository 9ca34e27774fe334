// Package memory is an in-process review store backed by an R-tree.
// It is meant for local development and tests; nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dhconnelly/rtreego"

	"landlord_reviews/internal/adapters/observability"
	"landlord_reviews/internal/domain"
)

const (
	dimensions  = 2
	minChildren = 25
	maxChildren = 50

	// pointSize is the side of the degenerate rectangle stored per review.
	pointSize = 1e-9
	// searchPad widens the R-tree probe so edge points are never lost to
	// rounding; results are then filtered exactly.
	searchPad = 1e-6
)

type entry struct {
	review domain.Review
	rect   *rtreego.Rect
}

func (e *entry) Bounds() *rtreego.Rect { return e.rect }

type Store struct {
	mu     sync.RWMutex
	tree   *rtreego.Rtree
	seq    uint64
	closed bool
	now    func() time.Time
}

func New() *Store {
	return &Store{
		tree: rtreego.NewTree(dimensions, minChildren, maxChildren),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Save(ctx context.Context, in domain.ReviewInput) (rv domain.Review, err error) {
	start := time.Now()
	defer func() { observability.ObserveStore("memory", "save", err, time.Since(start)) }()

	if err := ctx.Err(); err != nil {
		return domain.Review{}, domain.Persist("save", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.Review{}, domain.Persist("save", domain.ErrStoreClosed)
	}
	s.seq++
	rv = domain.NewReview(strconv.FormatUint(s.seq, 10), in, s.now())
	s.tree.Insert(&entry{
		review: rv,
		rect:   rtreego.Point{in.Lat, in.Lng}.ToRect(pointSize),
	})
	return rv, nil
}

func (s *Store) FindNear(ctx context.Context, lat, lng float64) (out []domain.Review, err error) {
	start := time.Now()
	defer func() { observability.ObserveStore("memory", "find", err, time.Since(start)) }()

	if err := ctx.Err(); err != nil {
		return nil, domain.Persist("find", err)
	}

	box := domain.Around(lat, lng)
	side := 2 * (domain.Tolerance + searchPad)
	probe, err := rtreego.NewRect(
		rtreego.Point{box.MinLat - searchPad, box.MinLng - searchPad},
		[]float64{side, side},
	)
	if err != nil {
		return nil, domain.Persist("find", fmt.Errorf("bounding box: %w", err))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.Persist("find", domain.ErrStoreClosed)
	}

	hits := s.tree.SearchIntersect(probe)
	out = make([]domain.Review, 0, len(hits))
	for _, h := range hits {
		e, ok := h.(*entry)
		if !ok {
			continue
		}
		if box.Contains(e.review.Lat, e.review.Lng) {
			out = append(out, e.review)
		}
	}
	return out, nil
}

// Len reports the number of stored reviews.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Size()
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.Persist("ping", domain.ErrStoreClosed)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

package mysql

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"landlord_reviews/internal/adapters/observability"
	"landlord_reviews/internal/domain"
)

type Repo struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Repo {
	return &Repo{db: db, now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }}
}

// Migrate creates the reviews table when it does not exist yet.
func (r *Repo) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, createReviewsSQL)
	return domain.Persist("migrate", err)
}

func (r *Repo) Save(ctx context.Context, in domain.ReviewInput) (rv domain.Review, err error) {
	start := time.Now()
	defer func() { observability.ObserveStore("mysql", "save", err, time.Since(start)) }()

	createdAt := r.now()
	res, err := r.db.ExecContext(ctx, insertReviewSQL,
		in.FormattedAddress,
		in.ReviewText,
		in.Floor,
		in.UnitNumber,
		in.Lat,
		in.Lng,
		createdAt,
	)
	if err != nil {
		return domain.Review{}, domain.Persist("save", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Review{}, domain.Persist("save", err)
	}
	return domain.NewReview(strconv.FormatInt(id, 10), in, createdAt), nil
}

func (r *Repo) FindNear(ctx context.Context, lat, lng float64) (out []domain.Review, err error) {
	start := time.Now()
	defer func() { observability.ObserveStore("mysql", "find", err, time.Since(start)) }()

	box := domain.Around(lat, lng)
	rows, err := r.db.QueryContext(ctx, findNearSQL, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng)
	if err != nil {
		return nil, domain.Persist("find", err)
	}
	defer rows.Close()

	out = []domain.Review{}
	for rows.Next() {
		var (
			rv domain.Review
			id int64
		)
		if err := rows.Scan(
			&id,
			&rv.FormattedAddress,
			&rv.ReviewText,
			&rv.Floor,
			&rv.UnitNumber,
			&rv.Lat,
			&rv.Lng,
			&rv.CreatedAt, // needs parseTime=true in the DSN
		); err != nil {
			return nil, domain.Persist("find", err)
		}
		rv.ID = strconv.FormatInt(id, 10)
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persist("find", err)
	}
	return out, nil
}

func (r *Repo) Ping(ctx context.Context) error {
	return domain.Persist("ping", r.db.PingContext(ctx))
}

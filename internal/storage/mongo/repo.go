// Package mongo stores reviews in a MongoDB collection.
package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"landlord_reviews/internal/adapters/observability"
	"landlord_reviews/internal/domain"
)

const collectionName = "reviews"

type reviewDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	FormattedAddress string             `bson:"formatted_address"`
	ReviewText       string             `bson:"review_text"`
	Floor            float64            `bson:"floor"`
	UnitNumber       string             `bson:"unit_number"`
	Lat              float64            `bson:"lat"`
	Lng              float64            `bson:"lng"`
	CreatedAt        time.Time          `bson:"created_at"`
}

func (d reviewDoc) review() domain.Review {
	return domain.Review{
		ID:               d.ID.Hex(),
		FormattedAddress: d.FormattedAddress,
		ReviewText:       d.ReviewText,
		Floor:            d.Floor,
		UnitNumber:       d.UnitNumber,
		Lat:              d.Lat,
		Lng:              d.Lng,
		CreatedAt:        d.CreatedAt,
	}
}

type Repo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect dials uri and binds the reviews collection of database db.
func Connect(ctx context.Context, uri, db string) (*Repo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, domain.Persist("connect", err)
	}
	return New(client, db), nil
}

func New(client *mongo.Client, db string) *Repo {
	return &Repo{client: client, coll: client.Database(db).Collection(collectionName)}
}

// Migrate ensures the compound coordinate index used by FindNear.
func (r *Repo) Migrate(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "lat", Value: 1}, {Key: "lng", Value: 1}},
		Options: options.Index().SetName("lat_1_lng_1"),
	})
	return domain.Persist("migrate", err)
}

func (r *Repo) Save(ctx context.Context, in domain.ReviewInput) (rv domain.Review, err error) {
	start := time.Now()
	defer func() { observability.ObserveStore("mongo", "save", err, time.Since(start)) }()

	doc := reviewDoc{
		ID:               primitive.NewObjectID(),
		FormattedAddress: in.FormattedAddress,
		ReviewText:       in.ReviewText,
		Floor:            in.Floor,
		UnitNumber:       in.UnitNumber,
		Lat:              in.Lat,
		Lng:              in.Lng,
		// BSON dates carry millisecond precision.
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return domain.Review{}, domain.Persist("save", err)
	}
	return doc.review(), nil
}

func (r *Repo) FindNear(ctx context.Context, lat, lng float64) (out []domain.Review, err error) {
	start := time.Now()
	defer func() { observability.ObserveStore("mongo", "find", err, time.Since(start)) }()

	box := domain.Around(lat, lng)
	filter := bson.M{
		"lat": bson.M{"$gte": box.MinLat, "$lte": box.MaxLat},
		"lng": bson.M{"$gte": box.MinLng, "$lte": box.MaxLng},
	}
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, domain.Persist("find", err)
	}
	var docs []reviewDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, domain.Persist("find", err)
	}

	out = make([]domain.Review, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.review())
	}
	return out, nil
}

func (r *Repo) Ping(ctx context.Context) error {
	return domain.Persist("ping", r.client.Ping(ctx, readpref.Primary()))
}

func (r *Repo) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/MightyWarner19/grainlly/database"
	"github.com/MightyWarner19/grainlly/models"
)

type ReviewRepository interface {
	// Create fails with ErrDuplicate when the (user, product, order) triple
	// already has a review.
	Create(ctx context.Context, rv *models.Review) error
	Exists(ctx context.Context, userID string, productID, orderID primitive.ObjectID) (bool, error)
	RatingStats(ctx context.Context, productID primitive.ObjectID) (models.RatingStats, error)
	ListByProduct(ctx context.Context, productID primitive.ObjectID, page, limit int) ([]models.Review, int64, error)
}

type MongoReviewRepository struct {
	coll *mongo.Collection
}

func NewMongoReviewRepository(db *mongo.Database) *MongoReviewRepository {
	return &MongoReviewRepository{coll: db.Collection(database.ReviewsCollection)}
}

func (r *MongoReviewRepository) Create(ctx context.Context, rv *models.Review) error {
	if rv.ID.IsZero() {
		rv.ID = primitive.NewObjectID()
	}
	rv.CreatedAt = time.Now().UTC()
	_, err := r.coll.InsertOne(ctx, rv)
	return translate(err)
}

func (r *MongoReviewRepository) Exists(ctx context.Context, userID string, productID, orderID primitive.ObjectID) (bool, error) {
	err := r.coll.FindOne(ctx, bson.M{
		"user_id":    userID,
		"product_id": productID,
		"order_id":   orderID,
	}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	switch translate(err) {
	case nil:
		return true, nil
	case ErrNotFound:
		return false, nil
	default:
		return false, err
	}
}

// RatingStats aggregates active reviews of productID. Average is the raw
// mean; rounding is left to the caller.
func (r *MongoReviewRepository) RatingStats(ctx context.Context, productID primitive.ObjectID) (models.RatingStats, error) {
	stats := models.RatingStats{Distribution: map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"product_id": productID, "is_active": true}}},
		{{Key: "$group", Value: bson.M{"_id": "$rating", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return stats, err
	}
	defer cur.Close(ctx)

	var sum int64
	for cur.Next(ctx) {
		var row struct {
			Rating int   `bson:"_id"`
			Count  int64 `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return stats, err
		}
		stats.Distribution[row.Rating] = row.Count
		stats.Total += row.Count
		sum += int64(row.Rating) * row.Count
	}
	if err := cur.Err(); err != nil {
		return stats, err
	}
	if stats.Total > 0 {
		stats.Average = float64(sum) / float64(stats.Total)
	}
	return stats, nil
}

func (r *MongoReviewRepository) ListByProduct(ctx context.Context, productID primitive.ObjectID, page, limit int) ([]models.Review, int64, error) {
	page, limit = normalizePage(page, limit)
	filter := bson.M{"product_id": productID, "is_active": true}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cur, err := r.coll.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page-1)*limit)).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	reviews := []models.Review{}
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

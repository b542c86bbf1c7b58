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

// AddressRepository scopes every lookup to the owning user.
type AddressRepository interface {
	Create(ctx context.Context, a *models.Address) error
	FindForUser(ctx context.Context, id primitive.ObjectID, userID string) (*models.Address, error)
	ListByUser(ctx context.Context, userID string) ([]models.Address, error)
	Update(ctx context.Context, a *models.Address) error
	Delete(ctx context.Context, id primitive.ObjectID, userID string) error
}

type MongoAddressRepository struct {
	coll *mongo.Collection
}

func NewMongoAddressRepository(db *mongo.Database) *MongoAddressRepository {
	return &MongoAddressRepository{coll: db.Collection(database.AddressesCollection)}
}

func (r *MongoAddressRepository) Create(ctx context.Context, a *models.Address) error {
	now := time.Now().UTC()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	a.CreatedAt, a.UpdatedAt = now, now
	_, err := r.coll.InsertOne(ctx, a)
	return translate(err)
}

func (r *MongoAddressRepository) FindForUser(ctx context.Context, id primitive.ObjectID, userID string) (*models.Address, error) {
	var a models.Address
	if err := r.coll.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&a); err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *MongoAddressRepository) ListByUser(ctx context.Context, userID string) ([]models.Address, error) {
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Address{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoAddressRepository) Update(ctx context.Context, a *models.Address) error {
	a.UpdatedAt = time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": a.ID, "user_id": a.UserID}, bson.M{"$set": bson.M{
		"full_name":    a.FullName,
		"phone_number": a.PhoneNumber,
		"pincode":      a.Pincode,
		"area":         a.Area,
		"city":         a.City,
		"state":        a.State,
		"updated_at":   a.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoAddressRepository) Delete(ctx context.Context, id primitive.ObjectID, userID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

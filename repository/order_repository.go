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

type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	// FindOwnedContaining returns the order only if it belongs to userID and
	// has a line item for productID.
	FindOwnedContaining(ctx context.Context, orderID primitive.ObjectID, userID string, productID primitive.ObjectID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error)
	UpdatePaymentByGatewayOrder(ctx context.Context, gatewayOrderID string, status models.PaymentStatus, gatewayPaymentID string) (int64, error)
	List(ctx context.Context, f models.OrderFilter) ([]models.Order, int64, error)
}

type MongoOrderRepository struct {
	coll *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{coll: db.Collection(database.OrdersCollection)}
}

func (r *MongoOrderRepository) Create(ctx context.Context, o *models.Order) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	o.UpdatedAt = time.Now().UTC()
	_, err := r.coll.InsertOne(ctx, o)
	return translate(err)
}

func (r *MongoOrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *MongoOrderRepository) FindOwnedContaining(ctx context.Context, orderID primitive.ObjectID, userID string, productID primitive.ObjectID) (*models.Order, error) {
	filter := bson.M{
		"_id":              orderID,
		"user_id":          userID,
		"items.product_id": productID,
	}
	var o models.Order
	if err := r.coll.FindOne(ctx, filter).Decode(&o); err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *MongoOrderRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}}
	var o models.Order
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&o)
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// UpdatePaymentByGatewayOrder moves payment status for orders paid through
// gatewayOrderID. Paid orders are never downgraded to Failed.
func (r *MongoOrderRepository) UpdatePaymentByGatewayOrder(ctx context.Context, gatewayOrderID string, status models.PaymentStatus, gatewayPaymentID string) (int64, error) {
	filter := bson.M{"gateway_order_id": gatewayOrderID}
	if status == models.PaymentStatusFailed {
		filter["payment_status"] = bson.M{"$ne": models.PaymentStatusPaid}
	}
	set := bson.M{"payment_status": status, "updated_at": time.Now().UTC()}
	if gatewayPaymentID != "" {
		set["gateway_payment_id"] = gatewayPaymentID
	}

	res, err := r.coll.UpdateMany(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// List returns orders newest first. With All set the page/limit are ignored.
func (r *MongoOrderRepository) List(ctx context.Context, f models.OrderFilter) ([]models.Order, int64, error) {
	filter := bson.M{}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	if !f.All {
		page, limit := normalizePage(f.Page, f.Limit)
		opts.SetSkip(int64((page - 1) * limit)).SetLimit(int64(limit))
	}

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	apperrors "github.com/MightyWarner19/grainlly/common/errors"
	"github.com/MightyWarner19/grainlly/models"
	awspkg "github.com/MightyWarner19/grainlly/pkg/aws"
	"github.com/MightyWarner19/grainlly/repository"
)

const (
	maxReviewText   = 2000
	maxLikedAspects = 10
	maxAspectLength = 50
	defaultUserName = "Customer"
)

type ReviewService interface {
	Submit(ctx context.Context, userID string, req models.SubmitReviewRequest) (*models.Review, error)
	List(ctx context.Context, productID string, page, limit int) (*models.ReviewPage, error)
}

type reviewServiceImpl struct {
	reviews  repository.ReviewRepository
	orders   repository.OrderRepository
	products repository.ProductRepository
	metrics  awspkg.MetricsRecorder
	logger   *zap.Logger
}

func NewReviewService(reviews repository.ReviewRepository, orders repository.OrderRepository, products repository.ProductRepository, metrics awspkg.MetricsRecorder, logger *zap.Logger) ReviewService {
	return &reviewServiceImpl{reviews: reviews, orders: orders, products: products, metrics: metrics, logger: logger}
}

func normalizeAspects(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a == "" || len(a) > maxAspectLength {
			continue
		}
		key := strings.ToLower(a)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
		if len(out) == maxLikedAspects {
			break
		}
	}
	return out
}

// Submit stores a verified-purchase review. The reviewer must own an order
// containing the product, and each (user, product, order) gets one review.
func (s *reviewServiceImpl) Submit(ctx context.Context, userID string, req models.SubmitReviewRequest) (*models.Review, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	productID, ok := parseObjectID(req.ProductID)
	if !ok {
		return nil, apperrors.Validation("Invalid product id")
	}
	orderID, ok := parseObjectID(req.OrderID)
	if !ok {
		return nil, apperrors.Validation("Invalid order id")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperrors.Validation("Rating must be between 1 and 5")
	}
	text := strings.TrimSpace(req.ReviewText)
	if len(text) > maxReviewText {
		return nil, apperrors.Validation("Review text is too long")
	}

	if _, err := s.orders.FindOwnedContaining(ctx, orderID, userID, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrNotEligible
		}
		return nil, apperrors.Storage(err)
	}

	exists, err := s.reviews.Exists(ctx, userID, productID, orderID)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	if exists {
		return nil, apperrors.ErrDuplicateReview
	}

	name := strings.TrimSpace(req.UserName)
	if name == "" {
		name = defaultUserName
	}
	review := &models.Review{
		UserID:             userID,
		ProductID:          productID,
		OrderID:            orderID,
		UserName:           name,
		UserEmail:          req.UserEmail,
		Rating:             req.Rating,
		ReviewText:         text,
		LikedAspects:       normalizeAspects(req.LikedAspects),
		IsVerifiedPurchase: true,
		IsActive:           true,
	}
	// The unique index settles concurrent submissions that both passed Exists.
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.ErrDuplicateReview
		}
		return nil, apperrors.Storage(err)
	}

	s.refreshRating(ctx, review.ProductID)
	if s.metrics != nil && s.metrics.IsEnabled() {
		_ = s.metrics.RecordCount(ctx, awspkg.MetricReviewsSubmitted, map[string]string{"Rating": strconv.Itoa(req.Rating)})
	}
	s.logger.Info("Review submitted",
		zap.String("user_id", userID),
		zap.String("product_id", productID.Hex()),
		zap.String("order_id", orderID.Hex()),
		zap.Int("rating", req.Rating),
	)
	return review, nil
}

// refreshRating recomputes the denormalized product rating. The review is
// already stored, so failures are logged rather than returned.
func (s *reviewServiceImpl) refreshRating(ctx context.Context, productID primitive.ObjectID) {
	stats, err := s.reviews.RatingStats(ctx, productID)
	if err != nil {
		s.logger.Error("Failed to aggregate product rating", zap.String("product_id", productID.Hex()), zap.Error(err))
		return
	}
	rating := RoundRating(stats.Average)
	if err := s.products.UpdateRating(ctx, productID, rating, stats.Total); err != nil {
		s.logger.Error("Failed to store product rating", zap.String("product_id", productID.Hex()), zap.Error(err))
	}
}

// RoundRating rounds a mean rating to one decimal place, half away from zero.
func RoundRating(avg float64) float64 {
	return decimal.NewFromFloat(avg).Round(1).InexactFloat64()
}

func (s *reviewServiceImpl) List(ctx context.Context, productID string, page, limit int) (*models.ReviewPage, error) {
	pid, ok := parseObjectID(productID)
	if !ok {
		return nil, apperrors.Validation("Invalid product id")
	}
	page, limit = pageBounds(page, limit)

	reviews, total, err := s.reviews.ListByProduct(ctx, pid, page, limit)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	stats, err := s.reviews.RatingStats(ctx, pid)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	stats.Average = RoundRating(stats.Average)

	return &models.ReviewPage{
		Reviews:    reviews,
		Stats:      stats,
		Pagination: models.NewPaginationMeta(page, limit, total),
	}, nil
}

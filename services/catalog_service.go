package services

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	apperrors "github.com/MightyWarner19/grainlly/common/errors"
	"github.com/MightyWarner19/grainlly/models"
	"github.com/MightyWarner19/grainlly/repository"
)

// CatalogService is the seller-facing side of the catalog.
type CatalogService interface {
	Create(ctx context.Context, sellerID string, req models.CreateProductRequest) (*models.Product, error)
	Update(ctx context.Context, productID string, req models.UpdateProductRequest) (*models.Product, error)
	Get(ctx context.Context, productID string) (*models.Product, error)
	List(ctx context.Context, f models.ProductFilter) ([]models.Product, models.PaginationMeta, error)
}

type catalogServiceImpl struct {
	repo   repository.ProductRepository
	logger *zap.Logger
}

func NewCatalogService(repo repository.ProductRepository, logger *zap.Logger) CatalogService {
	return &catalogServiceImpl{repo: repo, logger: logger}
}

func (s *catalogServiceImpl) Create(ctx context.Context, sellerID string, req models.CreateProductRequest) (*models.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	p := &models.Product{
		SellerID:    sellerID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		OfferPrice:  req.OfferPrice,
		Stock:       req.Stock,
		IsActive:    active,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error("Failed to create product", zap.Error(err))
		return nil, apperrors.Storage(err)
	}
	s.logger.Info("Product created", zap.String("product_id", p.ID.Hex()), zap.String("seller_id", sellerID))
	return p, nil
}

// Update applies a partial change. An offer price of 0 removes the offer;
// otherwise 0 < offerPrice <= price must hold after the change.
func (s *catalogServiceImpl) Update(ctx context.Context, productID string, req models.UpdateProductRequest) (*models.Product, error) {
	oid, ok := parseObjectID(productID)
	if !ok {
		return nil, apperrors.InvalidReference(productID)
	}
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	current, err := s.repo.FindByID(ctx, oid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Product not found")
	}
	if err != nil {
		return nil, apperrors.Storage(err)
	}

	fields := bson.M{}
	var unset []string
	price := current.Price
	offer := current.OfferPrice

	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Category != nil {
		fields["category"] = *req.Category
	}
	if req.Price != nil {
		price = *req.Price
		fields["price"] = price
	}
	if req.OfferPrice != nil {
		if *req.OfferPrice == 0 {
			offer = nil
			unset = append(unset, "offer_price")
		} else {
			offer = req.OfferPrice
			fields["offer_price"] = *req.OfferPrice
		}
	}
	if req.Stock != nil {
		fields["stock"] = *req.Stock
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}

	if offer != nil && *offer > price {
		return nil, apperrors.Validation("Offer price cannot exceed price")
	}

	updated, err := s.repo.UpdateFields(ctx, oid, fields, unset)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Product not found")
	}
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return updated, nil
}

func (s *catalogServiceImpl) Get(ctx context.Context, productID string) (*models.Product, error) {
	oid, ok := parseObjectID(productID)
	if !ok {
		return nil, apperrors.InvalidReference(productID)
	}
	p, err := s.repo.FindByID(ctx, oid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Product not found")
	}
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return p, nil
}

func (s *catalogServiceImpl) List(ctx context.Context, f models.ProductFilter) ([]models.Product, models.PaginationMeta, error) {
	f.Page, f.Limit = pageBounds(f.Page, f.Limit)
	products, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, models.PaginationMeta{}, apperrors.Storage(err)
	}
	return products, models.NewPaginationMeta(f.Page, f.Limit, total), nil
}

package services

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	apperrors "github.com/MightyWarner19/grainlly/common/errors"
	"github.com/MightyWarner19/grainlly/models"
	"github.com/MightyWarner19/grainlly/repository"
)

// CartService owns the per-user cart. Product existence is only checked
// when the cart is priced.
type CartService interface {
	AddItem(ctx context.Context, userID, productID string, delta int) (*models.Cart, error)
	SetQuantity(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error)
	Price(ctx context.Context, userID string) (*models.CartSummary, error)
	Reconcile(ctx context.Context, userID string) (*models.Cart, bool, error)
	Clear(ctx context.Context, userID string) error
}

type cartServiceImpl struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	logger   *zap.Logger
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository, logger *zap.Logger) CartService {
	return &cartServiceImpl{carts: carts, products: products, logger: logger}
}

// sanitize drops malformed keys and non-positive quantities in place and
// reports whether anything was removed.
func sanitize(cart *models.Cart) bool {
	changed := false
	for id, qty := range cart.Items {
		if !ValidProductID(id) || qty <= 0 {
			delete(cart.Items, id)
			changed = true
		}
	}
	return changed
}

func (s *cartServiceImpl) storageErr(ctx context.Context, op, userID string, err error) error {
	s.logger.Error("Cart storage failure", zap.String("op", op), zap.String("user_id", userID), zap.Error(err))
	return apperrors.Storage(err)
}

// load fetches the cart, creating an empty one in memory when none exists,
// and reconciles it.
func (s *cartServiceImpl) load(ctx context.Context, userID string) (*models.Cart, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, s.storageErr(ctx, "get", userID, err)
	}
	if cart == nil {
		return models.NewCart(userID), nil
	}
	if sanitize(cart) {
		if err := s.carts.SaveCart(ctx, cart); err != nil {
			return nil, s.storageErr(ctx, "reconcile", userID, err)
		}
		s.logger.Info("Cart reconciled on load", zap.String("user_id", userID))
	}
	return cart, nil
}

func (s *cartServiceImpl) AddItem(ctx context.Context, userID, productID string, delta int) (*models.Cart, error) {
	if !ValidProductID(productID) {
		return nil, apperrors.InvalidReference(productID)
	}
	if delta == 0 {
		return nil, apperrors.Validation("delta must not be zero")
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	qty := cart.Items[productID] + delta
	if qty <= 0 {
		delete(cart.Items, productID)
	} else {
		cart.Items[productID] = qty
	}

	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, s.storageErr(ctx, "save", userID, err)
	}
	return cart, nil
}

func (s *cartServiceImpl) SetQuantity(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error) {
	if !ValidProductID(productID) {
		return nil, apperrors.InvalidReference(productID)
	}
	if quantity < 0 {
		return nil, apperrors.Validation("quantity must not be negative")
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if quantity == 0 {
		delete(cart.Items, productID)
	} else {
		cart.Items[productID] = quantity
	}

	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, s.storageErr(ctx, "save", userID, err)
	}
	return cart, nil
}

// Price joins the cart with the catalog. Keys that do not resolve to an
// active product are skipped, not errors.
func (s *cartServiceImpl) Price(ctx context.Context, userID string) (*models.CartSummary, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, cart)
}

func (s *cartServiceImpl) price(ctx context.Context, cart *models.Cart) (*models.CartSummary, error) {
	keys := make([]string, 0, len(cart.Items))
	ids := make([]primitive.ObjectID, 0, len(cart.Items))
	for k := range cart.Items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		oid, _ := parseObjectID(k)
		ids = append(ids, oid)
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, s.storageErr(ctx, "catalog", cart.UserID, err)
	}

	summary := &models.CartSummary{Items: cart.Items, Lines: []models.CartLine{}}
	total := decimal.Zero
	for i, k := range keys {
		p, ok := products[ids[i]]
		if !ok || !p.Purchasable() {
			continue
		}
		qty := cart.Items[k]
		line := LineTotal(p, qty)
		total = total.Add(line)
		summary.ItemCount += qty
		summary.Lines = append(summary.Lines, models.CartLine{
			ProductID: k,
			Name:      p.Name,
			UnitPrice: UnitPrice(p).InexactFloat64(),
			Quantity:  qty,
			LineTotal: line.InexactFloat64(),
		})
	}
	summary.TotalAmount = FloorCents(total).InexactFloat64()
	return summary, nil
}

// Reconcile removes keys that fail the id format check and persists only
// when something changed. Running it twice is a no-op the second time.
func (s *cartServiceImpl) Reconcile(ctx context.Context, userID string) (*models.Cart, bool, error) {
	if userID == "" {
		return nil, false, apperrors.ErrUnauthorized
	}
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, false, s.storageErr(ctx, "get", userID, err)
	}
	if cart == nil {
		return models.NewCart(userID), false, nil
	}
	if !sanitize(cart) {
		return cart, false, nil
	}
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, false, s.storageErr(ctx, "reconcile", userID, err)
	}
	return cart, true, nil
}

// Clear empties the cart but keeps the record.
func (s *cartServiceImpl) Clear(ctx context.Context, userID string) error {
	if err := s.carts.SaveCart(ctx, models.NewCart(userID)); err != nil {
		return s.storageErr(ctx, "clear", userID, err)
	}
	return nil
}

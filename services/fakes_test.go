package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/MightyWarner19/grainlly/common/auth"
	"github.com/MightyWarner19/grainlly/models"
	"github.com/MightyWarner19/grainlly/repository"
)

// --- Carts ---

type fakeCartRepo struct {
	mu      sync.Mutex
	carts   map[string]*models.Cart
	saves   int
	getErr  error
	saveErr error
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: map[string]*models.Cart{}}
}

func (r *fakeCartRepo) GetCart(_ context.Context, userID string) (*models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	c, ok := r.carts[userID]
	if !ok {
		return nil, nil
	}
	return c.Clone(), nil
}

func (r *fakeCartRepo) SaveCart(_ context.Context, cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.carts[cart.UserID] = cart.Clone()
	return nil
}

func (r *fakeCartRepo) items(userID string) map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.carts[userID]; ok {
		return c.Clone().Items
	}
	return nil
}

// --- Catalog ---

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]*models.Product
	ratings  map[primitive.ObjectID]float64
	counts   map[primitive.ObjectID]int64
	findErr  error
}

func newFakeProductRepo(products ...*models.Product) *fakeProductRepo {
	r := &fakeProductRepo{
		products: map[primitive.ObjectID]*models.Product{},
		ratings:  map[primitive.ObjectID]float64{},
		counts:   map[primitive.ObjectID]int64{},
	}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeProductRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	out := map[primitive.ObjectID]*models.Product{}
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (r *fakeProductRepo) Create(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) UpdateFields(_ context.Context, id primitive.ObjectID, fields bson.M, unset []string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			p.Name = v.(string)
		case "price":
			p.Price = v.(float64)
		case "offer_price":
			f := v.(float64)
			p.OfferPrice = &f
		case "stock":
			p.Stock = v.(int)
		case "is_active":
			p.IsActive = v.(bool)
		}
	}
	for _, k := range unset {
		if k == "offer_price" {
			p.OfferPrice = nil
		}
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) UpdateRating(_ context.Context, id primitive.ObjectID, rating float64, count int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ratings[id] = rating
	r.counts[id] = count
	return nil
}

func (r *fakeProductRepo) List(_ context.Context, f models.ProductFilter) ([]models.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Product{}
	for _, p := range r.products {
		if f.ActiveOnly && !p.IsActive {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *fakeProductRepo) rating(id primitive.ObjectID) (float64, int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ratings[id], r.counts[id]
}

// --- Orders ---

type fakeOrderRepo struct {
	mu        sync.Mutex
	orders    map[primitive.ObjectID]*models.Order
	createErr error
	onCreate  func()
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[primitive.ObjectID]*models.Order{}}
}

func (r *fakeOrderRepo) Create(ctx context.Context, o *models.Order) error {
	if r.onCreate != nil {
		r.onCreate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) FindOwnedContaining(_ context.Context, orderID primitive.ObjectID, userID string, productID primitive.ObjectID) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, repository.ErrNotFound
	}
	for _, it := range o.Items {
		if it.ProductID == productID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	o.Status = status
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) UpdatePaymentByGatewayOrder(_ context.Context, gatewayOrderID string, status models.PaymentStatus, gatewayPaymentID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, o := range r.orders {
		if o.GatewayOrderID != gatewayOrderID {
			continue
		}
		if status == models.PaymentStatusFailed && o.PaymentStatus == models.PaymentStatusPaid {
			continue
		}
		o.PaymentStatus = status
		if gatewayPaymentID != "" {
			o.GatewayPaymentID = gatewayPaymentID
		}
		n++
	}
	return n, nil
}

func (r *fakeOrderRepo) List(_ context.Context, f models.OrderFilter) ([]models.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Order{}
	for _, o := range r.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

// --- Addresses ---

type fakeAddressRepo struct {
	mu        sync.Mutex
	addresses map[primitive.ObjectID]*models.Address
}

func newFakeAddressRepo(addresses ...*models.Address) *fakeAddressRepo {
	r := &fakeAddressRepo{addresses: map[primitive.ObjectID]*models.Address{}}
	for _, a := range addresses {
		r.addresses[a.ID] = a
	}
	return r
}

func (r *fakeAddressRepo) Create(_ context.Context, a *models.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	cp := *a
	r.addresses[a.ID] = &cp
	return nil
}

func (r *fakeAddressRepo) FindForUser(_ context.Context, id primitive.ObjectID, userID string) (*models.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.addresses[id]
	if !ok || a.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAddressRepo) ListByUser(_ context.Context, userID string) ([]models.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Address{}
	for _, a := range r.addresses {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAddressRepo) Update(_ context.Context, a *models.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.addresses[a.ID]
	if !ok || cur.UserID != a.UserID {
		return repository.ErrNotFound
	}
	cp := *a
	r.addresses[a.ID] = &cp
	return nil
}

func (r *fakeAddressRepo) Delete(_ context.Context, id primitive.ObjectID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.addresses[id]
	if !ok || cur.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.addresses, id)
	return nil
}

// --- Idempotency ---

type fakeIdemRepo struct {
	mu   sync.Mutex
	keys map[string]string
}

func newFakeIdemRepo() *fakeIdemRepo { return &fakeIdemRepo{keys: map[string]string{}} }

func (r *fakeIdemRepo) Get(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.keys[key], nil
}

func (r *fakeIdemRepo) Set(_ context.Context, key, orderID string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[key] = orderID
	return nil
}

// --- Payment ledger ---

type fakePaymentRepo struct {
	mu       sync.Mutex
	attempts map[string]*models.PaymentAttempt
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{attempts: map[string]*models.PaymentAttempt{}}
}

func (r *fakePaymentRepo) Create(_ context.Context, p *models.PaymentAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.attempts[p.GatewayOrderID]; ok {
		return repository.ErrDuplicate
	}
	cp := *p
	r.attempts[p.GatewayOrderID] = &cp
	return nil
}

func (r *fakePaymentRepo) FindByGatewayOrderID(_ context.Context, id string) (*models.PaymentAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.attempts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) Transition(_ context.Context, id string, from, to models.PaymentAttemptStatus, fields map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.attempts[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	if v, ok := fields["gateway_payment_id"].(string); ok {
		p.GatewayPaymentID = v
	}
	if v, ok := fields["failure_reason"].(string); ok {
		p.FailureReason = v
	}
	return true, nil
}

func (r *fakePaymentRepo) ClaimForOrder(_ context.Context, id, orderID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.attempts[id]
	if !ok || p.Status != models.PaymentAttemptVerified || p.OrderID != "" {
		return false, nil
	}
	p.OrderID = orderID
	return true, nil
}

func (r *fakePaymentRepo) ReleaseClaim(ctx context.Context, id, orderID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.attempts[id]; ok && p.OrderID == orderID {
		p.OrderID = ""
	}
	return nil
}

func (r *fakePaymentRepo) get(id string) models.PaymentAttempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.attempts[id]
}

// --- Reviews ---

type reviewKey struct {
	user    string
	product primitive.ObjectID
	order   primitive.ObjectID
}

type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews map[reviewKey]models.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: map[reviewKey]models.Review{}}
}

func (r *fakeReviewRepo) Create(_ context.Context, rv *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := reviewKey{rv.UserID, rv.ProductID, rv.OrderID}
	if _, ok := r.reviews[k]; ok {
		return repository.ErrDuplicate
	}
	rv.ID = primitive.NewObjectID()
	r.reviews[k] = *rv
	return nil
}

func (r *fakeReviewRepo) Exists(_ context.Context, userID string, productID, orderID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.reviews[reviewKey{userID, productID, orderID}]
	return ok, nil
}

func (r *fakeReviewRepo) RatingStats(_ context.Context, productID primitive.ObjectID) (models.RatingStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := models.RatingStats{Distribution: map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	var sum int64
	for _, rv := range r.reviews {
		if rv.ProductID != productID || !rv.IsActive {
			continue
		}
		stats.Distribution[rv.Rating]++
		stats.Total++
		sum += int64(rv.Rating)
	}
	if stats.Total > 0 {
		stats.Average = float64(sum) / float64(stats.Total)
	}
	return stats, nil
}

func (r *fakeReviewRepo) ListByProduct(_ context.Context, productID primitive.ObjectID, _, _ int) ([]models.Review, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Review{}
	for _, rv := range r.reviews {
		if rv.ProductID == productID {
			out = append(out, rv)
		}
	}
	return out, int64(len(out)), nil
}

// --- Collaborators ---

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, event string, _ interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) seen() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type MockGateway struct{ mock.Mock }

func (m *MockGateway) Name() string { return "mock" }

func (m *MockGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error) {
	args := m.Called(ctx, amountMinor, currency, receipt)
	return args.String(0), args.Error(1)
}

// --- Fixtures ---

const testSecret = "hmac-test-secret"

func floatPtr(f float64) *float64 { return &f }

func product(price float64, offer *float64, active bool) *models.Product {
	return &models.Product{ID: primitive.NewObjectID(), Name: "Millet flour", Price: price, OfferPrice: offer, IsActive: active}
}

func address(userID string) *models.Address {
	return &models.Address{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		FullName:    "Asha Rao",
		PhoneNumber: "9876543210",
		Pincode:     "560001",
		Area:        "12 MG Road",
		City:        "Bengaluru",
		State:       "Karnataka",
	}
}

func newTokens() *auth.TokenManager { return auth.NewTokenManager("jwt-test-secret") }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// --- Categories ---

type fakeCategoryRepo struct {
	mu         sync.Mutex
	categories map[primitive.ObjectID]*models.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: map[primitive.ObjectID]*models.Category{}}
}

func (r *fakeCategoryRepo) nameTaken(name string, except primitive.ObjectID) bool {
	for id, c := range r.categories {
		if id != except && c.Name == name {
			return true
		}
	}
	return false
}

func (r *fakeCategoryRepo) Create(_ context.Context, c *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nameTaken(c.Name, primitive.NilObjectID) {
		return repository.ErrDuplicate
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *fakeCategoryRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCategoryRepo) List(_ context.Context) ([]models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Category{}
	for _, c := range r.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeCategoryRepo) Rename(_ context.Context, id primitive.ObjectID, name string) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if r.nameTaken(name, id) {
		return nil, repository.ErrDuplicate
	}
	c.Name = name
	cp := *c
	return &cp, nil
}

func (r *fakeCategoryRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.categories, id)
	return nil
}

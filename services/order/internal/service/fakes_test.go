package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	apperrors "github.com/kitchencart/ecommerce/pkg/errors"
	"github.com/kitchencart/ecommerce/pkg/logger"
	"github.com/kitchencart/ecommerce/services/order/internal/domain"
	"github.com/kitchencart/ecommerce/services/order/internal/gateway/mock"
	"github.com/kitchencart/ecommerce/services/order/internal/invoice"
	"github.com/kitchencart/ecommerce/services/order/internal/notify"
	"github.com/kitchencart/ecommerce/services/order/internal/repository"
	"github.com/kitchencart/ecommerce/services/order/internal/stock"
)

// fakeOrders honours the conditional updates of the Postgres repository.
type fakeOrders struct {
	mu     sync.Mutex
	orders map[string]domain.Order

	// beforeTransition runs under the lock before a conditional update is
	// evaluated, letting tests simulate a concurrent writer.
	beforeTransition func(o *domain.Order)
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: make(map[string]domain.Order)}
}

func cloneOrder(o domain.Order) *domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return &o
}

func (f *fakeOrders) Create(_ context.Context, o *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[o.ID]; ok {
		return apperrors.AlreadyExists("order", "id", o.ID)
	}
	f.orders[o.ID] = *cloneOrder(*o)
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order", id)
	}
	return cloneOrder(o), nil
}

func (f *fakeOrders) GetByIDForUser(ctx context.Context, id, userID string) (*domain.Order, error) {
	o, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperrors.NotFound("order", id)
	}
	return o, nil
}

func (f *fakeOrders) List(_ context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.orders {
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		out = append(out, *cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	total := len(out)
	start := (filter.Page - 1) * filter.PerPage
	if start >= total {
		return []domain.Order{}, total, nil
	}
	end := min(start+filter.PerPage, total)
	return out[start:end], total, nil
}

func (f *fakeOrders) TransitionStatus(_ context.Context, id string, from, to domain.OrderStatus, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return false, nil
	}
	if f.beforeTransition != nil {
		f.beforeTransition(&o)
	}
	if o.Status != from {
		f.orders[id] = o
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = at
	f.orders[id] = o
	return true, nil
}

func (f *fakeOrders) TransitionPayment(_ context.Context, id string, t repository.PaymentTransition, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return false, nil
	}
	if f.beforeTransition != nil {
		f.beforeTransition(&o)
	}
	if o.Status != t.FromStatus || o.Payment.Status != t.FromPayment {
		f.orders[id] = o
		return false, nil
	}
	o.Status = t.ToStatus
	o.Payment = t.Payment
	o.UpdatedAt = at
	f.orders[id] = o
	return true, nil
}

func (f *fakeOrders) snapshot() map[string]domain.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]domain.Order, len(f.orders))
	for id, o := range f.orders {
		out[id] = *cloneOrder(o)
	}
	return out
}

func (f *fakeOrders) restore(orders map[string]domain.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = orders
}

func (f *fakeOrders) get(id string) domain.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *cloneOrder(f.orders[id])
}

func (f *fakeOrders) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

type fakeProducts struct {
	mu       sync.Mutex
	products map[string]domain.Product

	// stockErr fails one stock update once stockSkip updates have passed.
	stockErr  error
	stockSkip int
}

func newFakeProducts(products ...domain.Product) *fakeProducts {
	f := &fakeProducts{products: make(map[string]domain.Product)}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	return &p, nil
}

func (f *fakeProducts) GetByIDs(_ context.Context, ids []string) (map[string]*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]*domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = &p
		}
	}
	return out, nil
}

func (f *fakeProducts) List(_ context.Context, q repository.ProductQuery) ([]domain.Product, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeProducts) Create(_ context.Context, p *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID] = *p
	return nil
}

func (f *fakeProducts) Update(_ context.Context, p *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[p.ID]; !ok {
		return apperrors.NotFound("product", p.ID)
	}
	f.products[p.ID] = *p
	return nil
}

func (f *fakeProducts) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return apperrors.NotFound("product", id)
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProducts) relabel(from, to string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, p := range f.products {
		if p.Category == from {
			p.Category = to
			f.products[id] = p
		}
	}
}

func (f *fakeProducts) countCategory(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.products {
		if p.Category == name {
			n++
		}
	}
	return n
}

// failStock lets skip stock updates succeed and fails the next one with err.
func (f *fakeProducts) failStock(skip int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stockSkip = skip
	f.stockErr = err
}

func (f *fakeProducts) takeFailure() error {
	if f.stockErr == nil {
		return nil
	}
	if f.stockSkip > 0 {
		f.stockSkip--
		return nil
	}
	err := f.stockErr
	f.stockErr = nil
	return err
}

func (f *fakeProducts) DecrementStock(_ context.Context, id string, qty int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return false, err
	}
	p, ok := f.products[id]
	if !ok {
		return false, nil
	}
	p.Stock = max(p.Stock-qty, 0)
	f.products[id] = p
	return true, nil
}

func (f *fakeProducts) IncrementStock(_ context.Context, id string, qty int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return false, err
	}
	p, ok := f.products[id]
	if !ok {
		return false, nil
	}
	p.Stock += qty
	f.products[id] = p
	return true, nil
}

func (f *fakeProducts) snapshot() map[string]domain.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]domain.Product, len(f.products))
	for id, p := range f.products {
		out[id] = p
	}
	return out
}

func (f *fakeProducts) restore(products map[string]domain.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products = products
}

func (f *fakeProducts) stock(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id].Stock
}

// fakeTx serializes transactions over the shared fakes and restores their
// contents when fn fails.
type fakeTx struct {
	mu       sync.Mutex
	orders   *fakeOrders
	products *fakeProducts
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepos) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	orders, products := f.orders.snapshot(), f.products.snapshot()
	if err := fn(ctx, repository.TxRepos{Orders: f.orders, Products: f.products}); err != nil {
		f.orders.restore(orders)
		f.products.restore(products)
		return err
	}
	return nil
}

type fakeUsers map[string]domain.User

func (f fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, apperrors.NotFound("user", id)
	}
	return &u, nil
}

func (f fakeUsers) List(_ context.Context, page, perPage int) ([]domain.User, int, error) {
	users := make([]domain.User, 0, len(f))
	for _, u := range f {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})
	start := (page - 1) * perPage
	if start >= len(users) {
		return []domain.User{}, len(users), nil
	}
	end := min(start+perPage, len(users))
	return users[start:end], len(users), nil
}

func (f fakeUsers) Delete(_ context.Context, id string) error {
	if _, ok := f[id]; !ok {
		return apperrors.NotFound("user", id)
	}
	delete(f, id)
	return nil
}

// fakeCategories relabels products on rename like the Postgres repository.
type fakeCategories struct {
	mu         sync.Mutex
	categories map[string]domain.Category
	products   *fakeProducts
}

func newFakeCategories(products *fakeProducts, categories ...domain.Category) *fakeCategories {
	f := &fakeCategories{categories: make(map[string]domain.Category), products: products}
	for _, c := range categories {
		f.categories[c.ID] = c
	}
	return f
}

func (f *fakeCategories) List(_ context.Context) ([]domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCategories) GetByID(_ context.Context, id string) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok {
		return nil, apperrors.NotFound("category", id)
	}
	return &c, nil
}

func (f *fakeCategories) nameTaken(name, exceptID string) bool {
	for id, c := range f.categories {
		if id != exceptID && c.Name == name {
			return true
		}
	}
	return false
}

func (f *fakeCategories) Create(_ context.Context, c *domain.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nameTaken(c.Name, "") {
		return apperrors.AlreadyExists("category", "name", c.Name)
	}
	f.categories[c.ID] = *c
	return nil
}

func (f *fakeCategories) Update(_ context.Context, c *domain.Category, oldName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.categories[c.ID]; !ok {
		return apperrors.NotFound("category", c.ID)
	}
	if f.nameTaken(c.Name, c.ID) {
		return apperrors.AlreadyExists("category", "name", c.Name)
	}
	f.categories[c.ID] = *c
	if oldName != c.Name {
		f.products.relabel(oldName, c.Name)
	}
	return nil
}

func (f *fakeCategories) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.categories[id]; !ok {
		return apperrors.NotFound("category", id)
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeCategories) InUse(_ context.Context, name string) (bool, error) {
	return f.products.countCategory(name) > 0, nil
}

type fakeWishlists struct {
	mu    sync.Mutex
	lists map[string][]domain.WishlistEntry
	err   error
}

func newFakeWishlists() *fakeWishlists {
	return &fakeWishlists{lists: make(map[string][]domain.WishlistEntry)}
}

func (f *fakeWishlists) List(_ context.Context, userID string) ([]domain.WishlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.WishlistEntry{}, f.lists[userID]...), nil
}

func (f *fakeWishlists) Add(_ context.Context, userID, productID string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	for _, e := range f.lists[userID] {
		if e.ProductID == productID {
			return false, nil
		}
	}
	f.lists[userID] = append(f.lists[userID], domain.WishlistEntry{ProductID: productID, AddedAt: at})
	return true, nil
}

func (f *fakeWishlists) Remove(_ context.Context, userID, productID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	entries := f.lists[userID]
	for i, e := range entries {
		if e.ProductID == productID {
			f.lists[userID] = append(entries[:i:i], entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeWishlists) Delete(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.lists, userID)
	return nil
}

func (f *fakeWishlists) has(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.lists[userID]
	return ok
}

type fakeCarts struct {
	mu    sync.Mutex
	carts map[string]domain.Cart
}

func newFakeCarts() *fakeCarts {
	return &fakeCarts{carts: make(map[string]domain.Cart)}
}

func (f *fakeCarts) Get(_ context.Context, userID string) (*domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[userID]
	if !ok {
		return nil, apperrors.NotFound("cart", userID)
	}
	c.Items = append([]domain.CartItem(nil), c.Items...)
	return &c, nil
}

func (f *fakeCarts) Save(_ context.Context, c *domain.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	saved := *c
	saved.Items = append([]domain.CartItem(nil), c.Items...)
	f.carts[c.UserID] = saved
	return nil
}

func (f *fakeCarts) Delete(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, userID)
	return nil
}

func (f *fakeCarts) has(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.carts[userID]
	return ok
}

type fakeInvoices struct {
	mu          sync.Mutex
	ensured     int
	regenerated int
}

func (f *fakeInvoices) Ensure(_ context.Context, o *domain.Order) (*invoice.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensured++
	return &invoice.File{Name: invoice.FileName(o.ID), Path: "/invoices/" + invoice.FileName(o.ID)}, nil
}

func (f *fakeInvoices) Regenerate(_ context.Context, o *domain.Order) (*invoice.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regenerated++
	return &invoice.File{Name: invoice.FileName(o.ID), Path: "/invoices/" + invoice.FileName(o.ID)}, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (f *fakeNotifier) Dispatch(_ context.Context, msg notify.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
}

type canceledEvent struct {
	orderID       string
	canceledBy    string
	stockRestored bool
}

type fakeEvents struct {
	mu            sync.Mutex
	created       []string
	paid          []string
	statusChanged []domain.OrderStatus
	canceled      []canceledEvent
	err           error
}

func (f *fakeEvents) PublishOrderCreated(_ context.Context, o *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, o.ID)
	return f.err
}

func (f *fakeEvents) PublishOrderPaid(_ context.Context, o *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paid = append(f.paid, o.ID)
	return f.err
}

func (f *fakeEvents) PublishOrderStatusChanged(_ context.Context, o *domain.Order, _ domain.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusChanged = append(f.statusChanged, o.Status)
	return f.err
}

func (f *fakeEvents) PublishOrderCanceled(_ context.Context, orderID, canceledBy string, stockRestored bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canceled = append(f.canceled, canceledEvent{orderID: orderID, canceledBy: canceledBy, stockRestored: stockRestored})
	return f.err
}

const (
	customerID = "user-1"
	adminID    = "admin-1"
	productA   = "prod-a"
	productB   = "prod-b"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

var (
	customer = domain.Actor{UserID: customerID, Email: "buyer@example.com", Role: domain.RoleCustomer}
	admin    = domain.Actor{UserID: adminID, Email: "admin@example.com", Role: domain.RoleAdmin}
)

func fullAddress() domain.Address {
	return domain.Address{
		Name:    "Asha Rao",
		Street:  "12 MG Road",
		City:    "Bengaluru",
		State:   "KA",
		ZipCode: "560001",
		Country: "India",
	}
}

type testEnv struct {
	svc      *OrderService
	orders   *fakeOrders
	products *fakeProducts
	users    fakeUsers
	carts    *fakeCarts
	gateway  *mock.Gateway
	invoices *fakeInvoices
	notifier *fakeNotifier
	events   *fakeEvents
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		orders: newFakeOrders(),
		products: newFakeProducts(
			domain.Product{ID: productA, Name: "Cast Iron Pan", MRP: 150, SellingPrice: 100, Stock: 10},
			domain.Product{ID: productB, Name: "Chef Knife", MRP: 500, SellingPrice: 450, Stock: 5},
		),
		users: fakeUsers{
			customerID: {ID: customerID, Name: "Asha Rao", Email: "buyer@example.com", Role: domain.RoleCustomer, Address: fullAddress()},
			adminID:    {ID: adminID, Name: "Admin", Email: "admin@example.com", Role: domain.RoleAdmin},
		},
		carts:    newFakeCarts(),
		gateway:  mock.New("rzp_test_key", "rzp_test_secret"),
		invoices: &fakeInvoices{},
		notifier: &fakeNotifier{},
		events:   &fakeEvents{},
	}
	log := logger.Discard()
	env.svc = NewOrderService(OrderDeps{
		Orders:   env.orders,
		Products: env.products,
		Users:    env.users,
		Carts:    env.carts,
		Tx:       &fakeTx{orders: env.orders, products: env.products},
		Ledger:   stock.NewLedger(log),
		Gateway:  env.gateway,
		Invoices: env.invoices,
		Notifier: env.notifier,
		Events:   env.events,
		Logger:   log,
		Now:      func() time.Time { return fixedNow },
	})
	return env
}

func (e *testEnv) fillCart(t *testing.T, userID string, items ...domain.CartItem) {
	t.Helper()
	cart := domain.NewCart(userID, fixedNow)
	for _, it := range items {
		cart.Add(it.ProductID, it.Quantity)
	}
	if err := e.carts.Save(context.Background(), cart); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
}

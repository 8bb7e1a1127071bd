package application

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wyfcoding/sanset/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/sanset/internal/catalog/domain"
)

// fakeCartRepo 以互斥锁串行化 Mutate，与 MySQL 实现的行锁语义一致
type fakeCartRepo struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: make(map[string]*domain.Cart)}
}

func (f *fakeCartRepo) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cart, ok := f.carts[userID]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	return cart, nil
}

func (f *fakeCartRepo) Mutate(ctx context.Context, userID string, fn func(cart *domain.Cart) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cart, ok := f.carts[userID]
	if !ok {
		cart = &domain.Cart{UserID: userID}
		f.carts[userID] = cart
	}
	return fn(cart)
}

func (f *fakeCartRepo) Clear(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cart, ok := f.carts[userID]; ok {
		cart.Items = nil
	}
	return nil
}

type nopEventPublisher struct{}

func (nopEventPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	return nil
}

func catalogWith(products ...*catalogdomain.Product) *fakeProductCatalog {
	c := &fakeProductCatalog{products: make(map[uint]*catalogdomain.Product)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

type fakeProductCatalog struct {
	products map[uint]*catalogdomain.Product
}

func (f *fakeProductCatalog) Save(ctx context.Context, product *catalogdomain.Product) error {
	f.products[product.ID] = product
	return nil
}

func (f *fakeProductCatalog) GetByID(ctx context.Context, id uint) (*catalogdomain.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, catalogdomain.ErrProductNotFound
	}
	return product, nil
}

func (f *fakeProductCatalog) GetBySlug(ctx context.Context, slug string) (*catalogdomain.Product, error) {
	for _, product := range f.products {
		if product.Slug == slug {
			return product, nil
		}
	}
	return nil, catalogdomain.ErrProductNotFound
}

func (f *fakeProductCatalog) List(ctx context.Context, category, search string, offset, limit int) ([]*catalogdomain.Product, int64, error) {
	return nil, 0, nil
}

func (f *fakeProductCatalog) ListInStock(ctx context.Context) ([]*catalogdomain.Product, error) {
	return nil, nil
}

func (f *fakeProductCatalog) DecrementStock(ctx context.Context, id uint, qty int) error {
	return nil
}

func milk() *catalogdomain.Product {
	return &catalogdomain.Product{
		Model:    gorm.Model{ID: 1},
		Name:     "milk",
		Slug:     "milk",
		Category: "Dairy",
		Price:    decimal.RequireFromString("3.50"),
		Stock:    10,
	}
}

func TestAddItemRejectsUnknownProduct(t *testing.T) {
	repo := newFakeCartRepo()
	svc := NewCartCommandService(repo, catalogWith(), nopEventPublisher{})

	err := svc.AddItem(context.Background(), AddItemCommand{UserID: "u1", ProductID: 99, Quantity: 1})
	assert.ErrorIs(t, err, catalogdomain.ErrProductNotFound)
	assert.Empty(t, repo.carts)
}

func TestAddItemCreatesCartAndMergesLines(t *testing.T) {
	repo := newFakeCartRepo()
	svc := NewCartCommandService(repo, catalogWith(milk()), nopEventPublisher{})

	require.NoError(t, svc.AddItem(context.Background(), AddItemCommand{UserID: "u1", ProductID: 1, Quantity: 2}))
	require.NoError(t, svc.AddItem(context.Background(), AddItemCommand{UserID: "u1", ProductID: 1, Quantity: 3}))

	cart := repo.carts["u1"]
	require.NotNil(t, cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	repo := newFakeCartRepo()
	svc := NewCartCommandService(repo, catalogWith(milk()), nopEventPublisher{})

	err := svc.AddItem(context.Background(), AddItemCommand{UserID: "u1", ProductID: 1, Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestConcurrentAddItemSameUser(t *testing.T) {
	repo := newFakeCartRepo()
	svc := NewCartCommandService(repo, catalogWith(milk()), nopEventPublisher{})

	const adders = 50
	var wg sync.WaitGroup
	for i := 0; i < adders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := svc.AddItem(context.Background(), AddItemCommand{UserID: "u1", ProductID: 1, Quantity: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	cart := repo.carts["u1"]
	require.NotNil(t, cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, adders, cart.Items[0].Quantity)
}

func TestGetCartUsesLivePricesAndSkipsMissingProducts(t *testing.T) {
	repo := newFakeCartRepo()
	catalog := catalogWith(milk())
	command := NewCartCommandService(repo, catalog, nopEventPublisher{})
	query := NewCartQueryService(repo, catalog)

	require.NoError(t, command.AddItem(context.Background(), AddItemCommand{UserID: "u1", ProductID: 1, Quantity: 2}))

	// 手工塞入一条指向已下架商品的行
	repo.carts["u1"].Items = append(repo.carts["u1"].Items, domain.CartItem{ProductID: 99, Quantity: 1})

	view, err := query.GetCart(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.True(t, view.Items[0].LineTotal.Equal(decimal.RequireFromString("7.00")))
	assert.True(t, view.Total.Equal(decimal.RequireFromString("7.00")))
}

func TestGetCartForUserWithoutCart(t *testing.T) {
	query := NewCartQueryService(newFakeCartRepo(), catalogWith())

	view, err := query.GetCart(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.Total.IsZero())
}

package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	cartdomain "github.com/wyfcoding/sanset/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/sanset/internal/catalog/domain"
	"github.com/wyfcoding/sanset/internal/order/domain"
)

// memStore 以单把互斥锁串行化事务，出错时回滚到事务前的快照，
// 行为上等价于数据库里持行锁的串行化事务
type memStore struct {
	mu       sync.Mutex
	products map[uint]*catalogdomain.Product
	carts    map[string][]cartdomain.CartItem
	orders   []*domain.Order

	createOrderErr error
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[uint]*catalogdomain.Product),
		carts:    make(map[string][]cartdomain.CartItem),
	}
}

func (s *memStore) addProduct(id uint, category string, price string, stock int) {
	s.products[id] = &catalogdomain.Product{
		Model:    gorm.Model{ID: id},
		Name:     fmt.Sprintf("product-%d", id),
		Slug:     fmt.Sprintf("product-%d", id),
		Category: category,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
	}
}

func (s *memStore) addCartLine(userID string, productID uint, qty int) {
	s.carts[userID] = append(s.carts[userID], cartdomain.CartItem{ProductID: productID, Quantity: qty})
}

func (s *memStore) stock(id uint) int { return s.products[id].Stock }

func (s *memStore) snapshot() (map[uint]*catalogdomain.Product, map[string][]cartdomain.CartItem, []*domain.Order) {
	products := make(map[uint]*catalogdomain.Product, len(s.products))
	for id, p := range s.products {
		cp := *p
		products[id] = &cp
	}
	carts := make(map[string][]cartdomain.CartItem, len(s.carts))
	for userID, lines := range s.carts {
		carts[userID] = append([]cartdomain.CartItem(nil), lines...)
	}
	orders := append([]*domain.Order(nil), s.orders...)
	return products, carts, orders
}

func (s *memStore) InTx(ctx context.Context, fn func(tx domain.CheckoutTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, carts, orders := s.snapshot()
	if err := fn(&memTx{store: s}); err != nil {
		s.products, s.carts, s.orders = products, carts, orders
		return err
	}
	return nil
}

type memTx struct{ store *memStore }

func (t *memTx) CartLines(ctx context.Context, userID string) ([]cartdomain.CartItem, error) {
	return append([]cartdomain.CartItem(nil), t.store.carts[userID]...), nil
}

func (t *memTx) LockProduct(ctx context.Context, productID uint) (*catalogdomain.Product, error) {
	product, ok := t.store.products[productID]
	if !ok {
		return nil, catalogdomain.ErrProductNotFound
	}
	cp := *product
	return &cp, nil
}

func (t *memTx) DecrementStock(ctx context.Context, productID uint, qty int) error {
	product, ok := t.store.products[productID]
	if !ok {
		return catalogdomain.ErrProductNotFound
	}
	if product.Stock < qty {
		return catalogdomain.ErrInsufficientStock
	}
	product.Stock -= qty
	return nil
}

func (t *memTx) CreateOrder(ctx context.Context, order *domain.Order) error {
	if t.store.createOrderErr != nil {
		return t.store.createOrderErr
	}
	t.store.orders = append(t.store.orders, order)
	return nil
}

func (t *memTx) ClearCart(ctx context.Context, userID string) error {
	delete(t.store.carts, userID)
	return nil
}

type seqIDGen struct{ n atomic.Int64 }

func (g *seqIDGen) NextIDString() string {
	return fmt.Sprintf("order-%d", g.n.Add(1))
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []any
}

func (p *capturingPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func newCheckoutService(store *memStore, publisher domain.EventPublisher) *CheckoutService {
	if publisher == nil {
		publisher = &capturingPublisher{}
	}
	svc := NewCheckoutService(store, &seqIDGen{}, publisher, nil, 30*time.Minute, "https://payment.gateway/pay/")
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestCheckoutEmptyCart(t *testing.T) {
	store := newMemStore()
	svc := newCheckoutService(store, nil)

	order, err := svc.Checkout(context.Background(), CheckoutCommand{UserID: "u1", PaymentMethod: "card", AddressID: 1})
	require.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Nil(t, order)
	assert.Empty(t, store.orders)
}

func TestCheckoutPartialFulfillment(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "Snacks", "10", 5)
	store.addProduct(2, "Snacks", "20", 1)
	store.addCartLine("u1", 1, 2)
	store.addCartLine("u1", 2, 3)

	publisher := &capturingPublisher{}
	svc := newCheckoutService(store, publisher)

	order, err := svc.Checkout(context.Background(), CheckoutCommand{UserID: "u1", PaymentMethod: "card", AddressID: 7})
	require.NoError(t, err)

	// 可履约行成单，缺货行被静默丢弃
	require.Len(t, order.Items, 1)
	assert.Equal(t, uint(1), order.Items[0].ProductID)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(20)), "total = %s", order.TotalAmount)

	// 履约行扣减库存，丢弃行不动
	assert.Equal(t, 3, store.stock(1))
	assert.Equal(t, 1, store.stock(2))

	// 购物车无条件清空，包括未履约的行
	assert.Empty(t, store.carts["u1"])

	require.Len(t, publisher.events, 1)
	event, ok := publisher.events[0].(domain.OrderPlacedEvent)
	require.True(t, ok)
	assert.Equal(t, []uint{2}, event.DroppedIDs)
}

func TestCheckoutAllLinesUnfulfillable(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "Snacks", "10", 1)
	store.addCartLine("u1", 1, 5)
	store.addCartLine("u1", 99, 1) // 已下架的商品

	svc := newCheckoutService(store, nil)

	order, err := svc.Checkout(context.Background(), CheckoutCommand{UserID: "u1", PaymentMethod: "card", AddressID: 1})
	require.ErrorIs(t, err, domain.ErrNoFulfillableItems)
	assert.Nil(t, order)

	// 事务回滚：库存、购物车均无变化
	assert.Equal(t, 1, store.stock(1))
	assert.Len(t, store.carts["u1"], 2)
	assert.Empty(t, store.orders)
}

func TestCheckoutRollbackOnPersistenceFailure(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "Snacks", "10", 5)
	store.addCartLine("u1", 1, 2)
	store.createOrderErr = errors.New("duplicate key")

	svc := newCheckoutService(store, nil)

	_, err := svc.Checkout(context.Background(), CheckoutCommand{UserID: "u1", PaymentMethod: "card", AddressID: 1})
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrEmptyCart)

	// 已扣减的库存随事务回滚，购物车保持原样
	assert.Equal(t, 5, store.stock(1))
	assert.Len(t, store.carts["u1"], 1)
	assert.Empty(t, store.orders)
}

func TestCheckoutCapturesPriceAtPurchase(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "Snacks", "9.99", 10)
	store.addCartLine("u1", 1, 1)

	svc := newCheckoutService(store, nil)

	order, err := svc.Checkout(context.Background(), CheckoutCommand{UserID: "u1", PaymentMethod: "card", AddressID: 1})
	require.NoError(t, err)

	// 下单后调价，不影响已成单的价格
	store.products[1].Price = decimal.RequireFromString("19.99")
	assert.True(t, order.Items[0].PriceAtPurchase.Equal(decimal.RequireFromString("9.99")))
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("9.99")))
}

func TestCheckoutOrderFields(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "Snacks", "10", 5)
	store.addCartLine("u1", 1, 1)

	svc := newCheckoutService(store, nil)

	order, err := svc.Checkout(context.Background(), CheckoutCommand{
		UserID:        "u1",
		PaymentMethod: "card",
		AddressID:     42,
		CouponCode:    "WELCOME",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPlaced, order.Status)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, "card", order.PaymentMethod)
	assert.Equal(t, uint(42), order.AddressID)
	assert.Equal(t, "WELCOME", order.CouponCode)
	assert.Equal(t, order.PlacedAt.Add(30*time.Minute), order.DeliveryETA)
	assert.Equal(t, "https://payment.gateway/pay/"+order.OrderID, svc.PaymentURL(order.OrderID))
}

func TestCheckoutConcurrentNoOversell(t *testing.T) {
	const stock = 5
	const shoppers = 20

	store := newMemStore()
	store.addProduct(1, "Snacks", "10", stock)
	for i := 0; i < shoppers; i++ {
		store.addCartLine(fmt.Sprintf("u%d", i), 1, 1)
	}

	svc := newCheckoutService(store, nil)

	var placed, rejected atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < shoppers; i++ {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			_, err := svc.Checkout(context.Background(), CheckoutCommand{UserID: userID, PaymentMethod: "card", AddressID: 1})
			switch {
			case err == nil:
				placed.Add(1)
			case errors.Is(err, domain.ErrNoFulfillableItems):
				rejected.Add(1)
			default:
				t.Errorf("unexpected checkout error: %v", err)
			}
		}(fmt.Sprintf("u%d", i))
	}
	wg.Wait()

	// 恰好 stock 个结账成功，库存清零且永不为负
	assert.Equal(t, int64(stock), placed.Load())
	assert.Equal(t, int64(shoppers-stock), rejected.Load())
	assert.Equal(t, 0, store.stock(1))
	assert.Len(t, store.orders, stock)
}

func TestCheckoutDegradesLineOnStockRace(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "Snacks", "10", 5)
	store.addProduct(2, "Snacks", "20", 5)
	store.addCartLine("u1", 1, 2)
	store.addCartLine("u1", 2, 2)

	svc := newCheckoutService(store, nil)

	// 锁定通过后、扣减前库存被并发压缩：行降级而不是整单失败
	raced := &racingStore{memStore: store, raceProductID: 2}
	svc.store = raced

	order, err := svc.Checkout(context.Background(), CheckoutCommand{UserID: "u1", PaymentMethod: "card", AddressID: 1})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, uint(1), order.Items[0].ProductID)
	assert.Equal(t, 3, store.stock(1))
}

// racingStore 在 LockProduct 与 DecrementStock 之间压缩指定商品的库存，
// 模拟守卫扣减输给并发结账的窗口
type racingStore struct {
	*memStore
	raceProductID uint
}

func (s *racingStore) InTx(ctx context.Context, fn func(tx domain.CheckoutTx) error) error {
	return s.memStore.InTx(ctx, func(tx domain.CheckoutTx) error {
		return fn(&racingTx{memTx: tx.(*memTx), raceProductID: s.raceProductID})
	})
}

type racingTx struct {
	*memTx
	raceProductID uint
}

func (t *racingTx) LockProduct(ctx context.Context, productID uint) (*catalogdomain.Product, error) {
	product, err := t.memTx.LockProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if productID == t.raceProductID {
		t.store.products[productID].Stock = 0
		product.Stock = 5 // 锁定时看到的陈旧视图
	}
	return product, nil
}

package application

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	catalogdomain "github.com/wyfcoding/sanset/internal/catalog/domain"
	"github.com/wyfcoding/sanset/internal/order/domain"
	"github.com/wyfcoding/sanset/pkg/logger"
	"github.com/wyfcoding/sanset/pkg/metrics"
)

// CheckoutCommand 结账命令
type CheckoutCommand struct {
	UserID        string
	PaymentMethod string
	AddressID     uint
	CouponCode    string
}

// IDGenerator 订单 ID 生成接口
type IDGenerator interface {
	NextIDString() string
}

// CheckoutService 结账引擎。
// 将用户的可变购物车一次性转换为不可变的、已占用库存的订单：
//   - 缺货或已下架的行直接丢弃，不逐行报错（尽力而为的部分履约策略）
//   - 库存扣减、订单落库、购物车清空在同一事务内完成
//   - 无论履约了多少行，结账成功后购物车一定被清空
type CheckoutService struct {
	store          domain.CheckoutStore
	idgen          IDGenerator
	publisher      domain.EventPublisher
	metrics        *metrics.Metrics
	deliveryWindow time.Duration
	payURLPrefix   string
	now            func() time.Time
}

// NewCheckoutService 创建结账引擎实例，m 可为 nil
func NewCheckoutService(
	store domain.CheckoutStore,
	idgen IDGenerator,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	deliveryWindow time.Duration,
	payURLPrefix string,
) *CheckoutService {
	return &CheckoutService{
		store:          store,
		idgen:          idgen,
		publisher:      publisher,
		metrics:        m,
		deliveryWindow: deliveryWindow,
		payURLPrefix:   payURLPrefix,
		now:            time.Now,
	}
}

type fulfillableLine struct {
	productID uint
	quantity  int
	price     decimal.Decimal
}

// Checkout 执行结账。
// 购物车为空返回 ErrEmptyCart；全部行不可履约返回 ErrNoFulfillableItems；
// 其余错误整体回滚，库存、订单、购物车均不留痕迹
func (s *CheckoutService) Checkout(ctx context.Context, cmd CheckoutCommand) (*domain.Order, error) {
	var order *domain.Order
	var droppedIDs []uint

	err := s.store.InTx(ctx, func(tx domain.CheckoutTx) error {
		lines, err := tx.CartLines(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}

		// 固定按 product_id 升序加锁，两个结账共享多个商品时不会互相死锁
		sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

		droppedIDs = droppedIDs[:0]
		fulfillable := make([]fulfillableLine, 0, len(lines))
		for _, line := range lines {
			product, err := tx.LockProduct(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, catalogdomain.ErrProductNotFound) {
					droppedIDs = append(droppedIDs, line.ProductID)
					continue
				}
				return err
			}
			if product.Stock < line.Quantity {
				droppedIDs = append(droppedIDs, line.ProductID)
				continue
			}
			fulfillable = append(fulfillable, fulfillableLine{
				productID: line.ProductID,
				quantity:  line.Quantity,
				price:     product.Price,
			})
		}

		if len(fulfillable) == 0 {
			return domain.ErrNoFulfillableItems
		}

		// 行已持锁，守卫正常情况下必然命中；守卫未命中说明扣减输给了
		// 并发结账，该行降级为不可履约而不是让整单失败
		committed := fulfillable[:0]
		for _, line := range fulfillable {
			if err := tx.DecrementStock(ctx, line.productID, line.quantity); err != nil {
				if errors.Is(err, catalogdomain.ErrInsufficientStock) {
					droppedIDs = append(droppedIDs, line.productID)
					if s.metrics != nil {
						s.metrics.StockRaceTotal.Inc()
					}
					continue
				}
				return err
			}
			committed = append(committed, line)
		}

		if len(committed) == 0 {
			return domain.ErrNoFulfillableItems
		}

		now := s.now()
		total := decimal.Zero
		items := make([]domain.OrderItem, 0, len(committed))
		orderID := s.idgen.NextIDString()
		for _, line := range committed {
			total = total.Add(line.price.Mul(decimal.NewFromInt(int64(line.quantity))))
			items = append(items, domain.OrderItem{
				OrderID:         orderID,
				ProductID:       line.productID,
				Quantity:        line.quantity,
				PriceAtPurchase: line.price,
			})
		}

		order = &domain.Order{
			OrderID:       orderID,
			UserID:        cmd.UserID,
			TotalAmount:   total,
			Status:        domain.OrderStatusPlaced,
			PaymentStatus: domain.PaymentStatusPending,
			PaymentMethod: cmd.PaymentMethod,
			AddressID:     cmd.AddressID,
			CouponCode:    cmd.CouponCode,
			PlacedAt:      now,
			DeliveryETA:   now.Add(s.deliveryWindow),
			Items:         items,
		}

		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		// 未履约的行也一并清掉：结账总是清空购物车
		return tx.ClearCart(ctx, cmd.UserID)
	})

	if err != nil {
		s.countOutcome(err)
		return nil, err
	}

	s.countOutcome(nil)
	if s.metrics != nil {
		s.metrics.CheckoutLinesDropped.Add(float64(len(droppedIDs)))
		amount, _ := order.TotalAmount.Float64()
		s.metrics.OrderAmount.Observe(amount)
	}
	if len(droppedIDs) > 0 {
		logger.Info(ctx, "Checkout dropped unfulfillable lines",
			"user_id", cmd.UserID,
			"order_id", order.OrderID,
			"dropped_product_ids", droppedIDs,
		)
	}

	s.publishPlaced(ctx, order, droppedIDs)
	return order, nil
}

// PaymentURL 由订单 ID 确定性推导的支付链接（本系统不对接真实网关）
func (s *CheckoutService) PaymentURL(orderID string) string {
	return s.payURLPrefix + orderID
}

func (s *CheckoutService) countOutcome(err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case err == nil:
		s.metrics.CheckoutTotal.WithLabelValues("placed").Inc()
	case errors.Is(err, domain.ErrEmptyCart):
		s.metrics.CheckoutTotal.WithLabelValues("empty_cart").Inc()
	case errors.Is(err, domain.ErrNoFulfillableItems):
		s.metrics.CheckoutTotal.WithLabelValues("no_fulfillable").Inc()
	default:
		s.metrics.CheckoutTotal.WithLabelValues("error").Inc()
	}
}

func (s *CheckoutService) publishPlaced(ctx context.Context, order *domain.Order, droppedIDs []uint) {
	eventLines := make([]domain.OrderPlacedLine, 0, len(order.Items))
	for _, item := range order.Items {
		eventLines = append(eventLines, domain.OrderPlacedLine{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase,
		})
	}
	s.publisher.Publish(ctx, "order.placed", order.UserID, domain.OrderPlacedEvent{
		OrderID:     order.OrderID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Items:       eventLines,
		DroppedIDs:  droppedIDs,
		PlacedAt:    order.PlacedAt,
	})
}

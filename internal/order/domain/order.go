// Package domain 包含订单与结账的领域模型
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	cartdomain "github.com/wyfcoding/sanset/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/sanset/internal/catalog/domain"
)

var (
	// ErrEmptyCart 购物车为空，无法结账
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNoFulfillableItems 购物车中没有任何可履约行
	ErrNoFulfillableItems = errors.New("no fulfillable items in cart")
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = errors.New("order not found")
)

// OrderStatus 订单状态
type OrderStatus string

const (
	// OrderStatusPlaced 已下单，订单创建即进入该终态
	OrderStatusPlaced OrderStatus = "placed"
)

// PaymentStatus 支付状态，生命周期由外部支付服务推进
type PaymentStatus string

const (
	// PaymentStatusPending 待支付
	PaymentStatusPending PaymentStatus = "pending"
)

// Order 订单实体
// 创建后不可变，仅 payment_status 允许由外部协作方推进
type Order struct {
	gorm.Model
	// 订单 ID（雪花算法）
	OrderID string `gorm:"column:order_id;type:varchar(32);uniqueIndex;not null" json:"order_id"`
	// 用户 ID
	UserID string `gorm:"column:user_id;type:varchar(36);index;not null" json:"user_id"`
	// 订单总金额，仅统计已履约行
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:decimal(20,8);not null" json:"total_amount"`
	// 订单状态
	Status OrderStatus `gorm:"column:status;type:varchar(20);not null" json:"status"`
	// 支付状态
	PaymentStatus PaymentStatus `gorm:"column:payment_status;type:varchar(20);not null" json:"payment_status"`
	// 支付方式
	PaymentMethod string `gorm:"column:payment_method;type:varchar(50)" json:"payment_method"`
	// 收货地址 ID
	AddressID uint `gorm:"column:address_id" json:"address_id"`
	// 优惠码，仅记录，不参与定价
	CouponCode string `gorm:"column:coupon_code;type:varchar(50)" json:"coupon_code,omitempty"`
	// 下单时间
	PlacedAt time.Time `gorm:"column:placed_at;not null" json:"placed_at"`
	// 预计送达时间
	DeliveryETA time.Time `gorm:"column:delivery_eta;not null" json:"delivery_eta"`
	// 订单行
	Items []OrderItem `gorm:"foreignKey:OrderID;references:OrderID" json:"items"`
}

func (Order) TableName() string { return "orders" }

// OrderItem 订单行，price_at_purchase 在结账时捕获，此后永不重算
type OrderItem struct {
	gorm.Model
	OrderID         string          `gorm:"column:order_id;type:varchar(32);index;not null" json:"order_id"`
	ProductID       uint            `gorm:"column:product_id;index;not null" json:"product_id"`
	Quantity        int             `gorm:"column:quantity;not null" json:"quantity"`
	PriceAtPurchase decimal.Decimal `gorm:"column:price_at_purchase;type:decimal(20,8);not null" json:"price_at_purchase"`
}

func (OrderItem) TableName() string { return "order_items" }

// OrderRepository 订单仓储接口（查询侧；订单创建只发生在结账事务内）
type OrderRepository interface {
	// 按订单 ID 获取订单及其行，userID 非空时校验归属
	Get(ctx context.Context, orderID string, userID string) (*Order, error)
	// 分页列出用户订单，按下单时间倒序
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*Order, int64, error)
}

// CheckoutTx 结账事务内可用的存储操作集合。
// 全部操作在同一数据库事务中执行：库存扣减、订单落库、购物车清空
// 要么全部生效，要么全部回滚
type CheckoutTx interface {
	// 读取用户购物车的全部行（锁定购物车，阻止结账期间的并发修改）
	CartLines(ctx context.Context, userID string) ([]cartdomain.CartItem, error)
	// 锁定并返回商品行，不存在时返回 catalog 的 ErrProductNotFound
	LockProduct(ctx context.Context, productID uint) (*catalogdomain.Product, error)
	// 带守卫的库存扣减，竞争失败返回 catalog 的 ErrInsufficientStock
	DecrementStock(ctx context.Context, productID uint, qty int) error
	// 创建订单及其全部行
	CreateOrder(ctx context.Context, order *Order) error
	// 删除用户购物车的全部行
	ClearCart(ctx context.Context, userID string) error
}

// CheckoutStore 结账事务边界，fn 返回错误时整个事务回滚
type CheckoutStore interface {
	InTx(ctx context.Context, fn func(tx CheckoutTx) error) error
}

// EventPublisher 领域事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}

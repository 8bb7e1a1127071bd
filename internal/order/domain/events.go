package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderPlacedEvent 下单成功事件，事务提交后发布
type OrderPlacedEvent struct {
	OrderID     string            `json:"order_id"`
	UserID      string            `json:"user_id"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Items       []OrderPlacedLine `json:"items"`
	DroppedIDs  []uint            `json:"dropped_product_ids,omitempty"`
	PlacedAt    time.Time         `json:"placed_at"`
}

// OrderPlacedLine 下单事件中的订单行
type OrderPlacedLine struct {
	ProductID       uint            `json:"product_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

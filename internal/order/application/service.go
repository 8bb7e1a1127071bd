// Package application 提供订单与结账的应用服务
package application

import (
	"context"
	"time"

	"github.com/wyfcoding/sanset/internal/order/domain"
)

// CheckoutResponse 结账的对外响应
type CheckoutResponse struct {
	OrderID     string    `json:"order_id"`
	Status      string    `json:"status"`
	TotalAmount string    `json:"total_amount"`
	PaymentURL  string    `json:"payment_url"`
	PlacedAt    time.Time `json:"placed_at"`
	DeliveryETA time.Time `json:"delivery_eta"`
}

// OrderApplicationService 订单服务门面，整合结账引擎和查询服务
type OrderApplicationService struct {
	checkout *CheckoutService
	query    *OrderQueryService
}

// NewOrderApplicationService 创建订单服务门面实例
func NewOrderApplicationService(checkout *CheckoutService, query *OrderQueryService) *OrderApplicationService {
	return &OrderApplicationService{
		checkout: checkout,
		query:    query,
	}
}

// Checkout 执行结账并构造对外响应
func (s *OrderApplicationService) Checkout(ctx context.Context, cmd CheckoutCommand) (*CheckoutResponse, error) {
	order, err := s.checkout.Checkout(ctx, cmd)
	if err != nil {
		return nil, err
	}

	return &CheckoutResponse{
		OrderID:     order.OrderID,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount.String(),
		PaymentURL:  s.checkout.PaymentURL(order.OrderID),
		PlacedAt:    order.PlacedAt,
		DeliveryETA: order.DeliveryETA,
	}, nil
}

// GetOrder 获取订单详情
func (s *OrderApplicationService) GetOrder(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	return s.query.GetOrder(ctx, orderID, userID)
}

// ListOrders 分页列出用户订单
func (s *OrderApplicationService) ListOrders(ctx context.Context, userID string, offset, limit int) (*OrderListResult, error) {
	return s.query.ListOrders(ctx, userID, offset, limit)
}

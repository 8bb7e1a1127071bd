package application

import (
	"context"

	"github.com/wyfcoding/sanset/internal/order/domain"
)

// OrderListResult 订单列表查询结果
type OrderListResult struct {
	Orders []*domain.Order `json:"orders"`
	Total  int64           `json:"total"`
}

// OrderQueryService 订单查询服务
type OrderQueryService struct {
	repo domain.OrderRepository
}

// NewOrderQueryService 创建订单查询服务实例
func NewOrderQueryService(repo domain.OrderRepository) *OrderQueryService {
	return &OrderQueryService{repo: repo}
}

// GetOrder 获取订单，userID 非空时仅返回归属该用户的订单
func (s *OrderQueryService) GetOrder(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	return s.repo.Get(ctx, orderID, userID)
}

// ListOrders 分页列出用户订单
func (s *OrderQueryService) ListOrders(ctx context.Context, userID string, offset, limit int) (*OrderListResult, error) {
	orders, total, err := s.repo.ListByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Orders: orders, Total: total}, nil
}

// Package application 提供购物车的应用服务
package application

import (
	"context"

	"github.com/wyfcoding/sanset/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/sanset/internal/catalog/domain"
)

// CartApplicationService 购物车服务门面，整合命令服务和查询服务
type CartApplicationService struct {
	commandService *CartCommandService
	queryService   *CartQueryService
}

// NewCartApplicationService 创建购物车服务门面实例
func NewCartApplicationService(
	repo domain.CartRepository,
	products catalogdomain.ProductRepository,
	publisher domain.EventPublisher,
) *CartApplicationService {
	return &CartApplicationService{
		commandService: NewCartCommandService(repo, products, publisher),
		queryService:   NewCartQueryService(repo, products),
	}
}

// GetCart 获取用户购物车视图
func (s *CartApplicationService) GetCart(ctx context.Context, userID string) (*CartView, error) {
	return s.queryService.GetCart(ctx, userID)
}

// AddItem 处理添加商品到购物车
func (s *CartApplicationService) AddItem(ctx context.Context, userID string, productID uint, qty int) error {
	return s.commandService.AddItem(ctx, AddItemCommand{
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
	})
}

// RemoveItem 处理从购物车移除商品
func (s *CartApplicationService) RemoveItem(ctx context.Context, userID string, productID uint) error {
	return s.commandService.RemoveItem(ctx, RemoveItemCommand{
		UserID:    userID,
		ProductID: productID,
	})
}

// ClearCart 处理清空购物车
func (s *CartApplicationService) ClearCart(ctx context.Context, userID string) error {
	return s.commandService.ClearCart(ctx, ClearCartCommand{UserID: userID})
}

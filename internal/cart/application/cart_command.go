package application

import (
	"context"
	"time"

	"github.com/wyfcoding/sanset/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/sanset/internal/catalog/domain"
)

// AddItemCommand 添加商品到购物车命令
type AddItemCommand struct {
	UserID    string
	ProductID uint
	Quantity  int
}

// RemoveItemCommand 从购物车移除商品命令
type RemoveItemCommand struct {
	UserID    string
	ProductID uint
}

// ClearCartCommand 清空购物车命令
type ClearCartCommand struct {
	UserID string
}

// CartCommandService 购物车命令服务
type CartCommandService struct {
	repo      domain.CartRepository
	products  catalogdomain.ProductRepository
	publisher domain.EventPublisher
}

// NewCartCommandService 创建购物车命令服务实例
func NewCartCommandService(
	repo domain.CartRepository,
	products catalogdomain.ProductRepository,
	publisher domain.EventPublisher,
) *CartCommandService {
	return &CartCommandService{
		repo:      repo,
		products:  products,
		publisher: publisher,
	}
}

// AddItem 处理添加商品到购物车，商品必须存在
func (s *CartCommandService) AddItem(ctx context.Context, cmd AddItemCommand) error {
	if _, err := s.products.GetByID(ctx, cmd.ProductID); err != nil {
		return err
	}

	var cartID uint
	err := s.repo.Mutate(ctx, cmd.UserID, func(cart *domain.Cart) error {
		cartID = cart.ID
		return cart.AddItem(cmd.ProductID, cmd.Quantity)
	})
	if err != nil {
		return err
	}

	event := domain.CartItemAddedEvent{
		CartID:    cartID,
		UserID:    cmd.UserID,
		ProductID: cmd.ProductID,
		Quantity:  cmd.Quantity,
		Timestamp: time.Now(),
	}
	s.publisher.Publish(ctx, "cart.item.added", cmd.UserID, event)

	return nil
}

// RemoveItem 处理从购物车移除商品
func (s *CartCommandService) RemoveItem(ctx context.Context, cmd RemoveItemCommand) error {
	var cartID uint
	err := s.repo.Mutate(ctx, cmd.UserID, func(cart *domain.Cart) error {
		cartID = cart.ID
		cart.RemoveItem(cmd.ProductID)
		return nil
	})
	if err != nil {
		return err
	}

	event := domain.CartItemRemovedEvent{
		CartID:    cartID,
		UserID:    cmd.UserID,
		ProductID: cmd.ProductID,
		Timestamp: time.Now(),
	}
	s.publisher.Publish(ctx, "cart.item.removed", cmd.UserID, event)

	return nil
}

// ClearCart 处理清空购物车
func (s *CartCommandService) ClearCart(ctx context.Context, cmd ClearCartCommand) error {
	if err := s.repo.Clear(ctx, cmd.UserID); err != nil {
		return err
	}

	event := domain.CartClearedEvent{
		UserID:    cmd.UserID,
		Timestamp: time.Now(),
	}
	s.publisher.Publish(ctx, "cart.cleared", cmd.UserID, event)

	return nil
}

// Package domain 包含购物车的领域模型
package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrCartNotFound 购物车不存在
	ErrCartNotFound = errors.New("cart not found")
	// ErrInvalidQuantity 数量必须为正
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// Cart 购物车聚合，每个用户唯一
type Cart struct {
	gorm.Model
	UserID string     `gorm:"column:user_id;type:varchar(36);uniqueIndex;not null" json:"user_id"`
	Items  []CartItem `gorm:"foreignKey:CartID" json:"items"`
}

func (Cart) TableName() string { return "carts" }

// CartItem 购物车行，(cart_id, product_id) 唯一
type CartItem struct {
	gorm.Model
	CartID    uint `gorm:"column:cart_id;index:idx_cart_product,unique;not null" json:"cart_id"`
	ProductID uint `gorm:"column:product_id;index:idx_cart_product,unique;not null" json:"product_id"`
	Quantity  int  `gorm:"column:quantity;not null" json:"quantity"`
}

func (CartItem) TableName() string { return "cart_items" }

// AddItem 加入商品，已存在的行合并数量
func (c *Cart) AddItem(productID uint, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += qty
			return nil
		}
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: qty})
	return nil
}

// RemoveItem 移除商品行
func (c *Cart) RemoveItem(productID uint) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// IsEmpty 是否为空
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// CartRepository 购物车仓储接口
type CartRepository interface {
	// 获取用户购物车及其全部行，不存在时返回 ErrCartNotFound
	GetByUserID(ctx context.Context, userID string) (*Cart, error)
	// 在行锁保护下对用户购物车执行读改写，同一用户的并发修改串行化；
	// 购物车不存在时先创建空购物车再执行 fn
	Mutate(ctx context.Context, userID string, fn func(cart *Cart) error) error
	// 清空用户购物车的全部行
	Clear(ctx context.Context, userID string) error
}

// EventPublisher 领域事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}

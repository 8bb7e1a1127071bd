// Package domain 包含商品目录的领域模型
package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrProductNotFound 商品不存在
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock 库存不足，扣减被拒绝
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Product 商品实体
// 库存只能通过 DecrementStock 的条件更新扣减，任何路径下都不会为负
type Product struct {
	gorm.Model
	// 商品名称
	Name string `gorm:"column:name;type:varchar(255);not null;index" json:"name"`
	// 唯一短链标识
	Slug string `gorm:"column:slug;type:varchar(255);uniqueIndex;not null" json:"slug"`
	// 类目标签
	Category string `gorm:"column:category;type:varchar(100);index;not null" json:"category"`
	// 描述
	Description string `gorm:"column:description;type:text" json:"description"`
	// 单价
	Price decimal.Decimal `gorm:"column:price;type:decimal(20,8);not null" json:"price"`
	// 库存数量
	Stock int `gorm:"column:stock;not null;default:0" json:"stock"`
	// 图片地址
	ImageURL string `gorm:"column:image_url;type:varchar(512)" json:"image_url"`
}

func (Product) TableName() string { return "products" }

// InStock 是否有库存
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// ProductRepository 商品仓储接口
type ProductRepository interface {
	// 保存商品（新建或更新）
	Save(ctx context.Context, product *Product) error
	// 按 ID 获取商品
	GetByID(ctx context.Context, id uint) (*Product, error)
	// 按 slug 获取商品
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	// 分页列出商品，支持类目过滤与名称/描述子串搜索
	List(ctx context.Context, category, search string, offset, limit int) ([]*Product, int64, error)
	// 列出全部有库存商品，按 ID 升序
	ListInStock(ctx context.Context) ([]*Product, error)
	// 原子扣减库存，stock < qty 时返回 ErrInsufficientStock 且不做任何修改
	DecrementStock(ctx context.Context, id uint, qty int) error
}

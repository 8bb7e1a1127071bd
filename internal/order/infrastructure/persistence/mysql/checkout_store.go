package mysql

import (
	"context"
	"errors"

	cartdomain "github.com/wyfcoding/sanset/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/sanset/internal/catalog/domain"
	"github.com/wyfcoding/sanset/internal/order/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// checkoutStore 基于单个 GORM 事务实现结账的原子性契约：
// 外部观察者不可能看到库存已扣减而订单不存在，反之亦然
type checkoutStore struct{ db *gorm.DB }

// NewCheckoutStore 创建结账存储的 GORM 实现
func NewCheckoutStore(db *gorm.DB) domain.CheckoutStore {
	return &checkoutStore{db: db}
}

func (s *checkoutStore) InTx(ctx context.Context, fn func(tx domain.CheckoutTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&checkoutTx{tx: tx})
	})
}

type checkoutTx struct{ tx *gorm.DB }

// CartLines 锁定用户购物车行后读取全部行，
// 结账期间该用户的购物车修改会在锁上等待
func (t *checkoutTx) CartLines(ctx context.Context, userID string) ([]cartdomain.CartItem, error) {
	var cart cartdomain.Cart
	err := t.tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var items []cartdomain.CartItem
	if err := t.tx.Where("cart_id = ?", cart.ID).Order("product_id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// LockProduct 以 FOR UPDATE 锁定商品行，持锁期间的库存读数是当前值
func (t *checkoutTx) LockProduct(ctx context.Context, productID uint) (*catalogdomain.Product, error) {
	var p catalogdomain.Product
	err := t.tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalogdomain.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

// DecrementStock 带库存守卫的扣减，行锁之外再加一道 compare-and-decrement
func (t *checkoutTx) DecrementStock(ctx context.Context, productID uint, qty int) error {
	result := t.tx.Model(&catalogdomain.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return catalogdomain.ErrInsufficientStock
	}
	return nil
}

func (t *checkoutTx) CreateOrder(ctx context.Context, order *domain.Order) error {
	// 关闭关联自动写入，订单行随后显式插入
	if err := t.tx.Omit("Items").Create(order).Error; err != nil {
		return err
	}
	for i := range order.Items {
		if err := t.tx.Create(&order.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (t *checkoutTx) ClearCart(ctx context.Context, userID string) error {
	var cart cartdomain.Cart
	err := t.tx.Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	// 物理删除，结账后用户必须能把买过的商品重新加入购物车
	return t.tx.Unscoped().Where("cart_id = ?", cart.ID).Delete(&cartdomain.CartItem{}).Error
}

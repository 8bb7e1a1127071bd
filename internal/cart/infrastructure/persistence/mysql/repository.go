package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/sanset/internal/cart/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cartRepository struct{ db *gorm.DB }

// NewCartRepository 创建购物车仓储的 GORM 实现
func NewCartRepository(db *gorm.DB) domain.CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.db.WithContext(ctx).Preload("Items").Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCartNotFound
		}
		return nil, err
	}
	return &cart, nil
}

// Mutate 在事务内以 FOR UPDATE 锁定购物车行后执行 fn，再整体回写行集合，
// 同一用户的并发修改在此串行化
func (r *cartRepository) Mutate(ctx context.Context, userID string, fn func(cart *domain.Cart) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := r.lockOrCreate(tx, userID)
		if err != nil {
			return err
		}

		if err := tx.Where("cart_id = ?", cart.ID).Find(&cart.Items).Error; err != nil {
			return err
		}

		if err := fn(cart); err != nil {
			return err
		}

		// 行集合整体重建，fn 中的增删改一次性落库。
		// 必须物理删除：idx_cart_product 唯一索引不含 deleted_at，
		// 软删除的旧行会让紧随其后的重建撞唯一键
		if err := tx.Unscoped().Where("cart_id = ?", cart.ID).Delete(&domain.CartItem{}).Error; err != nil {
			return err
		}
		for i := range cart.Items {
			item := domain.CartItem{CartID: cart.ID, ProductID: cart.Items[i].ProductID, Quantity: cart.Items[i].Quantity}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			cart.Items[i] = item
		}
		return nil
	})
}

func (r *cartRepository) lockOrCreate(tx *gorm.DB, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cart = domain.Cart{UserID: userID}
	if err := tx.Create(&cart).Error; err != nil {
		// 并发创建撞唯一索引，重新锁定既有行
		var existing domain.Cart
		if lockErr := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&existing).Error; lockErr != nil {
			return nil, err
		}
		return &existing, nil
	}
	return &cart, nil
}

func (r *cartRepository) Clear(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart domain.Cart
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&cart).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		// 物理删除，清空后同一商品必须能重新加入
		return tx.Unscoped().Where("cart_id = ?", cart.ID).Delete(&domain.CartItem{}).Error
	})
}

package mysql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wyfcoding/sanset/internal/cart/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&domain.Cart{}, &domain.CartItem{}))
	return db
}

func addItem(t *testing.T, repo domain.CartRepository, userID string, productID uint, qty int) {
	t.Helper()
	require.NoError(t, repo.Mutate(context.Background(), userID, func(cart *domain.Cart) error {
		return cart.AddItem(productID, qty)
	}))
}

func TestMutateRepeatAddMergesLine(t *testing.T) {
	repo := NewCartRepository(newTestDB(t))

	// 第二次 Mutate 会重建第一次写入的同一 (cart_id, product_id) 行，
	// 旧行必须真正离开唯一索引
	addItem(t, repo, "u1", 1, 2)
	addItem(t, repo, "u1", 1, 3)

	cart, err := repo.GetByUserID(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestMutateAddAlongsideExistingLine(t *testing.T) {
	repo := NewCartRepository(newTestDB(t))

	addItem(t, repo, "u1", 1, 1)
	addItem(t, repo, "u1", 2, 4)

	cart, err := repo.GetByUserID(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, uint(1), cart.Items[0].ProductID)
	assert.Equal(t, uint(2), cart.Items[1].ProductID)
}

func TestMutateRemoveLeavesOtherLines(t *testing.T) {
	repo := NewCartRepository(newTestDB(t))

	addItem(t, repo, "u1", 1, 1)
	addItem(t, repo, "u1", 2, 2)

	require.NoError(t, repo.Mutate(context.Background(), "u1", func(cart *domain.Cart) error {
		cart.RemoveItem(1)
		return nil
	}))

	cart, err := repo.GetByUserID(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, uint(2), cart.Items[0].ProductID)

	// 移除后的商品可以重新加入
	addItem(t, repo, "u1", 1, 7)
	cart, err = repo.GetByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

func TestClearThenReAddSameProduct(t *testing.T) {
	repo := NewCartRepository(newTestDB(t))

	addItem(t, repo, "u1", 1, 3)
	require.NoError(t, repo.Clear(context.Background(), "u1"))

	cart, err := repo.GetByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	// 清空过的商品重新加入，数量从头计
	addItem(t, repo, "u1", 1, 2)
	cart, err = repo.GetByUserID(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestMutateCreatesCartOnFirstUse(t *testing.T) {
	repo := NewCartRepository(newTestDB(t))

	_, err := repo.GetByUserID(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrCartNotFound)

	addItem(t, repo, "u1", 1, 1)

	cart, err := repo.GetByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", cart.UserID)
	assert.Len(t, cart.Items, 1)
}

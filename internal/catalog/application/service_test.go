package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wyfcoding/sanset/internal/catalog/domain"
)

type fakeProductRepo struct {
	products map[uint]*domain.Product
	saved    []*domain.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uint]*domain.Product)}
}

func (f *fakeProductRepo) Save(ctx context.Context, product *domain.Product) error {
	f.saved = append(f.saved, product)
	f.products[product.ID] = product
	return nil
}

func (f *fakeProductRepo) GetByID(ctx context.Context, id uint) (*domain.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return product, nil
}

func (f *fakeProductRepo) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	for _, product := range f.products {
		if product.Slug == slug {
			return product, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (f *fakeProductRepo) List(ctx context.Context, category, search string, offset, limit int) ([]*domain.Product, int64, error) {
	var result []*domain.Product
	for _, product := range f.products {
		if category != "" && product.Category != category {
			continue
		}
		result = append(result, product)
	}
	return result, int64(len(result)), nil
}

func (f *fakeProductRepo) ListInStock(ctx context.Context) ([]*domain.Product, error) {
	var result []*domain.Product
	for _, product := range f.products {
		if product.Stock > 0 {
			result = append(result, product)
		}
	}
	return result, nil
}

func (f *fakeProductRepo) DecrementStock(ctx context.Context, id uint, qty int) error {
	product, ok := f.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	if product.Stock < qty {
		return domain.ErrInsufficientStock
	}
	product.Stock -= qty
	return nil
}

func TestSaveProductRejectsNegativeValues(t *testing.T) {
	repo := newFakeProductRepo()
	svc := NewCatalogService(repo, nil, 0)

	err := svc.SaveProduct(context.Background(), &domain.Product{
		Name:  "milk",
		Slug:  "milk",
		Price: decimal.NewFromInt(-1),
		Stock: 10,
	})
	require.Error(t, err)

	err = svc.SaveProduct(context.Background(), &domain.Product{
		Name:  "milk",
		Slug:  "milk",
		Price: decimal.NewFromInt(1),
		Stock: -1,
	})
	require.Error(t, err)
	assert.Empty(t, repo.saved)
}

func TestListProductsFiltersByCategory(t *testing.T) {
	repo := newFakeProductRepo()
	repo.products[1] = &domain.Product{Model: gorm.Model{ID: 1}, Slug: "milk", Category: "Dairy", Price: decimal.NewFromInt(3), Stock: 5}
	repo.products[2] = &domain.Product{Model: gorm.Model{ID: 2}, Slug: "chips", Category: "Snacks", Price: decimal.NewFromInt(2), Stock: 5}
	svc := NewCatalogService(repo, nil, 0)

	result, err := svc.ListProducts(context.Background(), "Dairy", "", 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, result.Total)
	assert.Equal(t, "milk", result.Products[0].Slug)
}

func TestGetProductBySlug(t *testing.T) {
	repo := newFakeProductRepo()
	repo.products[1] = &domain.Product{Model: gorm.Model{ID: 1}, Slug: "milk", Category: "Dairy", Price: decimal.NewFromInt(3), Stock: 5}
	svc := NewCatalogService(repo, nil, 0)

	product, err := svc.GetProductBySlug(context.Background(), "milk")
	require.NoError(t, err)
	assert.Equal(t, uint(1), product.ID)

	_, err = svc.GetProductBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

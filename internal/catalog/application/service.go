// Package application 提供商品目录的应用服务
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wyfcoding/sanset/internal/catalog/domain"
	"github.com/wyfcoding/sanset/pkg/cache"
	"github.com/wyfcoding/sanset/pkg/logger"
)

// ProductListResult 商品列表查询结果
type ProductListResult struct {
	Products []*domain.Product `json:"products"`
	Total    int64             `json:"total"`
}

// CatalogService 商品目录服务，列表查询走 Redis 读穿透缓存
// 缓存只设置短 TTL，不做主动失效，读到的数据允许短暂滞后
type CatalogService struct {
	repo  domain.ProductRepository
	cache *cache.RedisCache
	ttl   time.Duration
}

// NewCatalogService 创建商品目录服务实例，cache 可为 nil（禁用缓存）
func NewCatalogService(repo domain.ProductRepository, redisCache *cache.RedisCache, ttl time.Duration) *CatalogService {
	return &CatalogService{
		repo:  repo,
		cache: redisCache,
		ttl:   ttl,
	}
}

// GetProduct 按 ID 获取商品
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// GetProductBySlug 按 slug 获取商品
func (s *CatalogService) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// ListProducts 分页列出商品
func (s *CatalogService) ListProducts(ctx context.Context, category, search string, offset, limit int) (*ProductListResult, error) {
	key := fmt.Sprintf("catalog:list:%s:%s:%d:%d", category, search, offset, limit)

	if s.cache != nil {
		var cached ProductListResult
		err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn(ctx, "Catalog cache read failed", "key", key, "error", err)
		}
	}

	products, total, err := s.repo.List(ctx, category, search, offset, limit)
	if err != nil {
		return nil, err
	}
	result := &ProductListResult{Products: products, Total: total}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, result, s.ttl); err != nil {
			logger.Warn(ctx, "Catalog cache write failed", "key", key, "error", err)
		}
	}
	return result, nil
}

// SaveProduct 新建或更新商品（管理端操作）
func (s *CatalogService) SaveProduct(ctx context.Context, product *domain.Product) error {
	if product.Price.IsNegative() {
		return fmt.Errorf("product price must not be negative")
	}
	if product.Stock < 0 {
		return fmt.Errorf("product stock must not be negative")
	}
	return s.repo.Save(ctx, product)
}

package application

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/sanset/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/sanset/internal/catalog/domain"
)

// CartLineView 购物车行视图，价格取目录实时价
type CartLineView struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartView 购物车视图
type CartView struct {
	UserID string          `json:"user_id"`
	Items  []CartLineView  `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

// CartQueryService 购物车查询服务
type CartQueryService struct {
	repo     domain.CartRepository
	products catalogdomain.ProductRepository
}

// NewCartQueryService 创建购物车查询服务实例
func NewCartQueryService(repo domain.CartRepository, products catalogdomain.ProductRepository) *CartQueryService {
	return &CartQueryService{repo: repo, products: products}
}

// GetCart 获取用户购物车视图，逐行解析商品并按实时价计算合计，
// 指向已下架商品的行在视图中跳过
func (s *CartQueryService) GetCart(ctx context.Context, userID string) (*CartView, error) {
	view := &CartView{
		UserID: userID,
		Items:  []CartLineView{},
		Total:  decimal.Zero,
	}

	cart, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrCartNotFound) {
			return view, nil
		}
		return nil, err
	}

	for _, item := range cart.Items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, catalogdomain.ErrProductNotFound) {
				continue
			}
			return nil, err
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		view.Items = append(view.Items, CartLineView{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			Price:     product.Price,
			LineTotal: lineTotal,
		})
		view.Total = view.Total.Add(lineTotal)
	}

	return view, nil
}

// Package application 提供推荐引擎的应用服务
package application

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"

	catalogdomain "github.com/wyfcoding/sanset/internal/catalog/domain"
	orderdomain "github.com/wyfcoding/sanset/internal/order/domain"
	"github.com/wyfcoding/sanset/internal/recommendation/domain"
	"github.com/wyfcoding/sanset/pkg/logger"
	"github.com/wyfcoding/sanset/pkg/metrics"
)

// topCategoryCount 类目亲和集合的大小
const topCategoryCount = 3

// Engine 推荐引擎。只读、无副作用（审计日志与事件为尽力而为的旁路写）。
// 评分规则：
//   - 冷启动（无订单历史）：从有库存商品中不放回抽样，score = 0.5 + r*0.5
//   - 其余：基础分 0.3，商品类目命中用户购买次数前三的类目 +0.5，
//     再加 [0, 0.2) 的抖动，已购买过的商品一律排除
//
// 前三类目按购买次数降序选取，计数相同时按类目名升序决胜；排序使用稳定排序，
// 同分商品保持目录遍历顺序，固定随机种子时输出完全可复现。
// 场景参数（homepage / cart 等）仅透传记录，当前不参与评分，预留给后续的场景加权
type Engine struct {
	orders    domain.OrderHistoryReader
	catalog   domain.CatalogReader
	logs      domain.LogRepository
	publisher domain.EventPublisher
	metrics   *metrics.Metrics

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewEngine 创建推荐引擎实例。
// 随机源由 seed 注入；logs、publisher、m 可为 nil
func NewEngine(
	orders domain.OrderHistoryReader,
	catalog domain.CatalogReader,
	logs domain.LogRepository,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	seed int64,
) *Engine {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{
		orders:    orders,
		catalog:   catalog,
		logs:      logs,
		publisher: publisher,
		metrics:   m,
		rng:       rand.New(rand.NewSource(seed)),
		now:       time.Now,
	}
}

// Recommend 为用户生成至多 limit 条推荐，按 score 降序；limit 非正时返回空结果
func (e *Engine) Recommend(ctx context.Context, userID string, limit int, scene string) ([]domain.Recommendation, error) {
	if limit <= 0 {
		return []domain.Recommendation{}, nil
	}

	orders, err := e.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	products, err := e.catalog.ListInStock(ctx)
	if err != nil {
		return nil, err
	}

	var results []domain.Recommendation
	coldStart := len(orders) == 0
	if coldStart {
		results = e.coldStart(products, limit)
	} else {
		results, err = e.scoreByAffinity(ctx, orders, products, limit)
		if err != nil {
			return nil, err
		}
	}

	if e.metrics != nil {
		label := "false"
		if coldStart {
			label = "true"
		}
		e.metrics.RecommendationsTotal.WithLabelValues(label).Inc()
	}

	e.record(ctx, userID, scene, results, coldStart)
	return results, nil
}

// coldStart 不放回抽样，分值偏向区间上半段以便下游与亲和评分区分
func (e *Engine) coldStart(products []*catalogdomain.Product, limit int) []domain.Recommendation {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := min(limit, len(products))
	results := make([]domain.Recommendation, 0, n)
	for _, idx := range e.rng.Perm(len(products))[:n] {
		results = append(results, domain.Recommendation{
			ProductID: products[idx].ID,
			Score:     0.5 + e.rng.Float64()*0.5,
		})
	}
	return results
}

func (e *Engine) scoreByAffinity(ctx context.Context, orders []*orderdomain.Order, products []*catalogdomain.Product, limit int) ([]domain.Recommendation, error) {
	purchased := make(map[uint]struct{})
	for _, order := range orders {
		for _, item := range order.Items {
			purchased[item.ProductID] = struct{}{}
		}
	}

	favorites, err := e.topCategories(ctx, orders)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	candidates := make([]domain.Recommendation, 0, len(products))
	for _, product := range products {
		if _, ok := purchased[product.ID]; ok {
			continue
		}
		score := 0.3
		if _, ok := favorites[product.Category]; ok {
			score += 0.5
		}
		score += e.rng.Float64() * 0.2
		candidates = append(candidates, domain.Recommendation{
			ProductID: product.ID,
			Score:     score,
		})
	}
	e.mu.Unlock()

	// 稳定排序：同分商品保持目录遍历顺序
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// topCategories 按购买次数统计用户的前三类目，计数相同时类目名升序优先
func (e *Engine) topCategories(ctx context.Context, orders []*orderdomain.Order) (map[string]struct{}, error) {
	counts := make(map[string]int)
	for _, order := range orders {
		for _, item := range order.Items {
			product, err := e.catalog.GetByID(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, catalogdomain.ErrProductNotFound) {
					continue
				}
				return nil, err
			}
			counts[product.Category]++
		}
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	if len(names) > topCategoryCount {
		names = names[:topCategoryCount]
	}

	favorites := make(map[string]struct{}, len(names))
	for _, name := range names {
		favorites[name] = struct{}{}
	}
	return favorites, nil
}

// record 旁路写审计日志并发布事件，失败只记日志
func (e *Engine) record(ctx context.Context, userID, scene string, results []domain.Recommendation, coldStart bool) {
	servedAt := e.now()

	if e.logs != nil {
		data, err := json.Marshal(results)
		if err == nil {
			err = e.logs.Append(ctx, &domain.RecommendationLog{
				UserID:              userID,
				RecommendedProducts: string(data),
				Context:             scene,
				ServedAt:            servedAt,
			})
		}
		if err != nil {
			logger.Warn(ctx, "Recommendation log append failed", "user_id", userID, "error", err)
		}
	}

	if e.publisher != nil {
		e.publisher.Publish(ctx, "recommendation.served", userID, domain.RecommendationServedEvent{
			UserID:          userID,
			Context:         scene,
			Recommendations: results,
			ColdStart:       coldStart,
			ServedAt:        servedAt,
		})
	}
}

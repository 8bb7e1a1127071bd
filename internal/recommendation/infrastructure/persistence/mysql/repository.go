package mysql

import (
	"context"

	orderdomain "github.com/wyfcoding/sanset/internal/order/domain"
	"github.com/wyfcoding/sanset/internal/recommendation/domain"
	"gorm.io/gorm"
)

type orderHistoryReader struct{ db *gorm.DB }

// NewOrderHistoryReader 创建订单历史读取器的 GORM 实现
func NewOrderHistoryReader(db *gorm.DB) domain.OrderHistoryReader {
	return &orderHistoryReader{db: db}
}

func (r *orderHistoryReader) ListByUser(ctx context.Context, userID string) ([]*orderdomain.Order, error) {
	var orders []*orderdomain.Order
	err := r.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("placed_at ASC").
		Find(&orders).Error
	return orders, err
}

type logRepository struct{ db *gorm.DB }

// NewLogRepository 创建推荐日志仓储的 GORM 实现
func NewLogRepository(db *gorm.DB) domain.LogRepository {
	return &logRepository{db: db}
}

func (r *logRepository) Append(ctx context.Context, log *domain.RecommendationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

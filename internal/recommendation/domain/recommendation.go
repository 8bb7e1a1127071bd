// Package domain 包含推荐引擎的领域模型
package domain

import (
	"context"
	"time"

	catalogdomain "github.com/wyfcoding/sanset/internal/catalog/domain"
	orderdomain "github.com/wyfcoding/sanset/internal/order/domain"
	"gorm.io/gorm"
)

// Recommendation 单条推荐结果，score 取值 [0, 1)
type Recommendation struct {
	ProductID uint    `json:"product_id"`
	Score     float64 `json:"score"`
}

// RecommendationLog 推荐审计日志，只追加，引擎永不回读
type RecommendationLog struct {
	gorm.Model
	UserID string `gorm:"column:user_id;type:varchar(36);index;not null" json:"user_id"`
	// 序列化后的推荐结果
	RecommendedProducts string `gorm:"column:recommended_products;type:json;not null" json:"recommended_products"`
	// 请求场景（homepage / cart 等）
	Context string `gorm:"column:context;type:varchar(50)" json:"context"`
	// 生成时间
	ServedAt time.Time `gorm:"column:served_at;not null" json:"served_at"`
}

func (RecommendationLog) TableName() string { return "recommendation_logs" }

// LogRepository 推荐日志仓储接口，仅支持追加
type LogRepository interface {
	Append(ctx context.Context, log *RecommendationLog) error
}

// OrderHistoryReader 用户订单历史读取接口
type OrderHistoryReader interface {
	// 返回用户全部历史订单及其行
	ListByUser(ctx context.Context, userID string) ([]*orderdomain.Order, error)
}

// CatalogReader 商品目录只读接口，快照一致性即可，允许轻微滞后
type CatalogReader interface {
	// 列出全部有库存商品，顺序稳定
	ListInStock(ctx context.Context) ([]*catalogdomain.Product, error)
	// 按 ID 获取商品，用于类目统计
	GetByID(ctx context.Context, id uint) (*catalogdomain.Product, error)
}

// EventPublisher 领域事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}

// RecommendationServedEvent 推荐已生成事件
type RecommendationServedEvent struct {
	UserID          string           `json:"user_id"`
	Context         string           `json:"context"`
	Recommendations []Recommendation `json:"recommendations"`
	ColdStart       bool             `json:"cold_start"`
	ServedAt        time.Time        `json:"served_at"`
}

// Package messaging 提供购物车领域事件的 Kafka 发布实现
package messaging

import (
	"context"

	"github.com/wyfcoding/sanset/internal/cart/domain"
	"github.com/wyfcoding/sanset/pkg/logger"
	"github.com/wyfcoding/sanset/pkg/mq"
)

type kafkaPublisher struct {
	producer *mq.KafkaProducer
}

// NewKafkaPublisher 创建 Kafka 事件发布者，发布失败只记日志不影响主流程
func NewKafkaPublisher(producer *mq.KafkaProducer) domain.EventPublisher {
	return &kafkaPublisher{producer: producer}
}

func (p *kafkaPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	if err := p.producer.SendMessage(ctx, topic, key, event); err != nil {
		logger.Warn(ctx, "Cart event publish failed", "topic", topic, "error", err)
		return err
	}
	return nil
}

type nopPublisher struct{}

// NewNopPublisher 创建空发布者，用于未启用 Kafka 的部署
func NewNopPublisher() domain.EventPublisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	return nil
}

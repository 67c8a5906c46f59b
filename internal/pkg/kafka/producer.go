package kafka

import (
	"ConectaYa/internal/api/config"
	"context"
	log "log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// BookingEvent 预约生命周期事件, 供数据分析与对账消费
type BookingEvent struct {
	BookingID  uint64    `json:"booking_id"`
	Status     string    `json:"status"`
	ActorID    uint64    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Producer 预约事件生产者
type Producer struct {
	async sarama.AsyncProducer
	topic string
}

// NewProducer 创建异步生产者, 发送失败只记录日志不阻塞业务
func NewProducer(kafkaCfg config.KafkaConfig) (*Producer, error) {
	c := newSaramaConfig(kafkaCfg)

	async, err := sarama.NewAsyncProducer(kafkaCfg.Brokers, c)
	if err != nil {
		return nil, err
	}

	p := &Producer{async: async, topic: kafkaCfg.BookingTopic}

	go func() {
		for err := range async.Errors() {
			log.Error("booking event produce error", "topic", err.Msg.Topic, "err", err.Err)
		}
	}()

	return p, nil
}

// PublishBookingEvent 发送预约状态变更事件
func (p *Producer) PublishBookingEvent(ctx context.Context, event BookingEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.ErrorContext(ctx, "PublishBookingEvent", "booking_id", event.BookingID, "error", err)
		return
	}

	p.async.Input() <- &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.Status),
		Value: sarama.ByteEncoder(payload),
	}
}

// Close 关闭生产者, 等待缓冲区刷出
func (p *Producer) Close() error {
	return p.async.Close()
}

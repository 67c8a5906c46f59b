package service

import (
	"ConectaYa/internal/api/dto"
	"ConectaYa/internal/pkg/consts"
	"ConectaYa/internal/pkg/redis"
	"context"
	"strconv"

	"github.com/goccy/go-json"
)

// 实时事件类型（封闭集合），与 WebSocket 协议保持一致
const (
	EventNewMessage      = "new_message"
	EventTyping          = "typing"
	EventReadReceipt     = "read_receipt"
	EventConvClosed      = "conversation_closed"
	EventConnEstablished = "connection_established"
)

// EventPublisher 实时事件发布器：把事件投递到目标用户的个人频道，
// 由网关侧的订阅者负责最终下发到该用户的所有在线连接。
type EventPublisher interface {
	PublishToUser(ctx context.Context, userID uint64, eventType string, data interface{}) error
}

type redisEventPublisher struct{}

func NewEventPublisher() EventPublisher {
	return &redisEventPublisher{}
}

func (s *redisEventPublisher) PublishToUser(ctx context.Context, userID uint64, eventType string, data interface{}) error {
	payload, err := json.Marshal(&dto.RealtimeEvent{Type: eventType, Data: data})
	if err != nil {
		return err
	}
	channel := consts.IMUserKey + strconv.FormatUint(userID, 10)
	return redis.Publish(ctx, channel, payload)
}

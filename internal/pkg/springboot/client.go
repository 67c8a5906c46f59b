package springboot

import (
	"ConectaYa/internal/api/config"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// 通知类型 (与主站后端约定一致)
const (
	NotifyBookingRequest  = "BOOKING_REQUEST"
	NotifyBookingAccepted = "BOOKING_ACCEPTED"
	NotifyBookingRejected = "BOOKING_REJECTED"
	NotifyBookingComplete = "BOOKING_COMPLETED"
	NotifyBookingCanceled = "BOOKING_CANCELED"
	NotifyNewMessage      = "NEW_MESSAGE"
)

// 信誉动作 (与主站后端约定一致)
const (
	ReputationServiceCompleted = "service_completed"
	ReputationBookingCompleted = "booking_completed"
	ReputationServiceCanceled  = "service_canceled"
	ReputationBookingCanceled  = "booking_canceled"
)

// Client 主站协作方客户端, 负责通知 / 信誉 / 推送等非核心链路的外呼
type Client interface {
	CreateNotification(ctx context.Context, userID uint64, notifyType, title, message, linkURL string, relatedID uint64) error
	UpdateReputation(ctx context.Context, userID uint64, action string) error
	SendPush(ctx context.Context, userID uint64, title, body string, data map[string]string) error
}

type client struct {
	http *resty.Client
}

// NewClient 创建主站客户端单例
func NewClient() Client {
	c := resty.New().
		SetBaseURL(config.Cfg.SpringBoot.BaseURL).
		SetTimeout(time.Duration(config.Cfg.SpringBoot.TimeoutSeconds) * time.Second).
		SetHeader("X-Api-Key", config.Cfg.SpringBoot.ApiKey)
	return &client{http: c}
}

type notificationReq struct {
	UserID    uint64 `json:"user_id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	LinkURL   string `json:"link_url,omitempty"`
	RelatedID uint64 `json:"related_id,omitempty"`
}

func (c *client) CreateNotification(ctx context.Context, userID uint64, notifyType, title, message, linkURL string, relatedID uint64) error {
	resp, err := c.http.R().SetContext(ctx).
		SetBody(notificationReq{
			UserID:    userID,
			Type:      notifyType,
			Title:     title,
			Message:   message,
			LinkURL:   linkURL,
			RelatedID: relatedID,
		}).
		Post("/internal/notifications")
	if err != nil {
		log.ErrorContext(ctx, "CreateNotification", "user_id", userID, "type", notifyType, "error", err)
		return err
	}
	if resp.IsError() {
		log.ErrorContext(ctx, "CreateNotification", "user_id", userID, "type", notifyType, "status", resp.StatusCode())
		return fmt.Errorf("notification upstream status %d", resp.StatusCode())
	}
	return nil
}

func (c *client) UpdateReputation(ctx context.Context, userID uint64, action string) error {
	resp, err := c.http.R().SetContext(ctx).
		SetBody(map[string]interface{}{"user_id": userID, "action": action}).
		Post("/internal/reputation/actions")
	if err != nil {
		log.ErrorContext(ctx, "UpdateReputation", "user_id", userID, "action", action, "error", err)
		return err
	}
	if resp.IsError() {
		log.ErrorContext(ctx, "UpdateReputation", "user_id", userID, "action", action, "status", resp.StatusCode())
		return fmt.Errorf("reputation upstream status %d", resp.StatusCode())
	}
	return nil
}

func (c *client) SendPush(ctx context.Context, userID uint64, title, body string, data map[string]string) error {
	resp, err := c.http.R().SetContext(ctx).
		SetBody(map[string]interface{}{"user_id": userID, "title": title, "body": body, "data": data}).
		Post("/internal/push")
	if err != nil {
		log.ErrorContext(ctx, "SendPush", "user_id", userID, "error", err)
		return err
	}
	if resp.IsError() {
		log.ErrorContext(ctx, "SendPush", "user_id", userID, "status", resp.StatusCode())
		return fmt.Errorf("push upstream status %d", resp.StatusCode())
	}
	return nil
}

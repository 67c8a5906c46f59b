package dto

import "time"

// StartConversationReq 发起会话请求体 (按服务维度)
type StartConversationReq struct {
	ServiceID  uint64 `json:"service_id" binding:"required"`
	TargetUser uint64 `json:"target_user" binding:"required"`
}

// SendMessageReq 发送消息请求体
type SendMessageReq struct {
	MsgType string `json:"msg_type" binding:"required"` // text, image, file
	Content string `json:"content"`
	FileURL string `json:"file_url"`
}

// MessageDTO 消息明细响应
type MessageDTO struct {
	ID             string    `json:"id,omitempty"`
	ConversationID uint64    `json:"conversation_id"`
	SenderID       uint64    `json:"sender_id"`
	MsgType        string    `json:"msg_type"`
	Content        string    `json:"content"`
	FileURL        string    `json:"file_url,omitempty"`
	BookingAction  string    `json:"booking_action,omitempty"`
	IsRead         bool      `json:"is_read"`
	Seq            uint64    `json:"seq"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConversationDTO 会话列表项响应
type ConversationDTO struct {
	ConversationID uint64     `json:"conversation_id"`
	BookingID      *uint64    `json:"booking_id,omitempty"`
	ServiceID      *uint64    `json:"service_id,omitempty"`
	PeerID         uint64     `json:"peer_id"`
	LastMsgContent string     `json:"last_msg_content"`
	LastMsgType    string     `json:"last_msg_type"`
	LastSenderID   uint64     `json:"last_sender_id"`
	LastMessageAt  *time.Time `json:"last_message_at,omitempty"`
	UnreadCount    uint64     `json:"unread_count"`
	IsClosed       bool       `json:"is_closed"`
}

// UnreadCountDTO 未读总数响应
type UnreadCountDTO struct {
	TotalUnread uint64 `json:"total_unread"`
}

// ChatStatsDTO 会话统计响应
type ChatStatsDTO struct {
	TotalConversations  int64  `json:"total_conversations"`
	ActiveConversations int64  `json:"active_conversations"`
	TotalUnread         uint64 `json:"total_unread"`
}

// TypingReq 输入状态上报
type TypingReq struct {
	ConversationID uint64 `json:"conversation_id" binding:"required"`
	IsTyping       bool   `json:"is_typing"`
}

// RealtimeEvent WebSocket 推送事件封装
type RealtimeEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// TypingEvent 输入状态推送
type TypingEvent struct {
	ConversationID uint64 `json:"conversation_id"`
	UserID         uint64 `json:"user_id"`
	IsTyping       bool   `json:"is_typing"`
}

// ReadReceiptEvent 已读回执推送
type ReadReceiptEvent struct {
	ConversationID uint64 `json:"conversation_id"`
	ReaderID       uint64 `json:"reader_id"`
}

// ConversationClosedEvent 会话关闭推送
type ConversationClosedEvent struct {
	ConversationID uint64 `json:"conversation_id"`
	Reason         string `json:"reason"`
}

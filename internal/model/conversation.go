package model

import (
	"fmt"
	"time"
)

// Conversation 会话主表：每个 booking 至多一个会话；
// 服务咨询会话（尚无 booking）按 (service, 用户对) 去重复用。
// PeerKey 上的唯一索引保证并发 getOrCreate 不会产生重复会话。
type Conversation struct {
	ID        uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingID *uint64 `gorm:"uniqueIndex" json:"bookingId"`
	ServiceID *uint64 `gorm:"index" json:"serviceId"`
	PeerKey   string  `gorm:"uniqueIndex;type:varchar(64);not null" json:"-"`

	// 会话级别的消息定序器与最后一条消息预览
	MaxMsgSeq      uint64    `gorm:"not null;default:0" json:"maxMsgSeq"`
	LastMsgContent string    `gorm:"type:varchar(255)" json:"lastMsgContent"`
	LastMsgType    string    `gorm:"type:varchar(20)" json:"lastMsgType"`
	LastSenderID   uint64    `gorm:"not null;default:0" json:"lastSenderId"`
	LastMessageAt  time.Time `gorm:"index:,sort:desc" json:"lastMessageAt"`

	// 预约进入终态(完成/拒绝/取消)后关闭，关闭后拒收新消息
	IsClosed bool `gorm:"not null;default:false" json:"isClosed"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Conversation) TableName() string { return "conversations" }

// BookingPeerKey 预约会话的唯一键
func BookingPeerKey(bookingID uint64) string {
	return fmt.Sprintf("bk:%d", bookingID)
}

// ServicePeerKey 服务咨询会话的唯一键，用户对做定序归一
func ServicePeerKey(serviceID, userA, userB uint64) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("svc:%d:%d_%d", serviceID, userA, userB)
}

// ConversationParticipant 会话成员表：每个会话恰好两行。
// unread_count 为增量维护的存量计数；cleared_at 是可见性水位线，
// deleted_at 是软删标记，对端来新消息时自动复活并重置水位线。
type ConversationParticipant struct {
	ID             uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint64     `gorm:"uniqueIndex:idx_conv_user;not null" json:"conversationId"`
	UserID         uint64     `gorm:"uniqueIndex:idx_conv_user;index;not null" json:"userId"`
	UnreadCount    uint64     `gorm:"not null;default:0" json:"unreadCount"`
	LastReadAt     *time.Time `json:"lastReadAt"`
	ClearedAt      *time.Time `json:"clearedAt"`
	DeletedAt      *time.Time `gorm:"index" json:"deletedAt"`
	CreatedAt      time.Time  `json:"createdAt"`

	Conversation Conversation `gorm:"foreignKey:ConversationID;references:ID" json:"conversation"`
}

func (ConversationParticipant) TableName() string { return "conversation_participants" }

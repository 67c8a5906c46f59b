package mongo

import (
	"time"
)

// 消息类型（封闭集合）
const (
	MsgTypeText          = "text"
	MsgTypeImage         = "image"
	MsgTypeFile          = "file"
	MsgTypeSystem        = "system"
	MsgTypeBookingAction = "booking_action"
)

// Message MongoDB 消息明细模型：仅追加，建档后除 is_read 翻转外不可变
type Message struct {
	ID             string    `bson:"_id,omitempty" json:"id"`                          // MongoDB 自动生成的 ObjectID
	ConversationID uint64    `bson:"conversation_id" json:"conversationId"`            // 关联 MySQL 的会话 ID
	SenderID       uint64    `bson:"sender_id" json:"senderId"`                        // 发送者 UID
	MsgType        string    `bson:"msg_type" json:"msgType"`                          // text / image / file / system / booking_action
	Content        string    `bson:"content" json:"content"`                           // 文本内容
	FileURL        string    `bson:"file_url,omitempty" json:"fileUrl,omitempty"`      // 附件地址（image/file 消息）
	BookingAction  string    `bson:"booking_action,omitempty" json:"bookingAction,omitempty"` // 预约动作标记
	IsRead         bool      `bson:"is_read" json:"isRead"`
	Seq            uint64    `bson:"seq" json:"seq"`            // 会话内绝对序号（来自 MySQL 定序器）
	CreatedAt      time.Time `bson:"created_at" json:"createdAt"`
}

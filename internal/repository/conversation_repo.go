package repository

import (
	"ConectaYa/internal/model"
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// AppendResult 一次消息落库在 MySQL 侧产生的元数据
type AppendResult struct {
	Seq       uint64    // 会话内的绝对序号
	CreatedAt time.Time // 消息时间，同时作为复活水位线的基准
}

type ConversationRepo interface {
	Create(ctx context.Context, conv *model.Conversation, userIDs []uint64) error
	GetByID(ctx context.Context, convID uint64) (*model.Conversation, error)
	GetByPeerKey(ctx context.Context, peerKey string) (*model.Conversation, error)
	GetByBookingID(ctx context.Context, bookingID uint64) (*model.Conversation, error)
	GetParticipant(ctx context.Context, convID, userID uint64) (*model.ConversationParticipant, error)
	ListParticipants(ctx context.Context, convID uint64) ([]*model.ConversationParticipant, error)
	ListByUser(ctx context.Context, userID uint64) ([]*model.ConversationParticipant, error)
	PeerUserID(ctx context.Context, convID, userID uint64) (uint64, error)

	// AppendMessageMeta 在一个事务里完成定序、预览更新、对端未读+1 与软删复活
	AppendMessageMeta(ctx context.Context, convID, senderID uint64, preview, msgType string) (*AppendResult, error)

	MarkRead(ctx context.Context, convID, userID uint64) error
	ClearHistory(ctx context.Context, convID, userID uint64) error
	SoftDelete(ctx context.Context, convID, userID uint64) error
	Close(ctx context.Context, convID uint64) error

	TotalUnread(ctx context.Context, userID uint64) (int64, error)
	CountByUser(ctx context.Context, userID uint64) (int64, error)
	CountActiveByUser(ctx context.Context, userID uint64, since time.Time) (int64, error)
}

type conversationRepoImpl struct {
	db *gorm.DB
}

func NewConversationRepo(db *gorm.DB) ConversationRepo {
	return &conversationRepoImpl{db: db}
}

func isDuplicateError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}
	return false
}

// Create 开启事务创建会话及恰好两行成员记录；
// peer_key 撞唯一索引时统一归一为 gorm.ErrDuplicatedKey
func (s *conversationRepoImpl) Create(ctx context.Context, conv *model.Conversation, userIDs []uint64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		for _, uid := range userIDs {
			p := &model.ConversationParticipant{
				ConversationID: conv.ID,
				UserID:         uid,
			}
			if err := tx.Create(p).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if isDuplicateError(err) {
		return gorm.ErrDuplicatedKey
	}
	return err
}

func (s *conversationRepoImpl) GetByID(ctx context.Context, convID uint64) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.WithContext(ctx).First(&conv, convID).Error
	return &conv, err
}

func (s *conversationRepoImpl) GetByPeerKey(ctx context.Context, peerKey string) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.WithContext(ctx).Where("peer_key = ?", peerKey).First(&conv).Error
	return &conv, err
}

func (s *conversationRepoImpl) GetByBookingID(ctx context.Context, bookingID uint64) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&conv).Error
	return &conv, err
}

func (s *conversationRepoImpl) GetParticipant(ctx context.Context, convID, userID uint64) (*model.ConversationParticipant, error) {
	var p model.ConversationParticipant
	err := s.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", convID, userID).
		First(&p).Error
	return &p, err
}

func (s *conversationRepoImpl) ListParticipants(ctx context.Context, convID uint64) ([]*model.ConversationParticipant, error) {
	var members []*model.ConversationParticipant
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Find(&members).Error
	return members, err
}

// ListByUser 会话列表：排除本人软删的会话，按最后消息时间倒序
func (s *conversationRepoImpl) ListByUser(ctx context.Context, userID uint64) ([]*model.ConversationParticipant, error) {
	var members []*model.ConversationParticipant
	err := s.db.WithContext(ctx).
		Preload("Conversation").
		Joins("JOIN conversations c ON c.id = conversation_participants.conversation_id").
		Where("conversation_participants.user_id = ? AND conversation_participants.deleted_at IS NULL", userID).
		Order("c.last_message_at DESC").
		Find(&members).Error
	return members, err
}

// PeerUserID 双人会话里取对端用户
func (s *conversationRepoImpl) PeerUserID(ctx context.Context, convID, userID uint64) (uint64, error) {
	var peer model.ConversationParticipant
	err := s.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id <> ?", convID, userID).
		First(&peer).Error
	if err != nil {
		return 0, err
	}
	return peer.UserID, nil
}

// AppendMessageMeta 核心定序逻辑：行锁保证 seq 绝对递增；
// 同事务内对端 unread_count 原子 +1，软删成员复活并把水位线压到新消息前 1ms，
// 使复活后恰好只看见这条及之后的消息。
func (s *conversationRepoImpl) AppendMessageMeta(ctx context.Context, convID, senderID uint64, preview, msgType string) (*AppendResult, error) {
	res := &AppendResult{CreatedAt: time.Now()}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.Conversation{}).Where("id = ?", convID).
			Updates(map[string]interface{}{
				"max_msg_seq":      gorm.Expr("max_msg_seq + 1"),
				"last_msg_content": preview,
				"last_msg_type":    msgType,
				"last_sender_id":   senderID,
				"last_message_at":  res.CreatedAt,
			}).Error
		if err != nil {
			return err
		}

		// 对端未读数原子自增，避免读改写丢更新
		err = tx.Model(&model.ConversationParticipant{}).
			Where("conversation_id = ? AND user_id <> ?", convID, senderID).
			Update("unread_count", gorm.Expr("unread_count + 1")).Error
		if err != nil {
			return err
		}

		// 软删成员复活：清掉删除标记并重置可见性水位线
		watermark := res.CreatedAt.Add(-time.Millisecond)
		err = tx.Model(&model.ConversationParticipant{}).
			Where("conversation_id = ? AND user_id <> ? AND deleted_at IS NOT NULL", convID, senderID).
			Updates(map[string]interface{}{
				"deleted_at": nil,
				"cleared_at": watermark,
			}).Error
		if err != nil {
			return err
		}

		return tx.Model(&model.Conversation{}).Select("max_msg_seq").
			Where("id = ?", convID).Scan(&res.Seq).Error
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *conversationRepoImpl) MarkRead(ctx context.Context, convID, userID uint64) error {
	return s.db.WithContext(ctx).Model(&model.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", convID, userID).
		Updates(map[string]interface{}{
			"unread_count": 0,
			"last_read_at": time.Now(),
		}).Error
}

func (s *conversationRepoImpl) ClearHistory(ctx context.Context, convID, userID uint64) error {
	return s.db.WithContext(ctx).Model(&model.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", convID, userID).
		Update("cleared_at", time.Now()).Error
}

func (s *conversationRepoImpl) SoftDelete(ctx context.Context, convID, userID uint64) error {
	return s.db.WithContext(ctx).Model(&model.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", convID, userID).
		Update("deleted_at", time.Now()).Error
}

func (s *conversationRepoImpl) Close(ctx context.Context, convID uint64) error {
	return s.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("id = ?", convID).
		Update("is_closed", true).Error
}

func (s *conversationRepoImpl) TotalUnread(ctx context.Context, userID uint64) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&model.ConversationParticipant{}).
		Select("COALESCE(SUM(unread_count), 0)").
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Scan(&total).Error
	return total, err
}

func (s *conversationRepoImpl) CountByUser(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.ConversationParticipant{}).
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

func (s *conversationRepoImpl) CountActiveByUser(ctx context.Context, userID uint64, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.ConversationParticipant{}).
		Joins("JOIN conversations c ON c.id = conversation_participants.conversation_id").
		Where("conversation_participants.user_id = ? AND conversation_participants.deleted_at IS NULL AND c.last_message_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}

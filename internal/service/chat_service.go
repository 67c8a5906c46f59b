package service

import (
	"ConectaYa/internal/api/dto"
	"ConectaYa/internal/model"
	"ConectaYa/internal/pkg/mongo"
	"ConectaYa/internal/pkg/springboot"
	"ConectaYa/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"strconv"
	"time"

	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

// ChatService 会话与消息服务接口定义
type ChatService interface {
	GetOrCreateByBooking(ctx context.Context, booking *model.Booking) (*model.Conversation, error)
	GetOrCreateByService(ctx context.Context, userID uint64, req *dto.StartConversationReq) (*dto.ConversationDTO, error)
	GetConversation(ctx context.Context, userID, convID uint64) (*dto.ConversationDTO, error)
	GetByBookingID(ctx context.Context, userID, bookingID uint64) (*dto.ConversationDTO, error)
	ListConversations(ctx context.Context, userID uint64) ([]*dto.ConversationDTO, error)

	SendMessage(ctx context.Context, senderID, convID uint64, req *dto.SendMessageReq) (*dto.MessageDTO, error)
	GetMessages(ctx context.Context, userID, convID uint64, offset, limit int) ([]*dto.MessageDTO, error)
	SearchMessages(ctx context.Context, userID, convID uint64, query string) ([]*dto.MessageDTO, error)

	MarkRead(ctx context.Context, userID, convID uint64) error
	ClearHistory(ctx context.Context, userID, convID uint64) error
	DeleteConversation(ctx context.Context, userID, convID uint64) error
	Typing(ctx context.Context, userID uint64, req *dto.TypingReq) error

	TotalUnread(ctx context.Context, userID uint64) (*dto.UnreadCountDTO, error)
	Stats(ctx context.Context, userID uint64) (*dto.ChatStatsDTO, error)

	// AppendBookingMessage 预约动作落系统消息（booking_action 类型），绕过关闭校验
	AppendBookingMessage(ctx context.Context, bookingID uint64, action model.BookingAction, content string) error
	// CloseByBooking 预约进入终态后关闭会话并广播关闭事件
	CloseByBooking(ctx context.Context, bookingID uint64, reason string) error
}

type chatServiceImpl struct {
	convRepo    repository.ConversationRepo
	messageRepo mongo.MessageRepo
	publisher   EventPublisher
	collab      springboot.Client
}

func NewChatService(convRepo repository.ConversationRepo, messageRepo mongo.MessageRepo,
	publisher EventPublisher, collab springboot.Client) ChatService {
	return &chatServiceImpl{
		convRepo:    convRepo,
		messageRepo: messageRepo,
		publisher:   publisher,
		collab:      collab,
	}
}

// GetOrCreateByBooking 预约会话幂等创建：PeerKey 唯一索引兜底并发竞争，
// 撞索引的一方回读赢家创建的会话。
func (s *chatServiceImpl) GetOrCreateByBooking(ctx context.Context, booking *model.Booking) (*model.Conversation, error) {
	peerKey := model.BookingPeerKey(booking.ID)

	conv, err := s.convRepo.GetByPeerKey(ctx, peerKey)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	newConv := &model.Conversation{
		BookingID:     &booking.ID,
		ServiceID:     &booking.ServiceID,
		PeerKey:       peerKey,
		LastMessageAt: time.Now(),
	}
	err = s.convRepo.Create(ctx, newConv, []uint64{booking.CustomerID, booking.ProviderID})
	if err != nil {
		// 并发创建撞唯一索引：回读对方已建好的会话
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if conv, ferr := s.convRepo.GetByPeerKey(ctx, peerKey); ferr == nil {
				return conv, nil
			}
		}
		return nil, err
	}
	return newConv, nil
}

// GetOrCreateByService 服务咨询会话（尚无预约）幂等创建
func (s *chatServiceImpl) GetOrCreateByService(ctx context.Context, userID uint64, req *dto.StartConversationReq) (*dto.ConversationDTO, error) {
	peerKey := model.ServicePeerKey(req.ServiceID, userID, req.TargetUser)

	conv, err := s.convRepo.GetByPeerKey(ctx, peerKey)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		newConv := &model.Conversation{
			ServiceID:     &req.ServiceID,
			PeerKey:       peerKey,
			LastMessageAt: time.Now(),
		}
		if cerr := s.convRepo.Create(ctx, newConv, []uint64{userID, req.TargetUser}); cerr != nil {
			if !errors.Is(cerr, gorm.ErrDuplicatedKey) {
				return nil, cerr
			}
			conv, err = s.convRepo.GetByPeerKey(ctx, peerKey)
			if err != nil {
				return nil, cerr
			}
		} else {
			conv = newConv
		}
	} else if err != nil {
		return nil, err
	}

	member, err := s.convRepo.GetParticipant(ctx, conv.ID, userID)
	if err != nil {
		return nil, ErrNotConvParticipant
	}
	return s.toConversationDTO(ctx, member, conv, userID), nil
}

func (s *chatServiceImpl) GetConversation(ctx context.Context, userID, convID uint64) (*dto.ConversationDTO, error) {
	conv, err := s.convRepo.GetByID(ctx, convID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	} else if err != nil {
		return nil, err
	}

	member, err := s.convRepo.GetParticipant(ctx, convID, userID)
	if err != nil {
		return nil, ErrNotConvParticipant
	}
	return s.toConversationDTO(ctx, member, conv, userID), nil
}

func (s *chatServiceImpl) GetByBookingID(ctx context.Context, userID, bookingID uint64) (*dto.ConversationDTO, error) {
	conv, err := s.convRepo.GetByBookingID(ctx, bookingID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	} else if err != nil {
		return nil, err
	}
	return s.GetConversation(ctx, userID, conv.ID)
}

// ListConversations 会话列表：排除本人已删会话，按最后消息倒序
func (s *chatServiceImpl) ListConversations(ctx context.Context, userID uint64) ([]*dto.ConversationDTO, error) {
	members, err := s.convRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ConversationDTO, 0, len(members))
	for _, m := range members {
		res = append(res, s.toConversationDTO(ctx, m, &m.Conversation, userID))
	}
	return res, nil
}

// SendMessage 发送消息：校验成员资格与会话状态后走 MySQL 定序，
// 明细落 MongoDB，再推送到对端个人频道。
func (s *chatServiceImpl) SendMessage(ctx context.Context, senderID, convID uint64, req *dto.SendMessageReq) (*dto.MessageDTO, error) {
	conv, err := s.convRepo.GetByID(ctx, convID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	} else if err != nil {
		return nil, err
	}
	if conv.IsClosed {
		return nil, ErrConversationClosed
	}
	if _, err = s.convRepo.GetParticipant(ctx, convID, senderID); err != nil {
		return nil, ErrNotConvParticipant
	}

	preview := req.Content
	switch req.MsgType {
	case mongo.MsgTypeText:
		if req.Content == "" {
			return nil, ErrEmptyMessage
		}
	case mongo.MsgTypeImage:
		if req.FileURL == "" {
			return nil, ErrFileRequired
		}
		preview = "[Imagen]"
	case mongo.MsgTypeFile:
		if req.FileURL == "" {
			return nil, ErrFileRequired
		}
		preview = "[Archivo]"
	default:
		return nil, ErrParamInvalid
	}

	meta, err := s.convRepo.AppendMessageMeta(ctx, convID, senderID, preview, req.MsgType)
	if err != nil {
		return nil, err
	}

	msg := &mongo.Message{
		ConversationID: convID,
		SenderID:       senderID,
		MsgType:        req.MsgType,
		Content:        req.Content,
		FileURL:        req.FileURL,
		Seq:            meta.Seq,
		CreatedAt:      meta.CreatedAt,
	}

	// 消息正文必须落库成功才算发送成功，只有通知类旁路才允许吞错
	writeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.messageRepo.SaveMessage(writeCtx, msg); err != nil {
		log.ErrorContext(ctx, "save message to mongo error", "conv_id", convID, "seq", msg.Seq, "err", err)
		return nil, err
	}

	msgDTO := s.toMessageDTO(msg)
	s.fanoutToPeer(ctx, conv.ID, senderID, msgDTO)

	return msgDTO, nil
}

// fanoutToPeer 推送新消息事件到对端，并触发离线推送（均尽力而为）
func (s *chatServiceImpl) fanoutToPeer(ctx context.Context, convID, senderID uint64, msgDTO *dto.MessageDTO) {
	peerID, err := s.convRepo.PeerUserID(ctx, convID, senderID)
	if err != nil {
		log.ErrorContext(ctx, "resolve peer error", "conv_id", convID, "err", err)
		return
	}

	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.publisher.PublishToUser(pubCtx, peerID, EventNewMessage, msgDTO); err != nil {
			log.Error("publish new_message error", "conv_id", convID, "peer", peerID, "err", err)
		}
		_ = s.collab.SendPush(pubCtx, peerID, "Nuevo mensaje", msgDTO.Content, map[string]string{
			"conversation_id": strconv.FormatUint(convID, 10),
		})
	}()
}

// GetMessages 历史消息：软删成员看不到任何历史，清空过的只看水位线之后
func (s *chatServiceImpl) GetMessages(ctx context.Context, userID, convID uint64, offset, limit int) ([]*dto.MessageDTO, error) {
	member, err := s.convRepo.GetParticipant(ctx, convID, userID)
	if err != nil {
		return nil, ErrNotConvParticipant
	}
	if member.DeletedAt != nil {
		return []*dto.MessageDTO{}, nil
	}

	msgs, err := s.messageRepo.GetHistory(ctx, convID, member.ClearedAt, offset, limit)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		if !MessageVisible(m.CreatedAt, member.ClearedAt, member.DeletedAt) {
			continue
		}
		res = append(res, s.toMessageDTO(m))
	}
	return res, nil
}

func (s *chatServiceImpl) SearchMessages(ctx context.Context, userID, convID uint64, query string) ([]*dto.MessageDTO, error) {
	member, err := s.convRepo.GetParticipant(ctx, convID, userID)
	if err != nil {
		return nil, ErrNotConvParticipant
	}
	if member.DeletedAt != nil || query == "" {
		return []*dto.MessageDTO{}, nil
	}

	msgs, err := s.messageRepo.Search(ctx, convID, query, member.ClearedAt)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		if !MessageVisible(m.CreatedAt, member.ClearedAt, member.DeletedAt) {
			continue
		}
		res = append(res, s.toMessageDTO(m))
	}
	return res, nil
}

// MarkRead 清零未读并翻转明细已读位，随后向对端广播已读回执。幂等。
func (s *chatServiceImpl) MarkRead(ctx context.Context, userID, convID uint64) error {
	if _, err := s.convRepo.GetParticipant(ctx, convID, userID); err != nil {
		return ErrNotConvParticipant
	}

	if err := s.convRepo.MarkRead(ctx, convID, userID); err != nil {
		return err
	}
	if _, err := s.messageRepo.MarkRead(ctx, convID, userID); err != nil {
		log.ErrorContext(ctx, "mark mongo messages read error", "conv_id", convID, "err", err)
	}

	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		peerID, err := s.convRepo.PeerUserID(pubCtx, convID, userID)
		if err != nil {
			return
		}
		err = s.publisher.PublishToUser(pubCtx, peerID, EventReadReceipt, &dto.ReadReceiptEvent{
			ConversationID: convID,
			ReaderID:       userID,
		})
		if err != nil {
			log.Error("publish read_receipt error", "conv_id", convID, "err", err)
		}
	}()

	return nil
}

func (s *chatServiceImpl) ClearHistory(ctx context.Context, userID, convID uint64) error {
	if _, err := s.convRepo.GetParticipant(ctx, convID, userID); err != nil {
		return ErrNotConvParticipant
	}
	return s.convRepo.ClearHistory(ctx, convID, userID)
}

// DeleteConversation 单侧软删：只影响本人视角，对端不受影响
func (s *chatServiceImpl) DeleteConversation(ctx context.Context, userID, convID uint64) error {
	if _, err := s.convRepo.GetParticipant(ctx, convID, userID); err != nil {
		return ErrNotConvParticipant
	}
	return s.convRepo.SoftDelete(ctx, convID, userID)
}

// Typing 输入状态透传：不落库，只转发给对端
func (s *chatServiceImpl) Typing(ctx context.Context, userID uint64, req *dto.TypingReq) error {
	if _, err := s.convRepo.GetParticipant(ctx, req.ConversationID, userID); err != nil {
		return ErrNotConvParticipant
	}

	peerID, err := s.convRepo.PeerUserID(ctx, req.ConversationID, userID)
	if err != nil {
		return err
	}
	return s.publisher.PublishToUser(ctx, peerID, EventTyping, &dto.TypingEvent{
		ConversationID: req.ConversationID,
		UserID:         userID,
		IsTyping:       req.IsTyping,
	})
}

func (s *chatServiceImpl) TotalUnread(ctx context.Context, userID uint64) (*dto.UnreadCountDTO, error) {
	total, err := s.convRepo.TotalUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.UnreadCountDTO{TotalUnread: uint64(total)}, nil
}

func (s *chatServiceImpl) Stats(ctx context.Context, userID uint64) (*dto.ChatStatsDTO, error) {
	total, err := s.convRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	active, err := s.convRepo.CountActiveByUser(ctx, userID, time.Now().AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	unread, err := s.convRepo.TotalUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.ChatStatsDTO{
		TotalConversations:  total,
		ActiveConversations: active,
		TotalUnread:         uint64(unread),
	}, nil
}

// AppendBookingMessage 预约动作系统消息：定序、落库、双端广播。
// 终态动作也要落消息，因此不做关闭校验。
func (s *chatServiceImpl) AppendBookingMessage(ctx context.Context, bookingID uint64, action model.BookingAction, content string) error {
	conv, err := s.convRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return err
	}

	meta, err := s.convRepo.AppendMessageMeta(ctx, conv.ID, 0, content, mongo.MsgTypeBookingAction)
	if err != nil {
		return err
	}

	msg := &mongo.Message{
		ConversationID: conv.ID,
		SenderID:       0, // 系统消息
		MsgType:        mongo.MsgTypeBookingAction,
		Content:        content,
		BookingAction:  string(action),
		Seq:            meta.Seq,
		CreatedAt:      meta.CreatedAt,
	}
	if err := s.messageRepo.SaveMessage(ctx, msg); err != nil {
		log.ErrorContext(ctx, "save booking action message error", "booking_id", bookingID, "err", err)
		return err
	}

	msgDTO := s.toMessageDTO(msg)
	members, err := s.convRepo.ListParticipants(ctx, conv.ID)
	if err != nil {
		return err
	}
	for _, m := range members {
		uid := m.UserID
		go func() {
			pubCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.publisher.PublishToUser(pubCtx, uid, EventNewMessage, msgDTO); err != nil {
				log.Error("publish booking action message error", "conv_id", msgDTO.ConversationID, "uid", uid, "err", err)
			}
		}()
	}
	return nil
}

func (s *chatServiceImpl) CloseByBooking(ctx context.Context, bookingID uint64, reason string) error {
	conv, err := s.convRepo.GetByBookingID(ctx, bookingID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	} else if err != nil {
		return err
	}

	if err := s.convRepo.Close(ctx, conv.ID); err != nil {
		return err
	}

	members, err := s.convRepo.ListParticipants(ctx, conv.ID)
	if err != nil {
		return err
	}
	for _, m := range members {
		uid := m.UserID
		go func() {
			pubCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			err := s.publisher.PublishToUser(pubCtx, uid, EventConvClosed, &dto.ConversationClosedEvent{
				ConversationID: conv.ID,
				Reason:         reason,
			})
			if err != nil {
				log.Error("publish conversation_closed error", "conv_id", conv.ID, "uid", uid, "err", err)
			}
		}()
	}
	return nil
}

func (s *chatServiceImpl) toMessageDTO(msg *mongo.Message) *dto.MessageDTO {
	d := &dto.MessageDTO{}
	_ = copier.Copy(d, msg)
	return d
}

func (s *chatServiceImpl) toConversationDTO(ctx context.Context, member *model.ConversationParticipant,
	conv *model.Conversation, userID uint64) *dto.ConversationDTO {
	d := &dto.ConversationDTO{
		ConversationID: conv.ID,
		BookingID:      conv.BookingID,
		ServiceID:      conv.ServiceID,
		LastMsgContent: conv.LastMsgContent,
		LastMsgType:    conv.LastMsgType,
		LastSenderID:   conv.LastSenderID,
		UnreadCount:    member.UnreadCount,
		IsClosed:       conv.IsClosed,
	}
	if !conv.LastMessageAt.IsZero() {
		t := conv.LastMessageAt
		d.LastMessageAt = &t
	}
	if peerID, err := s.convRepo.PeerUserID(ctx, conv.ID, userID); err == nil {
		d.PeerID = peerID
	}
	return d
}

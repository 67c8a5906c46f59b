package service

import (
	"ConectaYa/internal/model"
	"ConectaYa/internal/pkg/kafka"
	"ConectaYa/internal/pkg/mongo"
	"ConectaYa/internal/repository"
	"context"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
)

// fakeConvRepo is an in-memory stand-in for the MySQL conversation store.
type fakeConvRepo struct {
	mu      sync.Mutex
	nextID  uint64
	convs   map[uint64]*model.Conversation
	members map[uint64][]*model.ConversationParticipant
}

func newFakeConvRepo() *fakeConvRepo {
	return &fakeConvRepo{
		nextID:  1,
		convs:   make(map[uint64]*model.Conversation),
		members: make(map[uint64][]*model.ConversationParticipant),
	}
}

func (f *fakeConvRepo) Create(_ context.Context, conv *model.Conversation, userIDs []uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.convs {
		if c.PeerKey == conv.PeerKey {
			return gorm.ErrDuplicatedKey
		}
	}
	conv.ID = f.nextID
	f.nextID++
	f.convs[conv.ID] = conv
	for _, uid := range userIDs {
		f.members[conv.ID] = append(f.members[conv.ID], &model.ConversationParticipant{
			ConversationID: conv.ID,
			UserID:         uid,
		})
	}
	return nil
}

func (f *fakeConvRepo) GetByID(_ context.Context, convID uint64) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.convs[convID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return conv, nil
}

func (f *fakeConvRepo) GetByPeerKey(_ context.Context, peerKey string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.convs {
		if c.PeerKey == peerKey {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeConvRepo) GetByBookingID(_ context.Context, bookingID uint64) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.convs {
		if c.BookingID != nil && *c.BookingID == bookingID {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeConvRepo) GetParticipant(_ context.Context, convID, userID uint64) (*model.ConversationParticipant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.members[convID] {
		if m.UserID == userID {
			return m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeConvRepo) ListParticipants(_ context.Context, convID uint64) ([]*model.ConversationParticipant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*model.ConversationParticipant{}, f.members[convID]...), nil
}

func (f *fakeConvRepo) ListByUser(_ context.Context, userID uint64) ([]*model.ConversationParticipant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []*model.ConversationParticipant
	for convID, members := range f.members {
		for _, m := range members {
			if m.UserID == userID && m.DeletedAt == nil {
				cp := *m
				cp.Conversation = *f.convs[convID]
				res = append(res, &cp)
			}
		}
	}
	return res, nil
}

func (f *fakeConvRepo) PeerUserID(_ context.Context, convID, userID uint64) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.members[convID] {
		if m.UserID != userID {
			return m.UserID, nil
		}
	}
	return 0, gorm.ErrRecordNotFound
}

func (f *fakeConvRepo) AppendMessageMeta(_ context.Context, convID, senderID uint64, preview, msgType string) (*repository.AppendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.convs[convID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	now := time.Now()
	conv.MaxMsgSeq++
	conv.LastMsgContent = preview
	conv.LastMsgType = msgType
	conv.LastSenderID = senderID
	conv.LastMessageAt = now
	for _, m := range f.members[convID] {
		if m.UserID == senderID {
			continue
		}
		m.UnreadCount++
		if m.DeletedAt != nil {
			watermark := now.Add(-time.Millisecond)
			m.DeletedAt = nil
			m.ClearedAt = &watermark
		}
	}
	return &repository.AppendResult{Seq: conv.MaxMsgSeq, CreatedAt: now}, nil
}

func (f *fakeConvRepo) MarkRead(_ context.Context, convID, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, m := range f.members[convID] {
		if m.UserID == userID {
			m.UnreadCount = 0
			m.LastReadAt = &now
		}
	}
	return nil
}

func (f *fakeConvRepo) ClearHistory(_ context.Context, convID, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, m := range f.members[convID] {
		if m.UserID == userID {
			m.ClearedAt = &now
		}
	}
	return nil
}

func (f *fakeConvRepo) SoftDelete(_ context.Context, convID, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, m := range f.members[convID] {
		if m.UserID == userID {
			m.DeletedAt = &now
		}
	}
	return nil
}

func (f *fakeConvRepo) Close(_ context.Context, convID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.convs[convID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	conv.IsClosed = true
	return nil
}

func (f *fakeConvRepo) TotalUnread(_ context.Context, userID uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int64
	for _, members := range f.members {
		for _, m := range members {
			if m.UserID == userID && m.DeletedAt == nil {
				total += int64(m.UnreadCount)
			}
		}
	}
	return total, nil
}

func (f *fakeConvRepo) CountByUser(_ context.Context, userID uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, members := range f.members {
		for _, m := range members {
			if m.UserID == userID && m.DeletedAt == nil {
				count++
			}
		}
	}
	return count, nil
}

func (f *fakeConvRepo) CountActiveByUser(_ context.Context, userID uint64, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for convID, members := range f.members {
		for _, m := range members {
			if m.UserID == userID && m.DeletedAt == nil && f.convs[convID].LastMessageAt.After(since) {
				count++
			}
		}
	}
	return count, nil
}

// fakeMessageRepo is an in-memory stand-in for the MongoDB message log.
type fakeMessageRepo struct {
	mu        sync.Mutex
	msgs      []*mongo.Message
	saveErr   error
	lastFlips int64
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (f *fakeMessageRepo) SaveMessage(_ context.Context, msg *mongo.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := *msg
	f.msgs = append(f.msgs, &cp)
	return nil
}

func (f *fakeMessageRepo) GetHistory(_ context.Context, convID uint64, clearedAt *time.Time, offset, limit int) ([]*mongo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var visible []*mongo.Message
	for i := len(f.msgs) - 1; i >= 0; i-- {
		m := f.msgs[i]
		if m.ConversationID != convID {
			continue
		}
		if clearedAt != nil && !m.CreatedAt.After(*clearedAt) {
			continue
		}
		visible = append(visible, m)
	}
	if offset >= len(visible) {
		return nil, nil
	}
	visible = visible[offset:]
	if limit > 0 && len(visible) > limit {
		visible = visible[:limit]
	}
	return visible, nil
}

func (f *fakeMessageRepo) MarkRead(_ context.Context, convID uint64, readerID uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var flipped int64
	for _, m := range f.msgs {
		if m.ConversationID == convID && m.SenderID != readerID && !m.IsRead {
			m.IsRead = true
			flipped++
		}
	}
	f.lastFlips = flipped
	return flipped, nil
}

func (f *fakeMessageRepo) flips() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastFlips
}

func (f *fakeMessageRepo) Search(_ context.Context, convID uint64, query string, clearedAt *time.Time) ([]*mongo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []*mongo.Message
	for _, m := range f.msgs {
		if m.ConversationID != convID || m.MsgType != mongo.MsgTypeText {
			continue
		}
		if clearedAt != nil && !m.CreatedAt.After(*clearedAt) {
			continue
		}
		if query != "" && !containsFold(m.Content, query) {
			continue
		}
		res = append(res, m)
	}
	return res, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// publishedEvent captures a single fan-out call.
type publishedEvent struct {
	UserID uint64
	Type   string
	Data   interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) PublishToUser(_ context.Context, userID uint64, eventType string, data interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{UserID: userID, Type: eventType, Data: data})
	return nil
}

func (f *fakePublisher) byType(eventType string) []publishedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []publishedEvent
	for _, e := range f.events {
		if e.Type == eventType {
			res = append(res, e)
		}
	}
	return res
}

// fakeCollab swallows all collaborator calls.
type fakeCollab struct {
	mu            sync.Mutex
	notifications []string
	reputations   []string
}

func (f *fakeCollab) CreateNotification(_ context.Context, _ uint64, notifyType, _, _, _ string, _ uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, notifyType)
	return nil
}

func (f *fakeCollab) UpdateReputation(_ context.Context, _ uint64, action string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reputations = append(f.reputations, action)
	return nil
}

func (f *fakeCollab) SendPush(_ context.Context, _ uint64, _, _ string, _ map[string]string) error {
	return nil
}

// fakeBookingRepo keeps bookings in memory; Transition applies the mutator directly.
type fakeBookingRepo struct {
	mu       sync.Mutex
	nextID   uint64
	bookings map[uint64]*model.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{nextID: 1, bookings: make(map[uint64]*model.Booking)}
}

func (f *fakeBookingRepo) Create(_ context.Context, booking *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking.ID = f.nextID
	f.nextID++
	f.bookings[booking.ID] = booking
	return nil
}

func (f *fakeBookingRepo) GetByID(_ context.Context, bookingID uint64) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[bookingID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return b, nil
}

func (f *fakeBookingRepo) ListByUser(_ context.Context, userID uint64, role string, status model.BookingStatus) ([]*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []*model.Booking
	for _, b := range f.bookings {
		switch role {
		case "customer":
			if b.CustomerID != userID {
				continue
			}
		case "provider":
			if b.ProviderID != userID {
				continue
			}
		default:
			if b.CustomerID != userID && b.ProviderID != userID {
				continue
			}
		}
		if status != "" && b.Status != status {
			continue
		}
		res = append(res, b)
	}
	return res, nil
}

func (f *fakeBookingRepo) Transition(_ context.Context, bookingID uint64, mutate func(b *model.Booking) error) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[bookingID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if err := mutate(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (f *fakeBookingRepo) StatsByCustomer(_ context.Context, _ uint64, _ time.Time) (*repository.BookingStats, error) {
	return &repository.BookingStats{}, nil
}

func (f *fakeBookingRepo) StatsByProvider(_ context.Context, _ uint64, _ time.Time) (*repository.BookingStats, error) {
	return &repository.BookingStats{}, nil
}

func (f *fakeBookingRepo) CountByStatusSince(_ context.Context, _ time.Time) (map[model.BookingStatus]int64, error) {
	return map[model.BookingStatus]int64{}, nil
}

// fakeServiceRepo serves a fixed catalog.
type fakeServiceRepo struct {
	services map[uint64]*model.Service
}

func (f *fakeServiceRepo) GetByID(_ context.Context, serviceID uint64) (*model.Service, error) {
	svc, ok := f.services[serviceID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return svc, nil
}

// fakeProfileRepo records earnings credits.
type fakeProfileRepo struct {
	mu       sync.Mutex
	earnings map[uint64]float64
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{earnings: make(map[uint64]float64)}
}

func (f *fakeProfileRepo) GetByUserID(_ context.Context, userID uint64) (*model.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &model.UserProfile{UserID: userID, TotalEarnings: f.earnings[userID]}, nil
}

func (f *fakeProfileRepo) AddEarnings(_ context.Context, userID uint64, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.earnings[userID] += amount
	return nil
}

func (f *fakeProfileRepo) TotalEarnings(_ context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total float64
	for _, v := range f.earnings {
		total += v
	}
	return total, nil
}

// fakeEventSink records booking lifecycle events.
type fakeEventSink struct {
	mu     sync.Mutex
	events []kafka.BookingEvent
}

func (f *fakeEventSink) PublishBookingEvent(_ context.Context, event kafka.BookingEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeEventSink) statuses() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []string
	for _, e := range f.events {
		res = append(res, e.Status)
	}
	return res
}

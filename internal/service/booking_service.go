package service

import (
	"ConectaYa/internal/api/dto"
	"ConectaYa/internal/model"
	"ConectaYa/internal/pkg/kafka"
	"ConectaYa/internal/pkg/springboot"
	"ConectaYa/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

// 预约动作落库到聊天流的系统文案（产品语言）
const (
	msgBookingAccepted  = "Solicitud aceptada. El servicio ha sido programado."
	msgBookingRejected  = "Solicitud rechazada."
	msgBookingStarted   = "Servicio iniciado. El proveedor ha comenzado el trabajo."
	msgBookingCompleted = "Servicio completado. ¡Gracias por confiar en nosotros!"
)

// BookingEventSink 预约生命周期事件出口，生产环境由 Kafka 生产者实现
type BookingEventSink interface {
	PublishBookingEvent(ctx context.Context, event kafka.BookingEvent)
}

// BookingService 预约服务接口定义
type BookingService interface {
	Create(ctx context.Context, customerID uint64, req *dto.CreateBookingReq) (*dto.BookingDTO, error)
	Get(ctx context.Context, userID, bookingID uint64) (*dto.BookingDTO, error)
	List(ctx context.Context, userID uint64, role string, status model.BookingStatus) ([]*dto.BookingDTO, error)

	Accept(ctx context.Context, userID, bookingID uint64) (*dto.BookingDTO, error)
	Reject(ctx context.Context, userID, bookingID uint64, reason string) (*dto.BookingDTO, error)
	Start(ctx context.Context, userID, bookingID uint64) (*dto.BookingDTO, error)
	Complete(ctx context.Context, userID, bookingID uint64) (*dto.BookingDTO, error)
	Cancel(ctx context.Context, userID, bookingID uint64, reason string) (*dto.BookingDTO, error)

	Stats(ctx context.Context, userID uint64, role string) (*dto.BookingStatsDTO, error)
}

type bookingServiceImpl struct {
	bookingRepo repository.BookingRepo
	serviceRepo repository.ServiceRepo
	profileRepo repository.UserProfileRepo
	chatSvc     ChatService
	collab      springboot.Client
	events      BookingEventSink
}

func NewBookingService(bookingRepo repository.BookingRepo, serviceRepo repository.ServiceRepo,
	profileRepo repository.UserProfileRepo, chatSvc ChatService,
	collab springboot.Client, events BookingEventSink) BookingService {
	return &bookingServiceImpl{
		bookingRepo: bookingRepo,
		serviceRepo: serviceRepo,
		profileRepo: profileRepo,
		chatSvc:     chatSvc,
		collab:      collab,
		events:      events,
	}
}

// Create 客户对某个服务发起预约，同时捕获价格快照并开出预约会话
func (s *bookingServiceImpl) Create(ctx context.Context, customerID uint64, req *dto.CreateBookingReq) (*dto.BookingDTO, error) {
	svc, err := s.serviceRepo.GetByID(ctx, req.ServiceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrServiceNotFound
	} else if err != nil {
		return nil, err
	}
	if svc.Status == model.ServiceRemoved {
		return nil, ErrServiceNotFound
	}
	if svc.ProviderID == customerID {
		return nil, ErrOwnService
	}

	price := svc.Price
	booking := &model.Booking{
		ServiceID:       svc.ID,
		CustomerID:      customerID,
		ProviderID:      svc.ProviderID,
		Status:          model.BookingPending,
		BookingTime:     req.BookingTime,
		BookingNotes:    req.BookingNotes,
		CustomerAddress: req.CustomerAddress,
		ServicePrice:    &price,
	}
	if req.BookingDate != nil {
		if d, perr := time.Parse("2006-01-02", *req.BookingDate); perr == nil {
			booking.BookingDate = &d
		}
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	if _, err := s.chatSvc.GetOrCreateByBooking(ctx, booking); err != nil {
		log.ErrorContext(ctx, "create booking conversation error", "booking_id", booking.ID, "err", err)
	}

	go func() {
		notifyCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.collab.CreateNotification(notifyCtx, booking.ProviderID, springboot.NotifyBookingRequest,
			"Nueva solicitud de servicio",
			fmt.Sprintf("Has recibido una nueva solicitud para %q", svc.Title),
			fmt.Sprintf("/bookings/%d", booking.ID), booking.ID)
	}()
	s.publishEvent(ctx, booking, customerID)

	return toBookingDTO(booking), nil
}

func (s *bookingServiceImpl) Get(ctx context.Context, userID, bookingID uint64) (*dto.BookingDTO, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookingNotFound
	} else if err != nil {
		return nil, err
	}
	if !booking.IsParticipant(userID) {
		return nil, ErrNotBookingActor
	}
	return toBookingDTO(booking), nil
}

func (s *bookingServiceImpl) List(ctx context.Context, userID uint64, role string, status model.BookingStatus) ([]*dto.BookingDTO, error) {
	bookings, err := s.bookingRepo.ListByUser(ctx, userID, role, status)
	if err != nil {
		return nil, err
	}
	res := make([]*dto.BookingDTO, 0, len(bookings))
	for _, b := range bookings {
		res = append(res, toBookingDTO(b))
	}
	return res, nil
}

// Accept 服务商接受请求：pending/negotiating -> accepted
func (s *bookingServiceImpl) Accept(ctx context.Context, userID, bookingID uint64) (*dto.BookingDTO, error) {
	booking, err := s.transition(ctx, bookingID, func(b *model.Booking) error {
		if userID != b.ProviderID {
			if !b.IsParticipant(userID) {
				return ErrNotBookingActor
			}
			return ErrOnlyProviderAccept
		}
		if !b.Status.CanTransitionTo(model.BookingAccepted) {
			return ErrInvalidTransition
		}
		now := time.Now()
		b.Status = model.BookingAccepted
		b.AcceptedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, booking, userID, model.ActionAccepted, msgBookingAccepted)
	s.notify(booking.CustomerID, springboot.NotifyBookingAccepted,
		"Solicitud aceptada", "Tu solicitud de servicio ha sido aceptada.", booking.ID)
	return toBookingDTO(booking), nil
}

// Reject 服务商拒绝请求：pending/negotiating -> rejected（终态，关闭会话）。
// 理由可选，给了就落库并带进系统消息
func (s *bookingServiceImpl) Reject(ctx context.Context, userID, bookingID uint64, reason string) (*dto.BookingDTO, error) {
	booking, err := s.transition(ctx, bookingID, func(b *model.Booking) error {
		if userID != b.ProviderID {
			if !b.IsParticipant(userID) {
				return ErrNotBookingActor
			}
			return ErrOnlyProviderReject
		}
		if !b.Status.CanTransitionTo(model.BookingRejected) {
			return ErrInvalidTransition
		}
		now := time.Now()
		b.Status = model.BookingRejected
		b.CanceledAt = &now
		b.CancellationReason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	content := msgBookingRejected
	if reason != "" {
		content = fmt.Sprintf("%s Motivo: %s", msgBookingRejected, reason)
	}
	s.afterTransition(ctx, booking, userID, model.ActionRejected, content)
	s.closeConversation(ctx, booking.ID, "rejected")
	s.notify(booking.CustomerID, springboot.NotifyBookingRejected,
		"Solicitud rechazada", "Tu solicitud de servicio ha sido rechazada.", booking.ID)
	return toBookingDTO(booking), nil
}

// Start 服务商开工：accepted -> in_progress
func (s *bookingServiceImpl) Start(ctx context.Context, userID, bookingID uint64) (*dto.BookingDTO, error) {
	booking, err := s.transition(ctx, bookingID, func(b *model.Booking) error {
		if userID != b.ProviderID {
			if !b.IsParticipant(userID) {
				return ErrNotBookingActor
			}
			return ErrOnlyProviderStart
		}
		if !b.Status.CanTransitionTo(model.BookingInProgress) {
			return ErrInvalidTransition
		}
		now := time.Now()
		b.Status = model.BookingInProgress
		b.InProgressAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, booking, userID, model.ActionInProgress, msgBookingStarted)
	return toBookingDTO(booking), nil
}

// Complete 服务商完结：accepted/in_progress -> completed，
// 随后按价格快照给服务商记账并给双方加信誉分
func (s *bookingServiceImpl) Complete(ctx context.Context, userID, bookingID uint64) (*dto.BookingDTO, error) {
	booking, err := s.transition(ctx, bookingID, func(b *model.Booking) error {
		if userID != b.ProviderID {
			if !b.IsParticipant(userID) {
				return ErrNotBookingActor
			}
			return ErrOnlyProviderFinish
		}
		if !b.Status.CanTransitionTo(model.BookingCompleted) {
			return ErrInvalidTransition
		}
		now := time.Now()
		b.Status = model.BookingCompleted
		b.CompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.creditEarnings(ctx, booking)

	s.afterTransition(ctx, booking, userID, model.ActionCompleted, msgBookingCompleted)
	s.closeConversation(ctx, booking.ID, "completed")
	s.notify(booking.CustomerID, springboot.NotifyBookingComplete,
		"Servicio completado", "El servicio ha sido completado. ¡Deja tu reseña!", booking.ID)

	go func() {
		repCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.collab.UpdateReputation(repCtx, booking.ProviderID, springboot.ReputationServiceCompleted)
		_ = s.collab.UpdateReputation(repCtx, booking.CustomerID, springboot.ReputationBookingCompleted)
	}()

	return toBookingDTO(booking), nil
}

// Cancel 取消：发起方决定终态，理由必填；准许的边全部来自迁移表
func (s *bookingServiceImpl) Cancel(ctx context.Context, userID, bookingID uint64, reason string) (*dto.BookingDTO, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}

	var target model.BookingStatus
	booking, err := s.transition(ctx, bookingID, func(b *model.Booking) error {
		if !b.IsParticipant(userID) {
			return ErrNotBookingActor
		}
		target = b.CancelTarget(userID)
		if !b.Status.CanTransitionTo(target) {
			return ErrInvalidTransition
		}
		now := time.Now()
		b.Status = target
		b.CanceledAt = &now
		b.CancellationReason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, booking, userID, model.ActionCanceled,
		fmt.Sprintf("Reserva cancelada. Motivo: %s", reason))
	s.closeConversation(ctx, booking.ID, "canceled")

	// 通知对手方，并对取消方做信誉扣减
	counterpart := booking.ProviderID
	repAction := springboot.ReputationBookingCanceled
	if userID == booking.ProviderID {
		counterpart = booking.CustomerID
		repAction = springboot.ReputationServiceCanceled
	}
	s.notify(counterpart, springboot.NotifyBookingCanceled,
		"Reserva cancelada", fmt.Sprintf("La reserva ha sido cancelada. Motivo: %s", reason), booking.ID)
	go func() {
		repCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.collab.UpdateReputation(repCtx, userID, repAction)
	}()

	return toBookingDTO(booking), nil
}

func (s *bookingServiceImpl) Stats(ctx context.Context, userID uint64, role string) (*dto.BookingStatsDTO, error) {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var stats *repository.BookingStats
	var err error
	if role == "provider" {
		stats, err = s.bookingRepo.StatsByProvider(ctx, userID, monthStart)
	} else {
		stats, err = s.bookingRepo.StatsByCustomer(ctx, userID, monthStart)
	}
	if err != nil {
		return nil, err
	}

	d := &dto.BookingStatsDTO{}
	_ = copier.Copy(d, stats)
	if d.Total > 0 {
		d.SuccessRate = float64(d.Completed) / float64(d.Total)
	}
	return d, nil
}

// transition 统一包装行锁迁移与 not found 映射
func (s *bookingServiceImpl) transition(ctx context.Context, bookingID uint64,
	mutate func(b *model.Booking) error) (*model.Booking, error) {
	booking, err := s.bookingRepo.Transition(ctx, bookingID, mutate)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookingNotFound
	} else if err != nil {
		return nil, err
	}
	return booking, nil
}

// afterTransition 迁移提交后的公共收尾：系统消息入聊天流 + 生命周期事件
func (s *bookingServiceImpl) afterTransition(ctx context.Context, booking *model.Booking,
	actorID uint64, action model.BookingAction, content string) {
	if err := s.chatSvc.AppendBookingMessage(ctx, booking.ID, action, content); err != nil {
		log.ErrorContext(ctx, "append booking message error", "booking_id", booking.ID, "action", action, "err", err)
	}
	s.publishEvent(ctx, booking, actorID)
}

func (s *bookingServiceImpl) publishEvent(ctx context.Context, booking *model.Booking, actorID uint64) {
	s.events.PublishBookingEvent(ctx, kafka.BookingEvent{
		BookingID:  booking.ID,
		Status:     string(booking.Status),
		ActorID:    actorID,
		OccurredAt: time.Now(),
	})
}

func (s *bookingServiceImpl) closeConversation(ctx context.Context, bookingID uint64, reason string) {
	if err := s.chatSvc.CloseByBooking(ctx, bookingID, reason); err != nil {
		log.ErrorContext(ctx, "close booking conversation error", "booking_id", bookingID, "err", err)
	}
}

func (s *bookingServiceImpl) notify(userID uint64, notifyType, title, message string, bookingID uint64) {
	go func() {
		notifyCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.collab.CreateNotification(notifyCtx, userID, notifyType, title, message,
			fmt.Sprintf("/bookings/%d", bookingID), bookingID)
	}()
}

// creditEarnings 完成结算：优先价格快照，缺失时回退服务当前价
func (s *bookingServiceImpl) creditEarnings(ctx context.Context, booking *model.Booking) {
	amount := 0.0
	if booking.ServicePrice != nil {
		amount = *booking.ServicePrice
	} else if svc, err := s.serviceRepo.GetByID(ctx, booking.ServiceID); err == nil {
		amount = svc.Price
	}
	if amount <= 0 {
		return
	}
	if err := s.profileRepo.AddEarnings(ctx, booking.ProviderID, amount); err != nil {
		log.ErrorContext(ctx, "credit provider earnings error", "booking_id", booking.ID, "amount", amount, "err", err)
	}
}

func toBookingDTO(b *model.Booking) *dto.BookingDTO {
	d := &dto.BookingDTO{}
	_ = copier.Copy(d, b)
	d.Status = string(b.Status)
	return d
}

package service

import (
	"ConectaYa/internal/api/dto"
	"ConectaYa/internal/model"
	"context"
	"strings"
	"testing"
)

type bookingFixture struct {
	bookingRepo *fakeBookingRepo
	convRepo    *fakeConvRepo
	profileRepo *fakeProfileRepo
	events      *fakeEventSink
	chatSvc     ChatService
	svc         BookingService
}

func newBookingFixture() *bookingFixture {
	bookingRepo := newFakeBookingRepo()
	convRepo := newFakeConvRepo()
	profileRepo := newFakeProfileRepo()
	events := &fakeEventSink{}
	collab := &fakeCollab{}

	serviceRepo := &fakeServiceRepo{services: map[uint64]*model.Service{
		7: {ID: 7, ProviderID: 2, Title: "Plomería a domicilio", Price: 50.00, Status: model.ServicePublished},
		8: {ID: 8, ProviderID: 2, Title: "Servicio retirado", Price: 10, Status: model.ServiceRemoved},
	}}

	chatSvc := NewChatService(convRepo, newFakeMessageRepo(), &fakePublisher{}, collab)
	svc := NewBookingService(bookingRepo, serviceRepo, profileRepo, chatSvc, collab, events)

	return &bookingFixture{
		bookingRepo: bookingRepo,
		convRepo:    convRepo,
		profileRepo: profileRepo,
		events:      events,
		chatSvc:     chatSvc,
		svc:         svc,
	}
}

func (f *bookingFixture) create(t *testing.T) *dto.BookingDTO {
	t.Helper()
	b, err := f.svc.Create(context.Background(), 1, &dto.CreateBookingReq{ServiceID: 7})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

func TestCreateBooking_CapturesPriceAndOpensConversation(t *testing.T) {
	f := newBookingFixture()

	b := f.create(t)
	if b.Status != string(model.BookingPending) {
		t.Fatalf("expected pending, got %s", b.Status)
	}
	if b.ServicePrice == nil || *b.ServicePrice != 50.00 {
		t.Fatalf("expected price snapshot 50.00, got %v", b.ServicePrice)
	}

	conv, err := f.convRepo.GetByBookingID(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("expected a conversation for the booking: %v", err)
	}
	if conv.IsClosed {
		t.Fatalf("fresh conversation must be open")
	}
}

func TestCreateBooking_Rejections(t *testing.T) {
	f := newBookingFixture()

	if _, err := f.svc.Create(context.Background(), 2, &dto.CreateBookingReq{ServiceID: 7}); err != ErrOwnService {
		t.Fatalf("expected ErrOwnService, got %v", err)
	}
	if _, err := f.svc.Create(context.Background(), 1, &dto.CreateBookingReq{ServiceID: 8}); err != ErrServiceNotFound {
		t.Fatalf("expected ErrServiceNotFound for removed service, got %v", err)
	}
	if _, err := f.svc.Create(context.Background(), 1, &dto.CreateBookingReq{ServiceID: 99}); err != ErrServiceNotFound {
		t.Fatalf("expected ErrServiceNotFound for unknown service, got %v", err)
	}
}

func TestAccept_OnlyProviderAndOnlyOnce(t *testing.T) {
	f := newBookingFixture()
	b := f.create(t)

	if _, err := f.svc.Accept(context.Background(), 1, b.ID); err != ErrOnlyProviderAccept {
		t.Fatalf("customer accept should fail, got %v", err)
	}
	if _, err := f.svc.Accept(context.Background(), 3, b.ID); err != ErrNotBookingActor {
		t.Fatalf("outsider accept should fail, got %v", err)
	}

	accepted, err := f.svc.Accept(context.Background(), 2, b.ID)
	if err != nil {
		t.Fatalf("provider accept: %v", err)
	}
	if accepted.Status != string(model.BookingAccepted) || accepted.AcceptedAt == nil {
		t.Fatalf("expected accepted with timestamp, got %s", accepted.Status)
	}

	firstAcceptedAt := *accepted.AcceptedAt
	if _, err := f.svc.Accept(context.Background(), 2, b.ID); err != ErrInvalidTransition {
		t.Fatalf("double accept should fail, got %v", err)
	}

	stored, _ := f.bookingRepo.GetByID(context.Background(), b.ID)
	if stored.AcceptedAt == nil || !stored.AcceptedAt.Equal(firstAcceptedAt) {
		t.Fatalf("accepted_at must not change on a failed transition")
	}
}

func TestReject_ClosesConversation(t *testing.T) {
	f := newBookingFixture()
	b := f.create(t)

	rejected, err := f.svc.Reject(context.Background(), 2, b.ID, "no disponible")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != string(model.BookingRejected) {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}
	if rejected.CancellationReason != "no disponible" {
		t.Fatalf("expected stored reject reason, got %q", rejected.CancellationReason)
	}

	conv, err := f.convRepo.GetByBookingID(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if !conv.IsClosed {
		t.Fatalf("conversation must be closed after reject")
	}

	// The system message carries the reject reason.
	msgs, err := f.chatSvc.GetMessages(context.Background(), 1, conv.ID, 0, 10)
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(msgs) == 0 || !strings.Contains(msgs[0].Content, "no disponible") {
		t.Fatalf("expected reject reason in the system message, got %+v", msgs)
	}

	// Closed conversation refuses new messages.
	_, err = f.chatSvc.SendMessage(context.Background(), 1, conv.ID, &dto.SendMessageReq{MsgType: "text", Content: "hola?"})
	if err != ErrConversationClosed {
		t.Fatalf("expected ErrConversationClosed, got %v", err)
	}
}

func TestComplete_FullFlowCreditsEarnings(t *testing.T) {
	f := newBookingFixture()
	b := f.create(t)

	if _, err := f.svc.Complete(context.Background(), 2, b.ID); err != ErrInvalidTransition {
		t.Fatalf("complete from pending should fail, got %v", err)
	}

	if _, err := f.svc.Accept(context.Background(), 2, b.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.Start(context.Background(), 2, b.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	completed, err := f.svc.Complete(context.Background(), 2, b.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != string(model.BookingCompleted) || completed.CompletedAt == nil {
		t.Fatalf("expected completed with timestamp, got %s", completed.Status)
	}

	// The provider is credited with the captured price, not the live one.
	if got := f.profileRepo.earnings[2]; got != 50.00 {
		t.Fatalf("expected provider earnings 50.00, got %.2f", got)
	}

	conv, _ := f.convRepo.GetByBookingID(context.Background(), b.ID)
	if !conv.IsClosed {
		t.Fatalf("conversation must be closed after complete")
	}

	statuses := f.events.statuses()
	want := []string{"pending", "accepted", "in_progress", "completed"}
	if len(statuses) != len(want) {
		t.Fatalf("expected %d lifecycle events, got %d", len(want), len(statuses))
	}
	for i, s := range want {
		if statuses[i] != s {
			t.Fatalf("event %d: expected %s, got %s", i, s, statuses[i])
		}
	}
}

func TestCancel_ReasonAndActorRules(t *testing.T) {
	f := newBookingFixture()
	b := f.create(t)

	if _, err := f.svc.Cancel(context.Background(), 1, b.ID, ""); err != ErrReasonRequired {
		t.Fatalf("expected ErrReasonRequired, got %v", err)
	}

	// The provider cannot cancel a pending request, only reject it.
	if _, err := f.svc.Cancel(context.Background(), 2, b.ID, "no puedo"); err != ErrInvalidTransition {
		t.Fatalf("provider cancel from pending should fail, got %v", err)
	}

	canceled, err := f.svc.Cancel(context.Background(), 1, b.ID, "ya no lo necesito")
	if err != nil {
		t.Fatalf("customer cancel: %v", err)
	}
	if canceled.Status != string(model.BookingCanceledByCustomer) {
		t.Fatalf("expected canceled_by_customer, got %s", canceled.Status)
	}
	if canceled.CancellationReason != "ya no lo necesito" {
		t.Fatalf("expected reason to be stored, got %q", canceled.CancellationReason)
	}

	conv, _ := f.convRepo.GetByBookingID(context.Background(), b.ID)
	if !conv.IsClosed {
		t.Fatalf("conversation must be closed after cancel")
	}

	// Terminal state: no further actions.
	if _, err := f.svc.Accept(context.Background(), 2, b.ID); err != ErrInvalidTransition {
		t.Fatalf("accept after cancel should fail, got %v", err)
	}
}

func TestCancel_ProviderInProgress(t *testing.T) {
	f := newBookingFixture()
	b := f.create(t)

	if _, err := f.svc.Accept(context.Background(), 2, b.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.Start(context.Background(), 2, b.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	// The customer can no longer cancel once work started.
	if _, err := f.svc.Cancel(context.Background(), 1, b.ID, "cambié de opinión"); err != ErrInvalidTransition {
		t.Fatalf("customer cancel in progress should fail, got %v", err)
	}

	canceled, err := f.svc.Cancel(context.Background(), 2, b.ID, "emergencia")
	if err != nil {
		t.Fatalf("provider cancel: %v", err)
	}
	if canceled.Status != string(model.BookingCanceledByProvider) {
		t.Fatalf("expected canceled_by_provider, got %s", canceled.Status)
	}
}

func TestGet_ParticipantOnly(t *testing.T) {
	f := newBookingFixture()
	b := f.create(t)

	if _, err := f.svc.Get(context.Background(), 3, b.ID); err != ErrNotBookingActor {
		t.Fatalf("outsider read should fail, got %v", err)
	}
	if _, err := f.svc.Get(context.Background(), 1, b.ID); err != nil {
		t.Fatalf("customer read: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), 1, 999); err != ErrBookingNotFound {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
}

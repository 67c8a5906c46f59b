package model

import "testing"

func TestCanTransitionTo_AllowedEdges(t *testing.T) {
	cases := []struct {
		from BookingStatus
		to   BookingStatus
		ok   bool
	}{
		{BookingPending, BookingAccepted, true},
		{BookingPending, BookingRejected, true},
		{BookingPending, BookingCanceledByCustomer, true},
		{BookingPending, BookingCanceledByProvider, false},
		{BookingPending, BookingInProgress, false},
		{BookingPending, BookingCompleted, false},

		{BookingNegotiating, BookingAccepted, true},
		{BookingNegotiating, BookingCanceledByCustomer, true},
		{BookingNegotiating, BookingCanceledByProvider, true},

		{BookingAccepted, BookingInProgress, true},
		{BookingAccepted, BookingCompleted, true},
		{BookingAccepted, BookingCanceledByCustomer, true},
		{BookingAccepted, BookingCanceledByProvider, true},
		{BookingAccepted, BookingRejected, false},
		{BookingAccepted, BookingPending, false},

		{BookingInProgress, BookingCompleted, true},
		{BookingInProgress, BookingCanceledByProvider, true},
		{BookingInProgress, BookingCanceledByCustomer, false},
	}

	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.ok {
			t.Fatalf("%s -> %s: expected %v, got %v", c.from, c.to, c.ok, got)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	terminals := []BookingStatus{
		BookingCompleted,
		BookingCanceledByCustomer,
		BookingCanceledByProvider,
		BookingRejected,
	}
	all := []BookingStatus{
		BookingPending, BookingNegotiating, BookingAccepted, BookingInProgress,
		BookingCompleted, BookingCanceledByCustomer, BookingCanceledByProvider, BookingRejected,
	}

	for _, from := range terminals {
		if !from.IsTerminal() {
			t.Fatalf("%s should be terminal", from)
		}
		for _, to := range all {
			if from.CanTransitionTo(to) {
				t.Fatalf("terminal %s must not transition to %s", from, to)
			}
		}
	}

	for _, s := range []BookingStatus{BookingPending, BookingNegotiating, BookingAccepted, BookingInProgress} {
		if s.IsTerminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}

func TestCancelTarget(t *testing.T) {
	b := &Booking{CustomerID: 1, ProviderID: 2}

	if got := b.CancelTarget(1); got != BookingCanceledByCustomer {
		t.Fatalf("customer cancel: expected canceled_by_customer, got %s", got)
	}
	if got := b.CancelTarget(2); got != BookingCanceledByProvider {
		t.Fatalf("provider cancel: expected canceled_by_provider, got %s", got)
	}
}

func TestIsParticipant(t *testing.T) {
	b := &Booking{CustomerID: 1, ProviderID: 2}

	if !b.IsParticipant(1) || !b.IsParticipant(2) {
		t.Fatalf("both parties must be participants")
	}
	if b.IsParticipant(3) {
		t.Fatalf("outsider must not be a participant")
	}
}

package order

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestTransitionStatus(t *testing.T) {
	cases := []struct {
		name    string
		from    string
		to      string
		wantErr bool
	}{
		{name: "pendingToConfirmed", from: StatusPending, to: StatusConfirmed},
		{name: "confirmedToPreparing", from: StatusConfirmed, to: StatusPreparing},
		{name: "preparingToReady", from: StatusPreparing, to: StatusReady},
		{name: "readyToDelivered", from: StatusReady, to: StatusDelivered},
		{name: "pendingSkipsToDelivered", from: StatusPending, to: StatusDelivered},
		{name: "confirmedSkipsToReady", from: StatusConfirmed, to: StatusReady},
		{name: "pendingCancelled", from: StatusPending, to: StatusCancelled},
		{name: "readyCancelled", from: StatusReady, to: StatusCancelled},
		{name: "backwardRejected", from: StatusReady, to: StatusConfirmed, wantErr: true},
		{name: "confirmedBackToPending", from: StatusConfirmed, to: StatusPending, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := NewOrder()
			order.Status = tc.from

			err := order.TransitionStatus(tc.to)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidOrderTransition) {
					t.Fatalf("expected invalid transition error, got %v", err)
				}
				if order.Status != tc.from {
					t.Fatalf("status changed on rejected transition: %s", order.Status)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if order.Status != tc.to {
				t.Fatalf("expected status %s, got %s", tc.to, order.Status)
			}
		})
	}
}

func TestTerminalOrdersAreFrozen(t *testing.T) {
	t.Run("deliveredRejectsStatusChange", func(t *testing.T) {
		order := NewOrder()
		order.Status = StatusDelivered

		if err := order.TransitionStatus(StatusCancelled); !errors.Is(err, ErrOrderTerminal) {
			t.Fatalf("expected terminal error, got %v", err)
		}
	})

	t.Run("cancelledRejectsPayment", func(t *testing.T) {
		order := NewOrder()
		order.Status = StatusCancelled

		if err := order.TransitionPayment(PaymentPaid, "cash"); !errors.Is(err, ErrOrderTerminal) {
			t.Fatalf("expected terminal error, got %v", err)
		}
	})

	t.Run("paidRejectsMove", func(t *testing.T) {
		order := NewOrder()
		order.PaymentStatus = PaymentPaid

		if err := order.MoveToTable(uuid.New()); !errors.Is(err, ErrOrderTerminal) {
			t.Fatalf("expected terminal error, got %v", err)
		}
	})
}

func TestTransitionPayment(t *testing.T) {
	order := NewOrder()

	if err := order.TransitionPayment(PaymentPartial, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.PaymentStatus != PaymentPartial {
		t.Fatalf("expected partial, got %s", order.PaymentStatus)
	}

	if err := order.TransitionPayment(PaymentPaid, "card"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.PaymentMethod != "card" {
		t.Fatalf("expected payment method card, got %s", order.PaymentMethod)
	}

	if !order.IsTerminal() {
		t.Fatal("paid order should be terminal")
	}
}

func TestPaymentSettlesAfterDelivery(t *testing.T) {
	order := NewOrder()
	order.Status = StatusDelivered

	if err := order.TransitionPayment(PaymentPaid, "cash"); err != nil {
		t.Fatalf("delivered orders must accept settlement: %v", err)
	}
	if order.PaymentStatus != PaymentPaid || order.PaymentMethod != "cash" {
		t.Fatalf("expected paid by cash, got %s/%s", order.PaymentStatus, order.PaymentMethod)
	}

	cancelled := NewOrder()
	cancelled.Status = StatusCancelled
	if err := cancelled.TransitionPayment(PaymentPaid, "cash"); !errors.Is(err, ErrOrderTerminal) {
		t.Fatalf("cancelled orders must reject payment, got %v", err)
	}
}

func TestComputeTotals(t *testing.T) {
	order := NewOrder()
	order.Items = []LineItem{
		{Name: "Margherita", UnitPrice: 12.5, Quantity: 2},
		{Name: "Espresso", UnitPrice: 3, Quantity: 1},
	}
	order.Tax = 2.8
	order.Discount = 1.3

	order.ComputeTotals()

	if order.Subtotal != 28 {
		t.Fatalf("expected subtotal 28, got %v", order.Subtotal)
	}
	if order.TotalAmount != 29.5 {
		t.Fatalf("expected total 29.5, got %v", order.TotalAmount)
	}
}

func TestMoveToTable(t *testing.T) {
	order := NewOrder()
	target := uuid.New()

	if err := order.MoveToTable(target); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.TableID == nil || *order.TableID != target {
		t.Fatal("expected table reference to be updated")
	}
}

func TestRefChecker(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepo()
	tableID := uuid.New()

	checker := NewRefChecker(repo)

	active, err := checker.HasActiveOrders(ctx, tableID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active {
		t.Fatal("expected no active orders")
	}

	open := NewOrder()
	open.TableID = &tableID
	open.BeforeCreate()
	if err := repo.Create(ctx, open); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active, err = checker.HasActiveOrders(ctx, tableID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !active {
		t.Fatal("expected active orders for the table")
	}

	open.Status = StatusDelivered
	if err := repo.Save(ctx, open); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active, err = checker.HasActiveOrders(ctx, tableID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active {
		t.Fatal("delivered orders should not count as active")
	}
}

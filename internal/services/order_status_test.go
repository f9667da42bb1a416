package services

import (
	"context"
	"testing"

	"golang.org/x/text/language"

	domain "github.com/bookshelf-ua/api/internal/domain"
	"github.com/bookshelf-ua/api/internal/platform/requestctx"
)

func TestOrderStatusResolverTable(t *testing.T) {
	tracking := "20450000000001"
	blank := "  "
	resolver := NewOrderStatusResolver()

	cases := []struct {
		name       string
		order      domain.Order
		selfPickup bool
		code       domain.OrderStatusCode
		index      int
	}{
		{name: "canceled wins over everything", order: domain.Order{IsCanceled: true, IsConfirmed: true, IsPaid: true, IsSent: true, IsDone: true}, code: domain.OrderStatusCanceled, index: 0},
		{name: "unconfirmed", order: domain.Order{}, code: domain.OrderStatusAwaitingConfirmation, index: 1},
		{name: "confirmed unpaid self pickup", order: domain.Order{IsConfirmed: true}, selfPickup: true, code: domain.OrderStatusReadyForPickup, index: 2},
		{name: "confirmed unpaid shipping", order: domain.Order{IsConfirmed: true}, code: domain.OrderStatusAwaitingPayment, index: 1},
		{name: "paid no tracking", order: domain.Order{IsConfirmed: true, IsPaid: true}, code: domain.OrderStatusPaidAwaitingShipment, index: 2},
		{name: "paid blank tracking", order: domain.Order{IsConfirmed: true, IsPaid: true, TrackingNumber: &blank}, code: domain.OrderStatusPaidAwaitingShipment, index: 2},
		{name: "paid tracking self pickup", order: domain.Order{IsConfirmed: true, IsPaid: true, TrackingNumber: &tracking}, selfPickup: true, code: domain.OrderStatusPaidAwaitingShipment, index: 2},
		{name: "partly paid", order: domain.Order{IsConfirmed: true, IsPartlyPaid: true}, code: domain.OrderStatusPartlyPaidAwaitingShipment, index: 2},
		{name: "paid with tracking", order: domain.Order{IsConfirmed: true, IsPaid: true, TrackingNumber: &tracking}, code: domain.OrderStatusTrackingCreated, index: 3},
		{name: "partly paid with tracking", order: domain.Order{IsConfirmed: true, IsPartlyPaid: true, TrackingNumber: &tracking}, code: domain.OrderStatusTrackingCreated, index: 3},
		{name: "completed", order: domain.Order{IsConfirmed: true, IsPaid: true, IsSent: true, IsDone: true, TrackingNumber: &tracking}, code: domain.OrderStatusCompleted, index: 5},
		{name: "shipped", order: domain.Order{IsConfirmed: true, IsPaid: true, IsSent: true}, code: domain.OrderStatusShipped, index: 4},
		{name: "shipped awaiting balance", order: domain.Order{IsConfirmed: true, IsPartlyPaid: true, IsSent: true}, code: domain.OrderStatusShippedAwaitingBalance, index: 4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := resolver.Resolve(tc.order, tc.selfPickup)
			if got.Code != tc.code || got.Index != tc.index {
				t.Fatalf("expected %s/%d, got %s/%d", tc.code, tc.index, got.Code, got.Index)
			}
			if got.Label == "" {
				t.Fatalf("expected label for %s", got.Code)
			}
		})
	}
}

func TestOrderStatusResolverFallback(t *testing.T) {
	// No rule matches an empty table; the resolver must still return Processing.
	resolver := &orderStatusResolver{}
	got := resolver.Resolve(domain.Order{IsConfirmed: true}, false)
	if got.Code != domain.OrderStatusProcessing || got.Index != 1 {
		t.Fatalf("expected processing fallback, got %+v", got)
	}
}

func TestOrderStatusResolverIsTotal(t *testing.T) {
	resolver := NewOrderStatusResolver()
	tracking := "x"
	for mask := 0; mask < 1<<8; mask++ {
		order := domain.Order{
			IsCanceled:   mask&1 != 0,
			IsConfirmed:  mask&2 != 0,
			IsPaid:       mask&4 != 0,
			IsPartlyPaid: mask&8 != 0,
			IsSent:       mask&16 != 0,
			IsDone:       mask&32 != 0,
		}
		if mask&64 != 0 {
			order.TrackingNumber = &tracking
		}
		got := resolver.Resolve(order, mask&128 != 0)
		if got.Code == "" || got.Label == "" {
			t.Fatalf("mask %08b resolved to empty status", mask)
		}
		if got.Index < 0 || got.Index > 5 {
			t.Fatalf("mask %08b resolved to index %d", mask, got.Index)
		}
	}
}

func TestOrderStatusResolverLocalisesLabel(t *testing.T) {
	resolver := NewOrderStatusResolver()
	order := domain.Order{IsConfirmed: true, Delivery: domain.Delivery{Method: domain.DeliveryMethodSelfPickup}}

	ctx := requestctx.WithLanguage(context.Background(), language.Ukrainian)
	got := resolver.ResolveOrder(ctx, order)
	if got.Code != domain.OrderStatusReadyForPickup {
		t.Fatalf("expected ready for pickup from delivery method, got %s", got.Code)
	}
	if got.Label != "Готове до самовивозу" {
		t.Fatalf("expected ukrainian label, got %q", got.Label)
	}

	got = resolver.ResolveOrder(context.Background(), order)
	if got.Label != "Ready for pickup" {
		t.Fatalf("expected english label by default, got %q", got.Label)
	}
}

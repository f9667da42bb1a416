package services

import (
	"context"
	"strings"

	domain "github.com/bookshelf-ua/api/internal/domain"
	"github.com/bookshelf-ua/api/internal/platform/i18n"
	"github.com/bookshelf-ua/api/internal/platform/requestctx"
)

// orderStatusRule is one row of the priority table; rules are evaluated in order and the first
// match wins.
type orderStatusRule struct {
	matches func(o domain.Order, selfPickup bool) bool
	status  func(o domain.Order, selfPickup bool) domain.OrderStatus
}

func fixedStatus(code domain.OrderStatusCode, label string, index int) func(domain.Order, bool) domain.OrderStatus {
	status := domain.OrderStatus{Code: code, Label: label, Index: index}
	return func(domain.Order, bool) domain.OrderStatus { return status }
}

var processingStatus = domain.OrderStatus{Code: domain.OrderStatusProcessing, Label: "Processing", Index: 1}

var orderStatusRules = []orderStatusRule{
	{
		matches: func(o domain.Order, _ bool) bool { return o.IsCanceled },
		status:  fixedStatus(domain.OrderStatusCanceled, "Canceled", 0),
	},
	{
		matches: func(o domain.Order, _ bool) bool { return !o.IsConfirmed },
		status:  fixedStatus(domain.OrderStatusAwaitingConfirmation, "Awaiting confirmation", 1),
	},
	{
		matches: func(o domain.Order, _ bool) bool { return !o.IsPaid && !o.IsPartlyPaid },
		status: func(_ domain.Order, selfPickup bool) domain.OrderStatus {
			if selfPickup {
				return domain.OrderStatus{Code: domain.OrderStatusReadyForPickup, Label: "Ready for pickup", Index: 2}
			}
			return domain.OrderStatus{Code: domain.OrderStatusAwaitingPayment, Label: "Awaiting payment", Index: 1}
		},
	},
	{
		matches: func(o domain.Order, selfPickup bool) bool {
			return o.IsPaid && !o.IsSent && (!hasTracking(o) || selfPickup)
		},
		status: fixedStatus(domain.OrderStatusPaidAwaitingShipment, "Paid, awaiting pickup/shipment", 2),
	},
	{
		matches: func(o domain.Order, selfPickup bool) bool {
			return o.IsPartlyPaid && !o.IsSent && (!hasTracking(o) || selfPickup)
		},
		status: fixedStatus(domain.OrderStatusPartlyPaidAwaitingShipment, "Partial payment made, awaiting pickup/shipment", 2),
	},
	{
		matches: func(o domain.Order, _ bool) bool { return hasTracking(o) && !o.IsSent },
		status:  fixedStatus(domain.OrderStatusTrackingCreated, "Tracking number created, awaiting shipment", 3),
	},
	{
		matches: func(o domain.Order, _ bool) bool { return o.IsSent && o.IsDone },
		status:  fixedStatus(domain.OrderStatusCompleted, "Completed", 5),
	},
	{
		matches: func(o domain.Order, _ bool) bool { return o.IsSent && !o.IsDone },
		status: func(o domain.Order, _ bool) domain.OrderStatus {
			if o.IsPartlyPaid {
				return domain.OrderStatus{Code: domain.OrderStatusShippedAwaitingBalance, Label: "Shipped, awaiting balance", Index: 4}
			}
			return domain.OrderStatus{Code: domain.OrderStatusShipped, Label: "Shipped", Index: 4}
		},
	},
}

func hasTracking(o domain.Order) bool {
	return o.TrackingNumber != nil && strings.TrimSpace(*o.TrackingNumber) != ""
}

// IsSelfPickup reports whether the order is collected from the shop.
func IsSelfPickup(o domain.Order) bool {
	return o.Delivery.Method == domain.DeliveryMethodSelfPickup
}

type orderStatusResolver struct {
	rules []orderStatusRule
}

// NewOrderStatusResolver returns the table driven resolver.
func NewOrderStatusResolver() OrderStatusResolver {
	return &orderStatusResolver{rules: orderStatusRules}
}

// Resolve evaluates the rule table. Flag combinations no rule covers resolve to Processing.
func (r *orderStatusResolver) Resolve(order Order, selfPickup bool) OrderStatus {
	for _, rule := range r.rules {
		if rule.matches(order, selfPickup) {
			return rule.status(order, selfPickup)
		}
	}
	return processingStatus
}

func (r *orderStatusResolver) ResolveOrder(ctx context.Context, order Order) OrderStatus {
	status := r.Resolve(order, IsSelfPickup(order))
	status.Label = i18n.Translate(requestctx.Language(ctx), status.Label)
	return status
}

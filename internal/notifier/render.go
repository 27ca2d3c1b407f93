package notifier

import (
	"fmt"

	"github.com/abgdnv/storefront/pkg/messaging/events"
)

// renderOrderCreated produces the purchaser confirmation and one admin
// alert per administrator account.
func renderOrderCreated(e events.OrderCreatedEvent) []Message {
	messages := []Message{{
		To:      e.Customer,
		Subject: fmt.Sprintf("Order %s confirmed", e.OrderID),
		Body: fmt.Sprintf("Hi %s, your order %s for %d has been placed. We will let you know when it ships.",
			e.Customer.Name, e.OrderID, e.TotalAmount),
	}}
	for _, admin := range e.Admins {
		messages = append(messages, Message{
			To:      admin,
			Subject: fmt.Sprintf("New order %s", e.OrderID),
			Body:    fmt.Sprintf("Order %s was placed by user %s, total %d.", e.OrderID, e.UserID, e.TotalAmount),
		})
	}
	return messages
}

func renderOrderCancelled(e events.OrderCancelledEvent) []Message {
	messages := []Message{{
		To:      e.Customer,
		Subject: fmt.Sprintf("Order %s cancelled", e.OrderID),
		Body:    fmt.Sprintf("Hi %s, your order %s has been cancelled and the items were returned to stock.", e.Customer.Name, e.OrderID),
	}}
	for _, admin := range e.Admins {
		messages = append(messages, Message{
			To:      admin,
			Subject: fmt.Sprintf("Order %s cancelled", e.OrderID),
			Body:    fmt.Sprintf("Order %s of user %s was cancelled.", e.OrderID, e.UserID),
		})
	}
	return messages
}

func renderStatusChanged(e events.OrderStatusChangedEvent) []Message {
	return []Message{{
		To:      e.Customer,
		Subject: fmt.Sprintf("Order %s is now %s", e.OrderID, e.NewStatus),
		Body: fmt.Sprintf("Hi %s, your order %s moved from %s to %s.",
			e.Customer.Name, e.OrderID, e.PreviousStatus, e.NewStatus),
	}}
}

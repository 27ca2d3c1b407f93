// Package events contains the order lifecycle events published by the
// storefront core. Each event carries the notification targets resolved at
// publish time, so the worker never has to query the account store.
package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/google/uuid"
)

// Recipient is a notification target.
type Recipient struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
}

type OrderCreatedEvent struct {
	OrderID     uuid.UUID   `json:"order_id"`
	UserID      uuid.UUID   `json:"user_id"`
	TotalAmount int64       `json:"total_amount"`
	Customer    Recipient   `json:"customer"`
	Admins      []Recipient `json:"admins"`
	CreatedAt   time.Time   `json:"created_at"`
}

func (o OrderCreatedEvent) Subject() string {
	return messaging.OrdersCreatedSubject
}

func (o OrderCreatedEvent) Payload() ([]byte, error) {
	return json.Marshal(o)
}

type OrderCancelledEvent struct {
	OrderID     uuid.UUID   `json:"order_id"`
	UserID      uuid.UUID   `json:"user_id"`
	Customer    Recipient   `json:"customer"`
	Admins      []Recipient `json:"admins"`
	CancelledAt time.Time   `json:"cancelled_at"`
}

func (o OrderCancelledEvent) Subject() string {
	return messaging.OrdersCancelledSubject
}

func (o OrderCancelledEvent) Payload() ([]byte, error) {
	return json.Marshal(o)
}

type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID `json:"order_id"`
	UserID         uuid.UUID `json:"user_id"`
	Customer       Recipient `json:"customer"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	ChangedAt      time.Time `json:"changed_at"`
}

func (o OrderStatusChangedEvent) Subject() string {
	return messaging.OrdersStatusChangedSubject
}

func (o OrderStatusChangedEvent) Payload() ([]byte, error) {
	return json.Marshal(o)
}

// Package messaging defines the event contract between the storefront core
// and the notification worker.
package messaging

import (
	"context"
)

const (
	// OrdersStreamName is the JetStream stream holding all order events.
	OrdersStreamName = "ORDERS"

	OrdersCreatedSubject       = "orders.created"
	OrdersCancelledSubject     = "orders.cancelled"
	OrdersStatusChangedSubject = "orders.status_changed"

	// OrdersSubjectWildcard matches every order event subject.
	OrdersSubjectWildcard = "orders.>"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

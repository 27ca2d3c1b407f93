package order

// Status is an order's fulfillment status.
type Status string

const (
	StatusPlaced     Status = "placed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// forwardRank orders the forward statuses. Cancelled is deliberately absent:
// it is reachable only through Cancel and is terminal.
var forwardRank = map[Status]int{
	StatusPlaced:     0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := forwardRank[s]
	return ok
}

// CanUpdateTo reports whether an administrator may move an order from s to
// next. Transitions are strictly forward; intermediate statuses may be
// skipped. No-op, backward, and any transition touching cancelled are
// rejected.
func (s Status) CanUpdateTo(next Status) bool {
	from, ok := forwardRank[s]
	if !ok {
		return false
	}
	to, ok := forwardRank[next]
	if !ok {
		return false
	}
	return to > from
}

// Cancellable reports whether an order in status s may still be cancelled.
// Shipped, delivered and cancelled orders are terminal for cancellation.
func (s Status) Cancellable() bool {
	return s == StatusPlaced || s == StatusProcessing
}

// PaymentStatus is an order's payment state, orthogonal to Status.
// It moves pending to paid and never back.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// PaymentMethod is the payment instrument chosen at checkout.
type PaymentMethod string

const (
	PaymentCOD PaymentMethod = "cod"
	PaymentUPI PaymentMethod = "upi"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentUPI
}

package order

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/storefront/internal/account"
	"github.com/abgdnv/storefront/internal/catalog"
	storeerrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/abgdnv/storefront/internal/inventory"
	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/abgdnv/storefront/pkg/messaging/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/google/uuid"
)

// OrderService defines the methods for managing the order lifecycle.
// It abstracts the underlying business logic and data access.
type OrderService interface {
	// FindByID retrieves a single order by its unique identifier. The caller
	// must own the order or be an administrator.
	// Returns ErrOrderNotFound if no order exists with the given ID.
	FindByID(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*OrderDto, error)

	// FindByUserID returns a page of the user's own orders, newest first.
	FindByUserID(ctx context.Context, userID uuid.UUID, offset, limit int32) ([]OrderDto, error)

	// Create places a new order: checks stock for every line item, reserves
	// inventory, persists the order in placed/pending state and dispatches
	// the order-confirmation event.
	Create(ctx context.Context, order CreateDto) (*OrderDto, error)

	// MarkPaid records payment confirmation for an order, optionally
	// overwriting the payment method.
	MarkPaid(ctx context.Context, id uuid.UUID, method PaymentMethod) (*OrderDto, error)

	// Cancel cancels an order on behalf of its owner or an administrator,
	// restocking every line item exactly once.
	Cancel(ctx context.Context, id uuid.UUID, requestingUserID uuid.UUID) (*OrderDto, error)

	// UpdateStatus moves an order forward through the fulfillment statuses.
	// Administrator only; cancellation goes through Cancel.
	UpdateStatus(ctx context.Context, id uuid.UUID, newStatus Status, requestingUserID uuid.UUID) (*OrderDto, error)
}

// CatalogStore is the slice of the catalog store the order flow reads:
// price/name/stock snapshots for the products being ordered.
type CatalogStore interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error)
}

// AccountStore is the slice of the account store the order flow reads:
// the purchaser's identity and the administrator set.
type AccountStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*account.User, error)
	FindByRole(ctx context.Context, role account.Role) ([]account.User, error)
}

// Service implements OrderService.
type Service struct {
	orders    Store
	ledger    inventory.Ledger
	catalog   CatalogStore
	accounts  AccountStore
	publisher messaging.Publisher

	ordersCreated   metric.Int64Counter
	ordersCancelled metric.Int64Counter
}

// NewService creates a new instance of OrderService with the provided collaborators.
func NewService(orders Store, ledger inventory.Ledger, catalogStore CatalogStore, accounts AccountStore, publisher messaging.Publisher) *Service {
	meter := otel.Meter("storefront")
	ordersCreated, err := meter.Int64Counter("orders_created", metric.WithDescription("Total number of created orders"))
	if err != nil {
		panic(fmt.Sprintf("failed to create orders_created counter: %v", err))
	}
	ordersCancelled, err := meter.Int64Counter("orders_cancelled", metric.WithDescription("Total number of cancelled orders"))
	if err != nil {
		panic(fmt.Sprintf("failed to create orders_cancelled counter: %v", err))
	}
	return &Service{
		orders:          orders,
		ledger:          ledger,
		catalog:         catalogStore,
		accounts:        accounts,
		publisher:       publisher,
		ordersCreated:   ordersCreated,
		ordersCancelled: ordersCancelled,
	}
}

// AddressDto represents a delivery address.
type AddressDto struct {
	Street     string `json:"street"      validate:"required"`
	City       string `json:"city"        validate:"required"`
	State      string `json:"state"       validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country"     validate:"required"`
}

// OrderDto represents the data transfer object for an order.
// Version is read-only and used for optimistic concurrency control.
type OrderDto struct {
	ID            uuid.UUID      `json:"id"`
	UserID        uuid.UUID      `json:"user_id"`
	Status        Status         `json:"status"`
	PaymentStatus PaymentStatus  `json:"payment_status"`
	PaymentMethod PaymentMethod  `json:"payment_method"`
	TotalAmount   int64          `json:"total_amount"`
	Address       *AddressDto    `json:"address,omitempty"`
	Version       int32          `json:"version"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
	Items         []OrderItemDto `json:"items,omitempty"`
}

// OrderItemDto represents a single order line with its creation-time snapshots.
type OrderItemDto struct {
	ID          uuid.UUID `json:"id"`
	OrderID     uuid.UUID `json:"order_id"`
	ProductID   uuid.UUID `json:"product_id"`
	Quantity    int32     `json:"quantity"`
	UnitPrice   int64     `json:"unit_price"`
	ProductName string    `json:"product_name"`
}

// CreateDto represents the data transfer object for placing a new order.
type CreateDto struct {
	UserID        uuid.UUID       `json:"user_id"        validate:"required"`
	Items         []ItemCreateDto `json:"items"          validate:"required,gt=0,dive"`
	TotalAmount   int64           `json:"total_amount"   validate:"min=0"`
	Address       *AddressDto     `json:"address,omitempty"`
	PaymentMethod PaymentMethod   `json:"payment_method" validate:"required,oneof=cod upi"`
}

// ItemCreateDto represents a requested order line.
type ItemCreateDto struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int32     `json:"quantity"   validate:"required,min=1"`
}

// FindByID retrieves an order by its ID and returns it as an OrderDto.
// Returns ErrOrderNotFound if no order exists with the given ID and
// ErrAccessDenied if the caller is neither owner nor administrator.
func (s *Service) FindByID(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*OrderDto, error) {
	order, items, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		admin, err := s.isAdmin(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, storeerrors.ErrAccessDenied
		}
	}

	return toDto(order, items), nil
}

// FindByUserID retrieves a page of the user's orders as OrderDtos.
func (s *Service) FindByUserID(ctx context.Context, userID uuid.UUID, offset, limit int32) ([]OrderDto, error) {
	orders, err := s.orders.FindByUserID(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]OrderDto, len(orders))
	for i, o := range orders {
		dtos[i] = *toDto(&o, nil)
	}
	return dtos, nil
}

// Create places a new order.
//
// The availability of every line item is checked before any stock moves.
// Stock is then reserved item by item through the ledger's conditional
// delta; a reservation that loses a concurrent race is compensated by
// restocking whatever was already taken, so a failed create never leaks
// stock. The order row is persisted only after all reservations succeeded.
func (s *Service) Create(ctx context.Context, order CreateDto) (*OrderDto, error) {
	if len(order.Items) == 0 {
		return nil, fmt.Errorf("order has no line items: %w", storeerrors.ErrValidation)
	}
	for _, item := range order.Items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("quantity for product %s must be positive: %w", item.ProductID, storeerrors.ErrValidation)
		}
	}
	if order.TotalAmount < 0 {
		return nil, fmt.Errorf("total amount must not be negative: %w", storeerrors.ErrValidation)
	}
	if !order.PaymentMethod.Valid() {
		return nil, fmt.Errorf("unknown payment method %q: %w", order.PaymentMethod, storeerrors.ErrValidation)
	}

	purchaser, err := s.accounts.FindByID(ctx, order.UserID)
	if err != nil {
		return nil, err
	}

	// Fetch price/name/stock for all requested products and pre-check
	// availability for every line item before any mutation.
	products, err := s.fetchProducts(ctx, order.Items)
	if err != nil {
		return nil, err
	}
	for _, item := range order.Items {
		available := products[item.ProductID].StockQuantity
		if available < item.Quantity {
			message := fmt.Sprintf("product %s. Available: %d, Requested: %d", item.ProductID, available, item.Quantity)
			slog.WarnContext(ctx, fmt.Sprintf("Insufficient stock for %s", message))
			return nil, fmt.Errorf("%s: %w", message, storeerrors.ErrInsufficientStock)
		}
	}

	// Reserve stock through the ledger. The conditional delta is the
	// authoritative check; the pre-check above only fails fast.
	reserved := make([]ItemCreateDto, 0, len(order.Items))
	for _, item := range order.Items {
		if _, err := s.ledger.ApplyDelta(ctx, item.ProductID, -item.Quantity); err != nil {
			s.restock(ctx, reserved)
			return nil, fmt.Errorf("failed to reserve product %s: %w", item.ProductID, err)
		}
		reserved = append(reserved, item)
	}

	items := make([]Item, 0, len(order.Items))
	for _, item := range order.Items {
		product := products[item.ProductID]
		items = append(items, Item{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
			ProductName: product.Name,
		})
	}
	newOrder := &Order{
		UserID:        order.UserID,
		Status:        StatusPlaced,
		PaymentStatus: PaymentPending,
		PaymentMethod: order.PaymentMethod,
		TotalAmount:   order.TotalAmount,
		Address:       toAddress(order.Address),
	}

	created, createdItems, err := s.orders.Create(ctx, newOrder, items)
	if err != nil {
		s.restock(ctx, reserved)
		return nil, err
	}

	s.publish(ctx, events.OrderCreatedEvent{
		OrderID:     created.ID,
		UserID:      created.UserID,
		TotalAmount: created.TotalAmount,
		Customer:    toRecipient(purchaser),
		Admins:      s.adminRecipients(ctx),
		CreatedAt:   created.CreatedAt,
	})
	s.ordersCreated.Add(ctx, 1)

	return toDto(created, createdItems), nil
}

// MarkPaid records payment confirmation and returns the updated order.
// Payment status is orthogonal to the fulfillment status machine and is
// deliberately unguarded beyond the order existing.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID, method PaymentMethod) (*OrderDto, error) {
	if method != "" && !method.Valid() {
		return nil, fmt.Errorf("unknown payment method %q: %w", method, storeerrors.ErrValidation)
	}
	order, _, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.orders.UpdatePayment(ctx, id, PaymentPaid, method, order.Version)
	if err != nil {
		return nil, err
	}
	return toDto(updated, nil), nil
}

// Cancel cancels an order and restocks its line items exactly once.
//
// The versioned status update is the exactly-once gate: of two concurrent
// cancellations only one wins the version check and proceeds to restock,
// the other surfaces ErrOptimisticLock (or ErrInvalidTransition on retry).
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, requestingUserID uuid.UUID) (*OrderDto, error) {
	order, items, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.UserID != requestingUserID {
		admin, err := s.isAdmin(ctx, requestingUserID)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, storeerrors.ErrAccessDenied
		}
	}

	if !order.Status.Cancellable() {
		return nil, fmt.Errorf("cannot cancel order in status %q: %w", order.Status, storeerrors.ErrInvalidTransition)
	}

	updated, err := s.orders.UpdateStatus(ctx, id, StatusCancelled, order.Version)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if _, err := s.ledger.ApplyDelta(ctx, item.ProductID, item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to restock product %s: %w", item.ProductID, err)
		}
	}

	purchaser, err := s.accounts.FindByID(ctx, order.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to resolve purchaser for cancellation event", "order_id", id, "error", err)
	} else {
		s.publish(ctx, events.OrderCancelledEvent{
			OrderID:     updated.ID,
			UserID:      updated.UserID,
			Customer:    toRecipient(purchaser),
			Admins:      s.adminRecipients(ctx),
			CancelledAt: updated.UpdatedAt,
		})
	}
	s.ordersCancelled.Add(ctx, 1)

	return toDto(updated, items), nil
}

// UpdateStatus moves an order forward through the fulfillment lattice.
// Only administrators may call it; the target must be strictly ahead of the
// current status and must not be cancelled (that path restocks and belongs
// to Cancel).
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus Status, requestingUserID uuid.UUID) (*OrderDto, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", newStatus, storeerrors.ErrValidation)
	}
	admin, err := s.isAdmin(ctx, requestingUserID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, storeerrors.ErrAccessDenied
	}

	order, _, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanUpdateTo(newStatus) {
		return nil, fmt.Errorf("cannot move order from %q to %q: %w", order.Status, newStatus, storeerrors.ErrInvalidTransition)
	}

	updated, err := s.orders.UpdateStatus(ctx, id, newStatus, order.Version)
	if err != nil {
		return nil, err
	}

	purchaser, err := s.accounts.FindByID(ctx, order.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to resolve purchaser for status change event", "order_id", id, "error", err)
	} else {
		s.publish(ctx, events.OrderStatusChangedEvent{
			OrderID:        updated.ID,
			UserID:         updated.UserID,
			Customer:       toRecipient(purchaser),
			PreviousStatus: string(order.Status),
			NewStatus:      string(updated.Status),
			ChangedAt:      updated.UpdatedAt,
		})
	}

	return toDto(updated, nil), nil
}

// fetchProducts loads the catalog records for every distinct product in the
// requested items. A product missing from the result aborts with
// ErrProductNotFound.
func (s *Service) fetchProducts(ctx context.Context, items []ItemCreateDto) (map[uuid.UUID]catalog.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	products, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	byID := make(map[uuid.UUID]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("product %s: %w", id, storeerrors.ErrProductNotFound)
		}
	}
	return byID, nil
}

// restock compensates already-applied reservations after a failed create.
// Failures here are logged only: the original error is the one the caller
// needs to see.
func (s *Service) restock(ctx context.Context, reserved []ItemCreateDto) {
	for _, item := range reserved {
		if _, err := s.ledger.ApplyDelta(ctx, item.ProductID, item.Quantity); err != nil {
			slog.ErrorContext(ctx, "Failed to restock after aborted order creation",
				"product_id", item.ProductID, "quantity", item.Quantity, "error", err)
		}
	}
}

func (s *Service) isAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.Role == account.RoleAdmin, nil
}

// adminRecipients resolves the administrator notification targets. A lookup
// failure degrades to an empty list: notifications are best-effort.
func (s *Service) adminRecipients(ctx context.Context) []events.Recipient {
	admins, err := s.accounts.FindByRole(ctx, account.RoleAdmin)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to fetch administrator accounts for notification", "error", err)
		return nil
	}
	recipients := make([]events.Recipient, len(admins))
	for i, a := range admins {
		recipients[i] = toRecipient(&a)
	}
	return recipients
}

// publish sends an event to the notification stream. Failures are logged
// and swallowed: the authoritative operation already succeeded.
func (s *Service) publish(ctx context.Context, event messaging.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish event", "subject", event.Subject(), "error", err)
	}
}

func toRecipient(user *account.User) events.Recipient {
	return events.Recipient{UserID: user.ID, Name: user.Name, Email: user.Email}
}

func toAddress(dto *AddressDto) *Address {
	if dto == nil {
		return nil
	}
	return &Address{
		Street:     dto.Street,
		City:       dto.City,
		State:      dto.State,
		PostalCode: dto.PostalCode,
		Country:    dto.Country,
	}
}

func toAddressDto(a *Address) *AddressDto {
	if a == nil {
		return nil
	}
	return &AddressDto{
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// toDto converts an order.Order to an OrderDto.
func toDto(order *Order, items []Item) *OrderDto {
	if order == nil {
		return nil
	}

	var itemsDto []OrderItemDto
	if items != nil {
		itemsDto = make([]OrderItemDto, 0, len(items))
		for _, item := range items {
			itemsDto = append(itemsDto, OrderItemDto{
				ID:          item.ID,
				OrderID:     item.OrderID,
				ProductID:   item.ProductID,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				ProductName: item.ProductName,
			})
		}
	}

	return &OrderDto{
		ID:            order.ID,
		UserID:        order.UserID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		PaymentMethod: order.PaymentMethod,
		TotalAmount:   order.TotalAmount,
		Address:       toAddressDto(order.Address),
		Version:       order.Version,
		CreatedAt:     order.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     order.UpdatedAt.Format(time.RFC3339),
		Items:         itemsDto,
	}
}

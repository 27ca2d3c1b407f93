package order

import (
	"context"
	"errors"
	"testing"

	"github.com/abgdnv/storefront/internal/account"
	"github.com/abgdnv/storefront/internal/catalog"
	storeerrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/abgdnv/storefront/internal/inventory"
	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCatalog is a mock implementation of the CatalogStore interface.
type mockCatalog struct {
	products []catalog.Product
	err      error
}

func (m *mockCatalog) FindByIDs(_ context.Context, _ []uuid.UUID) ([]catalog.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

// mockAccounts is a mock implementation of the AccountStore interface.
type mockAccounts struct {
	users  map[uuid.UUID]*account.User
	admins []account.User
	err    error
}

func (m *mockAccounts) FindByID(_ context.Context, id uuid.UUID) (*account.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	user, ok := m.users[id]
	if !ok {
		return nil, storeerrors.ErrUserNotFound
	}
	return user, nil
}

func (m *mockAccounts) FindByRole(_ context.Context, _ account.Role) ([]account.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.admins, nil
}

// mockPublisher records every published event and optionally fails.
type mockPublisher struct {
	events []messaging.Event
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, event messaging.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

// failingOrderStore wraps a MemoryStore and fails Create, for exercising
// the reservation compensation path.
type failingOrderStore struct {
	*MemoryStore
	createErr error
}

func (s *failingOrderStore) Create(ctx context.Context, order *Order, items []Item) (*Order, []Item, error) {
	if s.createErr != nil {
		return nil, nil, s.createErr
	}
	return s.MemoryStore.Create(ctx, order, items)
}

var (
	customerID = uuid.MustParse("123e4567-e89b-12d3-a456-426614174001")
	adminID    = uuid.MustParse("123e4567-e89b-12d3-a456-426614174002")
	strangerID = uuid.MustParse("123e4567-e89b-12d3-a456-426614174003")
	productAID = uuid.MustParse("123e4567-e89b-12d3-a456-426614174010")
	productBID = uuid.MustParse("123e4567-e89b-12d3-a456-426614174011")
)

// fixture wires an order service onto in-memory collaborators.
type fixture struct {
	service     *Service
	orders      Store
	ledgerStore *inventory.MemoryStore
	publisher   *mockPublisher
}

func newFixture(t *testing.T, stock map[uuid.UUID]int32, products []catalog.Product) *fixture {
	t.Helper()
	ledgerStore := inventory.NewMemoryStore(stock)
	orders := NewMemoryStore()
	publisher := &mockPublisher{}
	accounts := &mockAccounts{
		users: map[uuid.UUID]*account.User{
			customerID: {ID: customerID, Name: "Alice", Email: "alice@example.com", Role: account.RoleCustomer},
			adminID:    {ID: adminID, Name: "Bob", Email: "bob@example.com", Role: account.RoleAdmin},
			strangerID: {ID: strangerID, Name: "Mallory", Email: "mallory@example.com", Role: account.RoleCustomer},
		},
		admins: []account.User{{ID: adminID, Name: "Bob", Email: "bob@example.com", Role: account.RoleAdmin}},
	}
	service := NewService(orders, inventory.NewService(ledgerStore), &mockCatalog{products: products}, accounts, publisher)
	return &fixture{service: service, orders: orders, ledgerStore: ledgerStore, publisher: publisher}
}

func defaultProducts() []catalog.Product {
	return []catalog.Product{
		{ID: productAID, Name: "Keyboard", Price: 4500, StockQuantity: 10, Version: 1},
		{ID: productBID, Name: "Mouse", Price: 1500, StockQuantity: 5, Version: 1},
	}
}

func defaultStock() map[uuid.UUID]int32 {
	return map[uuid.UUID]int32{productAID: 10, productBID: 5}
}

func (f *fixture) stockOf(t *testing.T, productID uuid.UUID) int32 {
	t.Helper()
	stock, err := f.ledgerStore.GetStock(context.Background(), productID)
	require.NoError(t, err)
	return stock
}

func (f *fixture) createOrder(t *testing.T, items []ItemCreateDto) *OrderDto {
	t.Helper()
	created, err := f.service.Create(context.Background(), CreateDto{
		UserID:        customerID,
		Items:         items,
		TotalAmount:   9000,
		PaymentMethod: PaymentCOD,
	})
	require.NoError(t, err)
	return created
}

func Test_OrderService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - order created and stock reserved", func(t *testing.T) {
		// given
		f := newFixture(t, defaultStock(), defaultProducts())
		// when
		created, err := f.service.Create(ctx, CreateDto{
			UserID: customerID,
			Items: []ItemCreateDto{
				{ProductID: productAID, Quantity: 2},
				{ProductID: productBID, Quantity: 1},
			},
			TotalAmount:   10500,
			PaymentMethod: PaymentUPI,
			Address:       &AddressDto{Street: "1 Main St", City: "Springfield", State: "IL", PostalCode: "62701", Country: "US"},
		})
		// then
		require.NoError(t, err)
		assert.Equal(t, StatusPlaced, created.Status)
		assert.Equal(t, PaymentPending, created.PaymentStatus)
		assert.Equal(t, PaymentUPI, created.PaymentMethod)
		assert.Equal(t, int64(10500), created.TotalAmount)
		assert.Equal(t, int32(1), created.Version)
		require.NotNil(t, created.Address)
		assert.Equal(t, "Springfield", created.Address.City)

		require.Len(t, created.Items, 2)
		assert.Equal(t, "Keyboard", created.Items[0].ProductName)
		assert.Equal(t, int64(4500), created.Items[0].UnitPrice)

		assert.Equal(t, int32(8), f.stockOf(t, productAID))
		assert.Equal(t, int32(4), f.stockOf(t, productBID))

		require.Len(t, f.publisher.events, 1)
		assert.Equal(t, messaging.OrdersCreatedSubject, f.publisher.events[0].Subject())
	})

	t.Run("Error - insufficient stock leaves ledger untouched", func(t *testing.T) {
		// given
		f := newFixture(t, defaultStock(), defaultProducts())
		// when
		created, err := f.service.Create(ctx, CreateDto{
			UserID:        customerID,
			Items:         []ItemCreateDto{{ProductID: productBID, Quantity: 6}},
			PaymentMethod: PaymentCOD,
		})
		// then
		assert.ErrorIs(t, err, storeerrors.ErrInsufficientStock)
		assert.Nil(t, created)
		assert.Equal(t, int32(5), f.stockOf(t, productBID))
		assert.Empty(t, f.publisher.events)
	})

	t.Run("Error - unknown product", func(t *testing.T) {
		// given
		f := newFixture(t, defaultStock(), defaultProducts())
		// when
		created, err := f.service.Create(ctx, CreateDto{
			UserID:        customerID,
			Items:         []ItemCreateDto{{ProductID: uuid.New(), Quantity: 1}},
			PaymentMethod: PaymentCOD,
		})
		// then
		assert.ErrorIs(t, err, storeerrors.ErrProductNotFound)
		assert.Nil(t, created)
	})

	t.Run("Error - unknown user", func(t *testing.T) {
		// given
		f := newFixture(t, defaultStock(), defaultProducts())
		// when
		created, err := f.service.Create(ctx, CreateDto{
			UserID:        uuid.New(),
			Items:         []ItemCreateDto{{ProductID: productAID, Quantity: 1}},
			PaymentMethod: PaymentCOD,
		})
		// then
		assert.ErrorIs(t, err, storeerrors.ErrUserNotFound)
		assert.Nil(t, created)
	})

	t.Run("Error - validation failures", func(t *testing.T) {
		f := newFixture(t, defaultStock(), defaultProducts())
		testCases := []struct {
			name  string
			order CreateDto
		}{
			{
				name:  "no line items",
				order: CreateDto{UserID: customerID, PaymentMethod: PaymentCOD},
			},
			{
				name: "non-positive quantity",
				order: CreateDto{UserID: customerID, PaymentMethod: PaymentCOD,
					Items: []ItemCreateDto{{ProductID: productAID, Quantity: 0}}},
			},
			{
				name: "negative total",
				order: CreateDto{UserID: customerID, PaymentMethod: PaymentCOD, TotalAmount: -1,
					Items: []ItemCreateDto{{ProductID: productAID, Quantity: 1}}},
			},
			{
				name: "unknown payment method",
				order: CreateDto{UserID: customerID, PaymentMethod: "card",
					Items: []ItemCreateDto{{ProductID: productAID, Quantity: 1}}},
			},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				created, err := f.service.Create(ctx, tc.order)
				assert.ErrorIs(t, err, storeerrors.ErrValidation)
				assert.Nil(t, created)
			})
		}
	})

	t.Run("Compensation - failed reservation restores earlier lines", func(t *testing.T) {
		// given: ledger knows product A only, so the second reservation fails
		f := newFixture(t, map[uuid.UUID]int32{productAID: 10}, defaultProducts())
		// when
		created, err := f.service.Create(ctx, CreateDto{
			UserID: customerID,
			Items: []ItemCreateDto{
				{ProductID: productAID, Quantity: 3},
				{ProductID: productBID, Quantity: 1},
			},
			PaymentMethod: PaymentCOD,
		})
		// then
		require.Error(t, err)
		assert.Nil(t, created)
		assert.Equal(t, int32(10), f.stockOf(t, productAID))
		assert.Empty(t, f.publisher.events)
	})

	t.Run("Compensation - failed persist restores all reservations", func(t *testing.T) {
		// given
		f := newFixture(t, defaultStock(), defaultProducts())
		failing := &failingOrderStore{MemoryStore: NewMemoryStore(), createErr: storeerrors.ErrCreateOrder}
		f.service.orders = failing
		// when
		created, err := f.service.Create(ctx, CreateDto{
			UserID: customerID,
			Items: []ItemCreateDto{
				{ProductID: productAID, Quantity: 2},
				{ProductID: productBID, Quantity: 2},
			},
			PaymentMethod: PaymentCOD,
		})
		// then
		assert.ErrorIs(t, err, storeerrors.ErrCreateOrder)
		assert.Nil(t, created)
		assert.Equal(t, int32(10), f.stockOf(t, productAID))
		assert.Equal(t, int32(5), f.stockOf(t, productBID))
	})

	t.Run("Success - publish failure does not fail the order", func(t *testing.T) {
		// given
		f := newFixture(t, defaultStock(), defaultProducts())
		f.publisher.err = errors.New("nats unavailable")
		// when
		created, err := f.service.Create(ctx, CreateDto{
			UserID:        customerID,
			Items:         []ItemCreateDto{{ProductID: productAID, Quantity: 1}},
			PaymentMethod: PaymentCOD,
		})
		// then
		require.NoError(t, err)
		assert.NotNil(t, created)
		assert.Equal(t, int32(9), f.stockOf(t, productAID))
	})
}

func Test_OrderService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - owner cancels and stock is restored", func(t *testing.T) {
		// given
		f := newFixture(t, defaultStock(), defaultProducts())
		created := f.createOrder(t, []ItemCreateDto{
			{ProductID: productAID, Quantity: 2},
			{ProductID: productBID, Quantity: 1},
		})
		require.Equal(t, int32(8), f.stockOf(t, productAID))
		// when
		cancelled, err := f.service.Cancel(ctx, created.ID, customerID)
		// then
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)
		assert.Equal(t, created.Version+1, cancelled.Version)
		assert.Equal(t, int32(10), f.stockOf(t, productAID))
		assert.Equal(t, int32(5), f.stockOf(t, productBID))

		require.Len(t, f.publisher.events, 2)
		assert.Equal(t, messaging.OrdersCancelledSubject, f.publisher.events[1].Subject())
	})

	t.Run("Success - admin cancels another user's order", func(t *testing.T) {
		// given
		f := newFixture(t, defaultStock(), defaultProducts())
		created := f.createOrder(t, []ItemCreateDto{{ProductID: productAID, Quantity: 1}})
		// when
		cancelled, err := f.service.Cancel(ctx, created.ID, adminID)
		// then
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)
		assert.Equal(t, int32(10), f.stockOf(t, productAID))
	})

	t.Run("Error - stranger may not cancel", func(t *testing.T) {
		// given
		f := newFixture(t, defaultStock(), defaultProducts())
		created := f.createOrder(t, []ItemCreateDto{{ProductID: productAID, Quantity: 1}})
		// when
		cancelled, err := f.service.Cancel(ctx, created.ID, strangerID)
		// then
		assert.ErrorIs(t, err, storeerrors.ErrAccessDenied)
		assert.Nil(t, cancelled)
		assert.Equal(t, int32(9), f.stockOf(t, productAID))
	})

	t.Run("Error - shipped order cannot be cancelled", func(t *testing.T) {
		// given
		f := newFixture(t, defaultStock(), defaultProducts())
		created := f.createOrder(t, []ItemCreateDto{{ProductID: productAID, Quantity: 1}})
		_, err := f.service.UpdateStatus(ctx, created.ID, StatusShipped, adminID)
		require.NoError(t, err)
		// when
		cancelled, err := f.service.Cancel(ctx, created.ID, customerID)
		// then
		assert.ErrorIs(t, err, storeerrors.ErrInvalidTransition)
		assert.Nil(t, cancelled)
		assert.Equal(t, int32(9), f.stockOf(t, productAID))
	})

	t.Run("Error - repeated cancel restocks exactly once", func(t *testing.T) {
		// given
		f := newFixture(t, defaultStock(), defaultProducts())
		created := f.createOrder(t, []ItemCreateDto{{ProductID: productAID, Quantity: 3}})
		_, err := f.service.Cancel(ctx, created.ID, customerID)
		require.NoError(t, err)
		require.Equal(t, int32(10), f.stockOf(t, productAID))
		// when
		cancelled, err := f.service.Cancel(ctx, created.ID, customerID)
		// then
		assert.ErrorIs(t, err, storeerrors.ErrInvalidTransition)
		assert.Nil(t, cancelled)
		assert.Equal(t, int32(10), f.stockOf(t, productAID))
	})

	t.Run("Error - stale version loses the race", func(t *testing.T) {
		// given: the order is mutated between the caller's read and the update
		f := newFixture(t, defaultStock(), defaultProducts())
		created := f.createOrder(t, []ItemCreateDto{{ProductID: productAID, Quantity: 1}})
		// when
		updated, err := f.orders.UpdateStatus(ctx, created.ID, StatusCancelled, created.Version)
		require.NoError(t, err)
		require.Equal(t, created.Version+1, updated.Version)
		_, err = f.orders.UpdateStatus(ctx, created.ID, StatusCancelled, created.Version)
		// then
		assert.ErrorIs(t, err, storeerrors.ErrOptimisticLock)
	})

	t.Run("Error - unknown order", func(t *testing.T) {
		f := newFixture(t, defaultStock(), defaultProducts())
		cancelled, err := f.service.Cancel(ctx, uuid.New(), customerID)
		assert.ErrorIs(t, err, storeerrors.ErrOrderNotFound)
		assert.Nil(t, cancelled)
	})
}

func Test_OrderService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name        string
		target      Status
		prepare     func(t *testing.T, f *fixture, orderID uuid.UUID)
		requester   uuid.UUID
		expected    Status
		expectError error
	}{
		{
			name:      "Success - placed to processing",
			target:    StatusProcessing,
			requester: adminID,
			expected:  StatusProcessing,
		},
		{
			name:      "Success - placed to shipped skips processing",
			target:    StatusShipped,
			requester: adminID,
			expected:  StatusShipped,
		},
		{
			name:   "Error - backward transition",
			target: StatusProcessing,
			prepare: func(t *testing.T, f *fixture, orderID uuid.UUID) {
				_, err := f.service.UpdateStatus(ctx, orderID, StatusShipped, adminID)
				require.NoError(t, err)
			},
			requester:   adminID,
			expectError: storeerrors.ErrInvalidTransition,
		},
		{
			name:        "Error - cancellation must go through Cancel",
			target:      StatusCancelled,
			requester:   adminID,
			expectError: storeerrors.ErrInvalidTransition,
		},
		{
			name:        "Error - unknown status",
			target:      Status("refunded"),
			requester:   adminID,
			expectError: storeerrors.ErrValidation,
		},
		{
			name:        "Error - non-admin caller",
			target:      StatusProcessing,
			requester:   customerID,
			expectError: storeerrors.ErrAccessDenied,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			f := newFixture(t, defaultStock(), defaultProducts())
			created := f.createOrder(t, []ItemCreateDto{{ProductID: productAID, Quantity: 1}})
			if tc.prepare != nil {
				tc.prepare(t, f, created.ID)
			}
			// when
			updated, err := f.service.UpdateStatus(ctx, created.ID, tc.target, tc.requester)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, updated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, updated.Status)
			assert.Equal(t, created.Version+1, updated.Version)
		})
	}

	t.Run("Success - status change event is published", func(t *testing.T) {
		// given
		f := newFixture(t, defaultStock(), defaultProducts())
		created := f.createOrder(t, []ItemCreateDto{{ProductID: productAID, Quantity: 1}})
		// when
		_, err := f.service.UpdateStatus(ctx, created.ID, StatusProcessing, adminID)
		// then
		require.NoError(t, err)
		require.Len(t, f.publisher.events, 2)
		assert.Equal(t, messaging.OrdersStatusChangedSubject, f.publisher.events[1].Subject())
	})
}

func Test_OrderService_MarkPaid(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - pending to paid", func(t *testing.T) {
		// given
		f := newFixture(t, defaultStock(), defaultProducts())
		created := f.createOrder(t, []ItemCreateDto{{ProductID: productAID, Quantity: 1}})
		require.Equal(t, PaymentPending, created.PaymentStatus)
		// when
		paid, err := f.service.MarkPaid(ctx, created.ID, "")
		// then
		require.NoError(t, err)
		assert.Equal(t, PaymentPaid, paid.PaymentStatus)
		assert.Equal(t, PaymentCOD, paid.PaymentMethod)
	})

	t.Run("Success - method overwritten on payment", func(t *testing.T) {
		// given
		f := newFixture(t, defaultStock(), defaultProducts())
		created := f.createOrder(t, []ItemCreateDto{{ProductID: productAID, Quantity: 1}})
		// when
		paid, err := f.service.MarkPaid(ctx, created.ID, PaymentUPI)
		// then
		require.NoError(t, err)
		assert.Equal(t, PaymentPaid, paid.PaymentStatus)
		assert.Equal(t, PaymentUPI, paid.PaymentMethod)
	})

	t.Run("Error - unknown payment method", func(t *testing.T) {
		f := newFixture(t, defaultStock(), defaultProducts())
		paid, err := f.service.MarkPaid(ctx, uuid.New(), "card")
		assert.ErrorIs(t, err, storeerrors.ErrValidation)
		assert.Nil(t, paid)
	})

	t.Run("Error - unknown order", func(t *testing.T) {
		f := newFixture(t, defaultStock(), defaultProducts())
		paid, err := f.service.MarkPaid(ctx, uuid.New(), PaymentCOD)
		assert.ErrorIs(t, err, storeerrors.ErrOrderNotFound)
		assert.Nil(t, paid)
	})
}

func Test_OrderService_FindByID(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name        string
		requester   uuid.UUID
		expectError error
	}{
		{name: "Success - owner reads own order", requester: customerID},
		{name: "Success - admin reads any order", requester: adminID},
		{name: "Error - stranger denied", requester: strangerID, expectError: storeerrors.ErrAccessDenied},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			f := newFixture(t, defaultStock(), defaultProducts())
			created := f.createOrder(t, []ItemCreateDto{{ProductID: productAID, Quantity: 2}})
			// when
			found, err := f.service.FindByID(ctx, tc.requester, created.ID)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, found)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, created.ID, found.ID)
			require.Len(t, found.Items, 1)
			assert.Equal(t, int32(2), found.Items[0].Quantity)
		})
	}

	t.Run("Error - order not found", func(t *testing.T) {
		f := newFixture(t, defaultStock(), defaultProducts())
		found, err := f.service.FindByID(ctx, customerID, uuid.New())
		assert.ErrorIs(t, err, storeerrors.ErrOrderNotFound)
		assert.Nil(t, found)
	})
}

func Test_OrderService_FindByUserID(t *testing.T) {
	ctx := context.Background()

	// given
	f := newFixture(t, defaultStock(), defaultProducts())
	first := f.createOrder(t, []ItemCreateDto{{ProductID: productAID, Quantity: 1}})
	second := f.createOrder(t, []ItemCreateDto{{ProductID: productBID, Quantity: 1}})

	// when
	page, err := f.service.FindByUserID(ctx, customerID, 0, 10)

	// then
	require.NoError(t, err)
	require.Len(t, page, 2)
	ids := []uuid.UUID{page[0].ID, page[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)

	// and: another user sees nothing
	empty, err := f.service.FindByUserID(ctx, strangerID, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

// Price and name snapshots on order lines must not follow later catalog edits.
func Test_OrderService_SnapshotImmutability(t *testing.T) {
	ctx := context.Background()

	// given
	f := newFixture(t, defaultStock(), defaultProducts())
	created := f.createOrder(t, []ItemCreateDto{{ProductID: productAID, Quantity: 1}})
	require.Equal(t, int64(4500), created.Items[0].UnitPrice)

	// when: the catalog price changes after the order was placed
	f.service.catalog = &mockCatalog{products: []catalog.Product{
		{ID: productAID, Name: "Keyboard Pro", Price: 9900, StockQuantity: 9, Version: 2},
	}}

	// then: the stored line still carries the creation-time snapshot
	found, err := f.service.FindByID(ctx, customerID, created.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, int64(4500), found.Items[0].UnitPrice)
	assert.Equal(t, "Keyboard", found.Items[0].ProductName)
}

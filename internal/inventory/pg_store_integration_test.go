package inventory

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	storeerrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const skipIntegrationTests = "STOREFRONT_SKIP_INTEGRATION_TESTS"

// LedgerStoreSuite is a test suite for the PgStore implementation of the
// inventory ledger, exercising the conditional stock adjustment against a
// real PostgreSQL instance.
type LedgerStoreSuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	store       Store
	logger      *slog.Logger
	ctx         context.Context
}

// SetupSuite initializes the test suite by setting up a PostgreSQL container,
func (s *LedgerStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	dbName := "storefront_db"
	dbUser := "user"
	dbPassword := "password"

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgxpool")

	for i := range 10 {
		s.logger.Info("Pinging PostgreSQL database", "attempt", i+1)
		err = s.dbPool.Ping(s.ctx)
		if err == nil {
			break
		}
		time.Sleep(time.Second * 2)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	wd, _ := os.Getwd()
	migrationsPath := filepath.Join(wd, "../../migrations")
	sourceURL := "file://" + migrationsPath
	m, err := migrate.New(sourceURL, connStr)
	require.NoError(s.T(), err, "Failed to create migrate instance")
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		_, _ = m.Close()
		require.NoError(s.T(), err, "Failed to apply migrations")
	}
	s.logger.Info("Migrations applied for integration tests")

	s.store = NewPgStore(s.dbPool)
	s.logger.Info("Initialization complete for LedgerStoreSuite")
}

// TearDownSuite cleans up resources after all tests in the suite have run.
func (s *LedgerStoreSuite) TearDownSuite() {
	s.logger.Info("Tearing down suite...")
	if s.dbPool != nil {
		s.dbPool.Close()
		s.logger.Info("DB pool closed.")
	}
	if s.pgContainer != nil {
		s.logger.Info("Terminating PostgreSQL container...")
		err := s.pgContainer.Terminate(s.ctx)
		if err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		} else {
			s.logger.Info("PostgreSQL container terminated.")
		}
	}
}

// SetupTest prepares the database for each test by truncating the products table.
func (s *LedgerStoreSuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE products RESTART IDENTITY CASCADE")
	require.NoError(s.T(), err, "Failed to truncate products table")
}

// TestLedgerStoreIntegration runs the ledger store integration tests.
func TestLedgerStoreIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(LedgerStoreSuite))
}

// createTestProduct inserts a product row and returns its ID.
func (s *LedgerStoreSuite) createTestProduct(stock int32) uuid.UUID {
	s.T().Helper()
	var id uuid.UUID
	err := s.dbPool.QueryRow(s.ctx,
		`INSERT INTO products (name, price, stock_quantity) VALUES ($1, $2, $3) RETURNING id`,
		"Keyboard", 4500, stock).Scan(&id)
	require.NoError(s.T(), err, "Failed to insert test product")
	return id
}

func (s *LedgerStoreSuite) TestGetStock() {
	s.SetupTest()
	// given
	id := s.createTestProduct(10)

	// when
	stock, err := s.store.GetStock(s.ctx, id)

	// then
	require.NoError(s.T(), err)
	require.Equal(s.T(), int32(10), stock)
}

func (s *LedgerStoreSuite) TestGetStock_NotFound() {
	s.SetupTest()
	_, err := s.store.GetStock(s.ctx, uuid.New())
	require.ErrorIs(s.T(), err, storeerrors.ErrProductNotFound)
}

func (s *LedgerStoreSuite) TestAdjustStock() {
	testCases := []struct {
		name        string
		stock       int32
		delta       int32
		expected    int32
		expectedErr error
	}{
		{name: "Consume part of stock", stock: 10, delta: -4, expected: 6},
		{name: "Consume all stock", stock: 4, delta: -4, expected: 0},
		{name: "Restock", stock: 4, delta: 6, expected: 10},
		{name: "Rejected - would drive stock negative", stock: 3, delta: -4, expectedErr: storeerrors.ErrInsufficientStock},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.SetupTest()
			// given
			id := s.createTestProduct(tc.stock)

			// when
			result, err := s.store.AdjustStock(s.ctx, id, tc.delta)

			// then
			if tc.expectedErr != nil {
				require.ErrorIs(s.T(), err, tc.expectedErr)
				// the failed adjustment must leave the row unchanged
				stock, getErr := s.store.GetStock(s.ctx, id)
				require.NoError(s.T(), getErr)
				require.Equal(s.T(), tc.stock, stock)
			} else {
				require.NoError(s.T(), err)
				require.Equal(s.T(), tc.expected, result)
			}
		})
	}
}

func (s *LedgerStoreSuite) TestAdjustStock_NotFound() {
	s.SetupTest()
	_, err := s.store.AdjustStock(s.ctx, uuid.New(), -1)
	require.ErrorIs(s.T(), err, storeerrors.ErrProductNotFound)
}

// Concurrent decrements against one row must never oversell: with stock 20
// and 30 single-unit consumers, exactly 20 succeed and the row ends at zero.
func (s *LedgerStoreSuite) TestAdjustStock_ConcurrentConsumption() {
	s.SetupTest()
	// given
	const stock = 20
	const workers = 30
	id := s.createTestProduct(stock)

	// when
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.AdjustStock(s.ctx, id, -1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	// then
	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(s.T(), err, storeerrors.ErrInsufficientStock)
		}
	}
	require.Equal(s.T(), stock, succeeded)

	remaining, err := s.store.GetStock(s.ctx, id)
	require.NoError(s.T(), err)
	require.Equal(s.T(), int32(0), remaining)
}

// Package app contains the application setup for the storefront API.
package app

import (
	"log/slog"
	"net/http"

	"github.com/abgdnv/storefront/internal/account"
	"github.com/abgdnv/storefront/internal/catalog"
	"github.com/abgdnv/storefront/internal/config"
	"github.com/abgdnv/storefront/internal/inventory"
	"github.com/abgdnv/storefront/internal/order"
	"github.com/abgdnv/storefront/internal/transport/rest"
	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/abgdnv/storefront/pkg/server"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies holds the wired services of the storefront API.
type Dependencies struct {
	OrderService   order.OrderService
	CatalogService catalog.ProductService
	AccountService account.AccountService
	Logger         *slog.Logger
}

// SetupDependencies wires the stores and services onto the shared
// connection pool and event publisher.
func SetupDependencies(dbPool *pgxpool.Pool, publisher messaging.Publisher, logger *slog.Logger) *Dependencies {
	catalogStore := catalog.NewPgStore(dbPool)
	accountStore := account.NewPgStore(dbPool)
	orderStore := order.NewPgStore(dbPool)
	ledger := inventory.NewService(inventory.NewPgStore(dbPool))

	return &Dependencies{
		OrderService:   order.NewService(orderStore, ledger, catalogStore, accountStore, publisher),
		CatalogService: catalog.NewService(catalogStore),
		AccountService: account.NewService(accountStore),
		Logger:         logger,
	}
}

// SetupHttpHandler initializes the HTTP routes for the storefront API.
// Used by tests to set up the handler without binding a listener.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the storefront API.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	rest.NewOrderHandler(deps.OrderService, deps.Logger).RegisterRoutes(mux)
	rest.NewCatalogHandler(deps.CatalogService, deps.AccountService, deps.Logger).RegisterRoutes(mux)
	rest.NewAccountHandler(deps.AccountService, deps.Logger).RegisterRoutes(mux)
}

// SetupHttpServer creates and configures the HTTP server for the storefront API.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}

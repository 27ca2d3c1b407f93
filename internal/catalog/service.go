package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProductService defines the methods for managing catalog products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*ProductDto, error)

	// FindByIDs returns products by IDs.
	// Returns an empty slice if no products exist.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]ProductDto, error)

	// FindAll returns all available products.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context, offset, limit int32) ([]ProductDto, error)

	// Create adds a new product to the system.
	// Returns error if the product cannot be created.
	Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error)

	// Update modifies an existing product's name and price.
	// Returns ErrProductNotFound if no product exists with the given ID and version.
	Update(ctx context.Context, product ProductUpdateDto) (*ProductDto, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id uuid.UUID, version int32) error
}

// Service implements ProductService and provides methods to manage products.
type Service struct {
	store Store
}

// NewService creates a new instance of ProductService with the provided store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// ProductCreateDto represents the data transfer object for creating a new product.
type ProductCreateDto struct {
	Name  string `json:"name"  validate:"required,max=100"`
	Price int64  `json:"price" validate:"required,min=0"`
	Stock int32  `json:"stock" validate:"min=0"`
}

// ProductUpdateDto represents the data transfer object for updating an existing product.
// Stock is absent on purpose: stock moves only through the inventory ledger.
type ProductUpdateDto struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"    validate:"required,max=100"`
	Price   int64     `json:"price"   validate:"required,min=0"`
	Version int32     `json:"version" validate:"required,min=1"`
}

// ProductDto represents the data transfer object for a product.
// Version is read-only and used for optimistic concurrency control.
type ProductDto struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Stock     int32  `json:"stock"`
	Version   int32  `json:"version"`
	CreatedAt string `json:"created_at"`
}

// FindByID retrieves a product by its ID and returns it as a ProductDto.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*ProductDto, error) {
	product, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
	}

	return toDto(product), nil
}

// FindByIDs retrieves a list of products and returns them as ProductDtos.
// Returns an empty slice if no products exist or error if the retrieval fails.
func (s *Service) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]ProductDto, error) {
	products, err := s.store.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	productDtos := make([]ProductDto, len(products))
	for i, item := range products {
		productDtos[i] = *toDto(&item)
	}

	return productDtos, nil
}

// FindAll retrieves a list of all products and returns them as ProductDtos.
// Returns an empty slice if no products exist or error if the retrieval fails.
func (s *Service) FindAll(ctx context.Context, offset, limit int32) ([]ProductDto, error) {
	products, err := s.store.FindAll(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	productDtos := make([]ProductDto, len(products))
	for i, item := range products {
		productDtos[i] = *toDto(&item)
	}

	return productDtos, nil
}

// Create creates a new product and returns it as a ProductDto.
// Returns an error if the product cannot be created.
func (s *Service) Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	p, err := s.store.Create(ctx, product.Name, product.Price, product.Stock)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return toDto(p), nil
}

// Update modifies an existing product's name and price and returns the updated product.
// Returns ErrProductNotFound if no product exists with the given ID and version.
func (s *Service) Update(ctx context.Context, product ProductUpdateDto) (*ProductDto, error) {
	updated, err := s.store.Update(ctx, product.ID, product.Name, product.Price, product.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to update product with ID %s: %w", product.ID, err)
	}

	return toDto(updated), nil
}

// DeleteByID deletes a product by its ID.
// Returns ErrProductNotFound if no product exists with the given ID and version.
func (s *Service) DeleteByID(ctx context.Context, id uuid.UUID, version int32) error {
	return s.store.DeleteByID(ctx, id, version)
}

// toDto converts a catalog.Product to a ProductDto.
func toDto(product *Product) *ProductDto {
	return &ProductDto{
		ID:        product.ID.String(),
		Name:      product.Name,
		Price:     product.Price,
		Stock:     product.StockQuantity,
		Version:   product.Version,
		CreatedAt: product.CreatedAt.Format(time.RFC3339),
	}
}

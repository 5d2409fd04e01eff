package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Images      []string
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Update describes a partial catalog edit. Zero-value fields are left
// untouched, with one exception: Stock is a pointer so that an explicit
// zero is applied rather than ignored.
type Update struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Images      []string
	Stock       *int
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, id string, upd Update) (*Product, error)
	Delete(ctx context.Context, id string) error
}

package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// StatusPending is the status every order starts with. Later transitions are
// an open set of admin-chosen strings ("Shipped", "Delivered", ...).
const StatusPending = "Pending"

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Sentinel errors for order placement validation.
var (
	ErrEmptyItems   = errors.New("items required")
	ErrInvalidTotal = errors.New("total must not be negative")
	ErrMissingEmail = errors.New("customer email required")
	ErrEmptyStatus  = errors.New("status required")
)

// ProductNotFoundError indicates a requested product does not exist. The
// message references the name the caller submitted for the line item.
type ProductNotFoundError struct {
	Name string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.Name)
}

// InsufficientStockError indicates a line item asked for more units than the
// catalog holds.
type InsufficientStockError struct {
	Name      string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: only %d available", e.Name, e.Available)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	Name string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for %s", e.Name)
}

// InvalidPriceError indicates a line item carries a negative price.
type InvalidPriceError struct {
	Name string
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("price must not be negative for %s", e.Name)
}

// BlockedEmailError indicates the customer email domain hit the configured
// blocklist.
type BlockedEmailError struct {
	Domain string
}

func (e *BlockedEmailError) Error() string {
	return fmt.Sprintf("email domain %s is not accepted", e.Domain)
}

// Customer holds the contact and delivery details captured with an order.
type Customer struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

// Item is a single line of an order. Name and Price are snapshots taken at
// purchase time; later catalog edits do not rewrite history.
type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Order is an immutable purchase record. Status is the only field that
// changes after creation.
type Order struct {
	ID        string
	Customer  Customer
	Items     []Item
	Total     decimal.Decimal
	Status    string
	CreatedAt time.Time
}

// Repository defines persistence operations for the order ledger.
//
// Create commits the order together with the stock deduction for every line
// item as one unit of work: implementations decrement each product's stock
// only when sufficient, and roll back all deductions when any item fails.
// Failures surface as *ProductNotFoundError or *InsufficientStockError.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*Order, error)
}

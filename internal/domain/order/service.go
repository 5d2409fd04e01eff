package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cookieshop/backend/internal/domain/settings"
)

// Notifier delivers order lifecycle emails. Implementations are
// fire-and-forget: calls must not block on the mail transport and must not
// fail the operation that triggered them.
type Notifier interface {
	OrderPlaced(o *Order, adminEmail string)
	StatusChanged(o *Order)
}

// EmailGuard reports whether an email domain is blocked from placing orders.
type EmailGuard interface {
	Blocked(domain string) bool
}

// PlaceOrderRequest holds the input for placing an order. Total is the
// caller-computed amount; it is validated for sign but not recomputed.
type PlaceOrderRequest struct {
	Customer Customer
	Items    []Item
	Total    decimal.Decimal
}

// Service coordinates order placement: input validation, the atomic
// stock-deduction-plus-create commit, and notification dispatch.
type Service struct {
	orders   Repository
	settings settings.Repository
	notifier Notifier
	guard    EmailGuard
	lg       *zap.Logger
}

// NewService creates an order Service. guard may be nil when no email
// blocklist is configured.
func NewService(
	orders Repository,
	set settings.Repository,
	notifier Notifier,
	guard EmailGuard,
	lg *zap.Logger,
) *Service {
	return &Service{
		orders:   orders,
		settings: set,
		notifier: notifier,
		guard:    guard,
		lg:       lg,
	}
}

// PlaceOrder validates the request, commits the order together with all
// stock deductions as one unit of work, and enqueues the customer
// confirmation and admin alert emails. Email dispatch never affects the
// returned result.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	o := &Order{
		ID:        uuid.New().String(),
		Customer:  req.Customer,
		Items:     req.Items,
		Total:     req.Total.Round(2),
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	s.notifier.OrderPlaced(o, s.adminEmail(ctx))
	return o, nil
}

// UpdateStatus persists a new status and enqueues a status-change email to
// the order's stored customer address.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*Order, error) {
	if strings.TrimSpace(status) == "" {
		return nil, ErrEmptyStatus
	}

	o, err := s.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, errors.Wrapf(err, "update status of order %s", id)
	}

	s.notifier.StatusChanged(o)
	return o, nil
}

func (s *Service) validate(req PlaceOrderRequest) error {
	if len(req.Items) == 0 {
		return ErrEmptyItems
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return &InvalidQuantityError{Name: item.Name}
		}
		if item.Price.IsNegative() {
			return &InvalidPriceError{Name: item.Name}
		}
	}
	if req.Total.IsNegative() {
		return ErrInvalidTotal
	}
	if req.Customer.Email == "" {
		return ErrMissingEmail
	}
	if s.guard != nil {
		if domain := emailDomain(req.Customer.Email); domain != "" && s.guard.Blocked(domain) {
			return &BlockedEmailError{Domain: domain}
		}
	}
	return nil
}

// adminEmail reads the store settings for the admin contact address. A read
// failure only costs the admin alert, never the order.
func (s *Service) adminEmail(ctx context.Context) string {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		s.lg.Warn("load settings for admin alert", zap.Error(err))
		return ""
	}
	return cfg.Email
}

func emailDomain(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cookieshop/backend/internal/domain/settings"
)

// --- Mock implementations ---

type mockLedger struct {
	lastOrder *Order
	createErr error

	statusOrder *Order
	statusErr   error
}

func (m *mockLedger) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.lastOrder = o
	return nil
}

func (m *mockLedger) GetByID(_ context.Context, _ string) (*Order, error) {
	return nil, ErrNotFound
}

func (m *mockLedger) List(_ context.Context) ([]Order, error) {
	return nil, nil
}

func (m *mockLedger) UpdateStatus(_ context.Context, _, status string) (*Order, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	o := *m.statusOrder
	o.Status = status
	return &o, nil
}

type mockSettingsRepo struct {
	cfg *settings.Settings
	err error
}

func (m *mockSettingsRepo) Get(_ context.Context) (*settings.Settings, error) {
	return m.cfg, m.err
}

func (m *mockSettingsRepo) Upsert(_ context.Context, _ *settings.Settings) error {
	return nil
}

type notified struct {
	order      *Order
	adminEmail string
}

type mockNotifier struct {
	placed        []notified
	statusChanged []*Order
}

func (m *mockNotifier) OrderPlaced(o *Order, adminEmail string) {
	m.placed = append(m.placed, notified{order: o, adminEmail: adminEmail})
}

func (m *mockNotifier) StatusChanged(o *Order) {
	m.statusChanged = append(m.statusChanged, o)
}

type mockGuard struct {
	blocked map[string]bool
}

func (m *mockGuard) Blocked(domain string) bool {
	return m.blocked[domain]
}

// --- Helpers ---

func testCustomer() Customer {
	return Customer{
		Name:    "Nimal Perera",
		Address: "12 Galle Road, Colombo",
		Phone:   "+94 77 123 4567",
		Email:   "nimal@example.com",
	}
}

func testItem(id, name string, qty int, price string) Item {
	return Item{
		ProductID: id,
		Name:      name,
		Quantity:  qty,
		Price:     decimal.RequireFromString(price),
	}
}

func newTestService(ledger *mockLedger, n *mockNotifier, guard EmailGuard) *Service {
	set := &mockSettingsRepo{cfg: &settings.Settings{Email: "admin@cookieshop.lk"}}
	return NewService(ledger, set, n, guard, zap.NewNop())
}

// --- Tests ---

func TestPlaceOrder_EmptyItems(t *testing.T) {
	svc := newTestService(&mockLedger{}, &mockNotifier{}, nil)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{Customer: testCustomer()})
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestPlaceOrder_InvalidQuantity(t *testing.T) {
	svc := newTestService(&mockLedger{}, &mockNotifier{}, nil)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		Customer: testCustomer(),
		Items:    []Item{testItem("p1", "Ginger Snap", 0, "275.50")},
	})

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "Ginger Snap", iqErr.Name)
}

func TestPlaceOrder_NegativePrice(t *testing.T) {
	svc := newTestService(&mockLedger{}, &mockNotifier{}, nil)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		Customer: testCustomer(),
		Items:    []Item{testItem("p1", "Ginger Snap", 1, "-1.00")},
	})

	var ipErr *InvalidPriceError
	require.ErrorAs(t, err, &ipErr)
}

func TestPlaceOrder_NegativeTotal(t *testing.T) {
	svc := newTestService(&mockLedger{}, &mockNotifier{}, nil)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		Customer: testCustomer(),
		Items:    []Item{testItem("p1", "Ginger Snap", 1, "275.50")},
		Total:    decimal.RequireFromString("-275.50"),
	})
	require.ErrorIs(t, err, ErrInvalidTotal)
}

func TestPlaceOrder_MissingEmail(t *testing.T) {
	svc := newTestService(&mockLedger{}, &mockNotifier{}, nil)

	customer := testCustomer()
	customer.Email = ""
	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		Customer: customer,
		Items:    []Item{testItem("p1", "Ginger Snap", 1, "275.50")},
		Total:    decimal.RequireFromString("275.50"),
	})
	require.ErrorIs(t, err, ErrMissingEmail)
}

func TestPlaceOrder_BlockedEmailDomain(t *testing.T) {
	guard := &mockGuard{blocked: map[string]bool{"mailinator.com": true}}
	notifier := &mockNotifier{}
	svc := newTestService(&mockLedger{}, notifier, guard)

	customer := testCustomer()
	customer.Email = "someone@MAILINATOR.com"
	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		Customer: customer,
		Items:    []Item{testItem("p1", "Ginger Snap", 1, "275.50")},
		Total:    decimal.RequireFromString("275.50"),
	})

	var beErr *BlockedEmailError
	require.ErrorAs(t, err, &beErr)
	assert.Equal(t, "mailinator.com", beErr.Domain)
	assert.Empty(t, notifier.placed)
}

func TestPlaceOrder_Success(t *testing.T) {
	ledger := &mockLedger{}
	notifier := &mockNotifier{}
	svc := newTestService(ledger, notifier, nil)

	items := []Item{
		testItem("p1", "Chocolate Chip Cookie", 2, "350.00"),
		testItem("p2", "Ginger Snap", 1, "275.50"),
	}
	o, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		Customer: testCustomer(),
		Items:    items,
		Total:    decimal.RequireFromString("975.50"),
	})

	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, items, o.Items)
	assert.True(t, decimal.RequireFromString("975.50").Equal(o.Total))
	assert.False(t, o.CreatedAt.IsZero())
	require.NotNil(t, ledger.lastOrder)
	assert.Equal(t, o.ID, ledger.lastOrder.ID)

	require.Len(t, notifier.placed, 1)
	assert.Equal(t, o.ID, notifier.placed[0].order.ID)
	assert.Equal(t, "admin@cookieshop.lk", notifier.placed[0].adminEmail)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	ledger := &mockLedger{
		createErr: &InsufficientStockError{Name: "Butter Cookie Box", Available: 3},
	}
	notifier := &mockNotifier{}
	svc := newTestService(ledger, notifier, nil)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		Customer: testCustomer(),
		Items:    []Item{testItem("p2", "Butter Cookie Box", 5, "1800.00")},
		Total:    decimal.RequireFromString("9000.00"),
	})

	var insErr *InsufficientStockError
	require.ErrorAs(t, err, &insErr)
	assert.Equal(t, 3, insErr.Available)
	assert.Contains(t, insErr.Error(), "only 3 available")
	assert.Empty(t, notifier.placed)
}

func TestPlaceOrder_ProductGone(t *testing.T) {
	ledger := &mockLedger{createErr: &ProductNotFoundError{Name: "Macaron"}}
	svc := newTestService(ledger, &mockNotifier{}, nil)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		Customer: testCustomer(),
		Items:    []Item{testItem("gone", "Macaron", 1, "100.00")},
		Total:    decimal.RequireFromString("100.00"),
	})

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Contains(t, pnfErr.Error(), "Macaron")
}

func TestPlaceOrder_SettingsUnavailable(t *testing.T) {
	ledger := &mockLedger{}
	notifier := &mockNotifier{}
	set := &mockSettingsRepo{err: errors.New("settings store down")}
	svc := NewService(ledger, set, notifier, nil, zap.NewNop())

	o, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		Customer: testCustomer(),
		Items:    []Item{testItem("p1", "Ginger Snap", 1, "275.50")},
		Total:    decimal.RequireFromString("275.50"),
	})

	// A settings failure only costs the admin alert, never the order.
	require.NoError(t, err)
	assert.NotNil(t, o)
	require.Len(t, notifier.placed, 1)
	assert.Empty(t, notifier.placed[0].adminEmail)
}

func TestUpdateStatus_Success(t *testing.T) {
	existing := &Order{
		ID:       "ord-1",
		Customer: testCustomer(),
		Status:   StatusPending,
	}
	ledger := &mockLedger{statusOrder: existing}
	notifier := &mockNotifier{}
	svc := newTestService(ledger, notifier, nil)

	o, err := svc.UpdateStatus(context.Background(), "ord-1", "Shipped")

	require.NoError(t, err)
	assert.Equal(t, "Shipped", o.Status)
	require.Len(t, notifier.statusChanged, 1)
	assert.Equal(t, "Shipped", notifier.statusChanged[0].Status)
}

func TestUpdateStatus_Blank(t *testing.T) {
	svc := newTestService(&mockLedger{}, &mockNotifier{}, nil)

	_, err := svc.UpdateStatus(context.Background(), "ord-1", "   ")
	require.ErrorIs(t, err, ErrEmptyStatus)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	ledger := &mockLedger{statusErr: ErrNotFound}
	notifier := &mockNotifier{}
	svc := newTestService(ledger, notifier, nil)

	_, err := svc.UpdateStatus(context.Background(), "missing", "Shipped")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, notifier.statusChanged)
}

package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/ascentsys/retail-client/internal/cart"
	"github.com/ascentsys/retail-client/internal/catalog"
	"github.com/ascentsys/retail-client/internal/orders"
	"github.com/ascentsys/retail-client/pkg/enums"
	pkgerrors "github.com/ascentsys/retail-client/pkg/errors"
	"github.com/ascentsys/retail-client/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

type wireClient interface {
	Authenticate(ctx context.Context, username, secret string) (bool, error)
	Register(ctx context.Context, username, secret string) (bool, error)
}

// Credentials is the login/registration input. Secrets travel as plain
// tokens on this protocol; hashing is out of scope.
type Credentials struct {
	Username string `validate:"required,max=64"`
	Secret   string `validate:"required,max=64"`
}

// Session owns the per-session state: the cart, the order ledger, the
// catalog snapshot and the authenticated user. It is the policy layer the
// UI talks to; the aggregates underneath stay dumb containers. Constructing
// a Session wires everything explicitly, replacing the ambient singletons
// of the original design.
type Session struct {
	client  wireClient
	catalog catalog.Service
	cart    *cart.Cart
	ledger  *orders.Ledger
	log     *logger.Logger

	mu       sync.Mutex
	username string
}

// Params carries the dependencies a Session needs.
type Params struct {
	Client  wireClient
	Catalog catalog.Service
	Logger  *logger.Logger
}

// New builds a session with a fresh cart and ledger.
func New(params Params) (*Session, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("wire client required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Session{
		client:  params.Client,
		catalog: params.Catalog,
		cart:    cart.New(),
		ledger:  orders.NewLedger(),
		log:     params.Logger,
	}, nil
}

// Login authenticates against the server. A transport failure comes back as
// a connection-class error and must be reported as such, never as a
// credential rejection; a false response maps to CodeUnauthorized.
func (s *Session) Login(ctx context.Context, creds Credentials) error {
	if err := validate.Struct(creds); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid credentials input")
	}

	ok, err := s.client.Authenticate(ctx, creds.Username, creds.Secret)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "username or password rejected")
	}

	s.mu.Lock()
	s.username = creds.Username
	s.mu.Unlock()

	s.log.Info(s.log.WithUsername(ctx, creds.Username), "login succeeded")
	return nil
}

// RegisterAccount asks the server to create an account. The boolean result
// is the whole contract: false usually means the name is taken, but the
// protocol does not say more.
func (s *Session) RegisterAccount(ctx context.Context, creds Credentials) (bool, error) {
	if err := validate.Struct(creds); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid credentials input")
	}
	return s.client.Register(ctx, creds.Username, creds.Secret)
}

// CurrentUser returns the authenticated username, empty before login.
func (s *Session) CurrentUser() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// LoadCatalog refreshes the catalog snapshot from the server.
func (s *Session) LoadCatalog(ctx context.Context) ([]catalog.Record, error) {
	return s.catalog.Fetch(ctx)
}

// FilterCatalog narrows the latest snapshot to the given filter category.
func (s *Session) FilterCatalog(category enums.ProductCategory) []catalog.Record {
	return s.catalog.Filter(category)
}

// AddToCart merges qty units of the product into the cart after checking
// the stock ceiling recorded at fetch time. On rejection the cart is left
// untouched.
func (s *Session) AddToCart(id string, qty int) error {
	if qty < 1 {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be at least 1")
	}
	record, ok := s.catalog.RecordByID(id)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not in the current catalog", id))
	}

	current, _ := s.cart.Quantity(id)
	if !record.HasStock(current + qty) {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "requested quantity exceeds available stock").
			WithDetails(map[string]any{"product_id": id, "stock": record.Stock, "requested": current + qty})
	}

	s.cart.Add(id, record.Name, record.Price, qty)
	return nil
}

// SetCartQuantity overwrites the cart quantity for the product, bounded by
// the stock ceiling. Zero or negative removes the entry.
func (s *Session) SetCartQuantity(id string, qty int) error {
	if qty <= 0 {
		s.cart.Remove(id)
		return nil
	}
	record, ok := s.catalog.RecordByID(id)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not in the current catalog", id))
	}
	if !record.HasStock(qty) {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "requested quantity exceeds available stock").
			WithDetails(map[string]any{"product_id": id, "stock": record.Stock, "requested": qty})
	}

	s.cart.SetQuantity(id, record.Name, record.Price, qty)
	return nil
}

// RemoveFromCart drops the product from the cart.
func (s *Session) RemoveFromCart(id string) {
	s.cart.Remove(id)
}

// CartItems returns the current selection in insertion order.
func (s *Session) CartItems() []cart.Entry {
	return s.cart.Items()
}

// CartTotal returns the current cart total.
func (s *Session) CartTotal() decimal.Decimal {
	return s.cart.TotalPrice()
}

// Checkout commits the cart as an immutable order and clears the cart.
func (s *Session) Checkout(ctx context.Context) (orders.Order, error) {
	items := s.cart.Items()
	if len(items) == 0 {
		return orders.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	lineItems := make([]orders.LineItem, 0, len(items))
	for _, entry := range items {
		category := ""
		if record, ok := s.catalog.RecordByID(entry.ID); ok {
			category = record.Category
		}
		lineItems = append(lineItems, orders.LineItem{
			ID:        entry.ID,
			Name:      entry.Name,
			Category:  category,
			UnitPrice: entry.UnitPrice,
			Quantity:  entry.Quantity,
		})
	}

	order := s.ledger.CreateOrder(lineItems, s.cart.TotalPrice())
	s.cart.Clear()

	ctx = s.log.WithFields(ctx, map[string]any{"order_id": order.ID, "lines": len(order.Items)})
	s.log.Info(ctx, "checkout committed")
	return order, nil
}

// OrderHistory returns the committed orders in creation order.
func (s *Session) OrderHistory() []orders.Order {
	return s.ledger.Orders()
}

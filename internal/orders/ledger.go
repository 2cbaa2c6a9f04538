package orders

import (
	"fmt"
	"sync"
	"time"

	"github.com/ascentsys/retail-client/pkg/enums"
	pkgerrors "github.com/ascentsys/retail-client/pkg/errors"
	"github.com/shopspring/decimal"
)

// LineItem is one product line copied by value from the cart at commit
// time; later cart mutation never reaches it.
type LineItem struct {
	ID        string
	Name      string
	Category  string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Order is an immutable snapshot of a cart at the moment of checkout. Only
// Status may change after creation, and only through Ledger.SetStatus.
type Order struct {
	ID        string
	Items     []LineItem
	CreatedAt time.Time
	Total     decimal.Decimal
	Status    enums.OrderStatus
}

// Ledger is the append-only record of completed checkouts. Identifiers are
// ORD followed by a zero-padded 4-digit sequence starting at 1; the counter
// is never reset or reused within the process lifetime. There is no removal
// operation. Safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	orders  []Order
	counter int

	now func() time.Time
}

// NewLedger builds an empty ledger. Like the cart, it is constructed per
// session and injected, not reached through a package-level instance.
func NewLedger() *Ledger {
	return &Ledger{counter: 1, now: time.Now}
}

// CreateOrder assigns the next identifier, copies the line items, stamps
// the current time and appends the order with status completed. The total
// is stored as given, not recomputed from the items.
func (l *Ledger) CreateOrder(items []LineItem, total decimal.Decimal) Order {
	l.mu.Lock()
	defer l.mu.Unlock()

	order := Order{
		ID:        fmt.Sprintf("ORD%04d", l.counter),
		Items:     copyItems(items),
		CreatedAt: l.now(),
		Total:     total,
		Status:    enums.OrderStatusCompleted,
	}
	l.counter++
	l.orders = append(l.orders, order)
	return copyOrder(order)
}

// Orders returns all orders in creation order. The returned orders and
// their line items are deep copies; mutating them cannot affect the ledger.
func (l *Ledger) Orders() []Order {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Order, len(l.orders))
	for i, order := range l.orders {
		out[i] = copyOrder(order)
	}
	return out
}

// OrderByID looks up a single order snapshot.
func (l *Ledger) OrderByID(id string) (Order, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, order := range l.orders {
		if order.ID == id {
			return copyOrder(order), true
		}
	}
	return Order{}, false
}

// SetStatus overwrites the status label of an existing order. The status
// has no transition rules; any canonical value is accepted.
func (l *Ledger) SetStatus(id string, status enums.OrderStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", status))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.orders {
		if l.orders[i].ID == id {
			l.orders[i].Status = status
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", id))
}

// Len returns the number of committed orders.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.orders)
}

func copyItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

func copyOrder(order Order) Order {
	order.Items = copyItems(order.Items)
	return order
}

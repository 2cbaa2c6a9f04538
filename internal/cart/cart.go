package cart

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Entry is one line in the user's in-progress selection, keyed by product
// identifier. The unit price and name are captured at first add and left
// untouched by later merges.
type Entry struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Cart is the aggregate holding the current selection. It is a dumb
// container: stock-ceiling policy lives in the session layer, the aggregate
// only guarantees at most one entry per identifier and stable insertion
// order. All operations are safe for concurrent use; reads return copied
// snapshots.
type Cart struct {
	mu      sync.Mutex
	entries []Entry
	index   map[string]int
}

// New builds an empty cart. Carts are constructed per session and injected
// into whoever needs them; there is no package-level instance.
func New() *Cart {
	return &Cart{index: map[string]int{}}
}

// Add merges qty into the existing entry for id, or appends a new entry.
// The first-seen name and price win on merge.
func (c *Cart) Add(id, name string, price decimal.Decimal, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pos, ok := c.index[id]; ok {
		c.entries[pos].Quantity += qty
		return
	}
	c.index[id] = len(c.entries)
	c.entries = append(c.entries, Entry{ID: id, Name: name, UnitPrice: price, Quantity: qty})
}

// Remove deletes the entry for id; it is a no-op when absent.
func (c *Cart) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(id)
}

// SetQuantity overwrites the quantity for id. A quantity of zero or less
// removes the entry; setting a quantity for an absent id creates the entry
// with the given name and price.
func (c *Cart) SetQuantity(id, name string, price decimal.Decimal, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if qty <= 0 {
		c.removeLocked(id)
		return
	}
	if pos, ok := c.index[id]; ok {
		c.entries[pos].Quantity = qty
		return
	}
	c.index[id] = len(c.entries)
	c.entries = append(c.entries, Entry{ID: id, Name: name, UnitPrice: price, Quantity: qty})
}

// Clear deletes all entries.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.index = map[string]int{}
}

// Items returns the entries in insertion order, first-added first. The
// returned slice is a copy; mutating it does not touch the cart.
func (c *Cart) Items() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Quantity reports the current quantity for id and whether an entry exists.
func (c *Cart) Quantity(id string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pos, ok := c.index[id]; ok {
		return c.entries[pos].Quantity, true
	}
	return 0, false
}

// Len returns the number of distinct entries.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// TotalPrice sums unit price times quantity over all entries. An empty cart
// totals zero.
func (c *Cart) TotalPrice() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, entry := range c.entries {
		total = total.Add(entry.UnitPrice.Mul(decimal.NewFromInt(int64(entry.Quantity))))
	}
	return total
}

func (c *Cart) removeLocked(id string) {
	pos, ok := c.index[id]
	if !ok {
		return
	}
	c.entries = append(c.entries[:pos], c.entries[pos+1:]...)
	delete(c.index, id)
	for i := pos; i < len(c.entries); i++ {
		c.index[c.entries[i].ID] = i
	}
}

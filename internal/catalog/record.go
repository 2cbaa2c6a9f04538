package catalog

import (
	"math"

	"github.com/ascentsys/retail-client/pkg/enums"
	"github.com/shopspring/decimal"
)

// StockUnlimited marks a record whose stock field was missing or unparsable.
// Such products are treated as purchasable in any quantity.
const StockUnlimited = math.MaxInt

// Record is one product entry decoded from the server's listing response.
// Records are created per response and never mutated; a new fetch replaces
// the whole snapshot.
type Record struct {
	ID       string
	Name     string
	Category string
	Price    decimal.Decimal
	Stock    int
}

// HasStock reports whether qty units can be purchased against the record's
// stock ceiling.
func (r Record) HasStock(qty int) bool {
	if r.Stock == StockUnlimited {
		return true
	}
	return qty <= r.Stock
}

// FilterByCategory returns the records matching the given filter category,
// in their original order. ProductCategoryAll matches everything. Records
// carry open-format category strings, so comparison is a plain string match.
func FilterByCategory(records []Record, category enums.ProductCategory) []Record {
	if category == enums.ProductCategoryAll {
		out := make([]Record, len(records))
		copy(out, records)
		return out
	}
	var out []Record
	for _, record := range records {
		if record.Category == string(category) {
			out = append(out, record)
		}
	}
	return out
}

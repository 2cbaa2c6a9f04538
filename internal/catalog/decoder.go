package catalog

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/ascentsys/retail-client/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Decoder turns the raw text body of a catalog listing into typed records.
// The input is a relaxed, non-standard format; tolerance for malformed
// fragments is part of the compatibility contract, so implementations never
// return an error. Keep callers on this interface so the format could be
// swapped for a structured serialization without touching them.
type Decoder interface {
	Decode(body string) []Record
}

type fragmentDecoder struct {
	metrics *metrics.DecoderMetrics
}

// NewDecoder builds the tolerant fragment decoder. Metrics may be nil.
func NewDecoder(m *metrics.DecoderMetrics) Decoder {
	return &fragmentDecoder{metrics: m}
}

// Decode parses the body fragment by fragment. A fragment that yields no
// usable id is dropped; unrecognized keys are ignored; a missing or broken
// price defaults to zero and a missing or broken stock count means
// unlimited. An empty or unparsable body yields no records.
func (d *fragmentDecoder) Decode(body string) []Record {
	body = strings.TrimSpace(body)
	if strings.HasPrefix(body, "[") && strings.HasSuffix(body, "]") {
		body = body[1 : len(body)-1]
	}
	if strings.TrimSpace(body) == "" {
		return nil
	}

	var records []Record
	for _, fragment := range splitFragments(body) {
		record, ok := d.decodeFragment(fragment)
		if !ok {
			d.metrics.IncSkip()
			continue
		}
		records = append(records, record)
	}
	return records
}

// splitFragments cuts the body at each closing brace followed by optional
// whitespace and a comma, keeping the brace with the preceding fragment.
func splitFragments(body string) []string {
	var fragments []string
	start := 0
	for i := 0; i < len(body); i++ {
		if body[i] != '}' {
			continue
		}
		j := i + 1
		for j < len(body) && unicode.IsSpace(rune(body[j])) {
			j++
		}
		if j < len(body) && body[j] == ',' {
			fragments = append(fragments, body[start:i+1])
			start = j + 1
			i = j
		}
	}
	if start < len(body) {
		fragments = append(fragments, body[start:])
	}
	return fragments
}

func (d *fragmentDecoder) decodeFragment(fragment string) (Record, bool) {
	fragment = strings.TrimSpace(fragment)
	fragment = strings.TrimPrefix(fragment, "{")
	fragment = strings.TrimSuffix(fragment, "}")

	var id, name, category, price, stock string
	for _, pair := range strings.Split(fragment, ",") {
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		key = stripQuotes(key)
		value = stripQuotes(value)

		switch key {
		case "id":
			id = value
		case "name":
			name = value
		case "category":
			category = value
		case "price":
			price = value
		case "stock":
			stock = value
		}
	}

	if id == "" {
		return Record{}, false
	}
	return Record{
		ID:       id,
		Name:     name,
		Category: category,
		Price:    parsePrice(price),
		Stock:    parseStock(stock),
	}, true
}

func stripQuotes(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), `"`, "")
}

func parsePrice(raw string) decimal.Decimal {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return price
}

func parseStock(raw string) int {
	stock, err := strconv.Atoi(raw)
	if err != nil {
		return StockUnlimited
	}
	return stock
}

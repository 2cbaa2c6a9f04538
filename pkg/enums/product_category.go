package enums

import "fmt"

// ProductCategory is the fixed client-side category set used for catalog
// filtering. The wire format is an open string: records may carry any
// category value, the enum only drives the filter choices offered to the
// operator.
type ProductCategory string

const (
	ProductCategoryAll            ProductCategory = "all"
	ProductCategoryAntibiotic     ProductCategory = "antibiotic"
	ProductCategoryVitamin        ProductCategory = "vitamin"
	ProductCategoryColdRemedy     ProductCategory = "cold-remedy"
	ProductCategoryCardiovascular ProductCategory = "cardiovascular"
)

var validProductCategories = []ProductCategory{
	ProductCategoryAll,
	ProductCategoryAntibiotic,
	ProductCategoryVitamin,
	ProductCategoryColdRemedy,
	ProductCategoryCardiovascular,
}

// FilterCategories returns the categories offered by the catalog filter,
// in display order.
func FilterCategories() []ProductCategory {
	out := make([]ProductCategory, len(validProductCategories))
	copy(out, validProductCategories)
	return out
}

// IsValid reports whether the value matches the canonical filter set.
func (p ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductCategory converts the raw string to ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}

package domain

import "strings"

// Category is one level of a product's category hierarchy.
type Category struct {
	ID    string
	Label string
}

// Product is a single catalog row. SalePrice is nil when the source did not
// report a price; text fields are empty when absent. Rows are immutable for
// the lifetime of a snapshot.
type Product struct {
	ID          string
	Name        string
	Description string
	SalePrice   *float64
	Categories  []Category // up to 3 levels, outermost first
	Source      string
	URL         string
	Image       string
}

// HasValidName reports whether the product carries a non-blank name.
func (p *Product) HasValidName() bool {
	return strings.TrimSpace(p.Name) != ""
}

// HasValidPrice reports whether the product carries a positive sale price.
func (p *Product) HasValidPrice() bool {
	return p.SalePrice != nil && *p.SalePrice > 0
}

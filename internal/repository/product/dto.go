package product

import (
	"fmt"
	"strconv"

	"github.com/shopsight/prodsim/internal/domain"
)

// buildHashFields converts a domain Product into a flat map[string]string for HSET.
// Categories are flattened as category_<i>_id / category_<i>_label pairs.
func buildHashFields(p *domain.Product) map[string]string {
	m := make(map[string]string, 6+2*len(p.Categories))
	m["product_name"] = p.Name
	m["product_desc"] = p.Description
	m["data_source"] = p.Source
	m["url"] = p.URL
	m["image"] = p.Image
	if p.SalePrice != nil {
		m["sale_price"] = strconv.FormatFloat(*p.SalePrice, 'f', -1, 64)
	}
	for i, c := range p.Categories {
		m[fmt.Sprintf("category_%d_id", i)] = c.ID
		m[fmt.Sprintf("category_%d_label", i)] = c.Label
	}
	return m
}

// parseHashFields converts a flat hash map back into a domain Product.
func parseHashFields(id string, m map[string]string) domain.Product {
	p := domain.Product{
		ID:          id,
		Name:        m["product_name"],
		Description: m["product_desc"],
		Source:      m["data_source"],
		URL:         m["url"],
		Image:       m["image"],
	}

	if raw, ok := m["sale_price"]; ok && raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			p.SalePrice = &f
		}
	}

	for i := 0; ; i++ {
		idKey := fmt.Sprintf("category_%d_id", i)
		labelKey := fmt.Sprintf("category_%d_label", i)
		catID, hasID := m[idKey]
		catLabel, hasLabel := m[labelKey]
		if !hasID && !hasLabel {
			break
		}
		p.Categories = append(p.Categories, domain.Category{ID: catID, Label: catLabel})
	}

	return p
}

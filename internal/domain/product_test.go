package domain

import "testing"

func TestHasValidName(t *testing.T) {
	tests := []struct {
		name string
		val  string
		want bool
	}{
		{"empty", "", false},
		{"whitespace only", "   \t", false},
		{"real name", "Ceiling Fan", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := Product{Name: tc.val}
			if got := p.HasValidName(); got != tc.want {
				t.Errorf("HasValidName(%q) = %v, want %v", tc.val, got, tc.want)
			}
		})
	}
}

func TestHasValidPrice(t *testing.T) {
	zero, negative, positive := 0.0, -5.0, 19.99
	tests := []struct {
		name string
		val  *float64
		want bool
	}{
		{"missing", nil, false},
		{"zero", &zero, false},
		{"negative", &negative, false},
		{"positive", &positive, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := Product{SalePrice: tc.val}
			if got := p.HasValidPrice(); got != tc.want {
				t.Errorf("HasValidPrice = %v, want %v", got, tc.want)
			}
		})
	}
}

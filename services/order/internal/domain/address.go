package domain

import (
	"strings"

	apperrors "github.com/kitchencart/ecommerce/pkg/errors"
)

// Address is a postal address. Orders keep a copy taken at creation.
type Address struct {
	Name    string `json:"name,omitempty"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

// Normalize trims surrounding whitespace from every field.
func (a Address) Normalize() Address {
	return Address{
		Name:    strings.TrimSpace(a.Name),
		Street:  strings.TrimSpace(a.Street),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		ZipCode: strings.TrimSpace(a.ZipCode),
		Country: strings.TrimSpace(a.Country),
	}
}

// Validate requires street, city, state, zip code and country.
func (a Address) Validate() error {
	n := a.Normalize()
	missing := map[string]string{}
	for field, v := range map[string]string{
		"street":   n.Street,
		"city":     n.City,
		"state":    n.State,
		"zip_code": n.ZipCode,
		"country":  n.Country,
	} {
		if v == "" {
			missing[field] = "is required"
		}
	}
	if len(missing) > 0 {
		return apperrors.Validation("Please complete your shipping address in your profile before placing an order", missing)
	}
	return nil
}

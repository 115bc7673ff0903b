package domain

import (
	"math"
	"time"
)

// Product is a catalog entry. Prices are minor units; Stock never goes below
// zero.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	MRP          int64     `json:"mrp"`
	SellingPrice int64     `json:"selling_price"`
	Discount     int       `json:"discount"`
	Stock        int       `json:"stock"`
	Images       []string  `json:"images"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ComputeDiscount returns the whole-percent discount of selling against mrp,
// never negative.
func ComputeDiscount(mrp, selling int64) int {
	if mrp <= 0 || selling < 0 {
		return 0
	}
	pct := math.Round(float64(mrp-selling) / float64(mrp) * 100)
	if pct < 0 {
		return 0
	}
	return int(pct)
}

// ApplyDiscount recomputes Discount from the current prices.
func (p *Product) ApplyDiscount() {
	p.Discount = ComputeDiscount(p.MRP, p.SellingPrice)
}

package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// LineItem is one aggregated cart entry. ID is unique within a cart.
type LineItem struct {
	ID          ItemID  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Image       string  `json:"image,omitempty"`
	Quantity    int     `json:"quantity"`
}

// Snapshot is the persisted cart shape. TotalPrice is written for readers of the raw
// value but is never trusted on load; Total recomputes it.
type Snapshot struct {
	Items      []LineItem `json:"items"`
	TotalPrice float64    `json:"totalPrice"`
}

func EmptySnapshot() Snapshot {
	return Snapshot{Items: []LineItem{}}
}

func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

func (s Snapshot) ItemCount() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

// Total is the full-precision sum of price * quantity.
func (s Snapshot) Total() float64 {
	var total float64
	for _, it := range s.Items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// RoundedTotal is Total rounded half away from zero to two places.
func (s Snapshot) RoundedTotal() float64 {
	f, _ := decimal.NewFromFloat(s.Total()).Round(2).Float64()
	return f
}

// DisplayTotal formats the total with exactly two decimals.
func (s Snapshot) DisplayTotal() string {
	return decimal.NewFromFloat(s.Total()).StringFixed(2)
}

func (s Snapshot) IndexOf(id ItemID) int {
	for i, it := range s.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a copy whose Items slice does not alias s.
func (s Snapshot) Clone() Snapshot {
	items := make([]LineItem, len(s.Items))
	copy(items, s.Items)
	return Snapshot{Items: items, TotalPrice: s.TotalPrice}
}

// ValidPrice reports whether p can be used as a unit price.
func ValidPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p >= 0
}

package domain

import (
	"strings"
	"time"
)

type ShippingDetails struct {
	Address string `json:"address" bson:"address"`
	City    string `json:"city" bson:"city"`
	ZipCode string `json:"zipCode" bson:"zipCode"`
	Country string `json:"country" bson:"country"`
}

func (d ShippingDetails) Trimmed() ShippingDetails {
	return ShippingDetails{
		Address: strings.TrimSpace(d.Address),
		City:    strings.TrimSpace(d.City),
		ZipCode: strings.TrimSpace(d.ZipCode),
		Country: strings.TrimSpace(d.Country),
	}
}

// Complete reports whether every field is non-blank.
func (d ShippingDetails) Complete() bool {
	t := d.Trimmed()
	return t.Address != "" && t.City != "" && t.ZipCode != "" && t.Country != ""
}

// OrderItem captures line values at submission time so later catalog edits don't alter history.
type OrderItem struct {
	Name      string  `json:"name" bson:"name"`
	ProductID ItemID  `json:"productId" bson:"productId"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	Price     float64 `json:"price" bson:"price"`
}

type Order struct {
	ID              string          `json:"id" bson:"_id,omitempty"`
	UserID          string          `json:"userId" bson:"userId"`
	Items           []OrderItem     `json:"items" bson:"items"`
	TotalAmount     float64         `json:"totalAmount" bson:"totalAmount"`
	ShippingDetails ShippingDetails `json:"shippingDetails" bson:"shippingDetails"`
	CreatedAt       time.Time       `json:"createdAt" bson:"createdAt"`
}

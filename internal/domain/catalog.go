package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ItemID identifies a catalog item. Catalog sources emit it as a JSON string or number.
type ItemID string

func (id *ItemID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ItemID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("item id must be a string or number: %w", err)
	}
	*id = ItemID(n.String())
	return nil
}

func (id ItemID) String() string {
	return string(id)
}

type Rating struct {
	Rate  float64 `json:"rate" bson:"rate"`
	Count int     `json:"count" bson:"count"`
}

// CatalogItem is a product record from the products collection.
// Name and Image have legacy alternates (Title, ImageURL) that some records still carry.
type CatalogItem struct {
	ID          ItemID   `json:"id" bson:"_id,omitempty"`
	Name        string   `json:"name,omitempty" bson:"name,omitempty"`
	Title       string   `json:"title,omitempty" bson:"title,omitempty"`
	Price       *float64 `json:"price" bson:"price"`
	Category    string   `json:"category" bson:"category"`
	Description string   `json:"description" bson:"description"`
	Rating      *Rating  `json:"rating,omitempty" bson:"rating,omitempty"`
	Image       string   `json:"image,omitempty" bson:"image,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Stock       *int     `json:"stock,omitempty" bson:"stock,omitempty"`
}

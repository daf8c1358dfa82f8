package cart

import (
	"errors"
	"strings"

	"github.com/fjod/go_storefront/internal/domain"
)

type catalogField func(domain.CatalogItem) string

// lineItemField fills one LineItem text field from the first non-empty catalog source.
type lineItemField struct {
	name    string
	sources []catalogField
	set     func(*domain.LineItem, string)
}

// lineItemFields is the canonical catalog -> cart mapping:
//
//	name        <- name, title, ""
//	category    <- category
//	description <- description
//	image       <- image, imageUrl, ""
//
// id and price are copied directly.
var lineItemFields = []lineItemField{
	{
		name:    "name",
		sources: []catalogField{func(c domain.CatalogItem) string { return c.Name }, func(c domain.CatalogItem) string { return c.Title }},
		set:     func(li *domain.LineItem, v string) { li.Name = v },
	},
	{
		name:    "category",
		sources: []catalogField{func(c domain.CatalogItem) string { return c.Category }},
		set:     func(li *domain.LineItem, v string) { li.Category = v },
	},
	{
		name:    "description",
		sources: []catalogField{func(c domain.CatalogItem) string { return c.Description }},
		set:     func(li *domain.LineItem, v string) { li.Description = v },
	},
	{
		name:    "image",
		sources: []catalogField{func(c domain.CatalogItem) string { return c.Image }, func(c domain.CatalogItem) string { return c.ImageURL }},
		set:     func(li *domain.LineItem, v string) { li.Image = v },
	},
}

// normalize assumes item already passed validateCatalogItem.
func normalize(item domain.CatalogItem, quantity int) domain.LineItem {
	li := domain.LineItem{
		ID:       item.ID,
		Price:    *item.Price,
		Quantity: quantity,
	}
	for _, f := range lineItemFields {
		for _, src := range f.sources {
			if v := src(item); v != "" {
				f.set(&li, v)
				break
			}
		}
	}
	return li
}

func validateCatalogItem(item domain.CatalogItem, quantity int) error {
	switch {
	case item.ID == "":
		return errors.New("missing id")
	case item.Price == nil:
		return errors.New("missing price")
	case !domain.ValidPrice(*item.Price):
		return errors.New("price is not a valid amount")
	case strings.TrimSpace(item.Category) == "":
		return errors.New("missing category")
	case strings.TrimSpace(item.Description) == "":
		return errors.New("missing description")
	case quantity < 1:
		return errors.New("quantity must be at least 1")
	}
	return nil
}
